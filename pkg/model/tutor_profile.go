package model

import (
	"math"
	"strings"
	"time"
)

const (
	ProfileStatusPending  = "pending"
	ProfileStatusApproved = "approved"
	ProfileStatusRejected = "rejected"
)

const (
	TutorSortRating   = "rating"
	TutorSortRateAsc  = "rate_asc"
	TutorSortRateDesc = "rate_desc"
	TutorSortNewest   = "newest"
)

type AvailabilitySlot struct {
	Day       string `json:"day" bson:"day" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	StartTime string `json:"start_time" bson:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" bson:"end_time" validate:"required,hhmm"`
}

type TutorProfile struct {
	ID              string             `json:"id" bson:"_id,omitempty"`
	UserID          string             `json:"user_id" bson:"user_id"`
	Headline        string             `json:"headline" bson:"headline"`
	Bio             string             `json:"bio" bson:"bio"`
	Subjects        []string           `json:"subjects" bson:"subjects"`
	HourlyRate      float64            `json:"hourly_rate" bson:"hourly_rate"`
	ExperienceYears int                `json:"experience_years" bson:"experience_years"`
	Education       string             `json:"education,omitempty" bson:"education,omitempty"`
	Languages       []string           `json:"languages,omitempty" bson:"languages,omitempty"`
	Availability    []AvailabilitySlot `json:"availability,omitempty" bson:"availability,omitempty"`
	TimeZone        string             `json:"time_zone" bson:"time_zone"`
	Status          string             `json:"status" bson:"status"`
	RejectionReason string             `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	ReviewedBy      string             `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	RatingAverage   float64            `json:"rating_average" bson:"rating_average"`
	RatingCount     int                `json:"rating_count" bson:"rating_count"`
	RatingSum       int                `json:"-" bson:"rating_sum"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// Teaches reports whether subject is one of the profile subjects, ignoring case.
func (p *TutorProfile) Teaches(subject string) bool {
	for _, s := range p.Subjects {
		if strings.EqualFold(strings.TrimSpace(s), strings.TrimSpace(subject)) {
			return true
		}
	}
	return false
}

type TutorProfileRequest struct {
	Headline        string             `json:"headline" validate:"required,min=5,max=120"`
	Bio             string             `json:"bio" validate:"required,min=20,max=2000"`
	Subjects        []string           `json:"subjects" validate:"required,min=1,max=20,dive,required,min=2,max=60"`
	HourlyRate      float64            `json:"hourly_rate" validate:"required,gt=0,lte=1000"`
	ExperienceYears int                `json:"experience_years" validate:"min=0,max=60"`
	Education       string             `json:"education,omitempty" validate:"omitempty,max=300"`
	Languages       []string           `json:"languages,omitempty" validate:"omitempty,max=10,dive,required,min=2,max=40"`
	Availability    []AvailabilitySlot `json:"availability,omitempty" validate:"omitempty,max=50,dive"`
	TimeZone        string             `json:"time_zone,omitempty" validate:"omitempty,timezone"`
}

type ProfileRejection struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

type TutorView struct {
	TutorProfile
	Tutor   *UserSummary  `json:"tutor,omitempty"`
	Reviews []*ReviewView `json:"reviews,omitempty"`
}

type TutorFilter struct {
	Subject   string
	Language  string
	MinRating *float64
	MaxRate   *float64
	Sort      string
}

type ProfileFilter struct {
	Status string
}

// RatingAverage rounds to two decimals. Zero reviews yield zero.
func RatingAverage(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	return round2(float64(sum) / float64(count))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
