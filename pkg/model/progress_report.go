package model

import "time"

type ProgressReport struct {
	ID                  string    `json:"id" bson:"_id,omitempty"`
	StudentID           string    `json:"student_id" bson:"student_id"`
	TutorID             string    `json:"tutor_id" bson:"tutor_id"`
	Subject             string    `json:"subject" bson:"subject"`
	PeriodStart         time.Time `json:"period_start" bson:"period_start"`
	PeriodEnd           time.Time `json:"period_end" bson:"period_end"`
	ProgressRating      int       `json:"progress_rating" bson:"progress_rating"`
	Strengths           string    `json:"strengths,omitempty" bson:"strengths,omitempty"`
	AreasForImprovement string    `json:"areas_for_improvement,omitempty" bson:"areas_for_improvement,omitempty"`
	Goals               []string  `json:"goals" bson:"goals"`
	Comments            string    `json:"comments,omitempty" bson:"comments,omitempty"`
	SessionsCompleted   int       `json:"sessions_completed" bson:"sessions_completed"`
	SessionsAttended    int       `json:"sessions_attended" bson:"sessions_attended"`
	CreatedAt           time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt           time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *ProgressReport) IsParticipant(userID string) bool {
	return p.StudentID == userID || p.TutorID == userID
}

type ProgressReportRequest struct {
	StudentID           string    `json:"student_id" validate:"required,mongodb"`
	Subject             string    `json:"subject" validate:"required,min=2,max=60"`
	PeriodStart         time.Time `json:"period_start" validate:"required"`
	PeriodEnd           time.Time `json:"period_end" validate:"required,gtfield=PeriodStart"`
	ProgressRating      int       `json:"progress_rating" validate:"required,min=1,max=5"`
	Strengths           string    `json:"strengths,omitempty" validate:"omitempty,max=2000"`
	AreasForImprovement string    `json:"areas_for_improvement,omitempty" validate:"omitempty,max=2000"`
	Goals               []string  `json:"goals,omitempty" validate:"omitempty,max=20,dive,required,max=200"`
	Comments            string    `json:"comments,omitempty" validate:"omitempty,max=2000"`
}

type ProgressReportUpdate struct {
	ProgressRating      *int      `json:"progress_rating,omitempty" validate:"omitempty,min=1,max=5"`
	Strengths           *string   `json:"strengths,omitempty" validate:"omitempty,max=2000"`
	AreasForImprovement *string   `json:"areas_for_improvement,omitempty" validate:"omitempty,max=2000"`
	Goals               *[]string `json:"goals,omitempty" validate:"omitempty,max=20,dive,required,max=200"`
	Comments            *string   `json:"comments,omitempty" validate:"omitempty,max=2000"`
}

type ProgressReportView struct {
	ProgressReport
	Student *UserSummary `json:"student,omitempty"`
	Tutor   *UserSummary `json:"tutor,omitempty"`
}
