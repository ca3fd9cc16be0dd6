package model

import (
	"slices"
	"time"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusApproved  = "approved"
	BookingStatusRejected  = "rejected"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

const (
	MinBookingDurationMinutes = 15
	MaxBookingDurationMinutes = 480
)

// bookingTransitions lists the states reachable from each non-terminal state.
var bookingTransitions = map[string][]string{
	BookingStatusPending:  {BookingStatusApproved, BookingStatusRejected, BookingStatusCancelled},
	BookingStatusApproved: {BookingStatusCompleted, BookingStatusCancelled},
}

func CanTransitionBooking(from, to string) bool {
	return slices.Contains(bookingTransitions[from], to)
}

// BookingSourcesOf returns every state that may move to the given state.
func BookingSourcesOf(to string) []string {
	var sources []string
	for _, from := range []string{BookingStatusPending, BookingStatusApproved} {
		if CanTransitionBooking(from, to) {
			sources = append(sources, from)
		}
	}
	return sources
}

func IsTerminalBookingStatus(status string) bool {
	return len(bookingTransitions[status]) == 0
}

// ActiveBookingStatuses block the tutor's calendar.
var ActiveBookingStatuses = []string{BookingStatusPending, BookingStatusApproved}

type Booking struct {
	ID                 string     `json:"id" bson:"_id,omitempty"`
	StudentID          string     `json:"student_id" bson:"student_id"`
	TutorID            string     `json:"tutor_id" bson:"tutor_id"`
	Subject            string     `json:"subject" bson:"subject"`
	StartTime          time.Time  `json:"start_time" bson:"start_time"`
	EndTime            time.Time  `json:"end_time" bson:"end_time"`
	DurationMinutes    int        `json:"duration_minutes" bson:"duration_minutes"`
	Message            string     `json:"message,omitempty" bson:"message,omitempty"`
	Status             string     `json:"status" bson:"status"`
	RejectionReason    string     `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	MeetingLink        string     `json:"meeting_link,omitempty" bson:"meeting_link,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) IsParticipant(userID string) bool {
	return b.StudentID == userID || b.TutorID == userID
}

func (b *Booking) RelationshipKey() RelationshipKey {
	return RelationshipKey{StudentID: b.StudentID, TutorID: b.TutorID, Subject: b.Subject}
}

type BookingRequest struct {
	TutorID         string    `json:"tutor_id" validate:"required,mongodb"`
	Subject         string    `json:"subject" validate:"required,min=2,max=60"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=15,max=480"`
	Message         string    `json:"message,omitempty" validate:"omitempty,max=1000"`
}

type BookingApproval struct {
	MeetingLink string `json:"meeting_link,omitempty" validate:"omitempty,url,max=500"`
}

type BookingReason struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type BookingFilter struct {
	UserID string
	Role   string
	Status string
}

// BookingStatusChange is applied only when the stored status is one of From.
type BookingStatusChange struct {
	From        []string
	To          string
	Reason      string
	MeetingLink string
	By          string
	At          time.Time
}

type BookingView struct {
	Booking
	Student *UserSummary `json:"student,omitempty"`
	Tutor   *UserSummary `json:"tutor,omitempty"`
}

// BookingLock is an advisory lock document. A TTL index on expires_at reaps
// locks left behind by crashed requests.
type BookingLock struct {
	ID        string    `bson:"_id"`
	Owner     string    `bson:"owner"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}
