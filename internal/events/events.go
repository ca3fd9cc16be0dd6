// Package events defines the domain events the API emits after a successful
// write and the publishers that ship them to Kafka.
package events

import (
	"time"
)

const (
	TypeUserRegistered         = "user.registered"
	TypePasswordResetRequested = "auth.password_reset_requested"

	TypeBookingCreated   = "booking.created"
	TypeBookingApproved  = "booking.approved"
	TypeBookingRejected  = "booking.rejected"
	TypeBookingCancelled = "booking.cancelled"
	TypeBookingCompleted = "booking.completed"

	TypeTutorApproved = "tutor.approved"
	TypeTutorRejected = "tutor.rejected"

	TypeReviewCreated = "review.created"
)

const SchemaVersion = "1"

// Event is one domain fact. AggregateID becomes the Kafka key so events of
// the same booking, profile or user stay ordered.
type Event struct {
	Type        string
	AggregateID string
	Payload     any
}

type Contact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type UserRegistered struct {
	User Contact `json:"user"`
	Role string  `json:"role"`
}

type PasswordResetRequested struct {
	User      Contact   `json:"user"`
	Token     string    `json:"token"`
	ResetURL  string    `json:"reset_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type BookingChanged struct {
	BookingID   string    `json:"booking_id"`
	Status      string    `json:"status"`
	Subject     string    `json:"subject"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Student     Contact   `json:"student"`
	Tutor       Contact   `json:"tutor"`
	Reason      string    `json:"reason,omitempty"`
	MeetingLink string    `json:"meeting_link,omitempty"`
	ChangedBy   string    `json:"changed_by"`
}

type TutorReviewed struct {
	ProfileID string  `json:"profile_id"`
	Status    string  `json:"status"`
	Reason    string  `json:"reason,omitempty"`
	Tutor     Contact `json:"tutor"`
}

type ReviewCreated struct {
	ReviewID  string  `json:"review_id"`
	BookingID string  `json:"booking_id"`
	Rating    int     `json:"rating"`
	Comment   string  `json:"comment,omitempty"`
	Student   Contact `json:"student"`
	Tutor     Contact `json:"tutor"`
}

// BookingEventType maps a booking status to its event type.
func BookingEventType(status string) string {
	return "booking." + status
}
