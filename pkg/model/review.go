package model

import "time"

type Review struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	BookingID string    `json:"booking_id" bson:"booking_id"`
	StudentID string    `json:"student_id" bson:"student_id"`
	TutorID   string    `json:"tutor_id" bson:"tutor_id"`
	Rating    int       `json:"rating" bson:"rating"`
	Comment   string    `json:"comment,omitempty" bson:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type ReviewRequest struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

type ReviewView struct {
	Review
	Student *UserSummary `json:"student,omitempty"`
}
