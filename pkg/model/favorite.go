package model

import "time"

type Favorite struct {
	ID        string    `json:"id" bson:"_id,omitempty"`
	StudentID string    `json:"student_id" bson:"student_id"`
	TutorID   string    `json:"tutor_id" bson:"tutor_id"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type FavoriteRequest struct {
	TutorID string `json:"tutor_id" validate:"required,mongodb"`
}

type FavoriteView struct {
	Favorite
	Tutor *UserSummary `json:"tutor,omitempty"`
}

type FavoriteStatus struct {
	Favorite bool `json:"favorite"`
}
