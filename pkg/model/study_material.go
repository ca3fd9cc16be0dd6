package model

import (
	"slices"
	"time"
)

const (
	MaterialDocument  = "document"
	MaterialVideo     = "video"
	MaterialLinkType  = "link"
	MaterialWorksheet = "worksheet"
	MaterialOther     = "other"
)

type StudyMaterial struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	TutorID     string    `json:"tutor_id" bson:"tutor_id"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Subject     string    `json:"subject" bson:"subject"`
	URL         string    `json:"url" bson:"url"`
	Type        string    `json:"type" bson:"type"`
	SharedWith  []string  `json:"shared_with" bson:"shared_with"`
	IsPublic    bool      `json:"is_public" bson:"is_public"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

func (m *StudyMaterial) IsSharedWith(studentID string) bool {
	return slices.Contains(m.SharedWith, studentID)
}

type StudyMaterialRequest struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Subject     string `json:"subject" validate:"required,min=2,max=60"`
	URL         string `json:"url" validate:"required,url,max=1000"`
	Type        string `json:"type" validate:"required,oneof=document video link worksheet other"`
	IsPublic    bool   `json:"is_public"`
}

type StudyMaterialUpdate struct {
	Title       *string `json:"title,omitempty" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Subject     *string `json:"subject,omitempty" validate:"omitempty,min=2,max=60"`
	URL         *string `json:"url,omitempty" validate:"omitempty,url,max=1000"`
	Type        *string `json:"type,omitempty" validate:"omitempty,oneof=document video link worksheet other"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

type ShareRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,max=100,objectid_list"`
}
