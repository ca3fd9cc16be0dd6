package model

import "time"

const (
	HomeworkAssigned  = "assigned"
	HomeworkSubmitted = "submitted"
	HomeworkReviewed  = "reviewed"
)

type TutorFeedback struct {
	Summary          string   `json:"summary" bson:"summary" validate:"required,min=10,max=2000"`
	TopicsCovered    []string `json:"topics_covered,omitempty" bson:"topics_covered,omitempty" validate:"omitempty,max=20,dive,required,max=100"`
	Strengths        string   `json:"strengths,omitempty" bson:"strengths,omitempty" validate:"omitempty,max=1000"`
	Improvements     string   `json:"improvements,omitempty" bson:"improvements,omitempty" validate:"omitempty,max=1000"`
	EngagementRating int      `json:"engagement_rating,omitempty" bson:"engagement_rating,omitempty" validate:"omitempty,min=1,max=5"`
}

type StudentFeedback struct {
	Comment     string    `json:"comment,omitempty" bson:"comment,omitempty"`
	Rating      int       `json:"rating" bson:"rating"`
	SubmittedAt time.Time `json:"submitted_at" bson:"submitted_at"`
}

type MaterialLink struct {
	Title       string `json:"title" bson:"title" validate:"required,max=200"`
	URL         string `json:"url" bson:"url" validate:"required,url,max=1000"`
	Description string `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=500"`
}

type Homework struct {
	ID          string     `json:"id" bson:"id"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	Status      string     `json:"status" bson:"status"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty" bson:"submitted_at,omitempty"`
	ReviewedAt  *time.Time `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
}

type SessionFeedback struct {
	ID               string           `json:"id" bson:"_id,omitempty"`
	BookingID        string           `json:"booking_id" bson:"booking_id"`
	TutorID          string           `json:"tutor_id" bson:"tutor_id"`
	StudentID        string           `json:"student_id" bson:"student_id"`
	Subject          string           `json:"subject" bson:"subject"`
	SessionDate      time.Time        `json:"session_date" bson:"session_date"`
	TutorFeedback    TutorFeedback    `json:"tutor_feedback" bson:"tutor_feedback"`
	StudentFeedback  *StudentFeedback `json:"student_feedback,omitempty" bson:"student_feedback,omitempty"`
	AttendanceStatus string           `json:"attendance_status,omitempty" bson:"attendance_status,omitempty"`
	StudyMaterials   []MaterialLink   `json:"study_materials" bson:"study_materials"`
	Homework         []Homework       `json:"homework" bson:"homework"`
	CreatedAt        time.Time        `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at" bson:"updated_at"`
	// Version is bumped by every write.
	Version int64 `json:"-" bson:"version"`
}

func (f *SessionFeedback) IsParticipant(userID string) bool {
	return f.StudentID == userID || f.TutorID == userID
}

// HomeworkItem returns a pointer into Homework so callers can edit in place.
func (f *SessionFeedback) HomeworkItem(id string) *Homework {
	for i := range f.Homework {
		if f.Homework[i].ID == id {
			return &f.Homework[i]
		}
	}
	return nil
}

type HomeworkRequest struct {
	ID          string     `json:"id,omitempty" validate:"omitempty,max=64"`
	Title       string     `json:"title" validate:"required,min=2,max=200"`
	Description string     `json:"description,omitempty" validate:"omitempty,max=2000"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type SessionFeedbackRequest struct {
	BookingID        string            `json:"booking_id" validate:"required,mongodb"`
	TutorFeedback    TutorFeedback     `json:"tutor_feedback"`
	AttendanceStatus string            `json:"attendance_status,omitempty" validate:"omitempty,oneof=present absent late excused"`
	StudyMaterials   []MaterialLink    `json:"study_materials,omitempty" validate:"omitempty,max=20,dive"`
	Homework         []HomeworkRequest `json:"homework,omitempty" validate:"omitempty,max=20,dive"`
}

type SessionFeedbackUpdate struct {
	TutorFeedback  *TutorFeedback     `json:"tutor_feedback,omitempty" validate:"omitempty"`
	StudyMaterials *[]MaterialLink    `json:"study_materials,omitempty" validate:"omitempty,max=20,dive"`
	Homework       *[]HomeworkRequest `json:"homework,omitempty" validate:"omitempty,max=20,dive"`
}

type StudentFeedbackRequest struct {
	Comment string `json:"comment,omitempty" validate:"omitempty,max=1000"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
}

type HomeworkStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=submitted reviewed"`
}
