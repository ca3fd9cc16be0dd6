package model

import "time"

const (
	RelationshipActive   = "active"
	RelationshipInactive = "inactive"
)

// CurrentTutor is the derived per student, tutor and subject relationship.
// Its counters are only moved by booking, attendance and feedback writes.
type CurrentTutor struct {
	ID                     string     `json:"id" bson:"_id,omitempty"`
	StudentID              string     `json:"student_id" bson:"student_id"`
	TutorID                string     `json:"tutor_id" bson:"tutor_id"`
	Subject                string     `json:"subject" bson:"subject"`
	Status                 string     `json:"status" bson:"status"`
	TotalSessionsBooked    int        `json:"total_sessions_booked" bson:"total_sessions_booked"`
	TotalSessionsCompleted int        `json:"total_sessions_completed" bson:"total_sessions_completed"`
	TotalSessionsCancelled int        `json:"total_sessions_cancelled" bson:"total_sessions_cancelled"`
	TotalSessionsAttended  int        `json:"total_sessions_attended" bson:"total_sessions_attended"`
	TotalSessionsMissed    int        `json:"total_sessions_missed" bson:"total_sessions_missed"`
	FirstSessionAt         *time.Time `json:"first_session_at,omitempty" bson:"first_session_at,omitempty"`
	LastSessionAt          *time.Time `json:"last_session_at,omitempty" bson:"last_session_at,omitempty"`
	NextSessionAt          *time.Time `json:"next_session_at,omitempty" bson:"next_session_at,omitempty"`
	CreatedAt              time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at" bson:"updated_at"`
}

func (c *CurrentTutor) IsParticipant(userID string) bool {
	return c.StudentID == userID || c.TutorID == userID
}

type RelationshipKey struct {
	StudentID string
	TutorID   string
	Subject   string
}

// CounterDelta describes one atomic adjustment of a CurrentTutor document.
// Zero counters are left untouched.
type CounterDelta struct {
	Booked    int
	Completed int
	Cancelled int
	Attended  int
	Missed    int

	FirstSessionAt *time.Time
	LastSessionAt  *time.Time
	NextSessionAt  *time.Time
	ClearNext      bool
	Activate       bool
}

func (d CounterDelta) IsZero() bool {
	return d.Booked == 0 && d.Completed == 0 && d.Cancelled == 0 &&
		d.Attended == 0 && d.Missed == 0 &&
		d.FirstSessionAt == nil && d.LastSessionAt == nil && d.NextSessionAt == nil &&
		!d.ClearNext && !d.Activate
}

type CurrentTutorStatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type CurrentTutorView struct {
	CurrentTutor
	Student *UserSummary `json:"student,omitempty"`
	Tutor   *UserSummary `json:"tutor,omitempty"`
}
