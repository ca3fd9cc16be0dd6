package model

import "time"

const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

type Attendance struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	BookingID   string    `json:"booking_id" bson:"booking_id"`
	StudentID   string    `json:"student_id" bson:"student_id"`
	TutorID     string    `json:"tutor_id" bson:"tutor_id"`
	Subject     string    `json:"subject" bson:"subject"`
	SessionDate time.Time `json:"session_date" bson:"session_date"`
	Status      string    `json:"status" bson:"status"`
	Notes       string    `json:"notes,omitempty" bson:"notes,omitempty"`
	MarkedBy    string    `json:"marked_by" bson:"marked_by"`
	MarkedAt    time.Time `json:"marked_at" bson:"marked_at"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

type AttendanceRequest struct {
	BookingID string `json:"booking_id" validate:"required,mongodb"`
	Status    string `json:"status" validate:"required,oneof=present absent late excused"`
	Notes     string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

type AttendanceFilter struct {
	StudentID string
	TutorID   string
	Subject   string
}

type AttendanceSummary struct {
	Total          int     `json:"total"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendance_rate"`
}

type attendanceBucket int

const (
	bucketNone attendanceBucket = iota
	bucketAttended
	bucketMissed
)

func bucketOf(status string) attendanceBucket {
	switch status {
	case AttendancePresent, AttendanceLate:
		return bucketAttended
	case AttendanceAbsent:
		return bucketMissed
	default:
		return bucketNone
	}
}

// AttendanceDelta returns the counter move for changing an attendance record
// from previous to next. previous is empty for a first mark.
func AttendanceDelta(previous, next string) CounterDelta {
	var d CounterDelta
	switch bucketOf(previous) {
	case bucketAttended:
		d.Attended--
	case bucketMissed:
		d.Missed--
	}
	switch bucketOf(next) {
	case bucketAttended:
		d.Attended++
	case bucketMissed:
		d.Missed++
	}
	return d
}

// Summarize builds a summary from per-status counts. Excused sessions are
// left out of the rate.
func Summarize(counts map[string]int64) AttendanceSummary {
	s := AttendanceSummary{
		Present: int(counts[AttendancePresent]),
		Absent:  int(counts[AttendanceAbsent]),
		Late:    int(counts[AttendanceLate]),
		Excused: int(counts[AttendanceExcused]),
	}
	s.Total = s.Present + s.Absent + s.Late + s.Excused
	if counted := s.Present + s.Late + s.Absent; counted > 0 {
		s.AttendanceRate = round2(float64(s.Present+s.Late) / float64(counted) * 100)
	}
	return s
}
