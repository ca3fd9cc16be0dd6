package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	tests := []struct {
		from, to string
		allowed  bool
	}{
		{BookingStatusPending, BookingStatusApproved, true},
		{BookingStatusPending, BookingStatusRejected, true},
		{BookingStatusPending, BookingStatusCancelled, true},
		{BookingStatusPending, BookingStatusCompleted, false},
		{BookingStatusApproved, BookingStatusCompleted, true},
		{BookingStatusApproved, BookingStatusCancelled, true},
		{BookingStatusApproved, BookingStatusRejected, false},
		{BookingStatusCompleted, BookingStatusCancelled, false},
		{BookingStatusRejected, BookingStatusApproved, false},
		{BookingStatusCancelled, BookingStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransitionBooking(tt.from, tt.to))
		})
	}
}

func TestBookingSourcesOf(t *testing.T) {
	assert.Equal(t, []string{BookingStatusPending, BookingStatusApproved}, BookingSourcesOf(BookingStatusCancelled))
	assert.Equal(t, []string{BookingStatusApproved}, BookingSourcesOf(BookingStatusCompleted))
	assert.Equal(t, []string{BookingStatusPending}, BookingSourcesOf(BookingStatusRejected))
	assert.Empty(t, BookingSourcesOf(BookingStatusPending))
}

func TestIsTerminalBookingStatus(t *testing.T) {
	assert.False(t, IsTerminalBookingStatus(BookingStatusPending))
	assert.False(t, IsTerminalBookingStatus(BookingStatusApproved))
	assert.True(t, IsTerminalBookingStatus(BookingStatusRejected))
	assert.True(t, IsTerminalBookingStatus(BookingStatusCancelled))
	assert.True(t, IsTerminalBookingStatus(BookingStatusCompleted))
}

func TestAttendanceDelta(t *testing.T) {
	tests := []struct {
		name     string
		previous string
		next     string
		attended int
		missed   int
	}{
		{"first mark present", "", AttendancePresent, 1, 0},
		{"first mark late", "", AttendanceLate, 1, 0},
		{"first mark absent", "", AttendanceAbsent, 0, 1},
		{"first mark excused", "", AttendanceExcused, 0, 0},
		{"absent to present", AttendanceAbsent, AttendancePresent, 1, -1},
		{"present to absent", AttendancePresent, AttendanceAbsent, -1, 1},
		{"present to late", AttendancePresent, AttendanceLate, 0, 0},
		{"late to excused", AttendanceLate, AttendanceExcused, -1, 0},
		{"excused to absent", AttendanceExcused, AttendanceAbsent, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := AttendanceDelta(tt.previous, tt.next)
			assert.Equal(t, tt.attended, d.Attended)
			assert.Equal(t, tt.missed, d.Missed)
			assert.Zero(t, d.Booked)
			assert.Zero(t, d.Completed)
		})
	}
}

func TestAttendanceDelta_NoChangeIsZero(t *testing.T) {
	assert.True(t, AttendanceDelta(AttendancePresent, AttendanceLate).IsZero())
	assert.False(t, AttendanceDelta("", AttendanceAbsent).IsZero())
}

func TestSummarize(t *testing.T) {
	s := Summarize(map[string]int64{
		AttendancePresent: 3,
		AttendanceLate:    1,
		AttendanceAbsent:  1,
		AttendanceExcused: 2,
	})

	assert.Equal(t, 7, s.Total)
	assert.Equal(t, 3, s.Present)
	assert.Equal(t, 1, s.Late)
	assert.Equal(t, 1, s.Absent)
	assert.Equal(t, 2, s.Excused)
	assert.Equal(t, 80.0, s.AttendanceRate)
}

func TestSummarize_OnlyExcused(t *testing.T) {
	s := Summarize(map[string]int64{AttendanceExcused: 2})

	assert.Equal(t, 2, s.Total)
	assert.Zero(t, s.AttendanceRate)
}

func TestRatingAverage(t *testing.T) {
	assert.Zero(t, RatingAverage(0, 0))
	assert.Equal(t, 4.67, RatingAverage(14, 3))
	assert.Equal(t, 5.0, RatingAverage(10, 2))
}

func TestTutorProfile_Teaches(t *testing.T) {
	p := &TutorProfile{Subjects: []string{"Math", "Physics "}}

	assert.True(t, p.Teaches(" math"))
	assert.True(t, p.Teaches("physics"))
	assert.False(t, p.Teaches("chemistry"))
}

func TestSessionFeedback_HomeworkItem(t *testing.T) {
	f := &SessionFeedback{Homework: []Homework{{ID: "a"}, {ID: "b"}}}

	item := f.HomeworkItem("b")
	if assert.NotNil(t, item) {
		item.Status = "done"
	}
	assert.Equal(t, "done", f.Homework[1].Status)
	assert.Nil(t, f.HomeworkItem("missing"))
}
