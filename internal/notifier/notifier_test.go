package notifier

import (
	"context"
	"errors"
	"testing"
	"time"

	"tutorhub/internal/events"
	"tutorhub/pkg/kafka"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/mailer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	student = events.Contact{ID: "s1", Name: "Sam Student", Email: "sam@example.com"}
	tutor   = events.Contact{ID: "t1", Name: "Tina Tutor", Email: "tina@example.com"}
)

func message(t *testing.T, eventType string, payload any) kafka.Message {
	t.Helper()
	msg, err := kafka.NewMessage().WithKey("agg").WithValue(payload).WithEventType(eventType).Build()
	require.NoError(t, err)
	return msg
}

func TestHandle_BookingEvents(t *testing.T) {
	start := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	base := events.BookingChanged{
		BookingID: "b1",
		Subject:   "Algebra",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Student:   student,
		Tutor:     tutor,
	}

	tests := []struct {
		name      string
		eventType string
		mutate    func(*events.BookingChanged)
		wantTo    string
		contains  string
	}{
		{"created notifies tutor", events.TypeBookingCreated, nil, tutor.Email, "Sam Student requested"},
		{"approved notifies student", events.TypeBookingApproved, func(e *events.BookingChanged) { e.MeetingLink = "https://meet.example.com/x" }, student.Email, "https://meet.example.com/x"},
		{"rejected notifies student", events.TypeBookingRejected, func(e *events.BookingChanged) { e.Reason = "Fully booked" }, student.Email, "Reason: Fully booked"},
		{"student cancel notifies tutor", events.TypeBookingCancelled, func(e *events.BookingChanged) { e.ChangedBy = student.ID }, tutor.Email, "cancelled by Sam Student"},
		{"tutor cancel notifies student", events.TypeBookingCancelled, func(e *events.BookingChanged) { e.ChangedBy = tutor.ID }, student.Email, "cancelled by Tina Tutor"},
		{"completed notifies student", events.TypeBookingCompleted, nil, student.Email, "Leave a review"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mailer.NewConsoleMailer(logger.Nop())
			n := New(m, logger.Nop())

			payload := base
			if tt.mutate != nil {
				tt.mutate(&payload)
			}
			require.NoError(t, n.Handle(context.Background(), message(t, tt.eventType, payload)))

			sent := m.Sent()
			require.Len(t, sent, 1)
			assert.Equal(t, tt.wantTo, sent[0].To.Address)
			assert.Contains(t, sent[0].TextBody, tt.contains)
		})
	}
}

func TestHandle_PasswordReset(t *testing.T) {
	m := mailer.NewConsoleMailer(logger.Nop())
	n := New(m, logger.Nop())

	err := n.Handle(context.Background(), message(t, events.TypePasswordResetRequested, events.PasswordResetRequested{
		User:      student,
		Token:     "tok",
		ResetURL:  "http://localhost:5173/reset-password?token=tok",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, err)
	require.Len(t, m.Sent(), 1)
	assert.Equal(t, "Reset your password", m.Sent()[0].Subject)
	assert.Contains(t, m.Sent()[0].TextBody, "reset-password?token=tok")
}

func TestHandle_TutorAndReviewEvents(t *testing.T) {
	m := mailer.NewConsoleMailer(logger.Nop())
	n := New(m, logger.Nop())

	require.NoError(t, n.Handle(context.Background(), message(t, events.TypeTutorRejected, events.TutorReviewed{Tutor: tutor, Reason: "Add a bio"})))
	require.NoError(t, n.Handle(context.Background(), message(t, events.TypeReviewCreated, events.ReviewCreated{Student: student, Tutor: tutor, Rating: 5})))
	require.NoError(t, n.Handle(context.Background(), message(t, events.TypeUserRegistered, events.UserRegistered{User: tutor, Role: "tutor"})))

	sent := m.Sent()
	require.Len(t, sent, 3)
	assert.Contains(t, sent[0].TextBody, "Reason: Add a bio")
	assert.Equal(t, "New 5-star review", sent[1].Subject)
	assert.Contains(t, sent[2].TextBody, "Complete your tutor profile")
}

func TestHandle_Failures(t *testing.T) {
	n := New(mailer.NewConsoleMailer(logger.Nop()), logger.Nop())

	bad := kafka.Message{Value: []byte("{not json"), Headers: map[string]string{kafka.HeaderEventType: events.TypeBookingCreated}}
	err := n.Handle(context.Background(), bad)
	assert.True(t, kafka.IsPermanent(err))

	unknown := kafka.Message{Value: []byte("{}"), Headers: map[string]string{kafka.HeaderEventType: "something.else"}}
	assert.NoError(t, n.Handle(context.Background(), unknown))

	failing := New(failingMailer{}, logger.Nop())
	err = failing.Handle(context.Background(), message(t, events.TypeTutorApproved, events.TutorReviewed{Tutor: tutor}))
	assert.Equal(t, kafka.ErrorTypeTransient, kafka.ClassifyError(err))
}

type failingMailer struct{}

func (failingMailer) Send(context.Context, mailer.Message) error {
	return errors.New("smtp unavailable")
}
