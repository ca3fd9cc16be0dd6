package service

import (
	"context"
	"fmt"
	"time"

	"tutorhub/internal/attendance/repository"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/model"
)

type RelationshipWriter interface {
	ApplyDelta(ctx context.Context, key model.RelationshipKey, delta model.CounterDelta, at time.Time) error
}

// Recorder writes attendance and keeps the relationship counters in step.
// Session feedback records attendance through the same Recorder, so callers
// must already be inside a transaction.
type Recorder struct {
	repo          repository.AttendanceRepository
	relationships RelationshipWriter
}

func NewRecorder(repo repository.AttendanceRepository, relationships RelationshipWriter) *Recorder {
	return &Recorder{repo: repo, relationships: relationships}
}

// CheckMarkable rejects bookings whose attendance cannot be recorded yet.
func CheckMarkable(booking *model.Booking, now time.Time) error {
	if booking.Status != model.BookingStatusApproved && booking.Status != model.BookingStatusCompleted {
		return apperrors.BadRequest("Attendance can only be recorded for approved or completed bookings")
	}
	if now.Before(booking.StartTime) {
		return apperrors.BadRequest("Attendance cannot be recorded before the session starts")
	}
	return nil
}

// Record upserts the attendance of booking and moves the attended and missed
// counters by the difference between the old and new status.
func (r *Recorder) Record(ctx context.Context, booking *model.Booking, status, notes, markedBy string, at time.Time) (*model.Attendance, error) {
	record := &model.Attendance{
		BookingID:   booking.ID,
		StudentID:   booking.StudentID,
		TutorID:     booking.TutorID,
		Subject:     booking.Subject,
		SessionDate: booking.StartTime,
		Status:      status,
		Notes:       notes,
		MarkedBy:    markedBy,
		MarkedAt:    at,
		CreatedAt:   at,
		UpdatedAt:   at,
	}

	previous, err := r.repo.Upsert(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to save attendance: %w", err)
	}

	delta := model.AttendanceDelta(previous, status)
	if !delta.IsZero() {
		if err := r.relationships.ApplyDelta(ctx, booking.RelationshipKey(), delta, at); err != nil {
			return nil, fmt.Errorf("failed to update attendance counters: %w", err)
		}
	}

	saved, err := r.repo.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload attendance: %w", err)
	}
	return saved, nil
}
