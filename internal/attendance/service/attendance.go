package service

import (
	"context"
	"errors"
	"time"

	"tutorhub/internal/attendance/repository"
	bookingsvc "tutorhub/internal/bookings/service"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/validation"
)

type AttendanceService interface {
	Mark(ctx context.Context, caller auth.Identity, req *model.AttendanceRequest) (*model.Attendance, error)
	GetByBooking(ctx context.Context, caller auth.Identity, bookingID string) (*model.Attendance, error)
	ListMine(ctx context.Context, caller auth.Identity, subject string, limit int, offset int64) (*paging.Page[*model.Attendance], error)
	Summary(ctx context.Context, caller auth.Identity, studentID, tutorID string) (*model.AttendanceSummary, error)
}

type attendanceService struct {
	repo      repository.AttendanceRepository
	bookings  bookingsvc.BookingFinder
	recorder  *Recorder
	txManager mongodb.TransactionManager
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewAttendanceService(
	repo repository.AttendanceRepository,
	bookings bookingsvc.BookingFinder,
	recorder *Recorder,
	txManager mongodb.TransactionManager,
	validator *validation.Validator,
	log *logger.Logger,
) AttendanceService {
	return &attendanceService{
		repo:      repo,
		bookings:  bookings,
		recorder:  recorder,
		txManager: txManager,
		validator: validator,
		log:       log,
		now:       mongodb.Now,
	}
}

func (s *attendanceService) Mark(ctx context.Context, caller auth.Identity, req *model.AttendanceRequest) (*model.Attendance, error) {
	req.Notes = sanitizer.NormalizeText(req.Notes)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	booking, err := bookingsvc.LoadBooking(ctx, s.bookings, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.TutorID != caller.UserID {
		return nil, apperrors.Forbidden("Only the tutor of this booking can record attendance")
	}
	now := s.now()
	if err := CheckMarkable(booking, now); err != nil {
		return nil, err
	}

	var record *model.Attendance
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		var txErr error
		record, txErr = s.recorder.Record(ctx, booking, req.Status, req.Notes, caller.UserID, now)
		return txErr
	})
	if err != nil {
		s.log.Error("Failed to record attendance", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to record attendance", err)
	}

	s.log.Info("Attendance recorded", "booking_id", booking.ID, "status", record.Status, "marked_by", caller.UserID)
	return record, nil
}

func (s *attendanceService) GetByBooking(ctx context.Context, caller auth.Identity, bookingID string) (*model.Attendance, error) {
	booking, err := bookingsvc.LoadBooking(ctx, s.bookings, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(caller.UserID) && !caller.Is(model.RoleAdmin) {
		return nil, apperrors.Forbidden("You do not have access to this booking")
	}

	record, err := s.repo.FindByBookingID(ctx, booking.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Attendance")
		}
		return nil, apperrors.Internal("Failed to load attendance", err)
	}
	return record, nil
}

func (s *attendanceService) ListMine(ctx context.Context, caller auth.Identity, subject string, limit int, offset int64) (*paging.Page[*model.Attendance], error) {
	filter := model.AttendanceFilter{Subject: sanitizer.NormalizeSubject(subject)}
	if caller.Is(model.RoleTutor) {
		filter.TutorID = caller.UserID
	} else {
		filter.StudentID = caller.UserID
	}

	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.Count(ctx, filter) },
		func(ctx context.Context) ([]*model.Attendance, error) { return s.repo.List(ctx, filter, limit, offset) },
	)
	if err != nil {
		s.log.Error("Failed to list attendance", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list attendance", err)
	}
	return page, nil
}

// Summary counts attendance by status. Students and tutors are pinned to
// their own side of the relationship; admins may query any pair.
func (s *attendanceService) Summary(ctx context.Context, caller auth.Identity, studentID, tutorID string) (*model.AttendanceSummary, error) {
	filter := model.AttendanceFilter{StudentID: studentID, TutorID: tutorID}
	switch caller.Role {
	case model.RoleStudent:
		filter.StudentID = caller.UserID
	case model.RoleTutor:
		filter.TutorID = caller.UserID
	}

	counts, err := s.repo.CountByStatus(ctx, filter)
	if err != nil {
		s.log.Error("Failed to summarize attendance", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to summarize attendance", err)
	}
	summary := model.Summarize(counts)
	return &summary, nil
}
