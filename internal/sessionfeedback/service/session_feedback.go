package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	attendance "tutorhub/internal/attendance/service"
	bookingsvc "tutorhub/internal/bookings/service"
	"tutorhub/internal/sessionfeedback/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/validation"

	"github.com/google/uuid"
)

type SessionFeedbackService interface {
	Create(ctx context.Context, caller auth.Identity, req *model.SessionFeedbackRequest) (*model.SessionFeedback, error)
	GetByBooking(ctx context.Context, caller auth.Identity, bookingID string) (*model.SessionFeedback, error)
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.SessionFeedback], error)
	UpdateTutorSection(ctx context.Context, caller auth.Identity, id string, req *model.SessionFeedbackUpdate) (*model.SessionFeedback, error)
	SubmitStudentFeedback(ctx context.Context, caller auth.Identity, id string, req *model.StudentFeedbackRequest) (*model.SessionFeedback, error)
	UpdateHomework(ctx context.Context, caller auth.Identity, id, homeworkID string, req *model.HomeworkStatusUpdate) (*model.SessionFeedback, error)
}

type AttendanceRecorder interface {
	Record(ctx context.Context, booking *model.Booking, status, notes, markedBy string, at time.Time) (*model.Attendance, error)
}

type sessionFeedbackService struct {
	repo      repository.SessionFeedbackRepository
	bookings  bookingsvc.BookingFinder
	recorder  AttendanceRecorder
	txManager mongodb.TransactionManager
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewSessionFeedbackService(
	repo repository.SessionFeedbackRepository,
	bookings bookingsvc.BookingFinder,
	recorder AttendanceRecorder,
	txManager mongodb.TransactionManager,
	validator *validation.Validator,
	log *logger.Logger,
) SessionFeedbackService {
	return &sessionFeedbackService{
		repo:      repo,
		bookings:  bookings,
		recorder:  recorder,
		txManager: txManager,
		validator: validator,
		log:       log,
		now:       mongodb.Now,
	}
}

func (s *sessionFeedbackService) Create(ctx context.Context, caller auth.Identity, req *model.SessionFeedbackRequest) (*model.SessionFeedback, error) {
	normalizeTutorFeedback(&req.TutorFeedback)
	req.StudyMaterials = normalizeMaterials(req.StudyMaterials)
	normalizeHomework(req.Homework)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	booking, err := bookingsvc.LoadBooking(ctx, s.bookings, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.TutorID != caller.UserID {
		return nil, apperrors.Forbidden("Only the tutor of this booking can write session feedback")
	}
	if booking.Status != model.BookingStatusApproved && booking.Status != model.BookingStatusCompleted {
		return nil, apperrors.BadRequest("Feedback can only be written for approved or completed bookings")
	}

	now := s.now()
	if req.AttendanceStatus != "" {
		if err := attendance.CheckMarkable(booking, now); err != nil {
			return nil, err
		}
	}

	if _, err := s.repo.FindByBookingID(ctx, booking.ID); err == nil {
		return nil, apperrors.Conflict("Feedback for this booking already exists")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("Failed to check existing feedback", err)
	}

	feedback := &model.SessionFeedback{
		BookingID:        booking.ID,
		TutorID:          booking.TutorID,
		StudentID:        booking.StudentID,
		Subject:          booking.Subject,
		SessionDate:      booking.StartTime,
		TutorFeedback:    req.TutorFeedback,
		AttendanceStatus: req.AttendanceStatus,
		StudyMaterials:   req.StudyMaterials,
		Homework:         mergeHomework(nil, req.Homework),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, feedback); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict("Feedback for this booking already exists")
			}
			return fmt.Errorf("failed to create session feedback: %w", err)
		}
		if feedback.AttendanceStatus == "" {
			return nil
		}
		_, err := s.recorder.Record(ctx, booking, feedback.AttendanceStatus, "", caller.UserID, now)
		return err
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.log.Error("Failed to create session feedback", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to create session feedback", err)
	}

	s.log.Info("Session feedback created", "id", feedback.ID, "booking_id", booking.ID, "tutor_id", caller.UserID)
	return feedback, nil
}

func (s *sessionFeedbackService) GetByBooking(ctx context.Context, caller auth.Identity, bookingID string) (*model.SessionFeedback, error) {
	booking, err := bookingsvc.LoadBooking(ctx, s.bookings, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(caller.UserID) && !caller.Is(model.RoleAdmin) {
		return nil, apperrors.Forbidden("You do not have access to this booking")
	}

	feedback, err := s.repo.FindByBookingID(ctx, booking.ID)
	if err != nil {
		return nil, s.mapRepoError(err, bookingID)
	}
	return feedback, nil
}

func (s *sessionFeedbackService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.SessionFeedback], error) {
	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountForUser(ctx, caller.UserID, caller.Role) },
		func(ctx context.Context) ([]*model.SessionFeedback, error) {
			return s.repo.ListForUser(ctx, caller.UserID, caller.Role, limit, offset)
		},
	)
	if err != nil {
		s.log.Error("Failed to list session feedback", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list session feedback", err)
	}
	return page, nil
}

func (s *sessionFeedbackService) UpdateTutorSection(ctx context.Context, caller auth.Identity, id string, req *model.SessionFeedbackUpdate) (*model.SessionFeedback, error) {
	if req.TutorFeedback != nil {
		normalizeTutorFeedback(req.TutorFeedback)
	}
	if req.StudyMaterials != nil {
		*req.StudyMaterials = normalizeMaterials(*req.StudyMaterials)
	}
	if req.Homework != nil {
		normalizeHomework(*req.Homework)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if req.Homework != nil {
		if id := repeatedHomeworkID(*req.Homework); id != "" {
			return nil, apperrors.InvalidInput("Homework ids must be unique").WithDetail("homework_id", id)
		}
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if feedback.TutorID != caller.UserID {
		return nil, apperrors.Forbidden("Only the tutor who wrote this feedback can edit it")
	}

	if req.TutorFeedback != nil {
		feedback.TutorFeedback = *req.TutorFeedback
	}
	if req.StudyMaterials != nil {
		feedback.StudyMaterials = *req.StudyMaterials
	}
	if req.Homework != nil {
		feedback.Homework = mergeHomework(feedback.Homework, *req.Homework)
	}
	feedback.UpdatedAt = s.now()

	if err := s.repo.UpdateTutorSection(ctx, feedback); err != nil {
		if errors.Is(err, repository.ErrModified) {
			return nil, apperrors.Conflict("Session feedback was modified by another request, reload and retry")
		}
		s.log.Error("Failed to update session feedback", "id", id, "error", err)
		return nil, s.mapRepoError(err, id)
	}
	return feedback, nil
}

func (s *sessionFeedbackService) SubmitStudentFeedback(ctx context.Context, caller auth.Identity, id string, req *model.StudentFeedbackRequest) (*model.SessionFeedback, error) {
	req.Comment = sanitizer.NormalizeText(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if feedback.StudentID != caller.UserID {
		return nil, apperrors.Forbidden("Only the student of this session can respond")
	}

	student := &model.StudentFeedback{Comment: req.Comment, Rating: req.Rating, SubmittedAt: s.now()}
	if err := s.repo.SetStudentFeedback(ctx, id, student); err != nil {
		return nil, s.mapRepoError(err, id)
	}
	feedback.StudentFeedback = student
	feedback.UpdatedAt = student.SubmittedAt
	return feedback, nil
}

// UpdateHomework lets the student hand homework in and the tutor mark it
// reviewed. Each side can only make its own move.
func (s *sessionFeedbackService) UpdateHomework(ctx context.Context, caller auth.Identity, id, homeworkID string, req *model.HomeworkStatusUpdate) (*model.SessionFeedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	feedback, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var from string
	switch req.Status {
	case model.HomeworkSubmitted:
		if feedback.StudentID != caller.UserID {
			return nil, apperrors.Forbidden("Only the student can submit homework")
		}
		from = model.HomeworkAssigned
	case model.HomeworkReviewed:
		if feedback.TutorID != caller.UserID {
			return nil, apperrors.Forbidden("Only the tutor can review homework")
		}
		from = model.HomeworkSubmitted
	}

	item := feedback.HomeworkItem(homeworkID)
	if item == nil {
		return nil, apperrors.NotFoundWithID("Homework", homeworkID)
	}
	if item.Status != from {
		return nil, apperrors.Conflict(fmt.Sprintf("Homework is %s and cannot be marked %s", item.Status, req.Status))
	}

	now := s.now()
	if err := s.repo.SetHomeworkStatus(ctx, id, homeworkID, []string{from}, req.Status, now); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return nil, apperrors.Conflict("Homework was modified by another request")
		}
		return nil, s.mapRepoError(err, id)
	}

	item.Status = req.Status
	if req.Status == model.HomeworkSubmitted {
		item.SubmittedAt = &now
	} else {
		item.ReviewedAt = &now
	}
	feedback.UpdatedAt = now
	return feedback, nil
}

func (s *sessionFeedbackService) load(ctx context.Context, id string) (*model.SessionFeedback, error) {
	feedback, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return feedback, nil
}

func (s *sessionFeedbackService) mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("Session feedback", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid session feedback ID format")
	default:
		return apperrors.Internal("Session feedback operation failed", err)
	}
}

// mergeHomework rebuilds the homework list from requests. Items that keep
// their id keep their progress; new items start as assigned.
func mergeHomework(existing []model.Homework, reqs []model.HomeworkRequest) []model.Homework {
	byID := make(map[string]model.Homework, len(existing))
	for _, hw := range existing {
		byID[hw.ID] = hw
	}

	out := make([]model.Homework, 0, len(reqs))
	for _, r := range reqs {
		hw, ok := byID[r.ID]
		if !ok {
			hw = model.Homework{ID: uuid.NewString(), Status: model.HomeworkAssigned}
		}
		hw.Title = r.Title
		hw.Description = r.Description
		hw.DueDate = r.DueDate
		out = append(out, hw)
	}
	return out
}

func repeatedHomeworkID(reqs []model.HomeworkRequest) string {
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if r.ID == "" {
			continue
		}
		if seen[r.ID] {
			return r.ID
		}
		seen[r.ID] = true
	}
	return ""
}

func normalizeTutorFeedback(f *model.TutorFeedback) {
	f.Summary = sanitizer.NormalizeText(f.Summary)
	f.TopicsCovered = sanitizer.NormalizeSubjects(f.TopicsCovered)
	f.Strengths = sanitizer.NormalizeText(f.Strengths)
	f.Improvements = sanitizer.NormalizeText(f.Improvements)
}

func normalizeMaterials(materials []model.MaterialLink) []model.MaterialLink {
	out := make([]model.MaterialLink, 0, len(materials))
	for _, m := range materials {
		m.Title = sanitizer.TrimAndNormalize(m.Title)
		m.URL = sanitizer.NormalizeURL(m.URL)
		m.Description = sanitizer.NormalizeText(m.Description)
		out = append(out, m)
	}
	return out
}

func normalizeHomework(items []model.HomeworkRequest) {
	for i := range items {
		items[i].ID = sanitizer.TrimAndNormalize(items[i].ID)
		items[i].Title = sanitizer.TrimAndNormalize(items[i].Title)
		items[i].Description = sanitizer.NormalizeText(items[i].Description)
	}
}
