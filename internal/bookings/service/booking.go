package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"tutorhub/internal/bookings/repository"
	"tutorhub/internal/events"
	tutorsrepo "tutorhub/internal/tutors/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/validation"
)

const lockTTL = 10 * time.Second

type BookingService interface {
	Create(ctx context.Context, caller auth.Identity, req *model.BookingRequest) (*model.BookingView, error)
	ListMine(ctx context.Context, caller auth.Identity, status string, limit int, offset int64) (*paging.Page[*model.BookingView], error)
	Get(ctx context.Context, caller auth.Identity, id string) (*model.BookingView, error)

	Approve(ctx context.Context, caller auth.Identity, id string, req *model.BookingApproval) (*model.BookingView, error)
	Reject(ctx context.Context, caller auth.Identity, id string, req *model.BookingReason) (*model.BookingView, error)
	Cancel(ctx context.Context, caller auth.Identity, id string, req *model.BookingReason) (*model.BookingView, error)
	Complete(ctx context.Context, caller auth.Identity, id string) (*model.BookingView, error)
}

type ProfileFinder interface {
	FindByUserID(ctx context.Context, userID string) (*model.TutorProfile, error)
}

type RelationshipWriter interface {
	ApplyDelta(ctx context.Context, key model.RelationshipKey, delta model.CounterDelta, at time.Time) error
}

type SummaryFinder interface {
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type bookingService struct {
	repo          repository.BookingRepository
	locks         repository.BookingLockRepository
	profiles      ProfileFinder
	relationships RelationshipWriter
	users         SummaryFinder
	txManager     mongodb.TransactionManager
	publisher     events.Publisher
	validator     *validation.Validator
	log           *logger.Logger
	now           func() time.Time
}

func NewBookingService(
	repo repository.BookingRepository,
	locks repository.BookingLockRepository,
	profiles ProfileFinder,
	relationships RelationshipWriter,
	users SummaryFinder,
	txManager mongodb.TransactionManager,
	publisher events.Publisher,
	validator *validation.Validator,
	log *logger.Logger,
) BookingService {
	return &bookingService{
		repo:          repo,
		locks:         locks,
		profiles:      profiles,
		relationships: relationships,
		users:         users,
		txManager:     txManager,
		publisher:     publisher,
		validator:     validator,
		log:           log,
		now:           mongodb.Now,
	}
}

func (s *bookingService) Create(ctx context.Context, caller auth.Identity, req *model.BookingRequest) (*model.BookingView, error) {
	req.Subject = sanitizer.NormalizeSubject(req.Subject)
	req.Message = sanitizer.NormalizeText(req.Message)
	if err := s.validator.Struct(req); err != nil {
		s.log.Warn("Booking validation failed", "student_id", caller.UserID, "error", err)
		return nil, err
	}

	now := s.now()
	start := req.StartTime.UTC().Truncate(time.Millisecond)
	if !start.After(now) {
		return nil, apperrors.BadRequest("Booking start time must be in the future")
	}
	if req.TutorID == caller.UserID {
		return nil, apperrors.BadRequest("You cannot book yourself")
	}

	profile, err := s.profiles.FindByUserID(ctx, req.TutorID)
	if err != nil {
		if errors.Is(err, tutorsrepo.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tutor", req.TutorID)
		}
		return nil, apperrors.Internal("Failed to load tutor profile", err)
	}
	if profile.Status != model.ProfileStatusApproved {
		return nil, apperrors.BadRequest("Tutor is not accepting bookings")
	}
	subject, ok := canonicalSubject(profile, req.Subject)
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("Tutor does not teach %s", req.Subject))
	}

	booking := &model.Booking{
		StudentID:       caller.UserID,
		TutorID:         req.TutorID,
		Subject:         subject,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(req.DurationMinutes) * time.Minute),
		DurationMinutes: req.DurationMinutes,
		Message:         req.Message,
		Status:          model.BookingStatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// The lock serializes creation per tutor so the overlap check and the
	// insert cannot interleave with another request for the same calendar.
	lockID := "tutor:" + booking.TutorID
	lockOwner, err := s.locks.Acquire(ctx, lockID, lockTTL)
	if err != nil {
		if errors.Is(err, repository.ErrLocked) {
			return nil, apperrors.Conflict("This tutor's calendar is being updated by another request. Please try again.")
		}
		return nil, apperrors.Internal("Failed to acquire booking lock", err)
	}
	defer func() {
		if releaseErr := s.locks.Release(context.WithoutCancel(ctx), lockID, lockOwner); releaseErr != nil {
			s.log.Warn("Failed to release booking lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	overlap, err := s.repo.HasOverlap(ctx, booking.TutorID, booking.StartTime, booking.EndTime)
	if err != nil {
		return nil, apperrors.Internal("Failed to check existing bookings", err)
	}
	if overlap {
		return nil, apperrors.Conflict("The tutor already has a booking at this time")
	}

	if err := s.repo.Create(ctx, booking); err != nil {
		s.log.Error("Failed to create booking", "student_id", caller.UserID, "tutor_id", booking.TutorID, "error", err)
		return nil, apperrors.Internal("Failed to create booking", err)
	}

	s.log.Info("Booking created",
		"id", booking.ID,
		"student_id", booking.StudentID,
		"tutor_id", booking.TutorID,
		"start_time", booking.StartTime,
	)

	view, err := s.view(ctx, booking)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, view, caller.UserID)
	return view, nil
}

func (s *bookingService) ListMine(ctx context.Context, caller auth.Identity, status string, limit int, offset int64) (*paging.Page[*model.BookingView], error) {
	if status != "" && !isBookingStatus(status) {
		return nil, apperrors.InvalidInput("status must be one of pending, approved, rejected, cancelled, completed")
	}
	filter := model.BookingFilter{UserID: caller.UserID, Role: caller.Role, Status: status}

	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.Count(ctx, filter) },
		func(ctx context.Context) ([]*model.Booking, error) { return s.repo.List(ctx, filter, limit, offset) },
	)
	if err != nil {
		s.log.Error("Failed to list bookings", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list bookings", err)
	}

	views, err := s.views(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	return &paging.Page[*model.BookingView]{Items: views, TotalCount: page.TotalCount, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *bookingService) Get(ctx context.Context, caller auth.Identity, id string) (*model.BookingView, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(caller.UserID) && !caller.Is(model.RoleAdmin) {
		return nil, apperrors.Forbidden("You do not have access to this booking")
	}
	return s.view(ctx, booking)
}

func (s *bookingService) Approve(ctx context.Context, caller auth.Identity, id string, req *model.BookingApproval) (*model.BookingView, error) {
	req.MeetingLink = sanitizer.NormalizeURL(req.MeetingLink)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, transition{
		to:          model.BookingStatusApproved,
		authorize:   tutorOnly,
		meetingLink: req.MeetingLink,
	})
}

func (s *bookingService) Reject(ctx context.Context, caller auth.Identity, id string, req *model.BookingReason) (*model.BookingView, error) {
	req.Reason = sanitizer.NormalizeText(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, transition{
		to:        model.BookingStatusRejected,
		authorize: tutorOnly,
		reason:    req.Reason,
	})
}

func (s *bookingService) Cancel(ctx context.Context, caller auth.Identity, id string, req *model.BookingReason) (*model.BookingView, error) {
	req.Reason = sanitizer.NormalizeText(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.transition(ctx, caller, id, transition{
		to: model.BookingStatusCancelled,
		authorize: func(b *model.Booking, caller auth.Identity) error {
			if !b.IsParticipant(caller.UserID) {
				return apperrors.Forbidden("Only the student or tutor of this booking can cancel it")
			}
			return nil
		},
		reason: req.Reason,
	})
}

func (s *bookingService) Complete(ctx context.Context, caller auth.Identity, id string) (*model.BookingView, error) {
	return s.transition(ctx, caller, id, transition{
		to:        model.BookingStatusCompleted,
		authorize: tutorOnly,
		check: func(b *model.Booking, now time.Time) error {
			if now.Before(b.StartTime) {
				return apperrors.BadRequest("A session cannot be completed before it starts")
			}
			return nil
		},
	})
}

type transition struct {
	to          string
	authorize   func(b *model.Booking, caller auth.Identity) error
	check       func(b *model.Booking, now time.Time) error
	reason      string
	meetingLink string
}

func tutorOnly(b *model.Booking, caller auth.Identity) error {
	if b.TutorID != caller.UserID {
		return apperrors.Forbidden("Only the tutor of this booking can perform this action")
	}
	return nil
}

// transition moves a booking through the state machine. The status write and
// the relationship counters commit together, and the status write only
// matches the state that was validated, so a replayed request gets a 409
// instead of counting twice.
func (s *bookingService) transition(ctx context.Context, caller auth.Identity, id string, t transition) (*model.BookingView, error) {
	booking, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := t.authorize(booking, caller); err != nil {
		return nil, err
	}
	if !model.CanTransitionBooking(booking.Status, t.to) {
		return nil, apperrors.Conflict(fmt.Sprintf("Cannot move a %s booking to %s", booking.Status, t.to))
	}

	now := s.now()
	if t.check != nil {
		if err := t.check(booking, now); err != nil {
			return nil, err
		}
	}

	var updated *model.Booking
	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		b, err := s.repo.UpdateStatus(ctx, id, model.BookingStatusChange{
			From:        []string{booking.Status},
			To:          t.to,
			Reason:      t.reason,
			MeetingLink: t.meetingLink,
			By:          caller.UserID,
			At:          now,
		})
		if err != nil {
			if errors.Is(err, repository.ErrStatusChanged) {
				return apperrors.Conflict("Booking was modified by another request")
			}
			return fmt.Errorf("failed to update booking status: %w", err)
		}
		updated = b

		delta, ok := relationshipDelta(booking, t.to)
		if !ok {
			return nil
		}
		next, err := s.repo.NextApprovedStart(ctx, booking.RelationshipKey(), now)
		if err != nil {
			return fmt.Errorf("failed to find next session: %w", err)
		}
		if next != nil {
			delta.NextSessionAt = next
		} else {
			delta.ClearNext = true
		}
		if err := s.relationships.ApplyDelta(ctx, booking.RelationshipKey(), delta, now); err != nil {
			return fmt.Errorf("failed to update relationship: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.log.Error("Booking transition failed", "id", id, "from", booking.Status, "to", t.to, "error", err)
		return nil, apperrors.Internal("Failed to update booking", err)
	}

	s.log.Info("Booking status changed", "id", id, "from", booking.Status, "to", t.to, "by", caller.UserID)

	view, err := s.view(ctx, updated)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, view, caller.UserID)
	return view, nil
}

// relationshipDelta returns the CurrentTutor change a transition causes.
// Rejections and cancellations of pending bookings never touched the
// relationship, so they report false.
func relationshipDelta(previous *model.Booking, to string) (model.CounterDelta, bool) {
	start := previous.StartTime
	switch to {
	case model.BookingStatusApproved:
		return model.CounterDelta{Booked: 1, Activate: true, FirstSessionAt: &start}, true
	case model.BookingStatusCancelled:
		if previous.Status == model.BookingStatusApproved {
			return model.CounterDelta{Cancelled: 1}, true
		}
	case model.BookingStatusCompleted:
		return model.CounterDelta{Completed: 1, LastSessionAt: &start}, true
	}
	return model.CounterDelta{}, false
}

func (s *bookingService) load(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := LoadBooking(ctx, s.repo, id)
	if err != nil && !apperrors.IsAppError(err) {
		s.log.Error("Failed to load booking", "id", id, "error", err)
	}
	return booking, err
}

type BookingFinder interface {
	FindByID(ctx context.Context, id string) (*model.Booking, error)
}

// LoadBooking maps booking repository errors to API errors. Other resources
// that hang off a booking load it through here.
func LoadBooking(ctx context.Context, bookings BookingFinder, id string) (*model.Booking, error) {
	booking, err := bookings.FindByID(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, apperrors.NotFoundWithID("Booking", id)
		case errors.Is(err, repository.ErrInvalidID):
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		default:
			return nil, apperrors.Internal("Failed to load booking", err)
		}
	}
	return booking, nil
}

func (s *bookingService) view(ctx context.Context, booking *model.Booking) (*model.BookingView, error) {
	views, err := s.views(ctx, []*model.Booking{booking})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *bookingService) views(ctx context.Context, bookings []*model.Booking) ([]*model.BookingView, error) {
	ids := make([]string, 0, len(bookings)*2)
	for _, b := range bookings {
		ids = append(ids, b.StudentID, b.TutorID)
	}
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load booking participants", err)
	}

	out := make([]*model.BookingView, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, &model.BookingView{Booking: *b, Student: summaries[b.StudentID], Tutor: summaries[b.TutorID]})
	}
	return out, nil
}

func (s *bookingService) publish(ctx context.Context, view *model.BookingView, changedBy string) {
	s.publisher.Publish(ctx, events.Event{
		Type:        events.BookingEventType(view.Status),
		AggregateID: view.ID,
		Payload: events.BookingChanged{
			BookingID:   view.ID,
			Status:      view.Status,
			Subject:     view.Subject,
			StartTime:   view.StartTime,
			EndTime:     view.EndTime,
			Student:     contactOf(view.Student),
			Tutor:       contactOf(view.Tutor),
			Reason:      firstNonEmpty(view.CancellationReason, view.RejectionReason),
			MeetingLink: view.MeetingLink,
			ChangedBy:   changedBy,
		},
	})
}

func contactOf(u *model.UserSummary) events.Contact {
	if u == nil {
		return events.Contact{}
	}
	return events.Contact{ID: u.ID, Name: u.Name, Email: u.Email}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// canonicalSubject returns the tutor's own spelling of subject so bookings
// and relationships key on one value.
func canonicalSubject(profile *model.TutorProfile, subject string) (string, bool) {
	for _, s := range profile.Subjects {
		if strings.EqualFold(strings.TrimSpace(s), subject) {
			return s, true
		}
	}
	return "", false
}

func isBookingStatus(status string) bool {
	return slices.Contains([]string{
		model.BookingStatusPending,
		model.BookingStatusApproved,
		model.BookingStatusRejected,
		model.BookingStatusCancelled,
		model.BookingStatusCompleted,
	}, status)
}
