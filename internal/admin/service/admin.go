// Package service holds the moderation and reporting operations that only
// admins can reach.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"tutorhub/internal/events"
	tutorrepo "tutorhub/internal/tutors/repository"
	userrepo "tutorhub/internal/users/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/validation"
)

const (
	topSubjectsLimit = 10
	analyticsWindow  = 30 * 24 * time.Hour
)

type AdminService interface {
	ListUsers(ctx context.Context, filter model.UserFilter, limit int, offset int64) (*paging.Page[*model.User], error)
	SetUserActive(ctx context.Context, caller auth.Identity, id string, req *model.UserStatusUpdate) (*model.User, error)
	ListTutors(ctx context.Context, filter model.ProfileFilter, limit int, offset int64) (*paging.Page[*model.TutorView], error)
	ApproveTutor(ctx context.Context, caller auth.Identity, id string) (*model.TutorProfile, error)
	RejectTutor(ctx context.Context, caller auth.Identity, id string, req *model.ProfileRejection) (*model.TutorProfile, error)
	Analytics(ctx context.Context) (*model.Analytics, error)
}

type UserStore interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
	SetActive(ctx context.Context, id string, active bool) error
	List(ctx context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error)
	Count(ctx context.Context, filter model.UserFilter) (int64, error)
	CountByRole(ctx context.Context) (map[string]int64, error)
}

type ProfileStore interface {
	FindByID(ctx context.Context, id string) (*model.TutorProfile, error)
	ListByStatus(ctx context.Context, status string, limit int, offset int64) ([]*model.TutorProfile, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	UpdateStatus(ctx context.Context, id string, change tutorrepo.StatusChange) error
	StatusCounts(ctx context.Context) (map[string]int64, error)
}

type BookingStats interface {
	StatusCounts(ctx context.Context) (map[string]int64, error)
	TopSubjects(ctx context.Context, limit int) ([]model.CountByKey, error)
	CreatedPerDay(ctx context.Context, since time.Time) ([]model.CountByKey, error)
}

type ReviewStats interface {
	Stats(ctx context.Context) (*model.ReviewStats, error)
}

type adminService struct {
	users     UserStore
	profiles  ProfileStore
	bookings  BookingStats
	reviews   ReviewStats
	publisher events.Publisher
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewAdminService(
	users UserStore,
	profiles ProfileStore,
	bookings BookingStats,
	reviews ReviewStats,
	publisher events.Publisher,
	validator *validation.Validator,
	log *logger.Logger,
) AdminService {
	return &adminService{
		users:     users,
		profiles:  profiles,
		bookings:  bookings,
		reviews:   reviews,
		publisher: publisher,
		validator: validator,
		log:       log,
		now:       mongodb.Now,
	}
}

var (
	roles           = []string{model.RoleStudent, model.RoleTutor, model.RoleAdmin}
	profileStatuses = []string{model.ProfileStatusPending, model.ProfileStatusApproved, model.ProfileStatusRejected}
)

func (s *adminService) ListUsers(ctx context.Context, filter model.UserFilter, limit int, offset int64) (*paging.Page[*model.User], error) {
	if filter.Role != "" && !slices.Contains(roles, filter.Role) {
		return nil, apperrors.InvalidInput("Unknown role").WithDetail("role", filter.Role)
	}

	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.users.Count(ctx, filter) },
		func(ctx context.Context) ([]*model.User, error) { return s.users.List(ctx, filter, limit, offset) },
	)
	if err != nil {
		s.log.Error("Failed to list users", "role", filter.Role, "error", err)
		return nil, apperrors.Internal("Failed to list users", err)
	}
	return page, nil
}

func (s *adminService) SetUserActive(ctx context.Context, caller auth.Identity, id string, req *model.UserStatusUpdate) (*model.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	if id == caller.UserID && !*req.IsActive {
		return nil, apperrors.BadRequest("Admins cannot deactivate their own account")
	}

	if err := s.users.SetActive(ctx, id, *req.IsActive); err != nil {
		return nil, s.mapUserError(err, id)
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapUserError(err, id)
	}

	s.log.Info("User active flag changed", "user_id", id, "is_active", user.IsActive, "changed_by", caller.UserID)
	return user, nil
}

func (s *adminService) ListTutors(ctx context.Context, filter model.ProfileFilter, limit int, offset int64) (*paging.Page[*model.TutorView], error) {
	status := filter.Status
	if status == "" {
		status = model.ProfileStatusPending
	}
	if !slices.Contains(profileStatuses, status) {
		return nil, apperrors.InvalidInput("Unknown profile status").WithDetail("status", status)
	}

	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.profiles.CountByStatus(ctx, status) },
		func(ctx context.Context) ([]*model.TutorProfile, error) {
			return s.profiles.ListByStatus(ctx, status, limit, offset)
		},
	)
	if err != nil {
		s.log.Error("Failed to list tutor profiles", "status", status, "error", err)
		return nil, apperrors.Internal("Failed to list tutor profiles", err)
	}

	ids := make([]string, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.UserID)
	}
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load tutors", err)
	}
	return paging.Map(page, func(p *model.TutorProfile) *model.TutorView {
		return &model.TutorView{TutorProfile: *p, Tutor: summaries[p.UserID]}
	}), nil
}

func (s *adminService) ApproveTutor(ctx context.Context, caller auth.Identity, id string) (*model.TutorProfile, error) {
	return s.review(ctx, caller, id, model.ProfileStatusApproved, "")
}

func (s *adminService) RejectTutor(ctx context.Context, caller auth.Identity, id string, req *model.ProfileRejection) (*model.TutorProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}
	return s.review(ctx, caller, id, model.ProfileStatusRejected, req.Reason)
}

// review moves a pending profile to its decided status. Profiles that were
// already decided, including by a concurrent admin, answer 409.
func (s *adminService) review(ctx context.Context, caller auth.Identity, id, to, reason string) (*model.TutorProfile, error) {
	profile, err := s.profiles.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapProfileError(err, id)
	}
	if profile.Status != model.ProfileStatusPending {
		return nil, apperrors.Conflict(fmt.Sprintf("Tutor profile is already %s", profile.Status))
	}

	now := s.now()
	err = s.profiles.UpdateStatus(ctx, id, tutorrepo.StatusChange{
		From:       model.ProfileStatusPending,
		To:         to,
		Reason:     reason,
		ReviewedBy: caller.UserID,
		At:         now,
	})
	if err != nil {
		return nil, s.mapProfileError(err, id)
	}

	profile.Status = to
	profile.RejectionReason = reason
	profile.ReviewedBy = caller.UserID
	profile.ReviewedAt = &now
	profile.UpdatedAt = now

	s.log.Info("Tutor profile reviewed", "id", id, "status", to, "reviewed_by", caller.UserID)

	eventType := events.TypeTutorApproved
	if to == model.ProfileStatusRejected {
		eventType = events.TypeTutorRejected
	}
	payload := events.TutorReviewed{ProfileID: profile.ID, Status: to, Reason: reason}
	if user, err := s.users.FindByID(ctx, profile.UserID); err == nil {
		payload.Tutor = events.Contact{ID: user.ID, Name: user.Name, Email: user.Email}
	} else {
		s.log.Warn("Tutor account missing for reviewed profile", "id", id, "user_id", profile.UserID, "error", err)
	}
	s.publisher.Publish(ctx, events.Event{Type: eventType, AggregateID: profile.ID, Payload: payload})

	return profile, nil
}

// Analytics runs every aggregation concurrently and fails if any of them does.
func (s *adminService) Analytics(ctx context.Context) (*model.Analytics, error) {
	var (
		out  model.Analytics
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	run := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
			}
		}()
	}

	run("users by role", func(ctx context.Context) (err error) {
		out.UsersByRole, err = s.users.CountByRole(ctx)
		return err
	})
	run("tutor profiles by status", func(ctx context.Context) (err error) {
		out.TutorProfilesByStatus, err = s.profiles.StatusCounts(ctx)
		return err
	})
	run("bookings by status", func(ctx context.Context) (err error) {
		out.BookingsByStatus, err = s.bookings.StatusCounts(ctx)
		return err
	})
	run("reviews", func(ctx context.Context) error {
		stats, err := s.reviews.Stats(ctx)
		if err != nil {
			return err
		}
		out.TotalReviews = stats.Total
		out.AverageRating = stats.Average
		return nil
	})
	run("top subjects", func(ctx context.Context) (err error) {
		out.TopSubjects, err = s.bookings.TopSubjects(ctx, topSubjectsLimit)
		return err
	})
	since := s.now().Add(-analyticsWindow).Truncate(24 * time.Hour)
	run("bookings per day", func(ctx context.Context) (err error) {
		out.BookingsPerDay, err = s.bookings.CreatedPerDay(ctx, since)
		return err
	})
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		s.log.Error("Failed to compute analytics", "error", err)
		return nil, apperrors.Internal("Failed to compute analytics", err)
	}

	if out.TopSubjects == nil {
		out.TopSubjects = []model.CountByKey{}
	}
	if out.BookingsPerDay == nil {
		out.BookingsPerDay = []model.CountByKey{}
	}
	return &out, nil
}

func (s *adminService) mapUserError(err error, id string) error {
	switch {
	case errors.Is(err, userrepo.ErrNotFound):
		return apperrors.NotFoundWithID("User", id)
	case errors.Is(err, userrepo.ErrInvalidID):
		return apperrors.InvalidInput("Invalid user ID format")
	default:
		s.log.Error("User repository error", "id", id, "error", err)
		return apperrors.Internal("User operation failed", err)
	}
}

func (s *adminService) mapProfileError(err error, id string) error {
	switch {
	case errors.Is(err, tutorrepo.ErrNotFound):
		return apperrors.NotFoundWithID("Tutor profile", id)
	case errors.Is(err, tutorrepo.ErrInvalidID):
		return apperrors.InvalidInput("Invalid tutor profile ID format")
	case errors.Is(err, tutorrepo.ErrStatusChanged):
		return apperrors.Conflict("Tutor profile was reviewed concurrently")
	default:
		s.log.Error("Tutor profile repository error", "id", id, "error", err)
		return apperrors.Internal("Tutor profile operation failed", err)
	}
}
