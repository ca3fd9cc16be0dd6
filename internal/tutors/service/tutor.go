package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"tutorhub/internal/tutors/repository"
	usersrepo "tutorhub/internal/users/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/locale"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/validation"
)

// LatestReviews is how many reviews the public profile page embeds.
const LatestReviews = 5

type TutorService interface {
	List(ctx context.Context, filter model.TutorFilter, limit int, offset int64) (*paging.Page[*model.TutorView], error)
	GetApproved(ctx context.Context, id string) (*model.TutorView, error)
	GetOwn(ctx context.Context, caller auth.Identity) (*model.TutorProfile, error)
	SaveOwn(ctx context.Context, caller auth.Identity, req *model.TutorProfileRequest) (*model.TutorProfile, bool, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type ReviewLister interface {
	ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) ([]*model.Review, error)
}

type tutorService struct {
	repo      repository.TutorProfileRepository
	users     UserReader
	reviews   ReviewLister
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewTutorService(
	repo repository.TutorProfileRepository,
	users UserReader,
	reviews ReviewLister,
	validator *validation.Validator,
	log *logger.Logger,
) TutorService {
	return &tutorService{
		repo:      repo,
		users:     users,
		reviews:   reviews,
		validator: validator,
		log:       log,
		now:       mongodb.Now,
	}
}

func (s *tutorService) List(ctx context.Context, filter model.TutorFilter, limit int, offset int64) (*paging.Page[*model.TutorView], error) {
	switch filter.Sort {
	case "":
		filter.Sort = model.TutorSortRating
	case model.TutorSortRating, model.TutorSortRateAsc, model.TutorSortRateDesc, model.TutorSortNewest:
	default:
		return nil, apperrors.InvalidInput("sort must be one of rating, rate_asc, rate_desc, newest")
	}
	filter.Subject = sanitizer.NormalizeSubject(filter.Subject)
	filter.Language = sanitizer.NormalizeSubject(filter.Language)

	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountApproved(ctx, filter) },
		func(ctx context.Context) ([]*model.TutorProfile, error) {
			return s.repo.ListApproved(ctx, filter, limit, offset)
		},
	)
	if err != nil {
		s.log.Error("Failed to list tutors", "filter", filter, "error", err)
		return nil, apperrors.Internal("Failed to list tutors", err)
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

// GetApproved returns a public profile. Profiles that are not approved are
// reported as missing.
func (s *tutorService) GetApproved(ctx context.Context, id string) (*model.TutorView, error) {
	profile, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	if profile.Status != model.ProfileStatusApproved {
		return nil, apperrors.NotFoundWithID("Tutor", id)
	}

	reviews, err := s.reviews.ListByTutor(ctx, profile.UserID, LatestReviews, 0)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reviews", err)
	}

	ids := []string{profile.UserID}
	for _, r := range reviews {
		ids = append(ids, r.StudentID)
	}
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load tutor", err)
	}

	view := &model.TutorView{
		TutorProfile: *profile,
		Tutor:        summaries[profile.UserID],
		Reviews:      make([]*model.ReviewView, 0, len(reviews)),
	}
	for _, r := range reviews {
		view.Reviews = append(view.Reviews, &model.ReviewView{Review: *r, Student: summaries[r.StudentID]})
	}
	return view, nil
}

func (s *tutorService) GetOwn(ctx context.Context, caller auth.Identity) (*model.TutorProfile, error) {
	profile, err := s.repo.FindByUserID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("Tutor profile")
		}
		return nil, s.mapRepoError(err, caller.UserID)
	}
	return profile, nil
}

// SaveOwn creates the caller's profile or replaces its editable fields. The
// boolean reports whether a profile was created.
func (s *tutorService) SaveOwn(ctx context.Context, caller auth.Identity, req *model.TutorProfileRequest) (*model.TutorProfile, bool, error) {
	s.sanitize(req)
	if err := s.validator.Struct(req); err != nil {
		s.log.Warn("Tutor profile validation failed", "user_id", caller.UserID, "error", err)
		return nil, false, err
	}
	if err := validateAvailability(req.Availability); err != nil {
		return nil, false, err
	}

	existing, err := s.repo.FindByUserID(ctx, caller.UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, false, s.mapRepoError(err, caller.UserID)
	}

	if req.TimeZone == "" {
		req.TimeZone, err = s.defaultTimeZone(ctx, caller.UserID, existing)
		if err != nil {
			return nil, false, err
		}
	}

	now := s.now()
	if existing == nil {
		profile := &model.TutorProfile{UserID: caller.UserID, Status: model.ProfileStatusPending, CreatedAt: now}
		apply(profile, req, now)
		if err := s.repo.Create(ctx, profile); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, false, apperrors.Conflict("Tutor profile already exists")
			}
			return nil, false, s.mapRepoError(err, caller.UserID)
		}
		s.log.Info("Tutor profile created", "profile_id", profile.ID, "user_id", caller.UserID)
		return profile, true, nil
	}

	if existing.Status == model.ProfileStatusRejected {
		existing.Status = model.ProfileStatusPending
		existing.RejectionReason = ""
	}
	apply(existing, req, now)
	if err := s.repo.Update(ctx, existing); err != nil {
		return nil, false, s.mapRepoError(err, existing.ID)
	}
	s.log.Info("Tutor profile updated", "profile_id", existing.ID, "status", existing.Status)
	return existing, false, nil
}

func (s *tutorService) defaultTimeZone(ctx context.Context, userID string, existing *model.TutorProfile) (string, error) {
	if existing != nil && existing.TimeZone != "" {
		return existing.TimeZone, nil
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, usersrepo.ErrNotFound) {
			return "", apperrors.NotFound("User")
		}
		return "", apperrors.Internal("Failed to load user", err)
	}
	return locale.InferTimezoneFromPhone(user.Phone), nil
}

func (s *tutorService) sanitize(req *model.TutorProfileRequest) {
	req.Headline = sanitizer.NormalizeName(req.Headline)
	req.Bio = sanitizer.NormalizeText(req.Bio)
	req.Education = sanitizer.NormalizeText(req.Education)
	req.Subjects = sanitizer.NormalizeSubjects(req.Subjects)
	req.Languages = sanitizer.NormalizeSubjects(req.Languages)
	for i := range req.Availability {
		req.Availability[i].Day = strings.ToLower(strings.TrimSpace(req.Availability[i].Day))
	}
}

func (s *tutorService) mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("Tutor", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid tutor ID format")
	default:
		s.log.Error("Tutor profile repository call failed", "id", id, "error", err)
		return apperrors.Internal("Failed to process tutor profile", err)
	}
}

func apply(p *model.TutorProfile, req *model.TutorProfileRequest, now time.Time) {
	p.Headline = req.Headline
	p.Bio = req.Bio
	p.Subjects = req.Subjects
	p.HourlyRate = req.HourlyRate
	p.ExperienceYears = req.ExperienceYears
	p.Education = req.Education
	p.Languages = req.Languages
	p.Availability = req.Availability
	p.TimeZone = req.TimeZone
	p.UpdatedAt = now
}

func validateAvailability(slots []model.AvailabilitySlot) error {
	for i, slot := range slots {
		if slot.StartTime >= slot.EndTime {
			return apperrors.Validation("Validation failed", map[string]any{
				"availability": "slot " + strconv.Itoa(i) + " must end after it starts",
			})
		}
	}
	return nil
}
