package service

import (
	"context"
	"errors"
	"time"

	"tutorhub/internal/favorites/repository"
	usersrepo "tutorhub/internal/users/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/validation"
)

type FavoriteService interface {
	Add(ctx context.Context, caller auth.Identity, req *model.FavoriteRequest) (*model.FavoriteView, error)
	Remove(ctx context.Context, caller auth.Identity, tutorID string) error
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.FavoriteView], error)
	Status(ctx context.Context, caller auth.Identity, tutorID string) (*model.FavoriteStatus, error)
}

type UserReader interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type favoriteService struct {
	repo      repository.FavoriteRepository
	users     UserReader
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewFavoriteService(repo repository.FavoriteRepository, users UserReader, validator *validation.Validator, log *logger.Logger) FavoriteService {
	return &favoriteService{
		repo:      repo,
		users:     users,
		validator: validator,
		log:       log,
		now:       mongodb.Now,
	}
}

func (s *favoriteService) Add(ctx context.Context, caller auth.Identity, req *model.FavoriteRequest) (*model.FavoriteView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	tutor, err := s.users.FindByID(ctx, req.TutorID)
	if err != nil {
		if errors.Is(err, usersrepo.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Tutor", req.TutorID)
		}
		return nil, apperrors.Internal("Failed to load tutor", err)
	}
	if tutor.Role != model.RoleTutor {
		return nil, apperrors.NotFoundWithID("Tutor", req.TutorID)
	}

	favorite := &model.Favorite{StudentID: caller.UserID, TutorID: tutor.ID, CreatedAt: s.now()}
	if err := s.repo.Create(ctx, favorite); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("Tutor is already in your favorites")
		}
		s.log.Error("Failed to add favorite", "student_id", caller.UserID, "tutor_id", tutor.ID, "error", err)
		return nil, apperrors.Internal("Failed to add favorite", err)
	}

	return &model.FavoriteView{Favorite: *favorite, Tutor: tutor.Summary()}, nil
}

func (s *favoriteService) Remove(ctx context.Context, caller auth.Identity, tutorID string) error {
	if err := s.repo.Delete(ctx, caller.UserID, tutorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("Favorite")
		}
		s.log.Error("Failed to remove favorite", "student_id", caller.UserID, "tutor_id", tutorID, "error", err)
		return apperrors.Internal("Failed to remove favorite", err)
	}
	return nil
}

func (s *favoriteService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.FavoriteView], error) {
	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountByStudent(ctx, caller.UserID) },
		func(ctx context.Context) ([]*model.Favorite, error) {
			return s.repo.ListByStudent(ctx, caller.UserID, limit, offset)
		},
	)
	if err != nil {
		s.log.Error("Failed to list favorites", "student_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list favorites", err)
	}

	ids := make([]string, 0, len(page.Items))
	for _, fav := range page.Items {
		ids = append(ids, fav.TutorID)
	}
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load tutors", err)
	}
	return paging.Map(page, func(fav *model.Favorite) *model.FavoriteView {
		return &model.FavoriteView{Favorite: *fav, Tutor: summaries[fav.TutorID]}
	}), nil
}

func (s *favoriteService) Status(ctx context.Context, caller auth.Identity, tutorID string) (*model.FavoriteStatus, error) {
	ok, err := s.repo.Exists(ctx, caller.UserID, tutorID)
	if err != nil {
		return nil, apperrors.Internal("Failed to check favorite", err)
	}
	return &model.FavoriteStatus{Favorite: ok}, nil
}
