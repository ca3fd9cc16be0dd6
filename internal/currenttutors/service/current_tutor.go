package service

import (
	"context"
	"errors"
	"time"

	"tutorhub/internal/currenttutors/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/validation"
)

type CurrentTutorService interface {
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.CurrentTutorView], error)
	Get(ctx context.Context, caller auth.Identity, id string) (*model.CurrentTutorView, error)
	UpdateStatus(ctx context.Context, caller auth.Identity, id string, req *model.CurrentTutorStatusUpdate) (*model.CurrentTutorView, error)
}

type SummaryFinder interface {
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type currentTutorService struct {
	repo      repository.CurrentTutorRepository
	users     SummaryFinder
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewCurrentTutorService(
	repo repository.CurrentTutorRepository,
	users SummaryFinder,
	validator *validation.Validator,
	log *logger.Logger,
) CurrentTutorService {
	return &currentTutorService{
		repo:      repo,
		users:     users,
		validator: validator,
		log:       log,
		now:       mongodb.Now,
	}
}

func (s *currentTutorService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.CurrentTutorView], error) {
	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountForUser(ctx, caller.UserID, caller.Role) },
		func(ctx context.Context) ([]*model.CurrentTutor, error) {
			return s.repo.ListForUser(ctx, caller.UserID, caller.Role, limit, offset)
		},
	)
	if err != nil {
		s.log.Error("Failed to list current tutors", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list relationships", err)
	}

	views, err := s.populate(ctx, page.Items)
	if err != nil {
		return nil, err
	}
	return &paging.Page[*model.CurrentTutorView]{Items: views, TotalCount: page.TotalCount, Limit: page.Limit, Offset: page.Offset}, nil
}

func (s *currentTutorService) Get(ctx context.Context, caller auth.Identity, id string) (*model.CurrentTutorView, error) {
	ct, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	views, err := s.populate(ctx, []*model.CurrentTutor{ct})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// UpdateStatus lets either participant end or resume the relationship.
// Counters are left untouched.
func (s *currentTutorService) UpdateStatus(ctx context.Context, caller auth.Identity, id string, req *model.CurrentTutorStatusUpdate) (*model.CurrentTutorView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	ct, err := s.load(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if !ct.IsParticipant(caller.UserID) {
		return nil, apperrors.Forbidden("Only participants can change the relationship status")
	}

	if ct.Status != req.Status {
		if err := s.repo.UpdateStatus(ctx, id, req.Status, s.now()); err != nil {
			return nil, s.mapRepoError(err, id)
		}
		s.log.Info("Relationship status changed", "id", id, "from", ct.Status, "to", req.Status, "by", caller.UserID)
	}
	return s.Get(ctx, caller, id)
}

func (s *currentTutorService) load(ctx context.Context, caller auth.Identity, id string) (*model.CurrentTutor, error) {
	ct, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	if !ct.IsParticipant(caller.UserID) && !caller.Is(model.RoleAdmin) {
		return nil, apperrors.Forbidden("You do not have access to this relationship")
	}
	return ct, nil
}

func (s *currentTutorService) populate(ctx context.Context, items []*model.CurrentTutor) ([]*model.CurrentTutorView, error) {
	ids := make([]string, 0, len(items)*2)
	for _, ct := range items {
		ids = append(ids, ct.StudentID, ct.TutorID)
	}
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load users", err)
	}

	views := make([]*model.CurrentTutorView, 0, len(items))
	for _, ct := range items {
		views = append(views, &model.CurrentTutorView{
			CurrentTutor: *ct,
			Student:      summaries[ct.StudentID],
			Tutor:        summaries[ct.TutorID],
		})
	}
	return views, nil
}

func (s *currentTutorService) mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("Current tutor", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid current tutor ID format")
	default:
		s.log.Error("Current tutor repository call failed", "id", id, "error", err)
		return apperrors.Internal("Failed to process relationship", err)
	}
}
