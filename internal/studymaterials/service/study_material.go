package service

import (
	"context"
	"errors"
	"slices"
	"time"

	"tutorhub/internal/studymaterials/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/validation"
)

type StudyMaterialService interface {
	Create(ctx context.Context, caller auth.Identity, req *model.StudyMaterialRequest) (*model.StudyMaterial, error)
	Get(ctx context.Context, caller auth.Identity, id string) (*model.StudyMaterial, error)
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.StudyMaterial], error)
	Update(ctx context.Context, caller auth.Identity, id string, req *model.StudyMaterialUpdate) (*model.StudyMaterial, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
	Share(ctx context.Context, caller auth.Identity, id string, req *model.ShareRequest) (*model.StudyMaterial, error)
}

// RelationshipLookup answers who a user has a tutoring relationship with.
type RelationshipLookup interface {
	StudentIDsOfTutor(ctx context.Context, tutorID string) ([]string, error)
	TutorIDsOfStudent(ctx context.Context, studentID string) ([]string, error)
}

type studyMaterialService struct {
	repo          repository.StudyMaterialRepository
	relationships RelationshipLookup
	validator     *validation.Validator
	log           *logger.Logger
	now           func() time.Time
}

func NewStudyMaterialService(
	repo repository.StudyMaterialRepository,
	relationships RelationshipLookup,
	validator *validation.Validator,
	log *logger.Logger,
) StudyMaterialService {
	return &studyMaterialService{
		repo:          repo,
		relationships: relationships,
		validator:     validator,
		log:           log,
		now:           mongodb.Now,
	}
}

func (s *studyMaterialService) Create(ctx context.Context, caller auth.Identity, req *model.StudyMaterialRequest) (*model.StudyMaterial, error) {
	req.Title = sanitizer.TrimAndNormalize(req.Title)
	req.Description = sanitizer.NormalizeText(req.Description)
	req.Subject = sanitizer.NormalizeSubject(req.Subject)
	req.URL = sanitizer.NormalizeURL(req.URL)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	now := s.now()
	material := &model.StudyMaterial{
		TutorID:     caller.UserID,
		Title:       req.Title,
		Description: req.Description,
		Subject:     req.Subject,
		URL:         req.URL,
		Type:        req.Type,
		SharedWith:  []string{},
		IsPublic:    req.IsPublic,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, material); err != nil {
		s.log.Error("Failed to create study material", "tutor_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to create study material", err)
	}

	s.log.Info("Study material created", "id", material.ID, "tutor_id", caller.UserID)
	return material, nil
}

func (s *studyMaterialService) Get(ctx context.Context, caller auth.Identity, id string) (*model.StudyMaterial, error) {
	material, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if material.IsPublic || material.TutorID == caller.UserID || material.IsSharedWith(caller.UserID) || caller.Is(model.RoleAdmin) {
		return material, nil
	}
	return nil, apperrors.Forbidden("You do not have access to this material")
}

func (s *studyMaterialService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.StudyMaterial], error) {
	var (
		count func(ctx context.Context) (int64, error)
		find  func(ctx context.Context) ([]*model.StudyMaterial, error)
	)

	if caller.Is(model.RoleTutor) {
		count = func(ctx context.Context) (int64, error) { return s.repo.CountByTutor(ctx, caller.UserID) }
		find = func(ctx context.Context) ([]*model.StudyMaterial, error) {
			return s.repo.ListByTutor(ctx, caller.UserID, limit, offset)
		}
	} else {
		tutorIDs, err := s.relationships.TutorIDsOfStudent(ctx, caller.UserID)
		if err != nil {
			return nil, apperrors.Internal("Failed to load tutors", err)
		}
		count = func(ctx context.Context) (int64, error) { return s.repo.CountVisibleTo(ctx, caller.UserID, tutorIDs) }
		find = func(ctx context.Context) ([]*model.StudyMaterial, error) {
			return s.repo.ListVisibleTo(ctx, caller.UserID, tutorIDs, limit, offset)
		}
	}

	page, err := paging.Fetch(ctx, limit, offset, count, find)
	if err != nil {
		s.log.Error("Failed to list study materials", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list study materials", err)
	}
	return page, nil
}

func (s *studyMaterialService) Update(ctx context.Context, caller auth.Identity, id string, req *model.StudyMaterialUpdate) (*model.StudyMaterial, error) {
	normalize(&req.Title, sanitizer.TrimAndNormalize)
	normalize(&req.Description, sanitizer.NormalizeText)
	normalize(&req.Subject, sanitizer.NormalizeSubject)
	normalize(&req.URL, sanitizer.NormalizeURL)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	material, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		material.Title = *req.Title
	}
	if req.Description != nil {
		material.Description = *req.Description
	}
	if req.Subject != nil {
		material.Subject = *req.Subject
	}
	if req.URL != nil {
		material.URL = *req.URL
	}
	if req.Type != nil {
		material.Type = *req.Type
	}
	if req.IsPublic != nil {
		material.IsPublic = *req.IsPublic
	}
	material.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, material); err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return material, nil
}

func (s *studyMaterialService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id)
	}
	s.log.Info("Study material deleted", "id", id, "tutor_id", caller.UserID)
	return nil
}

// Share grants students access. Every student must already have a
// relationship with the owning tutor.
func (s *studyMaterialService) Share(ctx context.Context, caller auth.Identity, id string, req *model.ShareRequest) (*model.StudyMaterial, error) {
	req.StudentIDs = sanitizer.NormalizeIDs(req.StudentIDs)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	if _, err := s.owned(ctx, caller, id); err != nil {
		return nil, err
	}

	students, err := s.relationships.StudentIDsOfTutor(ctx, caller.UserID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load students", err)
	}
	var unknown []string
	for _, sid := range req.StudentIDs {
		if !slices.Contains(students, sid) {
			unknown = append(unknown, sid)
		}
	}
	if len(unknown) > 0 {
		return nil, apperrors.BadRequest("Materials can only be shared with your own students").
			WithDetail("student_ids", unknown)
	}

	material, err := s.repo.Share(ctx, id, req.StudentIDs, s.now())
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	s.log.Info("Study material shared", "id", id, "students", len(req.StudentIDs))
	return material, nil
}

func (s *studyMaterialService) owned(ctx context.Context, caller auth.Identity, id string) (*model.StudyMaterial, error) {
	material, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if material.TutorID != caller.UserID {
		return nil, apperrors.Forbidden("Only the owner can change this material")
	}
	return material, nil
}

func (s *studyMaterialService) load(ctx context.Context, id string) (*model.StudyMaterial, error) {
	material, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	return material, nil
}

func (s *studyMaterialService) mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("Study material", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid study material ID format")
	default:
		s.log.Error("Study material repository error", "id", id, "error", err)
		return apperrors.Internal("Study material operation failed", err)
	}
}

func normalize(field **string, fn func(string) string) {
	if *field != nil {
		v := fn(**field)
		*field = &v
	}
}
