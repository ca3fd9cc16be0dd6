package service

import (
	"context"
	"errors"
	"time"

	ctrepo "tutorhub/internal/currenttutors/repository"
	"tutorhub/internal/progressreports/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/validation"
)

type ProgressReportService interface {
	Create(ctx context.Context, caller auth.Identity, req *model.ProgressReportRequest) (*model.ProgressReportView, error)
	Get(ctx context.Context, caller auth.Identity, id string) (*model.ProgressReportView, error)
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.ProgressReportView], error)
	Update(ctx context.Context, caller auth.Identity, id string, req *model.ProgressReportUpdate) (*model.ProgressReportView, error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type RelationshipFinder interface {
	FindByKey(ctx context.Context, key model.RelationshipKey) (*model.CurrentTutor, error)
}

type SummaryFinder interface {
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type progressReportService struct {
	repo          repository.ProgressReportRepository
	relationships RelationshipFinder
	users         SummaryFinder
	validator     *validation.Validator
	log           *logger.Logger
	now           func() time.Time
}

func NewProgressReportService(
	repo repository.ProgressReportRepository,
	relationships RelationshipFinder,
	users SummaryFinder,
	validator *validation.Validator,
	log *logger.Logger,
) ProgressReportService {
	return &progressReportService{
		repo:          repo,
		relationships: relationships,
		users:         users,
		validator:     validator,
		log:           log,
		now:           mongodb.Now,
	}
}

// Create writes a report for one of the tutor's students. The session
// counters of the relationship are copied onto the report at this point.
func (s *progressReportService) Create(ctx context.Context, caller auth.Identity, req *model.ProgressReportRequest) (*model.ProgressReportView, error) {
	req.StudentID = sanitizer.TrimAndNormalize(req.StudentID)
	req.Subject = sanitizer.NormalizeSubject(req.Subject)
	req.Strengths = sanitizer.NormalizeText(req.Strengths)
	req.AreasForImprovement = sanitizer.NormalizeText(req.AreasForImprovement)
	req.Comments = sanitizer.NormalizeText(req.Comments)
	req.Goals = sanitizer.NormalizeStringSlice(req.Goals, sanitizer.TrimAndNormalize)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	rel, err := s.relationships.FindByKey(ctx, model.RelationshipKey{
		StudentID: req.StudentID,
		TutorID:   caller.UserID,
		Subject:   req.Subject,
	})
	if err != nil {
		if errors.Is(err, ctrepo.ErrNotFound) {
			return nil, apperrors.BadRequest("No tutoring relationship with this student for the subject").
				WithDetail("student_id", req.StudentID)
		}
		s.log.Error("Failed to load tutoring relationship", "student_id", req.StudentID, "tutor_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to create progress report", err)
	}

	now := s.now()
	report := &model.ProgressReport{
		StudentID:           rel.StudentID,
		TutorID:             rel.TutorID,
		Subject:             rel.Subject,
		PeriodStart:         req.PeriodStart.UTC(),
		PeriodEnd:           req.PeriodEnd.UTC(),
		ProgressRating:      req.ProgressRating,
		Strengths:           req.Strengths,
		AreasForImprovement: req.AreasForImprovement,
		Goals:               req.Goals,
		Comments:            req.Comments,
		SessionsCompleted:   rel.TotalSessionsCompleted,
		SessionsAttended:    rel.TotalSessionsAttended,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		s.log.Error("Failed to create progress report", "student_id", report.StudentID, "error", err)
		return nil, apperrors.Internal("Failed to create progress report", err)
	}

	s.log.Info("Progress report created", "id", report.ID, "student_id", report.StudentID, "tutor_id", report.TutorID)
	return s.view(ctx, report)
}

func (s *progressReportService) Get(ctx context.Context, caller auth.Identity, id string) (*model.ProgressReportView, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	if !report.IsParticipant(caller.UserID) && !caller.Is(model.RoleAdmin) {
		return nil, apperrors.Forbidden("You do not have access to this progress report")
	}
	return s.view(ctx, report)
}

func (s *progressReportService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.ProgressReportView], error) {
	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountForUser(ctx, caller.UserID, caller.Role) },
		func(ctx context.Context) ([]*model.ProgressReport, error) {
			return s.repo.ListForUser(ctx, caller.UserID, caller.Role, limit, offset)
		},
	)
	if err != nil {
		s.log.Error("Failed to list progress reports", "user_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list progress reports", err)
	}

	ids := make([]string, 0, 2*len(page.Items))
	for _, r := range page.Items {
		ids = append(ids, r.StudentID, r.TutorID)
	}
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load report participants", err)
	}
	return paging.Map(page, func(r *model.ProgressReport) *model.ProgressReportView {
		return &model.ProgressReportView{ProgressReport: *r, Student: summaries[r.StudentID], Tutor: summaries[r.TutorID]}
	}), nil
}

func (s *progressReportService) Update(ctx context.Context, caller auth.Identity, id string, req *model.ProgressReportUpdate) (*model.ProgressReportView, error) {
	normalize(&req.Strengths, sanitizer.NormalizeText)
	normalize(&req.AreasForImprovement, sanitizer.NormalizeText)
	normalize(&req.Comments, sanitizer.NormalizeText)
	if req.Goals != nil {
		goals := sanitizer.NormalizeStringSlice(*req.Goals, sanitizer.TrimAndNormalize)
		req.Goals = &goals
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	report, err := s.owned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if req.ProgressRating != nil {
		report.ProgressRating = *req.ProgressRating
	}
	if req.Strengths != nil {
		report.Strengths = *req.Strengths
	}
	if req.AreasForImprovement != nil {
		report.AreasForImprovement = *req.AreasForImprovement
	}
	if req.Goals != nil {
		report.Goals = *req.Goals
	}
	if req.Comments != nil {
		report.Comments = *req.Comments
	}
	report.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, report); err != nil {
		return nil, s.mapRepoError(err, id)
	}

	s.log.Info("Progress report updated", "id", id)
	return s.view(ctx, report)
}

func (s *progressReportService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	if _, err := s.owned(ctx, caller, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err, id)
	}
	s.log.Info("Progress report deleted", "id", id)
	return nil
}

func (s *progressReportService) owned(ctx context.Context, caller auth.Identity, id string) (*model.ProgressReport, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err, id)
	}
	if report.TutorID != caller.UserID {
		return nil, apperrors.Forbidden("Only the author can modify this progress report")
	}
	return report, nil
}

func (s *progressReportService) view(ctx context.Context, r *model.ProgressReport) (*model.ProgressReportView, error) {
	summaries, err := s.users.FindSummaries(ctx, []string{r.StudentID, r.TutorID})
	if err != nil {
		return nil, apperrors.Internal("Failed to load report participants", err)
	}
	return &model.ProgressReportView{ProgressReport: *r, Student: summaries[r.StudentID], Tutor: summaries[r.TutorID]}, nil
}

func (s *progressReportService) mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("Progress report", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid progress report ID format")
	default:
		s.log.Error("Progress report repository error", "id", id, "error", err)
		return apperrors.Internal("Progress report operation failed", err)
	}
}

func normalize(field **string, fn func(string) string) {
	if *field != nil {
		v := fn(**field)
		*field = &v
	}
}
