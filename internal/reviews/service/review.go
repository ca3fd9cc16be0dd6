package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	bookingsvc "tutorhub/internal/bookings/service"
	"tutorhub/internal/events"
	"tutorhub/internal/reviews/repository"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/paging"
	"tutorhub/pkg/sanitizer"
	"tutorhub/pkg/validation"
)

type ReviewService interface {
	Create(ctx context.Context, caller auth.Identity, req *model.ReviewRequest) (*model.ReviewView, error)
	ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) (*paging.Page[*model.ReviewView], error)
	ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.ReviewView], error)
	Delete(ctx context.Context, caller auth.Identity, id string) error
}

type RatingWriter interface {
	ApplyRating(ctx context.Context, userID string, sumDelta, countDelta int) error
}

type SummaryFinder interface {
	FindSummaries(ctx context.Context, ids []string) (map[string]*model.UserSummary, error)
}

type reviewService struct {
	repo      repository.ReviewRepository
	bookings  bookingsvc.BookingFinder
	ratings   RatingWriter
	users     SummaryFinder
	txManager mongodb.TransactionManager
	publisher events.Publisher
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewReviewService(
	repo repository.ReviewRepository,
	bookings bookingsvc.BookingFinder,
	ratings RatingWriter,
	users SummaryFinder,
	txManager mongodb.TransactionManager,
	publisher events.Publisher,
	validator *validation.Validator,
	log *logger.Logger,
) ReviewService {
	return &reviewService{
		repo:      repo,
		bookings:  bookings,
		ratings:   ratings,
		users:     users,
		txManager: txManager,
		publisher: publisher,
		validator: validator,
		log:       log,
		now:       mongodb.Now,
	}
}

func (s *reviewService) Create(ctx context.Context, caller auth.Identity, req *model.ReviewRequest) (*model.ReviewView, error) {
	req.Comment = sanitizer.NormalizeText(req.Comment)
	if err := s.validator.Struct(req); err != nil {
		return nil, err
	}

	booking, err := bookingsvc.LoadBooking(ctx, s.bookings, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.StudentID != caller.UserID {
		return nil, apperrors.Forbidden("Only the student of this booking can review it")
	}
	if booking.Status != model.BookingStatusCompleted {
		return nil, apperrors.BadRequest("Only completed sessions can be reviewed")
	}

	review := &model.Review{
		BookingID: booking.ID,
		StudentID: booking.StudentID,
		TutorID:   booking.TutorID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: s.now(),
	}

	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, review); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return apperrors.Conflict("This booking has already been reviewed")
			}
			return fmt.Errorf("failed to create review: %w", err)
		}
		if err := s.ratings.ApplyRating(ctx, review.TutorID, review.Rating, 1); err != nil {
			return fmt.Errorf("failed to update tutor rating: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		s.log.Error("Failed to create review", "booking_id", booking.ID, "error", err)
		return nil, apperrors.Internal("Failed to create review", err)
	}

	s.log.Info("Review created", "id", review.ID, "booking_id", booking.ID, "tutor_id", review.TutorID, "rating", review.Rating)

	summaries, err := s.users.FindSummaries(ctx, []string{review.StudentID, review.TutorID})
	if err != nil {
		return nil, apperrors.Internal("Failed to load review participants", err)
	}
	s.publisher.Publish(ctx, events.Event{
		Type:        events.TypeReviewCreated,
		AggregateID: review.TutorID,
		Payload: events.ReviewCreated{
			ReviewID:  review.ID,
			BookingID: review.BookingID,
			Rating:    review.Rating,
			Comment:   review.Comment,
			Student:   contactOf(summaries[review.StudentID]),
			Tutor:     contactOf(summaries[review.TutorID]),
		},
	})

	return &model.ReviewView{Review: *review, Student: summaries[review.StudentID]}, nil
}

func (s *reviewService) ListByTutor(ctx context.Context, tutorID string, limit int, offset int64) (*paging.Page[*model.ReviewView], error) {
	if _, err := mongodb.ObjectID(tutorID); err != nil {
		return nil, apperrors.InvalidInput("Invalid tutor ID format")
	}
	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountByTutor(ctx, tutorID) },
		func(ctx context.Context) ([]*model.Review, error) { return s.repo.ListByTutor(ctx, tutorID, limit, offset) },
	)
	if err != nil {
		s.log.Error("Failed to list reviews", "tutor_id", tutorID, "error", err)
		return nil, apperrors.Internal("Failed to list reviews", err)
	}
	return s.populate(ctx, page)
}

func (s *reviewService) ListMine(ctx context.Context, caller auth.Identity, limit int, offset int64) (*paging.Page[*model.ReviewView], error) {
	page, err := paging.Fetch(ctx, limit, offset,
		func(ctx context.Context) (int64, error) { return s.repo.CountByStudent(ctx, caller.UserID) },
		func(ctx context.Context) ([]*model.Review, error) {
			return s.repo.ListByStudent(ctx, caller.UserID, limit, offset)
		},
	)
	if err != nil {
		s.log.Error("Failed to list reviews", "student_id", caller.UserID, "error", err)
		return nil, apperrors.Internal("Failed to list reviews", err)
	}
	return s.populate(ctx, page)
}

// Delete removes a review and takes its rating back out of the tutor aggregate.
func (s *reviewService) Delete(ctx context.Context, caller auth.Identity, id string) error {
	review, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return s.mapRepoError(err, id)
	}
	if review.StudentID != caller.UserID && !caller.Is(model.RoleAdmin) {
		return apperrors.Forbidden("Only the author or an admin can delete this review")
	}

	err = s.txManager.ExecuteTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Delete(ctx, id); err != nil {
			return s.mapRepoError(err, id)
		}
		if err := s.ratings.ApplyRating(ctx, review.TutorID, -review.Rating, -1); err != nil {
			return fmt.Errorf("failed to update tutor rating: %w", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return err
		}
		s.log.Error("Failed to delete review", "id", id, "error", err)
		return apperrors.Internal("Failed to delete review", err)
	}

	s.log.Info("Review deleted", "id", id, "tutor_id", review.TutorID, "deleted_by", caller.UserID)
	return nil
}

func (s *reviewService) populate(ctx context.Context, page *paging.Page[*model.Review]) (*paging.Page[*model.ReviewView], error) {
	ids := make([]string, 0, len(page.Items))
	for _, r := range page.Items {
		ids = append(ids, r.StudentID)
	}
	summaries, err := s.users.FindSummaries(ctx, ids)
	if err != nil {
		return nil, apperrors.Internal("Failed to load reviewers", err)
	}
	return paging.Map(page, func(r *model.Review) *model.ReviewView {
		return &model.ReviewView{Review: *r, Student: summaries[r.StudentID]}
	}), nil
}

func (s *reviewService) mapRepoError(err error, id string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFoundWithID("Review", id)
	case errors.Is(err, repository.ErrInvalidID):
		return apperrors.InvalidInput("Invalid review ID format")
	default:
		s.log.Error("Review repository error", "id", id, "error", err)
		return apperrors.Internal("Review operation failed", err)
	}
}

func contactOf(u *model.UserSummary) events.Contact {
	if u == nil {
		return events.Contact{}
	}
	return events.Contact{ID: u.ID, Name: u.Name, Email: u.Email}
}
