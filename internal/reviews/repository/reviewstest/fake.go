// Package reviewstest provides an in-memory review repository.
package reviewstest

import (
	"context"
	"sort"
	"sync"

	"tutorhub/internal/reviews/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu      sync.Mutex
	reviews map[string]*model.Review
}

func NewFake() *Fake {
	return &Fake{reviews: make(map[string]*model.Review)}
}

func (f *Fake) Create(_ context.Context, review *model.Review) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reviews {
		if r.BookingID == review.BookingID {
			return repository.ErrDuplicate
		}
	}
	review.ID = primitive.NewObjectID().Hex()
	cp := *review
	f.reviews[review.ID] = &cp
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.Review, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reviews[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reviews[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reviews, id)
	return nil
}

func (f *Fake) ListByTutor(_ context.Context, tutorID string, limit int, offset int64) ([]*model.Review, error) {
	return window(f.where(func(r *model.Review) bool { return r.TutorID == tutorID }), limit, offset), nil
}

func (f *Fake) CountByTutor(_ context.Context, tutorID string) (int64, error) {
	return int64(len(f.where(func(r *model.Review) bool { return r.TutorID == tutorID }))), nil
}

func (f *Fake) ListByStudent(_ context.Context, studentID string, limit int, offset int64) ([]*model.Review, error) {
	return window(f.where(func(r *model.Review) bool { return r.StudentID == studentID }), limit, offset), nil
}

func (f *Fake) CountByStudent(_ context.Context, studentID string) (int64, error) {
	return int64(len(f.where(func(r *model.Review) bool { return r.StudentID == studentID }))), nil
}

func (f *Fake) Stats(_ context.Context) (*model.ReviewStats, error) {
	all := f.where(func(*model.Review) bool { return true })
	sum := 0
	for _, r := range all {
		sum += r.Rating
	}
	return &model.ReviewStats{Total: int64(len(all)), Average: model.RatingAverage(sum, len(all))}, nil
}

func (f *Fake) where(keep func(r *model.Review) bool) []*model.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Review{}
	for _, r := range f.reviews {
		if keep(r) {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func window(items []*model.Review, limit int, offset int64) []*model.Review {
	if offset >= int64(len(items)) {
		return []*model.Review{}
	}
	return items[offset:min(int(offset)+limit, len(items))]
}

var _ repository.ReviewRepository = (*Fake)(nil)
