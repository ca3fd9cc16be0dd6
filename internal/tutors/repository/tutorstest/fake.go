// Package tutorstest provides an in-memory tutor profile repository.
package tutorstest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tutorhub/internal/tutors/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu       sync.Mutex
	profiles map[string]*model.TutorProfile
}

func NewFake(profiles ...*model.TutorProfile) *Fake {
	f := &Fake{profiles: make(map[string]*model.TutorProfile)}
	for _, p := range profiles {
		f.Add(p)
	}
	return f
}

func (f *Fake) Add(p *model.TutorProfile) *model.TutorProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	f.profiles[p.ID] = p
	return p
}

// ByUser returns a copy of the profile of userID, or nil.
func (f *Fake) ByUser(userID string) *model.TutorProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID == userID {
			cp := *p
			return &cp
		}
	}
	return nil
}

func (f *Fake) Create(_ context.Context, profile *model.TutorProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID == profile.UserID {
			return repository.ErrDuplicate
		}
	}
	profile.ID = primitive.NewObjectID().Hex()
	cp := *profile
	f.profiles[profile.ID] = &cp
	return nil
}

func (f *Fake) Update(_ context.Context, profile *model.TutorProfile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.profiles[profile.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *profile
	cp.RatingSum, cp.RatingCount, cp.RatingAverage = stored.RatingSum, stored.RatingCount, stored.RatingAverage
	f.profiles[profile.ID] = &cp
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.TutorProfile, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) FindByUserID(_ context.Context, userID string) (*model.TutorProfile, error) {
	if p := f.ByUser(userID); p != nil {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) ListApproved(_ context.Context, filter model.TutorFilter, limit int, offset int64) ([]*model.TutorProfile, error) {
	return window(f.approved(filter), limit, offset), nil
}

func (f *Fake) CountApproved(_ context.Context, filter model.TutorFilter) (int64, error) {
	return int64(len(f.approved(filter))), nil
}

func (f *Fake) ListByStatus(_ context.Context, status string, limit int, offset int64) ([]*model.TutorProfile, error) {
	return window(f.withStatus(status), limit, offset), nil
}

func (f *Fake) CountByStatus(_ context.Context, status string) (int64, error) {
	return int64(len(f.withStatus(status))), nil
}

func (f *Fake) UpdateStatus(_ context.Context, id string, change repository.StatusChange) error {
	if !primitive.IsValidObjectID(id) {
		return repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[id]
	if !ok || p.Status != change.From {
		return repository.ErrStatusChanged
	}
	at := change.At
	p.Status = change.To
	p.RejectionReason = change.Reason
	p.ReviewedBy = change.ReviewedBy
	p.ReviewedAt = &at
	p.UpdatedAt = at
	return nil
}

func (f *Fake) ApplyRating(_ context.Context, userID string, sumDelta, countDelta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID == userID {
			p.RatingSum = max(0, p.RatingSum+sumDelta)
			p.RatingCount = max(0, p.RatingCount+countDelta)
			p.RatingAverage = model.RatingAverage(p.RatingSum, p.RatingCount)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *Fake) StatusCounts(_ context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, p := range f.profiles {
		out[p.Status]++
	}
	return out, nil
}

func (f *Fake) withStatus(status string) []*model.TutorProfile {
	return f.filter(func(p *model.TutorProfile) bool { return p.Status == status })
}

func (f *Fake) approved(filter model.TutorFilter) []*model.TutorProfile {
	out := f.filter(func(p *model.TutorProfile) bool {
		if p.Status != model.ProfileStatusApproved {
			return false
		}
		if filter.Subject != "" && !p.Teaches(filter.Subject) {
			return false
		}
		if filter.Language != "" && !containsFold(p.Languages, filter.Language) {
			return false
		}
		if filter.MinRating != nil && p.RatingAverage < *filter.MinRating {
			return false
		}
		if filter.MaxRate != nil && p.HourlyRate > *filter.MaxRate {
			return false
		}
		return true
	})
	sort.SliceStable(out, func(i, j int) bool {
		switch filter.Sort {
		case model.TutorSortRateAsc:
			return out[i].HourlyRate < out[j].HourlyRate
		case model.TutorSortRateDesc:
			return out[i].HourlyRate > out[j].HourlyRate
		case model.TutorSortNewest:
			return out[i].CreatedAt.After(out[j].CreatedAt)
		default:
			return out[i].RatingAverage > out[j].RatingAverage
		}
	})
	return out
}

func (f *Fake) filter(keep func(p *model.TutorProfile) bool) []*model.TutorProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.TutorProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		if keep(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func window[T any](items []T, limit int, offset int64) []T {
	if offset >= int64(len(items)) {
		return []T{}
	}
	return items[offset:min(int(offset)+limit, len(items))]
}

func containsFold(items []string, s string) bool {
	for _, item := range items {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

var _ repository.TutorProfileRepository = (*Fake)(nil)
