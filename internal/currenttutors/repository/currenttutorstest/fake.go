// Package currenttutorstest provides an in-memory relationship repository.
package currenttutorstest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"tutorhub/internal/currenttutors/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu    sync.Mutex
	items map[string]*model.CurrentTutor
}

func NewFake() *Fake {
	return &Fake{items: make(map[string]*model.CurrentTutor)}
}

// Get returns a copy of the relationship for key, or nil.
func (f *Fake) Get(key model.RelationshipKey) *model.CurrentTutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	if ct := f.lookup(key); ct != nil {
		cp := *ct
		return &cp
	}
	return nil
}

func (f *Fake) lookup(key model.RelationshipKey) *model.CurrentTutor {
	for _, ct := range f.items {
		if ct.StudentID == key.StudentID && ct.TutorID == key.TutorID && strings.EqualFold(ct.Subject, key.Subject) {
			return ct
		}
	}
	return nil
}

func (f *Fake) ApplyDelta(_ context.Context, key model.RelationshipKey, d model.CounterDelta, at time.Time) error {
	if d.IsZero() {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	ct := f.lookup(key)
	if ct == nil {
		ct = &model.CurrentTutor{
			ID:        primitive.NewObjectID().Hex(),
			StudentID: key.StudentID,
			TutorID:   key.TutorID,
			Subject:   key.Subject,
			Status:    model.RelationshipActive,
			CreatedAt: at,
		}
		f.items[ct.ID] = ct
	}
	ct.TotalSessionsBooked += d.Booked
	ct.TotalSessionsCompleted += d.Completed
	ct.TotalSessionsCancelled += d.Cancelled
	ct.TotalSessionsAttended += d.Attended
	ct.TotalSessionsMissed += d.Missed
	if d.Activate {
		ct.Status = model.RelationshipActive
	}
	if d.FirstSessionAt != nil && (ct.FirstSessionAt == nil || d.FirstSessionAt.Before(*ct.FirstSessionAt)) {
		v := *d.FirstSessionAt
		ct.FirstSessionAt = &v
	}
	if d.LastSessionAt != nil && (ct.LastSessionAt == nil || d.LastSessionAt.After(*ct.LastSessionAt)) {
		v := *d.LastSessionAt
		ct.LastSessionAt = &v
	}
	if d.NextSessionAt != nil {
		v := *d.NextSessionAt
		ct.NextSessionAt = &v
	} else if d.ClearNext {
		ct.NextSessionAt = nil
	}
	ct.UpdatedAt = at
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.CurrentTutor, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if ct, ok := f.items[id]; ok {
		cp := *ct
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) FindByKey(_ context.Context, key model.RelationshipKey) (*model.CurrentTutor, error) {
	if ct := f.Get(key); ct != nil {
		return ct, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) ListForUser(_ context.Context, userID, role string, limit int, offset int64) ([]*model.CurrentTutor, error) {
	items := f.forUser(userID, role)
	if offset >= int64(len(items)) {
		return []*model.CurrentTutor{}, nil
	}
	return items[offset:min(int(offset)+limit, len(items))], nil
}

func (f *Fake) CountForUser(_ context.Context, userID, role string) (int64, error) {
	return int64(len(f.forUser(userID, role))), nil
}

func (f *Fake) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	ct, ok := f.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	ct.Status = status
	ct.UpdatedAt = at
	return nil
}

func (f *Fake) StudentIDsOfTutor(_ context.Context, tutorID string) ([]string, error) {
	return f.distinct(func(ct *model.CurrentTutor) (string, bool) { return ct.StudentID, ct.TutorID == tutorID }), nil
}

func (f *Fake) TutorIDsOfStudent(_ context.Context, studentID string) ([]string, error) {
	return f.distinct(func(ct *model.CurrentTutor) (string, bool) { return ct.TutorID, ct.StudentID == studentID }), nil
}

func (f *Fake) distinct(pick func(ct *model.CurrentTutor) (string, bool)) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := map[string]bool{}
	out := []string{}
	for _, ct := range f.items {
		if v, ok := pick(ct); ok && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func (f *Fake) forUser(userID, role string) []*model.CurrentTutor {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.CurrentTutor{}
	for _, ct := range f.items {
		if (role == model.RoleTutor && ct.TutorID == userID) || (role != model.RoleTutor && ct.StudentID == userID) {
			cp := *ct
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ repository.CurrentTutorRepository = (*Fake)(nil)
