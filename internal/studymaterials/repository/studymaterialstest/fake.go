// Package studymaterialstest provides an in-memory study material repository.
package studymaterialstest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"tutorhub/internal/studymaterials/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu        sync.Mutex
	materials map[string]*model.StudyMaterial
}

func NewFake() *Fake {
	return &Fake{materials: make(map[string]*model.StudyMaterial)}
}

func clone(m *model.StudyMaterial) *model.StudyMaterial {
	cp := *m
	cp.SharedWith = slices.Clone(m.SharedWith)
	return &cp
}

func (f *Fake) Create(_ context.Context, material *model.StudyMaterial) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if material.SharedWith == nil {
		material.SharedWith = []string{}
	}
	material.ID = primitive.NewObjectID().Hex()
	f.materials[material.ID] = clone(material)
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.StudyMaterial, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.materials[id]; ok {
		return clone(m), nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) Update(_ context.Context, material *model.StudyMaterial) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.materials[material.ID]
	if !ok {
		return repository.ErrNotFound
	}
	updated := clone(material)
	updated.SharedWith = stored.SharedWith
	f.materials[material.ID] = updated
	return nil
}

func (f *Fake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.materials[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.materials, id)
	return nil
}

func (f *Fake) ListByTutor(_ context.Context, tutorID string, limit int, offset int64) ([]*model.StudyMaterial, error) {
	return window(f.where(func(m *model.StudyMaterial) bool { return m.TutorID == tutorID }), limit, offset), nil
}

func (f *Fake) CountByTutor(_ context.Context, tutorID string) (int64, error) {
	return int64(len(f.where(func(m *model.StudyMaterial) bool { return m.TutorID == tutorID }))), nil
}

func (f *Fake) ListVisibleTo(_ context.Context, studentID string, tutorIDs []string, limit int, offset int64) ([]*model.StudyMaterial, error) {
	return window(f.where(visible(studentID, tutorIDs)), limit, offset), nil
}

func (f *Fake) CountVisibleTo(_ context.Context, studentID string, tutorIDs []string) (int64, error) {
	return int64(len(f.where(visible(studentID, tutorIDs)))), nil
}

func (f *Fake) Share(_ context.Context, id string, studentIDs []string, at time.Time) (*model.StudyMaterial, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.materials[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	for _, sid := range studentIDs {
		if !slices.Contains(m.SharedWith, sid) {
			m.SharedWith = append(m.SharedWith, sid)
		}
	}
	m.UpdatedAt = at
	return clone(m), nil
}

func visible(studentID string, tutorIDs []string) func(m *model.StudyMaterial) bool {
	return func(m *model.StudyMaterial) bool {
		return m.IsSharedWith(studentID) || (m.IsPublic && slices.Contains(tutorIDs, m.TutorID))
	}
}

func (f *Fake) where(keep func(m *model.StudyMaterial) bool) []*model.StudyMaterial {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.StudyMaterial{}
	for _, m := range f.materials {
		if keep(m) {
			out = append(out, clone(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func window(items []*model.StudyMaterial, limit int, offset int64) []*model.StudyMaterial {
	if offset >= int64(len(items)) {
		return []*model.StudyMaterial{}
	}
	return items[offset:min(int(offset)+limit, len(items))]
}

var _ repository.StudyMaterialRepository = (*Fake)(nil)
