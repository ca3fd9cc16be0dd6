// Package progressreportstest provides an in-memory progress report repository.
package progressreportstest

import (
	"context"
	"slices"
	"sort"
	"sync"

	"tutorhub/internal/progressreports/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu      sync.Mutex
	reports map[string]*model.ProgressReport
}

func NewFake() *Fake {
	return &Fake{reports: make(map[string]*model.ProgressReport)}
}

func clone(r *model.ProgressReport) *model.ProgressReport {
	cp := *r
	cp.Goals = slices.Clone(r.Goals)
	return &cp
}

func (f *Fake) Create(_ context.Context, report *model.ProgressReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report.ID = primitive.NewObjectID().Hex()
	f.reports[report.ID] = clone(report)
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.ProgressReport, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.reports[id]; ok {
		return clone(r), nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) Update(_ context.Context, report *model.ProgressReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[report.ID]; !ok {
		return repository.ErrNotFound
	}
	f.reports[report.ID] = clone(report)
	return nil
}

func (f *Fake) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.reports[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.reports, id)
	return nil
}

func (f *Fake) ListForUser(_ context.Context, userID, role string, limit int, offset int64) ([]*model.ProgressReport, error) {
	items := f.forUser(userID, role)
	if offset >= int64(len(items)) {
		return []*model.ProgressReport{}, nil
	}
	return items[offset:min(int(offset)+limit, len(items))], nil
}

func (f *Fake) CountForUser(_ context.Context, userID, role string) (int64, error) {
	return int64(len(f.forUser(userID, role))), nil
}

func (f *Fake) forUser(userID, role string) []*model.ProgressReport {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.ProgressReport{}
	for _, r := range f.reports {
		if (role == model.RoleTutor && r.TutorID == userID) || (role != model.RoleTutor && r.StudentID == userID) {
			out = append(out, clone(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodEnd.After(out[j].PeriodEnd) })
	return out
}

var _ repository.ProgressReportRepository = (*Fake)(nil)
