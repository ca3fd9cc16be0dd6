// Package attendancetest provides an in-memory attendance repository.
package attendancetest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"tutorhub/internal/attendance/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu      sync.Mutex
	records map[string]*model.Attendance
}

func NewFake() *Fake {
	return &Fake{records: make(map[string]*model.Attendance)}
}

func (f *Fake) Upsert(_ context.Context, record *model.Attendance) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.records[record.BookingID]
	if !ok {
		cp := *record
		cp.ID = primitive.NewObjectID().Hex()
		f.records[record.BookingID] = &cp
		return "", nil
	}
	previous := stored.Status
	stored.Status = record.Status
	stored.Notes = record.Notes
	stored.MarkedBy = record.MarkedBy
	stored.MarkedAt = record.MarkedAt
	stored.UpdatedAt = record.UpdatedAt
	return previous, nil
}

func (f *Fake) FindByBookingID(_ context.Context, bookingID string) (*model.Attendance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.records[bookingID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) List(_ context.Context, filter model.AttendanceFilter, limit int, offset int64) ([]*model.Attendance, error) {
	items := f.matching(filter)
	if offset >= int64(len(items)) {
		return []*model.Attendance{}, nil
	}
	return items[offset:min(int(offset)+limit, len(items))], nil
}

func (f *Fake) Count(_ context.Context, filter model.AttendanceFilter) (int64, error) {
	return int64(len(f.matching(filter))), nil
}

func (f *Fake) CountByStatus(_ context.Context, filter model.AttendanceFilter) (map[string]int64, error) {
	out := map[string]int64{}
	for _, r := range f.matching(filter) {
		out[r.Status]++
	}
	return out, nil
}

func (f *Fake) matching(filter model.AttendanceFilter) []*model.Attendance {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Attendance{}
	for _, r := range f.records {
		if filter.StudentID != "" && r.StudentID != filter.StudentID {
			continue
		}
		if filter.TutorID != "" && r.TutorID != filter.TutorID {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(r.Subject, filter.Subject) {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionDate.After(out[j].SessionDate) })
	return out
}

var _ repository.AttendanceRepository = (*Fake)(nil)
