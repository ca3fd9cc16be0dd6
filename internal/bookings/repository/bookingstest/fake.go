// Package bookingstest provides in-memory booking repositories.
package bookingstest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"tutorhub/internal/bookings/repository"
	"tutorhub/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
}

func NewFake(bookings ...*model.Booking) *Fake {
	f := &Fake{bookings: make(map[string]*model.Booking)}
	for _, b := range bookings {
		f.Add(b)
	}
	return f
}

func (f *Fake) Add(b *model.Booking) *model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.ID == "" {
		b.ID = primitive.NewObjectID().Hex()
	}
	f.bookings[b.ID] = b
	return b
}

func (f *Fake) Get(id string) *model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.bookings[id]; ok {
		cp := *b
		return &cp
	}
	return nil
}

func (f *Fake) Create(_ context.Context, booking *model.Booking) error {
	booking.ID = primitive.NewObjectID().Hex()
	cp := *booking
	f.Add(&cp)
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.Booking, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	if b := f.Get(id); b != nil {
		return b, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) List(_ context.Context, filter model.BookingFilter, limit int, offset int64) ([]*model.Booking, error) {
	items := f.matching(filter)
	if offset >= int64(len(items)) {
		return []*model.Booking{}, nil
	}
	return items[offset:min(int(offset)+limit, len(items))], nil
}

func (f *Fake) Count(_ context.Context, filter model.BookingFilter) (int64, error) {
	return int64(len(f.matching(filter))), nil
}

func (f *Fake) HasOverlap(_ context.Context, tutorID string, start, end time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, b := range f.bookings {
		if b.TutorID == tutorID && slices.Contains(model.ActiveBookingStatuses, b.Status) &&
			b.StartTime.Before(end) && b.EndTime.After(start) {
			return true, nil
		}
	}
	return false, nil
}

func (f *Fake) UpdateStatus(_ context.Context, id string, change model.BookingStatusChange) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || !slices.Contains(change.From, b.Status) {
		return nil, repository.ErrStatusChanged
	}
	at := change.At
	b.Status = change.To
	b.UpdatedAt = at
	switch change.To {
	case model.BookingStatusApproved:
		b.ApprovedAt = &at
		if change.MeetingLink != "" {
			b.MeetingLink = change.MeetingLink
		}
	case model.BookingStatusRejected:
		b.RejectionReason = change.Reason
	case model.BookingStatusCancelled:
		b.CancelledAt = &at
		b.CancelledBy = change.By
		b.CancellationReason = change.Reason
	case model.BookingStatusCompleted:
		b.CompletedAt = &at
	}
	cp := *b
	return &cp, nil
}

func (f *Fake) NextApprovedStart(_ context.Context, key model.RelationshipKey, after time.Time) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var next *time.Time
	for _, b := range f.bookings {
		if b.RelationshipKey() != key || b.Status != model.BookingStatusApproved || !b.StartTime.After(after) {
			continue
		}
		if next == nil || b.StartTime.Before(*next) {
			start := b.StartTime
			next = &start
		}
	}
	return next, nil
}

func (f *Fake) StatusCounts(_ context.Context) (map[string]int64, error) {
	out := map[string]int64{}
	for _, b := range f.matching(model.BookingFilter{}) {
		out[b.Status]++
	}
	return out, nil
}

func (f *Fake) TopSubjects(_ context.Context, limit int) ([]model.CountByKey, error) {
	counts := map[string]int64{}
	for _, b := range f.matching(model.BookingFilter{}) {
		counts[b.Subject]++
	}
	return top(counts, limit, func(a, b model.CountByKey) bool {
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	}), nil
}

func (f *Fake) CreatedPerDay(_ context.Context, since time.Time) ([]model.CountByKey, error) {
	counts := map[string]int64{}
	for _, b := range f.matching(model.BookingFilter{}) {
		if !b.CreatedAt.Before(since) {
			counts[b.CreatedAt.UTC().Format("2006-01-02")]++
		}
	}
	return top(counts, len(counts), func(a, b model.CountByKey) bool { return a.Key < b.Key }), nil
}

func top(counts map[string]int64, limit int, less func(a, b model.CountByKey) bool) []model.CountByKey {
	out := make([]model.CountByKey, 0, len(counts))
	for k, v := range counts {
		out = append(out, model.CountByKey{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (f *Fake) matching(filter model.BookingFilter) []*model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Booking{}
	for _, b := range f.bookings {
		if filter.Role == model.RoleTutor && b.TutorID != filter.UserID {
			continue
		}
		if filter.Role == model.RoleStudent && b.StudentID != filter.UserID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.After(out[j].StartTime) })
	return out
}

type heldLock struct {
	owner   string
	expires time.Time
}

// Locks is an in-memory BookingLockRepository. Expired locks are taken over
// like the Mongo implementation does; a ttl of zero expires at once.
type Locks struct {
	mu   sync.Mutex
	held map[string]heldLock
}

func NewLocks() *Locks {
	return &Locks{held: make(map[string]heldLock)}
}

func (l *Locks) Acquire(_ context.Context, id string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	if h, ok := l.held[id]; ok && now.Before(h.expires) {
		return "", repository.ErrLocked
	}
	owner := uuid.NewString()
	l.held[id] = heldLock{owner: owner, expires: now.Add(ttl)}
	return owner, nil
}

func (l *Locks) Release(_ context.Context, id, owner string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if h, ok := l.held[id]; ok && h.owner == owner {
		delete(l.held, id)
	}
	return nil
}

var (
	_ repository.BookingRepository     = (*Fake)(nil)
	_ repository.BookingLockRepository = (*Locks)(nil)
)
