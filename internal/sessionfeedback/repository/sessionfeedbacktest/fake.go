// Package sessionfeedbacktest provides an in-memory session feedback repository.
package sessionfeedbacktest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"tutorhub/internal/sessionfeedback/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu    sync.Mutex
	items map[string]*model.SessionFeedback
}

func NewFake() *Fake {
	return &Fake{items: make(map[string]*model.SessionFeedback)}
}

func clone(f *model.SessionFeedback) *model.SessionFeedback {
	cp := *f
	cp.Homework = slices.Clone(f.Homework)
	cp.StudyMaterials = slices.Clone(f.StudyMaterials)
	if f.StudentFeedback != nil {
		sf := *f.StudentFeedback
		cp.StudentFeedback = &sf
	}
	return &cp
}

func (f *Fake) Create(_ context.Context, feedback *model.SessionFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.items {
		if existing.BookingID == feedback.BookingID {
			return repository.ErrDuplicate
		}
	}
	feedback.ID = primitive.NewObjectID().Hex()
	f.items[feedback.ID] = clone(feedback)
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.SessionFeedback, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if fb, ok := f.items[id]; ok {
		return clone(fb), nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) FindByBookingID(_ context.Context, bookingID string) (*model.SessionFeedback, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fb := range f.items {
		if fb.BookingID == bookingID {
			return clone(fb), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) ListForUser(_ context.Context, userID, role string, limit int, offset int64) ([]*model.SessionFeedback, error) {
	items := f.forUser(userID, role)
	if offset >= int64(len(items)) {
		return []*model.SessionFeedback{}, nil
	}
	return items[offset:min(int(offset)+limit, len(items))], nil
}

func (f *Fake) CountForUser(_ context.Context, userID, role string) (int64, error) {
	return int64(len(f.forUser(userID, role))), nil
}

func (f *Fake) forUser(userID, role string) []*model.SessionFeedback {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.SessionFeedback{}
	for _, fb := range f.items {
		if (role == model.RoleTutor && fb.TutorID == userID) || (role != model.RoleTutor && fb.StudentID == userID) {
			out = append(out, clone(fb))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionDate.After(out[j].SessionDate) })
	return out
}

func (f *Fake) UpdateTutorSection(_ context.Context, feedback *model.SessionFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[feedback.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Version != feedback.Version {
		return repository.ErrModified
	}
	stored.TutorFeedback = feedback.TutorFeedback
	stored.StudyMaterials = slices.Clone(feedback.StudyMaterials)
	stored.Homework = slices.Clone(feedback.Homework)
	stored.UpdatedAt = feedback.UpdatedAt
	stored.Version++
	feedback.Version = stored.Version
	return nil
}

func (f *Fake) SetStudentFeedback(_ context.Context, id string, feedback *model.StudentFeedback) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok {
		return repository.ErrNotFound
	}
	sf := *feedback
	stored.StudentFeedback = &sf
	stored.UpdatedAt = feedback.SubmittedAt
	stored.Version++
	return nil
}

func (f *Fake) SetHomeworkStatus(_ context.Context, id, homeworkID string, from []string, status string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.items[id]
	if !ok {
		return repository.ErrStatusChanged
	}
	hw := stored.HomeworkItem(homeworkID)
	if hw == nil || !slices.Contains(from, hw.Status) {
		return repository.ErrStatusChanged
	}
	hw.Status = status
	switch status {
	case model.HomeworkSubmitted:
		hw.SubmittedAt = &at
	case model.HomeworkReviewed:
		hw.ReviewedAt = &at
	}
	stored.UpdatedAt = at
	stored.Version++
	return nil
}

var _ repository.SessionFeedbackRepository = (*Fake)(nil)
