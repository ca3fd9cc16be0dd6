// Package favoritestest provides an in-memory favorite repository.
package favoritestest

import (
	"context"
	"sort"
	"sync"

	"tutorhub/internal/favorites/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu        sync.Mutex
	favorites []*model.Favorite
}

func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Create(_ context.Context, favorite *model.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.index(favorite.StudentID, favorite.TutorID) >= 0 {
		return repository.ErrDuplicate
	}
	favorite.ID = primitive.NewObjectID().Hex()
	cp := *favorite
	f.favorites = append(f.favorites, &cp)
	return nil
}

func (f *Fake) Delete(_ context.Context, studentID, tutorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(studentID, tutorID)
	if i < 0 {
		return repository.ErrNotFound
	}
	f.favorites = append(f.favorites[:i], f.favorites[i+1:]...)
	return nil
}

func (f *Fake) Exists(_ context.Context, studentID, tutorID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.index(studentID, tutorID) >= 0, nil
}

func (f *Fake) ListByStudent(_ context.Context, studentID string, limit int, offset int64) ([]*model.Favorite, error) {
	items := f.byStudent(studentID)
	if offset >= int64(len(items)) {
		return []*model.Favorite{}, nil
	}
	return items[offset:min(int(offset)+limit, len(items))], nil
}

func (f *Fake) CountByStudent(_ context.Context, studentID string) (int64, error) {
	return int64(len(f.byStudent(studentID))), nil
}

func (f *Fake) byStudent(studentID string) []*model.Favorite {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*model.Favorite{}
	for _, fav := range f.favorites {
		if fav.StudentID == studentID {
			cp := *fav
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (f *Fake) index(studentID, tutorID string) int {
	for i, fav := range f.favorites {
		if fav.StudentID == studentID && fav.TutorID == tutorID {
			return i
		}
	}
	return -1
}

var _ repository.FavoriteRepository = (*Fake)(nil)
