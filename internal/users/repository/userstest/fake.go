// Package userstest provides an in-memory user repository for service tests.
package userstest

import (
	"context"
	"sort"
	"sync"
	"time"

	"tutorhub/internal/users/repository"
	"tutorhub/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Fake struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewFake(users ...*model.User) *Fake {
	f := &Fake{users: make(map[string]*model.User)}
	for _, u := range users {
		f.Add(u)
	}
	return f
}

// Add stores u as is, assigning an id when missing.
func (f *Fake) Add(u *model.User) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = primitive.NewObjectID().Hex()
	}
	f.users[u.ID] = u
	return u
}

func (f *Fake) Get(id string) *model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp
	}
	return nil
}

func (f *Fake) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}
	user.ID = primitive.NewObjectID().Hex()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *Fake) FindByID(_ context.Context, id string) (*model.User, error) {
	if !primitive.IsValidObjectID(id) {
		return nil, repository.ErrInvalidID
	}
	if u := f.Get(id); u != nil {
		return u, nil
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) FindByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *Fake) FindSummaries(_ context.Context, ids []string) (map[string]*model.UserSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*model.UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out[id] = u.Summary()
		}
	}
	return out, nil
}

func (f *Fake) UpdateProfile(_ context.Context, id string, set bson.M) error {
	return f.mutate(id, func(u *model.User) {
		if v, ok := set["name"].(string); ok {
			u.Name = v
		}
		if v, ok := set["phone"].(string); ok {
			u.Phone = v
		}
		if v, ok := set["avatar_url"].(string); ok {
			u.AvatarURL = v
		}
	})
}

func (f *Fake) SetPassword(_ context.Context, id, passwordHash string) error {
	return f.mutate(id, func(u *model.User) { u.PasswordHash = passwordHash })
}

func (f *Fake) SetActive(_ context.Context, id string, active bool) error {
	return f.mutate(id, func(u *model.User) { u.IsActive = active })
}

func (f *Fake) TouchLogin(_ context.Context, id string, at time.Time) error {
	return f.mutate(id, func(u *model.User) { u.LastLoginAt = &at })
}

func (f *Fake) mutate(id string, fn func(u *model.User)) error {
	if !primitive.IsValidObjectID(id) {
		return repository.ErrInvalidID
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(u)
	return nil
}

func (f *Fake) List(_ context.Context, filter model.UserFilter, limit int, offset int64) ([]*model.User, error) {
	matched := f.matching(filter)
	if offset >= int64(len(matched)) {
		return []*model.User{}, nil
	}
	end := min(int(offset)+limit, len(matched))
	return matched[offset:end], nil
}

func (f *Fake) Count(_ context.Context, filter model.UserFilter) (int64, error) {
	return int64(len(f.matching(filter))), nil
}

func (f *Fake) CountByRole(_ context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int64{}
	for _, u := range f.users {
		out[u.Role]++
	}
	return out, nil
}

func (f *Fake) matching(filter model.UserFilter) []*model.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*model.User, 0, len(f.users))
	for _, u := range f.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ repository.UserRepository = (*Fake)(nil)
