package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	mongodb "tutorhub/pkg/db/mongo"
)

const activeCacheSweepSize = 10000

type activeEntry struct {
	active  bool
	expires time.Time
}

// ActiveCache answers whether an account may use the API, remembering the
// answer for ttl. SetActive through the cache drops the cached entry, so a
// deactivation made in this process applies to the next request.
type ActiveCache struct {
	UserRepository

	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]activeEntry
}

func NewActiveCache(repo UserRepository, ttl time.Duration) *ActiveCache {
	return &ActiveCache{
		UserRepository: repo,
		ttl:            ttl,
		now:            mongodb.Now,
		entries:        make(map[string]activeEntry),
	}
}

// IsActive reports false for deactivated and for unknown accounts.
func (c *ActiveCache) IsActive(ctx context.Context, userID string) (bool, error) {
	now := c.now()

	c.mu.Lock()
	entry, ok := c.entries[userID]
	c.mu.Unlock()
	if ok && now.Before(entry.expires) {
		return entry.active, nil
	}

	user, err := c.UserRepository.FindByID(ctx, userID)
	var active bool
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidID):
	case err != nil:
		return false, err
	default:
		active = user.IsActive
	}

	if c.ttl > 0 {
		c.mu.Lock()
		if len(c.entries) >= activeCacheSweepSize {
			for id, e := range c.entries {
				if !now.Before(e.expires) {
					delete(c.entries, id)
				}
			}
		}
		c.entries[userID] = activeEntry{active: active, expires: now.Add(c.ttl)}
		c.mu.Unlock()
	}
	return active, nil
}

func (c *ActiveCache) SetActive(ctx context.Context, id string, active bool) error {
	err := c.UserRepository.SetActive(ctx, id, active)
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	return err
}
