package repository_test

import (
	"context"
	"testing"
	"time"

	"tutorhub/internal/users/repository"
	"tutorhub/internal/users/repository/userstest"
	"tutorhub/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestActiveCache(t *testing.T) {
	ctx := context.Background()
	users := userstest.NewFake()
	u := users.Add(&model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleStudent, IsActive: true})
	cache := repository.NewActiveCache(users, time.Minute)

	active, err := cache.IsActive(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, active)

	// writes that bypass the cache are seen once the entry expires
	require.NoError(t, users.SetActive(ctx, u.ID, false))
	active, err = cache.IsActive(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, cache.SetActive(ctx, u.ID, false))
	active, err = cache.IsActive(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, active)

	active, err = cache.IsActive(ctx, primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.False(t, active, "unknown accounts are not active")

	active, err = cache.IsActive(ctx, "not-an-id")
	require.NoError(t, err)
	assert.False(t, active)
}

func TestActiveCache_ZeroTTLAlwaysReads(t *testing.T) {
	ctx := context.Background()
	users := userstest.NewFake()
	u := users.Add(&model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleTutor, IsActive: true})
	cache := repository.NewActiveCache(users, 0)

	active, err := cache.IsActive(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, users.SetActive(ctx, u.ID, false))
	active, err = cache.IsActive(ctx, u.ID)
	require.NoError(t, err)
	assert.False(t, active)
}
