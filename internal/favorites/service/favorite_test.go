package service

import (
	"context"
	"net/http"
	"testing"

	"tutorhub/internal/favorites/repository/favoritestest"
	"tutorhub/internal/users/repository/userstest"
	"tutorhub/pkg/auth"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func statusOf(err error) int {
	return apperrors.AsAppError(err).StatusCode()
}

func TestFavorites(t *testing.T) {
	users := userstest.NewFake()
	student := users.Add(&model.User{Name: "Sam", Email: "sam@example.com", Role: model.RoleStudent, IsActive: true})
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor, IsActive: true})
	log := logger.Nop()
	svc := NewFavoriteService(favoritestest.NewFake(), users, validation.New(log), log)
	caller := auth.Identity{UserID: student.ID, Role: model.RoleStudent}
	ctx := context.Background()

	status, err := svc.Status(ctx, caller, tutor.ID)
	require.NoError(t, err)
	assert.False(t, status.Favorite)

	fav, err := svc.Add(ctx, caller, &model.FavoriteRequest{TutorID: tutor.ID})
	require.NoError(t, err)
	assert.Equal(t, "Tess", fav.Tutor.Name)

	_, err = svc.Add(ctx, caller, &model.FavoriteRequest{TutorID: tutor.ID})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	status, err = svc.Status(ctx, caller, tutor.ID)
	require.NoError(t, err)
	assert.True(t, status.Favorite)

	page, err := svc.ListMine(ctx, caller, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, tutor.ID, page.Items[0].Tutor.ID)

	require.NoError(t, svc.Remove(ctx, caller, tutor.ID))
	err = svc.Remove(ctx, caller, tutor.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestAdd_TutorMustExist(t *testing.T) {
	users := userstest.NewFake()
	other := users.Add(&model.User{Name: "Ola", Email: "ola@example.com", Role: model.RoleStudent, IsActive: true})
	log := logger.Nop()
	svc := NewFavoriteService(favoritestest.NewFake(), users, validation.New(log), log)
	caller := auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleStudent}

	tests := []struct {
		name    string
		tutorID string
		status  int
	}{
		{"unknown user", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"not a tutor", other.ID, http.StatusNotFound},
		{"malformed id", "abc", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), caller, &model.FavoriteRequest{TutorID: tt.tutorID})
			require.Error(t, err)
			assert.Equal(t, tt.status, statusOf(err))
		})
	}
}
