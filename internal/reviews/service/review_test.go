package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tutorhub/internal/bookings/repository/bookingstest"
	"tutorhub/internal/events"
	"tutorhub/internal/events/eventstest"
	"tutorhub/internal/reviews/repository/reviewstest"
	"tutorhub/internal/tutors/repository/tutorstest"
	"tutorhub/internal/users/repository/userstest"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
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

type fixture struct {
	svc      ReviewService
	bookings *bookingstest.Fake
	profiles *tutorstest.Fake
	events   *eventstest.Recorder
	student  auth.Identity
	tutor    auth.Identity
}

func newFixture() *fixture {
	users := userstest.NewFake()
	student := users.Add(&model.User{Name: "Sam", Email: "sam@example.com", Role: model.RoleStudent, IsActive: true})
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor, IsActive: true})

	f := &fixture{
		bookings: bookingstest.NewFake(),
		profiles: tutorstest.NewFake(),
		events:   eventstest.NewRecorder(),
		student:  auth.Identity{UserID: student.ID, Role: model.RoleStudent},
		tutor:    auth.Identity{UserID: tutor.ID, Role: model.RoleTutor},
	}
	f.profiles.Add(&model.TutorProfile{UserID: tutor.ID, Status: model.ProfileStatusApproved})

	log := logger.Nop()
	f.svc = NewReviewService(reviewstest.NewFake(), f.bookings, f.profiles, users,
		mongodb.NewDirectTransactionManager(), f.events, validation.New(log), log)
	return f
}

func (f *fixture) booking(status string) *model.Booking {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return f.bookings.Add(&model.Booking{
		StudentID: f.student.UserID,
		TutorID:   f.tutor.UserID,
		Subject:   "Mathematics",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
	})
}

func TestCreate_UpdatesRating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: f.booking(model.BookingStatusCompleted).ID, Rating: 5, Comment: " Brilliant "})
	require.NoError(t, err)
	assert.Equal(t, "Brilliant", first.Comment)
	assert.Equal(t, "Sam", first.Student.Name)

	_, err = f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: f.booking(model.BookingStatusCompleted).ID, Rating: 4})
	require.NoError(t, err)

	profile := f.profiles.ByUser(f.tutor.UserID)
	assert.Equal(t, 9, profile.RatingSum)
	assert.Equal(t, 2, profile.RatingCount)
	assert.Equal(t, 4.5, profile.RatingAverage)
	assert.Equal(t, []string{events.TypeReviewCreated, events.TypeReviewCreated}, f.events.Types())
}

func TestCreate_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: f.booking(model.BookingStatusApproved).ID, Rating: 5})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	completed := f.booking(model.BookingStatusCompleted)
	_, err = f.svc.Create(ctx, auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleStudent},
		&model.ReviewRequest{BookingID: completed.ID, Rating: 5})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: completed.ID, Rating: 0})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	_, err = f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: completed.ID, Rating: 3})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: completed.ID, Rating: 1})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	profile := f.profiles.ByUser(f.tutor.UserID)
	assert.Equal(t, 1, profile.RatingCount, "the duplicate must not touch the aggregate")
	assert.Equal(t, 3, profile.RatingSum)
}

func TestDelete_ReversesRating(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	kept, err := f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: f.booking(model.BookingStatusCompleted).ID, Rating: 2})
	require.NoError(t, err)
	removed, err := f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: f.booking(model.BookingStatusCompleted).ID, Rating: 5})
	require.NoError(t, err)

	err = f.svc.Delete(ctx, f.tutor, removed.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	require.NoError(t, f.svc.Delete(ctx, f.student, removed.ID))
	profile := f.profiles.ByUser(f.tutor.UserID)
	assert.Equal(t, 1, profile.RatingCount)
	assert.Equal(t, 2.0, profile.RatingAverage)

	admin := auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleAdmin}
	require.NoError(t, f.svc.Delete(ctx, admin, kept.ID))
	profile = f.profiles.ByUser(f.tutor.UserID)
	assert.Equal(t, 0, profile.RatingCount)
	assert.Equal(t, 0.0, profile.RatingAverage)

	err = f.svc.Delete(ctx, admin, kept.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestListing(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, rating := range []int{3, 4, 5} {
		_, err := f.svc.Create(ctx, f.student, &model.ReviewRequest{BookingID: f.booking(model.BookingStatusCompleted).ID, Rating: rating})
		require.NoError(t, err)
	}

	page, err := f.svc.ListByTutor(ctx, f.tutor.UserID, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.TotalCount)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Sam", page.Items[0].Student.Name)

	page, err = f.svc.ListMine(ctx, f.student, 10, 0)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	_, err = f.svc.ListByTutor(ctx, "not-an-id", 10, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}
