package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tutorhub/internal/bookings/repository"
	"tutorhub/internal/bookings/repository/bookingstest"
	"tutorhub/internal/currenttutors/repository/currenttutorstest"
	"tutorhub/internal/events"
	"tutorhub/internal/events/eventstest"
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
	svc      *bookingService
	bookings *bookingstest.Fake
	locks    *bookingstest.Locks
	profiles *tutorstest.Fake
	rels     *currenttutorstest.Fake
	events   *eventstest.Recorder
	student  auth.Identity
	tutor    auth.Identity
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := userstest.NewFake()
	student := users.Add(&model.User{Name: "Sam", Email: "sam@example.com", Role: model.RoleStudent, IsActive: true})
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor, IsActive: true})

	profiles := tutorstest.NewFake()
	profiles.Add(&model.TutorProfile{UserID: tutor.ID, Subjects: []string{"Mathematics"}, Status: model.ProfileStatusApproved})

	f := &fixture{
		bookings: bookingstest.NewFake(),
		locks:    bookingstest.NewLocks(),
		profiles: profiles,
		rels:     currenttutorstest.NewFake(),
		events:   eventstest.NewRecorder(),
		student:  auth.Identity{UserID: student.ID, Role: model.RoleStudent},
		tutor:    auth.Identity{UserID: tutor.ID, Role: model.RoleTutor},
		now:      time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	log := logger.Nop()
	f.svc = NewBookingService(f.bookings, f.locks, profiles, f.rels, users,
		mongodb.NewDirectTransactionManager(), f.events, validation.New(log), log).(*bookingService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) request(start time.Time) *model.BookingRequest {
	return &model.BookingRequest{
		TutorID:         f.tutor.UserID,
		Subject:         " mathematics ",
		StartTime:       start,
		DurationMinutes: 60,
		Message:         "Algebra revision",
	}
}

func (f *fixture) key() model.RelationshipKey {
	return model.RelationshipKey{StudentID: f.student.UserID, TutorID: f.tutor.UserID, Subject: "Mathematics"}
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := f.now.Add(24 * time.Hour)

	view, err := f.svc.Create(ctx, f.student, f.request(start))
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, view.Status)
	assert.Equal(t, "Mathematics", view.Subject)
	assert.Equal(t, start.Add(time.Hour), view.EndTime)
	assert.Equal(t, "Tess", view.Tutor.Name)
	assert.Equal(t, []string{events.TypeBookingCreated}, f.events.Types())

	_, err = f.svc.Create(ctx, f.student, f.request(start.Add(30*time.Minute)))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	_, err = f.svc.Create(ctx, f.student, f.request(start.Add(time.Hour)))
	require.NoError(t, err, "back to back sessions do not overlap")
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *fixture, req *model.BookingRequest)
		status int
	}{
		{"past start", func(f *fixture, req *model.BookingRequest) { req.StartTime = f.now.Add(-time.Hour) }, http.StatusBadRequest},
		{"unknown subject", func(_ *fixture, req *model.BookingRequest) { req.Subject = "Chemistry" }, http.StatusBadRequest},
		{"too short", func(_ *fixture, req *model.BookingRequest) { req.DurationMinutes = 5 }, http.StatusUnprocessableEntity},
		{"unknown tutor", func(_ *fixture, req *model.BookingRequest) { req.TutorID = primitive.NewObjectID().Hex() }, http.StatusNotFound},
		{"tutor not approved", func(f *fixture, _ *model.BookingRequest) {
			p := f.profiles.ByUser(f.tutor.UserID)
			p.Status = model.ProfileStatusPending
			f.profiles.Add(p)
		}, http.StatusBadRequest},
		{"calendar locked", func(f *fixture, _ *model.BookingRequest) {
			_, err := f.locks.Acquire(context.Background(), "tutor:"+f.tutor.UserID, time.Minute)
			require.NoError(t, err)
		}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request(f.now.Add(24 * time.Hour))
			tt.mutate(f, req)

			_, err := f.svc.Create(context.Background(), f.student, req)
			require.Error(t, err)
			assert.Equal(t, tt.status, statusOf(err))
			assert.Empty(t, f.events.Events())
		})
	}
}

func TestCreate_ReleasesLock(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Create(context.Background(), f.student, f.request(f.now.Add(24*time.Hour)))
	require.NoError(t, err)

	_, err = f.locks.Acquire(context.Background(), "tutor:"+f.tutor.UserID, time.Minute)
	require.NoError(t, err)
}

// expiringLocks hands out a lock that expires at once and is taken over by
// another holder before the caller gets to release it.
type expiringLocks struct {
	*bookingstest.Locks
	takeover string
}

func (l *expiringLocks) Acquire(ctx context.Context, id string, _ time.Duration) (string, error) {
	owner, err := l.Locks.Acquire(ctx, id, 0)
	if err != nil {
		return "", err
	}
	l.takeover, err = l.Locks.Acquire(ctx, id, time.Minute)
	if err != nil {
		return "", err
	}
	return owner, nil
}

func TestCreate_KeepsLockTakenOverByAnotherRequest(t *testing.T) {
	f := newFixture(t)
	locks := &expiringLocks{Locks: f.locks}
	f.svc.locks = locks

	_, err := f.svc.Create(context.Background(), f.student, f.request(f.now.Add(24*time.Hour)))
	require.NoError(t, err)
	require.NotEmpty(t, locks.takeover)

	_, err = f.locks.Acquire(context.Background(), "tutor:"+f.tutor.UserID, time.Minute)
	assert.ErrorIs(t, err, repository.ErrLocked, "a stale holder must not release the current lock")

	require.NoError(t, f.locks.Release(context.Background(), "tutor:"+f.tutor.UserID, locks.takeover))
	_, err = f.locks.Acquire(context.Background(), "tutor:"+f.tutor.UserID, time.Minute)
	require.NoError(t, err)
}

func TestLifecycle_ApproveThenComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start := f.now.Add(24 * time.Hour)

	created, err := f.svc.Create(ctx, f.student, f.request(start))
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, f.student, created.ID, &model.BookingApproval{})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	approved, err := f.svc.Approve(ctx, f.tutor, created.ID, &model.BookingApproval{MeetingLink: "https://meet.example.com/abc"})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusApproved, approved.Status)
	assert.Equal(t, "https://meet.example.com/abc", approved.MeetingLink)
	require.NotNil(t, approved.ApprovedAt)

	rel := f.rels.Get(f.key())
	require.NotNil(t, rel)
	assert.Equal(t, 1, rel.TotalSessionsBooked)
	assert.Equal(t, model.RelationshipActive, rel.Status)
	require.NotNil(t, rel.NextSessionAt)
	assert.True(t, rel.NextSessionAt.Equal(start))

	_, err = f.svc.Approve(ctx, f.tutor, created.ID, &model.BookingApproval{})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))
	assert.Equal(t, 1, f.rels.Get(f.key()).TotalSessionsBooked)

	_, err = f.svc.Complete(ctx, f.tutor, created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	f.now = start.Add(2 * time.Hour)
	completed, err := f.svc.Complete(ctx, f.tutor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, completed.Status)

	rel = f.rels.Get(f.key())
	assert.Equal(t, 1, rel.TotalSessionsCompleted)
	require.NotNil(t, rel.LastSessionAt)
	assert.True(t, rel.LastSessionAt.Equal(start))
	assert.Nil(t, rel.NextSessionAt)

	_, err = f.svc.Cancel(ctx, f.student, created.ID, &model.BookingReason{})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	assert.Equal(t, []string{
		events.TypeBookingCreated,
		events.TypeBookingApproved,
		events.TypeBookingCompleted,
	}, f.events.Types())
}

func TestCancel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pending, err := f.svc.Create(ctx, f.student, f.request(f.now.Add(24*time.Hour)))
	require.NoError(t, err)
	cancelled, err := f.svc.Cancel(ctx, f.student, pending.ID, &model.BookingReason{Reason: "  Clash with exams "})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, cancelled.Status)
	assert.Equal(t, "Clash with exams", cancelled.CancellationReason)
	assert.Equal(t, f.student.UserID, cancelled.CancelledBy)
	assert.Nil(t, f.rels.Get(f.key()), "cancelling a pending booking leaves no relationship")

	approved, err := f.svc.Create(ctx, f.student, f.request(f.now.Add(48*time.Hour)))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.tutor, approved.ID, &model.BookingApproval{})
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, f.tutor, approved.ID, &model.BookingReason{})
	require.NoError(t, err)

	rel := f.rels.Get(f.key())
	require.NotNil(t, rel)
	assert.Equal(t, 1, rel.TotalSessionsBooked)
	assert.Equal(t, 1, rel.TotalSessionsCancelled)
	assert.Nil(t, rel.NextSessionAt)

	_, err = f.svc.Cancel(ctx, f.tutor, approved.ID, &model.BookingReason{})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, f.student, f.request(f.now.Add(24*time.Hour)))
	require.NoError(t, err)

	rejected, err := f.svc.Reject(ctx, f.tutor, created.ID, &model.BookingReason{Reason: "Fully booked"})
	require.NoError(t, err)
	assert.Equal(t, "Fully booked", rejected.RejectionReason)
	assert.Nil(t, f.rels.Get(f.key()))

	_, err = f.svc.Approve(ctx, f.tutor, created.ID, &model.BookingApproval{})
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, statusOf(err))

	// the slot is free again once the booking is no longer active
	_, err = f.svc.Create(ctx, f.student, f.request(f.now.Add(24*time.Hour)))
	require.NoError(t, err)
}

func TestGet_Access(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, f.student, f.request(f.now.Add(24*time.Hour)))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.tutor, created.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleAdmin}, created.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleStudent}, created.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.svc.Get(ctx, f.tutor, "nope")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.Get(ctx, f.tutor, primitive.NewObjectID().Hex())
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first, err := f.svc.Create(ctx, f.student, f.request(f.now.Add(24*time.Hour)))
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, f.student, f.request(f.now.Add(48*time.Hour)))
	require.NoError(t, err)
	_, err = f.svc.Approve(ctx, f.tutor, first.ID, &model.BookingApproval{})
	require.NoError(t, err)

	page, err := f.svc.ListMine(ctx, f.tutor, "", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)

	page, err = f.svc.ListMine(ctx, f.student, model.BookingStatusApproved, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)

	_, err = f.svc.ListMine(ctx, f.student, "archived", 10, 0)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestRelationshipDelta(t *testing.T) {
	start := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	pending := &model.Booking{Status: model.BookingStatusPending, StartTime: start}
	approved := &model.Booking{Status: model.BookingStatusApproved, StartTime: start}

	_, ok := relationshipDelta(pending, model.BookingStatusRejected)
	assert.False(t, ok)
	_, ok = relationshipDelta(pending, model.BookingStatusCancelled)
	assert.False(t, ok)

	d, ok := relationshipDelta(approved, model.BookingStatusCancelled)
	assert.True(t, ok)
	assert.Equal(t, 1, d.Cancelled)

	d, ok = relationshipDelta(pending, model.BookingStatusApproved)
	assert.True(t, ok)
	assert.Equal(t, 1, d.Booked)
	assert.True(t, d.Activate)
}
