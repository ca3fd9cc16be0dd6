package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tutorhub/internal/currenttutors/repository/currenttutorstest"
	"tutorhub/internal/progressreports/repository/progressreportstest"
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

type fixture struct {
	svc     ProgressReportService
	student auth.Identity
	tutor   auth.Identity
	other   auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	users := userstest.NewFake()
	student := users.Add(&model.User{Name: "Sam", Email: "sam@example.com", Role: model.RoleStudent, IsActive: true})
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor, IsActive: true})
	other := users.Add(&model.User{Name: "Otto", Email: "otto@example.com", Role: model.RoleTutor, IsActive: true})

	relationships := currenttutorstest.NewFake()
	key := model.RelationshipKey{StudentID: student.ID, TutorID: tutor.ID, Subject: "Mathematics"}
	ctx := context.Background()
	require.NoError(t, relationships.ApplyDelta(ctx, key, model.CounterDelta{Booked: 5, Completed: 4, Activate: true}, time.Now()))
	require.NoError(t, relationships.ApplyDelta(ctx, key, model.CounterDelta{Attended: 3, Missed: 1}, time.Now()))

	log := logger.Nop()
	return &fixture{
		svc:     NewProgressReportService(progressreportstest.NewFake(), relationships, users, validation.New(log), log),
		student: auth.Identity{UserID: student.ID, Role: model.RoleStudent},
		tutor:   auth.Identity{UserID: tutor.ID, Role: model.RoleTutor},
		other:   auth.Identity{UserID: other.ID, Role: model.RoleTutor},
	}
}

func (f *fixture) request() *model.ProgressReportRequest {
	return &model.ProgressReportRequest{
		StudentID:      f.student.UserID,
		Subject:        "mathematics",
		PeriodStart:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		ProgressRating: 4,
		Strengths:      "  Algebra ",
		Goals:          []string{"Fractions", " fractions ", "", "Geometry"},
	}
}

func TestCreate_SnapshotsCounters(t *testing.T) {
	f := newFixture(t)

	report, err := f.svc.Create(context.Background(), f.tutor, f.request())
	require.NoError(t, err)

	assert.Equal(t, "Mathematics", report.Subject)
	assert.Equal(t, "Algebra", report.Strengths)
	assert.Equal(t, []string{"Fractions", "Geometry"}, report.Goals)
	assert.Equal(t, 4, report.SessionsCompleted)
	assert.Equal(t, 3, report.SessionsAttended)
	require.NotNil(t, report.Student)
	assert.Equal(t, "Sam", report.Student.Name)
	require.NotNil(t, report.Tutor)
	assert.Equal(t, "Tess", report.Tutor.Name)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		caller func(f *fixture) auth.Identity
		mutate func(req *model.ProgressReportRequest)
		status int
	}{
		{
			name:   "no relationship",
			caller: func(f *fixture) auth.Identity { return f.other },
			mutate: func(*model.ProgressReportRequest) {},
			status: http.StatusBadRequest,
		},
		{
			name:   "different subject",
			caller: func(f *fixture) auth.Identity { return f.tutor },
			mutate: func(req *model.ProgressReportRequest) { req.Subject = "Physics" },
			status: http.StatusBadRequest,
		},
		{
			name:   "period ends before it starts",
			caller: func(f *fixture) auth.Identity { return f.tutor },
			mutate: func(req *model.ProgressReportRequest) { req.PeriodEnd = req.PeriodStart.Add(-time.Hour) },
			status: http.StatusUnprocessableEntity,
		},
		{
			name:   "rating out of range",
			caller: func(f *fixture) auth.Identity { return f.tutor },
			mutate: func(req *model.ProgressReportRequest) { req.ProgressRating = 6 },
			status: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := f.request()
			tt.mutate(req)

			_, err := f.svc.Create(context.Background(), tt.caller(f), req)
			require.Error(t, err)
			assert.Equal(t, tt.status, statusOf(err))
		})
	}
}

func TestAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.tutor, f.request())
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.student, report.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleAdmin}, report.ID)
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, f.other, report.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	_, err = f.svc.Get(ctx, f.tutor, primitive.NewObjectID().Hex())
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = f.svc.Get(ctx, f.tutor, "nope")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, f.tutor, f.request())
	require.NoError(t, err)

	for _, caller := range []auth.Identity{f.student, f.tutor} {
		page, err := f.svc.ListMine(ctx, caller, 10, 0)
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.TotalCount)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Sam", page.Items[0].Student.Name)
	}

	page, err := f.svc.ListMine(ctx, f.other, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestUpdateAndDelete_AuthorOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	report, err := f.svc.Create(ctx, f.tutor, f.request())
	require.NoError(t, err)

	rating := 5
	comments := " Great month "
	_, err = f.svc.Update(ctx, f.other, report.ID, &model.ProgressReportUpdate{ProgressRating: &rating})
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	updated, err := f.svc.Update(ctx, f.tutor, report.ID, &model.ProgressReportUpdate{ProgressRating: &rating, Comments: &comments})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.ProgressRating)
	assert.Equal(t, "Great month", updated.Comments)
	assert.Equal(t, "Algebra", updated.Strengths)
	assert.Equal(t, 4, updated.SessionsCompleted)

	err = f.svc.Delete(ctx, f.student, report.ID)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	require.NoError(t, f.svc.Delete(ctx, f.tutor, report.ID))
	_, err = f.svc.Get(ctx, f.tutor, report.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}
