package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tutorhub/internal/attendance/repository/attendancetest"
	"tutorhub/internal/bookings/repository/bookingstest"
	"tutorhub/internal/currenttutors/repository/currenttutorstest"
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

var now = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc      AttendanceService
	bookings *bookingstest.Fake
	rels     *currenttutorstest.Fake
	student  auth.Identity
	tutor    auth.Identity
}

func newFixture() *fixture {
	f := &fixture{
		bookings: bookingstest.NewFake(),
		rels:     currenttutorstest.NewFake(),
		student:  auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleStudent},
		tutor:    auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleTutor},
	}
	log := logger.Nop()
	records := attendancetest.NewFake()
	svc := NewAttendanceService(records, f.bookings, NewRecorder(records, f.rels),
		mongodb.NewDirectTransactionManager(), validation.New(log), log).(*attendanceService)
	svc.now = func() time.Time { return now }
	f.svc = svc
	return f
}

func (f *fixture) booking(status string, start time.Time) *model.Booking {
	return f.bookings.Add(&model.Booking{
		StudentID: f.student.UserID,
		TutorID:   f.tutor.UserID,
		Subject:   "Mathematics",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Status:    status,
	})
}

func (f *fixture) key() model.RelationshipKey {
	return model.RelationshipKey{StudentID: f.student.UserID, TutorID: f.tutor.UserID, Subject: "Mathematics"}
}

func TestMark_MovesCountersBetweenBuckets(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.booking(model.BookingStatusApproved, now.Add(-2*time.Hour))

	mark := func(status string) *model.Attendance {
		t.Helper()
		record, err := f.svc.Mark(ctx, f.tutor, &model.AttendanceRequest{BookingID: b.ID, Status: status})
		require.NoError(t, err)
		return record
	}

	record := mark(model.AttendancePresent)
	assert.Equal(t, model.AttendancePresent, record.Status)
	assert.Equal(t, f.tutor.UserID, record.MarkedBy)
	assert.True(t, record.SessionDate.Equal(b.StartTime))
	rel := f.rels.Get(f.key())
	require.NotNil(t, rel)
	assert.Equal(t, 1, rel.TotalSessionsAttended)

	mark(model.AttendanceLate)
	assert.Equal(t, 1, f.rels.Get(f.key()).TotalSessionsAttended, "present to late stays attended")

	mark(model.AttendanceAbsent)
	rel = f.rels.Get(f.key())
	assert.Equal(t, 0, rel.TotalSessionsAttended)
	assert.Equal(t, 1, rel.TotalSessionsMissed)

	mark(model.AttendanceExcused)
	mark(model.AttendanceExcused)
	rel = f.rels.Get(f.key())
	assert.Equal(t, 0, rel.TotalSessionsAttended)
	assert.Equal(t, 0, rel.TotalSessionsMissed)
}

func TestMark_Rejections(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	past := f.booking(model.BookingStatusApproved, now.Add(-time.Hour))
	_, err := f.svc.Mark(ctx, f.student, &model.AttendanceRequest{BookingID: past.ID, Status: model.AttendancePresent})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	pending := f.booking(model.BookingStatusPending, now.Add(-time.Hour))
	_, err = f.svc.Mark(ctx, f.tutor, &model.AttendanceRequest{BookingID: pending.ID, Status: model.AttendancePresent})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	future := f.booking(model.BookingStatusApproved, now.Add(time.Hour))
	_, err = f.svc.Mark(ctx, f.tutor, &model.AttendanceRequest{BookingID: future.ID, Status: model.AttendancePresent})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.Mark(ctx, f.tutor, &model.AttendanceRequest{BookingID: past.ID, Status: "asleep"})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	_, err = f.svc.Mark(ctx, f.tutor, &model.AttendanceRequest{BookingID: primitive.NewObjectID().Hex(), Status: model.AttendancePresent})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	assert.Nil(t, f.rels.Get(f.key()))
}

func TestGetByBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	b := f.booking(model.BookingStatusCompleted, now.Add(-time.Hour))

	_, err := f.svc.GetByBooking(ctx, f.student, b.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = f.svc.Mark(ctx, f.tutor, &model.AttendanceRequest{BookingID: b.ID, Status: model.AttendancePresent, Notes: " on time "})
	require.NoError(t, err)

	record, err := f.svc.GetByBooking(ctx, f.student, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "on time", record.Notes)

	outsider := auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: model.RoleStudent}
	_, err = f.svc.GetByBooking(ctx, outsider, b.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))
}

func TestSummaryAndList(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for _, status := range []string{model.AttendancePresent, model.AttendanceLate, model.AttendanceAbsent, model.AttendanceExcused} {
		b := f.booking(model.BookingStatusApproved, now.Add(-time.Hour))
		_, err := f.svc.Mark(ctx, f.tutor, &model.AttendanceRequest{BookingID: b.ID, Status: status})
		require.NoError(t, err)
	}

	summary, err := f.svc.Summary(ctx, f.student, "", primitive.NewObjectID().Hex())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Total, "a student asking about another tutor sees nothing")

	summary, err = f.svc.Summary(ctx, f.student, "someone-else", f.tutor.UserID)
	require.NoError(t, err)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.Excused)
	assert.InDelta(t, 66.67, summary.AttendanceRate, 0.001)

	page, err := f.svc.ListMine(ctx, f.tutor, "mathematics", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.TotalCount)
	assert.Len(t, page.Items, 2)

	page, err = f.svc.ListMine(ctx, f.student, "Physics", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), page.TotalCount)
}
