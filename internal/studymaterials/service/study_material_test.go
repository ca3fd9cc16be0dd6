package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tutorhub/internal/currenttutors/repository/currenttutorstest"
	"tutorhub/internal/studymaterials/repository/studymaterialstest"
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

func newIdentity(role string) auth.Identity {
	return auth.Identity{UserID: primitive.NewObjectID().Hex(), Role: role}
}

type fixture struct {
	svc     StudyMaterialService
	rels    *currenttutorstest.Fake
	tutor   auth.Identity
	student auth.Identity
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		rels:    currenttutorstest.NewFake(),
		tutor:   newIdentity(model.RoleTutor),
		student: newIdentity(model.RoleStudent),
	}
	key := model.RelationshipKey{StudentID: f.student.UserID, TutorID: f.tutor.UserID, Subject: "Mathematics"}
	require.NoError(t, f.rels.ApplyDelta(context.Background(), key, model.CounterDelta{Booked: 1, Activate: true}, time.Now()))

	log := logger.Nop()
	f.svc = NewStudyMaterialService(studymaterialstest.NewFake(), f.rels, validation.New(log), log)
	return f
}

func (f *fixture) create(t *testing.T, title string, public bool) *model.StudyMaterial {
	t.Helper()
	m, err := f.svc.Create(context.Background(), f.tutor, &model.StudyMaterialRequest{
		Title:    title,
		Subject:  "Mathematics",
		URL:      "docs.example.com/" + title,
		Type:     model.MaterialDocument,
		IsPublic: public,
	})
	require.NoError(t, err)
	return m
}

func TestCreateAndVisibility(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	public := f.create(t, "algebra", true)
	private := f.create(t, "calculus", false)
	assert.Equal(t, "https://docs.example.com/algebra", public.URL)
	assert.Empty(t, public.SharedWith)

	page, err := f.svc.ListMine(ctx, f.student, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1, "a related student sees public materials only")
	assert.Equal(t, public.ID, page.Items[0].ID)

	stranger := newIdentity(model.RoleStudent)
	page, err = f.svc.ListMine(ctx, stranger, 10, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	_, err = f.svc.Get(ctx, stranger, public.ID)
	require.NoError(t, err)
	_, err = f.svc.Get(ctx, f.student, private.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	shared, err := f.svc.Share(ctx, f.tutor, private.ID, &model.ShareRequest{StudentIDs: []string{f.student.UserID, " " + f.student.UserID}})
	require.NoError(t, err)
	assert.Equal(t, []string{f.student.UserID}, shared.SharedWith)

	_, err = f.svc.Get(ctx, f.student, private.ID)
	require.NoError(t, err)
	page, err = f.svc.ListMine(ctx, f.student, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)

	page, err = f.svc.ListMine(ctx, f.tutor, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.TotalCount)
}

func TestShare_RequiresRelationship(t *testing.T) {
	f := newFixture(t)
	m := f.create(t, "geometry", false)

	_, err := f.svc.Share(context.Background(), f.tutor, m.ID, &model.ShareRequest{StudentIDs: []string{primitive.NewObjectID().Hex()}})
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))

	_, err = f.svc.Share(context.Background(), f.tutor, m.ID, &model.ShareRequest{StudentIDs: []string{"bogus"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	other := newIdentity(model.RoleTutor)
	_, err = f.svc.Share(context.Background(), other, m.ID, &model.ShareRequest{StudentIDs: []string{f.student.UserID}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))
}

func TestUpdateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.create(t, "trigonometry", false)

	title := "  Trigonometry   basics "
	public := true
	updated, err := f.svc.Update(ctx, f.tutor, m.ID, &model.StudyMaterialUpdate{Title: &title, IsPublic: &public})
	require.NoError(t, err)
	assert.Equal(t, "Trigonometry basics", updated.Title)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, m.URL, updated.URL)

	badType := "podcast"
	_, err = f.svc.Update(ctx, f.tutor, m.ID, &model.StudyMaterialUpdate{Type: &badType})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	err = f.svc.Delete(ctx, newIdentity(model.RoleTutor), m.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, statusOf(err))

	require.NoError(t, f.svc.Delete(ctx, f.tutor, m.ID))
	_, err = f.svc.Get(ctx, f.tutor, m.ID)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, statusOf(err))
}
