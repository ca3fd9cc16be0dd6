package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"tutorhub/internal/tutors/repository/tutorstest"
	"tutorhub/internal/users/repository/userstest"
	"tutorhub/pkg/auth"
	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"
	"tutorhub/pkg/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReviews struct {
	reviews []*model.Review
}

func (s *stubReviews) ListByTutor(_ context.Context, tutorID string, limit int, _ int64) ([]*model.Review, error) {
	out := []*model.Review{}
	for _, r := range s.reviews {
		if r.TutorID == tutorID && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func statusOf(err error) int {
	return apperrors.AsAppError(err).StatusCode()
}

func validRequest() *model.TutorProfileRequest {
	return &model.TutorProfileRequest{
		Headline:        "Patient maths tutor",
		Bio:             "Ten years of helping students enjoy algebra and calculus.",
		Subjects:        []string{" Mathematics ", "physics", "mathematics"},
		HourlyRate:      40,
		ExperienceYears: 10,
		Languages:       []string{"English"},
		Availability: []model.AvailabilitySlot{
			{Day: "Monday", StartTime: "09:00", EndTime: "12:00"},
		},
	}
}

func newService(users *userstest.Fake, profiles *tutorstest.Fake, reviews *stubReviews) TutorService {
	log := logger.Nop()
	return NewTutorService(profiles, users, reviews, validation.New(log), log)
}

func TestSaveOwn_CreateAndResubmit(t *testing.T) {
	users := userstest.NewFake()
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor, Phone: "+442079460000", IsActive: true})
	profiles := tutorstest.NewFake()
	svc := newService(users, profiles, &stubReviews{})
	caller := auth.Identity{UserID: tutor.ID, Role: model.RoleTutor}
	ctx := context.Background()

	profile, created, err := svc.SaveOwn(ctx, caller, validRequest())
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.ProfileStatusPending, profile.Status)
	assert.Equal(t, "Europe/London", profile.TimeZone)
	assert.Equal(t, []string{"Mathematics", "physics"}, profile.Subjects)
	assert.Equal(t, "monday", profile.Availability[0].Day)

	stored := profiles.ByUser(tutor.ID)
	stored.Status = model.ProfileStatusRejected
	stored.RejectionReason = "bio too short"
	profiles.Add(stored)

	profile, created, err = svc.SaveOwn(ctx, caller, validRequest())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.ProfileStatusPending, profile.Status, "editing a rejected profile resubmits it")
	assert.Empty(t, profile.RejectionReason)

	stored = profiles.ByUser(tutor.ID)
	stored.Status = model.ProfileStatusApproved
	profiles.Add(stored)

	profile, _, err = svc.SaveOwn(ctx, caller, validRequest())
	require.NoError(t, err)
	assert.Equal(t, model.ProfileStatusApproved, profile.Status, "approved profiles stay approved")
}

func TestSaveOwn_Validation(t *testing.T) {
	users := userstest.NewFake()
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor})
	svc := newService(users, tutorstest.NewFake(), &stubReviews{})
	caller := auth.Identity{UserID: tutor.ID, Role: model.RoleTutor}

	req := validRequest()
	req.Availability[0].EndTime = "08:00"
	_, _, err := svc.SaveOwn(context.Background(), caller, req)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	req = validRequest()
	req.Availability[0].StartTime = "9am"
	_, _, err = svc.SaveOwn(context.Background(), caller, req)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))

	req = validRequest()
	req.Subjects = nil
	_, _, err = svc.SaveOwn(context.Background(), caller, req)
	assert.Equal(t, http.StatusUnprocessableEntity, statusOf(err))
}

func TestGetApproved(t *testing.T) {
	users := userstest.NewFake()
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor})
	student := users.Add(&model.User{Name: "Sam", Email: "sam@example.com", Role: model.RoleStudent})
	profiles := tutorstest.NewFake()
	approved := profiles.Add(&model.TutorProfile{UserID: tutor.ID, Status: model.ProfileStatusApproved})
	pending := profiles.Add(&model.TutorProfile{UserID: student.ID, Status: model.ProfileStatusPending})
	reviews := &stubReviews{reviews: []*model.Review{{ID: "r1", TutorID: tutor.ID, StudentID: student.ID, Rating: 5}}}
	svc := newService(users, profiles, reviews)

	view, err := svc.GetApproved(context.Background(), approved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Tess", view.Tutor.Name)
	require.Len(t, view.Reviews, 1)
	assert.Equal(t, "Sam", view.Reviews[0].Student.Name)

	_, err = svc.GetApproved(context.Background(), pending.ID)
	assert.Equal(t, http.StatusNotFound, statusOf(err))

	_, err = svc.GetApproved(context.Background(), "not-an-id")
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}

func TestList_FiltersAndSort(t *testing.T) {
	users := userstest.NewFake()
	profiles := tutorstest.NewFake()
	now := time.Now()
	for i, p := range []model.TutorProfile{
		{Subjects: []string{"Maths"}, HourlyRate: 50, RatingAverage: 4.9, Status: model.ProfileStatusApproved, CreatedAt: now},
		{Subjects: []string{"maths", "Physics"}, HourlyRate: 20, RatingAverage: 4.1, Status: model.ProfileStatusApproved, CreatedAt: now.Add(time.Hour)},
		{Subjects: []string{"Chemistry"}, HourlyRate: 30, RatingAverage: 3.5, Status: model.ProfileStatusApproved, CreatedAt: now},
		{Subjects: []string{"Maths"}, HourlyRate: 10, RatingAverage: 5, Status: model.ProfileStatusPending, CreatedAt: now},
	} {
		p := p
		u := users.Add(&model.User{Name: "Tutor " + string(rune('A'+i)), Role: model.RoleTutor})
		p.UserID = u.ID
		profiles.Add(&p)
	}
	svc := newService(users, profiles, &stubReviews{})

	page, err := svc.List(context.Background(), model.TutorFilter{Subject: "MATHS"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(2), page.TotalCount)
	assert.Equal(t, 4.9, page.Items[0].RatingAverage)
	assert.NotNil(t, page.Items[0].Tutor)

	maxRate := 25.0
	page, err = svc.List(context.Background(), model.TutorFilter{MaxRate: &maxRate, Sort: model.TutorSortRateAsc}, 10, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 20.0, page.Items[0].HourlyRate)

	_, err = svc.List(context.Background(), model.TutorFilter{Sort: "popularity"}, 10, 0)
	assert.Equal(t, http.StatusBadRequest, statusOf(err))
}
