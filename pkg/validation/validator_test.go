package validation

import (
	"net/http"
	"testing"
	"time"

	apperrors "tutorhub/pkg/errors"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newValidator() *Validator {
	return New(logger.Nop())
}

func TestStruct_UsesJSONFieldNames(t *testing.T) {
	v := newValidator()

	err := v.Struct(&model.RegisterRequest{Name: "A", Email: "not-an-email", Password: "short", Role: "admin"})
	require.Error(t, err)

	appErr := apperrors.AsAppError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.StatusCode())
	assert.Contains(t, appErr.Details, "name")
	assert.Contains(t, appErr.Details, "email")
	assert.Contains(t, appErr.Details, "password")
	assert.Contains(t, appErr.Details, "role")
	assert.Equal(t, "email must be a valid email address", appErr.Details["email"])
}

func TestStruct_Valid(t *testing.T) {
	v := newValidator()

	err := v.Struct(&model.BookingRequest{
		TutorID:         "507f1f77bcf86cd799439011",
		Subject:         "Math",
		StartTime:       time.Now().Add(24 * time.Hour),
		DurationMinutes: 60,
	})
	assert.NoError(t, err)
}

func TestStruct_BookingDurationBounds(t *testing.T) {
	v := newValidator()
	base := model.BookingRequest{
		TutorID:   "507f1f77bcf86cd799439011",
		Subject:   "Math",
		StartTime: time.Now().Add(time.Hour),
	}

	for _, minutes := range []int{14, 481} {
		req := base
		req.DurationMinutes = minutes
		err := v.Struct(&req)
		require.Error(t, err, "duration %d", minutes)
		assert.Contains(t, apperrors.AsAppError(err).Details, "duration_minutes")
	}
	for _, minutes := range []int{15, 480} {
		req := base
		req.DurationMinutes = minutes
		assert.NoError(t, v.Struct(&req), "duration %d", minutes)
	}
}

func TestStruct_HHMM(t *testing.T) {
	v := newValidator()

	req := &model.TutorProfileRequest{
		Headline:   "Algebra tutor",
		Bio:        "Ten years of teaching algebra to teenagers.",
		Subjects:   []string{"Math"},
		HourlyRate: 40,
		Availability: []model.AvailabilitySlot{
			{Day: "monday", StartTime: "09:00", EndTime: "25:00"},
		},
	}
	err := v.Struct(req)
	require.Error(t, err)
	details := apperrors.AsAppError(err).Details
	assert.Equal(t, "end_time must be a time in HH:MM format", details["availability[0].end_time"])

	req.Availability[0].EndTime = "17:30"
	assert.NoError(t, v.Struct(req))
}

func TestStruct_ObjectIDList(t *testing.T) {
	v := newValidator()

	err := v.Struct(&model.ShareRequest{StudentIDs: []string{"507f1f77bcf86cd799439011", "nope"}})
	require.Error(t, err)
	assert.Equal(t, "student_ids must contain valid ids", apperrors.AsAppError(err).Details["student_ids"])

	assert.NoError(t, v.Struct(&model.ShareRequest{StudentIDs: []string{"507f1f77bcf86cd799439011"}}))
}

func TestStruct_NestedFeedback(t *testing.T) {
	v := newValidator()

	err := v.Struct(&model.SessionFeedbackRequest{
		BookingID:     "507f1f77bcf86cd799439011",
		TutorFeedback: model.TutorFeedback{Summary: "short", EngagementRating: 9},
	})
	require.Error(t, err)
	details := apperrors.AsAppError(err).Details
	assert.Contains(t, details, "tutor_feedback.summary")
	assert.Contains(t, details, "tutor_feedback.engagement_rating")
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{{Field: "email", Message: "email is required"}}
	assert.Equal(t, "validation failed: 1 error(s): [email: email is required]", errs.Error())
	assert.Equal(t, "", ValidationErrors{}.Error())
}
