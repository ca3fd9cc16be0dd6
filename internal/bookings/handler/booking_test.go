package handler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutorhub/internal/bookings/repository/bookingstest"
	"tutorhub/internal/bookings/service"
	"tutorhub/internal/currenttutors/repository/currenttutorstest"
	"tutorhub/internal/events/eventstest"
	"tutorhub/internal/tutors/repository/tutorstest"
	"tutorhub/internal/users/repository"
	"tutorhub/internal/users/repository/userstest"
	"tutorhub/pkg/auth"
	mongodb "tutorhub/pkg/db/mongo"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"
	"tutorhub/pkg/validation"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingRoutes_Roles(t *testing.T) {
	log := logger.Nop()
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)

	users := userstest.NewFake()
	student := users.Add(&model.User{Name: "Sam", Email: "sam@example.com", Role: model.RoleStudent, IsActive: true})
	tutor := users.Add(&model.User{Name: "Tess", Email: "tess@example.com", Role: model.RoleTutor, IsActive: true})
	accounts := repository.NewActiveCache(users, time.Minute)

	profiles := tutorstest.NewFake()
	profiles.Add(&model.TutorProfile{UserID: tutor.ID, Subjects: []string{"Mathematics"}, Status: model.ProfileStatusApproved})

	bookings := bookingstest.NewFake()
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Minute)
	pending := bookings.Add(&model.Booking{
		StudentID:       student.ID,
		TutorID:         tutor.ID,
		Subject:         "Mathematics",
		StartTime:       start.Add(24 * time.Hour),
		EndTime:         start.Add(25 * time.Hour),
		DurationMinutes: 60,
		Status:          model.BookingStatusPending,
	})

	svc := service.NewBookingService(bookings, bookingstest.NewLocks(), profiles, currenttutorstest.NewFake(), accounts,
		mongodb.NewDirectTransactionManager(), eventstest.NewRecorder(), validation.New(log), log)
	router := httprouter.New()
	NewBookingHandler(svc, middleware.NewAuthenticator(tokens, accounts, log), log).RegisterRoutes(router)

	token := func(id, role string) string {
		tok, _, err := tokens.Issue(id, role)
		require.NoError(t, err)
		return tok
	}
	createBody := fmt.Sprintf(`{"tutor_id":%q,"subject":"mathematics","start_time":%q,"duration_minutes":60}`,
		tutor.ID, start.Format(time.RFC3339))
	approvePath := basePath + "/id/" + pending.ID + "/approve"

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		token  string
		status int
	}{
		{"anonymous cannot book", http.MethodPost, basePath, createBody, "", http.StatusUnauthorized},
		{"tutor cannot book", http.MethodPost, basePath, createBody, token(tutor.ID, model.RoleTutor), http.StatusForbidden},
		{"admin cannot book", http.MethodPost, basePath, createBody, token(student.ID, model.RoleAdmin), http.StatusForbidden},
		{"student cannot approve", http.MethodPatch, approvePath, "", token(student.ID, model.RoleStudent), http.StatusForbidden},
		{"student cannot complete", http.MethodPatch, basePath + "/id/" + pending.ID + "/complete", "", token(student.ID, model.RoleStudent), http.StatusForbidden},
		{"student books", http.MethodPost, basePath, createBody, token(student.ID, model.RoleStudent), http.StatusCreated},
		{"tutor approves", http.MethodPatch, approvePath, "", token(tutor.ID, model.RoleTutor), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, model.BookingStatusApproved, bookings.Get(pending.ID).Status)
}
