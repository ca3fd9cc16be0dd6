package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutorhub/internal/admin/service"
	"tutorhub/internal/bookings/repository/bookingstest"
	"tutorhub/internal/events/eventstest"
	"tutorhub/internal/reviews/repository/reviewstest"
	"tutorhub/internal/tutors/repository/tutorstest"
	"tutorhub/internal/users/repository"
	"tutorhub/internal/users/repository/userstest"
	"tutorhub/pkg/auth"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/model"
	"tutorhub/pkg/validation"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(users *userstest.Fake, tokens *auth.TokenIssuer) *httprouter.Router {
	log := logger.Nop()
	accounts := repository.NewActiveCache(users, time.Minute)
	svc := service.NewAdminService(accounts, tutorstest.NewFake(), bookingstest.NewFake(), reviewstest.NewFake(),
		eventstest.NewRecorder(), validation.New(log), log)
	router := httprouter.New()
	NewAdminHandler(svc, middleware.NewAuthenticator(tokens, accounts, log), log).RegisterRoutes(router)
	return router
}

func TestAdminRoutes_RequireAdmin(t *testing.T) {
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	users := userstest.NewFake()
	admin := users.Add(&model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleAdmin, IsActive: true})
	router := newRouter(users, tokens)

	token := func(id, role string) string {
		tok, _, err := tokens.Issue(id, role)
		require.NoError(t, err)
		return tok
	}

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"student", token(admin.ID, model.RoleStudent), http.StatusForbidden},
		{"tutor", token(admin.ID, model.RoleTutor), http.StatusForbidden},
		{"admin", token(admin.ID, model.RoleAdmin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin/analytics", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users?is_active=sometimes", nil)
	req.Header.Set("Authorization", "Bearer "+token(admin.ID, model.RoleAdmin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "is_active"))
}

func TestDeactivatedAccount_LosesAccess(t *testing.T) {
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	users := userstest.NewFake()
	ada := users.Add(&model.User{Name: "Ada", Email: "ada@example.com", Role: model.RoleAdmin, IsActive: true})
	bob := users.Add(&model.User{Name: "Bob", Email: "bob@example.com", Role: model.RoleAdmin, IsActive: true})
	router := newRouter(users, tokens)

	send := func(method, path, body, userID string) *httptest.ResponseRecorder {
		tok, _, err := tokens.Issue(userID, model.RoleAdmin)
		require.NoError(t, err)
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tok)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := send(http.MethodGet, "/api/admin/analytics", "", bob.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(http.MethodPatch, "/api/admin/users/id/"+bob.ID+"/status", `{"is_active":false}`, ada.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(http.MethodGet, "/api/admin/analytics", "", bob.ID)
	assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

	rec = send(http.MethodPatch, "/api/admin/users/id/"+bob.ID+"/status", `{"is_active":true}`, ada.ID)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = send(http.MethodGet, "/api/admin/analytics", "", bob.ID)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}
