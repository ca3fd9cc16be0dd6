package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tutorhub/internal/events/eventstest"
	"tutorhub/internal/users/repository"
	"tutorhub/internal/users/repository/userstest"
	"tutorhub/internal/users/service"
	"tutorhub/pkg/auth"
	"tutorhub/pkg/logger"
	"tutorhub/pkg/middleware"
	"tutorhub/pkg/sealer"
	"tutorhub/pkg/validation"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(t *testing.T) *httprouter.Router {
	t.Helper()
	log := logger.Nop()
	tokens := auth.NewTokenIssuer("0123456789abcdef0123456789abcdef", time.Hour)
	s, err := sealer.New(make([]byte, 32))
	require.NoError(t, err)

	users := repository.NewActiveCache(userstest.NewFake(), time.Minute)
	svc := service.NewUserService(users, tokens, s, validation.New(log), eventstest.NewRecorder(),
		service.Options{PasswordResetTTL: time.Hour, FrontendURL: "http://localhost:3000", DefaultPhoneRegion: "US"}, log)

	router := httprouter.New()
	NewUserHandler(svc, middleware.NewAuthenticator(tokens, users, log), log).RegisterRoutes(router)
	return router
}

func do(router http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestUserHandler_RegisterAndMe(t *testing.T) {
	router := newRouter(t)

	rec := do(router, http.MethodPost, "/api/auth/register",
		`{"name":"Grace Hopper","email":"grace@example.com","password":"cobol-rules","role":"tutor"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			Token string `json:"token"`
			User  struct {
				ID    string `json:"id"`
				Email string `json:"email"`
				Role  string `json:"role"`
			} `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "tutor", created.Data.User.Role)
	assert.NotContains(t, rec.Body.String(), "password_hash")

	rec = do(router, http.MethodGet, "/api/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(router, http.MethodGet, "/api/auth/me", "", created.Data.Token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "grace@example.com")
}

func TestUserHandler_BadBodies(t *testing.T) {
	router := newRouter(t)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"empty body", "/api/auth/login", "", http.StatusBadRequest},
		{"malformed json", "/api/auth/login", `{"email":`, http.StatusBadRequest},
		{"missing fields", "/api/auth/login", `{}`, http.StatusUnprocessableEntity},
		{"forgot password for unknown email", "/api/auth/forgot-password", `{"email":"ghost@example.com"}`, http.StatusAccepted},
		{"reset with bad token", "/api/auth/reset-password", `{"token":"abc","new_password":"long-enough-1"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, http.MethodPost, tt.path, tt.body, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}
