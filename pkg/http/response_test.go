package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "tutorhub/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteError_UsesAppErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"conflict", apperrors.Conflict("already approved"), http.StatusConflict, apperrors.CodeConflict},
		{"forbidden", apperrors.Forbidden("not yours"), http.StatusForbidden, apperrors.CodeForbidden},
		{"unauthorized", apperrors.Unauthorized("no token"), http.StatusUnauthorized, apperrors.CodeUnauthorized},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, apperrors.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body apperrors.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
		})
	}
}

func TestWriteError_HidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("mongo: connection pool exhausted"))

	assert.NotContains(t, rec.Body.String(), "mongo")
	assert.Contains(t, rec.Body.String(), apperrors.ServerErrorMessage)
}

func TestWritePaginated(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WritePaginated(rec, []string{"a", "b"}, 12, 2, 4))

	var body struct {
		Data       []string `json:"data"`
		TotalCount int64    `json:"total_count"`
		Limit      int      `json:"limit"`
		Offset     int64    `json:"offset"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"a", "b"}, body.Data)
	assert.EqualValues(t, 12, body.TotalCount)
	assert.Equal(t, 2, body.Limit)
	assert.EqualValues(t, 4, body.Offset)
}

func TestExtractLimitOffset(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int64
		wantErr    bool
	}{
		{"defaults", "", 10, 0, false},
		{"explicit", "?limit=25&offset=50", 25, 50, false},
		{"capped", "?limit=1000", 100, 0, false},
		{"negative offset", "?offset=-4", 10, 0, false},
		{"bad limit", "?limit=ten", 0, 0, true},
		{"bad offset", "?offset=x", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/bookings/mine"+tt.query, nil)
			limit, offset, err := ExtractLimitOffset(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLimit, limit)
			assert.Equal(t, tt.wantOffset, offset)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
		Age  int    `json:"age"`
	}

	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Ada","age":36}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "Ada", dst.Name)

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	err := DecodeJSON(r, &dst)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"age":"old"}`))
	err = DecodeJSON(r, &dst)
	require.Error(t, err)
	assert.Contains(t, apperrors.AsAppError(err).Message, "age")

	rec := httptest.NewRecorder()
	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("x", 64)+`"}`))
	r.Body = http.MaxBytesReader(rec, r.Body, 16)
	err = DecodeJSON(r, &dst)
	require.Error(t, err)
	assert.Equal(t, http.StatusRequestEntityTooLarge, apperrors.AsAppError(err).StatusCode())
}

func TestQueryFloat(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?min_rating=4.5&bad=x", nil)

	v, err := QueryFloat(r, "min_rating")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.InDelta(t, 4.5, *v, 0.0001)

	v, err = QueryFloat(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = QueryFloat(r, "bad")
	require.Error(t, err)
}

func TestQueryBool(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?active=false&bad=maybe", nil)

	v, err := QueryBool(r, "active")
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.False(t, *v)

	v, err = QueryBool(r, "missing")
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = QueryBool(r, "bad")
	assert.Equal(t, http.StatusBadRequest, apperrors.AsAppError(err).StatusCode())
}
