package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(CodeValidation, "validation failed", http.StatusUnprocessableEntity)

	if err.Code != CodeValidation {
		t.Errorf("expected code %s, got %s", CodeValidation, err.Code)
	}
	if err.Message != "validation failed" {
		t.Errorf("expected message 'validation failed', got %s", err.Message)
	}
	if err.StatusCode() != http.StatusUnprocessableEntity {
		t.Errorf("expected status %d, got %d", http.StatusUnprocessableEntity, err.StatusCode())
	}
}

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "booking not found"},
			expected: "NOT_FOUND: booking not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeInternal,
				Message: "internal error",
				Err:     errors.New("database connection failed"),
			},
			expected: "INTERNAL_ERROR: internal error (caused by: database connection failed)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
		code   string
	}{
		{"not found", NotFound("Booking"), http.StatusNotFound, CodeNotFound},
		{"validation", Validation("bad", nil), http.StatusUnprocessableEntity, CodeValidation},
		{"invalid input", InvalidInput("bad id"), http.StatusBadRequest, CodeInvalidInput},
		{"bad request", BadRequest("bad"), http.StatusBadRequest, CodeBadRequest},
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized, CodeUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden, CodeForbidden},
		{"conflict", Conflict("already approved"), http.StatusConflict, CodeConflict},
		{"too many", TooManyRequests("slow down"), http.StatusTooManyRequests, CodeTooManyRequests},
		{"media", UnsupportedMediaType("json only"), http.StatusUnsupportedMediaType, CodeUnsupportedMedia},
		{"too large", PayloadTooLarge(1024), http.StatusRequestEntityTooLarge, CodePayloadTooLarge},
		{"internal", Internal("boom", nil), http.StatusInternalServerError, CodeInternal},
		{"timeout", Timeout("slow"), http.StatusGatewayTimeout, CodeTimeout},
		{"unavailable", Unavailable("MongoDB"), http.StatusServiceUnavailable, CodeUnavailable},
		{"zero status", &AppError{Code: CodeInternal}, http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.StatusCode() != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, tt.err.StatusCode())
			}
			if tt.err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, tt.err.Code)
			}
		})
	}
}

func TestNotFoundWithID(t *testing.T) {
	err := NotFoundWithID("Booking", "abc")

	if err.Message != "Booking not found" {
		t.Errorf("unexpected message %q", err.Message)
	}
	if err.Details["id"] != "abc" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details %v", err.Details)
	}
}

func TestAsAppError(t *testing.T) {
	conflict := Conflict("booking is no longer pending")
	wrapped := fmt.Errorf("transaction failed: %w", conflict)

	if !IsAppError(wrapped) {
		t.Fatal("expected wrapped AppError to be detected")
	}
	if got := AsAppError(wrapped); got != conflict {
		t.Errorf("expected the original AppError, got %v", got)
	}

	plain := errors.New("socket closed")
	got := AsAppError(plain)
	if got.Code != CodeInternal || got.Message != ServerErrorMessage {
		t.Errorf("expected opaque internal error, got %v", got)
	}
	if !errors.Is(got, plain) {
		t.Error("expected cause to be preserved")
	}
}

func TestToJSON(t *testing.T) {
	err := Validation("Validation failed", map[string]any{"email": "email is required"})

	var body ErrorResponse
	if e := json.Unmarshal(err.ToJSON(), &body); e != nil {
		t.Fatalf("unexpected error: %v", e)
	}
	if body.Code != CodeValidation || body.Details["email"] != "email is required" {
		t.Errorf("unexpected body %+v", body)
	}
}

func TestWithDetail(t *testing.T) {
	err := Conflict("overlap").WithDetail("booking_id", "b1")
	if err.Details["booking_id"] != "b1" {
		t.Errorf("unexpected details %v", err.Details)
	}
}
