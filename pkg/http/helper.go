package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tutorhub/pkg/auth"
	"tutorhub/pkg/config"
	apperrors "tutorhub/pkg/errors"
)

type contextKey string

const requestIDKey contextKey = "request_id"

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFrom(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// QueryFloat parses an optional float query parameter. A missing value yields nil.
func QueryFloat(r *http.Request, name string) (*float64, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return &v, nil
}

// QueryBool parses an optional boolean query parameter.
func QueryBool(r *http.Request, name string) (*bool, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter: " + s)
	}
	return &v, nil
}

// QueryTime parses an optional RFC 3339 timestamp query parameter.
func QueryTime(r *http.Request, name string) (*time.Time, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return nil, nil
	}
	v, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid " + name + " parameter, expected RFC 3339: " + s)
	}
	return &v, nil
}

// DecodeJSON decodes the request body into dst and maps decoding failures to
// client errors.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperrors.InvalidInput("Request body is required")
		case errors.As(err, &maxErr):
			return apperrors.PayloadTooLarge(maxErr.Limit)
		case errors.As(err, &typeErr):
			return apperrors.InvalidInput("Invalid value for field " + typeErr.Field)
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return apperrors.InvalidInput("Invalid JSON body")
		default:
			return apperrors.InvalidInput("Invalid JSON body: " + err.Error())
		}
	}
	return nil
}

// DecodeOptionalJSON is DecodeJSON for endpoints whose body may be omitted.
func DecodeOptionalJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return DecodeJSON(r, dst)
}

// Caller returns the identity attached by the authenticator. Handlers behind
// Protect always have one; a missing identity is answered as 401.
func Caller(r *http.Request) (auth.Identity, error) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		return auth.Identity{}, apperrors.Unauthorized("Authentication required")
	}
	return identity, nil
}
