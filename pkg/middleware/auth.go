package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"tutorhub/pkg/auth"
	apperrors "tutorhub/pkg/errors"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type TokenParser interface {
	Parse(token string) (auth.Identity, error)
}

// AccountChecker reports whether the account behind a token may still use
// the API.
type AccountChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

type AccountCheckerFunc func(ctx context.Context, userID string) (bool, error)

func (f AccountCheckerFunc) IsActive(ctx context.Context, userID string) (bool, error) {
	return f(ctx, userID)
}

// Authenticator guards individual routes. It wraps httprouter handles rather
// than the whole mux since public and private routes share one router.
type Authenticator struct {
	tokens   TokenParser
	accounts AccountChecker
	log      *logger.Logger
}

func NewAuthenticator(tokens TokenParser, accounts AccountChecker, log *logger.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, accounts: accounts, log: log}
}

// Protect requires a valid bearer token of an active account. When roles
// are given the caller's role must be one of them.
func (a *Authenticator) Protect(next httprouter.Handle, roles ...string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		token, ok := bearerToken(r)
		if !ok {
			httputil.WriteError(w, apperrors.Unauthorized("Authentication required"))
			return
		}

		identity, err := a.tokens.Parse(token)
		if err != nil {
			a.log.Debug("Rejected bearer token",
				"request_id", httputil.RequestIDFrom(r.Context()),
				"path", r.URL.Path,
				"error", err,
			)
			httputil.WriteError(w, apperrors.Unauthorized("Invalid or expired token"))
			return
		}

		if len(roles) > 0 && !slices.Contains(roles, identity.Role) {
			a.log.Warn("Role not permitted",
				"request_id", httputil.RequestIDFrom(r.Context()),
				"user_id", identity.UserID,
				"role", identity.Role,
				"path", r.URL.Path,
			)
			httputil.WriteError(w, apperrors.Forbidden("You do not have permission to perform this action"))
			return
		}

		active, err := a.accounts.IsActive(r.Context(), identity.UserID)
		if err != nil {
			a.log.Error("Failed to check account status",
				"request_id", httputil.RequestIDFrom(r.Context()),
				"user_id", identity.UserID,
				"error", err,
			)
			httputil.WriteError(w, apperrors.Internal("Failed to verify account", err))
			return
		}
		if !active {
			httputil.WriteError(w, apperrors.Forbidden("Account is deactivated"))
			return
		}

		next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)), ps)
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
