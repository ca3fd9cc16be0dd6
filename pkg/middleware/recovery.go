package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	apperrors "tutorhub/pkg/errors"
	httputil "tutorhub/pkg/http"
	"tutorhub/pkg/logger"
)

func Recovery(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					log.Error("Panic recovered",
						"request_id", httputil.RequestIDFrom(r.Context()),
						"error", fmt.Errorf("panic: %v", rec),
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					httputil.WriteError(w, apperrors.Internal(apperrors.ServerErrorMessage, nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
