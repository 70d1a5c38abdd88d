package health

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/fanout/core/logger"
)

// ErrNotListening is reported by the Listening check while the server is down.
var ErrNotListening = errors.New("service is not listening")

// Check verifies a single dependency.
type Check func(context.Context) error

// Readiness verifies all service dependencies are functioning.
// Returns "READY" if all checks pass, 503 Service Unavailable if any fail.
func Readiness(log *slog.Logger, checks ...Check) http.HandlerFunc {
	if log == nil {
		log = logger.Discard()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		for _, check := range checks {
			if err := check(ctx); err != nil {
				log.ErrorContext(ctx, "readiness check failed", logger.Error(err))
				writeText(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable))
				return
			}
		}

		writeText(w, http.StatusOK, "READY")
	}
}

// Listening adapts anything reporting its listening status into a Check.
func Listening(s interface{ Listening() bool }) Check {
	return func(context.Context) error {
		if !s.Listening() {
			return ErrNotListening
		}
		return nil
	}
}
