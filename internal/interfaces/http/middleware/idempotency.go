package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// IdempotencyHeader names the client-chosen submission key.
const IdempotencyHeader = "Idempotency-Key"

var idempotencyKeyPattern = regexp.MustCompile(`^[a-zA-Z0-9_:.-]{8,128}$`)

// SubmitGuard serializes requests that share a key. The Redis SubmitLock
// implements it.
type SubmitGuard interface {
	Acquire(ctx context.Context, key string) (func(context.Context), error)
}

// NewIdempotencyMiddleware rejects a request with 409 while another request
// carrying the same Idempotency-Key is still being served. Requests without
// the header are not guarded. A guard that cannot be reached lets the
// request through.
func NewIdempotencyMiddleware(guard SubmitGuard, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return func(next http.Handler) http.Handler {
		if guard == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(IdempotencyHeader))
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			if !idempotencyKeyPattern.MatchString(key) {
				writeMiddlewareError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "invalid idempotency key")
				return
			}

			scoped := key
			if userID := ContextGetUserID(r.Context()); userID != "" {
				scoped = userID + ":" + key
			}

			release, err := guard.Acquire(r.Context(), scoped)
			switch {
			case errors.IsCode(err, errors.ErrCodeSubmissionInProgress):
				writeMiddlewareError(w, http.StatusConflict, errors.ErrCodeSubmissionInProgress,
					"a submission with this idempotency key is already in progress")
				return
			case err != nil:
				logger.Warn("submit guard unavailable, continuing unguarded",
					logging.String("key", key),
					logging.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			defer release(context.WithoutCancel(r.Context()))

			next.ServeHTTP(w, r)
		})
	}
}

//Personal.AI order the ending
