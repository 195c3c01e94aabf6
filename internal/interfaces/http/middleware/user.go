// Package middleware holds the HTTP middleware of the docket API.
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"regexp"
	"strings"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

type contextKey int

const (
	userIDContextKey contextKey = iota
)

// UserConfig configures NewUserMiddleware.
type UserConfig struct {
	// HeaderName carries the calling user id. Default: "X-User-ID".
	HeaderName string

	// Required rejects requests without a user id with 400. Otherwise such
	// requests pass through anonymously.
	Required bool
}

// userIDPattern: alphanumerics plus "_", "-", "." and "@", length 1-128.
var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.@-]{1,128}$`)

// DefaultUserConfig returns the header defaults with anonymous access allowed.
func DefaultUserConfig() UserConfig {
	return UserConfig{HeaderName: "X-User-ID"}
}

// NewUserMiddleware reads the calling user id from the configured header and
// stores it in the request context. Authentication happens upstream of this
// service; the header is trusted as given.
func NewUserMiddleware(cfg UserConfig, logger logging.Logger) func(http.Handler) http.Handler {
	if cfg.HeaderName == "" {
		cfg.HeaderName = "X-User-ID"
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(cfg.HeaderName))

			if userID == "" {
				if cfg.Required {
					logger.Warn("user id missing in required mode",
						logging.String("method", r.Method),
						logging.String("path", r.URL.Path))
					writeMiddlewareError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "user id is required")
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !userIDPattern.MatchString(userID) {
				writeMiddlewareError(w, http.StatusBadRequest, errors.ErrCodeBadRequest, "invalid user id")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// ContextGetUserID returns the calling user id, or "" for anonymous requests.
func ContextGetUserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDContextKey).(string)
	return id
}

// middlewareErrorResponse matches the handlers' error body.
type middlewareErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeMiddlewareError(w http.ResponseWriter, statusCode int, code errors.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(middlewareErrorResponse{Code: string(code), Message: message})
}

//Personal.AI order the ending
