// Package handlers holds the HTTP handlers of the docket API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/middleware"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// maxBodyBytes bounds JSON request bodies, base64 document content included.
const maxBodyBytes = 48 << 20

// getUserIDFromContext returns the caller set by the user middleware.
func getUserIDFromContext(r *http.Request) string {
	return middleware.ContextGetUserID(r.Context())
}

// parseLimit reads the limit query parameter, falling back to def.
func parseLimit(r *http.Request, def, max int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "invalid request body")
	}
	return nil
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError maps err to the status of its code. Server-side failures are
// logged and masked.
func writeAppError(w http.ResponseWriter, logger logging.Logger, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)
	if code == errors.CodeUnknown || status == http.StatusInternalServerError {
		if logger != nil {
			logger.Error("request failed", logging.Err(err))
		}
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Code:    string(errors.ErrCodeInternal),
			Message: "internal server error",
		})
		return
	}

	msg := errors.DefaultMessageForCode(code)
	var appErr *errors.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
		if appErr.Detail != "" {
			msg += ": " + appErr.Detail
		}
	}
	writeJSON(w, status, ErrorResponse{Code: string(code), Message: msg})
}

//Personal.AI order the ending
