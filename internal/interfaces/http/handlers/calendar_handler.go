package handlers

import (
	"net/http"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// CalendarHandler previews the due dates a task type would be given.
type CalendarHandler struct {
	submitSvc tasking.Service
	logger    logging.Logger
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(submitSvc tasking.Service, logger logging.Logger) *CalendarHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &CalendarHandler{submitSvc: submitSvc, logger: logger}
}

// DueDates handles POST /api/v1/calendar/due-dates. Nothing is stored.
func (h *CalendarHandler) DueDates(w http.ResponseWriter, r *http.Request) {
	var req tasking.DueDateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if req.TaskType == "" {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeTaskTypeRequired, "task_type is required"))
		return
	}
	plan, err := h.submitSvc.PreviewDueDates(r.Context(), req)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

//Personal.AI order the ending
