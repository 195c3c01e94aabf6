package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/KeyIP-Docket/internal/application/tasking"
	"github.com/turtacn/KeyIP-Docket/internal/domain/task"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// TaskHandler serves task submission and the task lifecycle.
type TaskHandler struct {
	submitSvc    tasking.Service
	lifecycleSvc tasking.LifecycleService
	logger       logging.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(
	submitSvc tasking.Service,
	lifecycleSvc tasking.LifecycleService,
	logger logging.Logger,
) *TaskHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &TaskHandler{
		submitSvc:    submitSvc,
		lifecycleSvc: lifecycleSvc,
		logger:       logger,
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Request / response DTOs
// ─────────────────────────────────────────────────────────────────────────────

// SubmitResponse wraps the stored task with the flattened warnings.
type SubmitResponse struct {
	*tasking.SubmitResult
	WarningMessages []string `json:"warning_messages,omitempty"`
}

// ChangeStatusRequest is the body of PATCH /tasks/{id}/status.
type ChangeStatusRequest struct {
	Status string `json:"status"`
}

// TaskListResponse is the body of GET /tasks.
type TaskListResponse struct {
	Items []*task.Task `json:"items"`
	Total int          `json:"total"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Submission
// ─────────────────────────────────────────────────────────────────────────────

// Submit handles POST /api/v1/tasks. Partial failures of the side effects
// are reported as warnings on a 201 response.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var in tasking.SubmitInput
	if err := decodeJSON(r, &in); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	in.CreatedBy = getUserIDFromContext(r)

	res, err := h.submitSvc.Submit(r.Context(), &in)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if len(res.Warnings) > 0 {
		h.logger.Warn("task submitted with warnings",
			logging.String("task_id", res.Task.ID),
			logging.Int("warnings", len(res.Warnings)))
	}
	writeJSON(w, http.StatusCreated, SubmitResponse{SubmitResult: res, WarningMessages: res.WarningMessages()})
}

// ─────────────────────────────────────────────────────────────────────────────
// Lifecycle
// ─────────────────────────────────────────────────────────────────────────────

// List handles GET /api/v1/tasks?assignee=&status=. Without an assignee the
// caller's own tasks are listed.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	assignee := strings.TrimSpace(q.Get("assignee"))
	if assignee == "" {
		assignee = getUserIDFromContext(r)
	}

	var (
		items []*task.Task
		err   error
	)
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, perr := task.ParseStatus(raw)
		if perr != nil {
			writeAppError(w, h.logger, perr)
			return
		}
		items, err = h.lifecycleSvc.ListByStatus(r.Context(), status, assignee)
	} else {
		if assignee == "" {
			writeAppError(w, h.logger, errors.InvalidParam("assignee or status is required"))
			return
		}
		items, err = h.lifecycleSvc.ListForUser(r.Context(), assignee)
	}
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, TaskListResponse{Items: items, Total: len(items)})
}

// Get handles GET /api/v1/tasks/{taskID}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.lifecycleSvc.Get(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// ChangeStatus handles PATCH /api/v1/tasks/{taskID}/status.
func (h *TaskHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	var req ChangeStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	status, err := task.ParseStatus(req.Status)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	t, err := h.lifecycleSvc.ChangeStatus(r.Context(), chi.URLParam(r, "taskID"), status)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Assign handles PUT /api/v1/tasks/{taskID}/assignee.
func (h *TaskHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var assignee task.Assignee
	if err := decodeJSON(r, &assignee); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(assignee.ID) == "" {
		writeAppError(w, h.logger, errors.InvalidParam("assignee id is required"))
		return
	}
	t, err := h.lifecycleSvc.Assign(r.Context(), chi.URLParam(r, "taskID"), assignee)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Complete handles POST /api/v1/tasks/{taskID}/complete.
func (h *TaskHandler) Complete(w http.ResponseWriter, r *http.Request) {
	t, err := h.lifecycleSvc.Complete(r.Context(), chi.URLParam(r, "taskID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// AttachDocument handles POST /api/v1/tasks/{taskID}/documents. The body is a
// FileUpload with base64 content.
func (h *TaskHandler) AttachDocument(w http.ResponseWriter, r *http.Request) {
	var file common.FileUpload
	if err := decodeJSON(r, &file); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	if strings.TrimSpace(file.Name) == "" {
		writeAppError(w, h.logger, errors.InvalidParam("file name is required"))
		return
	}
	if len(file.Content) == 0 {
		writeAppError(w, h.logger, errors.InvalidParam("file content is required"))
		return
	}
	t, err := h.lifecycleSvc.AttachDocument(r.Context(), chi.URLParam(r, "taskID"), file)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// DetachDocument handles DELETE /api/v1/tasks/{taskID}/documents/{docID}.
func (h *TaskHandler) DetachDocument(w http.ResponseWriter, r *http.Request) {
	t, err := h.lifecycleSvc.DetachDocument(r.Context(), chi.URLParam(r, "taskID"), chi.URLParam(r, "docID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/tasks/{taskID}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.lifecycleSvc.Delete(r.Context(), chi.URLParam(r, "taskID")); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

//Personal.AI order the ending
