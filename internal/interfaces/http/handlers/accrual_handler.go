package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/turtacn/KeyIP-Docket/internal/application/billing"
	"github.com/turtacn/KeyIP-Docket/internal/application/reporting"
	"github.com/turtacn/KeyIP-Docket/internal/domain/accrual"
	"github.com/turtacn/KeyIP-Docket/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	dateLayout      = "2006-01-02"
)

// AccrualHandler serves fee previews, accrual queries and the export.
type AccrualHandler struct {
	billingSvc billing.Service
	exporter   reporting.AccrualExporter
	logger     logging.Logger
	now        func() time.Time
}

// NewAccrualHandler creates a new AccrualHandler. exporter may be nil, in
// which case the export route answers 503.
func NewAccrualHandler(
	billingSvc billing.Service,
	exporter reporting.AccrualExporter,
	logger logging.Logger,
) *AccrualHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &AccrualHandler{
		billingSvc: billingSvc,
		exporter:   exporter,
		logger:     logger,
		now:        time.Now,
	}
}

// PreviewResponse lists the per-currency totals of a fee.
type PreviewResponse struct {
	Totals []accrual.Money `json:"totals"`
}

// AccrualListResponse is the body of GET /accruals.
type AccrualListResponse struct {
	Items []*accrual.Accrual `json:"items"`
	Total int                `json:"total"`
}

// UpdateAccrualStatusRequest is the body of PATCH /accruals/{id}/status.
type UpdateAccrualStatusRequest struct {
	Status string `json:"status"`
}

// Preview handles POST /api/v1/accruals/preview.
func (h *AccrualHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var fee accrual.FeeInput
	if err := decodeJSON(r, &fee); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	totals, err := h.billingSvc.Preview(fee)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, PreviewResponse{Totals: totals})
}

// List handles GET /api/v1/accruals?task_id=&status=&from=&to=&limit=.
func (h *AccrualHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAccrualFilter(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	items, err := h.billingSvc.List(r.Context(), filter)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, AccrualListResponse{Items: items, Total: len(items)})
}

// Get handles GET /api/v1/accruals/{accrualID}.
func (h *AccrualHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.billingSvc.Get(r.Context(), chi.URLParam(r, "accrualID"))
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UpdateStatus handles PATCH /api/v1/accruals/{accrualID}/status.
func (h *AccrualHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateAccrualStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	status, err := accrual.ParseStatus(req.Status)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	a, err := h.billingSvc.UpdateStatus(r.Context(), chi.URLParam(r, "accrualID"), status)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// Export handles GET /api/v1/accruals/export and streams an XLSX workbook.
func (h *AccrualHandler) Export(w http.ResponseWriter, r *http.Request) {
	if h.exporter == nil {
		writeAppError(w, h.logger, errors.New(errors.ErrCodeServiceUnavailable, "accrual export is not configured"))
		return
	}
	filter, err := parseAccrualFilter(r)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}
	data, err := h.exporter.ExportAccruals(r.Context(), filter)
	if err != nil {
		writeAppError(w, h.logger, err)
		return
	}

	name := "accruals-" + h.now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// parseAccrualFilter reads the filter query parameters. Dates are inclusive
// calendar days in UTC.
func parseAccrualFilter(r *http.Request) (accrual.Filter, error) {
	q := r.URL.Query()
	filter := accrual.Filter{
		TaskID: strings.TrimSpace(q.Get("task_id")),
		Limit:  parseLimit(r, 0, 10000),
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := accrual.ParseStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		from, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, errors.Wrap(err, errors.CodeInvalidParam, "from must be YYYY-MM-DD")
		}
		filter.From = from
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		to, err := time.Parse(dateLayout, raw)
		if err != nil {
			return filter, errors.Wrap(err, errors.CodeInvalidParam, "to must be YYYY-MM-DD")
		}
		filter.To = to.Add(24*time.Hour - time.Nanosecond)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return filter, errors.InvalidParam("to must not be before from")
	}
	return filter, nil
}

//Personal.AI order the ending
