package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/KeyIP-Docket/internal/interfaces/http/handlers"
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

type stubGuard struct {
	err  error
	keys []string
}

func (g *stubGuard) Acquire(_ context.Context, key string) (func(context.Context), error) {
	g.keys = append(g.keys, key)
	if g.err != nil {
		return nil, g.err
	}
	return func(context.Context) {}, nil
}

func newTestRouter(guard *stubGuard) http.Handler {
	cfg := RouterConfig{
		HealthHandler:   handlers.NewHealthHandler("test"),
		TaskHandler:     handlers.NewTaskHandler(nil, nil, nil),
		AssetHandler:    handlers.NewAssetHandler(nil, nil),
		AccrualHandler:  handlers.NewAccrualHandler(nil, nil, nil),
		CalendarHandler: handlers.NewCalendarHandler(nil, nil),
		MetricsHandler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}
	if guard != nil {
		cfg.SubmitGuard = guard
	}
	return NewRouter(cfg)
}

func serve(h http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewRouter_Probes(t *testing.T) {
	r := newTestRouter(nil)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/readyz", nil).Code)

	rec := serve(r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())
}

func TestNewRouter_AssetSearchMounted(t *testing.T) {
	r := newTestRouter(nil)

	rec := serve(r, http.MethodGet, "/api/v1/assets/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "COMMON_002")
}

func TestNewRouter_UnknownRoute(t *testing.T) {
	r := newTestRouter(nil)

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/unknown", nil).Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(r, http.MethodPut, "/api/v1/accruals/preview", nil).Code)
}

func TestNewRouter_MalformedUserRejected(t *testing.T) {
	r := newTestRouter(nil)

	rec := serve(r, http.MethodGet, "/api/v1/tasks", map[string]string{"X-User-ID": "not valid"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewRouter_SubmitGuardedByIdempotencyKey(t *testing.T) {
	guard := &stubGuard{err: errors.New(errors.ErrCodeSubmissionInProgress, "busy")}
	r := newTestRouter(guard)

	rec := serve(r, http.MethodPost, "/api/v1/tasks", map[string]string{
		"X-User-ID":       "alice",
		"Idempotency-Key": "form-000042",
	})

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, []string{"alice:form-000042"}, guard.keys)
}

func TestNewRouter_OnlySubmitIsGuarded(t *testing.T) {
	guard := &stubGuard{err: errors.New(errors.ErrCodeSubmissionInProgress, "busy")}
	r := newTestRouter(guard)

	// The list route reaches the handler, which rejects the missing filter.
	rec := serve(r, http.MethodGet, "/api/v1/tasks", map[string]string{"Idempotency-Key": "form-000042"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, guard.keys)
}

func TestNewRouter_NilHandlers(t *testing.T) {
	r := NewRouter(RouterConfig{})

	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodPost, "/api/v1/tasks", nil).Code)
}

//Personal.AI order the ending
