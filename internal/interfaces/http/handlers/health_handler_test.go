package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingReporter struct {
	mu  sync.Mutex
	got map[string]bool
}

func (r *recordingReporter) SetHealth(component string, up bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.got == nil {
		r.got = make(map[string]bool)
	}
	r.got[component] = up
}

func healthy(name string) HealthChecker {
	return CheckFunc(name, func(context.Context) error { return nil })
}

func failing(name string) HealthChecker {
	return CheckFunc(name, func(context.Context) error { return assert.AnError })
}

func TestLiveness_AlwaysOK(t *testing.T) {
	h := NewHealthHandler("1.2.3", failing("postgres"))

	rec := httptest.NewRecorder()
	h.Liveness(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp LivenessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alive", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestReadiness_AllHealthy(t *testing.T) {
	reporter := &recordingReporter{}
	h := NewHealthHandler("dev", healthy("postgres"), healthy("redis")).WithReporter(reporter)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ready", resp.Status)
	assert.Len(t, resp.Components, 2)
	assert.Equal(t, map[string]bool{"postgres": true, "redis": true}, reporter.got)
}

func TestReadiness_OneUnhealthy(t *testing.T) {
	reporter := &recordingReporter{}
	h := NewHealthHandler("dev", healthy("postgres"), failing("minio")).WithReporter(reporter)

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var resp ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_ready", resp.Status)
	assert.Equal(t, "unhealthy", resp.Components["minio"].Status)
	assert.NotEmpty(t, resp.Components["minio"].Error)
	assert.False(t, reporter.got["minio"])
}

func TestReadiness_NoCheckers(t *testing.T) {
	h := NewHealthHandler("dev")

	rec := httptest.NewRecorder()
	h.Readiness(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestDetailed_Degraded(t *testing.T) {
	h := NewHealthHandler("dev", failing("kafka"))

	rec := httptest.NewRecorder()
	h.Detailed(rec, httptest.NewRequest(http.MethodGet, "/healthz/detail", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}

//Personal.AI order the ending
