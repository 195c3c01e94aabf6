package client

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestTasks_Submit(t *testing.T) {
	due := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/tasks", r.URL.Path)
		assert.Equal(t, "form-000042", r.Header.Get("Idempotency-Key"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "trademark-application", body["task_type"])
		billing := body["billing"].(map[string]interface{})
		assert.Equal(t, false, billing["free"])

		writeJSON(t, w, http.StatusCreated, map[string]interface{}{
			"task": map[string]interface{}{
				"id": "T-7", "task_type": "trademark-application", "title": "Filing",
				"status": "open", "official_due_date": due,
			},
			"accrual_outcome":  "immediate",
			"accrual_id":       "A-3",
			"warnings":         []map[string]string{{"step": "upload", "message": "store offline"}},
			"warning_messages": []string{"upload: store offline"},
		})
	})

	res, err := c.Tasks().Submit(context.Background(), &SubmitTaskRequest{
		TaskType: "trademark-application",
		Billing: BillingInput{Fee: &FeeInput{
			OfficialFee: Money{Amount: 100, Currency: "TRY"},
			ServiceFee:  Money{Amount: 50, Currency: "TRY"},
			VATRate:     20,
		}},
	}, "form-000042")
	require.NoError(t, err)
	assert.Equal(t, "T-7", res.Task.ID)
	assert.True(t, due.Equal(*res.Task.OfficialDueDate))
	assert.Equal(t, "immediate", res.AccrualOutcome)
	assert.Equal(t, "A-3", res.AccrualID)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "upload: store offline", res.Warnings[0].String())
}

func TestTasks_Submit_RequiresTaskType(t *testing.T) {
	c, _ := NewClient("http://api.example.com")
	_, err := c.Tasks().Submit(context.Background(), &SubmitTaskRequest{}, "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestTasks_Submit_Conflict(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusConflict, map[string]string{"code": "TASK_010", "message": "in progress"})
	})

	_, err := c.Tasks().Submit(context.Background(), &SubmitTaskRequest{TaskType: "general"}, "form-000042")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "TASK_010", apiErr.Code)
}

func TestTasks_List(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/tasks", r.URL.Path)
		assert.Equal(t, "bob", r.URL.Query().Get("assignee"))
		assert.Equal(t, "in-progress", r.URL.Query().Get("status"))
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"items": []map[string]string{{"id": "T-1"}, {"id": "T-2"}},
			"total": 2,
		})
	})

	list, err := c.Tasks().List(context.Background(), TaskListOptions{Assignee: "bob", Status: "in-progress"})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Total)
	assert.Equal(t, "T-2", list.Items[1].ID)
}

func TestTasks_List_NoFilters(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		writeJSON(t, w, http.StatusOK, map[string]interface{}{"items": []interface{}{}, "total": 0})
	})

	list, err := c.Tasks().List(context.Background(), TaskListOptions{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestTasks_Lifecycle(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path)
		mu.Unlock()
		if r.Method == http.MethodDelete && r.URL.Path == "/api/v1/tasks/T-1" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"id": "T-1", "status": "completed"})
	})
	ctx := context.Background()
	tasks := c.Tasks()

	got, err := tasks.Get(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, "T-1", got.ID)

	_, err = tasks.ChangeStatus(ctx, "T-1", "in_progress")
	require.NoError(t, err)
	_, err = tasks.Assign(ctx, "T-1", Assignee{ID: "bob"})
	require.NoError(t, err)
	done, err := tasks.Complete(ctx, "T-1")
	require.NoError(t, err)
	assert.Equal(t, "completed", done.Status)
	_, err = tasks.AttachDocument(ctx, "T-1", FileUpload{Name: "power.pdf", Content: []byte("%PDF")})
	require.NoError(t, err)
	_, err = tasks.DetachDocument(ctx, "T-1", "D-9")
	require.NoError(t, err)
	require.NoError(t, tasks.Delete(ctx, "T-1"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"GET /api/v1/tasks/T-1",
		"PATCH /api/v1/tasks/T-1/status",
		"PUT /api/v1/tasks/T-1/assignee",
		"POST /api/v1/tasks/T-1/complete",
		"POST /api/v1/tasks/T-1/documents",
		"DELETE /api/v1/tasks/T-1/documents/D-9",
		"DELETE /api/v1/tasks/T-1",
	}, seen)
}

func TestTasks_Get_RequiresID(t *testing.T) {
	c, _ := NewClient("http://api.example.com")
	_, err := c.Tasks().Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

//Personal.AI order the ending
