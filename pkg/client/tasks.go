package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// Assignee is the user a task is assigned to.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// TaskDisplay holds the asset fields copied onto a task for listing.
type TaskDisplay struct {
	ApplicationNumber string `json:"application_number,omitempty"`
	AssetTitle        string `json:"asset_title,omitempty"`
	ApplicantName     string `json:"applicant_name,omitempty"`
}

// Task is a unit of docket work.
type Task struct {
	ID                 string                 `json:"id"`
	TaskType           string                 `json:"task_type"`
	Title              string                 `json:"title"`
	Description        string                 `json:"description,omitempty"`
	Priority           string                 `json:"priority"`
	Assignee           Assignee               `json:"assignee"`
	Status             string                 `json:"status"`
	OperationalDueDate *time.Time             `json:"operational_due_date,omitempty"`
	OfficialDueDate    *time.Time             `json:"official_due_date,omitempty"`
	Details            map[string]interface{} `json:"details,omitempty"`
	Documents          []Document             `json:"documents,omitempty"`
	AssetID            string                 `json:"asset_id,omitempty"`
	RelatedParties     []Party                `json:"related_parties,omitempty"`
	Owners             []Party                `json:"owners,omitempty"`
	Opponent           *Party                 `json:"opponent,omitempty"`
	Display            TaskDisplay            `json:"display"`
	CreatedBy          string                 `json:"created_by,omitempty"`
	CreatedAt          time.Time              `json:"created_at"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// TrademarkInput describes a new trademark filed by the task.
type TrademarkInput struct {
	BrandText       string     `json:"brand_text"`
	NiceSelection   string     `json:"nice_selection"`
	Country         string     `json:"country,omitempty"`
	ApplicationDate *time.Time `json:"application_date,omitempty"`
}

// SuitInput carries the court data of a suit task.
type SuitInput struct {
	SuitType   string `json:"suit_type,omitempty"`
	Court      string `json:"court,omitempty"`
	FileNumber string `json:"file_number,omitempty"`
}

// BillingInput selects how a task is billed.
type BillingInput struct {
	Free             bool         `json:"free"`
	Fee              *FeeInput    `json:"fee,omitempty"`
	OfficialFeeParty *Party       `json:"official_fee_party,omitempty"`
	ServiceFeeParty  *Party       `json:"service_fee_party,omitempty"`
	Files            []FileUpload `json:"files,omitempty"`
}

// SubmitTaskRequest is the body of a task submission.
type SubmitTaskRequest struct {
	TaskType           string                 `json:"task_type"`
	Title              string                 `json:"title,omitempty"`
	Description        string                 `json:"description,omitempty"`
	Priority           string                 `json:"priority,omitempty"`
	Assignee           *Assignee              `json:"assignee,omitempty"`
	AssetID            string                 `json:"asset_id,omitempty"`
	BulletinID         string                 `json:"bulletin_id,omitempty"`
	RelatedParties     []Party                `json:"related_parties,omitempty"`
	Opponent           *Party                 `json:"opponent,omitempty"`
	Trademark          *TrademarkInput        `json:"trademark,omitempty"`
	OfficialDueDate    *time.Time             `json:"official_due_date,omitempty"`
	OperationalDueDate *time.Time             `json:"operational_due_date,omitempty"`
	Details            map[string]interface{} `json:"details,omitempty"`
	Files              []FileUpload           `json:"files,omitempty"`
	ParentTaskID       string                 `json:"parent_task_id,omitempty"`
	Suit               *SuitInput             `json:"suit,omitempty"`
	Billing            BillingInput           `json:"billing"`
}

// SubmitTaskResult is the answer of a submission.
type SubmitTaskResult struct {
	Task            *Task     `json:"task"`
	Asset           *Asset    `json:"asset,omitempty"`
	AccrualOutcome  string    `json:"accrual_outcome"`
	AccrualID       string    `json:"accrual_id,omitempty"`
	DeferredTaskID  string    `json:"deferred_task_id,omitempty"`
	SuitID          string    `json:"suit_id,omitempty"`
	Warnings        []Warning `json:"warnings,omitempty"`
	WarningMessages []string  `json:"warning_messages,omitempty"`
}

// TaskListOptions filters List. An empty Assignee lists the caller's tasks.
type TaskListOptions struct {
	Assignee string
	Status   string
}

// TaskList is a page of tasks.
type TaskList struct {
	Items []*Task `json:"items"`
	Total int     `json:"total"`
}

// ---------------------------------------------------------------------------
// TasksClient
// ---------------------------------------------------------------------------

// TasksClient submits tasks and drives their lifecycle.
type TasksClient struct {
	client *Client
}

// Submit creates a task. A non-empty idempotencyKey makes the server reject
// a concurrent submission carrying the same key with 409.
func (tc *TasksClient) Submit(ctx context.Context, req *SubmitTaskRequest, idempotencyKey string) (*SubmitTaskResult, error) {
	if req == nil || strings.TrimSpace(req.TaskType) == "" {
		return nil, fmt.Errorf("%w: task_type is required", ErrInvalidConfig)
	}
	r := request{method: http.MethodPost, path: apiPath("tasks"), body: req}
	if idempotencyKey != "" {
		r.headers = map[string]string{idempotencyHeader: idempotencyKey}
	}
	var out SubmitTaskResult
	if err := tc.client.do(ctx, r, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (tc *TasksClient) List(ctx context.Context, opts TaskListOptions) (*TaskList, error) {
	q := url.Values{}
	if opts.Assignee != "" {
		q.Set("assignee", opts.Assignee)
	}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	var out TaskList
	if err := tc.client.get(ctx, apiPath("tasks"), q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (tc *TasksClient) Get(ctx context.Context, id string) (*Task, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: task id is required", ErrInvalidConfig)
	}
	var out Task
	if err := tc.client.get(ctx, apiPath("tasks", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeStatus moves a task to status. Both "in_progress" and "in-progress"
// spellings are accepted by the server.
func (tc *TasksClient) ChangeStatus(ctx context.Context, id, status string) (*Task, error) {
	var out Task
	body := map[string]string{"status": status}
	if err := tc.client.patch(ctx, apiPath("tasks", id, "status"), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (tc *TasksClient) Assign(ctx context.Context, id string, assignee Assignee) (*Task, error) {
	var out Task
	if err := tc.client.put(ctx, apiPath("tasks", id, "assignee"), assignee, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (tc *TasksClient) Complete(ctx context.Context, id string) (*Task, error) {
	var out Task
	if err := tc.client.post(ctx, apiPath("tasks", id, "complete"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (tc *TasksClient) AttachDocument(ctx context.Context, id string, file FileUpload) (*Task, error) {
	var out Task
	if err := tc.client.post(ctx, apiPath("tasks", id, "documents"), file, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (tc *TasksClient) DetachDocument(ctx context.Context, id, documentID string) (*Task, error) {
	var out Task
	if err := tc.client.delete(ctx, apiPath("tasks", id, "documents", documentID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (tc *TasksClient) Delete(ctx context.Context, id string) error {
	return tc.client.delete(ctx, apiPath("tasks", id), nil)
}

//Personal.AI order the ending
