package tasking

import (
	"time"
)

// Event types published by the workflow. The messaging adapter maps each to
// its topic.
const (
	EventTaskCreated       = "task.created"
	EventSideEffectsFailed = "side_effects.failed"
)

// TaskCreatedPayload is published once a task is persisted.
type TaskCreatedPayload struct {
	TaskID          string     `json:"task_id"`
	TaskType        string     `json:"task_type"`
	Title           string     `json:"title"`
	AssetID         string     `json:"asset_id,omitempty"`
	AssigneeID      string     `json:"assignee_id,omitempty"`
	OfficialDueDate *time.Time `json:"official_due_date,omitempty"`
	AccrualOutcome  string     `json:"accrual_outcome"`
	CreatedBy       string     `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

//Personal.AI order the ending
