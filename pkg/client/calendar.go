package client

import (
	"context"
	"fmt"
	"time"
)

// DueDateRequest asks which due dates a task type would be given.
type DueDateRequest struct {
	TaskType           string     `json:"task_type"`
	BaseDate           *time.Time `json:"base_date,omitempty"`
	BulletinID         string     `json:"bulletin_id,omitempty"`
	BulletinDate       *time.Time `json:"bulletin_date,omitempty"`
	OfficialDueDate    *time.Time `json:"official_due_date,omitempty"`
	OperationalDueDate *time.Time `json:"operational_due_date,omitempty"`
}

// DueDatePlan is the computed schedule.
type DueDatePlan struct {
	OfficialDueDate    *time.Time `json:"official_due_date,omitempty"`
	OperationalDueDate *time.Time `json:"operational_due_date,omitempty"`
	RenewalDate        *time.Time `json:"renewal_date,omitempty"`
	BulletinDate       *time.Time `json:"bulletin_date,omitempty"`
	BulletinNo         string     `json:"bulletin_no,omitempty"`
	Warnings           []Warning  `json:"warnings,omitempty"`
}

type CalendarClient struct {
	client *Client
}

// DueDates previews the due dates of req.TaskType without creating a task.
func (cc *CalendarClient) DueDates(ctx context.Context, req DueDateRequest) (*DueDatePlan, error) {
	if req.TaskType == "" {
		return nil, fmt.Errorf("%w: task_type is required", ErrInvalidConfig)
	}
	var out DueDatePlan
	if err := cc.client.post(ctx, apiPath("calendar", "due-dates"), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
