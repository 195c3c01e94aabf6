// Package task defines the docket task aggregate, its closed type table, the
// status transition rules and the persistence ports for tasks and the
// deferred-billing sequencer.
package task

import (
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status
// ─────────────────────────────────────────────────────────────────────────────

// Status is the workflow state of a task.
type Status string

const (
	StatusOpen                    Status = "open"
	StatusInProgress              Status = "in-progress"
	StatusCompleted               Status = "completed"
	StatusPending                 Status = "pending"
	StatusCancelled               Status = "cancelled"
	StatusOnHold                  Status = "on-hold"
	StatusAwaitingApproval        Status = "awaiting-approval"
	StatusAwaitingClientApproval  Status = "awaiting-client-approval"
	StatusAwaitingAccrualApproval Status = "awaiting-accrual-approval"
)

var allStatuses = []Status{
	StatusOpen, StatusInProgress, StatusCompleted, StatusPending, StatusCancelled,
	StatusOnHold, StatusAwaitingApproval, StatusAwaitingClientApproval, StatusAwaitingAccrualApproval,
}

// Statuses returns every status in declaration order.
func Statuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, v := range allStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is completed or cancelled.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsAwaitingApproval reports whether s is awaiting-approval or one of its
// sub-states.
func (s Status) IsAwaitingApproval() bool {
	switch s {
	case StatusAwaitingApproval, StatusAwaitingClientApproval, StatusAwaitingAccrualApproval:
		return true
	}
	return false
}

// ParseStatus parses a status name. Underscores are accepted in place of
// hyphens.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"))
	if !st.IsValid() {
		return "", errors.Newf(errors.ErrCodeInvalidStatus, "unknown task status %q", s)
	}
	return st, nil
}

// CanTransition reports whether a task may move from one status to another.
// Terminal statuses are closed except that a completed task may be reopened.
// Moving to the current status is a no-op and always allowed.
func CanTransition(from, to Status) bool {
	if !from.IsValid() || !to.IsValid() {
		return false
	}
	if from == to {
		return true
	}
	switch from {
	case StatusCompleted:
		return to == StatusOpen
	case StatusCancelled:
		return false
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// Priority
// ─────────────────────────────────────────────────────────────────────────────

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ParsePriority parses a priority, defaulting to medium when s is empty.
func ParsePriority(s string) (Priority, error) {
	switch p := Priority(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return PriorityMedium, nil
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", errors.Validation("unknown task priority").WithDetail(s)
}

// ─────────────────────────────────────────────────────────────────────────────
// Task aggregate
// ─────────────────────────────────────────────────────────────────────────────

// Detail keys written by the orchestrator.
const (
	DetailRelatedTaskID = "relatedTaskId"
	DetailRenewalDate   = "renewalDate"
	DetailBulletinNo    = "bulletinNo"
	DetailBulletinDate  = "bulletinDate"
	DetailOriginTitle   = "originTaskTitle"
	DetailOriginType    = "originTaskType"
)

// Assignee is the person a task is assigned to.
type Assignee struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// IsZero reports whether no assignee is set.
func (a Assignee) IsZero() bool { return a.ID == "" }

// DisplayFields are denormalized copies of asset data, captured once when the
// task is created and never refreshed.
type DisplayFields struct {
	ApplicationNumber string `json:"application_number,omitempty"`
	AssetTitle        string `json:"asset_title,omitempty"`
	ApplicantName     string `json:"applicant_name,omitempty"`
}

// Task is a unit of docket work.
type Task struct {
	ID          string   `json:"id"`
	Type        Type     `json:"task_type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Assignee    Assignee `json:"assignee"`
	Status      Status   `json:"status"`

	OperationalDueDate *time.Time `json:"operational_due_date,omitempty"`
	OfficialDueDate    *time.Time `json:"official_due_date,omitempty"`

	Details   common.Metadata   `json:"details,omitempty"`
	Documents []common.Document `json:"documents,omitempty"`

	AssetID        string         `json:"asset_id,omitempty"`
	RelatedParties []common.Party `json:"related_parties,omitempty"`
	Owners         []common.Party `json:"owners,omitempty"`
	Opponent       *common.Party  `json:"opponent,omitempty"`
	Display        DisplayFields  `json:"display"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the structural invariants of t.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.InvalidParam("task id is required")
	}
	if !t.Type.IsValid() {
		return errors.Newf(errors.ErrCodeTaskTypeUnknown, "unknown task type %q", t.Type)
	}
	if strings.TrimSpace(t.Title) == "" {
		return errors.Validation("task title is required")
	}
	if !t.Status.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidStatus, "unknown task status %q", t.Status)
	}
	if t.OperationalDueDate != nil && t.OfficialDueDate != nil && t.OperationalDueDate.After(*t.OfficialDueDate) {
		return errors.Validation("operational due date is after the official due date")
	}
	return nil
}

// Detail returns the string value of a details key, or "".
func (t *Task) Detail(key string) string {
	if t.Details == nil {
		return ""
	}
	if s, ok := t.Details[key].(string); ok {
		return s
	}
	return ""
}

// SetDetail stores a details value, allocating the map when needed.
func (t *Task) SetDetail(key string, value interface{}) {
	if t.Details == nil {
		t.Details = common.Metadata{}
	}
	t.Details[key] = value
}

// RelatedTaskID returns the back-reference carried by follow-up tasks.
func (t *Task) RelatedTaskID() string {
	return t.Detail(DetailRelatedTaskID)
}

// ChangeStatus moves t to status when the transition is allowed.
func (t *Task) ChangeStatus(status Status, now time.Time) error {
	if !status.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidStatus, "unknown task status %q", status)
	}
	if !CanTransition(t.Status, status) {
		return errors.Newf(errors.ErrCodeInvalidTransition, "cannot move task from %s to %s", t.Status, status).
			WithDetail("task_id=" + t.ID)
	}
	t.Status = status
	t.UpdatedAt = now
	return nil
}

// Complete marks t completed.
func (t *Task) Complete(now time.Time) error {
	return t.ChangeStatus(StatusCompleted, now)
}

// Assign replaces the assignee. Terminal tasks cannot be reassigned.
func (t *Task) Assign(a Assignee, now time.Time) error {
	if strings.TrimSpace(a.ID) == "" {
		return errors.Validation("assignee id is required")
	}
	if t.Status.IsTerminal() {
		return errors.Newf(errors.ErrCodeInvalidTransition, "cannot reassign a %s task", t.Status)
	}
	t.Assignee = a
	t.UpdatedAt = now
	return nil
}

// AttachDocument appends doc.
func (t *Task) AttachDocument(doc common.Document, now time.Time) {
	t.Documents = append(t.Documents, doc)
	t.UpdatedAt = now
}

// DetachDocument removes the document with the given id and returns it.
func (t *Task) DetachDocument(documentID string, now time.Time) (common.Document, error) {
	for i, d := range t.Documents {
		if d.ID == documentID {
			t.Documents = append(t.Documents[:i:i], t.Documents[i+1:]...)
			t.UpdatedAt = now
			return d, nil
		}
	}
	return common.Document{}, errors.Newf(errors.ErrCodeDocumentNotFound, "document %s not found on task %s", documentID, t.ID)
}

// Clone returns a deep copy of t, sufficient for in-memory stores.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.OperationalDueDate != nil {
		d := *t.OperationalDueDate
		cp.OperationalDueDate = &d
	}
	if t.OfficialDueDate != nil {
		d := *t.OfficialDueDate
		cp.OfficialDueDate = &d
	}
	if t.Details != nil {
		cp.Details = make(common.Metadata, len(t.Details))
		for k, v := range t.Details {
			cp.Details[k] = v
		}
	}
	cp.Documents = append([]common.Document(nil), t.Documents...)
	cp.RelatedParties = append([]common.Party(nil), t.RelatedParties...)
	cp.Owners = append([]common.Party(nil), t.Owners...)
	if t.Opponent != nil {
		o := *t.Opponent
		cp.Opponent = &o
	}
	return &cp
}

//Personal.AI order the ending
