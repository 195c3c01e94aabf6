package task

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Patch
// ─────────────────────────────────────────────────────────────────────────────

// Patch is a partial update. Nil fields are left unchanged; Details entries
// are merged key by key.
type Patch struct {
	Title              *string
	Description        *string
	Priority           *Priority
	Status             *Status
	Assignee           *Assignee
	OperationalDueDate *time.Time
	OfficialDueDate    *time.Time
	Documents          *[]common.Document
	Details            common.Metadata
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Priority == nil && p.Status == nil &&
		p.Assignee == nil && p.OperationalDueDate == nil && p.OfficialDueDate == nil &&
		p.Documents == nil && len(p.Details) == 0
}

// Apply writes the patch onto t without checking transitions; callers
// validate through the aggregate methods first.
func (p Patch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Assignee != nil {
		t.Assignee = *p.Assignee
	}
	if p.OperationalDueDate != nil {
		d := *p.OperationalDueDate
		t.OperationalDueDate = &d
	}
	if p.OfficialDueDate != nil {
		d := *p.OfficialDueDate
		t.OfficialDueDate = &d
	}
	if p.Documents != nil {
		t.Documents = append([]common.Document(nil), (*p.Documents)...)
	}
	for k, v := range p.Details {
		t.SetDetail(k, v)
	}
	t.UpdatedAt = now
}

// ─────────────────────────────────────────────────────────────────────────────
// Ports
// ─────────────────────────────────────────────────────────────────────────────

// Repository persists tasks. Implementations return TASK_001 from GetByID,
// Update and Delete when the task does not exist.
type Repository interface {
	Create(ctx context.Context, t *Task) error
	Update(ctx context.Context, id string, patch Patch) error
	GetByID(ctx context.Context, id string) (*Task, error)
	ListByAssignee(ctx context.Context, userID string) ([]*Task, error)
	// ListByStatus filters by status and, when userID is non-empty, by assignee.
	ListByStatus(ctx context.Context, status Status, userID string) ([]*Task, error)
	FindByRelatedTask(ctx context.Context, relatedTaskID string, typ Type) ([]*Task, error)
	Delete(ctx context.Context, id string) error
}

// Sequencer allocates the next deferred-billing identifier and persists the
// task built for it as one atomic unit. build is called with the allocated id
// and may be called again when the allocation is retried.
type Sequencer interface {
	CreateSequenced(ctx context.Context, build func(id string) (*Task, error)) (*Task, error)
}

// SequenceName is the counter row used for deferred-billing task ids.
const SequenceName = "deferred_billing_task"

const sequencePrefix = "T-"

// FormatSequenceID renders n as "T-<n>".
func FormatSequenceID(n int64) string {
	return sequencePrefix + strconv.FormatInt(n, 10)
}

// ParseSequenceID extracts n from "T-<n>".
func ParseSequenceID(id string) (int64, bool) {
	if !strings.HasPrefix(id, sequencePrefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(id[len(sequencePrefix):], 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// ─────────────────────────────────────────────────────────────────────────────
// Assignment rules
// ─────────────────────────────────────────────────────────────────────────────

// AssignmentRule says who receives new tasks of a type.
type AssignmentRule struct {
	TaskType            Type     `json:"task_type"`
	AssigneeIDs         []string `json:"assignee_ids"`
	AllowManualOverride bool     `json:"allow_manual_override"`
}

// PrimaryAssignee returns the first assignee id, or "".
func (r *AssignmentRule) PrimaryAssignee() string {
	if r == nil {
		return ""
	}
	for _, id := range r.AssigneeIDs {
		if s := strings.TrimSpace(id); s != "" {
			return s
		}
	}
	return ""
}

// Permits reports whether assigneeID may be chosen under the rule. Without a
// rule, or with manual override allowed, any assignee is permitted.
func (r *AssignmentRule) Permits(assigneeID string) bool {
	if r == nil || r.AllowManualOverride || len(r.AssigneeIDs) == 0 {
		return true
	}
	for _, id := range r.AssigneeIDs {
		if id == assigneeID {
			return true
		}
	}
	return false
}

// AssignmentRuleRepository stores assignment rules. GetByTaskType returns
// nil and no error when no rule exists.
type AssignmentRuleRepository interface {
	GetByTaskType(ctx context.Context, typ Type) (*AssignmentRule, error)
	Upsert(ctx context.Context, rule *AssignmentRule) error
}

//Personal.AI order the ending
