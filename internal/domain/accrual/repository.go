package accrual

import (
	"context"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// Filter narrows List. Zero fields do not filter.
type Filter struct {
	TaskID string
	Status Status
	From   time.Time
	To     time.Time
	Limit  int
}

// Matches reports whether a satisfies the filter. In-memory stores use it.
func (f Filter) Matches(a *Accrual) bool {
	if f.TaskID != "" && a.TaskID != f.TaskID {
		return false
	}
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if !f.From.IsZero() && a.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !a.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Status          *Status
	RemainingAmount []Money
	Files           []common.Document
}

// Apply writes the non-nil patch fields onto a.
func (p Patch) Apply(a *Accrual, now time.Time) error {
	if p.Status != nil {
		if !p.Status.IsValid() {
			_, err := ParseStatus(string(*p.Status))
			return err
		}
		a.Status = *p.Status
	}
	if p.RemainingAmount != nil {
		a.RemainingAmount = CloneList(p.RemainingAmount)
	}
	if p.Files != nil {
		a.Files = p.Files
	}
	a.UpdatedAt = now
	return nil
}

// Repository persists accruals.
type Repository interface {
	Create(ctx context.Context, a *Accrual) error
	GetByID(ctx context.Context, id string) (*Accrual, error)
	Update(ctx context.Context, id string, patch Patch) error
	ListByTaskID(ctx context.Context, taskID string) ([]*Accrual, error)
	List(ctx context.Context, filter Filter) ([]*Accrual, error)
}

//Personal.AI order the ending
