package asset

import (
	"context"
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title              *string
	RegistrationNumber *string
	RegistrationDate   *time.Time
	RenewalDate        *time.Time
	Applicants         *[]common.Party
	NiceClasses        *[]NiceClass
}

// Apply writes the non-nil fields onto a.
func (p Patch) Apply(a *Asset, now time.Time) {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.RegistrationNumber != nil {
		a.RegistrationNumber = *p.RegistrationNumber
	}
	if p.RegistrationDate != nil {
		a.RegistrationDate = cloneTime(p.RegistrationDate)
	}
	if p.RenewalDate != nil {
		a.RenewalDate = cloneTime(p.RenewalDate)
	}
	if p.Applicants != nil {
		a.Applicants = append([]common.Party(nil), (*p.Applicants)...)
	}
	if p.NiceClasses != nil {
		a.NiceClasses = append([]NiceClass(nil), (*p.NiceClasses)...)
	}
	a.UpdatedAt = now
}

// Matches reports whether a matches the free-text query on title,
// application number or brand text, case-insensitively. In-memory stores
// use it; SQL stores implement the same predicate with ILIKE/LIKE.
func Matches(a *Asset, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range []string{a.Title, a.ApplicationNumber, a.BrandText} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// Repository persists assets and their transaction history. GetByID and
// Update return AST_001 for unknown ids; FindByApplicationNumber returns nil
// and no error when nothing matches.
type Repository interface {
	Create(ctx context.Context, a *Asset) error
	Update(ctx context.Context, id string, patch Patch) error
	GetByID(ctx context.Context, id string) (*Asset, error)
	List(ctx context.Context, page common.Pagination) ([]*Asset, error)
	FindByApplicationNumber(ctx context.Context, applicationNumber string) (*Asset, error)
	Search(ctx context.Context, query string, limit int) ([]*Asset, error)

	AddTransaction(ctx context.Context, tx *Transaction) error
	ListTransactions(ctx context.Context, assetID string) ([]*Transaction, error)
}

//Personal.AI order the ending
