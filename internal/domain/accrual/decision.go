package accrual

import (
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// Outcome is the billing path chosen for a newly created task.
type Outcome string

const (
	// OutcomeFree: the transaction is fee-free and nothing is billed.
	OutcomeFree Outcome = "free"

	// OutcomeImmediate: an accrual is created together with the task.
	OutcomeImmediate Outcome = "immediate"

	// OutcomeDeferred: a follow-up "create accrual" task is raised so that a
	// person enters the billing data later.
	OutcomeDeferred Outcome = "deferred"
)

// String returns the outcome name.
func (o Outcome) String() string { return string(o) }

// DecisionInput is what the policy looks at. Fee is nil when the caller
// supplied no fee data at all.
type DecisionInput struct {
	Free bool
	Fee  *FeeInput
}

// Decide applies the billing precedence Free, then Immediate, then
// Deferred. It is total: every input yields exactly one outcome.
func Decide(in DecisionInput) Outcome {
	switch {
	case in.Free:
		return OutcomeFree
	case in.Fee != nil && in.Fee.HasPositiveFee():
		return OutcomeImmediate
	default:
		return OutcomeDeferred
	}
}

// ValidateDecisionInput rejects fee data that cannot be billed: negative
// amounts, or fee data whose components are all zero on a transaction that is
// not flagged free. It runs before any write.
func ValidateDecisionInput(in DecisionInput) error {
	if in.Fee == nil {
		return nil
	}
	if err := in.Fee.Validate(); err != nil {
		return err
	}
	if !in.Free && !in.Fee.HasPositiveFee() {
		return errors.New(errors.ErrCodeInvalidFee, "fee amounts must be greater than zero").
			WithDetail("omit the fee to defer billing or flag the transaction as free")
	}
	return nil
}

//Personal.AI order the ending
