package accrual

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func TestDecide(t *testing.T) {
	fee := &FeeInput{OfficialFee: Money{100, "TRY"}}
	zero := &FeeInput{}

	tests := []struct {
		name string
		in   DecisionInput
		want Outcome
	}{
		{"free without fees", DecisionInput{Free: true}, OutcomeFree},
		{"free wins over fees", DecisionInput{Free: true, Fee: fee}, OutcomeFree},
		{"fees are billed immediately", DecisionInput{Fee: fee}, OutcomeImmediate},
		{"service fee alone is enough", DecisionInput{Fee: &FeeInput{ServiceFee: Money{1, "USD"}}}, OutcomeImmediate},
		{"no fee data defers", DecisionInput{}, OutcomeDeferred},
		{"zero fees defer", DecisionInput{Fee: zero}, OutcomeDeferred},
		{"sub-cent fees defer", DecisionInput{Fee: &FeeInput{OfficialFee: Money{0.004, "TRY"}}}, OutcomeDeferred},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.in))
		})
	}
}

func TestDecide_Exclusive(t *testing.T) {
	fees := []*FeeInput{
		nil,
		{},
		{OfficialFee: Money{1, "TRY"}},
		{ServiceFee: Money{1, "TRY"}},
		{OfficialFee: Money{-1, "TRY"}},
		{OfficialFee: Money{1, "TRY"}, ServiceFee: Money{1, "USD"}},
	}
	for _, free := range []bool{true, false} {
		for _, f := range fees {
			out := Decide(DecisionInput{Free: free, Fee: f})
			fired := 0
			for _, o := range []Outcome{OutcomeFree, OutcomeImmediate, OutcomeDeferred} {
				if out == o {
					fired++
				}
			}
			assert.Equal(t, 1, fired)
		}
	}
}

func TestValidateDecisionInput(t *testing.T) {
	assert.NoError(t, ValidateDecisionInput(DecisionInput{}))
	assert.NoError(t, ValidateDecisionInput(DecisionInput{Free: true, Fee: &FeeInput{}}))
	assert.NoError(t, ValidateDecisionInput(DecisionInput{Fee: &FeeInput{ServiceFee: Money{5, "TRY"}}}))

	err := ValidateDecisionInput(DecisionInput{Fee: &FeeInput{}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee))

	err = ValidateDecisionInput(DecisionInput{Fee: &FeeInput{OfficialFee: Money{0.004, "TRY"}, ServiceFee: Money{0.003, "USD"}}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee), "amounts that round to zero are not billable")

	err = ValidateDecisionInput(DecisionInput{Free: true, Fee: &FeeInput{OfficialFee: Money{-5, "TRY"}}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee))
}

//Personal.AI order the ending
