package accrual

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

func TestNewAccrual(t *testing.T) {
	payer := &common.Party{Name: "Acme Ltd."}
	a, err := NewAccrual(NewAccrualParams{
		TaskID:    "task-1",
		TaskTitle: "Renewal of ACME",
		Fee: FeeInput{
			OfficialFee:        Money{100, "try"},
			ServiceFee:         Money{50, ""},
			VATRate:            20,
			ApplyVATToOfficial: true,
		},
		DefaultCurrency:  "TRY",
		OfficialFeeParty: payer,
		CreatedBy:        "u1",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "task-1", a.TaskID)
	assert.Equal(t, StatusUnpaid, a.Status)
	assert.Equal(t, "TRY", a.OfficialFee.Currency)
	assert.Equal(t, "TRY", a.ServiceFee.Currency)
	assert.Equal(t, []Money{{180, "TRY"}}, a.TotalAmount)
	assert.Equal(t, a.TotalAmount, a.RemainingAmount)
	assert.Same(t, payer, a.OfficialFeeParty)
	assert.NoError(t, a.Validate())

	a.RemainingAmount[0].Amount = 1
	assert.Equal(t, 180.0, a.TotalAmount[0].Amount, "remaining must not alias total")
}

func TestNewAccrual_Rejects(t *testing.T) {
	_, err := NewAccrual(NewAccrualParams{Fee: FeeInput{OfficialFee: Money{1, "TRY"}}})
	assert.True(t, errors.IsValidation(err))

	_, err = NewAccrual(NewAccrualParams{TaskID: "t", Fee: FeeInput{}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee))

	_, err = NewAccrual(NewAccrualParams{TaskID: "t", Fee: FeeInput{OfficialFee: Money{1, "TRY"}, VATRate: -2}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidFee))
}

func TestAccrual_ValidateDetectsTamperedTotal(t *testing.T) {
	a, err := NewAccrual(NewAccrualParams{TaskID: "t", Fee: FeeInput{ServiceFee: Money{10, "USD"}, VATRate: 20}})
	require.NoError(t, err)

	a.TotalAmount = []Money{{10, "USD"}}
	assert.True(t, errors.IsCode(a.Validate(), errors.ErrCodeInvalidFee))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Partially_Paid ")
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, s)

	_, err = ParseStatus("refunded")
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAccrualStatus))
}

func TestPatch_Apply(t *testing.T) {
	a := &Accrual{Status: StatusUnpaid, RemainingAmount: []Money{{10, "TRY"}}}
	paid := StatusPaid
	now := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)

	require.NoError(t, Patch{Status: &paid, RemainingAmount: []Money{}}.Apply(a, now))
	assert.Equal(t, StatusPaid, a.Status)
	assert.Empty(t, a.RemainingAmount)
	assert.Equal(t, now, a.UpdatedAt)

	bad := Status("void")
	err := Patch{Status: &bad}.Apply(a, now)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidAccrualStatus))
	assert.Equal(t, StatusPaid, a.Status)
}

func TestFilter_Matches(t *testing.T) {
	created := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	a := &Accrual{TaskID: "t1", Status: StatusUnpaid, CreatedAt: created}

	assert.True(t, Filter{}.Matches(a))
	assert.True(t, Filter{TaskID: "t1", Status: StatusUnpaid}.Matches(a))
	assert.False(t, Filter{TaskID: "t2"}.Matches(a))
	assert.False(t, Filter{Status: StatusPaid}.Matches(a))
	assert.True(t, Filter{From: created, To: created.Add(time.Second)}.Matches(a))
	assert.False(t, Filter{To: created}.Matches(a))
}

//Personal.AI order the ending
