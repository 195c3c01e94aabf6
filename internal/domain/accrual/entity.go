package accrual

import (
	"strings"
	"time"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
	"github.com/turtacn/KeyIP-Docket/pkg/types/common"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status
// ─────────────────────────────────────────────────────────────────────────────

// Status is the payment state of an accrual.
type Status string

const (
	StatusUnpaid        Status = "unpaid"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusUnpaid, StatusPartiallyPaid, StatusPaid:
		return true
	}
	return false
}

// ParseStatus parses a status name case-insensitively.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", errors.Newf(errors.ErrCodeInvalidAccrualStatus, "unknown accrual status %q", s)
	}
	return st, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Accrual
// ─────────────────────────────────────────────────────────────────────────────

// Accrual is a billing record tied to exactly one task.
//
// TotalAmount always equals CalculateTotal over the record's own fee fields,
// and RemainingAmount starts equal to it.
type Accrual struct {
	ID        string `json:"id"`
	TaskID    string `json:"task_id"`
	TaskTitle string `json:"task_title,omitempty"`

	OfficialFee        Money   `json:"official_fee"`
	ServiceFee         Money   `json:"service_fee"`
	VATRate            float64 `json:"vat_rate"`
	ApplyVATToOfficial bool    `json:"apply_vat_to_official"`

	TotalAmount     []Money `json:"total_amount"`
	RemainingAmount []Money `json:"remaining_amount"`
	Status          Status  `json:"status"`

	OfficialFeeParty *common.Party `json:"official_fee_party,omitempty"`
	ServiceFeeParty  *common.Party `json:"service_fee_party,omitempty"`

	Files []common.Document `json:"files,omitempty"`

	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewAccrualParams collects the inputs of NewAccrual.
type NewAccrualParams struct {
	TaskID           string
	TaskTitle        string
	Fee              FeeInput
	DefaultCurrency  string
	OfficialFeeParty *common.Party
	ServiceFeeParty  *common.Party
	Files            []common.Document
	CreatedBy        string
}

// NewAccrual builds an unpaid accrual whose totals are computed from the fee
// input. At least one fee component must be positive.
func NewAccrual(p NewAccrualParams) (*Accrual, error) {
	if strings.TrimSpace(p.TaskID) == "" {
		return nil, errors.InvalidParam("accrual requires a task id")
	}
	fee := p.Fee.Normalized(p.DefaultCurrency)
	if err := fee.Validate(); err != nil {
		return nil, err
	}
	if !fee.HasPositiveFee() {
		return nil, errors.New(errors.ErrCodeInvalidFee, "accrual requires a positive fee")
	}

	total := CalculateTotal(fee)
	now := time.Now().UTC()
	return &Accrual{
		ID:                 string(common.NewID()),
		TaskID:             p.TaskID,
		TaskTitle:          p.TaskTitle,
		OfficialFee:        fee.OfficialFee,
		ServiceFee:         fee.ServiceFee,
		VATRate:            fee.VATRate,
		ApplyVATToOfficial: fee.ApplyVATToOfficial,
		TotalAmount:        total,
		RemainingAmount:    CloneList(total),
		Status:             StatusUnpaid,
		OfficialFeeParty:   p.OfficialFeeParty,
		ServiceFeeParty:    p.ServiceFeeParty,
		Files:              p.Files,
		CreatedBy:          p.CreatedBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// FeeInput returns the fee fields of the record.
func (a *Accrual) FeeInput() FeeInput {
	return FeeInput{
		OfficialFee:        a.OfficialFee,
		ServiceFee:         a.ServiceFee,
		VATRate:            a.VATRate,
		ApplyVATToOfficial: a.ApplyVATToOfficial,
	}
}

// Validate checks the record's structural invariants, including that the
// stored total matches a fresh calculation.
func (a *Accrual) Validate() error {
	if a.ID == "" || a.TaskID == "" {
		return errors.InvalidParam("accrual id and task id are required")
	}
	if !a.Status.IsValid() {
		return errors.Newf(errors.ErrCodeInvalidAccrualStatus, "unknown accrual status %q", a.Status)
	}
	want := CalculateTotal(a.FeeInput())
	if len(want) != len(a.TotalAmount) {
		return errors.New(errors.ErrCodeInvalidFee, "total amount does not match fees")
	}
	for i := range want {
		if want[i] != a.TotalAmount[i] {
			return errors.New(errors.ErrCodeInvalidFee, "total amount does not match fees")
		}
	}
	return nil
}

//Personal.AI order the ending
