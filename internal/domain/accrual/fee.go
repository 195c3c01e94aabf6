package accrual

import (
	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

// FeeInput holds the two independently priced fee components of an accrual.
type FeeInput struct {
	OfficialFee        Money   `json:"official_fee"`
	ServiceFee         Money   `json:"service_fee"`
	VATRate            float64 `json:"vat_rate"`
	ApplyVATToOfficial bool    `json:"apply_vat_to_official"`
}

// HasPositiveFee reports whether the priced fee holds anything billable,
// judged on the totals after VAT and rounding to the minor unit.
func (f FeeInput) HasPositiveFee() bool {
	return len(CalculateTotal(f)) > 0
}

// Normalized returns a copy with both currency codes upper-cased and blanks
// replaced by defaultCurrency.
func (f FeeInput) Normalized(defaultCurrency string) FeeInput {
	f.OfficialFee.Currency = NormalizeCurrency(f.OfficialFee.Currency, defaultCurrency)
	f.ServiceFee.Currency = NormalizeCurrency(f.ServiceFee.Currency, defaultCurrency)
	return f
}

// Validate rejects negative amounts and negative VAT rates.
func (f FeeInput) Validate() error {
	if f.OfficialFee.Amount < 0 {
		return errors.New(errors.ErrCodeInvalidFee, "official fee must not be negative")
	}
	if f.ServiceFee.Amount < 0 {
		return errors.New(errors.ErrCodeInvalidFee, "service fee must not be negative")
	}
	if f.VATRate < 0 {
		return errors.New(errors.ErrCodeInvalidFee, "vat rate must not be negative")
	}
	return nil
}

// CalculateTotal prices the two fee components.
//
// VAT always applies to the service fee and applies to the official fee only
// when ApplyVATToOfficial is set. Components of zero or less, after rounding,
// are left out.
// The result holds one entry per currency, official currency first; when both
// components share a currency they are summed, official then service. Amounts
// are rounded to two decimals.
func CalculateTotal(in FeeInput) []Money {
	in = in.Normalized("")
	factor := 1 + in.VATRate/100

	official := in.OfficialFee.Amount
	if in.ApplyVATToOfficial {
		official *= factor
	}
	service := in.ServiceFee.Amount * factor

	out := make([]Money, 0, 2)
	add := func(amount float64, currency string) {
		if amount <= 0 || roundMinor(amount) <= 0 {
			return
		}
		for i := range out {
			if out[i].Currency == currency {
				out[i].Amount = roundMinor(out[i].Amount + amount)
				return
			}
		}
		out = append(out, Money{Amount: roundMinor(amount), Currency: currency})
	}
	add(official, in.OfficialFee.Currency)
	add(service, in.ServiceFee.Currency)
	return out
}

//Personal.AI order the ending
