// Package roundup computes how much of a payment is set aside as savings.
package roundup

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EntryPath identifies the payment flow a transaction arrived through.
type EntryPath string

const (
	EntryBankGateway  EntryPath = "bank_gateway"
	EntryCardCheckout EntryPath = "card_checkout"
)

// Valid reports whether p is a known entry path.
func (p EntryPath) Valid() bool {
	return p == EntryBankGateway || p == EntryCardCheckout
}

// Policy derives the saved amount from a transaction amount.
type Policy interface {
	Saved(amount decimal.Decimal) decimal.Decimal
}

// CeilRoundUp saves the gap to the next whole currency unit: ceil(A) - A.
// Whole amounts save zero.
type CeilRoundUp struct{}

func (CeilRoundUp) Saved(amount decimal.Decimal) decimal.Decimal {
	return amount.Ceil().Sub(amount)
}

// Percentage saves a fixed share of the amount, rounded to two places.
type Percentage struct {
	// Rate is a fraction, e.g. 0.05 for five percent.
	Rate decimal.Decimal
}

// NewPercentage builds a policy from a percent value such as 5 or 2.5.
func NewPercentage(percent decimal.Decimal) Percentage {
	return Percentage{Rate: percent.Div(decimal.NewFromInt(100))}
}

func (p Percentage) Saved(amount decimal.Decimal) decimal.Decimal {
	return amount.Mul(p.Rate).Round(2)
}

// Policies maps each entry path to its policy.
type Policies map[EntryPath]Policy

// DefaultPolicies returns round-up for the bank gateway and a percentage
// share for card checkout.
func DefaultPolicies(cardPercent decimal.Decimal) Policies {
	return Policies{
		EntryBankGateway:  CeilRoundUp{},
		EntryCardCheckout: NewPercentage(cardPercent),
	}
}

// Saved applies the policy registered for path.
func (p Policies) Saved(path EntryPath, amount decimal.Decimal) (decimal.Decimal, error) {
	policy, ok := p[path]
	if !ok {
		return decimal.Zero, fmt.Errorf("no savings policy for entry path %q", path)
	}
	return policy.Saved(amount), nil
}
