// Package money provides functionality for handling monetary values.
//
// Amounts are decimals rounded to two places. Percent shares are rounded
// per share, so the sum of shares may differ from the share of the sum.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every stored amount carries.
const Scale int32 = 2

var hundred = decimal.NewFromInt(100)

// Money is an amount in a specific currency.
type Money struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency Code            `json:"currency"`
}

// New builds a Money from a float, rounding to Scale.
func New(amount float64, currency string) (Money, error) {
	code, err := ParseCode(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: FromFloat(amount), Currency: code}, nil
}

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrMismatchedCurrencies
	}
	return Money{Amount: m.Amount.Add(other.Amount), Currency: m.Currency}, nil
}

// Sub returns m - other. Currencies must match and the result must not be negative.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, ErrMismatchedCurrencies
	}
	res := m.Amount.Sub(other.Amount)
	if res.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{Amount: res, Currency: m.Currency}, nil
}

// String renders "12.50 GBP".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(Scale), m.Currency)
}

// Share returns round(amount * percent / 100, 2).
func Share(amount, percent decimal.Decimal) decimal.Decimal {
	return amount.Mul(percent).Div(hundred).Round(Scale)
}

// Round rounds d half away from zero to Scale places.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// FromFloat converts an API amount to a decimal rounded to Scale.
func FromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f).Round(Scale)
}

// Float converts d to float64 for JSON responses.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Round(Scale).Float64()
	return f
}

// Sum adds all values.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}
