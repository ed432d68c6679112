// Package money provides the shared monetary value object. Amounts are
// arbitrary-precision decimals tagged with an ISO 4217 currency code;
// arithmetic across currencies is rejected at the boundary.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	dErrors "loancore/pkg/domain-errors"
)

// Money is an immutable amount + currency pair.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// New builds a Money value. The currency code must be a three-letter code.
func New(amount decimal.Decimal, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, dErrors.New(dErrors.CodeInvalidInput, "currency must be a three-letter ISO code")
	}
	return Money{amount: amount, currency: currency}, nil
}

// Parse builds a Money value from an external decimal string, for request
// parsing at the HTTP boundary.
func Parse(amount string, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, dErrors.Wrap(dErrors.CodeInvalidInput, "invalid monetary amount", err)
	}
	return New(d, currency)
}

// MustNew is for constants and tests where the inputs are known-valid.
func MustNew(amount string, currency string) Money {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		panic(fmt.Sprintf("money: invalid amount %q: %v", amount, err))
	}
	m, err := New(d, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns the zero amount in the given currency.
func Zero(currency string) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() string        { return m.currency }

func (m Money) IsZero() bool     { return m.amount.IsZero() }
func (m Money) IsPositive() bool { return m.amount.IsPositive() }
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// Add returns m + other. Currencies must match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Subtract returns m - other. Currencies must match.
func (m Money) Subtract(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// Multiply scales the amount by a dimensionless factor.
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor), currency: m.currency}
}

// Divide splits the amount by a dimensionless divisor.
func (m Money) Divide(divisor decimal.Decimal) (Money, error) {
	if divisor.IsZero() {
		return Money{}, dErrors.New(dErrors.CodeInvalidInput, "division by zero")
	}
	return Money{amount: m.amount.Div(divisor), currency: m.currency}, nil
}

// Compare returns -1, 0 or 1. Currencies must match.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal reports exact equality of amount and currency. Amounts compare by
// value, so 10.0 and 10.00 are equal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// GreaterThan reports m > other, treating currency mismatch as false.
func (m Money) GreaterThan(other Money) bool {
	c, err := m.Compare(other)
	return err == nil && c > 0
}

// LessThan reports m < other, treating currency mismatch as false.
func (m Money) LessThan(other Money) bool {
	c, err := m.Compare(other)
	return err == nil && c < 0
}

// Round rounds half-up to the given number of fractional digits. Used only
// at currency boundaries (installment amounts); internal math stays exact.
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

func (m Money) String() string {
	return m.amount.String() + " " + m.currency
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("currency mismatch: %s vs %s", m.currency, other.currency))
	}
	return nil
}

type moneyJSON struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// MarshalJSON encodes the amount as a string so precision survives transport.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(raw.Amount)
	if err != nil {
		return fmt.Errorf("parse money amount: %w", err)
	}
	parsed, err := New(amount, raw.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
