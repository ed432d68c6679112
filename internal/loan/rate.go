package loan

import (
	"github.com/shopspring/decimal"

	dErrors "loancore/pkg/domain-errors"
)

// ratePrecision is the number of fractional digits kept when deriving
// periodic rates. The amortization factor needs at least 10.
const ratePrecision = 10

var (
	monthsPerYear = decimal.NewFromInt(12)
	daysPerYear   = decimal.NewFromInt(365)
	maxAnnualRate = decimal.NewFromInt(1)
)

// InterestRate is an annual rate expressed as a decimal fraction (0.06 for
// 6%). Valid range is [0, 1].
type InterestRate struct {
	annual decimal.Decimal
}

// NewInterestRate validates and builds an annual interest rate.
func NewInterestRate(annual decimal.Decimal) (InterestRate, error) {
	if annual.IsNegative() {
		return InterestRate{}, dErrors.New(dErrors.CodeInvalidInput, "interest rate cannot be negative")
	}
	if annual.GreaterThan(maxAnnualRate) {
		return InterestRate{}, dErrors.New(dErrors.CodeInvalidInput, "interest rate cannot exceed 100%")
	}
	return InterestRate{annual: annual}, nil
}

// MustRate is for constants and tests with known-valid input.
func MustRate(annual string) InterestRate {
	r, err := NewInterestRate(decimal.RequireFromString(annual))
	if err != nil {
		panic(err)
	}
	return r
}

// parseRate rebuilds a rate from its persisted string form.
func parseRate(s string) (InterestRate, error) {
	annual, err := decimal.NewFromString(s)
	if err != nil {
		return InterestRate{}, dErrors.Wrap(dErrors.CodeInvalidInput, "invalid interest rate", err)
	}
	return NewInterestRate(annual)
}

// Annual returns the annual rate as a decimal fraction.
func (r InterestRate) Annual() decimal.Decimal { return r.annual }

// Monthly returns the annual rate divided by 12, half-up at 10 digits.
func (r InterestRate) Monthly() decimal.Decimal {
	return r.annual.DivRound(monthsPerYear, ratePrecision)
}

// Daily returns the annual rate divided by 365, half-up at 10 digits.
func (r InterestRate) Daily() decimal.Decimal {
	return r.annual.DivRound(daysPerYear, ratePrecision)
}

func (r InterestRate) IsZero() bool { return r.annual.IsZero() }

func (r InterestRate) String() string { return r.annual.String() }
