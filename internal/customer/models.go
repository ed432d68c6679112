// Package customer holds the read-only customer capability consumed by the
// loan and eligibility contexts. Customer mastering lives elsewhere; this
// context only reads.
package customer

import (
	"time"

	id "loancore/pkg/domain"
	"loancore/pkg/money"
)

// Customer is the underwriting view of a customer.
type Customer struct {
	ID                         id.CustomerID `json:"id"`
	FullName                   string        `json:"full_name"`
	Email                      string        `json:"email"`
	Phone                      string        `json:"phone"`
	Active                     bool          `json:"active"`
	CreditScore                int           `json:"credit_score"` // 0 = not on file
	DateOfBirth                time.Time     `json:"date_of_birth"`
	MonthlyIncome              money.Money   `json:"monthly_income"`
	ExistingMonthlyObligations money.Money   `json:"existing_monthly_obligations"`
}

// Age in whole years at the given time.
func (c Customer) Age(now time.Time) int {
	if c.DateOfBirth.IsZero() {
		return 0
	}
	years := now.Year() - c.DateOfBirth.Year()
	anniversary := c.DateOfBirth.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

// HasCreditScore reports whether a bureau score is on file.
func (c Customer) HasCreditScore() bool {
	return c.CreditScore > 0
}
