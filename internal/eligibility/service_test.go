package eligibility

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loancore/internal/customer"
	id "loancore/pkg/domain"
	"loancore/pkg/money"
)

var assessNow = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

// goodCustomer passes every rule for moderate requested amounts.
func goodCustomer() *customer.Customer {
	return &customer.Customer{
		ID:                         id.NewCustomerID(),
		FullName:                   "Amina Haddad",
		Email:                      "amina@example.com",
		Active:                     true,
		CreditScore:                750,
		DateOfBirth:                time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC),
		MonthlyIncome:              money.MustNew("20000", "AED"),
		ExistingMonthlyObligations: money.MustNew("1000", "AED"),
	}
}

func aed(s string) money.Money { return money.MustNew(s, "AED") }

func TestAssess(t *testing.T) {
	svc := NewService()

	t.Run("nil customer is rejected outright", func(t *testing.T) {
		result := svc.Assess(nil, aed("50000"), assessNow)
		assert.Equal(t, DecisionRejected, result.Decision)
		assert.Equal(t, "Customer cannot be null", result.PrimaryReason)
	})

	t.Run("non-positive amount is rejected outright", func(t *testing.T) {
		result := svc.Assess(goodCustomer(), aed("0"), assessNow)
		assert.Equal(t, DecisionRejected, result.Decision)
		assert.Equal(t, "Requested amount must be positive", result.PrimaryReason)
	})

	t.Run("qualifying profile is approved", func(t *testing.T) {
		result := svc.Assess(goodCustomer(), aed("50000"), assessNow)

		assert.True(t, result.Approved)
		assert.Equal(t, DecisionApproved, result.Decision)
		assert.Equal(t, "All eligibility criteria met", result.PrimaryReason)
		// The active-account check records only failures, so it does not
		// contribute a passed entry.
		assert.Len(t, result.PassedChecks, 7)
		assert.Empty(t, result.FailedChecks)
	})

	t.Run("inactive account rejects", func(t *testing.T) {
		c := goodCustomer()
		c.Active = false
		result := svc.Assess(c, aed("50000"), assessNow)

		assert.Equal(t, DecisionRejected, result.Decision)
		assert.Contains(t, result.FailedChecks, "Customer account is not active")
	})

	t.Run("credit score below 600 rejects", func(t *testing.T) {
		c := goodCustomer()
		c.CreditScore = 599
		result := svc.Assess(c, aed("50000"), assessNow)
		assert.Equal(t, DecisionRejected, result.Decision)
	})

	t.Run("missing credit score rejects", func(t *testing.T) {
		c := goodCustomer()
		c.CreditScore = 0
		result := svc.Assess(c, aed("50000"), assessNow)
		assert.Equal(t, DecisionRejected, result.Decision)
	})

	t.Run("age limits reject below 18 and above 70", func(t *testing.T) {
		minor := goodCustomer()
		minor.DateOfBirth = time.Date(2009, 6, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, DecisionRejected, svc.Assess(minor, aed("50000"), assessNow).Decision)

		senior := goodCustomer()
		senior.DateOfBirth = time.Date(1955, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, DecisionRejected, svc.Assess(senior, aed("50000"), assessNow).Decision)
	})

	t.Run("boundary ages pass", func(t *testing.T) {
		eighteen := goodCustomer()
		eighteen.DateOfBirth = time.Date(2008, 8, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, DecisionApproved, svc.Assess(eighteen, aed("50000"), assessNow).Decision)

		seventy := goodCustomer()
		seventy.DateOfBirth = time.Date(1956, 8, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, DecisionApproved, svc.Assess(seventy, aed("50000"), assessNow).Decision)
	})

	t.Run("debt-to-income above 40 percent rejects", func(t *testing.T) {
		c := goodCustomer()
		c.MonthlyIncome = aed("10000")
		c.ExistingMonthlyObligations = aed("3500")
		result := svc.Assess(c, aed("50000"), assessNow)

		assert.Equal(t, DecisionRejected, result.Decision)
		assert.Contains(t, result.PrimaryReason, "Debt-to-income")
	})

	t.Run("income below three times the projected payment rejects", func(t *testing.T) {
		c := goodCustomer()
		c.MonthlyIncome = aed("5500")
		// 300000 at the 6%/60mo projection prices near 5800/month, far
		// beyond three times income.
		result := svc.Assess(c, aed("300000"), assessNow)
		assert.Equal(t, DecisionRejected, result.Decision)
	})

	t.Run("three active loans reject", func(t *testing.T) {
		c := goodCustomer()
		c.ExistingMonthlyObligations = aed("6000") // estimates to 3 loans
		result := svc.Assess(c, aed("50000"), assessNow)
		assert.Equal(t, DecisionRejected, result.Decision)
	})
}

func TestPreQualified(t *testing.T) {
	svc := NewService()

	assert.True(t, svc.PreQualified(goodCustomer(), assessNow))
	assert.False(t, svc.PreQualified(nil, assessNow))

	t.Run("fails on any profile rule", func(t *testing.T) {
		inactive := goodCustomer()
		inactive.Active = false
		assert.False(t, svc.PreQualified(inactive, assessNow))

		lowScore := goodCustomer()
		lowScore.CreditScore = 580
		assert.False(t, svc.PreQualified(lowScore, assessNow))

		lowIncome := goodCustomer()
		lowIncome.MonthlyIncome = aed("4000")
		assert.False(t, svc.PreQualified(lowIncome, assessNow))
	})
}

func TestMaximumLoanAmount(t *testing.T) {
	svc := NewService()

	t.Run("capacity caps the credit-score base", func(t *testing.T) {
		// Base: 20000 x 96 = 1,920,000. Capacity: (8000 - 1000) x 60 = 420,000.
		maximum := svc.MaximumLoanAmount(goodCustomer(), assessNow)
		assert.True(t, maximum.Equal(aed("420000")), "got %s", maximum)
	})

	t.Run("absolute cap is one million", func(t *testing.T) {
		c := goodCustomer()
		c.CreditScore = 810
		c.MonthlyIncome = aed("50000")
		c.ExistingMonthlyObligations = aed("0")
		// Base: 6,000,000. Capacity: 20000 x 60 = 1,200,000. Cap: 1,000,000.
		maximum := svc.MaximumLoanAmount(c, assessNow)
		assert.True(t, maximum.Equal(aed("1000000")), "got %s", maximum)
	})

	t.Run("floor is ten thousand", func(t *testing.T) {
		c := goodCustomer()
		c.CreditScore = 600
		c.MonthlyIncome = aed("5000")
		c.ExistingMonthlyObligations = aed("1900")
		// Capacity: (2000 - 1900) x 60 = 6,000, raised to the floor.
		maximum := svc.MaximumLoanAmount(c, assessNow)
		assert.True(t, maximum.Equal(aed("10000")), "got %s", maximum)
	})

	t.Run("unqualified profiles get zero", func(t *testing.T) {
		c := goodCustomer()
		c.Active = false
		maximum := svc.MaximumLoanAmount(c, assessNow)
		require.True(t, maximum.IsZero())
		assert.Equal(t, "AED", maximum.Currency())
	})

	t.Run("nil customer gets zero", func(t *testing.T) {
		assert.True(t, svc.MaximumLoanAmount(nil, assessNow).IsZero())
	})
}
