package eligibility

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"loancore/internal/customer"
	"loancore/pkg/money"
)

// Underwriting rule constants. Amounts are in the requested currency's
// units; income figures are monthly.
var (
	maxDebtToIncomeRatio   = decimal.RequireFromString("0.40")
	incomeMultiplier       = decimal.NewFromInt(3)
	minMonthlyIncome       = decimal.NewFromInt(5_000)
	projectionAnnualRate   = decimal.RequireFromString("0.06")
	maxEligibleCap         = decimal.NewFromInt(1_000_000)
	minEligibleCap         = decimal.NewFromInt(10_000)
	assumedAvgLoanPayment  = decimal.NewFromInt(2_000)
	debtCapacityTermMonths = decimal.NewFromInt(60)
)

const (
	minCreditScore       = 600
	minAge               = 18
	maxAge               = 70
	maxActiveLoans       = 3
	projectionTermMonths = 60
)

// Service runs the underwriting rules against the customer capability and
// folds the outcomes through the Checks accumulator. It is stateless; each
// assessment is an independent computation.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// Assess performs the full eligibility assessment for a requested amount.
func (s *Service) Assess(c *customer.Customer, requestedAmount money.Money, now time.Time) Result {
	if c == nil {
		return Rejected("Customer cannot be null")
	}
	if !requestedAmount.IsPositive() {
		return Rejected("Requested amount must be positive")
	}

	checks := NewChecks()
	s.checkActiveAccount(c, checks)
	s.checkCreditScore(c, checks)
	s.checkAge(c, now, checks)
	s.checkIncome(c, requestedAmount, checks)
	s.checkDebtToIncome(c, requestedAmount, checks)
	s.checkMaximumAmount(c, requestedAmount, checks)
	s.checkEmploymentStability(c, checks)
	s.checkActiveLoanLimit(c, checks)

	return checks.BuildResult()
}

// PreQualified runs only the profile checks, without a specific amount.
func (s *Service) PreQualified(c *customer.Customer, now time.Time) bool {
	if c == nil {
		return false
	}
	checks := NewChecks()
	s.checkActiveAccount(c, checks)
	s.checkCreditScore(c, checks)
	s.checkAge(c, now, checks)
	s.checkEmploymentStability(c, checks)
	return len(checks.FailedChecks()) == 0
}

// MaximumLoanAmount derives the largest amount the profile supports, or zero
// when the customer fails basic eligibility.
func (s *Service) MaximumLoanAmount(c *customer.Customer, now time.Time) money.Money {
	if c == nil {
		return money.Zero("AED")
	}
	currency := c.MonthlyIncome.Currency()
	if currency == "" {
		currency = "AED"
	}
	if !s.PreQualified(c, now) {
		return money.Zero(currency)
	}
	m, err := money.New(s.maximumAmountFromProfile(c), currency)
	if err != nil {
		return money.Zero(currency)
	}
	return m
}

func (s *Service) checkActiveAccount(c *customer.Customer, checks *Checks) {
	if !c.Active {
		checks.AddFailed("Customer account is not active")
	}
}

func (s *Service) checkCreditScore(c *customer.Customer, checks *Checks) {
	if !c.HasCreditScore() || c.CreditScore < minCreditScore {
		checks.AddFailed(fmt.Sprintf(
			"Credit score (%d) is below minimum requirement (%d)", c.CreditScore, minCreditScore))
		return
	}
	checks.AddPassed("Credit score meets minimum requirement")
}

func (s *Service) checkAge(c *customer.Customer, now time.Time, checks *Checks) {
	age := c.Age(now)
	switch {
	case age < minAge:
		checks.AddFailed(fmt.Sprintf("Customer age (%d) is below minimum (%d)", age, minAge))
	case age > maxAge:
		checks.AddFailed(fmt.Sprintf("Customer age (%d) exceeds maximum (%d)", age, maxAge))
	default:
		checks.AddPassed("Age requirements met")
	}
}

func (s *Service) checkIncome(c *customer.Customer, requested money.Money, checks *Checks) {
	income := c.MonthlyIncome.Amount()
	required := projectedMonthlyPayment(requested.Amount()).Mul(incomeMultiplier)
	if income.LessThan(required) {
		checks.AddFailed(fmt.Sprintf(
			"Monthly income (%s) is below required (%s) for requested amount", income, required))
		return
	}
	checks.AddPassed("Income requirement met")
}

func (s *Service) checkDebtToIncome(c *customer.Customer, requested money.Money, checks *Checks) {
	income := c.MonthlyIncome.Amount()
	if income.IsZero() {
		checks.AddFailed("Debt-to-income ratio cannot be computed without income")
		return
	}
	obligations := c.ExistingMonthlyObligations.Amount()
	projected := projectedMonthlyPayment(requested.Amount())
	ratio := obligations.Add(projected).DivRound(income, 4)
	if ratio.GreaterThan(maxDebtToIncomeRatio) {
		hundred := decimal.NewFromInt(100)
		checks.AddFailed(fmt.Sprintf(
			"Debt-to-income ratio (%s%%) exceeds maximum allowed (%s%%)",
			ratio.Mul(hundred), maxDebtToIncomeRatio.Mul(hundred)))
		return
	}
	checks.AddPassed("Debt-to-income ratio within acceptable limits")
}

func (s *Service) checkMaximumAmount(c *customer.Customer, requested money.Money, checks *Checks) {
	maximum := s.maximumAmountFromProfile(c)
	if requested.Amount().GreaterThan(maximum) {
		checks.AddFailed(fmt.Sprintf(
			"Requested amount (%s) exceeds maximum eligible amount (%s)",
			requested.Amount(), maximum))
		return
	}
	checks.AddPassed("Requested amount within eligible limits")
}

func (s *Service) checkEmploymentStability(c *customer.Customer, checks *Checks) {
	// Income above the floor stands in for employment verification until the
	// external verification integration exists.
	if c.MonthlyIncome.Amount().LessThan(minMonthlyIncome) {
		checks.AddFailed("Employment stability requirement not met")
		return
	}
	checks.AddPassed("Employment stability verified")
}

func (s *Service) checkActiveLoanLimit(c *customer.Customer, checks *Checks) {
	count := estimateActiveLoans(c)
	if count >= maxActiveLoans {
		checks.AddFailed(fmt.Sprintf(
			"Customer has too many active loans (%d), maximum allowed is %d", count, maxActiveLoans))
		return
	}
	checks.AddPassed("Active loan count within limits")
}

// maximumAmountFromProfile caps the credit-score-derived base amount by the
// available debt capacity and the product bounds.
func (s *Service) maximumAmountFromProfile(c *customer.Customer) decimal.Decimal {
	base := baseAmountFromCreditScore(c)
	capacity := availableDebtCapacity(c)

	amount := decimal.Min(base, capacity, maxEligibleCap)
	return decimal.Max(amount, minEligibleCap)
}

// baseAmountFromCreditScore maps score bands to income multiples: 800+ buys
// ten years of income, descending to two years below 650.
func baseAmountFromCreditScore(c *customer.Customer) decimal.Decimal {
	if !c.HasCreditScore() {
		return decimal.Zero
	}
	income := c.MonthlyIncome.Amount()
	var multiplier int64
	switch {
	case c.CreditScore >= 800:
		multiplier = 120
	case c.CreditScore >= 750:
		multiplier = 96
	case c.CreditScore >= 700:
		multiplier = 72
	case c.CreditScore >= 650:
		multiplier = 48
	default:
		multiplier = 24
	}
	return income.Mul(decimal.NewFromInt(multiplier))
}

// availableDebtCapacity converts the unused monthly DTI headroom into a loan
// amount under a five-year term assumption.
func availableDebtCapacity(c *customer.Customer) decimal.Decimal {
	maxMonthlyDebt := c.MonthlyIncome.Amount().Mul(maxDebtToIncomeRatio)
	headroom := maxMonthlyDebt.Sub(c.ExistingMonthlyObligations.Amount())
	return headroom.Mul(debtCapacityTermMonths)
}

// estimateActiveLoans infers the active loan count from existing obligations
// until a loan-book query exists.
func estimateActiveLoans(c *customer.Customer) int {
	return int(c.ExistingMonthlyObligations.Amount().
		Div(assumedAvgLoanPayment).Floor().IntPart())
}

// projectedMonthlyPayment prices the requested amount at the standard
// underwriting assumption (6% over 60 months), two-digit half-up.
func projectedMonthlyPayment(amount decimal.Decimal) decimal.Decimal {
	monthlyRate := projectionAnnualRate.DivRound(decimal.NewFromInt(12), 6)
	n := int64(projectionTermMonths)

	one := decimal.NewFromInt(1)
	onePlusR := one.Add(monthlyRate)
	onePlusRPowN := onePlusR.Pow(decimal.NewFromInt(n))

	numerator := amount.Mul(monthlyRate).Mul(onePlusRPowN)
	denominator := onePlusRPowN.Sub(one)
	return numerator.DivRound(denominator, 2)
}
