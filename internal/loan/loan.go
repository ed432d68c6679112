// Package loan implements the loan lifecycle and payment-settlement engine:
// the aggregate owning the loan state machine, amortization schedule,
// payment waterfall and domain events. It performs no I/O; callers load and
// persist aggregates and publish the events the aggregate raises.
package loan

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
)

// Product limits enforced when a schedule is generated. Basic creation only
// requires a positive principal; these tighter bounds gate installment
// generation.
var (
	minProductPrincipal = decimal.NewFromInt(1_000)
	maxProductPrincipal = decimal.NewFromInt(500_000)
)

const (
	minProductTermMonths = 6
	maxProductTermMonths = 60
)

// amortizationPrecision is the internal precision of the payment factor.
const amortizationPrecision = 10

// Loan is the aggregate root. All state changes go through its methods;
// validation happens in full before any field is mutated, so a failed
// operation leaves the aggregate untouched.
type Loan struct {
	id          id.LoanID
	customerID  id.CustomerID
	principal   money.Money
	rate        InterestRate
	term        Term
	status      Status
	outstanding money.Money

	applicationDate  time.Time
	approvalDate     time.Time
	disbursementDate time.Time
	maturityDate     time.Time

	installments []Installment

	version   int64
	createdAt time.Time
	updatedAt time.Time

	events []Event
}

// New creates a loan in CREATED status with the outstanding balance equal to
// the principal. Basic validation only; product limits apply when the
// installment schedule is generated.
func New(loanID id.LoanID, customerID id.CustomerID, principal money.Money, rate InterestRate, term Term, now time.Time) (*Loan, error) {
	if loanID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "loan id is required")
	}
	if customerID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "customer id is required")
	}
	if !principal.IsPositive() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "principal amount must be positive")
	}

	l := &Loan{
		id:              loanID,
		customerID:      customerID,
		principal:       principal,
		rate:            rate,
		term:            term,
		status:          StatusCreated,
		outstanding:     principal,
		applicationDate: now,
		version:         1,
		createdAt:       now,
		updatedAt:       now,
	}
	l.raise(CreatedEvent{eventBase: newEventBase(l.id, l.customerID, now), PrincipalAmount: principal})
	return l, nil
}

// NewWithInstallments creates a loan and immediately generates its schedule.
// The stricter product limits apply before any state is created.
func NewWithInstallments(loanID id.LoanID, customerID id.CustomerID, principal money.Money, rate InterestRate, term Term, now time.Time) (*Loan, error) {
	if err := validateProductLimits(principal, term); err != nil {
		return nil, err
	}
	l, err := New(loanID, customerID, principal, rate, term, now)
	if err != nil {
		return nil, err
	}
	l.generateInstallments()
	return l, nil
}

func validateProductLimits(principal money.Money, term Term) error {
	if principal.Amount().LessThan(minProductPrincipal) {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("loan amount must be at least %s", minProductPrincipal))
	}
	if principal.Amount().GreaterThan(maxProductPrincipal) {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("loan amount cannot exceed %s", maxProductPrincipal))
	}
	if term.Months() < minProductTermMonths {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("loan term must be at least %d months", minProductTermMonths))
	}
	if term.Months() > maxProductTermMonths {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("loan term cannot exceed %d months", maxProductTermMonths))
	}
	return nil
}

// Approve transitions CREATED/PENDING_APPROVAL -> APPROVED.
func (l *Loan) Approve(now time.Time) error {
	if !l.status.CanBeApproved() {
		return l.invalidTransition("approved")
	}
	l.status = StatusApproved
	l.approvalDate = now
	l.touch(now)
	l.raise(ApprovedEvent{eventBase: newEventBase(l.id, l.customerID, now), PrincipalAmount: l.principal})
	return nil
}

// Reject transitions CREATED/PENDING_APPROVAL -> REJECTED (terminal).
func (l *Loan) Reject(reason string, now time.Time) error {
	if !l.status.CanBeRejected() {
		return l.invalidTransition("rejected")
	}
	l.status = StatusRejected
	l.touch(now)
	l.raise(RejectedEvent{eventBase: newEventBase(l.id, l.customerID, now), Reason: reason})
	return nil
}

// Disburse transitions APPROVED -> DISBURSED and fixes the maturity date at
// disbursement + term.
func (l *Loan) Disburse(now time.Time) error {
	if !l.status.CanBeDisbursed() {
		return l.invalidTransition("disbursed")
	}
	l.status = StatusDisbursed
	l.disbursementDate = now
	l.maturityDate = now.AddDate(0, l.term.Months(), 0)
	l.touch(now)
	l.raise(DisbursedEvent{
		eventBase:        newEventBase(l.id, l.customerID, now),
		PrincipalAmount:  l.principal,
		DisbursementDate: now,
	})
	return nil
}

// Cancel transitions CREATED/PENDING_APPROVAL/APPROVED -> CANCELLED
// (terminal). Any already-generated installments are cancelled with it.
func (l *Loan) Cancel(reason string, now time.Time) error {
	if !l.status.CanBeCancelled() {
		return l.invalidTransition("cancelled")
	}
	l.status = StatusCancelled
	for i := range l.installments {
		l.installments[i].Cancel()
	}
	l.touch(now)
	l.raise(CancelledEvent{eventBase: newEventBase(l.id, l.customerID, now), Reason: reason})
	return nil
}

// GenerateInstallments explicitly builds the schedule: exactly term
// installments of the constant monthly payment, due monthly from the
// application date. The schedule is immutable once generated.
func (l *Loan) GenerateInstallments(now time.Time) error {
	if len(l.installments) > 0 {
		return dErrors.New(dErrors.CodeInvalidState, "installment schedule already generated")
	}
	if l.status.IsTerminal() {
		return l.invalidTransition("scheduled")
	}
	if err := validateProductLimits(l.principal, l.term); err != nil {
		return err
	}
	l.generateInstallments()
	l.touch(now)
	return nil
}

func (l *Loan) generateInstallments() {
	monthly := l.MonthlyPayment().Round(2)
	l.installments = make([]Installment, 0, l.term.Months())
	for i := 1; i <= l.term.Months(); i++ {
		dueDate := l.applicationDate.AddDate(0, i, 0)
		l.installments = append(l.installments, newInstallment(l.id, i, monthly, dueDate))
	}
}

// MonthlyPayment computes the constant amortized payment.
//
// Edge cases: a 1-month loan is a single balloon payment of the principal
// with no interest; a zero-rate loan divides the principal evenly. Otherwise
// the standard formula P * r(1+r)^n / ((1+r)^n - 1) applies, with the factor
// computed at 10 fractional digits. Currency rounding happens only at the
// installment boundary, not here.
func (l *Loan) MonthlyPayment() money.Money {
	n := l.term.Months()
	if n == 1 {
		return l.principal
	}

	monthlyRate := l.rate.Monthly()
	if monthlyRate.IsZero() {
		payment, _ := l.principal.Divide(decimal.NewFromInt(int64(n)))
		return payment
	}

	one := decimal.NewFromInt(1)
	onePlusRate := one.Add(monthlyRate)
	onePlusRateToN := onePlusRate.Pow(decimal.NewFromInt(int64(n)))
	numerator := monthlyRate.Mul(onePlusRateToN)
	denominator := onePlusRateToN.Sub(one)
	factor := numerator.DivRound(denominator, amortizationPrecision)

	return l.principal.Multiply(factor)
}

// MakePayment runs the payment waterfall: validate, distribute, reduce the
// balance, transition to FULLY_PAID on a zero balance, and raise events.
// Validation failures leave the aggregate unchanged.
func (l *Loan) MakePayment(amount money.Money, now time.Time) (Result, error) {
	if err := l.validatePayment(amount); err != nil {
		return failureResult(err.Error()), err
	}

	dist, err := l.distributePayment(amount, now)
	if err != nil {
		return failureResult(err.Error()), err
	}

	previousBalance := l.outstanding
	newBalance, err := l.outstanding.Subtract(dist.PrincipalPayment)
	if err != nil {
		return failureResult(err.Error()), dErrors.Wrap(dErrors.CodeInternal, "balance update failed", err)
	}
	l.outstanding = newBalance
	if l.outstanding.IsZero() {
		l.status = StatusFullyPaid
	}
	l.touch(now)

	l.raise(PaymentMadeEvent{
		eventBase:       newEventBase(l.id, l.customerID, now),
		PaymentAmount:   dist.TotalPayment,
		PreviousBalance: previousBalance,
		NewBalance:      l.outstanding,
	})
	if l.status == StatusFullyPaid {
		l.raise(FullyPaidEvent{eventBase: newEventBase(l.id, l.customerID, now)})
	}

	return successResult(l.id, dist, l.outstanding, l.status, now)
}

func (l *Loan) validatePayment(amount money.Money) error {
	if !l.status.CanAcceptPayments() {
		return dErrors.New(dErrors.CodeInvalidState,
			fmt.Sprintf("loan cannot accept payments in current status: %s", l.status))
	}
	if !amount.IsPositive() {
		return dErrors.New(dErrors.CodeInvalidInput, "payment amount must be positive")
	}
	if amount.GreaterThan(l.outstanding) {
		return dErrors.New(dErrors.CodeInvalidInput,
			fmt.Sprintf("payment amount (%s) cannot exceed outstanding balance (%s)", amount, l.outstanding))
	}
	if _, err := amount.Compare(l.outstanding); err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "payment currency mismatch", err)
	}
	return nil
}

// distributePayment allocates the payment. The baseline waterfall attributes
// everything to principal; interest and fees are modeled but zero until an
// accrual policy lands.
func (l *Loan) distributePayment(amount money.Money, now time.Time) (Distribution, error) {
	zero := money.Zero(amount.Currency())
	return NewDistribution(amount, amount, zero, zero, l.outstanding, now)
}

// ApplyToInstallments allocates an amount across unpaid installments oldest
// first and returns the total applied. This is deliberately a separate,
// explicit path from MakePayment: the aggregate balance is authoritative and
// the schedule is marked in its own step.
func (l *Loan) ApplyToInstallments(amount money.Money, now time.Time) (money.Money, error) {
	if !amount.IsPositive() {
		return money.Money{}, dErrors.New(dErrors.CodeInvalidInput, "payment amount must be positive")
	}
	applied := money.Zero(amount.Currency())
	remaining := amount
	for i := range l.installments {
		if !remaining.IsPositive() {
			break
		}
		inst := &l.installments[i]
		if inst.IsPaid() || inst.Status == InstallmentCancelled {
			continue
		}
		portion, err := inst.MakePayment(remaining, now)
		if err != nil {
			return money.Money{}, err
		}
		applied, err = applied.Add(portion)
		if err != nil {
			return money.Money{}, err
		}
		remaining, err = remaining.Subtract(portion)
		if err != nil {
			return money.Money{}, err
		}
	}
	if applied.IsPositive() {
		l.touch(now)
	}
	return applied, nil
}

// -----------------------------------------------------------------------------
// Derived schedule queries
// -----------------------------------------------------------------------------

// TotalInstallmentAmount sums the scheduled amounts.
func (l *Loan) TotalInstallmentAmount() money.Money {
	total := money.Zero(l.principal.Currency())
	for _, inst := range l.installments {
		total, _ = total.Add(inst.Amount)
	}
	return total
}

// TotalInterest is the schedule total minus the principal.
func (l *Loan) TotalInterest() money.Money {
	interest, _ := l.TotalInstallmentAmount().Subtract(l.principal)
	return interest
}

// RemainingInstallmentAmount sums the amounts of unpaid installments.
func (l *Loan) RemainingInstallmentAmount() money.Money {
	total := money.Zero(l.principal.Currency())
	for i := range l.installments {
		if !l.installments[i].IsPaid() {
			total, _ = total.Add(l.installments[i].Amount)
		}
	}
	return total
}

// RemainingInstallments counts unpaid installments.
func (l *Loan) RemainingInstallments() int {
	count := 0
	for i := range l.installments {
		if !l.installments[i].IsPaid() {
			count++
		}
	}
	return count
}

// OverdueInstallments returns the unpaid installments past their due date.
func (l *Loan) OverdueInstallments(now time.Time) []Installment {
	var overdue []Installment
	for i := range l.installments {
		if l.installments[i].IsOverdue(now) {
			overdue = append(overdue, l.installments[i])
		}
	}
	return overdue
}

// InstallmentsFullyPaid reports whether every installment is settled.
func (l *Loan) InstallmentsFullyPaid() bool {
	for i := range l.installments {
		if !l.installments[i].IsPaid() {
			return false
		}
	}
	return len(l.installments) > 0
}

// IsOverdue reports an unsettled balance past maturity.
func (l *Loan) IsOverdue(now time.Time) bool {
	return !l.maturityDate.IsZero() && now.After(l.maturityDate) && !l.outstanding.IsZero()
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

func (l *Loan) ID() id.LoanID                   { return l.id }
func (l *Loan) CustomerID() id.CustomerID       { return l.customerID }
func (l *Loan) PrincipalAmount() money.Money    { return l.principal }
func (l *Loan) InterestRate() InterestRate      { return l.rate }
func (l *Loan) Term() Term                      { return l.term }
func (l *Loan) Status() Status                  { return l.status }
func (l *Loan) OutstandingBalance() money.Money { return l.outstanding }
func (l *Loan) ApplicationDate() time.Time      { return l.applicationDate }
func (l *Loan) ApprovalDate() time.Time         { return l.approvalDate }
func (l *Loan) DisbursementDate() time.Time     { return l.disbursementDate }
func (l *Loan) MaturityDate() time.Time         { return l.maturityDate }
func (l *Loan) Version() int64                  { return l.version }
func (l *Loan) CreatedAt() time.Time            { return l.createdAt }
func (l *Loan) UpdatedAt() time.Time            { return l.updatedAt }

// Installments returns a defensive copy of the schedule.
func (l *Loan) Installments() []Installment {
	if l.installments == nil {
		return nil
	}
	out := make([]Installment, len(l.installments))
	copy(out, l.installments)
	return out
}

// PullEvents returns the accumulated domain events and clears the buffer.
func (l *Loan) PullEvents() []Event {
	events := l.events
	l.events = nil
	return events
}

func (l *Loan) raise(e Event) {
	l.events = append(l.events, e)
}

// touch records a successful mutation: the version counter is the
// optimistic-lock token the persistence adapter compares on save.
func (l *Loan) touch(now time.Time) {
	l.version++
	l.updatedAt = now
}

func (l *Loan) invalidTransition(operation string) error {
	return dErrors.New(dErrors.CodeInvalidState,
		fmt.Sprintf("loan cannot be %s in current status: %s", operation, l.status))
}
