package loan

import (
	"time"

	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
)

// Installment is one scheduled payment line, identified by (loan, number).
// The amount is fixed at generation; the paid amount only grows and never
// exceeds the amount. Mutation goes through the owning Loan.
type Installment struct {
	LoanID     id.LoanID         `json:"loan_id"`
	Number     int               `json:"number"`
	Amount     money.Money       `json:"amount"`
	PaidAmount money.Money       `json:"paid_amount"`
	DueDate    time.Time         `json:"due_date"`
	Status     InstallmentStatus `json:"status"`
}

func newInstallment(loanID id.LoanID, number int, amount money.Money, dueDate time.Time) Installment {
	return Installment{
		LoanID:     loanID,
		Number:     number,
		Amount:     amount,
		PaidAmount: money.Zero(amount.Currency()),
		DueDate:    dueDate,
		Status:     InstallmentPending,
	}
}

// RemainingAmount returns amount - paidAmount.
func (i *Installment) RemainingAmount() money.Money {
	remaining, err := i.Amount.Subtract(i.PaidAmount)
	if err != nil {
		// paidAmount is always created in the installment's currency
		return money.Zero(i.Amount.Currency())
	}
	return remaining
}

func (i *Installment) IsPaid() bool {
	return !i.PaidAmount.LessThan(i.Amount)
}

// IsOverdue reports an unpaid installment past its due date.
func (i *Installment) IsOverdue(now time.Time) bool {
	return !i.IsPaid() && i.Status != InstallmentCancelled && now.After(i.DueDate)
}

// MakePayment applies up to the remaining amount and returns the applied
// portion. Paid amount is capped at the installment amount.
func (i *Installment) MakePayment(amount money.Money, now time.Time) (money.Money, error) {
	if i.Status == InstallmentCancelled {
		return money.Money{}, dErrors.New(dErrors.CodeInvalidState, "installment is cancelled")
	}
	if i.IsPaid() {
		return money.Money{}, dErrors.New(dErrors.CodeInvalidState, "installment is already paid")
	}
	if !amount.IsPositive() {
		return money.Money{}, dErrors.New(dErrors.CodeInvalidInput, "payment amount must be positive")
	}

	applied := amount
	remaining := i.RemainingAmount()
	if applied.GreaterThan(remaining) {
		applied = remaining
	}

	newPaid, err := i.PaidAmount.Add(applied)
	if err != nil {
		return money.Money{}, dErrors.Wrap(dErrors.CodeInvalidInput, "payment currency mismatch", err)
	}
	i.PaidAmount = newPaid
	i.refreshStatus(now)
	return applied, nil
}

// Cancel marks the installment cancelled. Used when the owning loan is
// cancelled before any payment activity.
func (i *Installment) Cancel() {
	i.Status = InstallmentCancelled
}

// refreshStatus derives the status from paid amount and due date.
func (i *Installment) refreshStatus(now time.Time) {
	switch {
	case i.Status == InstallmentCancelled:
		// terminal
	case i.IsPaid():
		i.Status = InstallmentPaid
	case now.After(i.DueDate):
		i.Status = InstallmentOverdue
	case i.PaidAmount.IsPositive():
		i.Status = InstallmentPartiallyPaid
	default:
		i.Status = InstallmentPending
	}
}
