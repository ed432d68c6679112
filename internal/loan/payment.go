package loan

import (
	"time"

	id "loancore/pkg/domain"
	dErrors "loancore/pkg/domain-errors"
	"loancore/pkg/money"
)

// Distribution is the allocation of one payment across principal, interest
// and fees. Invariant: total = principal + interest + fee, exactly. The
// previous balance and payment date are carried for audit reconstruction.
type Distribution struct {
	TotalPayment     money.Money `json:"total_payment"`
	PrincipalPayment money.Money `json:"principal_payment"`
	InterestPayment  money.Money `json:"interest_payment"`
	FeePayment       money.Money `json:"fee_payment"`
	PreviousBalance  money.Money `json:"previous_balance"`
	PaymentDate      time.Time   `json:"payment_date"`
}

// NewDistribution builds a validated distribution. A sum mismatch is a
// defect in the waterfall, not a caller error.
func NewDistribution(total, principal, interest, fee, previousBalance money.Money, paymentDate time.Time) (Distribution, error) {
	d := Distribution{
		TotalPayment:     total,
		PrincipalPayment: principal,
		InterestPayment:  interest,
		FeePayment:       fee,
		PreviousBalance:  previousBalance,
		PaymentDate:      paymentDate,
	}
	if err := d.Validate(); err != nil {
		return Distribution{}, err
	}
	return d, nil
}

// Validate re-checks the allocation identity.
func (d Distribution) Validate() error {
	sum, err := d.PrincipalPayment.Add(d.InterestPayment)
	if err == nil {
		sum, err = sum.Add(d.FeePayment)
	}
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "distribution components have mixed currencies", err)
	}
	if !sum.Equal(d.TotalPayment) {
		return dErrors.New(dErrors.CodeInternal, "distribution components do not sum to total payment")
	}
	return nil
}

// Result is the outcome envelope of one payment operation: either a success
// carrying the distribution and resulting loan state, or a failure carrying
// only the error message.
type Result struct {
	Success               bool         `json:"success"`
	PaymentID             id.PaymentID `json:"payment_id,omitempty"`
	LoanID                id.LoanID    `json:"loan_id,omitempty"`
	Distribution          Distribution `json:"distribution,omitzero"`
	NewOutstandingBalance money.Money  `json:"new_outstanding_balance,omitzero"`
	LoanStatus            Status       `json:"loan_status,omitempty"`
	ProcessedAt           time.Time    `json:"processed_at,omitzero"`
	ErrorMessage          string       `json:"error_message,omitempty"`
}

func successResult(loanID id.LoanID, dist Distribution, newBalance money.Money, status Status, processedAt time.Time) (Result, error) {
	if err := dist.Validate(); err != nil {
		return Result{}, err
	}
	return Result{
		Success:               true,
		PaymentID:             id.NewPaymentID(),
		LoanID:                loanID,
		Distribution:          dist,
		NewOutstandingBalance: newBalance,
		LoanStatus:            status,
		ProcessedAt:           processedAt,
	}, nil
}

func failureResult(message string) Result {
	return Result{Success: false, ErrorMessage: message}
}

// IsLoanFullyPaid reports whether this payment settled the loan.
func (r Result) IsLoanFullyPaid() bool {
	return r.Success && r.LoanStatus == StatusFullyPaid
}
