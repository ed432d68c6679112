package handler

import (
	"loancore/internal/loan"
	"loancore/pkg/money"
)

type CreateLoanRequest struct {
	CustomerID         string `json:"customer_id"`
	PrincipalAmount    string `json:"principal_amount"`
	Currency           string `json:"currency"`
	AnnualInterestRate string `json:"annual_interest_rate"`
	TermMonths         int    `json:"term_months"`
	// WithInstallments defaults to true; set false to defer schedule
	// generation to POST /loans/{id}/schedule.
	WithInstallments *bool `json:"with_installments,omitempty"`
}

type RejectLoanRequest struct {
	Reason string `json:"reason"`
}

type CancelLoanRequest struct {
	Reason string `json:"reason"`
}

type PaymentRequest struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

// LoanResponse is the loan state plus derived figures clients would
// otherwise recompute.
type LoanResponse struct {
	loan.Snapshot
	MonthlyPayment money.Money `json:"monthly_payment"`
}

type ScheduleResponse struct {
	LoanID       string             `json:"loan_id"`
	Installments []loan.Installment `json:"installments"`
}

type LoanListResponse struct {
	Loans []LoanResponse `json:"loans"`
}

func toLoanResponse(l *loan.Loan) LoanResponse {
	return LoanResponse{
		Snapshot:       l.Snapshot(),
		MonthlyPayment: l.MonthlyPayment().Round(2),
	}
}
