package loan

import (
	"time"

	id "loancore/pkg/domain"
	"loancore/pkg/money"
)

// Snapshot is the full persisted shape of a Loan. Load-then-save through a
// snapshot reproduces identical aggregate state, installments included.
// Stores own the mapping to their medium; the aggregate owns the invariants.
type Snapshot struct {
	ID               id.LoanID     `json:"id"`
	CustomerID       id.CustomerID `json:"customer_id"`
	PrincipalAmount  money.Money   `json:"principal_amount"`
	AnnualRate       string        `json:"annual_rate"`
	TermMonths       int           `json:"term_months"`
	Status           Status        `json:"status"`
	Outstanding      money.Money   `json:"outstanding_balance"`
	ApplicationDate  time.Time     `json:"application_date"`
	ApprovalDate     time.Time     `json:"approval_date"`
	DisbursementDate time.Time     `json:"disbursement_date"`
	MaturityDate     time.Time     `json:"maturity_date"`
	Installments     []Installment `json:"installments,omitempty"`
	Version          int64         `json:"version"`
	CreatedAt        time.Time     `json:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// Snapshot exports the aggregate state for persistence. Pending domain
// events are not part of persisted state.
func (l *Loan) Snapshot() Snapshot {
	return Snapshot{
		ID:               l.id,
		CustomerID:       l.customerID,
		PrincipalAmount:  l.principal,
		AnnualRate:       l.rate.Annual().String(),
		TermMonths:       l.term.Months(),
		Status:           l.status,
		Outstanding:      l.outstanding,
		ApplicationDate:  l.applicationDate,
		ApprovalDate:     l.approvalDate,
		DisbursementDate: l.disbursementDate,
		MaturityDate:     l.maturityDate,
		Installments:     l.Installments(),
		Version:          l.version,
		CreatedAt:        l.createdAt,
		UpdatedAt:        l.updatedAt,
	}
}

// FromSnapshot rebuilds an aggregate from persisted state. The snapshot is
// trusted store output, so value objects are re-validated but no events are
// raised and no lifecycle rules re-run.
func FromSnapshot(s Snapshot) (*Loan, error) {
	rate, err := parseRate(s.AnnualRate)
	if err != nil {
		return nil, err
	}
	term, err := NewTerm(s.TermMonths)
	if err != nil {
		return nil, err
	}
	status, err := ParseStatus(string(s.Status))
	if err != nil {
		return nil, err
	}

	installments := make([]Installment, len(s.Installments))
	copy(installments, s.Installments)

	return &Loan{
		id:               s.ID,
		customerID:       s.CustomerID,
		principal:        s.PrincipalAmount,
		rate:             rate,
		term:             term,
		status:           status,
		outstanding:      s.Outstanding,
		applicationDate:  s.ApplicationDate,
		approvalDate:     s.ApprovalDate,
		disbursementDate: s.DisbursementDate,
		maturityDate:     s.MaturityDate,
		installments:     installments,
		version:          s.Version,
		createdAt:        s.CreatedAt,
		updatedAt:        s.UpdatedAt,
	}, nil
}
