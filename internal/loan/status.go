package loan

import (
	"fmt"

	dErrors "loancore/pkg/domain-errors"
)

// Status is the loan lifecycle state machine. Transition legality is a pure
// function of the current state; operations check the predicate before any
// mutation.
type Status string

const (
	StatusCreated         Status = "CREATED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusActive          Status = "ACTIVE"
	StatusDisbursed       Status = "DISBURSED"
	StatusFullyPaid       Status = "FULLY_PAID"
	StatusDefaulted       Status = "DEFAULTED"
	StatusRejected        Status = "REJECTED"
	StatusCancelled       Status = "CANCELLED"
	StatusRestructured    Status = "RESTRUCTURED"
	StatusWrittenOff      Status = "WRITTEN_OFF"
)

// ParseStatus validates a status string coming from storage or transport.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusCreated, StatusPendingApproval, StatusApproved, StatusActive,
		StatusDisbursed, StatusFullyPaid, StatusDefaulted, StatusRejected,
		StatusCancelled, StatusRestructured, StatusWrittenOff:
		return Status(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown loan status %q", s))
}

// CanBeApproved reports whether an approval is legal from this state.
func (s Status) CanBeApproved() bool {
	return s == StatusCreated || s == StatusPendingApproval
}

// CanBeRejected reports whether a rejection is legal from this state.
func (s Status) CanBeRejected() bool {
	return s == StatusCreated || s == StatusPendingApproval
}

// CanBeDisbursed reports whether disbursement is legal from this state.
func (s Status) CanBeDisbursed() bool {
	return s == StatusApproved
}

// CanBeCancelled reports whether cancellation is legal from this state.
func (s Status) CanBeCancelled() bool {
	return s == StatusCreated || s == StatusPendingApproval || s == StatusApproved
}

// CanAcceptPayments reports whether the loan accepts payments in this state.
func (s Status) CanAcceptPayments() bool {
	return s == StatusActive || s == StatusDisbursed || s == StatusRestructured
}

// IsTerminal reports whether no further transition is permitted.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusFullyPaid, StatusDefaulted, StatusRejected, StatusCancelled, StatusWrittenOff:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// InstallmentStatus tracks one scheduled payment line. It is derived from the
// relationship between paid amount, amount, and the due date.
type InstallmentStatus string

const (
	InstallmentPending       InstallmentStatus = "PENDING"
	InstallmentPartiallyPaid InstallmentStatus = "PARTIALLY_PAID"
	InstallmentPaid          InstallmentStatus = "PAID"
	InstallmentOverdue       InstallmentStatus = "OVERDUE"
	InstallmentCancelled     InstallmentStatus = "CANCELLED"
)

// ParseInstallmentStatus validates an installment status string.
func ParseInstallmentStatus(s string) (InstallmentStatus, error) {
	switch InstallmentStatus(s) {
	case InstallmentPending, InstallmentPartiallyPaid, InstallmentPaid,
		InstallmentOverdue, InstallmentCancelled:
		return InstallmentStatus(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown installment status %q", s))
}
