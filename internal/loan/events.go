package loan

import (
	"time"

	id "loancore/pkg/domain"
	"loancore/pkg/money"
)

// Event is a domain event raised by the Loan aggregate. Events accumulate on
// the aggregate during an operation and are pulled by the caller for
// publication; the engine never publishes them itself.
type Event interface {
	EventID() id.EventID
	EventType() string
	OccurredAt() time.Time
	AggregateID() id.LoanID
}

type eventBase struct {
	ID         id.EventID    `json:"event_id"`
	Occurred   time.Time     `json:"occurred_at"`
	LoanID     id.LoanID     `json:"loan_id"`
	CustomerID id.CustomerID `json:"customer_id"`
}

func newEventBase(loanID id.LoanID, customerID id.CustomerID, now time.Time) eventBase {
	return eventBase{ID: id.NewEventID(), Occurred: now, LoanID: loanID, CustomerID: customerID}
}

func (e eventBase) EventID() id.EventID    { return e.ID }
func (e eventBase) OccurredAt() time.Time  { return e.Occurred }
func (e eventBase) AggregateID() id.LoanID { return e.LoanID }

// CreatedEvent signals a new loan aggregate.
type CreatedEvent struct {
	eventBase
	PrincipalAmount money.Money `json:"principal_amount"`
}

func (CreatedEvent) EventType() string { return "loan.created" }

// ApprovedEvent signals a loan approval.
type ApprovedEvent struct {
	eventBase
	PrincipalAmount money.Money `json:"principal_amount"`
}

func (ApprovedEvent) EventType() string { return "loan.approved" }

// RejectedEvent signals a loan rejection with the stated reason.
type RejectedEvent struct {
	eventBase
	Reason string `json:"reason"`
}

func (RejectedEvent) EventType() string { return "loan.rejected" }

// DisbursedEvent signals funds released to the customer.
type DisbursedEvent struct {
	eventBase
	PrincipalAmount  money.Money `json:"principal_amount"`
	DisbursementDate time.Time   `json:"disbursement_date"`
}

func (DisbursedEvent) EventType() string { return "loan.disbursed" }

// CancelledEvent signals a cancellation before disbursement.
type CancelledEvent struct {
	eventBase
	Reason string `json:"reason"`
}

func (CancelledEvent) EventType() string { return "loan.cancelled" }

// PaymentMadeEvent signals a successful payment with balance movement.
type PaymentMadeEvent struct {
	eventBase
	PaymentAmount   money.Money `json:"payment_amount"`
	PreviousBalance money.Money `json:"previous_balance"`
	NewBalance      money.Money `json:"new_balance"`
}

func (PaymentMadeEvent) EventType() string { return "loan.payment_made" }

// FullyPaidEvent signals the balance reaching exactly zero.
type FullyPaidEvent struct {
	eventBase
}

func (FullyPaidEvent) EventType() string { return "loan.fully_paid" }
