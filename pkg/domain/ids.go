// Package domain defines the typed identifiers shared across contexts.
// Distinct types keep a LoanID from ever being passed where a CustomerID is
// expected; the compiler enforces what convention cannot.
package domain

import (
	"github.com/google/uuid"

	dErrors "loancore/pkg/domain-errors"
)

type (
	// LoanID identifies a Loan aggregate.
	LoanID uuid.UUID
	// CustomerID identifies a customer (owned by the customer context).
	CustomerID uuid.UUID
	// PaymentID identifies one processed payment.
	PaymentID uuid.UUID
	// EventID identifies a single domain event occurrence.
	EventID uuid.UUID
)

// NewLoanID generates a fresh loan identifier.
func NewLoanID() LoanID { return LoanID(uuid.New()) }

// NewCustomerID generates a fresh customer identifier.
func NewCustomerID() CustomerID { return CustomerID(uuid.New()) }

// NewPaymentID generates a fresh payment identifier.
func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

// NewEventID generates a fresh event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

func (id LoanID) String() string     { return uuid.UUID(id).String() }
func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) String() string  { return uuid.UUID(id).String() }
func (id EventID) String() string    { return uuid.UUID(id).String() }

func (id LoanID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }
func (id CustomerID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// The ID types marshal as their canonical UUID string in JSON and other
// text encodings.

func (id LoanID) MarshalText() ([]byte, error)     { return []byte(id.String()), nil }
func (id CustomerID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id PaymentID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id EventID) MarshalText() ([]byte, error)    { return []byte(id.String()), nil }

func (id *LoanID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "invalid loan id", err)
	}
	*id = LoanID(u)
	return nil
}

func (id *CustomerID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "invalid customer id", err)
	}
	*id = CustomerID(u)
	return nil
}

func (id *PaymentID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "invalid payment id", err)
	}
	*id = PaymentID(u)
	return nil
}

func (id *EventID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInvalidInput, "invalid event id", err)
	}
	*id = EventID(u)
	return nil
}

// ParseLoanID validates and converts an external string into a LoanID.
// IDs must be valid, non-empty, non-nil UUIDs.
func ParseLoanID(s string) (LoanID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return LoanID{}, err
	}
	return LoanID(u), nil
}

// ParseCustomerID validates and converts an external string into a CustomerID.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return CustomerID{}, err
	}
	return CustomerID(u), nil
}

// ParsePaymentID validates and converts an external string into a PaymentID.
func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return PaymentID{}, err
	}
	return PaymentID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}
