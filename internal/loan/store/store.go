// Package store persists Loan aggregates. Implementations speak in
// snapshots and sentinel errors; domain invariants stay in the aggregate.
package store

import (
	"context"

	"loancore/internal/loan"
	id "loancore/pkg/domain"
)

// Store is the persistence port for Loan aggregates.
//
// Update enforces optimistic concurrency: expectedVersion is the version the
// caller loaded, and a mismatch surfaces sentinel.ErrVersionConflict.
// Create returns sentinel.ErrConflict for a duplicate ID, FindByID
// sentinel.ErrNotFound for an unknown one.
type Store interface {
	Create(ctx context.Context, l *loan.Loan) error
	Update(ctx context.Context, l *loan.Loan, expectedVersion int64) error
	FindByID(ctx context.Context, loanID id.LoanID) (*loan.Loan, error)
	ListByCustomer(ctx context.Context, customerID id.CustomerID) ([]*loan.Loan, error)
}
