package store

import (
	"context"
	"sync"

	"loancore/internal/loan"
	id "loancore/pkg/domain"
	"loancore/pkg/platform/sentinel"
)

// InMemory keeps loan snapshots in a map. Used by unit tests and local runs
// without PostgreSQL.
type InMemory struct {
	mu    sync.RWMutex
	loans map[id.LoanID]loan.Snapshot
}

func NewInMemory() *InMemory {
	return &InMemory{loans: make(map[id.LoanID]loan.Snapshot)}
}

func (s *InMemory) Create(_ context.Context, l *loan.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.loans[l.ID()]; exists {
		return sentinel.ErrConflict
	}
	s.loans[l.ID()] = l.Snapshot()
	return nil
}

func (s *InMemory) Update(_ context.Context, l *loan.Loan, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, exists := s.loans[l.ID()]
	if !exists {
		return sentinel.ErrNotFound
	}
	if current.Version != expectedVersion {
		return sentinel.ErrVersionConflict
	}
	s.loans[l.ID()] = l.Snapshot()
	return nil
}

func (s *InMemory) FindByID(_ context.Context, loanID id.LoanID) (*loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, exists := s.loans[loanID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return loan.FromSnapshot(snapshot)
}

func (s *InMemory) ListByCustomer(_ context.Context, customerID id.CustomerID) ([]*loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var loans []*loan.Loan
	for _, snapshot := range s.loans {
		if snapshot.CustomerID != customerID {
			continue
		}
		l, err := loan.FromSnapshot(snapshot)
		if err != nil {
			return nil, err
		}
		loans = append(loans, l)
	}
	return loans, nil
}
