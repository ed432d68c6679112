package customer

import (
	"context"
	"sync"

	id "loancore/pkg/domain"
	"loancore/pkg/platform/sentinel"
)

// InMemoryStore is the non-durable Store used in tests and local runs.
type InMemoryStore struct {
	mu        sync.RWMutex
	customers map[id.CustomerID]Customer
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{customers: make(map[id.CustomerID]Customer)}
}

func (s *InMemoryStore) FindByID(_ context.Context, customerID id.CustomerID) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[customerID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &c, nil
}

func (s *InMemoryStore) Save(_ context.Context, c *Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = *c
	return nil
}
