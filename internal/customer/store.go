package customer

import (
	"context"

	id "loancore/pkg/domain"
)

// Store is the read capability over customers. Implementations return
// sentinel.ErrNotFound for unknown IDs.
type Store interface {
	FindByID(ctx context.Context, customerID id.CustomerID) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
}
