package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// OrderRepository defines the interface for order persistence
type OrderRepository interface {
	// Create inserts a new order with its items and pending events in one transaction.
	// Returns ErrDuplicateOrderNumber when the order number is already taken.
	Create(ctx context.Context, order *Order) error

	// FindByID returns shared.ErrNotFound when the order does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByUser lists a user's orders, newest first
	FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]Order, int64, error)

	// UpdateStatus persists a status transition with optimistic locking and
	// saves pending events. When restock is true the order's quantities are
	// returned to product stock in the same transaction.
	UpdateStatus(ctx context.Context, order *Order, restock bool) error
}
