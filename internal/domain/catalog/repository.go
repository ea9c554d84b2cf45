package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductReader looks up current catalog data
type ProductReader interface {
	// FindByID returns ErrProductNotFound when the product does not exist
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
}

// ProductRepository is the catalog's persistence port
type ProductRepository interface {
	ProductReader
	Save(ctx context.Context, product *Product) error
}

// ReservedItem records one successful stock decrement together with the
// product snapshot captured at that moment.
type ReservedItem struct {
	ProductID uuid.UUID
	Quantity  int
	Name      string
	Image     string
	UnitPrice decimal.Decimal

	released bool
}

// Released reports whether the decrement has already been reversed
func (r *ReservedItem) Released() bool {
	return r.released
}

// MarkReleased flags the reservation as reversed so it is never released twice
func (r *ReservedItem) MarkReleased() {
	r.released = true
}

// StockReservation takes and gives back stock with storage-level atomicity.
// Reserve must not read-then-write: the decrement is conditional on stock >= quantity
// in a single statement.
type StockReservation interface {
	// Reserve fails with ProductNotFoundError or OutOfStockError
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) (*ReservedItem, error)
	// Release reverses exactly the decrement recorded in item. Releasing twice is a no-op.
	Release(ctx context.Context, item *ReservedItem) error
}
