package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Product is a sellable catalog item.
// Stock is the quantity still available; Sold counts units taken by orders.
type Product struct {
	ID        uuid.UUID
	Name      string
	Image     string
	Price     decimal.Decimal
	Stock     int
	Sold      int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewProduct creates a product with an initial stock level
func NewProduct(name, image string, price decimal.Decimal, stock int) (*Product, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product name cannot be empty")
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product price cannot be negative")
	}
	if stock < 0 {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product stock cannot be negative")
	}

	now := time.Now()
	return &Product{
		ID:        uuid.New(),
		Name:      name,
		Image:     image,
		Price:     price,
		Stock:     stock,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasStock reports whether quantity units are currently available
func (p *Product) HasStock(quantity int) bool {
	return quantity > 0 && p.Stock >= quantity
}
