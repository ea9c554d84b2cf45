package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

const (
	CodeProductNotFound = "PRODUCT_NOT_FOUND"
	CodeOutOfStock      = "OUT_OF_STOCK"
)

// Sentinels for errors.Is checks
var (
	ErrProductNotFound = shared.NewDomainError(CodeProductNotFound, "Product not found")
	ErrOutOfStock      = shared.NewDomainError(CodeOutOfStock, "Insufficient stock")
)

// ProductNotFoundError names the product that could not be found
type ProductNotFoundError struct {
	*shared.DomainError
	ProductID uuid.UUID
}

func NewProductNotFoundError(productID uuid.UUID) *ProductNotFoundError {
	return &ProductNotFoundError{
		DomainError: shared.NewDomainError(CodeProductNotFound, fmt.Sprintf("Product not found: %s", productID)),
		ProductID:   productID,
	}
}

func (e *ProductNotFoundError) Unwrap() error {
	return e.DomainError
}

// OutOfStockError is returned when a reservation asks for more than is available.
// No stock is taken for the offending product.
type OutOfStockError struct {
	*shared.DomainError
	ProductID uuid.UUID
	Requested int
	Available int
}

func NewOutOfStockError(productID uuid.UUID, name string, requested, available int) *OutOfStockError {
	label := name
	if label == "" {
		label = productID.String()
	}
	return &OutOfStockError{
		DomainError: shared.NewDomainError(CodeOutOfStock,
			fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", label, requested, available)),
		ProductID: productID,
		Requested: requested,
		Available: available,
	}
}

func (e *OutOfStockError) Unwrap() error {
	return e.DomainError
}
