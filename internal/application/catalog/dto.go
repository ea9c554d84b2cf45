package catalog

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// CreateProductRequest is the body of POST /products
type CreateProductRequest struct {
	Name  string          `json:"name" binding:"required,min=1,max=200"`
	Image string          `json:"image" binding:"omitempty,max=500"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock" binding:"min=0"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Sold      int             `json:"sold"`
	InStock   bool            `json:"in_stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToProductResponse converts a domain product to its response form
func ToProductResponse(p *catalog.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Image:     p.Image,
		Price:     p.Price,
		Stock:     p.Stock,
		Sold:      p.Sold,
		InStock:   p.Stock > 0,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}
