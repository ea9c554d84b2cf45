package models

import (
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// ProductModel is the persistence model for the Product domain entity.
// The stock check constraint backs the conditional decrement used for reservations;
// the sold check catches a release that gives back more than was reserved.
type ProductModel struct {
	BaseModel
	Name  string          `gorm:"type:varchar(200);not null"`
	Image string          `gorm:"type:varchar(500)"`
	Price decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Stock int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	Sold  int             `gorm:"not null;default:0;check:chk_products_sold,sold >= 0"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product entity.
func (m *ProductModel) ToDomain() *catalog.Product {
	return &catalog.Product{
		ID:        m.ID,
		Name:      m.Name,
		Image:     m.Image,
		Price:     m.Price,
		Stock:     m.Stock,
		Sold:      m.Sold,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomain populates the persistence model from a domain Product entity.
func (m *ProductModel) FromDomain(p *catalog.Product) {
	m.ID = p.ID
	m.CreatedAt = p.CreatedAt
	m.UpdatedAt = p.UpdatedAt
	m.Name = p.Name
	m.Image = p.Image
	m.Price = p.Price
	m.Stock = p.Stock
	m.Sold = p.Sold
}

// ProductModelFromDomain creates a new persistence model from a domain Product entity.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}
