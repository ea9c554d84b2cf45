package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
)

// CartItemModel is one line of a user's cart.
// A user holds at most one line per product.
type CartItemModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_user_product,priority:1"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cart_items_user_product,priority:2"`
	Quantity  int       `gorm:"not null"`
	AddedAt   time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CartItemModel) TableName() string {
	return "cart_items"
}

// CartItemModelsFromDomain flattens a cart into rows
func CartItemModelsFromDomain(c *cart.Cart) []CartItemModel {
	rows := make([]CartItemModel, len(c.Items))
	for i, item := range c.Items {
		rows[i] = CartItemModel{
			ID:        item.ID,
			UserID:    c.UserID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			AddedAt:   item.AddedAt,
		}
	}
	return rows
}

// CartFromModels rebuilds a cart from its rows
func CartFromModels(userID uuid.UUID, rows []CartItemModel) *cart.Cart {
	c := cart.New(userID)
	for _, row := range rows {
		c.Items = append(c.Items, cart.Item{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			AddedAt:   row.AddedAt,
		})
	}
	return c
}
