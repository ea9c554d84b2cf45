package cart

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

var (
	ErrCartItemNotFound = shared.NewDomainError("CART_ITEM_NOT_FOUND", "Cart item not found")
	ErrInvalidQuantity  = shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
)

// Item is one product line in a cart
type Item struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	Quantity  int
	AddedAt   time.Time
}

// Cart is a user's ordered list of products they intend to buy
type Cart struct {
	UserID uuid.UUID
	Items  []Item
}

// New returns an empty cart for userID
func New(userID uuid.UUID) *Cart {
	return &Cart{UserID: userID, Items: []Item{}}
}

// Add puts quantity units of productID in the cart, merging with an existing line
func (c *Cart) Add(productID uuid.UUID, quantity int) (*Item, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			return &c.Items[i], nil
		}
	}
	c.Items = append(c.Items, Item{
		ID:        uuid.New(),
		ProductID: productID,
		Quantity:  quantity,
		AddedAt:   time.Now(),
	})
	return &c.Items[len(c.Items)-1], nil
}

// QuantityOf returns how many units of productID are already in the cart
func (c *Cart) QuantityOf(productID uuid.UUID) int {
	for _, item := range c.Items {
		if item.ProductID == productID {
			return item.Quantity
		}
	}
	return 0
}

func (c *Cart) UpdateQuantity(itemID uuid.UUID, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = quantity
			return nil
		}
	}
	return ErrCartItemNotFound
}

// Remove drops the line with itemID. Removing a missing line is not an error.
func (c *Cart) Remove(itemID uuid.UUID) {
	kept := c.Items[:0]
	for _, item := range c.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	c.Items = kept
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// Clearer empties a user's cart. Clearing an empty cart is a no-op.
type Clearer interface {
	Clear(ctx context.Context, userID uuid.UUID) error
}

// Repository persists carts
type Repository interface {
	Clearer
	// FindByUser returns the user's cart, or an empty cart if none exists
	FindByUser(ctx context.Context, userID uuid.UUID) (*Cart, error)
	// Save replaces the stored lines with the cart's current lines
	Save(ctx context.Context, cart *Cart) error
}
