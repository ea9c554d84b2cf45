package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// CartService manages the shopper's cart
type CartService struct {
	carts    cart.Repository
	products catalog.ProductReader
	logger   *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(carts cart.Repository, products catalog.ProductReader, logger *zap.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// Get returns the user's cart with current product data
func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, c)
}

// Add puts a product in the cart. The merged quantity must not exceed
// current stock; this is advisory, placement reserves stock for real.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, req AddItemRequest) (*CartResponse, error) {
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	product, err := s.products.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	wanted := c.QuantityOf(product.ID) + quantity
	if !product.HasStock(wanted) {
		return nil, catalog.NewOutOfStockError(product.ID, product.Name, wanted, product.Stock)
	}

	if _, err := c.Add(product.ID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}

	s.logger.Debug("cart item added",
		zap.String("user_id", userID.String()),
		zap.String("product_id", product.ID.String()),
		zap.Int("quantity", wanted),
	)
	return s.render(ctx, c)
}

// UpdateQuantity sets the quantity of one cart line
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uuid.UUID, req UpdateItemRequest) (*CartResponse, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var productID uuid.UUID
	for _, item := range c.Items {
		if item.ID == itemID {
			productID = item.ProductID
			break
		}
	}
	if productID == uuid.Nil {
		return nil, cart.ErrCartItemNotFound
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.HasStock(req.Quantity) {
		return nil, catalog.NewOutOfStockError(product.ID, product.Name, req.Quantity, product.Stock)
	}

	if err := c.UpdateQuantity(itemID, req.Quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.render(ctx, c)
}

// Remove drops one cart line. Removing a line that is not there succeeds.
func (s *CartService) Remove(ctx context.Context, userID, itemID uuid.UUID) (*CartResponse, error) {
	c, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.Remove(itemID)
	if err := s.carts.Save(ctx, c); err != nil {
		return nil, err
	}
	return s.render(ctx, c)
}

// Clear empties the cart. Clearing an empty cart is a no-op.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.carts.Clear(ctx, userID)
}

func (s *CartService) render(ctx context.Context, c *cart.Cart) (*CartResponse, error) {
	resp := &CartResponse{
		Items:    make([]CartItemResponse, 0, len(c.Items)),
		Subtotal: decimal.Zero,
	}

	for _, item := range c.Items {
		line := CartItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Price:     decimal.Zero,
			Subtotal:  decimal.Zero,
			AddedAt:   item.AddedAt,
		}

		product, err := s.products.FindByID(ctx, item.ProductID)
		switch {
		case err == nil:
			line.Name = product.Name
			line.Image = product.Image
			line.Price = product.Price
			line.Stock = product.Stock
			line.Subtotal = product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			line.Available = product.HasStock(item.Quantity)
			resp.Subtotal = resp.Subtotal.Add(line.Subtotal)
		case errors.Is(err, catalog.ErrProductNotFound):
			// product withdrawn after it was carted
		default:
			return nil, err
		}

		resp.ItemCount += item.Quantity
		resp.Items = append(resp.Items, line)
	}
	return resp, nil
}
