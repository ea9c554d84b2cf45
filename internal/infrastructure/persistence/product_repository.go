package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormProductRepository implements catalog.ProductRepository and
// catalog.StockReservation using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, catalog.NewProductNotFoundError(id)
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	product.UpdatedAt = time.Now()
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

// reserveStockSQL decrements stock only when enough is on hand and returns the
// snapshot the order line copies, so the decrement and the read are one statement.
const reserveStockSQL = "UPDATE products SET stock = stock - ?, sold = sold + ?, updated_at = ? " +
	"WHERE id = ? AND stock >= ? RETURNING name, COALESCE(image, '') AS image, price"

type reservedSnapshot struct {
	Name  string
	Image string
	Price decimal.Decimal
}

// Reserve decrements stock with a single conditional UPDATE so that two
// concurrent reservations can never both succeed past the available quantity.
// The statement runs in its own transaction: a snapshot that cannot be scanned
// rolls the decrement back instead of leaving stock taken with no reservation.
// When no row matches, a follow-up read tells a missing product from short stock.
func (r *GormProductRepository) Reserve(ctx context.Context, productID uuid.UUID, quantity int) (*catalog.ReservedItem, error) {
	if quantity < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}

	var snapshots []reservedSnapshot
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Raw(reserveStockSQL, quantity, quantity, time.Now(), productID, quantity).
			Scan(&snapshots).Error
	})
	if err != nil {
		return nil, err
	}

	if len(snapshots) == 0 {
		product, err := r.FindByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		return nil, catalog.NewOutOfStockError(productID, product.Name, quantity, product.Stock)
	}

	snap := snapshots[0]
	return &catalog.ReservedItem{
		ProductID: productID,
		Quantity:  quantity,
		Name:      snap.Name,
		Image:     snap.Image,
		UnitPrice: snap.Price,
	}, nil
}

// Release gives back exactly the quantity recorded in item.
// A released item is marked so a second call does nothing.
func (r *GormProductRepository) Release(ctx context.Context, item *catalog.ReservedItem) error {
	if item == nil || item.Released() {
		return nil
	}
	if err := r.restore(ctx, item.ProductID, item.Quantity); err != nil {
		return err
	}
	item.MarkReleased()
	return nil
}

func (r *GormProductRepository) restore(ctx context.Context, productID uuid.UUID, quantity int) error {
	return restoreStock(r.db.WithContext(ctx), productID, quantity)
}

// restoreStock adds quantity back to a product using db, which may be a transaction.
// sold is reduced by the same quantity the reservation added to it; the
// chk_products_sold constraint rejects a give-back that was never taken.
func restoreStock(db *gorm.DB, productID uuid.UUID, quantity int) error {
	result := db.Model(&models.ProductModel{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", quantity),
			"sold":       gorm.Expr("sold - ?", quantity),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return catalog.NewProductNotFoundError(productID)
	}
	return nil
}

var (
	_ catalog.ProductRepository = (*GormProductRepository)(nil)
	_ catalog.StockReservation  = (*GormProductRepository)(nil)
)
