package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order.OrderRepository using GORM.
// Pending domain events are written to the outbox inside the same transaction.
type GormOrderRepository struct {
	db     *gorm.DB
	outbox shared.OutboxEventSaver
}

// NewGormOrderRepository creates a new GormOrderRepository. outbox may be nil,
// in which case raised events are dropped.
func NewGormOrderRepository(db *gorm.DB, outbox shared.OutboxEventSaver) *GormOrderRepository {
	return &GormOrderRepository{db: db, outbox: outbox}
}

// Create inserts the order, its items and its pending events atomically
func (r *GormOrderRepository) Create(ctx context.Context, o *order.Order) error {
	model := models.OrderModelFromDomain(o)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return r.saveEvents(ctx, tx, o)
	})
	if err != nil {
		if isUniqueViolation(err) {
			return order.ErrDuplicateOrderNumber
		}
		return err
	}

	o.ClearDomainEvents()
	return nil
}

// FindByID finds an order with its items
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	var model models.OrderModel
	if err := r.withItems(r.db.WithContext(ctx)).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByUser lists a user's orders, newest first unless filter says otherwise
func (r *GormOrderRepository) FindByUser(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]order.Order, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.withItems(r.db.WithContext(ctx)).
		Where("user_id = ?", userID).
		Order(orderClause(filter.OrderBy, filter.OrderDir, OrderSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.OrderModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	orders := make([]order.Order, len(rows))
	for i := range rows {
		orders[i] = *rows[i].ToDomain()
	}
	return orders, total, nil
}

// UpdateStatus writes a transition guarded by the previous version.
// With restock the line quantities go back to product stock in the same transaction.
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, o *order.Order, restock bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND version = ?", o.ID, o.Version-1).
			Updates(map[string]interface{}{
				"status":              o.Status,
				"payment_status":      o.PaymentStatus,
				"tracking_number":     o.TrackingNumber,
				"estimated_delivery":  o.EstimatedDelivery,
				"delivered_at":        o.DeliveredAt,
				"cancelled_at":        o.CancelledAt,
				"cancellation_reason": o.CancellationReason,
				"version":             o.Version,
				"updated_at":          o.UpdatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if restock {
			for _, item := range o.Items {
				err := restoreStock(tx, item.ProductID, item.Quantity)
				// A product removed from the catalog has nothing to restock
				if err != nil && !errors.Is(err, catalog.ErrProductNotFound) {
					return err
				}
			}
		}

		return r.saveEvents(ctx, tx, o)
	})
	if err != nil {
		return err
	}

	o.ClearDomainEvents()
	return nil
}

func (r *GormOrderRepository) withItems(db *gorm.DB) *gorm.DB {
	return db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("sort_order ASC")
	})
}

func (r *GormOrderRepository) saveEvents(ctx context.Context, tx *gorm.DB, o *order.Order) error {
	events := o.GetDomainEvents()
	if r.outbox == nil || len(events) == 0 {
		return nil
	}
	return r.outbox.SaveEvents(ctx, tx, events...)
}

var _ order.OrderRepository = (*GormOrderRepository)(nil)
