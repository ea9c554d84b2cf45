package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCartRepository implements cart.Repository using GORM
type GormCartRepository struct {
	db *gorm.DB
}

// NewGormCartRepository creates a new GormCartRepository
func NewGormCartRepository(db *gorm.DB) *GormCartRepository {
	return &GormCartRepository{db: db}
}

// FindByUser loads the user's cart lines in the order they were added
func (r *GormCartRepository) FindByUser(ctx context.Context, userID uuid.UUID) (*cart.Cart, error) {
	var rows []models.CartItemModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("added_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return models.CartFromModels(userID, rows), nil
}

// Save replaces the user's stored lines with the cart's lines
func (r *GormCartRepository) Save(ctx context.Context, c *cart.Cart) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", c.UserID).Delete(&models.CartItemModel{}).Error; err != nil {
			return err
		}
		rows := models.CartItemModelsFromDomain(c)
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}

// Clear deletes every line of the user's cart. An empty cart deletes nothing.
func (r *GormCartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartItemModel{}).Error
}

var _ cart.Repository = (*GormCartRepository)(nil)
