package persistence

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB opens a file-backed SQLite database with every storefront table.
// A single connection keeps SQLite from reporting "database is locked" while
// goroutines race through the repositories.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "storefront.db") + "?_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.ProductModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.CartItemModel{},
		&models.UserModel{},
		&models.OutboxEntryModel{},
	))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string, stock int) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(name, name+".png", decimal.RequireFromString(price), stock)
	require.NoError(t, err)
	require.NoError(t, NewGormProductRepository(db).Save(context.Background(), p))
	return p
}

func stockOf(t *testing.T, db *gorm.DB, p *catalog.Product) int {
	t.Helper()
	found, err := NewGormProductRepository(db).FindByID(context.Background(), p.ID)
	require.NoError(t, err)
	return found.Stock
}

// recordingOutbox captures the events handed to the outbox and can be told to fail
type recordingOutbox struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (o *recordingOutbox) SaveEvents(_ context.Context, tx any, events ...shared.DomainEvent) error {
	if _, ok := tx.(*gorm.DB); !ok {
		panic("outbox expects a *gorm.DB transaction")
	}
	if o.err != nil {
		return o.err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, events...)
	return nil
}

func (o *recordingOutbox) eventTypes() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	types := make([]string, len(o.events))
	for i, e := range o.events {
		types[i] = e.EventType()
	}
	return types
}
