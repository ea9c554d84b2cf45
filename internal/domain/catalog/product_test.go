package catalog

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProduct(t *testing.T) {
	tests := []struct {
		name    string
		pname   string
		price   decimal.Decimal
		stock   int
		wantErr bool
	}{
		{"valid", "Keyboard", decimal.NewFromInt(100), 5, false},
		{"free item", "Sticker", decimal.Zero, 0, false},
		{"blank name", "  ", decimal.NewFromInt(1), 1, true},
		{"negative price", "Mouse", decimal.NewFromInt(-1), 1, true},
		{"negative stock", "Mouse", decimal.NewFromInt(1), -1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProduct(tt.pname, "img.png", tt.price, tt.stock)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, p.ID)
			assert.Zero(t, p.Sold)
		})
	}
}

func TestProduct_HasStock(t *testing.T) {
	p := &Product{Stock: 3}

	assert.True(t, p.HasStock(3))
	assert.False(t, p.HasStock(4))
	assert.False(t, p.HasStock(0))
}

func TestOutOfStockError(t *testing.T) {
	id := uuid.New()
	err := NewOutOfStockError(id, "Keyboard", 3, 2)

	assert.True(t, errors.Is(err, ErrOutOfStock))
	assert.Equal(t, CodeOutOfStock, shared.CodeOf(err))
	assert.Contains(t, err.Error(), "requested 3, available 2")

	var oos *OutOfStockError
	require.True(t, errors.As(err, &oos))
	assert.Equal(t, id, oos.ProductID)
}

func TestProductNotFoundError(t *testing.T) {
	id := uuid.New()
	err := NewProductNotFoundError(id)

	assert.True(t, errors.Is(err, ErrProductNotFound))
	assert.False(t, errors.Is(err, ErrOutOfStock))
	assert.Contains(t, err.Error(), id.String())
}

func TestReservedItem_Released(t *testing.T) {
	item := &ReservedItem{ProductID: uuid.New(), Quantity: 2}
	assert.False(t, item.Released())

	item.MarkReleased()
	assert.True(t, item.Released())
}
