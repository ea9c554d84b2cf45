package cart

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCart_Add(t *testing.T) {
	c := New(uuid.New())
	productID := uuid.New()

	first, err := c.Add(productID, 2)
	require.NoError(t, err)
	_, err = c.Add(productID, 3)
	require.NoError(t, err)

	require.Len(t, c.Items, 1)
	assert.Equal(t, first.ID, c.Items[0].ID)
	assert.Equal(t, 5, c.QuantityOf(productID))

	_, err = c.Add(uuid.New(), 0)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
}

func TestCart_UpdateQuantity(t *testing.T) {
	c := New(uuid.New())
	item, _ := c.Add(uuid.New(), 1)

	require.NoError(t, c.UpdateQuantity(item.ID, 4))
	assert.Equal(t, 4, c.Items[0].Quantity)

	assert.True(t, errors.Is(c.UpdateQuantity(uuid.New(), 1), ErrCartItemNotFound))
	assert.True(t, errors.Is(c.UpdateQuantity(item.ID, 0), ErrInvalidQuantity))
}

func TestCart_Remove(t *testing.T) {
	c := New(uuid.New())
	a, _ := c.Add(uuid.New(), 1)
	aID := a.ID
	_, _ = c.Add(uuid.New(), 1)

	c.Remove(aID)
	assert.Len(t, c.Items, 1)

	c.Remove(uuid.New())
	assert.Len(t, c.Items, 1)
	assert.False(t, c.IsEmpty())
}
