package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCartRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCartRepository(setupTestDB(t))
	userID := uuid.New()
	first, second := uuid.New(), uuid.New()

	c := cart.New(userID)
	_, err := c.Add(first, 2)
	require.NoError(t, err)
	_, err = c.Add(second, 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, c))

	found, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, found.Items, 2)
	assert.Equal(t, 2, found.QuantityOf(first))
	assert.Equal(t, 1, found.QuantityOf(second))

	found.Remove(found.Items[0].ID)
	require.NoError(t, repo.Save(ctx, found))

	again, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, again.Items, 1)
}

func TestGormCartRepository_FindByUser_Empty(t *testing.T) {
	found, err := NewGormCartRepository(setupTestDB(t)).FindByUser(context.Background(), uuid.New())

	require.NoError(t, err)
	assert.True(t, found.IsEmpty())
}

func TestGormCartRepository_Clear(t *testing.T) {
	ctx := context.Background()
	repo := NewGormCartRepository(setupTestDB(t))
	userID, otherID := uuid.New(), uuid.New()

	for _, id := range []uuid.UUID{userID, otherID} {
		c := cart.New(id)
		_, err := c.Add(uuid.New(), 1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, c))
	}

	require.NoError(t, repo.Clear(ctx, userID))

	mine, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.True(t, mine.IsEmpty())

	theirs, err := repo.FindByUser(ctx, otherID)
	require.NoError(t, err)
	assert.Len(t, theirs.Items, 1)
}

func TestGormCartRepository_ClearEmptyCartIsNoOp(t *testing.T) {
	repo := NewGormCartRepository(setupTestDB(t))
	userID := uuid.New()

	require.NoError(t, repo.Clear(context.Background(), userID))
	require.NoError(t, repo.Clear(context.Background(), userID))
}
