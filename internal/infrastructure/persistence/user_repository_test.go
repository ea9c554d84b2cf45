package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUser(t *testing.T, email string) *identity.User {
	t.Helper()
	u, err := identity.NewUser("Grace", email, "s3cret-pass")
	require.NoError(t, err)
	return u
}

func TestGormUserRepository_SaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupTestDB(t))
	u := newTestUser(t, "grace@example.com")

	require.NoError(t, repo.Save(ctx, u))

	byID, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "grace@example.com", byID.Email)
	assert.Equal(t, identity.RoleCustomer, byID.Role)
	assert.True(t, byID.VerifyPassword("s3cret-pass"))

	byEmail, err := repo.FindByEmail(ctx, "  GRACE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	exists, err := repo.ExistsByEmail(ctx, "grace@example.com")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestGormUserRepository_UpdatesExistingUser(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupTestDB(t))
	u := newTestUser(t, "ops@example.com")
	require.NoError(t, repo.Save(ctx, u))

	u.PromoteToAdmin()
	u.RecordLogin()
	require.NoError(t, repo.Save(ctx, u))

	found, err := repo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, found.IsAdmin())
	assert.NotNil(t, found.LastLoginAt)
}

func TestGormUserRepository_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupTestDB(t))
	require.NoError(t, repo.Save(ctx, newTestUser(t, "dup@example.com")))

	err := repo.Save(ctx, newTestUser(t, "dup@example.com"))

	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestGormUserRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(setupTestDB(t))

	_, err := repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)

	_, err = repo.FindByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	exists, err := repo.ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}
