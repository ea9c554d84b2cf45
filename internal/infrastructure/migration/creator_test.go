package migration

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/storefront/backend/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"add users table":         "add_users_table",
		"Add-Users-Table":         "add_users_table",
		"add__users__table":       "add_users_table",
		"create-product-category": "create_product_category",
		"   spaces   ":            "spaces",
		"special!@#$chars":        "specialchars",
		"_leading":                "leading",
		"trailing_":               "trailing",
		"":                        "",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeName(in), in)
	}
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- test"), 0o644))
	}
}

func TestCreateMigration_NumbersSequentially(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "000001_create_users.up.sql", "000001_create_users.down.sql",
		"000004_create_cart_items.up.sql", "000004_create_cart_items.down.sql")

	mf, err := CreateMigration(dir, "Add product SKU", "Adds a unique SKU column")
	require.NoError(t, err)

	assert.Equal(t, "000005", mf.Version)
	assert.Equal(t, "000005_add_product_sku.up.sql", filepath.Base(mf.UpPath))
	assert.Equal(t, "000005_add_product_sku.down.sql", filepath.Base(mf.DownPath))

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "Add product SKU")
	assert.Contains(t, string(up), "Adds a unique SKU column")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.Contains(t, string(down), "Rollback")
}

func TestCreateMigration_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "migrations")

	mf, err := CreateMigration(dir, "init", "")
	require.NoError(t, err)
	assert.Equal(t, "000001", mf.Version)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateMigration_RejectsEmptyName(t *testing.T) {
	_, err := CreateMigration(t.TempDir(), "!!!", "")
	assert.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"000002_add_users.up.sql", "000002_add_users.down.sql",
		"000001_init.up.sql", "000001_init.down.sql",
		"README.md", ".gitkeep",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.up.sql"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000001_init", "000002_add_users"}, names)
}

func TestListMigrations_MissingDirectory(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	require.NoError(t, err)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		if base, ok := strings.CutSuffix(e.Name(), ".up.sql"); ok {
			ups[base] = true
		}
		if base, ok := strings.CutSuffix(e.Name(), ".down.sql"); ok {
			downs[base] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)

	src, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)
}

func TestEmbeddedMigrations_ProductsKeepStockNonNegative(t *testing.T) {
	body, err := fs.ReadFile(migrations.FS, "000002_create_products.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "CHECK (stock >= 0)")

	body, err = fs.ReadFile(migrations.FS, "000003_create_orders.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "UNIQUE INDEX IF NOT EXISTS idx_orders_order_number")
}
