package migrations

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"backoffice/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *core.Database) {
	t.Helper()
	logger := core.NewLoggerWithLevel(io.Discard, "error")
	db, err := core.OpenDatabase(filepath.Join(t.TempDir(), "categories.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewManager(db, logger), db
}

func TestCategoryMigrations(t *testing.T) {
	manager, db := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Migrate(ctx))

	var tables int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='categories'`).Scan(&tables))
	assert.Equal(t, 1, tables)

	// Migrations are idempotent
	require.NoError(t, manager.Migrate(ctx))

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&count))
	assert.Equal(t, len(manager.Migrations()), count)

	pending, err := manager.GetPendingMigrations(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestCategoryMigrationRollback(t *testing.T) {
	manager, db := newTestManager(t)
	ctx := context.Background()

	require.NoError(t, manager.Migrate(ctx))
	require.NoError(t, manager.Rollback(ctx))

	var tables int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='categories'`).Scan(&tables))
	assert.Equal(t, 0, tables)

	pending, err := manager.GetPendingMigrations(ctx)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	require.Error(t, manager.Rollback(ctx))
}

func TestSeedSamplesOnlyWhenEmpty(t *testing.T) {
	manager, db := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, manager.Migrate(ctx))

	inserted, err := manager.SeedSamples(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 9, inserted)

	inserted, err = manager.SeedSamples(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, inserted)

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM categories`).Scan(&count))
	assert.Equal(t, 9, count)

	var imageURL string
	require.NoError(t, db.QueryRow(`SELECT image_url FROM categories WHERE name = 'Hats'`).Scan(&imageURL))
	assert.Equal(t, "/api/placeholder/hats.jpg", imageURL)
}

func TestSeedSamplesSkipsNonEmptyTable(t *testing.T) {
	manager, db := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, manager.Migrate(ctx))

	_, err := db.Exec(`INSERT INTO categories (name, item_count) VALUES ('Shoes', 3)`)
	require.NoError(t, err)

	inserted, err := manager.SeedSamples(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
