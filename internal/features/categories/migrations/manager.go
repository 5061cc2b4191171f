package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/features/categories/models"
)

// Manager handles category feature migrations and sample data
type Manager struct {
	db               *core.Database
	migrationService *core.MigrationService
	logger           *core.Logger
}

// NewManager creates a new category migration manager
func NewManager(db *core.Database, logger *core.Logger) *Manager {
	return &Manager{
		db:               db,
		migrationService: core.NewMigrationService(db, logger),
		logger:           logger,
	}
}

// Migrations returns all category migrations in order
func (m *Manager) Migrations() []core.Migration {
	return []core.Migration{
		Migration001CreateCategoriesTable,
	}
}

// Migrate applies all pending category migrations
func (m *Manager) Migrate(ctx context.Context) error {
	migrations := m.Migrations()
	m.logger.Info("Starting category migrations", "count", len(migrations))

	if err := m.migrationService.Migrate(ctx, migrations); err != nil {
		return fmt.Errorf("failed to apply category migrations: %w", err)
	}

	m.logger.Info("Category migrations completed successfully")
	return nil
}

// Rollback rolls back the last applied category migration
func (m *Manager) Rollback(ctx context.Context) error {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}

	applied, err := m.migrationService.GetAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	// Find the last applied category migration
	var lastApplied *core.Migration
	for _, migration := range applied {
		for _, own := range m.Migrations() {
			if migration.Version == own.Version {
				own := own
				lastApplied = &own
			}
		}
	}

	if lastApplied == nil {
		return fmt.Errorf("no category migrations have been applied")
	}

	if err := m.migrationService.RollbackMigration(ctx, *lastApplied); err != nil {
		return fmt.Errorf("failed to rollback migration %d (%s): %w", lastApplied.Version, lastApplied.Name, err)
	}

	m.logger.Info("Rolled back category migration", "version", lastApplied.Version, "name", lastApplied.Name)
	return nil
}

// Status returns the current migration status
func (m *Manager) Status(ctx context.Context) (*core.MigrationStatus, error) {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}
	return m.migrationService.GetMigrationStatus(ctx)
}

// GetPendingMigrations returns migrations that haven't been applied yet
func (m *Manager) GetPendingMigrations(ctx context.Context) ([]core.Migration, error) {
	if err := m.migrationService.InitMigrations(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize migrations: %w", err)
	}

	applied, err := m.migrationService.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}

	appliedVersions := make(map[int]bool)
	for _, migration := range applied {
		appliedVersions[migration.Version] = true
	}

	var pending []core.Migration
	for _, migration := range m.Migrations() {
		if !appliedVersions[migration.Version] {
			pending = append(pending, migration)
		}
	}

	return pending, nil
}

// SeedSamples inserts the sample categories when the table is empty.
// It returns the number of rows inserted, which is zero on every run after
// the first.
func (m *Manager) SeedSamples(ctx context.Context, now time.Time) (int, error) {
	inserted := 0
	now = now.UTC()

	err := m.db.Transaction(ctx, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
			return fmt.Errorf("failed to count categories: %w", err)
		}
		if count > 0 {
			return nil
		}

		query := `INSERT INTO categories (name, item_count, image_url, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
		for _, sample := range models.SampleCategories {
			if _, err := tx.ExecContext(ctx, query, sample.Name, sample.ItemCount, sample.Image, now, now); err != nil {
				return fmt.Errorf("failed to insert sample category %q: %w", sample.Name, err)
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if inserted > 0 {
		m.logger.Info("Seeded sample categories", "count", inserted)
	}
	return inserted, nil
}
