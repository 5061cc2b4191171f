package auth

import (
	"context"

	"backoffice/internal/core"
)

// MigrationCreateUsersTable creates the users table. Version 2 onwards
// belongs to the category feature.
var MigrationCreateUsersTable = core.Migration{
	Version:     1,
	Name:        "create_users_table",
	Description: "Create the back office users table",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash BLOB NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`,
	DownSQL: `DROP TABLE IF EXISTS users;`,
}

// Migrate applies the auth migrations
func Migrate(ctx context.Context, db *core.Database, logger *core.Logger) error {
	return core.NewMigrationService(db, logger).Migrate(ctx, []core.Migration{MigrationCreateUsersTable})
}
