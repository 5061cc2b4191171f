package migrations

import (
	"backoffice/internal/core"
)

// Migration001CreateCategoriesTable creates the categories table.
// Version 1 belongs to the auth users table.
var Migration001CreateCategoriesTable = core.Migration{
	Version:     2,
	Name:        "create_categories_table",
	Description: "Create the product categories table",
	UpSQL: `
		CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			item_count INTEGER NOT NULL DEFAULT 0 CHECK (item_count >= 0),
			image_url TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_categories_created_at ON categories(created_at DESC, id DESC);
	`,
	DownSQL: `
		DROP INDEX IF EXISTS idx_categories_created_at;
		DROP TABLE IF EXISTS categories;
	`,
}
