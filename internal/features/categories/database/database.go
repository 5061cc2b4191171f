package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/core"
	"backoffice/internal/features/categories/models"
)

// ErrRecordNotFound is returned when no category has the requested id
var ErrRecordNotFound = errors.New("record not found")

// DatabaseService reads and writes category rows
type DatabaseService struct {
	db *core.Database
}

func NewDatabaseService(db *core.Database) *DatabaseService {
	return &DatabaseService{
		db: db,
	}
}

const categoryColumns = `id, name, item_count, image_url, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var category models.Category
	var createdAt, updatedAt core.Timestamp

	err := row.Scan(
		&category.ID,
		&category.Name,
		&category.ItemCount,
		&category.ImageURL,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	category.CreatedAt = createdAt.Time
	category.UpdatedAt = updatedAt.Time
	return &category, nil
}

// GetCategories retrieves every category, newest first
func (s *DatabaseService) GetCategories(ctx context.Context) ([]models.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories
		ORDER BY created_at DESC, id DESC
	`

	rows, cancel, err := s.db.QueryWithTimeout(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer cancel()
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, *category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// GetCategoryByID retrieves a specific category
func (s *DatabaseService) GetCategoryByID(ctx context.Context, id int) (*models.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = ?`

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	category, err := scanCategory(s.db.QueryRowContext(queryCtx, query, id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, fmt.Errorf("failed to get category %d: %w", id, err)
		}
	}

	return category, nil
}

// InsertCategory stores a new category and returns it with its assigned id
func (s *DatabaseService) InsertCategory(ctx context.Context, name string, itemCount int, image models.ImageRef, now time.Time) (*models.Category, error) {
	query := `
		INSERT INTO categories (name, item_count, image_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING ` + categoryColumns

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	now = now.UTC()
	category, err := scanCategory(s.db.QueryRowContext(queryCtx, query, name, itemCount, image, now, now))
	if err != nil {
		return nil, fmt.Errorf("failed to insert category: %w", err)
	}

	return category, nil
}

// UpdateCategory overwrites the mutable fields of a category.
// created_at is never touched.
func (s *DatabaseService) UpdateCategory(ctx context.Context, id int, name string, itemCount int, image models.ImageRef, now time.Time) (*models.Category, error) {
	query := `
		UPDATE categories
		SET name = ?, item_count = ?, image_url = ?, updated_at = ?
		WHERE id = ?
		RETURNING ` + categoryColumns

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	category, err := scanCategory(s.db.QueryRowContext(queryCtx, query, name, itemCount, image, now.UTC(), id))
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, fmt.Errorf("failed to update category %d: %w", id, err)
		}
	}

	return category, nil
}

// DeleteCategory removes a category row
func (s *DatabaseService) DeleteCategory(ctx context.Context, id int) error {
	result, err := s.db.ExecWithTimeout(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

// CountCategories returns the number of stored categories
func (s *DatabaseService) CountCategories(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowWithTimeout(ctx, `SELECT COUNT(*) FROM categories`, nil, &count); err != nil {
		return 0, fmt.Errorf("failed to count categories: %w", err)
	}
	return count, nil
}
