package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"backoffice/internal/core"
)

// Common errors
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrDuplicateEmail = errors.New("duplicate email")
)

// UserModel handles database operations for users
type UserModel struct {
	db     *core.Database
	logger *core.Logger
}

// NewUserModel creates a new user model
func NewUserModel(db *core.Database, logger *core.Logger) *UserModel {
	return &UserModel{
		db:     db,
		logger: logger,
	}
}

// Insert creates a new user
func (m *UserModel) Insert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id, created_at
	`

	args := []interface{}{user.Name, user.Email, user.Password.hash, time.Now().UTC()}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var createdAt core.Timestamp
	err := m.db.QueryRowContext(ctx, query, args...).Scan(&user.ID, &createdAt)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "UNIQUE constraint failed: users.email"):
			return ErrDuplicateEmail
		default:
			return err
		}
	}

	user.CreatedAt = createdAt.Time
	return nil
}

// GetByEmail retrieves a user by email
func (m *UserModel) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `
		SELECT id, created_at, name, email, password_hash
		FROM users
		WHERE email = ?
	`
	return m.getOne(ctx, query, email)
}

// GetByID retrieves a user by id
func (m *UserModel) GetByID(ctx context.Context, id int) (*User, error) {
	query := `
		SELECT id, created_at, name, email, password_hash
		FROM users
		WHERE id = ?
	`
	return m.getOne(ctx, query, id)
}

func (m *UserModel) getOne(ctx context.Context, query string, arg any) (*User, error) {
	var user User
	var createdAt core.Timestamp

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := m.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&createdAt,
		&user.Name,
		&user.Email,
		&user.Password.hash,
	)

	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrRecordNotFound
		default:
			return nil, err
		}
	}

	user.CreatedAt = createdAt.Time
	return &user, nil
}
