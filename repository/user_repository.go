package repository

import (
	"context"
	"errors"
	"fmt"

	"streameconomy/database"
	"streameconomy/domain/entities"
	"streameconomy/domain/interfaces"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, role, status, created_at, updated_at`

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepository creates a new user repository with a transaction
func newUserRepository(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

// GetByID retrieves a user, returning nil when absent
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entities.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user entities.User
	err := r.q.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return &user, nil
}

// Create registers a new user
func (r *UserRepository) Create(ctx context.Context, username string, role entities.UserRole) (*entities.User, error) {
	query := `
		INSERT INTO users (username, role)
		VALUES ($1, $2)
		RETURNING ` + userColumns

	var user entities.User
	err := r.q.QueryRow(ctx, query, username, role).Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.Status,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err, "users_username_key") {
			return nil, interfaces.ErrDuplicateUsername
		}
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	return &user, nil
}

// UpdateRole changes a user's role
func (r *UserRepository) UpdateRole(ctx context.Context, id int64, role entities.UserRole) error {
	query := `UPDATE users SET role = $2, updated_at = NOW() WHERE id = $1`

	tag, err := r.q.Exec(ctx, query, id, role)
	if err != nil {
		return fmt.Errorf("failed to update role of user %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d not found", id)
	}
	return nil
}
