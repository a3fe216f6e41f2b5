package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-workshops/backend/internal/models"
)

// Repository reads user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an account repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a user by ID, or nil when none exists.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const q = `SELECT id, email, full_name, role, created_at FROM users WHERE id = $1`
	var u models.User
	var role string
	err := r.pool.QueryRow(ctx, q, id).Scan(&u.ID, &u.Email, &u.FullName, &role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = models.Role(role)
	return &u, nil
}

// EmailByID returns the account email, or "" when the user does not exist.
func (r *Repository) EmailByID(ctx context.Context, id uuid.UUID) (string, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil || u == nil {
		return "", err
	}
	return u.Email, nil
}
