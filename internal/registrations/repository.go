package registrations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-workshops/backend/internal/models"
)

const uniqueViolation = "23505"

const registrationColumns = `id, workshop_id, first_name, last_name, email, phone, user_id, status, created_at`

// Repository handles registration persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a registrations repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert creates a confirmed registration if the workshop still has a free seat. The workshop
// row is locked for the count and the insert, so concurrent inserts for the same workshop queue
// up and the last seat goes to exactly one of them. Returns ErrWorkshopNotFound,
// ErrCapacityExceeded, or ErrAlreadyRegistered on a unique violation.
func (r *Repository) Insert(ctx context.Context, reg *models.Registration) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		var capacity int
		err := tx.QueryRow(ctx, `SELECT capacity FROM workshops WHERE id = $1 FOR UPDATE`, reg.WorkshopID).Scan(&capacity)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrWorkshopNotFound
		}
		if err != nil {
			return fmt.Errorf("lock workshop: %w", err)
		}

		var count int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE workshop_id = $1 AND status = 'confirmed'`,
			reg.WorkshopID).Scan(&count)
		if err != nil {
			return fmt.Errorf("count registrations: %w", err)
		}
		if count >= capacity {
			return ErrCapacityExceeded
		}

		const q = `INSERT INTO registrations (workshop_id, first_name, last_name, email, phone, user_id, status)
			VALUES ($1, $2, $3, $4, $5, $6, 'confirmed')
			RETURNING id, status, created_at`
		err = tx.QueryRow(ctx, q, reg.WorkshopID, reg.FirstName, reg.LastName, reg.Email, reg.Phone, reg.UserID).
			Scan(&reg.ID, &reg.Status, &reg.CreatedAt)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyRegistered
		}
		return err
	})
}

// CountByWorkshop returns confirmed registrations for a workshop.
func (r *Repository) CountByWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error) {
	const q = `SELECT COUNT(*) FROM registrations WHERE workshop_id = $1 AND status = 'confirmed'`
	var n int
	err := r.pool.QueryRow(ctx, q, workshopID).Scan(&n)
	return n, err
}

// IsRegistered reports whether the user holds a confirmed registration for the workshop.
func (r *Repository) IsRegistered(ctx context.Context, workshopID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM registrations WHERE workshop_id = $1 AND user_id = $2 AND status = 'confirmed')`
	var ok bool
	err := r.pool.QueryRow(ctx, q, workshopID, userID).Scan(&ok)
	return ok, err
}

// ExistsByEmail reports whether a confirmed registration exists for workshop+email (case-insensitive).
func (r *Repository) ExistsByEmail(ctx context.Context, workshopID uuid.UUID, email string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM registrations WHERE workshop_id = $1 AND LOWER(email) = LOWER($2) AND status = 'confirmed')`
	var ok bool
	err := r.pool.QueryRow(ctx, q, workshopID, email).Scan(&ok)
	return ok, err
}

// MostRecentByUser returns the user's newest registration, or nil if they have none.
func (r *Repository) MostRecentByUser(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	q := `SELECT ` + registrationColumns + ` FROM registrations WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`
	var reg models.Registration
	err := r.pool.QueryRow(ctx, q, userID).Scan(&reg.ID, &reg.WorkshopID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.Phone, &reg.UserID, &reg.Status, &reg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// CancelByUser cancels the user's confirmed registration for a workshop. Returns rows affected.
func (r *Repository) CancelByUser(ctx context.Context, workshopID, userID uuid.UUID) (int64, error) {
	const q = `UPDATE registrations SET status = 'cancelled' WHERE workshop_id = $1 AND user_id = $2 AND status = 'confirmed'`
	tag, err := r.pool.Exec(ctx, q, workshopID, userID)
	return tag.RowsAffected(), err
}

// CancelByEmail cancels confirmed registrations for workshop+email. Returns rows affected.
func (r *Repository) CancelByEmail(ctx context.Context, workshopID uuid.UUID, email string) (int64, error) {
	const q = `UPDATE registrations SET status = 'cancelled' WHERE workshop_id = $1 AND LOWER(email) = LOWER($2) AND status = 'confirmed'`
	tag, err := r.pool.Exec(ctx, q, workshopID, email)
	return tag.RowsAffected(), err
}

// ListByWorkshop returns a workshop's registrations, newest first.
func (r *Repository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Registration, error) {
	return r.list(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE workshop_id = $1 ORDER BY created_at DESC`, workshopID)
}

// ListByUser returns the user's registrations, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	return r.list(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

func (r *Repository) list(ctx context.Context, q string, arg uuid.UUID) ([]models.Registration, error) {
	rows, err := r.pool.Query(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Registration
	for rows.Next() {
		var reg models.Registration
		if err := rows.Scan(&reg.ID, &reg.WorkshopID, &reg.FirstName, &reg.LastName, &reg.Email, &reg.Phone, &reg.UserID, &reg.Status, &reg.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, reg)
	}
	return list, rows.Err()
}
