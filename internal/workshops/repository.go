package workshops

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-workshops/backend/internal/models"
)

const selectWorkshop = `SELECT w.id, w.title, w.description, w.capacity, w.start_date, w.end_date, w.created_at, w.updated_at,
		(SELECT COUNT(*) FROM registrations r WHERE r.workshop_id = w.id AND r.status = 'confirmed')
	FROM workshops w`

// Repository is the read-only workshop directory.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a workshop repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByID returns a workshop by ID, or nil when it does not exist.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error) {
	w, err := scanWorkshop(r.pool.QueryRow(ctx, selectWorkshop+` WHERE w.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// FindByTitle resolves free text to a workshop by case-insensitive substring match on the
// normalized text. When several titles match, the earliest-starting one wins; no disambiguation
// is attempted. Returns nil when nothing matches.
func (r *Repository) FindByTitle(ctx context.Context, text string) (*models.Workshop, error) {
	q := NormalizeTitle(text)
	if q == "" {
		return nil, nil
	}
	w, err := scanWorkshop(r.pool.QueryRow(ctx,
		selectWorkshop+` WHERE w.title ILIKE '%' || $1 || '%' ORDER BY w.start_date, w.created_at LIMIT 1`,
		escapeLike(q)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return w, err
}

// ListUpcoming returns workshops that have not ended yet, soonest first.
func (r *Repository) ListUpcoming(ctx context.Context, limit int) ([]models.Workshop, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx,
		selectWorkshop+` WHERE COALESCE(w.end_date, w.start_date) >= NOW() ORDER BY w.start_date LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Workshop
	for rows.Next() {
		w, err := scanWorkshop(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *w)
	}
	return list, rows.Err()
}

func scanWorkshop(row pgx.Row) (*models.Workshop, error) {
	var w models.Workshop
	err := row.Scan(&w.ID, &w.Title, &w.Description, &w.Capacity, &w.StartDate, &w.EndDate, &w.CreatedAt, &w.UpdatedAt, &w.RegisteredCount)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
