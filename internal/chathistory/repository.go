package chathistory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aura-workshops/backend/internal/models"
)

// Repository handles ai_chat_history.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a chat history repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save inserts one history row. A zero CreatedAt defaults to NOW().
func (r *Repository) Save(ctx context.Context, e *models.ChatHistoryEntry) error {
	const q = `INSERT INTO ai_chat_history (user_id, session_id, role, message, created_at)
		VALUES ($1, $2, $3, $4, COALESCE($5::timestamptz, NOW()))
		RETURNING id, created_at`
	var at interface{}
	if !e.CreatedAt.IsZero() {
		at = e.CreatedAt
	}
	if err := r.pool.QueryRow(ctx, q, e.UserID, e.SessionID, string(e.Role), e.Message, at).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("insert chat history: %w", err)
	}
	return nil
}

// Append stores one message of a session synchronously.
func (r *Repository) Append(ctx context.Context, userID uuid.UUID, sessionID string, msg models.ChatMessage) error {
	return r.Save(ctx, &models.ChatHistoryEntry{
		UserID:    userID,
		SessionID: sessionID,
		Role:      msg.Role,
		Message:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}

// ListBySession returns the newest limit messages of a session, oldest first.
func (r *Repository) ListBySession(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]models.ChatMessage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT role, message, created_at FROM (
			SELECT role, message, created_at FROM ai_chat_history
			WHERE user_id = $1 AND session_id = $2
			ORDER BY created_at DESC LIMIT $3
		) recent ORDER BY created_at ASC`,
		userID, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list chat history: %w", err)
	}
	defer rows.Close()
	var list []models.ChatMessage
	for rows.Next() {
		var m models.ChatMessage
		var role string
		if err := rows.Scan(&role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Role = models.ChatRole(role)
		list = append(list, m)
	}
	return list, rows.Err()
}
