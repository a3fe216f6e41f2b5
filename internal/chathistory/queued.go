package chathistory

import (
	"context"

	"github.com/google/uuid"

	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/queue"
)

// Enqueuer accepts history jobs. *queue.Queue implements it.
type Enqueuer interface {
	EnqueueChatHistory(ctx context.Context, payload queue.ChatHistoryPayload) error
}

// Reader reads persisted history. *Repository implements it.
type Reader interface {
	ListBySession(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]models.ChatMessage, error)
}

// QueuedWriter hands writes to the worker queue and reads from the database, so a slow
// database never delays a chat reply.
type QueuedWriter struct {
	queue  Enqueuer
	reader Reader
}

// NewQueuedWriter creates a queue-backed history store.
func NewQueuedWriter(q Enqueuer, reader Reader) *QueuedWriter {
	return &QueuedWriter{queue: q, reader: reader}
}

// Append enqueues the message for the history worker.
func (w *QueuedWriter) Append(ctx context.Context, userID uuid.UUID, sessionID string, msg models.ChatMessage) error {
	return w.queue.EnqueueChatHistory(ctx, queue.ChatHistoryPayload{
		UserID:    userID,
		SessionID: sessionID,
		Role:      string(msg.Role),
		Message:   msg.Content,
		CreatedAt: msg.CreatedAt,
	})
}

// ListBySession implements Reader.
func (w *QueuedWriter) ListBySession(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]models.ChatMessage, error) {
	return w.reader.ListBySession(ctx, userID, sessionID, limit)
}
