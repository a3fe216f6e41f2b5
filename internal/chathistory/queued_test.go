package chathistory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/queue"
)

type mockEnqueuer struct {
	payloads []queue.ChatHistoryPayload
	err      error
}

func (m *mockEnqueuer) EnqueueChatHistory(_ context.Context, p queue.ChatHistoryPayload) error {
	if m.err != nil {
		return m.err
	}
	m.payloads = append(m.payloads, p)
	return nil
}

type mockReader struct {
	ListFunc func(userID uuid.UUID, sessionID string, limit int) ([]models.ChatMessage, error)
}

func (m *mockReader) ListBySession(_ context.Context, userID uuid.UUID, sessionID string, limit int) ([]models.ChatMessage, error) {
	return m.ListFunc(userID, sessionID, limit)
}

func TestQueuedWriterAppend(t *testing.T) {
	enq := &mockEnqueuer{}
	w := NewQueuedWriter(enq, nil)
	userID := uuid.New()
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	err := w.Append(context.Background(), userID, "s1", models.ChatMessage{Role: models.ChatRoleAssistant, Content: "hi", CreatedAt: at})
	require.NoError(t, err)
	require.Len(t, enq.payloads, 1)
	assert.Equal(t, queue.ChatHistoryPayload{UserID: userID, SessionID: "s1", Role: "assistant", Message: "hi", CreatedAt: at}, enq.payloads[0])
}

func TestQueuedWriterAppendError(t *testing.T) {
	w := NewQueuedWriter(&mockEnqueuer{err: errors.New("redis down")}, nil)
	err := w.Append(context.Background(), uuid.New(), "s1", models.ChatMessage{Role: models.ChatRoleUser, Content: "hi"})
	assert.Error(t, err)
}

func TestQueuedWriterReadsThrough(t *testing.T) {
	userID := uuid.New()
	reader := &mockReader{ListFunc: func(id uuid.UUID, sessionID string, limit int) ([]models.ChatMessage, error) {
		assert.Equal(t, userID, id)
		assert.Equal(t, "s1", sessionID)
		assert.Equal(t, 25, limit)
		return []models.ChatMessage{{Role: models.ChatRoleUser, Content: "hello"}}, nil
	}}
	w := NewQueuedWriter(&mockEnqueuer{}, reader)

	msgs, err := w.ListBySession(context.Background(), userID, "s1", 25)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Content)
}
