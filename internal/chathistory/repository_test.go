package chathistory

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/database"
)

func TestRepositoryAppendForUnknownAccount(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, dsn, nil)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, database.Migrate(ctx, pool, nil))

	repo := NewRepository(pool)
	userID := uuid.New()
	sessionID := uuid.NewString()
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM ai_chat_history WHERE user_id = $1`, userID)
	})

	base := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.Append(ctx, userID, sessionID, models.ChatMessage{Role: models.ChatRoleUser, Content: "hi", CreatedAt: base}))
	require.NoError(t, repo.Append(ctx, userID, sessionID, models.ChatMessage{Role: models.ChatRoleAssistant, Content: "hello", CreatedAt: base.Add(time.Second)}))
	require.NoError(t, repo.Append(ctx, userID, sessionID, models.ChatMessage{Role: models.ChatRoleUser, Content: "register me", CreatedAt: base.Add(2 * time.Second)}))

	msgs, err := repo.ListBySession(ctx, userID, sessionID, 2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "register me", msgs[1].Content)
}
