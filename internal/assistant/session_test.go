package assistant

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-workshops/backend/internal/models"
)

func TestSessionCloseFlow(t *testing.T) {
	s := &Session{ID: "s1", Draft: &Draft{WorkshopTitle: "go"}}
	s.append(models.ChatRoleUser, "register me for go")
	s.append(models.ChatRoleAssistant, "done")
	require.Len(t, s.flowMessages(), 2)

	s.closeFlow()
	assert.Nil(t, s.Draft)
	assert.Empty(t, s.flowMessages())

	s.append(models.ChatRoleUser, "thanks")
	assert.Len(t, s.flowMessages(), 1)
}

func TestMemoryStoreLoadSave(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	got, err := store.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	s := &Session{ID: "s1", Draft: &Draft{WorkshopTitle: "go"}}
	s.append(models.ChatRoleUser, "hi")
	require.NoError(t, store.Save(ctx, s))

	s.Draft.WorkshopTitle = "mutated"
	s.append(models.ChatRoleUser, "again")

	got, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Messages, 1)
	assert.Equal(t, "go", got.Draft.WorkshopTitle, "stored copy is isolated from the caller")
}

func TestMemoryStoreExpiresIdleSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(100 * time.Millisecond)

	require.NoError(t, store.Save(ctx, &Session{ID: "s1"}))
	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.NotNil(t, got)

	time.Sleep(150 * time.Millisecond)
	got, err = store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryStoreSweepsAbandonedSessions(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(50 * time.Millisecond)

	for i := 0; i < 20; i++ {
		require.NoError(t, store.Save(ctx, &Session{ID: fmt.Sprintf("s%d", i)}))
	}
	require.Equal(t, 20, store.Len())

	assert.Eventually(t, func() bool { return store.Len() == 0 }, 2*time.Second, 20*time.Millisecond,
		"idle sessions are evicted without being loaded")
}

func TestMemoryStoreTryLock(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	unlock, ok, err := store.TryLock(ctx, "s1")
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = store.TryLock(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, ok, "second turn must not enter")

	other, ok, err := store.TryLock(ctx, "s2")
	require.NoError(t, err)
	assert.True(t, ok, "sessions lock independently")
	other()

	unlock()
	unlock()

	again, ok, err := store.TryLock(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	again()
}
