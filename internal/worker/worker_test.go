package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/queue"
)

type mockSaver struct {
	mu      sync.Mutex
	entries []*models.ChatHistoryEntry
	err     error
	saved   chan struct{}
}

func (m *mockSaver) Save(_ context.Context, e *models.ChatHistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	if m.saved != nil {
		m.saved <- struct{}{}
	}
	return nil
}

type mockQueue struct {
	mu      sync.Mutex
	jobs    []*queue.Job
	retried []*queue.Job
}

func (m *mockQueue) Dequeue(ctx context.Context) (*queue.Job, string, error) {
	m.mu.Lock()
	if len(m.jobs) > 0 {
		job := m.jobs[0]
		m.jobs = m.jobs[1:]
		m.mu.Unlock()
		return job, queue.QueueChatHistory, nil
	}
	m.mu.Unlock()
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	case <-time.After(5 * time.Millisecond):
		return nil, "", nil
	}
}

func (m *mockQueue) Retry(_ context.Context, job *queue.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.Attempt++
	m.retried = append(m.retried, job)
	return nil
}

func historyJob(t *testing.T, payload queue.ChatHistoryPayload) *queue.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return &queue.Job{ID: uuid.NewString(), Type: queue.JobTypeChatHistory, Payload: raw, CreatedAt: time.Now()}
}

func TestProcessSavesEntry(t *testing.T) {
	saver := &mockSaver{}
	p := NewHistoryProcessor(saver, &mockQueue{}, nil)
	userID := uuid.New()
	at := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

	job := historyJob(t, queue.ChatHistoryPayload{UserID: userID, SessionID: "s1", Role: "user", Message: "hi", CreatedAt: at})
	require.NoError(t, p.Process(context.Background(), job))

	require.Len(t, saver.entries, 1)
	e := saver.entries[0]
	assert.Equal(t, userID, e.UserID)
	assert.Equal(t, "s1", e.SessionID)
	assert.Equal(t, models.ChatRoleUser, e.Role)
	assert.Equal(t, "hi", e.Message)
	assert.True(t, at.Equal(e.CreatedAt))
}

func TestProcessRejectsBadJobs(t *testing.T) {
	p := NewHistoryProcessor(&mockSaver{}, &mockQueue{}, nil)
	ctx := context.Background()

	assert.Error(t, p.Process(ctx, &queue.Job{Type: "recording_upload"}))
	assert.Error(t, p.Process(ctx, &queue.Job{Type: queue.JobTypeChatHistory, Payload: []byte("{")}))
	assert.Error(t, p.Process(ctx, historyJob(t, queue.ChatHistoryPayload{SessionID: "s1"})))
}

func TestRunDrainsQueue(t *testing.T) {
	saver := &mockSaver{saved: make(chan struct{}, 2)}
	q := &mockQueue{jobs: []*queue.Job{
		historyJob(t, queue.ChatHistoryPayload{UserID: uuid.New(), SessionID: "s1", Role: "user", Message: "one"}),
		historyJob(t, queue.ChatHistoryPayload{UserID: uuid.New(), SessionID: "s1", Role: "assistant", Message: "two"}),
	}}
	p := NewHistoryProcessor(saver, q, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	for i := 0; i < 2; i++ {
		select {
		case <-saver.saved:
		case <-time.After(2 * time.Second):
			t.Fatal("job was not processed")
		}
	}
	cancel()
	<-done

	saver.mu.Lock()
	defer saver.mu.Unlock()
	require.Len(t, saver.entries, 2)
	assert.Equal(t, "one", saver.entries[0].Message)
	assert.Equal(t, "two", saver.entries[1].Message)
}

func TestRunRetriesFailedJobs(t *testing.T) {
	saver := &mockSaver{err: errors.New("db down")}
	q := &mockQueue{jobs: []*queue.Job{
		historyJob(t, queue.ChatHistoryPayload{UserID: uuid.New(), SessionID: "s1", Role: "user", Message: "one"}),
	}}
	p := NewHistoryProcessor(saver, q, nil)
	p.backoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.retried) > 0
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	<-done

	q.mu.Lock()
	defer q.mu.Unlock()
	assert.Equal(t, 1, q.retried[0].Attempt)
}
