package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/aura-workshops/backend/internal/models"
)

// Account is the authenticated caller of a turn. A nil *Account means anonymous.
type Account struct {
	ID    uuid.UUID
	Email string
}

// Session is the per-conversation state: transcript, open draft and the index of the first
// message of the current flow. Extraction never looks before FlowStart.
type Session struct {
	ID        string               `json:"id"`
	UserID    *uuid.UUID           `json:"user_id,omitempty"`
	Messages  []models.ChatMessage `json:"messages"`
	Draft     *Draft               `json:"draft,omitempty"`
	FlowStart int                  `json:"flow_start"`
	UpdatedAt time.Time            `json:"updated_at"`
}

func (s *Session) append(role models.ChatRole, content string) models.ChatMessage {
	m := models.ChatMessage{Role: role, Content: content, CreatedAt: time.Now().UTC()}
	s.Messages = append(s.Messages, m)
	return m
}

// closeFlow ends the current registration flow: the draft is dropped and earlier turns no
// longer count toward intent detection.
func (s *Session) closeFlow() {
	s.Draft = nil
	s.FlowStart = len(s.Messages)
}

func (s *Session) flowMessages() []models.ChatMessage {
	if s.FlowStart >= len(s.Messages) {
		return nil
	}
	return s.Messages[s.FlowStart:]
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Messages = append([]models.ChatMessage(nil), s.Messages...)
	if s.Draft != nil {
		d := *s.Draft
		cp.Draft = &d
	}
	if s.UserID != nil {
		id := *s.UserID
		cp.UserID = &id
	}
	return &cp
}

// SessionStore keeps session state between turns.
type SessionStore interface {
	// Load returns the session or nil when none is stored.
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
}

// TurnLocker admits at most one in-flight turn per session. TryLock never blocks; ok is
// false when another turn holds the session. unlock must be called exactly once when ok.
type TurnLocker interface {
	TryLock(ctx context.Context, sessionID string) (unlock func(), ok bool, err error)
}

// MemoryStore is an in-process SessionStore and TurnLocker. State is lost on restart.
// Sessions live in an expiring LRU, so abandoned sessions are swept without being loaded again.
type MemoryStore struct {
	sessions *expirable.LRU[string, *Session]

	mu    sync.Mutex
	locks map[string]struct{}
}

// NewMemoryStore creates a memory store; sessions idle longer than ttl are dropped (0 = never).
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		sessions: expirable.NewLRU[string, *Session](0, nil, ttl),
		locks:    make(map[string]struct{}),
	}
}

// Load returns a copy of the stored session.
func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	s, ok := m.sessions.Get(id)
	if !ok {
		return nil, nil
	}
	return s.clone(), nil
}

// Save stores a copy of the session and restarts its idle timer.
func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	cp := s.clone()
	cp.UpdatedAt = time.Now()
	m.sessions.Add(s.ID, cp)
	return nil
}

// Len reports the number of live sessions.
func (m *MemoryStore) Len() int {
	return m.sessions.Len()
}

// TryLock implements TurnLocker.
func (m *MemoryStore) TryLock(_ context.Context, sessionID string) (func(), bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[sessionID]; held {
		return nil, false, nil
	}
	m.locks[sessionID] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.locks, sessionID)
			m.mu.Unlock()
		})
	}, true, nil
}
