package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatRole tags who authored a chat message.
type ChatRole string

const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
	ChatRoleSystem    ChatRole = "system"
)

// ChatMessage is one turn of an assistant conversation.
type ChatMessage struct {
	Role      ChatRole  `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatHistoryEntry is a persisted row of ai_chat_history.
type ChatHistoryEntry struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	SessionID string    `json:"session_id"`
	Role      ChatRole  `json:"role"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ToMessage converts a history row into a chat message.
func (e *ChatHistoryEntry) ToMessage() ChatMessage {
	return ChatMessage{Role: e.Role, Content: e.Message, CreatedAt: e.CreatedAt}
}
