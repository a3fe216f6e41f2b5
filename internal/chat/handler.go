package chat

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/assistant"
	"github.com/aura-workshops/backend/internal/middleware"
	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/response"
)

// Assistant runs chat turns. *assistant.Controller implements it.
type Assistant interface {
	HandleTurn(ctx context.Context, req assistant.TurnRequest) (*assistant.TurnResult, error)
	History(ctx context.Context, sessionID string, acct *assistant.Account) ([]models.ChatMessage, error)
}

// Handler serves the chat REST endpoints and the chat WebSocket.
type Handler struct {
	assistant     Assistant
	originAllowed func(origin string) bool
	logger        *zap.Logger
}

// NewHandler creates a chat handler. originAllowed gates WebSocket upgrades (nil allows all).
func NewHandler(a Assistant, originAllowed func(origin string) bool, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if originAllowed == nil {
		originAllowed = func(string) bool { return true }
	}
	return &Handler{assistant: a, originAllowed: originAllowed, logger: logger}
}

// SessionResponse is returned by POST /chat/sessions.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// MessageRequest is the body for POST /chat/messages.
type MessageRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`
}

// MessageResponse is the assistant's reply to one message.
type MessageResponse struct {
	Reply       models.ChatMessage `json:"reply"`
	DraftActive bool               `json:"draft_active"`
}

// CreateSession handles POST /chat/sessions.
func (h *Handler) CreateSession(c *gin.Context) {
	response.Created(c, SessionResponse{SessionID: uuid.NewString()})
}

// PostMessage handles POST /chat/messages.
func (h *Handler) PostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "session_id and message are required")
		return
	}
	res, err := h.assistant.HandleTurn(c.Request.Context(), assistant.TurnRequest{
		SessionID: req.SessionID,
		Account:   account(c),
		Message:   req.Message,
	})
	if err != nil {
		h.writeError(c, req.SessionID, err)
		return
	}
	response.OK(c, MessageResponse{Reply: res.Reply, DraftActive: res.DraftActive})
}

// History handles GET /chat/sessions/:id/messages.
func (h *Handler) History(c *gin.Context) {
	sessionID := c.Param("id")
	msgs, err := h.assistant.History(c.Request.Context(), sessionID, account(c))
	if err != nil {
		h.writeError(c, sessionID, err)
		return
	}
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	response.OK(c, msgs)
}

func (h *Handler) writeError(c *gin.Context, sessionID string, err error) {
	switch {
	case errors.Is(err, assistant.ErrEmptyMessage), errors.Is(err, assistant.ErrMissingSession):
		response.BadRequest(c, err.Error())
	case errors.Is(err, assistant.ErrTurnInProgress):
		response.Conflict(c, err.Error())
	case errors.Is(err, assistant.ErrSessionForbidden):
		response.Forbidden(c, err.Error())
	default:
		h.logger.Error("chat request failed", zap.String("session_id", sessionID), zap.Error(err))
		response.Internal(c, "failed to process message")
	}
}

// account maps the authenticated caller, if any, to an assistant account.
func account(c *gin.Context) *assistant.Account {
	id, email, ok := middleware.CurrentUser(c)
	if !ok {
		return nil
	}
	return &assistant.Account{ID: id, Email: email}
}
