package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/assistant"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	maxFrameSize = 16 * 1024

	EventUserMessage      = "user_message"
	EventThinking         = "thinking"
	EventAssistantMessage = "assistant_message"
	EventError            = "error"
)

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type userMessage struct {
	Message string `json:"message"`
}

type wsError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ServeWs handles GET /ws/chat?session_id=…; the optional token query parameter is checked
// by OptionalJWT before the upgrade.
func (h *Handler) ServeWs(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return h.originAllowed(r.Header.Get("Origin"))
		},
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &wsClient{
		sessionID: sessionID,
		account:   account(c),
		assistant: h.assistant,
		conn:      conn,
		send:      make(chan WSMessage, 16),
		logger:    h.logger.With(zap.String("session_id", sessionID)),
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.writePump(ctx)
	client.readPump(ctx)
}

type wsClient struct {
	sessionID string
	account   *assistant.Account
	assistant Assistant
	conn      *websocket.Conn
	send      chan WSMessage
	logger    *zap.Logger
}

// readPump handles inbound frames one at a time, so a connection never has two turns in flight.
func (c *wsClient) readPump(ctx context.Context) {
	defer close(c.send)

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read failed", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch msg.Event {
		case EventUserMessage:
			var in userMessage
			if err := json.Unmarshal(msg.Data, &in); err != nil {
				c.emit(EventError, wsError{Error: "invalid message payload", Code: "bad_request"})
				continue
			}
			c.handleTurn(ctx, in.Message)
		default:
			c.emit(EventError, wsError{Error: "unknown event " + msg.Event, Code: "bad_request"})
		}
	}
}

func (c *wsClient) handleTurn(ctx context.Context, text string) {
	c.emit(EventThinking, struct{}{})
	res, err := c.assistant.HandleTurn(ctx, assistant.TurnRequest{SessionID: c.sessionID, Account: c.account, Message: text})
	if err != nil {
		code := "internal"
		msg := "failed to process message"
		switch {
		case errors.Is(err, assistant.ErrEmptyMessage):
			code, msg = "bad_request", err.Error()
		case errors.Is(err, assistant.ErrTurnInProgress):
			code, msg = "turn_in_progress", err.Error()
		case errors.Is(err, assistant.ErrSessionForbidden):
			code, msg = "forbidden", err.Error()
		default:
			c.logger.Error("chat turn failed", zap.Error(err))
		}
		c.emit(EventError, wsError{Error: msg, Code: code})
		return
	}
	c.emit(EventAssistantMessage, MessageResponse{Reply: res.Reply, DraftActive: res.DraftActive})
}

func (c *wsClient) emit(event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		c.logger.Error("marshal websocket payload", zap.String("event", event), zap.Error(err))
		return
	}
	c.send <- WSMessage{Event: event, Data: data}
}

func (c *wsClient) writePump(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
