package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/models"
)

// DefaultTimeout bounds a completion call when Config.Timeout is zero.
const DefaultTimeout = 45 * time.Second

// Config holds completion API settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64 // nil leaves the provider default
	MaxTokens   int
	Timeout     time.Duration
}

// CompletionError is returned when the completion service answers with a non-success
// status or a response without usable content.
type CompletionError struct {
	StatusCode int // 0 when the failure was not an HTTP status
	Message    string
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion failed (status %d): %s", e.StatusCode, e.Message)
	}
	return "completion failed: " + e.Message
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Client sends chat transcripts to an OpenAI-compatible chat completion endpoint.
type Client struct {
	client openai.Client
	cfg    Config
	logger *zap.Logger
}

// NewClient creates a completion client. Retries are disabled; a failed call is reported
// to the caller as-is.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Client{
		client: openai.NewClient(opts...),
		cfg:    cfg,
		logger: logger,
	}
}

// Complete sends the ordered messages and returns the assistant reply text.
func (c *Client) Complete(ctx context.Context, messages []models.ChatMessage) (string, error) {
	if len(messages) == 0 {
		return "", &CompletionError{Message: "no messages"}
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.Model),
		Messages: toParams(messages),
	}
	if c.cfg.Temperature != nil {
		params.Temperature = openai.Float(*c.cfg.Temperature)
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(c.cfg.MaxTokens))
	}

	start := time.Now()
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &CompletionError{StatusCode: apiErr.StatusCode, Message: apiErr.Message, Err: err}
		}
		return "", &CompletionError{Message: err.Error(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &CompletionError{Message: "response has no choices"}
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", &CompletionError{Message: "response has empty content"}
	}

	c.logger.Debug("completion done",
		zap.String("model", c.cfg.Model),
		zap.Int("messages", len(messages)),
		zap.Duration("latency", time.Since(start)),
		zap.Int64("total_tokens", resp.Usage.TotalTokens),
	)
	return content, nil
}

func toParams(messages []models.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case models.ChatRoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case models.ChatRoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
