package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/queue"
)

// Saver persists one chat history row. *chathistory.Repository implements it.
type Saver interface {
	Save(ctx context.Context, e *models.ChatHistoryEntry) error
}

// JobQueue is the part of *queue.Queue the worker consumes.
type JobQueue interface {
	Dequeue(ctx context.Context) (*queue.Job, string, error)
	Retry(ctx context.Context, job *queue.Job) error
}

// HistoryProcessor drains chat history jobs into the database.
type HistoryProcessor struct {
	saver   Saver
	queue   JobQueue
	backoff time.Duration
	logger  *zap.Logger
}

// NewHistoryProcessor creates a chat history processor.
func NewHistoryProcessor(saver Saver, q JobQueue, logger *zap.Logger) *HistoryProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryProcessor{saver: saver, queue: q, backoff: queue.RetryBackoff, logger: logger}
}

// Process executes one chat history job.
func (p *HistoryProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeChatHistory {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ChatHistoryPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if payload.SessionID == "" || payload.Message == "" {
		return fmt.Errorf("incomplete chat history payload")
	}

	entry := &models.ChatHistoryEntry{
		UserID:    payload.UserID,
		SessionID: payload.SessionID,
		Role:      models.ChatRole(payload.Role),
		Message:   payload.Message,
		CreatedAt: payload.CreatedAt,
	}
	if err := p.saver.Save(ctx, entry); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	p.logger.Debug("chat history saved", zap.String("job_id", job.ID), zap.String("session_id", payload.SessionID))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error. It returns when ctx is done.
func (p *HistoryProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("chat history worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				continue
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			p.sleep(ctx)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Int("attempt", job.Attempt), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			p.sleep(ctx)
		}
	}
}

func (p *HistoryProcessor) sleep(ctx context.Context) {
	t := time.NewTimer(p.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
