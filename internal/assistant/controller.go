package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/llm"
	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/internal/registrations"
)

var (
	ErrMissingSession   = errors.New("session id is required")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrTurnInProgress   = errors.New("another message for this session is still being processed")
	ErrSessionForbidden = errors.New("session belongs to another user")
)

// Completer produces the assistant's free-form reply for a transcript. *llm.Client implements it.
type Completer interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (string, error)
}

// Directory lists workshops for the system prompt. *workshops.Repository implements it.
type Directory interface {
	ListUpcoming(ctx context.Context, limit int) ([]models.Workshop, error)
}

// Registrar runs the registration workflows. *registrations.Service implements it.
type Registrar interface {
	ResolveWorkshop(ctx context.Context, title string) (*models.Workshop, error)
	IsRegistered(ctx context.Context, workshopID, userID uuid.UUID) (bool, error)
	MostRecent(ctx context.Context, userID uuid.UUID) (*models.Registration, error)
	Register(ctx context.Context, req registrations.Request) (*registrations.Result, error)
	Cancel(ctx context.Context, req registrations.CancelRequest) (*registrations.Result, error)
}

// HistoryStore persists the transcript of authenticated sessions.
type HistoryStore interface {
	Append(ctx context.Context, userID uuid.UUID, sessionID string, msg models.ChatMessage) error
	ListBySession(ctx context.Context, userID uuid.UUID, sessionID string, limit int) ([]models.ChatMessage, error)
}

// AccountLookup resolves an account email when the token did not carry one.
type AccountLookup interface {
	EmailByID(ctx context.Context, userID uuid.UUID) (string, error)
}

// Deps wires the controller. History and Accounts are optional.
type Deps struct {
	Completer Completer
	Directory Directory
	Registrar Registrar
	Sessions  SessionStore
	Locks     TurnLocker
	History   HistoryStore
	Accounts  AccountLookup
}

// Options tunes the controller.
type Options struct {
	CatalogSize  int // upcoming workshops listed in the system prompt (0 = none)
	HistoryLimit int // messages rehydrated for an authenticated session
}

// TurnRequest is one user message.
type TurnRequest struct {
	SessionID string
	Account   *Account
	Message   string
}

// TurnResult is the assistant's reply to one turn.
type TurnResult struct {
	Reply       models.ChatMessage
	DraftActive bool
}

// Controller runs the dialogue: it tracks registration drafts across turns, runs the
// registration workflows when a draft is complete and otherwise defers to the completion service.
type Controller struct {
	deps   Deps
	opts   Options
	logger *zap.Logger
}

// NewController creates a dialogue controller.
func NewController(deps Deps, opts Options, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 100
	}
	return &Controller{deps: deps, opts: opts, logger: logger}
}

// HandleTurn processes one user message and returns the assistant reply. Only one turn per
// session runs at a time; a concurrent submission fails with ErrTurnInProgress and has no effect.
// When session state cannot be read or locked the turn is answered with a generic error reply.
func (c *Controller) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	text := strings.TrimSpace(req.Message)
	if req.SessionID == "" {
		return nil, ErrMissingSession
	}
	if text == "" {
		return nil, ErrEmptyMessage
	}

	unlock, ok, err := c.deps.Locks.TryLock(ctx, req.SessionID)
	if err != nil {
		c.logger.Error("lock session", zap.String("session_id", req.SessionID), zap.Error(err))
		return unavailable(), nil
	}
	if !ok {
		return nil, ErrTurnInProgress
	}
	defer unlock()

	acct := c.resolveAccount(ctx, req.Account)
	sess, err := c.loadSession(ctx, req.SessionID, acct)
	if errors.Is(err, ErrSessionForbidden) {
		return nil, err
	}
	if err != nil {
		c.logger.Error("load session", zap.String("session_id", req.SessionID), zap.Error(err))
		return unavailable(), nil
	}

	c.persist(ctx, sess, acct, sess.append(models.ChatRoleUser, text))
	reply := c.respond(ctx, sess, acct, text)
	msg := sess.append(models.ChatRoleAssistant, reply)
	c.persist(ctx, sess, acct, msg)

	if err := c.deps.Sessions.Save(ctx, sess); err != nil {
		c.logger.Error("save session", zap.String("session_id", sess.ID), zap.Error(err))
	}
	return &TurnResult{Reply: msg, DraftActive: sess.Draft != nil}, nil
}

// unavailable is the reply for a turn that could not reach session state. Nothing was recorded.
func unavailable() *TurnResult {
	return &TurnResult{Reply: models.ChatMessage{Role: models.ChatRoleAssistant, Content: replyError, CreatedAt: time.Now().UTC()}}
}

// History returns the transcript of a session visible to acct.
func (c *Controller) History(ctx context.Context, sessionID string, acct *Account) ([]models.ChatMessage, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}
	sess, err := c.loadSession(ctx, sessionID, acct)
	if err != nil {
		return nil, err
	}
	return sess.Messages, nil
}

func (c *Controller) respond(ctx context.Context, sess *Session, acct *Account, text string) string {
	if sess.Draft != nil {
		if reply, done := c.advanceDraft(ctx, sess, acct, text); done {
			return reply
		}
		return c.chat(ctx, sess, acct)
	}

	intent := Extract(sess.flowMessages())
	if intent.Detected && (intent.Deregister || intent.WorkshopTitle != "") {
		if !intent.Deregister && acct != nil {
			if reply, done := c.alreadyRegistered(ctx, sess, acct, intent.WorkshopTitle); done {
				return reply
			}
		}
		sess.Draft = newDraft(intent)
		if acct != nil {
			c.backfill(ctx, sess.Draft, acct)
		}
		c.logger.Info("draft opened",
			zap.String("session_id", sess.ID),
			zap.String("workshop", intent.WorkshopTitle),
			zap.Bool("deregister", intent.Deregister),
		)
	}
	return c.chat(ctx, sess, acct)
}

// advanceDraft merges the latest turn into the open draft and runs the workflow once the draft
// is ready. done is false when the turn should fall through to the completion service.
func (c *Controller) advanceDraft(ctx context.Context, sess *Session, acct *Account, text string) (string, bool) {
	d := sess.Draft
	d.merge(Scrape(text))
	if acct != nil {
		c.backfill(ctx, d, acct)
	}
	if !d.ready(acct != nil) {
		return "", false
	}
	if d.Deregister {
		return c.cancel(ctx, sess, acct), true
	}
	return c.register(ctx, sess, acct), true
}

// backfill fills contact gaps from the account email, the user's latest registration and,
// as a last resort, the email local part.
func (c *Controller) backfill(ctx context.Context, d *Draft, acct *Account) {
	if d.contactComplete() {
		return
	}
	setIfEmpty(&d.UserInfo.Email, acct.Email)
	if d.UserInfo.FirstName == "" || d.UserInfo.LastName == "" {
		reg, err := c.deps.Registrar.MostRecent(ctx, acct.ID)
		if err != nil {
			c.logger.Warn("backfill from registrations", zap.String("user_id", acct.ID.String()), zap.Error(err))
		} else if reg != nil {
			setIfEmpty(&d.UserInfo.FirstName, reg.FirstName)
			setIfEmpty(&d.UserInfo.LastName, reg.LastName)
			if reg.Phone != nil {
				setIfEmpty(&d.UserInfo.Phone, *reg.Phone)
			}
		}
	}
	if !d.hasName() && d.UserInfo.Email != "" {
		first, last := nameFromEmail(d.UserInfo.Email)
		setIfEmpty(&d.UserInfo.FirstName, first)
		setIfEmpty(&d.UserInfo.LastName, last)
	}
}

// alreadyRegistered short-circuits when an authenticated user already holds a registration for
// the titled workshop. Lookup failures are logged and do not block the flow.
func (c *Controller) alreadyRegistered(ctx context.Context, sess *Session, acct *Account, title string) (string, bool) {
	w, err := c.deps.Registrar.ResolveWorkshop(ctx, title)
	if err != nil {
		c.logger.Warn("resolve workshop", zap.String("title", title), zap.Error(err))
		return "", false
	}
	if w == nil {
		return "", false
	}
	ok, err := c.deps.Registrar.IsRegistered(ctx, w.ID, acct.ID)
	if err != nil {
		c.logger.Warn("check registration", zap.String("workshop_id", w.ID.String()), zap.Error(err))
		return "", false
	}
	if !ok {
		return "", false
	}
	sess.closeFlow()
	return replyAlreadyRegistered(w.Title), true
}

func (c *Controller) register(ctx context.Context, sess *Session, acct *Account) string {
	d := sess.Draft
	if acct != nil {
		if reply, done := c.alreadyRegistered(ctx, sess, acct, d.WorkshopTitle); done {
			return reply
		}
	}

	res, err := c.deps.Registrar.Register(ctx, d.registrationRequest(acct))
	title := d.WorkshopTitle
	if res != nil && res.Workshop != nil {
		title = res.Workshop.Title
	}

	var incomplete *registrations.IncompleteError
	switch {
	case err == nil:
		sess.closeFlow()
		return replyRegistered(title)
	case errors.Is(err, registrations.ErrAlreadyRegistered):
		sess.closeFlow()
		return replyAlreadyRegistered(title)
	case errors.Is(err, registrations.ErrCapacityExceeded):
		sess.closeFlow()
		return replyFull(title)
	case errors.As(err, &incomplete):
		return replyMissing(incomplete.Missing)
	case errors.Is(err, registrations.ErrWorkshopNotFound):
		return replyNotFound(d.WorkshopTitle)
	default:
		c.logger.Error("register", zap.String("session_id", sess.ID), zap.String("workshop", d.WorkshopTitle), zap.Error(err))
		return replyError
	}
}

func (c *Controller) cancel(ctx context.Context, sess *Session, acct *Account) string {
	d := sess.Draft
	res, err := c.deps.Registrar.Cancel(ctx, d.cancelRequest(acct))
	title := d.WorkshopTitle
	if res != nil && res.Workshop != nil {
		title = res.Workshop.Title
	}

	switch {
	case err == nil:
		sess.closeFlow()
		return replyCancelled(title)
	case errors.Is(err, registrations.ErrNotRegistered):
		sess.closeFlow()
		return replyNotRegistered(title)
	case errors.Is(err, registrations.ErrWorkshopNotFound):
		return replyNotFound(d.WorkshopTitle)
	case errors.Is(err, registrations.ErrMissingIdentity):
		return replyDraftPrompt(d, acct != nil)
	default:
		c.logger.Error("cancel registration", zap.String("session_id", sess.ID), zap.String("workshop", d.WorkshopTitle), zap.Error(err))
		return replyError
	}
}

// chat asks the completion service for a reply. When it fails an open draft gets a
// deterministic re-prompt and anything else gets an apology.
func (c *Controller) chat(ctx context.Context, sess *Session, acct *Account) string {
	transcript := make([]models.ChatMessage, 0, len(sess.Messages)+1)
	transcript = append(transcript, models.ChatMessage{Role: models.ChatRoleSystem, Content: c.systemPrompt(ctx, sess, acct)})
	transcript = append(transcript, sess.Messages...)

	reply, err := c.deps.Completer.Complete(ctx, transcript)
	if err == nil {
		return reply
	}

	var ce *llm.CompletionError
	if errors.As(err, &ce) {
		c.logger.Warn("completion failed", zap.String("session_id", sess.ID), zap.Int("status", ce.StatusCode), zap.Error(err))
	} else {
		c.logger.Warn("completion failed", zap.String("session_id", sess.ID), zap.Error(err))
	}
	if sess.Draft != nil {
		return replyDraftPrompt(sess.Draft, acct != nil)
	}
	return replyApology
}

func (c *Controller) systemPrompt(ctx context.Context, sess *Session, acct *Account) string {
	var catalog []models.Workshop
	if c.opts.CatalogSize > 0 && c.deps.Directory != nil {
		list, err := c.deps.Directory.ListUpcoming(ctx, c.opts.CatalogSize)
		if err != nil {
			c.logger.Warn("list workshops for prompt", zap.Error(err))
		}
		catalog = list
	}
	return buildSystemPrompt(catalog, sess.Draft, acct != nil)
}

// loadSession returns the stored session, rehydrating an authenticated session from history
// when the store has none. Sessions are bound to the first account that uses them.
func (c *Controller) loadSession(ctx context.Context, id string, acct *Account) (*Session, error) {
	sess, err := c.deps.Sessions.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if sess == nil {
		sess = &Session{ID: id}
		if acct != nil && c.deps.History != nil {
			msgs, err := c.deps.History.ListBySession(ctx, acct.ID, id, c.opts.HistoryLimit)
			if err != nil {
				c.logger.Warn("rehydrate session", zap.String("session_id", id), zap.Error(err))
			}
			sess.Messages = msgs
			sess.FlowStart = len(msgs)
		}
	}

	switch {
	case acct == nil && sess.UserID != nil:
		return nil, ErrSessionForbidden
	case acct != nil && sess.UserID != nil && *sess.UserID != acct.ID:
		return nil, ErrSessionForbidden
	case acct != nil && sess.UserID == nil:
		id := acct.ID
		sess.UserID = &id
	}
	return sess, nil
}

func (c *Controller) resolveAccount(ctx context.Context, acct *Account) *Account {
	if acct == nil {
		return nil
	}
	cp := *acct
	if cp.Email == "" && c.deps.Accounts != nil {
		email, err := c.deps.Accounts.EmailByID(ctx, cp.ID)
		if err != nil {
			c.logger.Warn("lookup account email", zap.String("user_id", cp.ID.String()), zap.Error(err))
		}
		cp.Email = email
	}
	return &cp
}

// persist writes one message to the durable history of an authenticated session. Failures
// are logged; the turn still completes.
func (c *Controller) persist(ctx context.Context, sess *Session, acct *Account, msg models.ChatMessage) {
	if acct == nil || c.deps.History == nil {
		return
	}
	if err := c.deps.History.Append(ctx, acct.ID, sess.ID, msg); err != nil {
		c.logger.Warn("persist chat message", zap.String("session_id", sess.ID), zap.String("role", string(msg.Role)), zap.Error(err))
	}
}
