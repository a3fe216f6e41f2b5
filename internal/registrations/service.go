package registrations

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/models"
)

// Contact field names as reported by IncompleteError.
const (
	FieldFirstName = "first name"
	FieldLastName  = "last name"
	FieldEmail     = "email"
)

// WorkshopFinder resolves free text to a workshop (nil when nothing matches).
type WorkshopFinder interface {
	FindByTitle(ctx context.Context, text string) (*models.Workshop, error)
}

// Store is the registration persistence the service needs. *Repository implements it.
type Store interface {
	Insert(ctx context.Context, reg *models.Registration) error
	CountByWorkshop(ctx context.Context, workshopID uuid.UUID) (int, error)
	IsRegistered(ctx context.Context, workshopID, userID uuid.UUID) (bool, error)
	ExistsByEmail(ctx context.Context, workshopID uuid.UUID, email string) (bool, error)
	MostRecentByUser(ctx context.Context, userID uuid.UUID) (*models.Registration, error)
	CancelByUser(ctx context.Context, workshopID, userID uuid.UUID) (int64, error)
	CancelByEmail(ctx context.Context, workshopID uuid.UUID, email string) (int64, error)
}

// Request is a registration attempt by title.
type Request struct {
	WorkshopTitle string
	FirstName     string
	LastName      string
	Email         string
	Phone         string
	UserID        *uuid.UUID
}

// MissingContact lists the contact fields still empty, in first name, last name, email order.
func (r Request) MissingContact() []string {
	var missing []string
	if strings.TrimSpace(r.FirstName) == "" {
		missing = append(missing, FieldFirstName)
	}
	if strings.TrimSpace(r.LastName) == "" {
		missing = append(missing, FieldLastName)
	}
	if strings.TrimSpace(r.Email) == "" {
		missing = append(missing, FieldEmail)
	}
	return missing
}

// CancelRequest identifies a registration to cancel by workshop title and owner.
type CancelRequest struct {
	WorkshopTitle string
	UserID        *uuid.UUID
	Email         string
}

// Result carries the outcome of a workflow. Workshop is set whenever the title resolved,
// including when the returned error is a domain outcome such as ErrCapacityExceeded.
type Result struct {
	Workshop     *models.Workshop
	Registration *models.Registration
}

// Service runs the registration and cancellation workflows.
type Service struct {
	store     Store
	workshops WorkshopFinder
	logger    *zap.Logger
}

// NewService creates a registration service.
func NewService(store Store, workshops WorkshopFinder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, workshops: workshops, logger: logger}
}

// ResolveWorkshop looks a workshop up by free-text title.
func (s *Service) ResolveWorkshop(ctx context.Context, title string) (*models.Workshop, error) {
	if strings.TrimSpace(title) == "" {
		return nil, nil
	}
	w, err := s.workshops.FindByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("find workshop: %w", err)
	}
	return w, nil
}

// IsRegistered reports whether the user holds a confirmed registration for the workshop.
func (s *Service) IsRegistered(ctx context.Context, workshopID, userID uuid.UUID) (bool, error) {
	ok, err := s.store.IsRegistered(ctx, workshopID, userID)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return ok, nil
}

// MostRecent returns the user's newest registration, or nil.
func (s *Service) MostRecent(ctx context.Context, userID uuid.UUID) (*models.Registration, error) {
	reg, err := s.store.MostRecentByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("most recent registration: %w", err)
	}
	return reg, nil
}

// Register resolves the title, checks contact completeness, duplicates and capacity, then inserts.
func (s *Service) Register(ctx context.Context, req Request) (*Result, error) {
	w, err := s.ResolveWorkshop(ctx, req.WorkshopTitle)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWorkshopNotFound
	}
	res := &Result{Workshop: w}

	if missing := req.MissingContact(); len(missing) > 0 {
		return res, &IncompleteError{Missing: missing}
	}

	var dup bool
	if req.UserID != nil {
		dup, err = s.store.IsRegistered(ctx, w.ID, *req.UserID)
	} else {
		dup, err = s.store.ExistsByEmail(ctx, w.ID, req.Email)
	}
	if err != nil {
		return res, fmt.Errorf("check duplicate: %w", err)
	}
	if dup {
		return res, ErrAlreadyRegistered
	}

	count, err := s.store.CountByWorkshop(ctx, w.ID)
	if err != nil {
		return res, fmt.Errorf("count registrations: %w", err)
	}
	w.RegisteredCount = count
	if w.IsFull() {
		return res, ErrCapacityExceeded
	}

	reg := &models.Registration{
		WorkshopID: w.ID,
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.TrimSpace(req.Email),
		UserID:     req.UserID,
	}
	if p := strings.TrimSpace(req.Phone); p != "" {
		reg.Phone = &p
	}
	if err := s.store.Insert(ctx, reg); err != nil {
		if errors.Is(err, ErrCapacityExceeded) || errors.Is(err, ErrAlreadyRegistered) || errors.Is(err, ErrWorkshopNotFound) {
			return res, err
		}
		return res, fmt.Errorf("insert registration: %w", err)
	}
	w.RegisteredCount++
	res.Registration = reg

	s.logger.Info("registration created",
		zap.String("registration_id", reg.ID.String()),
		zap.String("workshop_id", w.ID.String()),
		zap.Bool("authenticated", req.UserID != nil),
	)
	return res, nil
}

// Cancel cancels the caller's confirmed registration for the titled workshop.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (*Result, error) {
	if req.UserID == nil && strings.TrimSpace(req.Email) == "" {
		return nil, ErrMissingIdentity
	}
	w, err := s.ResolveWorkshop(ctx, req.WorkshopTitle)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, ErrWorkshopNotFound
	}
	res := &Result{Workshop: w}

	var n int64
	if req.UserID != nil {
		n, err = s.store.CancelByUser(ctx, w.ID, *req.UserID)
	} else {
		n, err = s.store.CancelByEmail(ctx, w.ID, strings.TrimSpace(req.Email))
	}
	if err != nil {
		return res, fmt.Errorf("cancel registration: %w", err)
	}
	if n == 0 {
		return res, ErrNotRegistered
	}
	s.logger.Info("registration cancelled", zap.String("workshop_id", w.ID.String()), zap.Int64("rows", n))
	return res, nil
}
