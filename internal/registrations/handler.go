package registrations

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/middleware"
	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/response"
)

// Lister reads registrations for the REST endpoints. *Repository implements it.
type Lister interface {
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID) ([]models.Registration, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
}

// Handler serves registration listings.
type Handler struct {
	lister Lister
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(lister Lister, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{lister: lister, logger: logger}
}

// ListByWorkshop handles GET /workshops/:id/registrations (admin).
func (h *Handler) ListByWorkshop(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	list, err := h.lister.ListByWorkshop(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list registrations", zap.String("workshop_id", id.String()), zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, list)
}

// Mine handles GET /me/registrations.
func (h *Handler) Mine(c *gin.Context) {
	userID, _, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return
	}
	list, err := h.lister.ListByUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list user registrations", zap.String("user_id", userID.String()), zap.Error(err))
		response.Internal(c, "failed to list registrations")
		return
	}
	if list == nil {
		list = []models.Registration{}
	}
	response.OK(c, list)
}
