package workshops

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-workshops/backend/internal/models"
	"github.com/aura-workshops/backend/pkg/response"
)

// Catalog is the read surface the handler needs.
type Catalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workshop, error)
	ListUpcoming(ctx context.Context, limit int) ([]models.Workshop, error)
}

// WorkshopView is a workshop with its remaining seats for the public catalog.
type WorkshopView struct {
	models.Workshop
	SeatsLeft int `json:"seats_left"`
}

// Handler handles public workshop catalog endpoints.
type Handler struct {
	catalog Catalog
	logger  *zap.Logger
}

// NewHandler creates a workshop handler.
func NewHandler(catalog Catalog, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{catalog: catalog, logger: logger}
}

// List handles GET /workshops.
func (h *Handler) List(c *gin.Context) {
	list, err := h.catalog.ListUpcoming(c.Request.Context(), 100)
	if err != nil {
		h.logger.Error("list workshops failed", zap.Error(err))
		response.Internal(c, "failed to list workshops")
		return
	}
	views := make([]WorkshopView, 0, len(list))
	for i := range list {
		views = append(views, WorkshopView{Workshop: list[i], SeatsLeft: list[i].SeatsLeft()})
	}
	response.OK(c, views)
}

// GetByID handles GET /workshops/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid workshop id")
		return
	}
	w, err := h.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get workshop failed", zap.Error(err), zap.String("workshop_id", id.String()))
		response.Internal(c, "failed to load workshop")
		return
	}
	if w == nil {
		response.NotFound(c, "workshop not found")
		return
	}
	response.OK(c, WorkshopView{Workshop: *w, SeatsLeft: w.SeatsLeft()})
}
