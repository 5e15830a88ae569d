package analytics

import (
	"github.com/gin-gonic/gin"

	"flowaudit-backend/internal/shared/server/respond"
)

// Handler exposes the analytics snapshot.
type Handler struct {
	Agg *Aggregator
}

// NewHandler constructs a Handler.
func NewHandler(agg *Aggregator) *Handler {
	return &Handler{Agg: agg}
}

// RegisterRoutes attaches analytics routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/analytics", h.getSnapshot)
}

func (h *Handler) getSnapshot(c *gin.Context) {
	respond.OK(c, h.Agg.Snapshot())
}
