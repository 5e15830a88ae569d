package flows

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowaudit-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers for flow management.
type Handler struct {
	Repo Repo
	Now  func() time.Time
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo, Now: func() time.Time { return time.Now().UTC() }}
}

// RegisterRoutes attaches flow routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/flows", h.createFlow)
	rg.GET("/flows", h.listFlows)
	rg.GET("/flows/:id", h.getFlow)
}

type createFlowRequest struct {
	Goal   string   `json:"goal"`
	Steps  []string `json:"steps"`
	Origin string   `json:"origin"`
}

func (h *Handler) createFlow(c *gin.Context) {
	var req createFlowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request body must be valid JSON", nil)
		return
	}

	origin, err := ParseOrigin(req.Origin)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), []Issue{{Field: "origin", Issue: "must be manual, url, or upload"}})
		return
	}
	if err := ValidateInput(req.Goal, req.Steps); err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			respond.Error(c, http.StatusBadRequest, "validation_error", "flow input is invalid", verr.Issues)
			return
		}
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		return
	}

	now := h.Now()
	flow := Flow{
		ID:        uuid.NewString(),
		Goal:      req.Goal,
		Origin:    origin,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, text := range req.Steps {
		flow.Steps = append(flow.Steps, Step{ID: uuid.NewString(), Text: text})
	}

	if err := h.Repo.Create(c.Request.Context(), flow); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to create flow", nil)
		return
	}
	c.Set("flowId", flow.ID)
	respond.Created(c, flow)
}

func (h *Handler) getFlow(c *gin.Context) {
	flowID := c.Param("id")
	if flowID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "flow id is required", nil)
		return
	}

	flow, err := h.Repo.GetByID(c.Request.Context(), flowID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "flow not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch flow", nil)
		}
		return
	}
	respond.OK(c, flow)
}

func (h *Handler) listFlows(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	list, err := h.Repo.List(c.Request.Context(), limit, offset)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list flows", nil)
		return
	}
	respond.OK(c, gin.H{"flows": list})
}
