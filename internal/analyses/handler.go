package analyses

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"flowaudit-backend/internal/flows"
	"flowaudit-backend/internal/shared/metrics"
	"flowaudit-backend/internal/shared/server/middleware"
	"flowaudit-backend/internal/shared/server/respond"
	"flowaudit-backend/internal/usage"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyzeInline)
	rg.POST("/flows/:id/analyze", h.analyzeFlow)
}

type analyzeInlineRequest struct {
	Goal  string   `json:"goal"`
	Steps []string `json:"steps"`
}

func (h *Handler) analyzeInline(c *gin.Context) {
	var req analyzeInlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "request body must be valid JSON", nil)
		return
	}

	flow := flows.Flow{ID: uuid.NewString(), Goal: req.Goal, Origin: flows.OriginManual}
	now := time.Now().UTC()
	flow.CreatedAt = now
	flow.UpdatedAt = now
	for _, text := range req.Steps {
		flow.Steps = append(flow.Steps, flows.Step{ID: uuid.NewString(), Text: text})
	}

	result, err := h.Svc.Analyze(c.Request.Context(), flow, useAIRequested(c), middleware.ClientKeyFromContext(c))
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) analyzeFlow(c *gin.Context) {
	flowID := c.Param("id")
	if flowID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "flow id is required", nil)
		return
	}
	c.Set("flowId", flowID)

	result, err := h.Svc.AnalyzeFlow(c.Request.Context(), flowID, useAIRequested(c), middleware.ClientKeyFromContext(c))
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}
	respond.OK(c, result)
}

func (h *Handler) respondAnalysisError(c *gin.Context, err error) {
	var verr *flows.ValidationError
	var denied *usage.DeniedError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "flow input is invalid", verr.Issues)
	case errors.As(err, &denied):
		retryAfter := usage.RetryAfterSeconds(denied.RetryAfter)
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		code := "rate_limited"
		message := "AI analysis budget exhausted. Please retry later."
		if errors.Is(denied, usage.ErrQuotaExceeded) {
			code = "quota_exceeded"
			message = "The daily AI analysis quota is exhausted. Please retry tomorrow."
		}
		respond.Error(c, http.StatusTooManyRequests, code, message, gin.H{
			"retryAfterSeconds": retryAfter,
		})
	case errors.Is(err, flows.ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "flow not found", nil)
	default:
		metrics.IncAnalysisFailed()
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to analyze flow", nil)
	}
}

func useAIRequested(c *gin.Context) bool {
	return strings.EqualFold(c.Query("useAI"), "true")
}
