package server

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"flowaudit-backend/internal/analyses"
	"flowaudit-backend/internal/analytics"
	"flowaudit-backend/internal/flows"
	"flowaudit-backend/internal/llm"
	"flowaudit-backend/internal/llm/openai"
	"flowaudit-backend/internal/principles"
	"flowaudit-backend/internal/shared/config"
	"flowaudit-backend/internal/shared/metrics"
	"flowaudit-backend/internal/shared/server/middleware"
	"flowaudit-backend/internal/shared/server/respond"
	"flowaudit-backend/internal/usage"
)

const janitorInterval = 5 * time.Minute

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(cfg config.Config) *gin.Engine {
	if cfg.Env == "production" || cfg.Env == "staging" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Governance and analytics stores live for the process lifetime.
	generalLimiter := usage.NewLimiter(cfg.GeneralRateCap, cfg.GeneralRateWindow, nil)
	aiLimiter := usage.NewLimiter(cfg.AIRateCap, cfg.AIRateWindow, nil)
	governor := usage.NewCostGovernor(cfg.AIDailyCap, 24*time.Hour, nil)
	aggregator := analytics.NewAggregator(nil)

	stop := make(chan struct{})
	generalLimiter.StartJanitor(janitorInterval, stop)
	aiLimiter.StartJanitor(janitorInterval, stop)

	r.Use(
		middleware.RequestID(),
		middleware.ClientKey(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
		middleware.Analytics(aggregator),
		middleware.RateLimit(generalLimiter),
	)

	var findingsSource llm.FindingsSource
	switch {
	case cfg.LLMProvider != "openai":
		log.Printf("unsupported LLM provider %q; analyses run rules only", cfg.LLMProvider)
	case cfg.OpenAIKey == "":
		log.Printf("no OPENAI_API_KEY configured; analyses run rules only")
	default:
		client, err := openai.NewClient(cfg.OpenAIKey, cfg.LLMModel)
		if err != nil {
			log.Printf("failed to configure AI findings source, falling back to rules only: %v", err)
		} else {
			findingsSource = client
		}
	}

	flowRepo := flows.NewMemoryRepo()
	flowHandler := flows.NewHandler(flowRepo)
	analysisSvc := &analyses.Service{
		Flows:     flowRepo,
		AI:        findingsSource,
		AILimiter: aiLimiter,
		Governor:  governor,
		AITimeout: cfg.LLMTimeout,
	}
	analysisHandler := analyses.NewHandler(analysisSvc)
	analyticsHandler := analytics.NewHandler(aggregator)

	api := r.Group("/api/v1")
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true, "aiEnabled": analysisSvc.AIEnabled()})
	})
	api.GET("/principles", func(c *gin.Context) {
		respond.OK(c, gin.H{"principles": principles.All()})
	})
	flowHandler.RegisterRoutes(api)
	analysisHandler.RegisterRoutes(api)
	analyticsHandler.RegisterRoutes(api)

	r.GET("/metrics", metrics.Handler())

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
