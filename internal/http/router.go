package http

import (
	"github.com/gin-gonic/gin"

	httpH "github.com/templategenius/revenue-intel-backend/internal/http/handlers"
	httpMW "github.com/templategenius/revenue-intel-backend/internal/http/middleware"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	ClientHandler      *httpH.ClientHandler
	WebhookHandler     *httpH.WebhookHandler
	CorrelationHandler *httpH.CorrelationHandler
	DashboardHandler   *httpH.DashboardHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api")
	{
		// Webhooks (provider-facing)
		if cfg.WebhookHandler != nil {
			api.POST("/webhooks/:provider", cfg.WebhookHandler.Receive)
		}
		if cfg.DashboardHandler != nil {
			api.GET("/webhooks/failures", cfg.DashboardHandler.WebhookFailures)
		}

		// Clients and journey content
		if cfg.ClientHandler != nil {
			api.POST("/clients", cfg.ClientHandler.CreateClient)
			api.GET("/clients", cfg.ClientHandler.ListClients)
			api.POST("/clients/outcomes", cfg.ClientHandler.MarkOutcomesBulk)
			api.GET("/clients/:token", cfg.ClientHandler.GetClient)
			api.DELETE("/clients/:token", cfg.ClientHandler.ArchiveClient)
			api.POST("/clients/:token/hypothesis", cfg.ClientHandler.RecordHypothesis)
			api.POST("/clients/:token/outcome", cfg.ClientHandler.MarkOutcome)
			api.GET("/clients/:token/history", cfg.ClientHandler.GetHistory)
			api.POST("/clients/:token/payment-sessions", cfg.ClientHandler.StartPaymentSession)
			api.GET("/payment-sessions/:ref/snapshot", cfg.ClientHandler.GetSnapshot)
		}

		// Correlations
		if cfg.CorrelationHandler != nil {
			api.GET("/correlations/:id", cfg.CorrelationHandler.GetCorrelation)
			api.POST("/correlations/:id/override", cfg.CorrelationHandler.Override)
			api.GET("/correlations/:id/overrides", cfg.CorrelationHandler.ListOverrides)
			api.GET("/clients/:token/correlations", cfg.CorrelationHandler.ListClientCorrelations)
		}

		// Dashboard
		if cfg.DashboardHandler != nil {
			api.GET("/dashboard/metrics", cfg.DashboardHandler.Metrics)
		}
	}

	return r
}
