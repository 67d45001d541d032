package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/templategenius/revenue-intel-backend/internal/http/response"
	"github.com/templategenius/revenue-intel-backend/internal/services"
)

type DashboardHandler struct {
	dashboard services.DashboardService
	ingest    services.WebhookIngestService
}

func NewDashboardHandler(dashboard services.DashboardService, ingest services.WebhookIngestService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, ingest: ingest}
}

// GET /api/dashboard/metrics?period=week
func (h *DashboardHandler) Metrics(c *gin.Context) {
	m, err := h.dashboard.Metrics(c.Request.Context(), c.DefaultQuery("period", "all"))
	if err != nil {
		response.RespondError(c, statusFor(err), "dashboard_metrics_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"metrics": m})
}

// GET /api/webhooks/failures?limit=50
func (h *DashboardHandler) WebhookFailures(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	failures, err := h.ingest.RecentFailures(c.Request.Context(), limit)
	if err != nil {
		response.RespondError(c, statusFor(err), "webhook_failures_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"failures": failures})
}
