package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/templategenius/revenue-intel-backend/internal/http/response"
	"github.com/templategenius/revenue-intel-backend/internal/services"
)

type CorrelationHandler struct {
	correlations services.CorrelationService
	clients      services.ClientService
}

func NewCorrelationHandler(correlations services.CorrelationService, clients services.ClientService) *CorrelationHandler {
	return &CorrelationHandler{correlations: correlations, clients: clients}
}

// GET /api/correlations/:id
func (h *CorrelationHandler) GetCorrelation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_correlation_id", err)
		return
	}
	corr, err := h.correlations.GetByID(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, statusFor(err), "correlation_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"correlation": corr})
}

type overrideRequest struct {
	Outcome string `json:"outcome"`
	AdminID string `json:"admin_id"`
	Reason  string `json:"reason"`
}

// POST /api/correlations/:id/override
func (h *CorrelationHandler) Override(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_correlation_id", err)
		return
	}
	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	corr, err := h.correlations.Override(c.Request.Context(), id, req.Outcome, req.AdminID, req.Reason)
	if err != nil {
		response.RespondError(c, statusFor(err), "override_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"correlation": corr})
}

// GET /api/correlations/:id/overrides
func (h *CorrelationHandler) ListOverrides(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_correlation_id", err)
		return
	}
	overrides, err := h.correlations.ListOverrides(c.Request.Context(), id)
	if err != nil {
		response.RespondError(c, statusFor(err), "list_overrides_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"overrides": overrides})
}

// GET /api/clients/:token/correlations
func (h *CorrelationHandler) ListClientCorrelations(c *gin.Context) {
	client, err := h.clients.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.RespondError(c, statusFor(err), "client_not_found", err)
		return
	}
	correlations, err := h.correlations.ListByClient(c.Request.Context(), client.ID)
	if err != nil {
		response.RespondError(c, statusFor(err), "list_correlations_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"correlations": correlations})
}
