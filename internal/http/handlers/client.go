package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/templategenius/revenue-intel-backend/internal/http/response"
	"github.com/templategenius/revenue-intel-backend/internal/services"
)

type ClientHandler struct {
	clients   services.ClientService
	outcomes  services.OutcomeService
	snapshots services.SnapshotService
}

func NewClientHandler(clients services.ClientService, outcomes services.OutcomeService, snapshots services.SnapshotService) *ClientHandler {
	return &ClientHandler{clients: clients, outcomes: outcomes, snapshots: snapshots}
}

type createClientRequest struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	JourneyHypothesis string `json:"journey_hypothesis"`
}

// POST /api/clients
func (h *ClientHandler) CreateClient(c *gin.Context) {
	var req createClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	created, err := h.clients.CreateClient(c.Request.Context(), req.Name, req.Email, req.JourneyHypothesis)
	if err != nil {
		response.RespondError(c, statusFor(err), "create_client_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"client": created})
}

// GET /api/clients
func (h *ClientHandler) ListClients(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	clients, err := h.clients.List(c.Request.Context(), limit, offset)
	if err != nil {
		response.RespondError(c, statusFor(err), "list_clients_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"clients": clients})
}

// GET /api/clients/:token
func (h *ClientHandler) GetClient(c *gin.Context) {
	client, err := h.clients.GetByToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.RespondError(c, statusFor(err), "client_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"client": client})
}

// DELETE /api/clients/:token
func (h *ClientHandler) ArchiveClient(c *gin.Context) {
	client, err := h.clients.Archive(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.RespondError(c, statusFor(err), "archive_client_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"client": client})
}

type recordHypothesisRequest struct {
	PageType       string `json:"page_type"`
	Content        string `json:"content"`
	Hypothesis     string `json:"hypothesis"`
	IterationNotes string `json:"iteration_notes"`
	CreatedBy      string `json:"created_by"`
}

// POST /api/clients/:token/hypothesis
func (h *ClientHandler) RecordHypothesis(c *gin.Context) {
	var req recordHypothesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	v, err := h.outcomes.RecordHypothesis(c.Request.Context(), c.Param("token"), req.PageType, req.Content, req.Hypothesis, req.IterationNotes, req.CreatedBy)
	if err != nil {
		response.RespondError(c, statusFor(err), "record_hypothesis_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"version": v})
}

// GET /api/clients/:token/history?page_type=activation
func (h *ClientHandler) GetHistory(c *gin.Context) {
	versions, err := h.outcomes.GetHistory(c.Request.Context(), c.Param("token"), c.Query("page_type"))
	if err != nil {
		response.RespondError(c, statusFor(err), "get_history_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"versions": versions})
}

type markOutcomeRequest struct {
	Outcome string `json:"outcome"`
	Notes   string `json:"notes"`
}

// POST /api/clients/:token/outcome
func (h *ClientHandler) MarkOutcome(c *gin.Context) {
	var req markOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	client, err := h.outcomes.MarkOutcome(c.Request.Context(), c.Param("token"), req.Outcome, req.Notes)
	if err != nil {
		response.RespondError(c, statusFor(err), "mark_outcome_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"client": client})
}

type markOutcomesBulkRequest struct {
	ClientTokens []string `json:"client_tokens"`
	Outcome      string   `json:"outcome"`
	Notes        string   `json:"notes"`
}

// POST /api/clients/outcomes
func (h *ClientHandler) MarkOutcomesBulk(c *gin.Context) {
	var req markOutcomesBulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	if len(req.ClientTokens) == 0 {
		response.RespondError(c, http.StatusBadRequest, "empty_client_tokens", nil)
		return
	}
	results := h.outcomes.MarkOutcomesBulk(c.Request.Context(), req.ClientTokens, req.Outcome, req.Notes)
	response.RespondOK(c, gin.H{"results": results})
}

// POST /api/clients/:token/payment-sessions
func (h *ClientHandler) StartPaymentSession(c *gin.Context) {
	ref, snap, err := h.snapshots.StartPaymentSession(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.RespondError(c, statusFor(err), "start_payment_session_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment_session_ref": ref,
		"snapshot":            snap,
	})
}

// GET /api/payment-sessions/:ref/snapshot
func (h *ClientHandler) GetSnapshot(c *gin.Context) {
	snap, err := h.snapshots.GetBySessionRef(c.Request.Context(), c.Param("ref"))
	if err != nil {
		response.RespondError(c, statusFor(err), "snapshot_not_found", err)
		return
	}
	response.RespondOK(c, gin.H{"snapshot": snap})
}
