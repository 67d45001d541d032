package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/templategenius/revenue-intel-backend/internal/http/response"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/services"
)

type WebhookHandler struct {
	ingest services.WebhookIngestService
}

func NewWebhookHandler(ingest services.WebhookIngestService) *WebhookHandler {
	return &WebhookHandler{ingest: ingest}
}

// POST /api/webhooks/:provider
//
// The provider contract is narrow: 400 for deliveries we can prove are bad
// (signature, unparseable body), 200 for everything else including replays
// and ignored event types. Any other status invites provider retry storms.
func (h *WebhookHandler) Receive(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 1<<20)
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}

	event, created, err := h.ingest.Ingest(c.Request.Context(), c.Param("provider"), raw, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, pkgerr.ErrInvalidSignature) {
			response.RespondError(c, http.StatusBadRequest, "invalid_signature", err)
			return
		}
		if errors.Is(err, pkgerr.ErrValidation) {
			response.RespondError(c, http.StatusBadRequest, "invalid_payload", err)
			return
		}
		response.RespondError(c, http.StatusInternalServerError, "webhook_ingest_failed", err)
		return
	}

	if event == nil {
		response.RespondOK(c, gin.H{"received": true, "ignored": true})
		return
	}
	response.RespondOK(c, gin.H{
		"received":  true,
		"duplicate": !created,
		"event_id":  event.ID,
	})
}
