package handlers

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	"github.com/templategenius/revenue-intel-backend/internal/data/repos/testutil"
	"github.com/templategenius/revenue-intel-backend/internal/services"
)

const handlerTestSecret = "whsec_handler_test"

func newWebhookRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	ingest := services.NewWebhookIngestService(
		db, log, handlerTestSecret, 5*time.Minute,
		paymentrepo.NewPaymentEventRepo(db, log),
		paymentrepo.NewWebhookFailureRepo(db, log),
		clientrepo.NewClientRepo(db, log),
	)

	r := gin.New()
	r.POST("/api/webhooks/:provider", NewWebhookHandler(ingest).Receive)
	return r
}

func sign(body []byte, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(handlerTestSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(body)
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func post(r *gin.Engine, body []byte, sig string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/stripe", bytes.NewReader(body))
	req.Header.Set("Stripe-Signature", sig)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookEndpoint(t *testing.T) {
	r := newWebhookRouter(t)

	body := []byte(fmt.Sprintf(
		`{"id":"evt_http_1","type":"payment_intent.succeeded","created":%d,"data":{"object":{"amount":50000,"currency":"usd","metadata":{}}}}`,
		time.Now().Unix(),
	))
	sig := sign(body, time.Now())

	w := post(r, body, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("valid delivery: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Replays ack exactly like the first delivery.
	w = post(r, body, sig)
	if w.Code != http.StatusOK {
		t.Fatalf("replay: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Tampered payloads are rejected before anything is stored.
	tampered := bytes.Replace(body, []byte("50000"), []byte("99999"), 1)
	w = post(r, tampered, sig)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("tampered delivery: expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// Ignored event types still get a 200 so the provider stops retrying.
	ignored := []byte(fmt.Sprintf(
		`{"id":"evt_http_2","type":"customer.created","created":%d,"data":{"object":{"metadata":{}}}}`,
		time.Now().Unix(),
	))
	w = post(r, ignored, sign(ignored, time.Now()))
	if w.Code != http.StatusOK {
		t.Fatalf("ignored event type: expected 200, got %d: %s", w.Code, w.Body.String())
	}
}
