package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

// providerEvent is the wire shape of a provider webhook payload.
type providerEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object struct {
			ID       string            `json:"id"`
			Amount   int64             `json:"amount"`
			Currency string            `json:"currency"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// eventTypeStatus is the closed union of supported provider event types.
// All fan-out goes through this one normalization table; event types not
// listed here are acknowledged but never stored, so the provider stops
// retrying them.
var eventTypeStatus = map[string]string{
	"checkout.session.completed":    types.PaymentSucceeded,
	"payment_intent.succeeded":      types.PaymentSucceeded,
	"payment_intent.payment_failed": types.PaymentFailed,
	"payment_intent.processing":     types.PaymentPending,
	"charge.refunded":               types.PaymentRefunded,
}

type WebhookIngestService interface {
	// Ingest verifies, parses, normalizes and persists one webhook
	// delivery. Returns (event, created): created=false on an idempotent
	// replay, event=nil for acknowledged-but-ignored event types.
	// Signature failures and unparseable bodies come back as
	// ErrInvalidSignature / ErrValidation for the handler to reject
	// synchronously; everything downstream of the insert is the
	// correlation worker's problem, never the provider's.
	Ingest(ctx context.Context, provider string, rawBody []byte, signatureHeader string) (*types.PaymentEvent, bool, error)
	RecentFailures(ctx context.Context, limit int) ([]*types.WebhookFailure, error)
}

type webhookIngestService struct {
	db          *gorm.DB
	log         *logger.Logger
	secret      string
	tolerance   time.Duration
	eventRepo   paymentrepo.PaymentEventRepo
	failureRepo paymentrepo.WebhookFailureRepo
	clientRepo  clientrepo.ClientRepo
}

func NewWebhookIngestService(
	db *gorm.DB,
	baseLog *logger.Logger,
	secret string,
	tolerance time.Duration,
	eventRepo paymentrepo.PaymentEventRepo,
	failureRepo paymentrepo.WebhookFailureRepo,
	clientRepo clientrepo.ClientRepo,
) WebhookIngestService {
	return &webhookIngestService{
		db:          db,
		log:         baseLog.With("service", "WebhookIngestService"),
		secret:      secret,
		tolerance:   tolerance,
		eventRepo:   eventRepo,
		failureRepo: failureRepo,
		clientRepo:  clientRepo,
	}
}

func (s *webhookIngestService) Ingest(ctx context.Context, provider string, rawBody []byte, signatureHeader string) (*types.PaymentEvent, bool, error) {
	dbc := dbctx.Context{Ctx: ctx}

	if err := verifyWebhookSignature(s.secret, signatureHeader, rawBody, s.tolerance, time.Now()); err != nil {
		s.log.Warn("Webhook signature verification failed", "provider", provider, "error", err)
		s.recordFailure(dbc, provider, types.FailureInvalidSignature, err.Error())
		return nil, false, err
	}

	var pe providerEvent
	if err := json.Unmarshal(rawBody, &pe); err != nil || pe.ID == "" || pe.Type == "" {
		if err == nil {
			err = fmt.Errorf("missing event id or type")
		}
		s.log.Warn("Webhook body unparseable", "provider", provider, "error", err)
		s.recordFailure(dbc, provider, types.FailureUnparseable, err.Error())
		return nil, false, fmt.Errorf("unparseable webhook body: %w", pkgerr.ErrValidation)
	}

	status, supported := eventTypeStatus[pe.Type]
	if !supported {
		s.log.Debug("Ignoring unsupported webhook event type", "provider", provider, "event_type", pe.Type)
		return nil, false, nil
	}

	event := &types.PaymentEvent{
		ID:                uuid.New(),
		ProviderEventID:   pe.ID,
		Provider:          provider,
		PaymentSessionRef: pe.Data.Object.Metadata["payment_session_ref"],
		AmountCents:       pe.Data.Object.Amount,
		Currency:          pe.Data.Object.Currency,
		Status:            status,
		ProviderTimestamp: time.Unix(pe.Created, 0),
		IngestedAt:        time.Now(),
		RawPayload:        datatypes.JSON(rawBody),
		CorrelationStatus: types.CorrelationQueued,
	}
	if token := pe.Data.Object.Metadata["client_token"]; types.ClientTokenPattern.MatchString(token) {
		if c, err := s.clientRepo.GetByToken(dbc, token); err == nil {
			event.ClientID = &c.ID
		} else {
			s.log.Warn("Webhook references unknown client token", "provider", provider, "provider_event_id", pe.ID)
		}
	}

	stored, created, err := s.eventRepo.InsertIfNotExists(dbc, event)
	if err != nil {
		return nil, false, fmt.Errorf("persist payment event: %w", err)
	}
	if !created {
		// Safe replay: same ack as the first delivery, no re-enqueue.
		s.log.Info("Duplicate webhook delivery", "provider", provider, "provider_event_id", pe.ID)
		return stored, false, nil
	}

	s.log.Info("Payment event ingested",
		"provider", provider,
		"provider_event_id", pe.ID,
		"status", status,
		"amount_cents", event.AmountCents,
	)
	return stored, true, nil
}

func (s *webhookIngestService) RecentFailures(ctx context.Context, limit int) ([]*types.WebhookFailure, error) {
	return s.failureRepo.ListRecent(dbctx.Context{Ctx: ctx}, limit)
}

// recordFailure is best-effort: the rejection response never depends on it.
func (s *webhookIngestService) recordFailure(dbc dbctx.Context, provider, reason, detail string) {
	f := &types.WebhookFailure{
		ID:         uuid.New(),
		Provider:   provider,
		Reason:     reason,
		Detail:     detail,
		ReceivedAt: time.Now(),
	}
	if err := s.failureRepo.Create(dbc, f); err != nil {
		s.log.Error("Failed to record webhook failure", "provider", provider, "reason", reason, "error", err)
	}
}
