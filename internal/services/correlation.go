package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	contentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/content"
	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

// outcomeForStatus maps normalized payment statuses to correlation outcome
// types. Anything unrecognized stays pending.
func outcomeForStatus(status string) string {
	switch status {
	case types.PaymentSucceeded:
		return types.CorrelationPaid
	case types.PaymentFailed:
		return types.CorrelationFailed
	case types.PaymentRefunded:
		return types.CorrelationRefunded
	default:
		return types.CorrelationPending
	}
}

type CorrelationService interface {
	// Correlate joins a payment event to the snapshot live at payment
	// initiation. Idempotent: rerunning for an event that already has a
	// correlation returns the existing row unchanged, including any manual
	// override.
	Correlate(ctx context.Context, event *types.PaymentEvent) (*types.PaymentOutcomeCorrelation, error)
	Override(ctx context.Context, correlationID uuid.UUID, newOutcome, adminID, reason string) (*types.PaymentOutcomeCorrelation, error)
	GetByID(ctx context.Context, correlationID uuid.UUID) (*types.PaymentOutcomeCorrelation, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*types.PaymentOutcomeCorrelation, error)
	ListOverrides(ctx context.Context, correlationID uuid.UUID) ([]*types.CorrelationOverride, error)
}

type correlationService struct {
	db              *gorm.DB
	log             *logger.Logger
	snapshotMaxAge  time.Duration
	correlationRepo paymentrepo.CorrelationRepo
	snapshotRepo    contentrepo.ContentSnapshotRepo
	versionRepo     contentrepo.ContentVersionRepo
	cache           MetricsInvalidator
}

// MetricsInvalidator is the slice of the dashboard cache the correlation
// and outcome paths need: drop stale aggregates after a write.
type MetricsInvalidator interface {
	InvalidateMetrics(ctx context.Context)
}

func NewCorrelationService(
	db *gorm.DB,
	baseLog *logger.Logger,
	snapshotMaxAge time.Duration,
	correlationRepo paymentrepo.CorrelationRepo,
	snapshotRepo contentrepo.ContentSnapshotRepo,
	versionRepo contentrepo.ContentVersionRepo,
	cache MetricsInvalidator,
) CorrelationService {
	return &correlationService{
		db:              db,
		log:             baseLog.With("service", "CorrelationService"),
		snapshotMaxAge:  snapshotMaxAge,
		correlationRepo: correlationRepo,
		snapshotRepo:    snapshotRepo,
		versionRepo:     versionRepo,
		cache:           cache,
	}
}

func (s *correlationService) Correlate(ctx context.Context, event *types.PaymentEvent) (*types.PaymentOutcomeCorrelation, error) {
	dbc := dbctx.Context{Ctx: ctx}

	var snap *types.ContentSnapshot
	if event.PaymentSessionRef != "" {
		found, err := s.snapshotRepo.GetByPaymentSessionRef(dbc, event.PaymentSessionRef)
		switch {
		case err == nil:
			snap = found
		case errors.Is(err, pkgerr.ErrNotFound):
			// Snapshot service was degraded at session start; proceed
			// null-content rather than failing.
			s.log.Warn("No snapshot for payment session, correlating without content",
				"payment_session_ref", event.PaymentSessionRef, "provider_event_id", event.ProviderEventID)
		default:
			return nil, fmt.Errorf("load snapshot: %w", err)
		}
	}

	corr := &types.PaymentOutcomeCorrelation{
		ID:             uuid.New(),
		PaymentEventID: event.ID,
		ClientID:       event.ClientID,
		OutcomeType:    outcomeForStatus(event.Status),
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	var timeToPayment time.Duration
	if snap != nil {
		corr.ContentSnapshotID = &snap.ID
		corr.ContentHash = snap.ContentHash
		if corr.ClientID == nil {
			corr.ClientID = &snap.ClientID
		}

		timeToPayment = event.ProviderTimestamp.Sub(snap.CapturedAt)
		corr.TimeToPaymentMS = timeToPayment.Milliseconds()
		switch {
		case timeToPayment < 0:
			corr.TimingFlag = types.TimingNegative
		case timeToPayment > s.snapshotMaxAge:
			corr.TimingFlag = types.TimingStale
		}
		if corr.TimingFlag != "" {
			// Flagged but still recorded; the business still wants to
			// know the payment happened.
			s.log.Warn("Suspicious time-to-payment",
				"provider_event_id", event.ProviderEventID,
				"timing_flag", corr.TimingFlag,
				"time_to_payment_ms", corr.TimeToPaymentMS)
		}
	}

	sample, _, err := s.correlationRepo.CountByContentHash(dbc, corr.ContentHash)
	if err != nil {
		return nil, fmt.Errorf("count pattern samples: %w", err)
	}
	corr.SampleSize = sample
	corr.Confidence = confidenceScore(corr.OutcomeType == types.CorrelationPaid, timeToPayment, sample)

	stored, created, err := s.correlationRepo.InsertIfNotExists(dbc, corr)
	if err != nil {
		return nil, fmt.Errorf("persist correlation: %w", err)
	}
	if !created {
		return stored, nil
	}

	s.markVersionOutcomes(dbc, snap, stored.OutcomeType)
	if s.cache != nil {
		s.cache.InvalidateMetrics(ctx)
	}

	s.log.Info("Correlation recorded",
		"correlation_id", stored.ID,
		"provider_event_id", event.ProviderEventID,
		"outcome_type", stored.OutcomeType,
		"confidence", stored.Confidence,
		"sample_size", stored.SampleSize,
	)
	return stored, nil
}

// markVersionOutcomes labels the captured content versions with the payment
// result. Best-effort enrichment: failures are logged, never propagated.
func (s *correlationService) markVersionOutcomes(dbc dbctx.Context, snap *types.ContentSnapshot, outcomeType string) {
	if snap == nil || snap.Degraded {
		return
	}
	var versionOutcome string
	switch outcomeType {
	case types.CorrelationPaid:
		versionOutcome = types.VersionOutcomeSuccess
	case types.CorrelationFailed:
		versionOutcome = types.VersionOutcomeFailure
	default:
		return
	}

	var pages map[string]types.CapturedPage
	if err := json.Unmarshal(snap.CapturedContent, &pages); err != nil {
		s.log.Warn("Cannot decode captured content for outcome labeling", "snapshot_id", snap.ID, "error", err)
		return
	}
	for _, page := range pages {
		if err := s.versionRepo.SetOutcome(dbc, page.ContentVersionID, versionOutcome); err != nil {
			s.log.Warn("Failed to label content version outcome",
				"content_version_id", page.ContentVersionID, "error", err)
		}
	}
}

func (s *correlationService) Override(ctx context.Context, correlationID uuid.UUID, newOutcome, adminID, reason string) (*types.PaymentOutcomeCorrelation, error) {
	switch newOutcome {
	case types.CorrelationPaid, types.CorrelationFailed, types.CorrelationRefunded, types.CorrelationPending:
	default:
		return nil, fmt.Errorf("invalid override outcome %q: %w", newOutcome, pkgerr.ErrValidation)
	}
	if adminID == "" || reason == "" {
		return nil, fmt.Errorf("override requires admin id and reason: %w", pkgerr.ErrValidation)
	}

	updated, err := s.correlationRepo.ApplyOverride(dbctx.Context{Ctx: ctx}, correlationID, newOutcome, adminID, reason)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.InvalidateMetrics(ctx)
	}
	s.log.Info("Correlation overridden",
		"correlation_id", correlationID,
		"new_outcome", newOutcome,
		"admin_id", adminID,
	)
	return updated, nil
}

func (s *correlationService) GetByID(ctx context.Context, correlationID uuid.UUID) (*types.PaymentOutcomeCorrelation, error) {
	return s.correlationRepo.GetByID(dbctx.Context{Ctx: ctx}, correlationID)
}

func (s *correlationService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*types.PaymentOutcomeCorrelation, error) {
	return s.correlationRepo.ListByClient(dbctx.Context{Ctx: ctx}, clientID)
}

func (s *correlationService) ListOverrides(ctx context.Context, correlationID uuid.UUID) ([]*types.CorrelationOverride, error) {
	return s.correlationRepo.ListOverrides(dbctx.Context{Ctx: ctx}, correlationID)
}
