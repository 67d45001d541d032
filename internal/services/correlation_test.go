package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	contentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/content"
	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	"github.com/templategenius/revenue-intel-backend/internal/data/repos/testutil"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
)

func newCorrelationService(t *testing.T, snapshotMaxAge time.Duration) CorrelationService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewCorrelationService(
		db, log, snapshotMaxAge,
		paymentrepo.NewCorrelationRepo(db, log),
		contentrepo.NewContentSnapshotRepo(db, log),
		contentrepo.NewContentVersionRepo(db, log),
		nil,
	)
}

func TestCorrelateJoinsSnapshotAndEvent(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	svc := newCorrelationService(t, 30*24*time.Hour)

	c := testutil.SeedClient(t, ctx, db, "C4001")
	capturedAt := time.Now().Add(-42 * time.Second)
	snap := testutil.SeedSnapshot(t, ctx, db, c.ID, "ps_corr_1", "hash_corr_svc_1", capturedAt)
	event := testutil.SeedPaymentEvent(t, ctx, db, "evt_corr_svc_1", "ps_corr_1", types.PaymentSucceeded, nil)

	corr, err := svc.Correlate(ctx, event)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if corr.ContentSnapshotID == nil || *corr.ContentSnapshotID != snap.ID {
		t.Fatalf("Correlate: snapshot not linked: %+v", corr)
	}
	if corr.ClientID == nil || *corr.ClientID != c.ID {
		t.Fatalf("Correlate: client not resolved from snapshot: %+v", corr)
	}
	if corr.OutcomeType != types.CorrelationPaid {
		t.Fatalf("Correlate: expected paid outcome, got %q", corr.OutcomeType)
	}
	if corr.TimeToPaymentMS < 41000 || corr.TimeToPaymentMS > 44000 {
		t.Fatalf("Correlate: time-to-payment off: %dms", corr.TimeToPaymentMS)
	}
	if corr.TimingFlag != "" {
		t.Fatalf("Correlate: unexpected timing flag %q", corr.TimingFlag)
	}
	if corr.Confidence <= 0 || corr.Confidence > 1 {
		t.Fatalf("Correlate: confidence out of range: %v", corr.Confidence)
	}

	// Rerunning the same event returns the existing correlation.
	again, err := svc.Correlate(ctx, event)
	if err != nil {
		t.Fatalf("Correlate (rerun): %v", err)
	}
	if again.ID != corr.ID {
		t.Fatalf("Correlate (rerun): expected same row, got %s and %s", corr.ID, again.ID)
	}
}

func TestCorrelateWithoutSnapshot(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	svc := newCorrelationService(t, 30*24*time.Hour)

	c := testutil.SeedClient(t, ctx, db, "C4002")
	event := testutil.SeedPaymentEvent(t, ctx, db, "evt_corr_svc_2", "ps_missing_corr_2", types.PaymentSucceeded, testutil.PtrUUID(c.ID))

	corr, err := svc.Correlate(ctx, event)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}
	if corr.ContentSnapshotID != nil || corr.ContentHash != "" {
		t.Fatalf("Correlate: expected null-content correlation, got %+v", corr)
	}
	if corr.ClientID == nil || *corr.ClientID != c.ID {
		t.Fatalf("Correlate: client from event lost: %+v", corr)
	}
}

func TestCorrelateTimingFlags(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	svc := newCorrelationService(t, time.Hour)

	c := testutil.SeedClient(t, ctx, db, "C4003")

	// Payment timestamp before the snapshot existed.
	testutil.SeedSnapshot(t, ctx, db, c.ID, "ps_corr_neg", "hash_corr_neg", time.Now().Add(time.Hour))
	negEvent := testutil.SeedPaymentEvent(t, ctx, db, "evt_corr_neg", "ps_corr_neg", types.PaymentSucceeded, nil)
	corr, err := svc.Correlate(ctx, negEvent)
	if err != nil {
		t.Fatalf("Correlate (negative): %v", err)
	}
	if corr.TimingFlag != types.TimingNegative {
		t.Fatalf("Correlate (negative): expected negative flag, got %q", corr.TimingFlag)
	}

	// Snapshot far older than the allowed age.
	testutil.SeedSnapshot(t, ctx, db, c.ID, "ps_corr_stale", "hash_corr_stale", time.Now().Add(-48*time.Hour))
	staleEvent := testutil.SeedPaymentEvent(t, ctx, db, "evt_corr_stale", "ps_corr_stale", types.PaymentSucceeded, nil)
	corr, err = svc.Correlate(ctx, staleEvent)
	if err != nil {
		t.Fatalf("Correlate (stale): %v", err)
	}
	if corr.TimingFlag != types.TimingStale {
		t.Fatalf("Correlate (stale): expected stale flag, got %q", corr.TimingFlag)
	}
}

func TestOverrideValidation(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	svc := newCorrelationService(t, 30*24*time.Hour)

	c := testutil.SeedClient(t, ctx, db, "C4004")
	testutil.SeedSnapshot(t, ctx, db, c.ID, "ps_corr_ovr", "hash_corr_ovr", time.Now().Add(-time.Minute))
	event := testutil.SeedPaymentEvent(t, ctx, db, "evt_corr_ovr", "ps_corr_ovr", types.PaymentSucceeded, nil)
	corr, err := svc.Correlate(ctx, event)
	if err != nil {
		t.Fatalf("Correlate: %v", err)
	}

	if _, err := svc.Override(ctx, corr.ID, "not-an-outcome", "admin_1", "reason"); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("Override (bad outcome): expected ErrValidation, got %v", err)
	}
	if _, err := svc.Override(ctx, corr.ID, types.CorrelationRefunded, "", "reason"); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("Override (no admin): expected ErrValidation, got %v", err)
	}
	if _, err := svc.Override(ctx, corr.ID, types.CorrelationRefunded, "admin_1", ""); !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("Override (no reason): expected ErrValidation, got %v", err)
	}

	updated, err := svc.Override(ctx, corr.ID, types.CorrelationRefunded, "admin_1", "customer refunded out of band")
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if updated.OutcomeType != types.CorrelationRefunded || !updated.Overridden {
		t.Fatalf("Override: unexpected state: %+v", updated)
	}

	overrides, err := svc.ListOverrides(ctx, corr.ID)
	if err != nil {
		t.Fatalf("ListOverrides: %v", err)
	}
	if len(overrides) != 1 || overrides[0].AdminID != "admin_1" {
		t.Fatalf("ListOverrides: unexpected audit trail: %+v", overrides)
	}

	if _, err := svc.GetByID(ctx, uuid.New()); !errors.Is(err, pkgerr.ErrNotFound) {
		t.Fatalf("GetByID (missing): expected ErrNotFound, got %v", err)
	}
}
