package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	clientrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/client"
	paymentrepo "github.com/templategenius/revenue-intel-backend/internal/data/repos/payment"
	"github.com/templategenius/revenue-intel-backend/internal/data/repos/testutil"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
)

const testWebhookSecret = "whsec_ingest_test"

func newIngestService(t *testing.T) WebhookIngestService {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	return NewWebhookIngestService(
		db, log, testWebhookSecret, 5*time.Minute,
		paymentrepo.NewPaymentEventRepo(db, log),
		paymentrepo.NewWebhookFailureRepo(db, log),
		clientrepo.NewClientRepo(db, log),
	)
}

func signedPayload(t *testing.T, eventID, eventType, sessionRef string) ([]byte, string) {
	t.Helper()
	body := []byte(fmt.Sprintf(
		`{"id":%q,"type":%q,"created":%d,"data":{"object":{"id":"pi_1","amount":50000,"currency":"usd","metadata":{"payment_session_ref":%q}}}}`,
		eventID, eventType, time.Now().Unix(), sessionRef,
	))
	return body, signWebhookPayload(testWebhookSecret, body, time.Now())
}

func TestWebhookIngest(t *testing.T) {
	svc := newIngestService(t)
	ctx := context.Background()

	body, sig := signedPayload(t, "evt_ingest_1", "payment_intent.succeeded", "ps_ingest_1")

	event, created, err := svc.Ingest(ctx, "stripe", body, sig)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !created || event == nil {
		t.Fatalf("Ingest: expected created event, got created=%v event=%v", created, event)
	}
	if event.Status != types.PaymentSucceeded || event.AmountCents != 50000 {
		t.Fatalf("Ingest: unexpected normalization: %+v", event)
	}
	if event.PaymentSessionRef != "ps_ingest_1" {
		t.Fatalf("Ingest: session ref not extracted: %q", event.PaymentSessionRef)
	}
	if event.CorrelationStatus != types.CorrelationQueued {
		t.Fatalf("Ingest: expected queued for the worker, got %q", event.CorrelationStatus)
	}

	// Redelivery of the same provider event acks without a second row.
	replay, created, err := svc.Ingest(ctx, "stripe", body, sig)
	if err != nil {
		t.Fatalf("Ingest (replay): %v", err)
	}
	if created {
		t.Fatalf("Ingest (replay): expected created=false")
	}
	if replay.ID != event.ID {
		t.Fatalf("Ingest (replay): expected original event, got %s", replay.ID)
	}
}

func TestWebhookIngestRejectsBadSignature(t *testing.T) {
	svc := newIngestService(t)
	ctx := context.Background()

	body, sig := signedPayload(t, "evt_ingest_sig", "payment_intent.succeeded", "ps_ingest_sig")
	tampered := append([]byte(nil), body...)
	tampered[len(tampered)-2] = 'X'

	_, _, err := svc.Ingest(ctx, "stripe", tampered, sig)
	if !errors.Is(err, pkgerr.ErrInvalidSignature) {
		t.Fatalf("Ingest (tampered): expected ErrInvalidSignature, got %v", err)
	}

	failures, err := svc.RecentFailures(ctx, 10)
	if err != nil {
		t.Fatalf("RecentFailures: %v", err)
	}
	found := false
	for _, f := range failures {
		if f.Reason == types.FailureInvalidSignature {
			found = true
		}
	}
	if !found {
		t.Fatal("RecentFailures: expected an invalid_signature row")
	}
}

func TestWebhookIngestRejectsUnparseableBody(t *testing.T) {
	svc := newIngestService(t)
	ctx := context.Background()

	body := []byte(`{"not":"an event"}`)
	sig := signWebhookPayload(testWebhookSecret, body, time.Now())

	_, _, err := svc.Ingest(ctx, "stripe", body, sig)
	if !errors.Is(err, pkgerr.ErrValidation) {
		t.Fatalf("Ingest (unparseable): expected ErrValidation, got %v", err)
	}
}

func TestWebhookIngestIgnoresUnknownEventType(t *testing.T) {
	svc := newIngestService(t)
	ctx := context.Background()

	body, sig := signedPayload(t, "evt_ingest_unk", "customer.subscription.updated", "ps_ingest_unk")

	event, created, err := svc.Ingest(ctx, "stripe", body, sig)
	if err != nil {
		t.Fatalf("Ingest (unknown type): %v", err)
	}
	if event != nil || created {
		t.Fatalf("Ingest (unknown type): expected silent ack, got event=%v created=%v", event, created)
	}
}
