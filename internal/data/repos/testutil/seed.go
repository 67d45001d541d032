package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/templategenius/revenue-intel-backend/internal/domain"
)

func SeedClient(tb testing.TB, ctx context.Context, tx *gorm.DB, token string) *types.Client {
	tb.Helper()
	c := &types.Client{
		ID:                uuid.New(),
		Token:             token,
		Name:              "Acme Co",
		Email:             "owner@example.com",
		JourneyHypothesis: "clearer pricing should shorten the decision",
		Outcome:           types.OutcomePending,
		Status:            types.ClientActive,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed client: %v", err)
	}
	return c
}

func SeedContentVersion(tb testing.TB, ctx context.Context, tx *gorm.DB, clientID uuid.UUID, pageType string, versionNumber int, isCurrent bool) *types.ContentVersion {
	tb.Helper()
	v := &types.ContentVersion{
		ID:            uuid.New(),
		ClientID:      clientID,
		PageType:      pageType,
		Content:       "page body",
		Hypothesis:    "shorter copy converts better",
		Outcome:       types.VersionOutcomePending,
		IsCurrent:     isCurrent,
		VersionNumber: versionNumber,
		CreatedBy:     "admin",
		CreatedAt:     time.Now(),
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed content version: %v", err)
	}
	return v
}

func SeedSnapshot(tb testing.TB, ctx context.Context, tx *gorm.DB, clientID uuid.UUID, sessionRef, contentHash string, capturedAt time.Time) *types.ContentSnapshot {
	tb.Helper()
	s := &types.ContentSnapshot{
		ID:                uuid.New(),
		ClientID:          clientID,
		PaymentSessionRef: sessionRef,
		CapturedContent:   datatypes.JSON([]byte(`{}`)),
		ContentHash:       contentHash,
		CapturedAt:        capturedAt,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed snapshot: %v", err)
	}
	return s
}

func SeedPaymentEvent(tb testing.TB, ctx context.Context, tx *gorm.DB, providerEventID, sessionRef, status string, clientID *uuid.UUID) *types.PaymentEvent {
	tb.Helper()
	e := &types.PaymentEvent{
		ID:                uuid.New(),
		ProviderEventID:   providerEventID,
		Provider:          "stripe",
		ClientID:          clientID,
		PaymentSessionRef: sessionRef,
		AmountCents:       50000,
		Currency:          "usd",
		Status:            status,
		ProviderTimestamp: time.Now(),
		IngestedAt:        time.Now(),
		CorrelationStatus: types.CorrelationQueued,
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed payment event: %v", err)
	}
	return e
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }
