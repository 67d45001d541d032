package payment

import (
	"time"

	"github.com/google/uuid"
)

// PaymentOutcomeCorrelation joins a payment outcome to the content snapshot
// that was live when the payment attempt started. At most one correlation
// exists per payment event; reprocessing a webhook returns the existing row.
//
// OutcomeType and Confidence always hold the effective values. When an admin
// overrides the computed result, the originals move into OriginalOutcomeType
// / OriginalConfidence and every override call appends a CorrelationOverride
// audit row.
type PaymentOutcomeCorrelation struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	// ContentSnapshotID is nullable: when the snapshot service was degraded
	// a null-content correlation is still recorded.
	ContentSnapshotID *uuid.UUID `gorm:"type:uuid;column:content_snapshot_id;index" json:"content_snapshot_id,omitempty"`
	PaymentEventID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:ux_correlation_payment_event;column:payment_event_id" json:"payment_event_id"`
	ClientID          *uuid.UUID `gorm:"type:uuid;index;column:client_id" json:"client_id,omitempty"`

	// ContentHash is copied from the snapshot so pattern aggregation never
	// needs to join back through mutable state.
	ContentHash string `gorm:"index;column:content_hash" json:"content_hash"`

	TimeToPaymentMS int64 `gorm:"not null;column:time_to_payment_ms" json:"time_to_payment_ms"`

	// TimingFlag marks suspicious durations: "" (normal), "negative" or
	// "stale". Flagged correlations are recorded, never dropped.
	TimingFlag string `gorm:"column:timing_flag" json:"timing_flag,omitempty"`

	// OutcomeType is one of: paid, failed, refunded, pending.
	OutcomeType string  `gorm:"not null;index;column:outcome_type" json:"outcome_type"`
	Confidence  float64 `gorm:"not null;column:confidence" json:"confidence"`
	SampleSize  int     `gorm:"not null;default:0;column:sample_size" json:"sample_size"`

	Overridden          bool     `gorm:"not null;default:false;column:overridden" json:"overridden"`
	OriginalOutcomeType string   `gorm:"column:original_outcome_type" json:"original_outcome_type,omitempty"`
	OriginalConfidence  *float64 `gorm:"column:original_confidence" json:"original_confidence,omitempty"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (PaymentOutcomeCorrelation) TableName() string { return "payment_outcome_correlation" }

// ComputedOutcome returns the engine-computed outcome even after overrides.
func (c *PaymentOutcomeCorrelation) ComputedOutcome() string {
	if c.Overridden {
		return c.OriginalOutcomeType
	}
	return c.OutcomeType
}

// ComputedConfidence returns the engine-computed confidence even after
// overrides.
func (c *PaymentOutcomeCorrelation) ComputedConfidence() float64 {
	if c.Overridden && c.OriginalConfidence != nil {
		return *c.OriginalConfidence
	}
	return c.Confidence
}
