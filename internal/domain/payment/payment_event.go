package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PaymentEvent is the normalized record of one provider webhook delivery.
// ProviderEventID is globally unique: duplicate deliveries must not create
// duplicate rows. Rows are created only by webhook ingest and never mutated,
// except for the correlation worker bookkeeping fields.
type PaymentEvent struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProviderEventID string    `gorm:"not null;uniqueIndex;column:provider_event_id" json:"provider_event_id"`
	Provider        string    `gorm:"not null;index;column:provider" json:"provider"`

	// ClientID is nullable: an event may arrive for a session the system
	// cannot attribute (missing or unknown metadata).
	ClientID          *uuid.UUID `gorm:"type:uuid;index;column:client_id" json:"client_id,omitempty"`
	PaymentSessionRef string     `gorm:"index;column:payment_session_ref" json:"payment_session_ref"`

	AmountCents int64  `gorm:"not null;column:amount_cents" json:"amount_cents"`
	Currency    string `gorm:"not null;column:currency" json:"currency"`

	// Status is one of: succeeded, failed, pending, refunded.
	Status string `gorm:"not null;index;column:status" json:"status"`

	ProviderTimestamp time.Time `gorm:"not null;column:provider_timestamp" json:"provider_timestamp"`
	IngestedAt        time.Time `gorm:"not null;column:ingested_at" json:"ingested_at"`

	// RawPayload keeps the normalized source event for reconciliation.
	RawPayload datatypes.JSON `gorm:"column:raw_payload;type:jsonb" json:"raw_payload,omitempty"`

	// Correlation worker bookkeeping. The event row doubles as the work
	// queue entry: queued -> running -> done/failed with bounded retries.
	CorrelationStatus   string     `gorm:"not null;default:queued;index;column:correlation_status" json:"correlation_status"`
	CorrelationAttempts int        `gorm:"not null;default:0;column:correlation_attempts" json:"correlation_attempts"`
	CorrelationError    string     `gorm:"column:correlation_error" json:"correlation_error,omitempty"`
	LastErrorAt         *time.Time `gorm:"column:last_error_at;index" json:"last_error_at,omitempty"`
	LockedAt            *time.Time `gorm:"column:locked_at;index" json:"locked_at,omitempty"`
}

func (PaymentEvent) TableName() string { return "payment_event" }
