package payment

import (
	"time"

	"github.com/google/uuid"
)

// WebhookFailure records a rejected webhook delivery for the operational
// "last N failures" view. Repeated signature failures point at a
// misconfigured secret or an attack and should get operator attention.
type WebhookFailure struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Provider string    `gorm:"not null;index;column:provider" json:"provider"`

	// Reason is one of: invalid_signature, unparseable.
	Reason string `gorm:"not null;index;column:reason" json:"reason"`
	Detail string `gorm:"column:detail;type:text" json:"detail,omitempty"`

	ReceivedAt time.Time `gorm:"not null;index;column:received_at" json:"received_at"`
}

func (WebhookFailure) TableName() string { return "webhook_failure" }
