package payment

import (
	"time"

	"github.com/google/uuid"
)

// CorrelationOverride is one append-only audit entry for a manual override.
// Last write wins on the correlation itself; the trail keeps every call.
type CorrelationOverride struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CorrelationID uuid.UUID `gorm:"type:uuid;not null;index;column:correlation_id" json:"correlation_id"`

	AdminID string `gorm:"not null;column:admin_id" json:"admin_id"`
	Reason  string `gorm:"not null;column:reason;type:text" json:"reason"`

	PreviousOutcome string `gorm:"not null;column:previous_outcome" json:"previous_outcome"`
	NewOutcome      string `gorm:"not null;column:new_outcome" json:"new_outcome"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (CorrelationOverride) TableName() string { return "correlation_override" }
