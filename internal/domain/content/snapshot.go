package content

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ContentSnapshot freezes the content state of a client at the moment a
// payment attempt begins. CapturedContent is a denormalized copy, not a live
// reference, so later edits cannot retroactively change what a past payment
// correlates with. Immutable once created.
type ContentSnapshot struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index;column:client_id" json:"client_id"`

	// PaymentSessionRef links the snapshot to a payment attempt. One
	// snapshot per attempt.
	PaymentSessionRef string `gorm:"not null;uniqueIndex;column:payment_session_ref" json:"payment_session_ref"`

	// CapturedContent maps page type to the frozen version. Empty object
	// for a degraded (minimal) snapshot.
	CapturedContent datatypes.JSON `gorm:"column:captured_content;type:jsonb" json:"captured_content"`

	// ContentHash identifies the captured content combination for pattern
	// grouping. Empty for degraded snapshots.
	ContentHash string `gorm:"index;column:content_hash" json:"content_hash"`

	// Degraded marks snapshots written through the minimal fallback path
	// after a content read failure.
	Degraded bool `gorm:"not null;default:false;column:degraded" json:"degraded"`

	CapturedAt time.Time `gorm:"not null;index;column:captured_at" json:"captured_at"`
}

func (ContentSnapshot) TableName() string { return "content_snapshot" }

// CapturedPage is one page entry inside CapturedContent.
type CapturedPage struct {
	ContentVersionID uuid.UUID `json:"content_version_id"`
	VersionNumber    int       `json:"version_number"`
	Content          string    `json:"content"`
	Hypothesis       string    `json:"hypothesis"`
}
