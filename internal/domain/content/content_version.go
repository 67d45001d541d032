package content

import (
	"time"

	"github.com/google/uuid"
)

// ContentVersion is an immutable snapshot of one journey page's content for
// one client. Rows are append-only; the only mutable field is IsCurrent,
// which flips inside the atomic deactivate-old/activate-new transaction.
// A partial unique index on (client_id, page_type) WHERE is_current keeps
// at most one current version per page under concurrent saves.
type ContentVersion struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;not null;index;column:client_id;uniqueIndex:ux_content_version_number,priority:1" json:"client_id"`

	// PageType is one of: activation, agreement, confirmation, processing.
	PageType string `gorm:"not null;column:page_type;uniqueIndex:ux_content_version_number,priority:2" json:"page_type"`

	Content        string `gorm:"column:content;type:text" json:"content"`
	Hypothesis     string `gorm:"not null;column:hypothesis;type:text" json:"hypothesis"`
	IterationNotes string `gorm:"column:iteration_notes;type:text" json:"iteration_notes"`

	// Outcome of this version: pending, success or failure.
	Outcome string `gorm:"not null;default:pending;column:outcome" json:"outcome"`

	IsCurrent     bool `gorm:"not null;default:false;column:is_current" json:"is_current"`
	VersionNumber int  `gorm:"not null;column:version_number;uniqueIndex:ux_content_version_number,priority:3" json:"version_number"`

	CreatedBy string    `gorm:"column:created_by" json:"created_by"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}

func (ContentVersion) TableName() string { return "content_version" }
