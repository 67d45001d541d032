package client

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Token is the client-facing identifier: one uppercase letter followed by
// exactly four digits (e.g. "G1234"). Human-shareable and URL-safe.
var TokenPattern = regexp.MustCompile(`^[A-Z][0-9]{4}$`)

type Client struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Token string    `gorm:"uniqueIndex;not null;column:token" json:"token"`

	Name  string `gorm:"not null;column:name" json:"name"`
	Email string `gorm:"column:email" json:"email"`

	// JourneyHypothesis is the admin's overall expectation for this
	// client's journey, recorded at creation time.
	JourneyHypothesis string `gorm:"column:journey_hypothesis;type:text" json:"journey_hypothesis"`

	// Outcome is the realized journey result: pending, paid, ghosted or
	// responded. Terminal labels may be relabeled but never silently reset
	// to pending.
	Outcome      string `gorm:"not null;default:pending;index;column:outcome" json:"outcome"`
	OutcomeNotes string `gorm:"column:outcome_notes;type:text" json:"outcome_notes"`

	// Status transitions are soft; clients are never hard-deleted.
	Status string `gorm:"not null;default:active;index;column:status" json:"status"`

	CreatedAt time.Time      `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

func (Client) TableName() string { return "client" }
