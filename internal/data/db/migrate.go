package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/templategenius/revenue-intel-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Clients + journey content
		&types.Client{},
		&types.ContentVersion{},
		&types.ContentSnapshot{},

		// Payment ingest + correlation
		&types.PaymentEvent{},
		&types.PaymentOutcomeCorrelation{},
		&types.CorrelationOverride{},
		&types.WebhookFailure{},
	)
}

// EnsureRevenueIndexes creates the constraints that make the idempotency
// contracts hold under concurrent webhook delivery. These are structural
// invariants, not application checks:
//
//   - at most one current ContentVersion per (client, page type)
//   - at most one correlation per (content snapshot, payment event)
func EnsureRevenueIndexes(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS ux_content_version_current
		ON content_version(client_id, page_type)
		WHERE is_current;
	`).Error; err != nil {
		return fmt.Errorf("create ux_content_version_current: %w", err)
	}
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS ux_correlation_snapshot_event
		ON payment_outcome_correlation(content_snapshot_id, payment_event_id);
	`).Error; err != nil {
		return fmt.Errorf("create ux_correlation_snapshot_event: %w", err)
	}
	return nil
}
