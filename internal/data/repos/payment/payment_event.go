package payment

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

type PaymentEventRepo interface {
	// InsertIfNotExists is the idempotency primitive for webhook ingest.
	// The unique index on provider_event_id is the source of truth; on a
	// duplicate delivery the existing row is returned with created=false.
	InsertIfNotExists(dbc dbctx.Context, e *types.PaymentEvent) (*types.PaymentEvent, bool, error)
	GetByProviderEventID(dbc dbctx.Context, providerEventID string) (*types.PaymentEvent, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PaymentEvent, error)

	// ClaimNextCorrelatable picks the oldest event still owed a correlation
	// run: queued, or failed under the attempt budget past the retry delay,
	// or running with a stale claim. The claim itself is a conditional
	// update so two workers can never take the same event.
	ClaimNextCorrelatable(dbc dbctx.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.PaymentEvent, error)
	MarkCorrelation(dbc dbctx.Context, id uuid.UUID, status, errMsg string) error

	SumAmountByStatusSince(dbc dbctx.Context, status string, since time.Time) (int64, error)
}

type paymentEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPaymentEventRepo(db *gorm.DB, baseLog *logger.Logger) PaymentEventRepo {
	return &paymentEventRepo{db: db, log: baseLog.With("repo", "PaymentEventRepo")}
}

func (r *paymentEventRepo) InsertIfNotExists(dbc dbctx.Context, e *types.PaymentEvent) (*types.PaymentEvent, bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoNothing: true,
		}).
		Create(e)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.GetByProviderEventID(dbc, e.ProviderEventID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return e, true, nil
}

func (r *paymentEventRepo) GetByProviderEventID(dbc dbctx.Context, providerEventID string) (*types.PaymentEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var e types.PaymentEvent
	err := transaction.WithContext(dbc.Ctx).
		Where("provider_event_id = ?", providerEventID).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *paymentEventRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.PaymentEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PaymentEvent
	if len(ids) == 0 {
		return out, nil
	}
	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *paymentEventRepo) ClaimNextCorrelatable(dbc dbctx.Context, maxAttempts int, retryDelay, staleRunning time.Duration) (*types.PaymentEvent, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	now := time.Now()
	retryCutoff := now.Add(-retryDelay)
	staleCutoff := now.Add(-staleRunning)

	runnable := transaction.WithContext(dbc.Ctx).
		Where(`
			(
				correlation_status = ?
				OR (
					correlation_status = ?
					AND correlation_attempts < ?
					AND (last_error_at IS NULL OR last_error_at < ?)
				)
				OR (
					correlation_status = ?
					AND locked_at IS NOT NULL
					AND locked_at < ?
				)
			)
		`, types.CorrelationQueued, types.CorrelationErrored, maxAttempts, retryCutoff,
			types.CorrelationRunning, staleCutoff).
		Order("ingested_at ASC")

	// Candidate scan plus conditional update instead of SELECT FOR UPDATE:
	// the WHERE re-check on the claim makes it safe under concurrent
	// workers, and it runs on both Postgres and the sqlite test driver.
	var candidates []*types.PaymentEvent
	if err := runnable.Limit(5).Find(&candidates).Error; err != nil {
		return nil, err
	}
	for _, cand := range candidates {
		res := transaction.WithContext(dbc.Ctx).
			Model(&types.PaymentEvent{}).
			Where("id = ? AND correlation_status = ? AND correlation_attempts = ?",
				cand.ID, cand.CorrelationStatus, cand.CorrelationAttempts).
			Updates(map[string]interface{}{
				"correlation_status":   types.CorrelationRunning,
				"correlation_attempts": gorm.Expr("correlation_attempts + 1"),
				"locked_at":            now,
			})
		if res.Error != nil {
			return nil, res.Error
		}
		if res.RowsAffected == 1 {
			cand.CorrelationStatus = types.CorrelationRunning
			cand.CorrelationAttempts++
			cand.LockedAt = &now
			return cand, nil
		}
	}
	return nil, nil
}

func (r *paymentEventRepo) MarkCorrelation(dbc dbctx.Context, id uuid.UUID, status, errMsg string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	updates := map[string]interface{}{
		"correlation_status": status,
		"correlation_error":  errMsg,
	}
	if errMsg != "" {
		updates["last_error_at"] = time.Now()
	}
	return transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *paymentEventRepo) SumAmountByStatusSince(dbc dbctx.Context, status string, since time.Time) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var total int64
	row := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentEvent{}).
		Where("status = ? AND provider_timestamp >= ?", status, since).
		Select("COALESCE(SUM(amount_cents), 0)").
		Row()
	if err := row.Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}
