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

// PatternStat is the derived per-content-hash aggregate. Computed on read,
// never persisted as source of truth.
type PatternStat struct {
	ContentHash    string  `json:"content_hash"`
	SampleSize     int     `json:"sample_size"`
	PaidCount      int     `json:"paid_count"`
	ConversionRate float64 `json:"conversion_rate"`
	AvgConfidence  float64 `json:"avg_confidence"`
}

type CorrelationRepo interface {
	// InsertIfNotExists is the idempotency primitive for correlation
	// creation: the unique index on payment_event_id decides, and an
	// existing row (possibly overridden) is returned untouched.
	InsertIfNotExists(dbc dbctx.Context, c *types.PaymentOutcomeCorrelation) (*types.PaymentOutcomeCorrelation, bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PaymentOutcomeCorrelation, error)
	GetByPaymentEventID(dbc dbctx.Context, paymentEventID uuid.UUID) (*types.PaymentOutcomeCorrelation, error)
	ListByClient(dbc dbctx.Context, clientID uuid.UUID) ([]*types.PaymentOutcomeCorrelation, error)

	// ApplyOverride flips the effective outcome and appends the audit row
	// in one transaction. The first override stashes the computed values.
	ApplyOverride(dbc dbctx.Context, id uuid.UUID, newOutcome, adminID, reason string) (*types.PaymentOutcomeCorrelation, error)
	ListOverrides(dbc dbctx.Context, correlationID uuid.UUID) ([]*types.CorrelationOverride, error)

	CountByContentHash(dbc dbctx.Context, contentHash string) (total int, paid int, err error)
	CountByOutcome(dbc dbctx.Context, outcome string) (int64, error)
	CountAll(dbc dbctx.Context) (int64, error)
	PatternStats(dbc dbctx.Context, minSamples int) ([]*PatternStat, error)
}

type correlationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCorrelationRepo(db *gorm.DB, baseLog *logger.Logger) CorrelationRepo {
	return &correlationRepo{db: db, log: baseLog.With("repo", "CorrelationRepo")}
}

func (r *correlationRepo) InsertIfNotExists(dbc dbctx.Context, c *types.PaymentOutcomeCorrelation) (*types.PaymentOutcomeCorrelation, bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_event_id"}},
			DoNothing: true,
		}).
		Create(c)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 0 {
		existing, err := r.GetByPaymentEventID(dbc, c.PaymentEventID)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	return c, true, nil
}

func (r *correlationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.PaymentOutcomeCorrelation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.PaymentOutcomeCorrelation
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ?", id).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *correlationRepo) GetByPaymentEventID(dbc dbctx.Context, paymentEventID uuid.UUID) (*types.PaymentOutcomeCorrelation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.PaymentOutcomeCorrelation
	err := transaction.WithContext(dbc.Ctx).
		Where("payment_event_id = ?", paymentEventID).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *correlationRepo) ListByClient(dbc dbctx.Context, clientID uuid.UUID) ([]*types.PaymentOutcomeCorrelation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PaymentOutcomeCorrelation
	if err := transaction.WithContext(dbc.Ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *correlationRepo) ApplyOverride(dbc dbctx.Context, id uuid.UUID, newOutcome, adminID, reason string) (*types.PaymentOutcomeCorrelation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var updated *types.PaymentOutcomeCorrelation
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var c types.PaymentOutcomeCorrelation
		if err := txx.Where("id = ?", id).First(&c).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerr.ErrNotFound
			}
			return err
		}

		now := time.Now()
		updates := map[string]interface{}{
			"outcome_type": newOutcome,
			"overridden":   true,
			"updated_at":   now,
		}
		if !c.Overridden {
			// First override: preserve the computed values.
			conf := c.Confidence
			updates["original_outcome_type"] = c.OutcomeType
			updates["original_confidence"] = conf
		}
		if err := txx.Model(&types.PaymentOutcomeCorrelation{}).
			Where("id = ?", c.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		audit := &types.CorrelationOverride{
			ID:              uuid.New(),
			CorrelationID:   c.ID,
			AdminID:         adminID,
			Reason:          reason,
			PreviousOutcome: c.OutcomeType,
			NewOutcome:      newOutcome,
			CreatedAt:       now,
		}
		if err := txx.Create(audit).Error; err != nil {
			return err
		}

		var reread types.PaymentOutcomeCorrelation
		if err := txx.Where("id = ?", c.ID).First(&reread).Error; err != nil {
			return err
		}
		updated = &reread
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *correlationRepo) ListOverrides(dbc dbctx.Context, correlationID uuid.UUID) ([]*types.CorrelationOverride, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.CorrelationOverride
	if err := transaction.WithContext(dbc.Ctx).
		Where("correlation_id = ?", correlationID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *correlationRepo) CountByContentHash(dbc dbctx.Context, contentHash string) (int, int, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if contentHash == "" {
		return 0, 0, nil
	}
	var total, paid int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentOutcomeCorrelation{}).
		Where("content_hash = ?", contentHash).
		Count(&total).Error; err != nil {
		return 0, 0, err
	}
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentOutcomeCorrelation{}).
		Where("content_hash = ? AND outcome_type = ?", contentHash, types.CorrelationPaid).
		Count(&paid).Error; err != nil {
		return 0, 0, err
	}
	return int(total), int(paid), nil
}

func (r *correlationRepo) CountByOutcome(dbc dbctx.Context, outcome string) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentOutcomeCorrelation{}).
		Where("outcome_type = ?", outcome).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *correlationRepo) CountAll(dbc dbctx.Context) (int64, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var n int64
	if err := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentOutcomeCorrelation{}).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *correlationRepo) PatternStats(dbc dbctx.Context, minSamples int) ([]*PatternStat, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if minSamples < 1 {
		minSamples = 1
	}
	var out []*PatternStat
	err := transaction.WithContext(dbc.Ctx).
		Model(&types.PaymentOutcomeCorrelation{}).
		Select(`
			content_hash,
			COUNT(*) AS sample_size,
			SUM(CASE WHEN outcome_type = ? THEN 1 ELSE 0 END) AS paid_count,
			AVG(confidence) AS avg_confidence
		`, types.CorrelationPaid).
		Where("content_hash <> ''").
		Group("content_hash").
		Having("COUNT(*) >= ?", minSamples).
		Order("sample_size DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	for _, p := range out {
		if p.SampleSize > 0 {
			p.ConversionRate = float64(p.PaidCount) / float64(p.SampleSize)
		}
	}
	return out, nil
}
