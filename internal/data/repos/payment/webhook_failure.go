package payment

import (
	"gorm.io/gorm"

	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

type WebhookFailureRepo interface {
	Create(dbc dbctx.Context, f *types.WebhookFailure) error
	ListRecent(dbc dbctx.Context, limit int) ([]*types.WebhookFailure, error)
}

type webhookFailureRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWebhookFailureRepo(db *gorm.DB, baseLog *logger.Logger) WebhookFailureRepo {
	return &webhookFailureRepo{db: db, log: baseLog.With("repo", "WebhookFailureRepo")}
}

func (r *webhookFailureRepo) Create(dbc dbctx.Context, f *types.WebhookFailure) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Create(f).Error
}

func (r *webhookFailureRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.WebhookFailure, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 50
	}
	var out []*types.WebhookFailure
	if err := transaction.WithContext(dbc.Ctx).
		Order("received_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
