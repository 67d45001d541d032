package content

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

type ContentSnapshotRepo interface {
	// CreateIfAbsent inserts the snapshot unless one already exists for the
	// same payment session ref, in which case the existing row is returned.
	CreateIfAbsent(dbc dbctx.Context, s *types.ContentSnapshot) (*types.ContentSnapshot, error)
	GetByPaymentSessionRef(dbc dbctx.Context, ref string) (*types.ContentSnapshot, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentSnapshot, error)
}

type contentSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) ContentSnapshotRepo {
	return &contentSnapshotRepo{db: db, log: baseLog.With("repo", "ContentSnapshotRepo")}
}

func (r *contentSnapshotRepo) CreateIfAbsent(dbc dbctx.Context, s *types.ContentSnapshot) (*types.ContentSnapshot, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "payment_session_ref"}},
			DoNothing: true,
		}).
		Create(s)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return r.GetByPaymentSessionRef(dbc, s.PaymentSessionRef)
	}
	return s, nil
}

func (r *contentSnapshotRepo) GetByPaymentSessionRef(dbc dbctx.Context, ref string) (*types.ContentSnapshot, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var s types.ContentSnapshot
	err := transaction.WithContext(dbc.Ctx).
		Where("payment_session_ref = ?", ref).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *contentSnapshotRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.ContentSnapshot, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContentSnapshot
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
