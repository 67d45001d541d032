package client

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/templategenius/revenue-intel-backend/internal/data/repos/sqlerr"
	types "github.com/templategenius/revenue-intel-backend/internal/domain"
	"github.com/templategenius/revenue-intel-backend/internal/pkg/dbctx"
	pkgerr "github.com/templategenius/revenue-intel-backend/internal/pkg/errors"
	"github.com/templategenius/revenue-intel-backend/internal/platform/logger"
)

type ClientRepo interface {
	Create(dbc dbctx.Context, clients []*types.Client) ([]*types.Client, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Client, error)
	GetByToken(dbc dbctx.Context, token string) (*types.Client, error)
	List(dbc dbctx.Context, limit, offset int) ([]*types.Client, error)
	UpdateOutcome(dbc dbctx.Context, id uuid.UUID, outcome, notes string) error
	UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return &clientRepo{db: db, log: baseLog.With("repo", "ClientRepo")}
}

func (r *clientRepo) Create(dbc dbctx.Context, clients []*types.Client) ([]*types.Client, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(clients) == 0 {
		return []*types.Client{}, nil
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&clients).Error; err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, pkgerr.ErrConflict
		}
		return nil, err
	}
	return clients, nil
}

func (r *clientRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Client, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Client
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

func (r *clientRepo) GetByToken(dbc dbctx.Context, token string) (*types.Client, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.Client
	err := transaction.WithContext(dbc.Ctx).
		Where("token = ?", token).
		First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *clientRepo) List(dbc dbctx.Context, limit, offset int) ([]*types.Client, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Client
	if err := transaction.WithContext(dbc.Ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clientRepo) UpdateOutcome(dbc dbctx.Context, id uuid.UUID, outcome, notes string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Client{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"outcome":       outcome,
			"outcome_notes": notes,
			"updated_at":    time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerr.ErrNotFound
	}
	return nil
}

func (r *clientRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Client{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerr.ErrNotFound
	}
	return nil
}
