package content

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

type ContentVersionRepo interface {
	// CreateNewCurrent appends a new version and makes it current in one
	// transaction: deactivate the old current row, insert the new one with
	// the next version number. Concurrent saves for the same page race on
	// the partial unique index and surface as ErrConflict for the caller
	// to retry.
	CreateNewCurrent(dbc dbctx.Context, v *types.ContentVersion) (*types.ContentVersion, error)
	GetCurrentForClient(dbc dbctx.Context, clientID uuid.UUID) ([]*types.ContentVersion, error)
	GetCurrent(dbc dbctx.Context, clientID uuid.UUID, pageType string) (*types.ContentVersion, error)
	GetHistory(dbc dbctx.Context, clientID uuid.UUID, pageType string) ([]*types.ContentVersion, error)
	SetOutcome(dbc dbctx.Context, id uuid.UUID, outcome string) error
}

type contentVersionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContentVersionRepo(db *gorm.DB, baseLog *logger.Logger) ContentVersionRepo {
	return &contentVersionRepo{db: db, log: baseLog.With("repo", "ContentVersionRepo")}
}

func (r *contentVersionRepo) CreateNewCurrent(dbc dbctx.Context, v *types.ContentVersion) (*types.ContentVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var maxVersion int
		row := txx.Model(&types.ContentVersion{}).
			Where("client_id = ? AND page_type = ?", v.ClientID, v.PageType).
			Select("COALESCE(MAX(version_number), 0)").
			Row()
		if err := row.Scan(&maxVersion); err != nil {
			return err
		}

		if err := txx.Model(&types.ContentVersion{}).
			Where("client_id = ? AND page_type = ? AND is_current", v.ClientID, v.PageType).
			Update("is_current", false).Error; err != nil {
			return err
		}

		v.VersionNumber = maxVersion + 1
		v.IsCurrent = true
		if v.ID == uuid.Nil {
			v.ID = uuid.New()
		}
		if v.CreatedAt.IsZero() {
			v.CreatedAt = time.Now()
		}
		return txx.Create(v).Error
	})
	if err != nil {
		if sqlerr.IsUniqueViolation(err) {
			return nil, pkgerr.ErrConflict
		}
		return nil, err
	}
	return v, nil
}

func (r *contentVersionRepo) GetCurrentForClient(dbc dbctx.Context, clientID uuid.UUID) ([]*types.ContentVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContentVersion
	if err := transaction.WithContext(dbc.Ctx).
		Where("client_id = ? AND is_current", clientID).
		Order("page_type ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentVersionRepo) GetCurrent(dbc dbctx.Context, clientID uuid.UUID, pageType string) (*types.ContentVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var v types.ContentVersion
	err := transaction.WithContext(dbc.Ctx).
		Where("client_id = ? AND page_type = ? AND is_current", clientID, pageType).
		First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *contentVersionRepo) GetHistory(dbc dbctx.Context, clientID uuid.UUID, pageType string) ([]*types.ContentVersion, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContentVersion
	if err := transaction.WithContext(dbc.Ctx).
		Where("client_id = ? AND page_type = ?", clientID, pageType).
		Order("version_number DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contentVersionRepo) SetOutcome(dbc dbctx.Context, id uuid.UUID, outcome string) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(dbc.Ctx).
		Model(&types.ContentVersion{}).
		Where("id = ?", id).
		Update("outcome", outcome)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerr.ErrNotFound
	}
	return nil
}
