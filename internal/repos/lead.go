package repos

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"time"
)

type LeadFilter struct {
	Status   string
	Source   string
	MinScore int
	Limit    int
	Offset   int
}

type LeadRepo interface {
	Create(ctx context.Context, tx *gorm.DB, lead *types.Lead) (*types.Lead, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lead, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.Lead, error)
	ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter LeadFilter) ([]*types.Lead, int64, error)
	ListUnsynced(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, limit int) ([]*types.Lead, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error)
	CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error)
}

type leadRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLeadRepo(db *gorm.DB, baseLog *logger.Logger) LeadRepo {
	return &leadRepo{
		db:  db,
		log: baseLog.With("repo", "LeadRepo"),
	}
}

func (r *leadRepo) Create(ctx context.Context, tx *gorm.DB, lead *types.Lead) (*types.Lead, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if lead == nil {
		return nil, errors.New("lead is nil")
	}
	if err := transaction.WithContext(ctx).Create(lead).Error; err != nil {
		return nil, err
	}
	return lead, nil
}

func (r *leadRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Lead, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var lead types.Lead
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == uuid.Nil {
		return nil, nil
	}
	return &lead, nil
}

func (r *leadRepo) GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.Lead, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if email == "" {
		return nil, nil
	}
	var lead types.Lead
	err := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Limit(1).
		Find(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == uuid.Nil {
		return nil, nil
	}
	return &lead, nil
}

func (r *leadRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter LeadFilter) ([]*types.Lead, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.Lead{}).Where("site_id = ?", siteID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Source != "" {
		q = q.Where("source = ?", filter.Source)
	}
	if filter.MinScore > 0 {
		q = q.Where("score >= ?", filter.MinScore)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.Lead
	if err := q.Order("score DESC, created_at DESC").Limit(limit).Offset(filter.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *leadRepo) ListUnsynced(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, limit int) ([]*types.Lead, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Lead
	if err := transaction.WithContext(ctx).
		Where("site_id = ? AND crm_synced_at IS NULL", siteID).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *leadRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return transaction.WithContext(ctx).
		Model(&types.Lead{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *leadRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Delete(&types.Lead{})
	return res.RowsAffected, res.Error
}

func (r *leadRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Lead{}).
		Where("site_id = ? AND created_at >= ?", siteID, since).
		Count(&count).Error
	return count, err
}
