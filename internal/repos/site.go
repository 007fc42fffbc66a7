package repos

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
)

type SiteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, site *types.Site) (*types.Site, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Site, error)
	GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Site, error)
	GetByDomain(ctx context.Context, tx *gorm.DB, domain string) (*types.Site, error)
	GetDefault(ctx context.Context, tx *gorm.DB) (*types.Site, error)
	ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Site, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
}

type siteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSiteRepo(db *gorm.DB, baseLog *logger.Logger) SiteRepo {
	return &siteRepo{
		db:  db,
		log: baseLog.With("repo", "SiteRepo"),
	}
}

func (r *siteRepo) Create(ctx context.Context, tx *gorm.DB, site *types.Site) (*types.Site, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if site == nil {
		return nil, errors.New("site is nil")
	}
	if err := transaction.WithContext(ctx).Create(site).Error; err != nil {
		return nil, err
	}
	return site, nil
}

func (r *siteRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Site, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var site types.Site
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&site).Error
	if err != nil {
		return nil, err
	}
	if site.ID == uuid.Nil {
		return nil, nil
	}
	return &site, nil
}

func (r *siteRepo) GetBySlug(ctx context.Context, tx *gorm.DB, slug string) (*types.Site, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if slug == "" {
		return nil, nil
	}
	var site types.Site
	err := transaction.WithContext(ctx).Where("slug = ?", slug).Limit(1).Find(&site).Error
	if err != nil {
		return nil, err
	}
	if site.ID == uuid.Nil {
		return nil, nil
	}
	return &site, nil
}

// GetByDomain matches the primary domain column or any entry in the
// additional_domains JSON array.
func (r *siteRepo) GetByDomain(ctx context.Context, tx *gorm.DB, domain string) (*types.Site, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if domain == "" {
		return nil, nil
	}
	var site types.Site
	err := transaction.WithContext(ctx).
		Where("domain = ? OR additional_domains @> ?", domain, `"`+domain+`"`).
		Where("is_active = ?", true).
		Limit(1).
		Find(&site).Error
	if err != nil {
		return nil, err
	}
	if site.ID == uuid.Nil {
		return nil, nil
	}
	return &site, nil
}

func (r *siteRepo) GetDefault(ctx context.Context, tx *gorm.DB) (*types.Site, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var site types.Site
	err := transaction.WithContext(ctx).
		Where("is_default = ? AND is_active = ?", true, true).
		Limit(1).
		Find(&site).Error
	if err != nil {
		return nil, err
	}
	if site.ID == uuid.Nil {
		return nil, nil
	}
	return &site, nil
}

func (r *siteRepo) ListActive(ctx context.Context, tx *gorm.DB) ([]*types.Site, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Site
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *siteRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Site{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *siteRepo) Delete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Delete(&types.Site{}, "id = ?", id).Error
}
