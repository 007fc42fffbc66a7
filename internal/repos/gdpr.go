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

type GDPRRepo interface {
	CreatePolicy(ctx context.Context, tx *gorm.DB, p *types.PrivacyPolicy) (*types.PrivacyPolicy, error)
	GetActivePolicy(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) (*types.PrivacyPolicy, error)
	ListPolicies(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) ([]*types.PrivacyPolicy, error)
	ActivatePolicy(ctx context.Context, tx *gorm.DB, siteID, policyID uuid.UUID) error
	CreateConsent(ctx context.Context, tx *gorm.DB, c *types.ConsentRecord) (*types.ConsentRecord, error)
	ListConsentsByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) ([]*types.ConsentRecord, error)
	LatestConsent(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email, consentType string) (*types.ConsentRecord, error)
	DeleteConsentsByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error)
	ListActiveRetentionPolicies(ctx context.Context, tx *gorm.DB) ([]*types.DataRetentionPolicy, error)
	UpsertRetentionPolicy(ctx context.Context, tx *gorm.DB, p *types.DataRetentionPolicy) (*types.DataRetentionPolicy, error)
	TouchRetentionPolicy(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CreateAuditLog(ctx context.Context, tx *gorm.DB, a *types.DeletionAuditLog) (*types.DeletionAuditLog, error)
	UpdateAuditLogFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	ListAuditLogs(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, limit, offset int) ([]*types.DeletionAuditLog, int64, error)
}

type gdprRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewGDPRRepo(db *gorm.DB, baseLog *logger.Logger) GDPRRepo {
	return &gdprRepo{
		db:  db,
		log: baseLog.With("repo", "GDPRRepo"),
	}
}

func (r *gdprRepo) CreatePolicy(ctx context.Context, tx *gorm.DB, p *types.PrivacyPolicy) (*types.PrivacyPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if p == nil {
		return nil, errors.New("policy is nil")
	}
	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *gdprRepo) GetActivePolicy(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) (*types.PrivacyPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var p types.PrivacyPolicy
	err := transaction.WithContext(ctx).
		Where("site_id = ? AND is_active = ?", siteID, true).
		Order("effective_date DESC").
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == uuid.Nil {
		return nil, nil
	}
	return &p, nil
}

func (r *gdprRepo) ListPolicies(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) ([]*types.PrivacyPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.PrivacyPolicy
	if err := transaction.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("effective_date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ActivatePolicy deactivates every other version for the site in the same
// transaction so exactly one policy is active at a time.
func (r *gdprRepo) ActivatePolicy(ctx context.Context, tx *gorm.DB, siteID, policyID uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		if err := txx.Model(&types.PrivacyPolicy{}).
			Where("site_id = ? AND id <> ?", siteID, policyID).
			Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()}).Error; err != nil {
			return err
		}
		return txx.Model(&types.PrivacyPolicy{}).
			Where("site_id = ? AND id = ?", siteID, policyID).
			Updates(map[string]interface{}{"is_active": true, "updated_at": time.Now()}).Error
	})
}

func (r *gdprRepo) CreateConsent(ctx context.Context, tx *gorm.DB, c *types.ConsentRecord) (*types.ConsentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if c == nil {
		return nil, errors.New("consent is nil")
	}
	if err := transaction.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *gdprRepo) ListConsentsByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) ([]*types.ConsentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ConsentRecord
	if err := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gdprRepo) LatestConsent(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email, consentType string) (*types.ConsentRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var c types.ConsentRecord
	err := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ? AND consent_type = ?", siteID, email, consentType).
		Order("created_at DESC").
		Limit(1).
		Find(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == uuid.Nil {
		return nil, nil
	}
	return &c, nil
}

func (r *gdprRepo) DeleteConsentsByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Delete(&types.ConsentRecord{})
	return res.RowsAffected, res.Error
}

func (r *gdprRepo) ListActiveRetentionPolicies(ctx context.Context, tx *gorm.DB) ([]*types.DataRetentionPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.DataRetentionPolicy
	if err := transaction.WithContext(ctx).
		Where("is_active = ?", true).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *gdprRepo) UpsertRetentionPolicy(ctx context.Context, tx *gorm.DB, p *types.DataRetentionPolicy) (*types.DataRetentionPolicy, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if p == nil {
		return nil, errors.New("retention policy is nil")
	}
	var existing types.DataRetentionPolicy
	err := transaction.WithContext(ctx).
		Where("site_id = ? AND data_type = ?", p.SiteID, p.DataType).
		Limit(1).
		Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing.ID != uuid.Nil {
		if err := transaction.WithContext(ctx).
			Model(&types.DataRetentionPolicy{}).
			Where("id = ?", existing.ID).
			Updates(map[string]interface{}{
				"retention_days": p.RetentionDays,
				"is_active":      p.IsActive,
				"updated_at":     time.Now(),
			}).Error; err != nil {
			return nil, err
		}
		p.ID = existing.ID
		return p, nil
	}
	if err := transaction.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

func (r *gdprRepo) TouchRetentionPolicy(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	now := time.Now()
	return transaction.WithContext(ctx).
		Model(&types.DataRetentionPolicy{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_run_at": now, "updated_at": now}).Error
}

func (r *gdprRepo) CreateAuditLog(ctx context.Context, tx *gorm.DB, a *types.DeletionAuditLog) (*types.DeletionAuditLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if a == nil {
		return nil, errors.New("audit log is nil")
	}
	if err := transaction.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

func (r *gdprRepo) UpdateAuditLogFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.DeletionAuditLog{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *gdprRepo) ListAuditLogs(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, limit, offset int) ([]*types.DeletionAuditLog, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.DeletionAuditLog{}).Where("site_id = ?", siteID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.DeletionAuditLog
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
