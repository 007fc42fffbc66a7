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

type ContactSubmissionFilter struct {
	Status   string
	FormType string
	IsSpam   *bool
	Limit    int
	Offset   int
}

type ContactSubmissionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sub *types.ContactSubmission) (*types.ContactSubmission, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContactSubmission, error)
	ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter ContactSubmissionFilter) ([]*types.ContactSubmission, int64, error)
	ListByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) ([]*types.ContactSubmission, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	CountByIPSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, ip string, since time.Time) (int64, error)
	CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time, spam bool) (int64, error)
	DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error)
	AnonymizeByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string, anonymized string) (int64, error)
	DeleteOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error)
}

type contactSubmissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContactSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) ContactSubmissionRepo {
	return &contactSubmissionRepo{
		db:  db,
		log: baseLog.With("repo", "ContactSubmissionRepo"),
	}
}

func (r *contactSubmissionRepo) Create(ctx context.Context, tx *gorm.DB, sub *types.ContactSubmission) (*types.ContactSubmission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if sub == nil {
		return nil, errors.New("submission is nil")
	}
	if err := transaction.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *contactSubmissionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ContactSubmission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sub types.ContactSubmission
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == uuid.Nil {
		return nil, nil
	}
	return &sub, nil
}

func (r *contactSubmissionRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter ContactSubmissionFilter) ([]*types.ContactSubmission, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.ContactSubmission{}).Where("site_id = ?", siteID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.FormType != "" {
		q = q.Where("form_type = ?", filter.FormType)
	}
	if filter.IsSpam != nil {
		q = q.Where("is_spam = ?", *filter.IsSpam)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.ContactSubmission
	if err := q.Order("created_at DESC").Limit(limit).Offset(filter.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *contactSubmissionRepo) ListByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) ([]*types.ContactSubmission, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ContactSubmission
	if err := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contactSubmissionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ContactSubmission{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *contactSubmissionRepo) CountByIPSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, ip string, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.ContactSubmission{}).
		Where("site_id = ? AND ip_address = ? AND created_at >= ?", siteID, ip, since).
		Count(&count).Error
	return count, err
}

func (r *contactSubmissionRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time, spam bool) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.ContactSubmission{}).
		Where("site_id = ? AND created_at >= ? AND is_spam = ?", siteID, since, spam).
		Count(&count).Error
	return count, err
}

func (r *contactSubmissionRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Delete(&types.ContactSubmission{})
	return res.RowsAffected, res.Error
}

func (r *contactSubmissionRepo) AnonymizeByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string, anonymized string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Model(&types.ContactSubmission{}).
		Where("site_id = ? AND email = ?", siteID, email).
		Updates(map[string]interface{}{
			"email":      anonymized,
			"name":       "Anonymized",
			"phone":      "",
			"ip_address": "",
			"user_agent": "",
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

func (r *contactSubmissionRepo) DeleteOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND created_at < ?", siteID, cutoff).
		Delete(&types.ContactSubmission{})
	return res.RowsAffected, res.Error
}
