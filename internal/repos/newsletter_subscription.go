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

type NewsletterSubscriptionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, sub *types.NewsletterSubscription) (*types.NewsletterSubscription, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.NewsletterSubscription, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.NewsletterSubscription, error)
	GetByConfirmationToken(ctx context.Context, tx *gorm.DB, token string) (*types.NewsletterSubscription, error)
	GetByUnsubscribeToken(ctx context.Context, tx *gorm.DB, token string) (*types.NewsletterSubscription, error)
	ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, status string, limit, offset int) ([]*types.NewsletterSubscription, int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error)
	CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error)
}

type newsletterSubscriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNewsletterSubscriptionRepo(db *gorm.DB, baseLog *logger.Logger) NewsletterSubscriptionRepo {
	return &newsletterSubscriptionRepo{
		db:  db,
		log: baseLog.With("repo", "NewsletterSubscriptionRepo"),
	}
}

func (r *newsletterSubscriptionRepo) Create(ctx context.Context, tx *gorm.DB, sub *types.NewsletterSubscription) (*types.NewsletterSubscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if sub == nil {
		return nil, errors.New("subscription is nil")
	}
	if err := transaction.WithContext(ctx).Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (r *newsletterSubscriptionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.NewsletterSubscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var sub types.NewsletterSubscription
	err := transaction.WithContext(ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == uuid.Nil {
		return nil, nil
	}
	return &sub, nil
}

func (r *newsletterSubscriptionRepo) GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.NewsletterSubscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if email == "" {
		return nil, nil
	}
	var sub types.NewsletterSubscription
	err := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Limit(1).
		Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == uuid.Nil {
		return nil, nil
	}
	return &sub, nil
}

func (r *newsletterSubscriptionRepo) GetByConfirmationToken(ctx context.Context, tx *gorm.DB, token string) (*types.NewsletterSubscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if token == "" {
		return nil, nil
	}
	var sub types.NewsletterSubscription
	err := transaction.WithContext(ctx).Where("confirmation_token = ?", token).Limit(1).Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == uuid.Nil {
		return nil, nil
	}
	return &sub, nil
}

func (r *newsletterSubscriptionRepo) GetByUnsubscribeToken(ctx context.Context, tx *gorm.DB, token string) (*types.NewsletterSubscription, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if token == "" {
		return nil, nil
	}
	var sub types.NewsletterSubscription
	err := transaction.WithContext(ctx).Where("unsubscribe_token = ?", token).Limit(1).Find(&sub).Error
	if err != nil {
		return nil, err
	}
	if sub.ID == uuid.Nil {
		return nil, nil
	}
	return &sub, nil
}

func (r *newsletterSubscriptionRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, status string, limit, offset int) ([]*types.NewsletterSubscription, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.NewsletterSubscription{}).Where("site_id = ?", siteID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.NewsletterSubscription
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *newsletterSubscriptionRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.NewsletterSubscription{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *newsletterSubscriptionRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Delete(&types.NewsletterSubscription{})
	return res.RowsAffected, res.Error
}

func (r *newsletterSubscriptionRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.NewsletterSubscription{}).
		Where("site_id = ? AND created_at >= ? AND status IN ?", siteID, since, []string{"pending", "active"}).
		Count(&count).Error
	return count, err
}
