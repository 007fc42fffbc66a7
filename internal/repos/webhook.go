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

type WebhookRepo interface {
	CreateConfig(ctx context.Context, tx *gorm.DB, cfg *types.WebhookConfig) (*types.WebhookConfig, error)
	GetConfigByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WebhookConfig, error)
	ListConfigsBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) ([]*types.WebhookConfig, error)
	ListActiveConfigsForEvent(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, eventType string) ([]*types.WebhookConfig, error)
	UpdateConfigFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	DeleteConfig(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	CreateEvent(ctx context.Context, tx *gorm.DB, ev *types.WebhookEvent) (*types.WebhookEvent, error)
	GetEventByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WebhookEvent, error)
	ListEventsByConfig(ctx context.Context, tx *gorm.DB, configID uuid.UUID, status string, limit, offset int) ([]*types.WebhookEvent, int64, error)
	ListDueRetries(ctx context.Context, tx *gorm.DB, limit int) ([]*types.WebhookEvent, error)
	UpdateEventFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
}

type webhookRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWebhookRepo(db *gorm.DB, baseLog *logger.Logger) WebhookRepo {
	return &webhookRepo{
		db:  db,
		log: baseLog.With("repo", "WebhookRepo"),
	}
}

func (r *webhookRepo) CreateConfig(ctx context.Context, tx *gorm.DB, cfg *types.WebhookConfig) (*types.WebhookConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := transaction.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *webhookRepo) GetConfigByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WebhookConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var cfg types.WebhookConfig
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&cfg).Error
	if err != nil {
		return nil, err
	}
	if cfg.ID == uuid.Nil {
		return nil, nil
	}
	return &cfg, nil
}

func (r *webhookRepo) ListConfigsBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) ([]*types.WebhookConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WebhookConfig
	if err := transaction.WithContext(ctx).
		Where("site_id = ?", siteID).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveConfigsForEvent matches subscriptions whose events array contains
// the event type or the wildcard "*".
func (r *webhookRepo) ListActiveConfigsForEvent(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, eventType string) ([]*types.WebhookConfig, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.WebhookConfig
	if err := transaction.WithContext(ctx).
		Where("site_id = ? AND is_active = ?", siteID, true).
		Where(`events @> ? OR events @> '"*"'`, `"`+eventType+`"`).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *webhookRepo) UpdateConfigFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.WebhookConfig{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *webhookRepo) DeleteConfig(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).Delete(&types.WebhookConfig{}, "id = ?", id).Error
}

func (r *webhookRepo) CreateEvent(ctx context.Context, tx *gorm.DB, ev *types.WebhookEvent) (*types.WebhookEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if ev == nil {
		return nil, errors.New("event is nil")
	}
	if err := transaction.WithContext(ctx).Create(ev).Error; err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *webhookRepo) GetEventByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WebhookEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var ev types.WebhookEvent
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&ev).Error
	if err != nil {
		return nil, err
	}
	if ev.ID == uuid.Nil {
		return nil, nil
	}
	return &ev, nil
}

func (r *webhookRepo) ListEventsByConfig(ctx context.Context, tx *gorm.DB, configID uuid.UUID, status string, limit, offset int) ([]*types.WebhookEvent, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.WebhookEvent{}).Where("webhook_config_id = ?", configID)
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
	var out []*types.WebhookEvent
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *webhookRepo) ListDueRetries(ctx context.Context, tx *gorm.DB, limit int) ([]*types.WebhookEvent, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 100
	}
	var out []*types.WebhookEvent
	if err := transaction.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", "failed", time.Now()).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *webhookRepo) UpdateEventFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.WebhookEvent{}).
		Where("id = ?", id).
		Updates(updates).Error
}
