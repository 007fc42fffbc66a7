package repos

import (
	"context"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"time"
)

type PathCount struct {
	Path  string `json:"path"`
	Count int64  `json:"count"`
}

type ReferrerCount struct {
	Referrer string `json:"referrer"`
	Count    int64  `json:"count"`
}

type SourceCount struct {
	UTMSource string `json:"utm_source"`
	Count     int64  `json:"count"`
}

type DeviceCount struct {
	DeviceType string `json:"device_type"`
	Count      int64  `json:"count"`
}

type ConversionTypeCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

type AnalyticsRepo interface {
	CreatePageViews(ctx context.Context, tx *gorm.DB, views []*types.PageView) error
	CreateEvents(ctx context.Context, tx *gorm.DB, events []*types.Event) error
	CreateConversion(ctx context.Context, tx *gorm.DB, conv *types.Conversion) (*types.Conversion, error)
	CountPageViews(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error)
	CountUniqueVisitors(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error)
	CountConversions(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error)
	TopPaths(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]PathCount, error)
	TopReferrers(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]ReferrerCount, error)
	TopSources(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]SourceCount, error)
	DeviceBreakdown(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) ([]DeviceCount, error)
	ConversionsByType(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) ([]ConversionTypeCount, error)
	DeletePageViewsOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error)
	DeleteEventsOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error)
}

type analyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return &analyticsRepo{
		db:  db,
		log: baseLog.With("repo", "AnalyticsRepo"),
	}
}

func (r *analyticsRepo) CreatePageViews(ctx context.Context, tx *gorm.DB, views []*types.PageView) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(views) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).CreateInBatches(&views, 200).Error
}

func (r *analyticsRepo) CreateEvents(ctx context.Context, tx *gorm.DB, events []*types.Event) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(events) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).CreateInBatches(&events, 200).Error
}

func (r *analyticsRepo) CreateConversion(ctx context.Context, tx *gorm.DB, conv *types.Conversion) (*types.Conversion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if conv == nil {
		return nil, nil
	}
	if err := transaction.WithContext(ctx).Create(conv).Error; err != nil {
		return nil, err
	}
	return conv, nil
}

func (r *analyticsRepo) CountPageViews(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.PageView{}).
		Where("site_id = ? AND created_at >= ? AND created_at < ?", siteID, from, to).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepo) CountUniqueVisitors(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.PageView{}).
		Where("site_id = ? AND created_at >= ? AND created_at < ?", siteID, from, to).
		Distinct("visitor_id").
		Count(&count).Error
	return count, err
}

func (r *analyticsRepo) CountConversions(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.Conversion{}).
		Where("site_id = ? AND created_at >= ? AND created_at < ?", siteID, from, to).
		Count(&count).Error
	return count, err
}

func (r *analyticsRepo) TopPaths(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]PathCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var out []PathCount
	err := transaction.WithContext(ctx).
		Model(&types.PageView{}).
		Select("path, COUNT(*) AS count").
		Where("site_id = ? AND created_at >= ? AND created_at < ?", siteID, from, to).
		Group("path").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *analyticsRepo) TopReferrers(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]ReferrerCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var out []ReferrerCount
	err := transaction.WithContext(ctx).
		Model(&types.PageView{}).
		Select("referrer, COUNT(*) AS count").
		Where("site_id = ? AND created_at >= ? AND created_at < ? AND referrer <> ''", siteID, from, to).
		Group("referrer").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *analyticsRepo) TopSources(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]SourceCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if limit <= 0 {
		limit = 10
	}
	var out []SourceCount
	err := transaction.WithContext(ctx).
		Model(&types.PageView{}).
		Select("utm_source, COUNT(*) AS count").
		Where("site_id = ? AND created_at >= ? AND created_at < ? AND utm_source <> ''", siteID, from, to).
		Group("utm_source").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *analyticsRepo) DeviceBreakdown(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) ([]DeviceCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []DeviceCount
	err := transaction.WithContext(ctx).
		Model(&types.PageView{}).
		Select("device_type, COUNT(*) AS count").
		Where("site_id = ? AND created_at >= ? AND created_at < ? AND device_type <> ''", siteID, from, to).
		Group("device_type").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

func (r *analyticsRepo) ConversionsByType(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) ([]ConversionTypeCount, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []ConversionTypeCount
	err := transaction.WithContext(ctx).
		Model(&types.Conversion{}).
		Select("type, COUNT(*) AS count").
		Where("site_id = ? AND created_at >= ? AND created_at < ?", siteID, from, to).
		Group("type").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

func (r *analyticsRepo) DeletePageViewsOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND created_at < ?", siteID, cutoff).
		Delete(&types.PageView{})
	return res.RowsAffected, res.Error
}

func (r *analyticsRepo) DeleteEventsOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND created_at < ?", siteID, cutoff).
		Delete(&types.Event{})
	return res.RowsAffected, res.Error
}
