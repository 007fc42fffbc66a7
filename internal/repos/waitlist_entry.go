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

type WaitlistFilter struct {
	Status string
	Limit  int
	Offset int
}

type WaitlistEntryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, entry *types.WaitlistEntry) (*types.WaitlistEntry, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WaitlistEntry, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.WaitlistEntry, error)
	GetByReferralCode(ctx context.Context, tx *gorm.DB, code string) (*types.WaitlistEntry, error)
	GetByVerificationToken(ctx context.Context, tx *gorm.DB, token string) (*types.WaitlistEntry, error)
	ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter WaitlistFilter) ([]*types.WaitlistEntry, int64, error)
	CountBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) (int64, error)
	CountAheadOf(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, priorityScore int, createdAt time.Time) (int64, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	IncrementReferralCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error)
	CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error)
}

type waitlistEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewWaitlistEntryRepo(db *gorm.DB, baseLog *logger.Logger) WaitlistEntryRepo {
	return &waitlistEntryRepo{
		db:  db,
		log: baseLog.With("repo", "WaitlistEntryRepo"),
	}
}

func (r *waitlistEntryRepo) Create(ctx context.Context, tx *gorm.DB, entry *types.WaitlistEntry) (*types.WaitlistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if entry == nil {
		return nil, errors.New("entry is nil")
	}
	if err := transaction.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *waitlistEntryRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.WaitlistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var entry types.WaitlistEntry
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == uuid.Nil {
		return nil, nil
	}
	return &entry, nil
}

func (r *waitlistEntryRepo) GetByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (*types.WaitlistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if email == "" {
		return nil, nil
	}
	var entry types.WaitlistEntry
	err := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Limit(1).
		Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == uuid.Nil {
		return nil, nil
	}
	return &entry, nil
}

func (r *waitlistEntryRepo) GetByReferralCode(ctx context.Context, tx *gorm.DB, code string) (*types.WaitlistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if code == "" {
		return nil, nil
	}
	var entry types.WaitlistEntry
	err := transaction.WithContext(ctx).Where("referral_code = ?", code).Limit(1).Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == uuid.Nil {
		return nil, nil
	}
	return &entry, nil
}

func (r *waitlistEntryRepo) GetByVerificationToken(ctx context.Context, tx *gorm.DB, token string) (*types.WaitlistEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if token == "" {
		return nil, nil
	}
	var entry types.WaitlistEntry
	err := transaction.WithContext(ctx).Where("verification_token = ?", token).Limit(1).Find(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == uuid.Nil {
		return nil, nil
	}
	return &entry, nil
}

func (r *waitlistEntryRepo) ListBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, filter WaitlistFilter) ([]*types.WaitlistEntry, int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Model(&types.WaitlistEntry{}).Where("site_id = ?", siteID)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var out []*types.WaitlistEntry
	if err := q.Order("priority_score DESC, created_at ASC").Limit(limit).Offset(filter.Offset).Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *waitlistEntryRepo) CountBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.WaitlistEntry{}).
		Where("site_id = ? AND status IN ?", siteID, []string{"pending", "invited"}).
		Count(&count).Error
	return count, err
}

// CountAheadOf returns how many pending entries outrank the given score, with
// signup time breaking ties. Position is this count plus one.
func (r *waitlistEntryRepo) CountAheadOf(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, priorityScore int, createdAt time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.WaitlistEntry{}).
		Where("site_id = ? AND status = ?", siteID, "pending").
		Where("priority_score > ? OR (priority_score = ? AND created_at < ?)", priorityScore, priorityScore, createdAt).
		Count(&count).Error
	return count, err
}

func (r *waitlistEntryRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.WaitlistEntry{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *waitlistEntryRepo) IncrementReferralCount(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.WaitlistEntry{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"referral_count": gorm.Expr("referral_count + 1"),
			"updated_at":     time.Now(),
		}).Error
}

func (r *waitlistEntryRepo) DeleteByEmail(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, email string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	res := transaction.WithContext(ctx).
		Where("site_id = ? AND email = ?", siteID, email).
		Delete(&types.WaitlistEntry{})
	return res.RowsAffected, res.Error
}

func (r *waitlistEntryRepo) CountBySiteSince(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, since time.Time) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.WaitlistEntry{}).
		Where("site_id = ? AND created_at >= ?", siteID, since).
		Count(&count).Error
	return count, err
}
