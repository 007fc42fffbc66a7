package repos

import (
	"context"
	"errors"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"time"
)

type ABTestRepo interface {
	CreateTest(ctx context.Context, tx *gorm.DB, test *types.ABTest) (*types.ABTest, error)
	GetTestByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ABTest, error)
	GetTestBySlug(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, slug string) (*types.ABTest, error)
	ListTestsBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, status string) ([]*types.ABTest, error)
	ListRunningTests(ctx context.Context, tx *gorm.DB) ([]*types.ABTest, error)
	UpdateTestFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	GetAssignment(ctx context.Context, tx *gorm.DB, testID uuid.UUID, userIdentifier string) (*types.VariantAssignment, error)
	CreateAssignment(ctx context.Context, tx *gorm.DB, a *types.VariantAssignment) (*types.VariantAssignment, error)
	CreateConversion(ctx context.Context, tx *gorm.DB, c *types.VariantConversion) (*types.VariantConversion, error)
	CountAssignmentsByVariant(ctx context.Context, tx *gorm.DB, testID uuid.UUID, variant string) (int64, error)
	CountConversionsByVariant(ctx context.Context, tx *gorm.DB, testID uuid.UUID, variant string) (int64, error)
	UpsertStats(ctx context.Context, tx *gorm.DB, stats *types.ABTestStats) error
	GetStats(ctx context.Context, tx *gorm.DB, testID uuid.UUID) (*types.ABTestStats, error)
}

type abTestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewABTestRepo(db *gorm.DB, baseLog *logger.Logger) ABTestRepo {
	return &abTestRepo{
		db:  db,
		log: baseLog.With("repo", "ABTestRepo"),
	}
}

func (r *abTestRepo) CreateTest(ctx context.Context, tx *gorm.DB, test *types.ABTest) (*types.ABTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if test == nil {
		return nil, errors.New("test is nil")
	}
	if err := transaction.WithContext(ctx).Create(test).Error; err != nil {
		return nil, err
	}
	return test, nil
}

func (r *abTestRepo) GetTestByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.ABTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var test types.ABTest
	err := transaction.WithContext(ctx).Where("id = ?", id).Limit(1).Find(&test).Error
	if err != nil {
		return nil, err
	}
	if test.ID == uuid.Nil {
		return nil, nil
	}
	return &test, nil
}

func (r *abTestRepo) GetTestBySlug(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, slug string) (*types.ABTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if slug == "" {
		return nil, nil
	}
	var test types.ABTest
	err := transaction.WithContext(ctx).
		Where("site_id = ? AND slug = ?", siteID, slug).
		Limit(1).
		Find(&test).Error
	if err != nil {
		return nil, err
	}
	if test.ID == uuid.Nil {
		return nil, nil
	}
	return &test, nil
}

func (r *abTestRepo) ListTestsBySite(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, status string) ([]*types.ABTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	q := transaction.WithContext(ctx).Where("site_id = ?", siteID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []*types.ABTest
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *abTestRepo) ListRunningTests(ctx context.Context, tx *gorm.DB) ([]*types.ABTest, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.ABTest
	if err := transaction.WithContext(ctx).
		Where("status = ?", "running").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *abTestRepo) UpdateTestFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
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
		Model(&types.ABTest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *abTestRepo) GetAssignment(ctx context.Context, tx *gorm.DB, testID uuid.UUID, userIdentifier string) (*types.VariantAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userIdentifier == "" {
		return nil, nil
	}
	var a types.VariantAssignment
	err := transaction.WithContext(ctx).
		Where("ab_test_id = ? AND user_identifier = ?", testID, userIdentifier).
		Limit(1).
		Find(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == uuid.Nil {
		return nil, nil
	}
	return &a, nil
}

// CreateAssignment is race-safe: concurrent first visits for the same
// identifier collapse onto the unique index and the existing row wins.
func (r *abTestRepo) CreateAssignment(ctx context.Context, tx *gorm.DB, a *types.VariantAssignment) (*types.VariantAssignment, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if a == nil {
		return nil, errors.New("assignment is nil")
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "ab_test_id"}, {Name: "user_identifier"}},
			DoNothing: true,
		}).
		Create(a).Error; err != nil {
		return nil, err
	}
	return r.GetAssignment(ctx, transaction, a.ABTestID, a.UserIdentifier)
}

func (r *abTestRepo) CreateConversion(ctx context.Context, tx *gorm.DB, c *types.VariantConversion) (*types.VariantConversion, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if c == nil {
		return nil, errors.New("conversion is nil")
	}
	if err := transaction.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *abTestRepo) CountAssignmentsByVariant(ctx context.Context, tx *gorm.DB, testID uuid.UUID, variant string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.VariantAssignment{}).
		Where("ab_test_id = ? AND variant = ?", testID, variant).
		Count(&count).Error
	return count, err
}

func (r *abTestRepo) CountConversionsByVariant(ctx context.Context, tx *gorm.DB, testID uuid.UUID, variant string) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	err := transaction.WithContext(ctx).
		Model(&types.VariantConversion{}).
		Where("ab_test_id = ? AND variant = ?", testID, variant).
		Distinct("user_identifier").
		Count(&count).Error
	return count, err
}

func (r *abTestRepo) UpsertStats(ctx context.Context, tx *gorm.DB, stats *types.ABTestStats) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if stats == nil {
		return nil
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "ab_test_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"participants_a", "participants_b", "conversions_a", "conversions_b",
				"conversion_rate_a", "conversion_rate_b", "chi_square", "p_value",
				"confidence", "significance_reached", "winning_variant", "computed_at",
				"updated_at",
			}),
		}).
		Create(stats).Error
}

func (r *abTestRepo) GetStats(ctx context.Context, tx *gorm.DB, testID uuid.UUID) (*types.ABTestStats, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var stats types.ABTestStats
	err := transaction.WithContext(ctx).
		Where("ab_test_id = ?", testID).
		Limit(1).
		Find(&stats).Error
	if err != nil {
		return nil, err
	}
	if stats.ID == uuid.Nil {
		return nil, nil
	}
	return &stats, nil
}
