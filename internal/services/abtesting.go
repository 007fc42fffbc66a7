package services

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"math"
	"time"
)

type ABTestService interface {
	CreateTest(ctx context.Context, test *types.ABTest) (*types.ABTest, error)
	GetTest(ctx context.Context, id uuid.UUID) (*types.ABTest, error)
	ListTests(ctx context.Context, siteID uuid.UUID, status string) ([]*types.ABTest, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.ABTest, error)
	GetVariant(ctx context.Context, siteID uuid.UUID, slug, userIdentifier string) (*types.ABTest, string, error)
	TrackConversion(ctx context.Context, siteID uuid.UUID, slug, userIdentifier, goal string, value float64) error
	RefreshStats(ctx context.Context, testID uuid.UUID) (*types.ABTestStats, error)
	RefreshAllRunning(ctx context.Context) (int, error)
}

type abTestService struct {
	db         *gorm.DB
	log        *logger.Logger
	abTestRepo repos.ABTestRepo
}

func NewABTestService(db *gorm.DB, log *logger.Logger, abTestRepo repos.ABTestRepo) ABTestService {
	return &abTestService{
		db:         db,
		log:        log.With("service", "ABTestService"),
		abTestRepo: abTestRepo,
	}
}

// bucketVariant deterministically maps an identifier to a variant. The md5
// digest is reduced mod 100 byte-wise, which equals treating the whole
// digest as a big integer mod 100; identifiers landing under the traffic
// split get variant B.
func bucketVariant(testID uuid.UUID, userIdentifier string, trafficSplit int) string {
	sum := md5.Sum([]byte(testID.String() + "_" + userIdentifier))
	r := 0
	for _, b := range sum {
		r = (r*256 + int(b)) % 100
	}
	if r < trafficSplit {
		return "B"
	}
	return "A"
}

func (s *abTestService) CreateTest(ctx context.Context, test *types.ABTest) (*types.ABTest, error) {
	if test == nil || test.SiteID == uuid.Nil || test.Name == "" {
		return nil, fmt.Errorf("test site and name required")
	}
	if test.Slug == "" {
		test.Slug = slugify(test.Name)
	}
	if test.TrafficSplit <= 0 || test.TrafficSplit >= 100 {
		test.TrafficSplit = 50
	}
	test.ID = uuid.New()
	test.Status = "draft"
	existing, err := s.abTestRepo.GetTestBySlug(ctx, nil, test.SiteID, test.Slug)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("test with slug %q already exists", test.Slug)
	}
	return s.abTestRepo.CreateTest(ctx, nil, test)
}

func (s *abTestService) GetTest(ctx context.Context, id uuid.UUID) (*types.ABTest, error) {
	return s.abTestRepo.GetTestByID(ctx, nil, id)
}

func (s *abTestService) ListTests(ctx context.Context, siteID uuid.UUID, status string) ([]*types.ABTest, error) {
	return s.abTestRepo.ListTestsBySite(ctx, nil, siteID, status)
}

var validTestTransitions = map[string][]string{
	"draft":     {"running"},
	"running":   {"paused", "completed"},
	"paused":    {"running", "completed"},
	"completed": {},
}

func (s *abTestService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.ABTest, error) {
	test, err := s.abTestRepo.GetTestByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, fmt.Errorf("test %s not found", id)
	}
	allowed := false
	for _, next := range validTestTransitions[test.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot transition test from %q to %q", test.Status, status)
	}
	updates := map[string]interface{}{"status": status}
	now := time.Now()
	if status == "running" && test.StartedAt == nil {
		updates["started_at"] = now
	}
	if status == "completed" {
		updates["ended_at"] = now
		// Freeze the winner from the latest stats snapshot if significance
		// was reached.
		stats, sErr := s.abTestRepo.GetStats(ctx, nil, test.ID)
		if sErr == nil && stats != nil && stats.SignificanceReached {
			updates["winning_variant"] = stats.WinningVariant
		}
	}
	if uErr := s.abTestRepo.UpdateTestFields(ctx, nil, id, updates); uErr != nil {
		return nil, uErr
	}
	return s.abTestRepo.GetTestByID(ctx, nil, id)
}

// ErrTestNotActive is returned for tests that exist but are not running;
// the public endpoint answers 404 so visitors cannot discover drafts.
var ErrTestNotActive = errors.New("test is not active")

// GetVariant returns the sticky assignment for the identifier, creating one
// on first sight. Only running tests serve variants; anything else is
// reported as not active.
func (s *abTestService) GetVariant(ctx context.Context, siteID uuid.UUID, slug, userIdentifier string) (*types.ABTest, string, error) {
	test, err := s.abTestRepo.GetTestBySlug(ctx, nil, siteID, slug)
	if err != nil {
		return nil, "", err
	}
	if test == nil {
		return nil, "", fmt.Errorf("test %q not found", slug)
	}
	if test.Status != "running" {
		return nil, "", ErrTestNotActive
	}
	if userIdentifier == "" {
		return test, "A", nil
	}

	existing, err := s.abTestRepo.GetAssignment(ctx, nil, test.ID, userIdentifier)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return test, existing.Variant, nil
	}

	variant := bucketVariant(test.ID, userIdentifier, test.TrafficSplit)
	assignment, aErr := s.abTestRepo.CreateAssignment(ctx, nil, &types.VariantAssignment{
		ID:             uuid.New(),
		ABTestID:       test.ID,
		UserIdentifier: userIdentifier,
		Variant:        variant,
	})
	if aErr != nil {
		return nil, "", aErr
	}
	if assignment != nil {
		variant = assignment.Variant
	}
	return test, variant, nil
}

func (s *abTestService) TrackConversion(ctx context.Context, siteID uuid.UUID, slug, userIdentifier, goal string, value float64) error {
	test, err := s.abTestRepo.GetTestBySlug(ctx, nil, siteID, slug)
	if err != nil {
		return err
	}
	if test == nil {
		return fmt.Errorf("test %q not found", slug)
	}
	if test.Status != "running" {
		return nil
	}
	assignment, err := s.abTestRepo.GetAssignment(ctx, nil, test.ID, userIdentifier)
	if err != nil {
		return err
	}
	if assignment == nil {
		// Conversions only count for identifiers that actually entered the
		// experiment.
		return nil
	}
	_, cErr := s.abTestRepo.CreateConversion(ctx, nil, &types.VariantConversion{
		ID:             uuid.New(),
		ABTestID:       test.ID,
		UserIdentifier: userIdentifier,
		Variant:        assignment.Variant,
		Goal:           goal,
		Value:          value,
	})
	return cErr
}

// RefreshStats recomputes the 2x2 chi-square snapshot for a test.
// Significance is declared at p < 0.05; confidence is (1-p)*100.
func (s *abTestService) RefreshStats(ctx context.Context, testID uuid.UUID) (*types.ABTestStats, error) {
	participantsA, err := s.abTestRepo.CountAssignmentsByVariant(ctx, nil, testID, "A")
	if err != nil {
		return nil, err
	}
	participantsB, err := s.abTestRepo.CountAssignmentsByVariant(ctx, nil, testID, "B")
	if err != nil {
		return nil, err
	}
	conversionsA, err := s.abTestRepo.CountConversionsByVariant(ctx, nil, testID, "A")
	if err != nil {
		return nil, err
	}
	conversionsB, err := s.abTestRepo.CountConversionsByVariant(ctx, nil, testID, "B")
	if err != nil {
		return nil, err
	}

	chi, p := chiSquare2x2(participantsA, conversionsA, participantsB, conversionsB)

	stats := &types.ABTestStats{
		ID:            uuid.New(),
		ABTestID:      testID,
		ParticipantsA: int(participantsA),
		ParticipantsB: int(participantsB),
		ConversionsA:  int(conversionsA),
		ConversionsB:  int(conversionsB),
		ChiSquare:     chi,
		PValue:        p,
		Confidence:    (1 - p) * 100,
		ComputedAt:    time.Now(),
	}
	if participantsA > 0 {
		stats.ConversionRateA = float64(conversionsA) / float64(participantsA)
	}
	if participantsB > 0 {
		stats.ConversionRateB = float64(conversionsB) / float64(participantsB)
	}
	if p < 0.05 {
		stats.SignificanceReached = true
		stats.WinningVariant = winningVariant(stats.ConversionRateA, stats.ConversionRateB)
	}

	if err := s.abTestRepo.UpsertStats(ctx, nil, stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// winningVariant declares the better-converting side, or "N" when the rates
// are exactly tied.
func winningVariant(rateA, rateB float64) string {
	switch {
	case rateB > rateA:
		return "B"
	case rateA > rateB:
		return "A"
	default:
		return "N"
	}
}

func (s *abTestService) RefreshAllRunning(ctx context.Context) (int, error) {
	tests, err := s.abTestRepo.ListRunningTests(ctx, nil)
	if err != nil {
		return 0, err
	}
	refreshed := 0
	for _, test := range tests {
		if _, rErr := s.RefreshStats(ctx, test.ID); rErr != nil {
			s.log.Warn("Failed to refresh test stats", "ab_test_id", test.ID.String(), "error", rErr)
			continue
		}
		refreshed++
	}
	return refreshed, nil
}

// chiSquare2x2 computes the chi-square statistic for a
// converted/not-converted split across two variants, with Yates continuity
// correction, and its p-value at one degree of freedom via the
// complementary error function.
func chiSquare2x2(participantsA, conversionsA, participantsB, conversionsB int64) (float64, float64) {
	a := float64(conversionsA)
	b := float64(participantsA - conversionsA)
	c := float64(conversionsB)
	d := float64(participantsB - conversionsB)

	if a < 0 || b < 0 || c < 0 || d < 0 {
		return 0, 1
	}
	total := a + b + c + d
	if total == 0 {
		return 0, 1
	}
	rowA := a + b
	rowB := c + d
	colConv := a + c
	colNoConv := b + d
	if rowA == 0 || rowB == 0 || colConv == 0 || colNoConv == 0 {
		return 0, 1
	}

	expA := rowA * colConv / total
	expB := rowA * colNoConv / total
	expC := rowB * colConv / total
	expD := rowB * colNoConv / total

	chi := yatesTerm(a, expA) + yatesTerm(b, expB) + yatesTerm(c, expC) + yatesTerm(d, expD)

	p := math.Erfc(math.Sqrt(chi / 2))
	return chi, p
}

// yatesTerm is one cell's contribution with the continuity correction:
// (|observed-expected| - 0.5)^2 / expected, floored at zero so small
// deviations cannot contribute negatively.
func yatesTerm(observed, expected float64) float64 {
	dev := math.Abs(observed-expected) - 0.5
	if dev < 0 {
		dev = 0
	}
	return dev * dev / expected
}
