package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
)

func TestTrend(t *testing.T) {
	tests := []struct {
		name    string
		cur     int64
		prev    int64
		wantPct float64
	}{
		{"growth", 150, 100, 50},
		{"decline", 50, 100, -50},
		{"flat", 100, 100, 0},
		{"from zero", 10, 0, 100},
		{"both zero", 0, 0, 0},
		{"to zero", 0, 100, -100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := trend(tt.cur, tt.prev)
			if got.Current != tt.cur || got.Previous != tt.prev {
				t.Fatalf("trend carried wrong counts: %+v", got)
			}
			if got.ChangePct != tt.wantPct {
				t.Fatalf("ChangePct = %v, want %v", got.ChangePct, tt.wantPct)
			}
		})
	}
}

type stubAnalyticsRepo struct {
	pageViews   int64
	visitors    int64
	conversions int64
	devices     []repos.DeviceCount
	byType      []repos.ConversionTypeCount
}

func (r *stubAnalyticsRepo) CreatePageViews(ctx context.Context, tx *gorm.DB, views []*types.PageView) error {
	return nil
}

func (r *stubAnalyticsRepo) CreateEvents(ctx context.Context, tx *gorm.DB, events []*types.Event) error {
	return nil
}

func (r *stubAnalyticsRepo) CreateConversion(ctx context.Context, tx *gorm.DB, conv *types.Conversion) (*types.Conversion, error) {
	return conv, nil
}

func (r *stubAnalyticsRepo) CountPageViews(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error) {
	return r.pageViews, nil
}

func (r *stubAnalyticsRepo) CountUniqueVisitors(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error) {
	return r.visitors, nil
}

func (r *stubAnalyticsRepo) CountConversions(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) (int64, error) {
	return r.conversions, nil
}

func (r *stubAnalyticsRepo) TopPaths(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]repos.PathCount, error) {
	return nil, nil
}

func (r *stubAnalyticsRepo) TopReferrers(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]repos.ReferrerCount, error) {
	return nil, nil
}

func (r *stubAnalyticsRepo) TopSources(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time, limit int) ([]repos.SourceCount, error) {
	return nil, nil
}

func (r *stubAnalyticsRepo) DeviceBreakdown(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) ([]repos.DeviceCount, error) {
	return r.devices, nil
}

func (r *stubAnalyticsRepo) ConversionsByType(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, from, to time.Time) ([]repos.ConversionTypeCount, error) {
	return r.byType, nil
}

func (r *stubAnalyticsRepo) DeletePageViewsOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error) {
	return 0, nil
}

func (r *stubAnalyticsRepo) DeleteEventsOlderThan(ctx context.Context, tx *gorm.DB, siteID uuid.UUID, cutoff time.Time) (int64, error) {
	return 0, nil
}

var _ repos.AnalyticsRepo = (*stubAnalyticsRepo)(nil)

func TestDashboardOverviewBreakdowns(t *testing.T) {
	svc := &dashboardService{
		log: testLogger(),
		analyticsRepo: &stubAnalyticsRepo{
			pageViews:   1200,
			visitors:    400,
			conversions: 40,
			devices: []repos.DeviceCount{
				{DeviceType: "desktop", Count: 900},
				{DeviceType: "mobile", Count: 300},
			},
			byType: []repos.ConversionTypeCount{
				{Type: "signup", Count: 25},
				{Type: "purchase", Count: 15},
			},
		},
		contactRepo:    &stubContactRepo{},
		leadRepo:       &stubLeadRepo{},
		waitlistRepo:   &stubWaitlistRepo{},
		newsletterRepo: &stubNewsletterRepo{},
	}

	overview, err := svc.Overview(context.Background(), uuid.New(), 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(overview.DeviceBreakdown) != 2 || overview.DeviceBreakdown[0].DeviceType != "desktop" {
		t.Fatalf("device breakdown = %+v", overview.DeviceBreakdown)
	}
	if len(overview.ConversionsByType) != 2 || overview.ConversionsByType[1].Type != "purchase" {
		t.Fatalf("conversions by type = %+v", overview.ConversionsByType)
	}
	if overview.ConversionRate != 10 {
		t.Fatalf("conversion rate = %v, want 10", overview.ConversionRate)
	}
}
