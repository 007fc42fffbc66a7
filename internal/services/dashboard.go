package services

import (
	"context"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"golang.org/x/sync/errgroup"
	"time"
)

type MetricTrend struct {
	Current   int64   `json:"current"`
	Previous  int64   `json:"previous"`
	ChangePct float64 `json:"change_pct"`
}

type DashboardOverview struct {
	PeriodDays         int                         `json:"period_days"`
	PageViews          MetricTrend                 `json:"page_views"`
	UniqueVisitors     MetricTrend                 `json:"unique_visitors"`
	Conversions        MetricTrend                 `json:"conversions"`
	ContactSubmissions MetricTrend                 `json:"contact_submissions"`
	SpamSubmissions    MetricTrend                 `json:"spam_submissions"`
	Leads              MetricTrend                 `json:"leads"`
	WaitlistSignups    MetricTrend                 `json:"waitlist_signups"`
	NewsletterSignups  MetricTrend                 `json:"newsletter_signups"`
	ConversionRate     float64                     `json:"conversion_rate"`
	ActiveSessions     int64                       `json:"active_sessions"`
	TopPaths           []repos.PathCount           `json:"top_paths"`
	TopReferrers       []repos.ReferrerCount       `json:"top_referrers"`
	TopSources         []repos.SourceCount         `json:"top_sources"`
	DeviceBreakdown    []repos.DeviceCount         `json:"device_breakdown"`
	ConversionsByType  []repos.ConversionTypeCount `json:"conversions_by_type"`
}

type DashboardService interface {
	Overview(ctx context.Context, siteID uuid.UUID, periodDays int) (*DashboardOverview, error)
}

type dashboardService struct {
	log            *logger.Logger
	analyticsRepo  repos.AnalyticsRepo
	contactRepo    repos.ContactSubmissionRepo
	leadRepo       repos.LeadRepo
	waitlistRepo   repos.WaitlistEntryRepo
	newsletterRepo repos.NewsletterSubscriptionRepo
	sessionSvc     SessionService
}

func NewDashboardService(
	log *logger.Logger,
	analyticsRepo repos.AnalyticsRepo,
	contactRepo repos.ContactSubmissionRepo,
	leadRepo repos.LeadRepo,
	waitlistRepo repos.WaitlistEntryRepo,
	newsletterRepo repos.NewsletterSubscriptionRepo,
	sessionSvc SessionService,
) DashboardService {
	return &dashboardService{
		log:            log.With("service", "DashboardService"),
		analyticsRepo:  analyticsRepo,
		contactRepo:    contactRepo,
		leadRepo:       leadRepo,
		waitlistRepo:   waitlistRepo,
		newsletterRepo: newsletterRepo,
		sessionSvc:     sessionSvc,
	}
}

// Overview aggregates the admin dashboard in one shot. Each metric compares
// the trailing period against the one before it, so a 30-day overview shows
// current month vs the previous month.
func (s *dashboardService) Overview(ctx context.Context, siteID uuid.UUID, periodDays int) (*DashboardOverview, error) {
	if periodDays <= 0 {
		periodDays = 30
	}
	now := time.Now().UTC()
	periodStart := now.AddDate(0, 0, -periodDays)
	prevStart := now.AddDate(0, 0, -2*periodDays)

	overview := &DashboardOverview{PeriodDays: periodDays}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cur, err := s.analyticsRepo.CountPageViews(gctx, nil, siteID, periodStart, now)
		if err != nil {
			return err
		}
		prev, err := s.analyticsRepo.CountPageViews(gctx, nil, siteID, prevStart, periodStart)
		if err != nil {
			return err
		}
		overview.PageViews = trend(cur, prev)
		return nil
	})
	g.Go(func() error {
		cur, err := s.analyticsRepo.CountUniqueVisitors(gctx, nil, siteID, periodStart, now)
		if err != nil {
			return err
		}
		prev, err := s.analyticsRepo.CountUniqueVisitors(gctx, nil, siteID, prevStart, periodStart)
		if err != nil {
			return err
		}
		overview.UniqueVisitors = trend(cur, prev)
		return nil
	})
	g.Go(func() error {
		cur, err := s.analyticsRepo.CountConversions(gctx, nil, siteID, periodStart, now)
		if err != nil {
			return err
		}
		prev, err := s.analyticsRepo.CountConversions(gctx, nil, siteID, prevStart, periodStart)
		if err != nil {
			return err
		}
		overview.Conversions = trend(cur, prev)
		return nil
	})
	g.Go(func() error {
		var err error
		overview.ContactSubmissions, err = s.sinceTrend(gctx, periodStart, prevStart, func(since time.Time) (int64, error) {
			return s.contactRepo.CountBySiteSince(gctx, nil, siteID, since, false)
		})
		return err
	})
	g.Go(func() error {
		var err error
		overview.SpamSubmissions, err = s.sinceTrend(gctx, periodStart, prevStart, func(since time.Time) (int64, error) {
			return s.contactRepo.CountBySiteSince(gctx, nil, siteID, since, true)
		})
		return err
	})
	g.Go(func() error {
		var err error
		overview.Leads, err = s.sinceTrend(gctx, periodStart, prevStart, func(since time.Time) (int64, error) {
			return s.leadRepo.CountBySiteSince(gctx, nil, siteID, since)
		})
		return err
	})
	g.Go(func() error {
		var err error
		overview.WaitlistSignups, err = s.sinceTrend(gctx, periodStart, prevStart, func(since time.Time) (int64, error) {
			return s.waitlistRepo.CountBySiteSince(gctx, nil, siteID, since)
		})
		return err
	})
	g.Go(func() error {
		var err error
		overview.NewsletterSignups, err = s.sinceTrend(gctx, periodStart, prevStart, func(since time.Time) (int64, error) {
			return s.newsletterRepo.CountBySiteSince(gctx, nil, siteID, since)
		})
		return err
	})
	g.Go(func() error {
		paths, err := s.analyticsRepo.TopPaths(gctx, nil, siteID, periodStart, now, 10)
		if err != nil {
			return err
		}
		overview.TopPaths = paths
		return nil
	})
	g.Go(func() error {
		referrers, err := s.analyticsRepo.TopReferrers(gctx, nil, siteID, periodStart, now, 10)
		if err != nil {
			return err
		}
		overview.TopReferrers = referrers
		return nil
	})
	g.Go(func() error {
		sources, err := s.analyticsRepo.TopSources(gctx, nil, siteID, periodStart, now, 10)
		if err != nil {
			return err
		}
		overview.TopSources = sources
		return nil
	})
	g.Go(func() error {
		devices, err := s.analyticsRepo.DeviceBreakdown(gctx, nil, siteID, periodStart, now)
		if err != nil {
			return err
		}
		overview.DeviceBreakdown = devices
		return nil
	})
	g.Go(func() error {
		byType, err := s.analyticsRepo.ConversionsByType(gctx, nil, siteID, periodStart, now)
		if err != nil {
			return err
		}
		overview.ConversionsByType = byType
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if overview.UniqueVisitors.Current > 0 {
		overview.ConversionRate = float64(overview.Conversions.Current) / float64(overview.UniqueVisitors.Current) * 100
	}
	if s.sessionSvc != nil {
		if active, err := s.sessionSvc.ActiveSessions(ctx, siteID); err == nil {
			overview.ActiveSessions = active
		} else {
			s.log.Warn("Failed to count active sessions", "error", err)
		}
	}
	return overview, nil
}

// sinceTrend derives a windowed comparison from count-since queries: the
// previous window is count(since 2N days) minus count(since N days).
func (s *dashboardService) sinceTrend(ctx context.Context, periodStart, prevStart time.Time, count func(since time.Time) (int64, error)) (MetricTrend, error) {
	cur, err := count(periodStart)
	if err != nil {
		return MetricTrend{}, err
	}
	both, err := count(prevStart)
	if err != nil {
		return MetricTrend{}, err
	}
	prev := both - cur
	if prev < 0 {
		prev = 0
	}
	return trend(cur, prev), nil
}

func trend(cur, prev int64) MetricTrend {
	t := MetricTrend{Current: cur, Previous: prev}
	if prev > 0 {
		t.ChangePct = (float64(cur) - float64(prev)) / float64(prev) * 100
	} else if cur > 0 {
		t.ChangePct = 100
	}
	return t
}
