package services

import (
	"context"
	"github.com/vjbollavarapu/sitebackend/internal/clients/ga4"
	"github.com/vjbollavarapu/sitebackend/internal/clients/mixpanel"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"golang.org/x/sync/errgroup"
)

// ExternalAnalyticsService fans tracked events out to third-party analytics.
// Either destination may be nil when unconfigured; a failure on one side
// never blocks the other.
type ExternalAnalyticsService interface {
	Track(ctx context.Context, visitorID, event string, params map[string]interface{}) error
}

type externalAnalyticsService struct {
	log      *logger.Logger
	ga4      ga4.Client
	mixpanel mixpanel.Client
}

func NewExternalAnalyticsService(log *logger.Logger, ga4Client ga4.Client, mixpanelClient mixpanel.Client) ExternalAnalyticsService {
	return &externalAnalyticsService{
		log:      log.With("service", "ExternalAnalyticsService"),
		ga4:      ga4Client,
		mixpanel: mixpanelClient,
	}
}

// Track delivers to both destinations concurrently. A plain errgroup (no
// derived context) keeps one side's failure from cancelling the other.
func (s *externalAnalyticsService) Track(ctx context.Context, visitorID, event string, params map[string]interface{}) error {
	if visitorID == "" || event == "" {
		return nil
	}
	var g errgroup.Group
	if s.ga4 != nil {
		g.Go(func() error {
			if err := s.ga4.SendEvent(ctx, visitorID, event, params); err != nil {
				s.log.Warn("GA4 delivery failed", "event", event, "error", err)
				return err
			}
			return nil
		})
	}
	if s.mixpanel != nil {
		g.Go(func() error {
			if err := s.mixpanel.Track(ctx, visitorID, event, params); err != nil {
				s.log.Warn("Mixpanel delivery failed", "event", event, "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
