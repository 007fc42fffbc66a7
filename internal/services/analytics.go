package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"net/url"
	"strings"
)

type PageViewInput struct {
	SessionID string
	VisitorID string
	URL       string
	Path      string
	Title     string
	Referrer  string
	UserAgent string
	ClientIP  string
}

type EventInput struct {
	SessionID  string
	VisitorID  string
	Name       string
	Category   string
	Label      string
	Value      float64
	Path       string
	Properties map[string]interface{}
}

type ConversionInput struct {
	SessionID string
	VisitorID string
	Type      string
	SourceID  *uuid.UUID
	Value     float64
	Path      string
}

type AnalyticsService interface {
	TrackPageView(ctx context.Context, siteID uuid.UUID, input PageViewInput) error
	TrackEvent(ctx context.Context, siteID uuid.UUID, input EventInput) error
	RecordConversion(ctx context.Context, siteID uuid.UUID, input ConversionInput) error
}

type analyticsService struct {
	db            *gorm.DB
	log           *logger.Logger
	analyticsRepo repos.AnalyticsRepo
	sessionSvc    SessionService
	jobService    JobService
}

func NewAnalyticsService(
	db *gorm.DB,
	log *logger.Logger,
	analyticsRepo repos.AnalyticsRepo,
	sessionSvc SessionService,
	jobService JobService,
) AnalyticsService {
	return &analyticsService{
		db:            db,
		log:           log.With("service", "AnalyticsService"),
		analyticsRepo: analyticsRepo,
		sessionSvc:    sessionSvc,
		jobService:    jobService,
	}
}

func (s *analyticsService) TrackPageView(ctx context.Context, siteID uuid.UUID, input PageViewInput) error {
	path := strings.TrimSpace(input.Path)
	pageURL := strings.TrimSpace(input.URL)
	if path == "" && pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			path = u.Path
		}
	}
	if path == "" {
		path = "/"
	}
	if input.SessionID == "" {
		return fmt.Errorf("session id required")
	}

	utm := ParseUTM(pageURL)
	device, browser, os := ParseUserAgent(input.UserAgent)

	view := &types.PageView{
		ID:            uuid.New(),
		SiteID:        siteID,
		SessionID:     input.SessionID,
		VisitorID:     input.VisitorID,
		Path:          path,
		Title:         strings.TrimSpace(input.Title),
		Referrer:      strings.TrimSpace(input.Referrer),
		UTMSource:     utm.Source,
		UTMMedium:     utm.Medium,
		UTMCampaign:   utm.Campaign,
		UTMTerm:       utm.Term,
		UTMContent:    utm.Content,
		DeviceType:    device,
		Browser:       browser,
		OS:            os,
		IPAddressHash: hashIP(input.ClientIP),
		UserAgent:     input.UserAgent,
	}
	if err := s.analyticsRepo.CreatePageViews(ctx, nil, []*types.PageView{view}); err != nil {
		return fmt.Errorf("Failed to store page view: %w", err)
	}

	if s.sessionSvc != nil {
		_ = s.sessionSvc.Touch(ctx, siteID, input.SessionID, "page_view")
	}
	s.enqueueExternalTrack(ctx, siteID, input.VisitorID, "page_view", map[string]interface{}{
		"page_location": pageURL,
		"page_title":    view.Title,
		"page_path":     path,
	})
	return nil
}

func (s *analyticsService) TrackEvent(ctx context.Context, siteID uuid.UUID, input EventInput) error {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return fmt.Errorf("event name required")
	}
	if input.SessionID == "" {
		return fmt.Errorf("session id required")
	}

	var props datatypes.JSON
	if len(input.Properties) > 0 {
		raw, err := json.Marshal(input.Properties)
		if err != nil {
			return fmt.Errorf("Failed to marshal event properties: %w", err)
		}
		props = datatypes.JSON(raw)
	}

	ev := &types.Event{
		ID:         uuid.New(),
		SiteID:     siteID,
		SessionID:  input.SessionID,
		VisitorID:  input.VisitorID,
		Name:       name,
		Category:   strings.TrimSpace(input.Category),
		Label:      strings.TrimSpace(input.Label),
		Value:      input.Value,
		Path:       strings.TrimSpace(input.Path),
		Properties: props,
	}
	if err := s.analyticsRepo.CreateEvents(ctx, nil, []*types.Event{ev}); err != nil {
		return fmt.Errorf("Failed to store event: %w", err)
	}

	if s.sessionSvc != nil {
		_ = s.sessionSvc.Touch(ctx, siteID, input.SessionID, "event")
	}
	external := map[string]interface{}{
		"event_category": ev.Category,
		"event_label":    ev.Label,
	}
	if ev.Value != 0 {
		external["value"] = ev.Value
	}
	s.enqueueExternalTrack(ctx, siteID, input.VisitorID, name, external)
	return nil
}

func (s *analyticsService) RecordConversion(ctx context.Context, siteID uuid.UUID, input ConversionInput) error {
	if input.Type == "" {
		return fmt.Errorf("conversion type required")
	}
	conv := &types.Conversion{
		ID:        uuid.New(),
		SiteID:    siteID,
		SessionID: input.SessionID,
		VisitorID: input.VisitorID,
		Type:      input.Type,
		SourceID:  input.SourceID,
		Value:     input.Value,
		Path:      input.Path,
	}
	if _, err := s.analyticsRepo.CreateConversion(ctx, nil, conv); err != nil {
		return fmt.Errorf("Failed to store conversion: %w", err)
	}
	s.enqueueExternalTrack(ctx, siteID, input.VisitorID, "conversion", map[string]interface{}{
		"conversion_type": input.Type,
		"value":           input.Value,
	})
	return nil
}

// enqueueExternalTrack hands GA4/Mixpanel fanout to the worker so tracking
// endpoints never block on third-party latency.
func (s *analyticsService) enqueueExternalTrack(ctx context.Context, siteID uuid.UUID, visitorID, event string, params map[string]interface{}) {
	if s.jobService == nil || visitorID == "" {
		return
	}
	if _, err := s.jobService.Enqueue(ctx, nil, EnqueueInput{
		SiteID:  &siteID,
		JobType: JobTypeExternalTrack,
		Payload: map[string]interface{}{
			"visitor_id": visitorID,
			"event":      event,
			"params":     params,
		},
	}); err != nil {
		s.log.Warn("Failed to enqueue external analytics", "event", event, "error", err)
	}
}

// hashIP replaces the client address with its sha256 before anything is
// persisted, so visitor counts survive without holding raw IPs.
func hashIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(sum[:])
}

type UTMParams struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
}

// ParseUTM pulls the standard utm_* parameters from a page URL.
func ParseUTM(pageURL string) UTMParams {
	if pageURL == "" {
		return UTMParams{}
	}
	u, err := url.Parse(pageURL)
	if err != nil {
		return UTMParams{}
	}
	q := u.Query()
	return UTMParams{
		Source:   q.Get("utm_source"),
		Medium:   q.Get("utm_medium"),
		Campaign: q.Get("utm_campaign"),
		Term:     q.Get("utm_term"),
		Content:  q.Get("utm_content"),
	}
}

// ParseUserAgent does coarse device/browser/OS detection, enough for the
// dashboard breakdowns. Order matters: Edge and Opera advertise Chrome,
// Chrome advertises Safari, and tablets advertise mobile tokens.
func ParseUserAgent(ua string) (device, browser, os string) {
	device, browser, os = "desktop", "other", "other"
	if ua == "" {
		return
	}
	lower := strings.ToLower(ua)

	switch {
	case strings.Contains(lower, "ipad") || strings.Contains(lower, "tablet"):
		device = "tablet"
	case strings.Contains(lower, "mobi") || strings.Contains(lower, "iphone") || strings.Contains(lower, "android"):
		device = "mobile"
	}

	switch {
	case strings.Contains(lower, "edg/") || strings.Contains(lower, "edge/"):
		browser = "edge"
	case strings.Contains(lower, "opr/") || strings.Contains(lower, "opera"):
		browser = "opera"
	case strings.Contains(lower, "firefox/"):
		browser = "firefox"
	case strings.Contains(lower, "chrome/") || strings.Contains(lower, "crios/"):
		browser = "chrome"
	case strings.Contains(lower, "safari/"):
		browser = "safari"
	}

	switch {
	case strings.Contains(lower, "windows"):
		os = "windows"
	case strings.Contains(lower, "android"):
		os = "android"
	case strings.Contains(lower, "iphone") || strings.Contains(lower, "ipad") || strings.Contains(lower, "ios"):
		os = "ios"
	case strings.Contains(lower, "mac os") || strings.Contains(lower, "macintosh"):
		os = "macos"
	case strings.Contains(lower, "linux"):
		os = "linux"
	}
	return
}
