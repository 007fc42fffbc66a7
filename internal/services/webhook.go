package services

import (
	"bytes"
	"context"
	"crypto/hmac"
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
	"io"
	"net/http"
	"time"
)

// retryDelays is indexed by attempt count, capped at the last entry.
var retryDelays = []time.Duration{
	1 * time.Minute,
	5 * time.Minute,
	30 * time.Minute,
	2 * time.Hour,
}

type WebhookService interface {
	Dispatch(ctx context.Context, siteID uuid.UUID, eventType string, payload map[string]interface{}) ([]uuid.UUID, error)
	Deliver(ctx context.Context, eventID uuid.UUID) error
	Redeliver(ctx context.Context, eventID uuid.UUID) (*types.WebhookEvent, error)
	RetrySweep(ctx context.Context) (int, error)
	Sign(secret string, payload []byte) string
	CreateConfig(ctx context.Context, cfg *types.WebhookConfig) (*types.WebhookConfig, error)
	UpdateConfig(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.WebhookConfig, error)
	DeleteConfig(ctx context.Context, id uuid.UUID) error
	ListConfigs(ctx context.Context, siteID uuid.UUID) ([]*types.WebhookConfig, error)
	ListEvents(ctx context.Context, configID uuid.UUID, status string, limit, offset int) ([]*types.WebhookEvent, int64, error)
}

type webhookService struct {
	db          *gorm.DB
	log         *logger.Logger
	webhookRepo repos.WebhookRepo
	jobService  JobService
	httpClient  *http.Client
}

func NewWebhookService(
	db *gorm.DB,
	log *logger.Logger,
	webhookRepo repos.WebhookRepo,
	jobService JobService,
) WebhookService {
	return &webhookService{
		db:          db,
		log:         log.With("service", "WebhookService"),
		webhookRepo: webhookRepo,
		jobService:  jobService,
		httpClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Dispatch fans an event out to every active subscription that matches the
// event type. Each delivery becomes a pending webhook_event plus a queued
// delivery job; the HTTP call itself happens on the worker.
func (s *webhookService) Dispatch(ctx context.Context, siteID uuid.UUID, eventType string, payload map[string]interface{}) ([]uuid.UUID, error) {
	configs, err := s.webhookRepo.ListActiveConfigsForEvent(ctx, nil, siteID, eventType)
	if err != nil {
		return nil, fmt.Errorf("Failed to list webhook configs: %w", err)
	}
	if len(configs) == 0 {
		return nil, nil
	}

	body := map[string]interface{}{
		"event":     eventType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"data":      payload,
	}
	raw, mErr := json.Marshal(body)
	if mErr != nil {
		return nil, fmt.Errorf("Failed to marshal webhook payload: %w", mErr)
	}

	var eventIDs []uuid.UUID
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, cfg := range configs {
			ev := &types.WebhookEvent{
				ID:              uuid.New(),
				WebhookConfigID: cfg.ID,
				EventType:       eventType,
				Payload:         datatypes.JSON(raw),
				Status:          "pending",
			}
			if _, cErr := s.webhookRepo.CreateEvent(ctx, tx, ev); cErr != nil {
				return fmt.Errorf("Failed to create webhook event: %w", cErr)
			}
			eventIDs = append(eventIDs, ev.ID)
			if s.jobService != nil {
				if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
					SiteID:     &siteID,
					JobType:    JobTypeWebhookDeliver,
					EntityType: "webhook_event",
					EntityID:   &ev.ID,
					Payload:    map[string]interface{}{"webhook_event_id": ev.ID.String()},
				}); jErr != nil {
					return fmt.Errorf("Failed to enqueue webhook delivery: %w", jErr)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return eventIDs, nil
}

// Sign computes the hex HMAC-SHA256 of the payload, prefixed for the
// X-Webhook-Signature header. Map keys are sorted by json.Marshal so the
// signature is stable for equivalent payloads.
func (s *webhookService) Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (s *webhookService) Deliver(ctx context.Context, eventID uuid.UUID) error {
	ev, err := s.webhookRepo.GetEventByID(ctx, nil, eventID)
	if err != nil {
		return fmt.Errorf("Failed to load webhook event: %w", err)
	}
	if ev == nil {
		return fmt.Errorf("webhook event %s not found", eventID)
	}
	if ev.Status == "delivered" {
		return nil
	}
	cfg, err := s.webhookRepo.GetConfigByID(ctx, nil, ev.WebhookConfigID)
	if err != nil {
		return fmt.Errorf("Failed to load webhook config: %w", err)
	}
	if cfg == nil || !cfg.IsActive {
		return s.webhookRepo.UpdateEventFields(ctx, nil, ev.ID, map[string]interface{}{
			"status": "cancelled",
		})
	}

	now := time.Now()
	attempt := ev.Attempts + 1

	status, respBody, deliverErr := s.post(ctx, cfg, ev)
	updates := map[string]interface{}{
		"attempts":        attempt,
		"last_attempt_at": now,
		"response_status": status,
		"response_body":   truncate(respBody, 2000),
	}

	if deliverErr == nil {
		updates["status"] = "delivered"
		updates["delivered_at"] = now
		updates["next_retry_at"] = nil
		return s.webhookRepo.UpdateEventFields(ctx, nil, ev.ID, updates)
	}

	s.log.Warn("Webhook delivery failed",
		"webhook_event_id", ev.ID.String(),
		"url", cfg.URL,
		"attempt", attempt,
		"error", deliverErr,
	)
	updates["status"] = "failed"
	if attempt < cfg.MaxRetries {
		delay := retryDelays[len(retryDelays)-1]
		if attempt-1 < len(retryDelays) {
			delay = retryDelays[attempt-1]
		}
		updates["next_retry_at"] = now.Add(delay)
	} else {
		updates["next_retry_at"] = nil
	}
	if uErr := s.webhookRepo.UpdateEventFields(ctx, nil, ev.ID, updates); uErr != nil {
		return uErr
	}
	return deliverErr
}

func (s *webhookService) post(ctx context.Context, cfg *types.WebhookConfig, ev *types.WebhookEvent) (int, string, error) {
	payload := []byte(ev.Payload)
	req, err := http.NewRequestWithContext(ctx, "POST", cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Signature", s.Sign(cfg.Secret, payload))
	req.Header.Set("X-Webhook-Event", ev.EventType)
	req.Header.Set("X-Webhook-ID", ev.ID.String())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, string(raw), fmt.Errorf("webhook endpoint returned %d", resp.StatusCode)
	}
	return resp.StatusCode, string(raw), nil
}

// Redeliver queues a fresh delivery attempt for an event on operator
// request, regardless of its retry schedule. Already-delivered events are
// reset to pending first so Deliver does not short-circuit.
func (s *webhookService) Redeliver(ctx context.Context, eventID uuid.UUID) (*types.WebhookEvent, error) {
	ev, err := s.webhookRepo.GetEventByID(ctx, nil, eventID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load webhook event: %w", err)
	}
	if ev == nil {
		return nil, fmt.Errorf("webhook event %s not found", eventID)
	}
	cfg, err := s.webhookRepo.GetConfigByID(ctx, nil, ev.WebhookConfigID)
	if err != nil {
		return nil, fmt.Errorf("Failed to load webhook config: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("webhook config for event %s not found", eventID)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if uErr := s.webhookRepo.UpdateEventFields(ctx, tx, ev.ID, map[string]interface{}{
			"status":        "pending",
			"next_retry_at": nil,
		}); uErr != nil {
			return uErr
		}
		if s.jobService != nil {
			if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
				SiteID:     &cfg.SiteID,
				JobType:    JobTypeWebhookDeliver,
				EntityType: "webhook_event",
				EntityID:   &ev.ID,
				Payload:    map[string]interface{}{"webhook_event_id": ev.ID.String()},
			}); jErr != nil {
				return fmt.Errorf("Failed to enqueue webhook redelivery: %w", jErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ev.Status = "pending"
	ev.NextRetryAt = nil
	return ev, nil
}

// RetrySweep re-enqueues failed deliveries whose backoff has elapsed.
func (s *webhookService) RetrySweep(ctx context.Context) (int, error) {
	due, err := s.webhookRepo.ListDueRetries(ctx, nil, 200)
	if err != nil {
		return 0, fmt.Errorf("Failed to list due retries: %w", err)
	}
	requeued := 0
	for _, ev := range due {
		cfg, cErr := s.webhookRepo.GetConfigByID(ctx, nil, ev.WebhookConfigID)
		if cErr != nil || cfg == nil {
			continue
		}
		if s.jobService != nil {
			if _, jErr := s.jobService.Enqueue(ctx, nil, EnqueueInput{
				SiteID:     &cfg.SiteID,
				JobType:    JobTypeWebhookDeliver,
				EntityType: "webhook_event",
				EntityID:   &ev.ID,
				Payload:    map[string]interface{}{"webhook_event_id": ev.ID.String()},
			}); jErr != nil {
				s.log.Warn("Failed to enqueue webhook retry", "webhook_event_id", ev.ID.String(), "error", jErr)
				continue
			}
		}
		// Clear the schedule so the sweep does not pick it up twice.
		if uErr := s.webhookRepo.UpdateEventFields(ctx, nil, ev.ID, map[string]interface{}{
			"next_retry_at": nil,
		}); uErr != nil {
			s.log.Warn("Failed to clear retry schedule", "webhook_event_id", ev.ID.String(), "error", uErr)
			continue
		}
		requeued++
	}
	return requeued, nil
}

func (s *webhookService) CreateConfig(ctx context.Context, cfg *types.WebhookConfig) (*types.WebhookConfig, error) {
	if cfg == nil || cfg.URL == "" || cfg.SiteID == uuid.Nil {
		return nil, fmt.Errorf("webhook url and site required")
	}
	cfg.ID = uuid.New()
	if cfg.Secret == "" {
		cfg.Secret = generateWebhookSecret()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if len(cfg.Events) == 0 {
		all, _ := json.Marshal([]string{"*"})
		cfg.Events = all
	}
	return s.webhookRepo.CreateConfig(ctx, nil, cfg)
}

func (s *webhookService) UpdateConfig(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*types.WebhookConfig, error) {
	if err := s.webhookRepo.UpdateConfigFields(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	return s.webhookRepo.GetConfigByID(ctx, nil, id)
}

func (s *webhookService) DeleteConfig(ctx context.Context, id uuid.UUID) error {
	return s.webhookRepo.DeleteConfig(ctx, nil, id)
}

func (s *webhookService) ListConfigs(ctx context.Context, siteID uuid.UUID) ([]*types.WebhookConfig, error) {
	return s.webhookRepo.ListConfigsBySite(ctx, nil, siteID)
}

func (s *webhookService) ListEvents(ctx context.Context, configID uuid.UUID, status string, limit, offset int) ([]*types.WebhookEvent, int64, error) {
	return s.webhookRepo.ListEventsByConfig(ctx, nil, configID, status, limit, offset)
}

func generateWebhookSecret() string {
	return "whsec_" + uuid.New().String() + uuid.New().String()[:8]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
