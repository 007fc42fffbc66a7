package services

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
	"gorm.io/gorm"
	"strings"
	"time"
)

type NewsletterService interface {
	Subscribe(ctx context.Context, siteID uuid.UUID, email, name, source, clientIP string) (*types.NewsletterSubscription, bool, error)
	Confirm(ctx context.Context, token string) (*types.NewsletterSubscription, error)
	Unsubscribe(ctx context.Context, token string) (*types.NewsletterSubscription, error)
	RecordDeliveryIssue(ctx context.Context, siteID uuid.UUID, email, kind string) (*types.NewsletterSubscription, error)
	List(ctx context.Context, siteID uuid.UUID, status string, limit, offset int) ([]*types.NewsletterSubscription, int64, error)
}

// maxBounces is how many delivery failures an address gets before it is
// marked bounced and dropped from sends.
const maxBounces = 3

type newsletterService struct {
	db             *gorm.DB
	log            *logger.Logger
	newsletterRepo repos.NewsletterSubscriptionRepo
	jobService     JobService
}

func NewNewsletterService(
	db *gorm.DB,
	log *logger.Logger,
	newsletterRepo repos.NewsletterSubscriptionRepo,
	jobService JobService,
) NewsletterService {
	return &newsletterService{
		db:             db,
		log:            log.With("service", "NewsletterService"),
		newsletterRepo: newsletterRepo,
		jobService:     jobService,
	}
}

// Subscribe is double opt-in: new subscriptions start pending and flip to
// active on Confirm. Re-subscribing an unsubscribed address restarts the
// confirmation flow. The bool result reports whether a confirmation email
// was triggered.
func (s *newsletterService) Subscribe(ctx context.Context, siteID uuid.UUID, email, name, source, clientIP string) (*types.NewsletterSubscription, bool, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, false, fmt.Errorf("email required")
	}

	existing, err := s.newsletterRepo.GetByEmail(ctx, nil, siteID, email)
	if err != nil {
		return nil, false, fmt.Errorf("Failed to check existing subscription: %w", err)
	}

	if existing != nil {
		switch existing.Status {
		case "active", "pending":
			return existing, false, nil
		default:
			token := utils.SecureToken()
			if uErr := s.newsletterRepo.UpdateFields(ctx, nil, existing.ID, map[string]interface{}{
				"status":             "pending",
				"confirmation_token": token,
				"unsubscribed_at":    nil,
			}); uErr != nil {
				return nil, false, uErr
			}
			existing.Status = "pending"
			existing.ConfirmationToken = token
			if jErr := s.enqueueConfirmation(ctx, nil, existing); jErr != nil {
				return nil, false, jErr
			}
			return existing, true, nil
		}
	}

	sub := &types.NewsletterSubscription{
		ID:                uuid.New(),
		SiteID:            siteID,
		Email:             email,
		Name:              strings.TrimSpace(name),
		Status:            "pending",
		Source:            strings.TrimSpace(source),
		ConfirmationToken: utils.SecureToken(),
		UnsubscribeToken:  utils.SecureToken(),
		IPAddress:         clientIP,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, cErr := s.newsletterRepo.Create(ctx, tx, sub)
		if cErr != nil {
			return fmt.Errorf("Failed to create subscription: %w", cErr)
		}
		sub = created
		return s.enqueueConfirmation(ctx, tx, sub)
	})
	if err != nil {
		return nil, false, err
	}
	return sub, true, nil
}

func (s *newsletterService) enqueueConfirmation(ctx context.Context, tx *gorm.DB, sub *types.NewsletterSubscription) error {
	if s.jobService == nil {
		return nil
	}
	_, err := s.jobService.Enqueue(ctx, tx, EnqueueInput{
		SiteID:     &sub.SiteID,
		JobType:    JobTypeEmailSend,
		EntityType: "newsletter_subscription",
		EntityID:   &sub.ID,
		Payload: map[string]interface{}{
			"template":        "newsletter_confirmation",
			"subscription_id": sub.ID.String(),
		},
	})
	return err
}

func (s *newsletterService) Confirm(ctx context.Context, token string) (*types.NewsletterSubscription, error) {
	sub, err := s.newsletterRepo.GetByConfirmationToken(ctx, nil, token)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("invalid confirmation token")
	}
	if sub.Status == "active" {
		return sub, nil
	}
	now := time.Now()
	if uErr := s.newsletterRepo.UpdateFields(ctx, nil, sub.ID, map[string]interface{}{
		"status":             "active",
		"confirmed_at":       now,
		"confirmation_token": "",
	}); uErr != nil {
		return nil, uErr
	}
	sub.Status = "active"
	sub.ConfirmedAt = &now
	return sub, nil
}

func (s *newsletterService) Unsubscribe(ctx context.Context, token string) (*types.NewsletterSubscription, error) {
	sub, err := s.newsletterRepo.GetByUnsubscribeToken(ctx, nil, token)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("invalid unsubscribe token")
	}
	if sub.Status == "unsubscribed" {
		return sub, nil
	}
	now := time.Now()
	if uErr := s.newsletterRepo.UpdateFields(ctx, nil, sub.ID, map[string]interface{}{
		"status":          "unsubscribed",
		"unsubscribed_at": now,
	}); uErr != nil {
		return nil, uErr
	}
	sub.Status = "unsubscribed"
	sub.UnsubscribedAt = &now
	return sub, nil
}

// RecordDeliveryIssue handles provider callbacks. A complaint unsubscribes
// immediately; bounces accumulate and flip the subscription to bounced once
// they hit the cap.
func (s *newsletterService) RecordDeliveryIssue(ctx context.Context, siteID uuid.UUID, email, kind string) (*types.NewsletterSubscription, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	if kind != "bounce" && kind != "complaint" {
		return nil, fmt.Errorf("kind must be bounce or complaint")
	}

	sub, err := s.newsletterRepo.GetByEmail(ctx, nil, siteID, email)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("subscription not found")
	}

	now := time.Now()
	updates := map[string]interface{}{"last_bounce_at": now}

	switch kind {
	case "complaint":
		updates["complaint_count"] = sub.ComplaintCount + 1
		if sub.Status != "unsubscribed" {
			updates["status"] = "unsubscribed"
			updates["unsubscribed_at"] = now
		}
	case "bounce":
		count := sub.BounceCount + 1
		updates["bounce_count"] = count
		if count >= maxBounces && sub.Status != "unsubscribed" {
			updates["status"] = "bounced"
		}
	}
	if uErr := s.newsletterRepo.UpdateFields(ctx, nil, sub.ID, updates); uErr != nil {
		return nil, uErr
	}
	s.log.Info("Recorded newsletter delivery issue", "site_id", siteID.String(), "kind", kind, "status", updates["status"])
	return s.newsletterRepo.GetByID(ctx, nil, sub.ID)
}

func (s *newsletterService) List(ctx context.Context, siteID uuid.UUID, status string, limit, offset int) ([]*types.NewsletterSubscription, int64, error) {
	return s.newsletterRepo.ListBySite(ctx, nil, siteID, status, limit, offset)
}
