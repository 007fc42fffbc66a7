package services

import (
	"context"
	"errors"
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

const (
	contactRateLimit       = 5
	contactRateLimitWindow = time.Hour
)

var (
	// ErrRateLimited means the client exhausted its submission allowance;
	// callers should answer 429.
	ErrRateLimited = errors.New("too many submissions, try again later")
	// ErrHoneypot means the hidden form field was filled, a bot signature;
	// callers should answer 400 without storing anything.
	ErrHoneypot = errors.New("invalid form submission")
)

type ContactSubmitInput struct {
	Name           string
	Email          string
	Phone          string
	Company        string
	Subject        string
	Message        string
	FormType       string
	SourceURL      string
	Honeypot       string
	RecaptchaToken string
	SessionID      string
	VisitorID      string
	ClientIP       string
	UserAgent      string
	Referrer       string
}

type ContactService interface {
	Submit(ctx context.Context, siteID uuid.UUID, input ContactSubmitInput) (*types.ContactSubmission, error)
	Get(ctx context.Context, id uuid.UUID) (*types.ContactSubmission, error)
	List(ctx context.Context, siteID uuid.UUID, filter repos.ContactSubmissionFilter) ([]*types.ContactSubmission, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, assignedTo, notes string) (*types.ContactSubmission, error)
}

type contactService struct {
	db           *gorm.DB
	log          *logger.Logger
	contactRepo  repos.ContactSubmissionRepo
	spamService  SpamService
	rateLimiter  RateLimitService
	jobService   JobService
	webhookSvc   WebhookService
	analyticsSvc AnalyticsService
}

func NewContactService(
	db *gorm.DB,
	log *logger.Logger,
	contactRepo repos.ContactSubmissionRepo,
	spamService SpamService,
	rateLimiter RateLimitService,
	jobService JobService,
	webhookSvc WebhookService,
	analyticsSvc AnalyticsService,
) ContactService {
	return &contactService{
		db:           db,
		log:          log.With("service", "ContactService"),
		contactRepo:  contactRepo,
		spamService:  spamService,
		rateLimiter:  rateLimiter,
		jobService:   jobService,
		webhookSvc:   webhookSvc,
		analyticsSvc: analyticsSvc,
	}
}

// Submit runs the full intake pipeline: honeypot and rate-limit rejection,
// spam scoring, persist, then side effects. Spam submissions are stored for
// review but trigger no notifications, webhooks or conversions.
func (s *contactService) Submit(ctx context.Context, siteID uuid.UUID, input ContactSubmitInput) (*types.ContactSubmission, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if strings.TrimSpace(input.Name) == "" || email == "" || strings.TrimSpace(input.Message) == "" {
		return nil, fmt.Errorf("name, email and message are required")
	}

	if strings.TrimSpace(input.Honeypot) != "" {
		s.log.Info("Contact submission rejected by honeypot", "site_id", siteID.String())
		return nil, ErrHoneypot
	}
	if s.rateLimiter != nil && input.ClientIP != "" {
		key := fmt.Sprintf("contact:%s:%s", siteID.String(), input.ClientIP)
		allowed, _, err := s.rateLimiter.Allow(ctx, key, contactRateLimit, contactRateLimitWindow)
		if err == nil && !allowed {
			return nil, ErrRateLimited
		}
	}

	check := s.spamService.CheckSubmission(ctx, SpamCheckInput{
		SiteID:         siteID,
		Email:          email,
		Name:           input.Name,
		Subject:        input.Subject,
		Message:        input.Message,
		RecaptchaToken: input.RecaptchaToken,
		ClientIP:       input.ClientIP,
	})

	formType := strings.TrimSpace(input.FormType)
	if formType == "" {
		formType = "contact"
	}

	sub := &types.ContactSubmission{
		ID:        uuid.New(),
		SiteID:    siteID,
		Name:      strings.TrimSpace(input.Name),
		Email:     email,
		Phone:     strings.TrimSpace(input.Phone),
		Company:   strings.TrimSpace(input.Company),
		Subject:   strings.TrimSpace(input.Subject),
		Message:   strings.TrimSpace(input.Message),
		FormType:  formType,
		SourceURL: strings.TrimSpace(input.SourceURL),
		IPAddress: input.ClientIP,
		UserAgent: input.UserAgent,
		Referrer:  input.Referrer,
		SpamScore: check.Score,
		IsSpam:    check.IsSpam,
		Status:    "new",
	}
	if check.IsSpam {
		sub.Status = "spam"
		s.log.Info("Contact submission flagged as spam",
			"site_id", siteID.String(),
			"spam_score", check.Score,
			"reasons", strings.Join(check.Reasons, ","),
		)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, cErr := s.contactRepo.Create(ctx, tx, sub)
		if cErr != nil {
			return fmt.Errorf("Failed to create contact submission: %w", cErr)
		}
		sub = created
		if sub.IsSpam || s.jobService == nil {
			return nil
		}
		if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
			SiteID:     &siteID,
			JobType:    JobTypeEmailSend,
			EntityType: "contact_submission",
			EntityID:   &sub.ID,
			Payload: map[string]interface{}{
				"template":      EmailTemplateContactNotification,
				"submission_id": sub.ID.String(),
			},
		}); jErr != nil {
			return jErr
		}
		if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
			SiteID:     &siteID,
			JobType:    JobTypeEmailSend,
			EntityType: "contact_submission",
			EntityID:   &sub.ID,
			Payload: map[string]interface{}{
				"template":      EmailTemplateContactConfirmation,
				"submission_id": sub.ID.String(),
			},
		}); jErr != nil {
			return jErr
		}
		if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
			SiteID:     &siteID,
			JobType:    JobTypeCRMSync,
			EntityType: "contact_submission",
			EntityID:   &sub.ID,
			Payload:    map[string]interface{}{"contact_submission_id": sub.ID.String()},
		}); jErr != nil {
			return jErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !sub.IsSpam {
		if s.webhookSvc != nil {
			if _, wErr := s.webhookSvc.Dispatch(ctx, siteID, "contact.submitted", map[string]interface{}{
				"submission_id": sub.ID.String(),
				"email":         sub.Email,
				"form_type":     sub.FormType,
			}); wErr != nil {
				s.log.Warn("Failed to dispatch contact webhook", "error", wErr)
			}
		}
		if s.analyticsSvc != nil {
			if cErr := s.analyticsSvc.RecordConversion(ctx, siteID, ConversionInput{
				SessionID: input.SessionID,
				VisitorID: input.VisitorID,
				Type:      "contact_form",
				SourceID:  &sub.ID,
				Path:      utils.PathFromURL(input.SourceURL),
			}); cErr != nil {
				s.log.Warn("Failed to record contact conversion", "error", cErr)
			}
		}
	}
	return sub, nil
}

func (s *contactService) Get(ctx context.Context, id uuid.UUID) (*types.ContactSubmission, error) {
	return s.contactRepo.GetByID(ctx, nil, id)
}

func (s *contactService) List(ctx context.Context, siteID uuid.UUID, filter repos.ContactSubmissionFilter) ([]*types.ContactSubmission, int64, error) {
	return s.contactRepo.ListBySite(ctx, nil, siteID, filter)
}

var validContactStatuses = map[string]bool{
	"new": true, "in_progress": true, "resolved": true, "spam": true,
}

func (s *contactService) UpdateStatus(ctx context.Context, id uuid.UUID, status, assignedTo, notes string) (*types.ContactSubmission, error) {
	updates := map[string]interface{}{}
	if status != "" {
		if !validContactStatuses[status] {
			return nil, fmt.Errorf("invalid status %q", status)
		}
		updates["status"] = status
		updates["is_spam"] = status == "spam"
	}
	if assignedTo != "" {
		updates["assigned_to"] = assignedTo
	}
	if notes != "" {
		updates["notes"] = notes
	}
	if len(updates) == 0 {
		return s.contactRepo.GetByID(ctx, nil, id)
	}
	if err := s.contactRepo.UpdateFields(ctx, nil, id, updates); err != nil {
		return nil, err
	}
	sub, err := s.contactRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if sub != nil && status != "" && status != "spam" && s.jobService != nil {
		// Mirror the status change into the CRM as a note on the contact.
		if _, jErr := s.jobService.Enqueue(ctx, nil, EnqueueInput{
			SiteID:     &sub.SiteID,
			JobType:    JobTypeCRMSync,
			EntityType: "contact_submission",
			EntityID:   &sub.ID,
			Payload: map[string]interface{}{
				"contact_submission_id": sub.ID.String(),
				"note":                  fmt.Sprintf("Submission status changed to %s", status),
			},
		}); jErr != nil {
			s.log.Warn("Failed to enqueue CRM status note", "submission_id", id, "error", jErr)
		}
	}
	return sub, nil
}
