package services

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/clients/sendgrid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
	"html"
	"strings"
)

const (
	EmailTemplateContactNotification    = "contact_notification"
	EmailTemplateContactConfirmation    = "contact_confirmation"
	EmailTemplateWaitlistVerification   = "waitlist_verification"
	EmailTemplateWaitlistInvitation     = "waitlist_invitation"
	EmailTemplateNewsletterConfirmation = "newsletter_confirmation"
	EmailTemplateGDPRDeletion           = "gdpr_deletion_confirmation"
)

type EmailService interface {
	SendTemplate(ctx context.Context, siteID uuid.UUID, template string, payload map[string]interface{}) error
}

type emailService struct {
	log            *logger.Logger
	sendgrid       sendgrid.Client
	siteRepo       repos.SiteRepo
	contactRepo    repos.ContactSubmissionRepo
	waitlistRepo   repos.WaitlistEntryRepo
	newsletterRepo repos.NewsletterSubscriptionRepo
	notifyEmail    string
	publicBaseURL  string
}

func NewEmailService(
	log *logger.Logger,
	sendgridClient sendgrid.Client,
	siteRepo repos.SiteRepo,
	contactRepo repos.ContactSubmissionRepo,
	waitlistRepo repos.WaitlistEntryRepo,
	newsletterRepo repos.NewsletterSubscriptionRepo,
) EmailService {
	return &emailService{
		log:            log.With("service", "EmailService"),
		sendgrid:       sendgridClient,
		siteRepo:       siteRepo,
		contactRepo:    contactRepo,
		waitlistRepo:   waitlistRepo,
		newsletterRepo: newsletterRepo,
		notifyEmail:    utils.GetEnv("CONTACT_NOTIFY_EMAIL", "", log),
		publicBaseURL:  strings.TrimRight(utils.GetEnv("PUBLIC_BASE_URL", "", log), "/"),
	}
}

func (s *emailService) SendTemplate(ctx context.Context, siteID uuid.UUID, template string, payload map[string]interface{}) error {
	if s.sendgrid == nil {
		s.log.Debug("Email delivery disabled, dropping message", "template", template)
		return nil
	}
	site, err := s.siteRepo.GetByID(ctx, nil, siteID)
	if err != nil {
		return fmt.Errorf("Failed to load site %s: %w", siteID, err)
	}
	if site == nil {
		return fmt.Errorf("site %s not found", siteID)
	}

	switch template {
	case EmailTemplateContactNotification:
		return s.sendContactNotification(ctx, site, payloadID(payload, "submission_id"))
	case EmailTemplateContactConfirmation:
		return s.sendContactConfirmation(ctx, site, payloadID(payload, "submission_id"))
	case EmailTemplateWaitlistVerification:
		return s.sendWaitlistVerification(ctx, site, payloadID(payload, "entry_id"))
	case EmailTemplateWaitlistInvitation:
		return s.sendWaitlistInvitation(ctx, site, payloadID(payload, "entry_id"))
	case EmailTemplateNewsletterConfirmation:
		return s.sendNewsletterConfirmation(ctx, site, payloadID(payload, "subscription_id"))
	case EmailTemplateGDPRDeletion:
		email, _ := payload["email"].(string)
		return s.sendGDPRDeletionConfirmation(ctx, site, email)
	default:
		return fmt.Errorf("unknown email template %q", template)
	}
}

func (s *emailService) sendContactNotification(ctx context.Context, site *types.Site, submissionID uuid.UUID) error {
	if s.notifyEmail == "" {
		s.log.Debug("CONTACT_NOTIFY_EMAIL unset, skipping contact notification")
		return nil
	}
	sub, err := s.contactRepo.GetByID(ctx, nil, submissionID)
	if err != nil {
		return fmt.Errorf("Failed to load contact submission: %w", err)
	}
	if sub == nil {
		s.log.Warn("Contact submission gone before notification", "submission_id", submissionID)
		return nil
	}

	subject := fmt.Sprintf("[%s] New %s submission from %s", site.Name, sub.FormType, sub.Name)
	text := fmt.Sprintf(
		"Name: %s\nEmail: %s\nPhone: %s\nCompany: %s\nSubject: %s\n\n%s\n",
		sub.Name, sub.Email, sub.Phone, sub.Company, sub.Subject, sub.Message,
	)
	htmlBody := fmt.Sprintf(
		"<p><strong>Name:</strong> %s<br><strong>Email:</strong> %s<br><strong>Phone:</strong> %s<br><strong>Company:</strong> %s<br><strong>Subject:</strong> %s</p><p>%s</p>",
		html.EscapeString(sub.Name), html.EscapeString(sub.Email), html.EscapeString(sub.Phone),
		html.EscapeString(sub.Company), html.EscapeString(sub.Subject),
		strings.ReplaceAll(html.EscapeString(sub.Message), "\n", "<br>"),
	)
	return s.send(ctx, s.notifyEmail, "", subject, text, htmlBody, "contact")
}

func (s *emailService) sendContactConfirmation(ctx context.Context, site *types.Site, submissionID uuid.UUID) error {
	sub, err := s.contactRepo.GetByID(ctx, nil, submissionID)
	if err != nil {
		return fmt.Errorf("Failed to load contact submission: %w", err)
	}
	if sub == nil {
		s.log.Warn("Contact submission gone before confirmation", "submission_id", submissionID)
		return nil
	}

	subject := fmt.Sprintf("We received your message to %s", site.Name)
	text := fmt.Sprintf(
		"Hi %s,\n\nThanks for reaching out to %s. We received your message and will get back to you shortly.\n\nYour message:\n%s\n",
		firstNameOrFriend(sub.Name), site.Name, sub.Message,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Thanks for reaching out to %s. We received your message and will get back to you shortly.</p><blockquote>%s</blockquote>",
		html.EscapeString(firstNameOrFriend(sub.Name)), html.EscapeString(site.Name),
		strings.ReplaceAll(html.EscapeString(sub.Message), "\n", "<br>"),
	)
	return s.send(ctx, sub.Email, sub.Name, subject, text, htmlBody, "contact")
}

func (s *emailService) sendWaitlistVerification(ctx context.Context, site *types.Site, entryID uuid.UUID) error {
	entry, err := s.waitlistRepo.GetByID(ctx, nil, entryID)
	if err != nil {
		return fmt.Errorf("Failed to load waitlist entry: %w", err)
	}
	if entry == nil || entry.VerificationToken == "" {
		return nil
	}

	link := s.link(site, "/waitlist/verify?token="+entry.VerificationToken)
	subject := fmt.Sprintf("Confirm your spot on the %s waitlist", site.Name)
	text := fmt.Sprintf(
		"Hi %s,\n\nConfirm your email to secure your spot on the waitlist:\n\n%s\n\nShare your referral link to move up the list:\n%s\n",
		firstNameOrFriend(entry.Name), link, s.link(site, "/waitlist?ref="+entry.ReferralCode),
	)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Confirm your email to secure your spot on the waitlist:</p><p><a href=\"%s\">Verify my email</a></p><p>Share your referral link to move up the list:<br><a href=\"%s\">%s</a></p>",
		html.EscapeString(firstNameOrFriend(entry.Name)), link,
		s.link(site, "/waitlist?ref="+entry.ReferralCode), s.link(site, "/waitlist?ref="+entry.ReferralCode),
	)
	return s.send(ctx, entry.Email, entry.Name, subject, text, htmlBody, "waitlist")
}

func (s *emailService) sendWaitlistInvitation(ctx context.Context, site *types.Site, entryID uuid.UUID) error {
	entry, err := s.waitlistRepo.GetByID(ctx, nil, entryID)
	if err != nil {
		return fmt.Errorf("Failed to load waitlist entry: %w", err)
	}
	if entry == nil {
		return nil
	}

	subject := fmt.Sprintf("You're in! Your %s invite is ready", site.Name)
	link := s.link(site, "/signup")
	text := fmt.Sprintf(
		"Hi %s,\n\nYour spot on the %s waitlist is ready. Create your account here:\n\n%s\n",
		firstNameOrFriend(entry.Name), site.Name, link,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your spot on the %s waitlist is ready.</p><p><a href=\"%s\">Create my account</a></p>",
		html.EscapeString(firstNameOrFriend(entry.Name)), html.EscapeString(site.Name), link,
	)
	return s.send(ctx, entry.Email, entry.Name, subject, text, htmlBody, "waitlist")
}

func (s *emailService) sendNewsletterConfirmation(ctx context.Context, site *types.Site, subscriptionID uuid.UUID) error {
	sub, err := s.newsletterRepo.GetByID(ctx, nil, subscriptionID)
	if err != nil {
		return fmt.Errorf("Failed to load newsletter subscription: %w", err)
	}
	if sub == nil || sub.ConfirmationToken == "" {
		return nil
	}

	confirmLink := s.link(site, "/newsletter/confirm?token="+sub.ConfirmationToken)
	unsubLink := s.link(site, "/newsletter/unsubscribe?token="+sub.UnsubscribeToken)
	subject := fmt.Sprintf("Confirm your subscription to %s", site.Name)
	text := fmt.Sprintf(
		"Please confirm your subscription:\n\n%s\n\nIf you did not request this, ignore this email or unsubscribe:\n%s\n",
		confirmLink, unsubLink,
	)
	htmlBody := fmt.Sprintf(
		"<p>Please confirm your subscription to %s:</p><p><a href=\"%s\">Confirm subscription</a></p><p style=\"font-size:12px\">If you did not request this, ignore this email or <a href=\"%s\">unsubscribe</a>.</p>",
		html.EscapeString(site.Name), confirmLink, unsubLink,
	)
	return s.send(ctx, sub.Email, "", subject, text, htmlBody, "newsletter")
}

// sendGDPRDeletionConfirmation takes the address straight from the payload:
// the subject's rows are already gone by the time this runs.
func (s *emailService) sendGDPRDeletionConfirmation(ctx context.Context, site *types.Site, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("gdpr deletion confirmation: email missing from payload")
	}
	subject := fmt.Sprintf("Your data has been deleted from %s", site.Name)
	text := fmt.Sprintf(
		"Hello,\n\nAs requested, all personal data associated with this address has been removed from %s.\n\nIf you did not request this, contact us immediately.\n",
		site.Name,
	)
	htmlBody := fmt.Sprintf(
		"<p>Hello,</p><p>As requested, all personal data associated with this address has been removed from %s.</p><p>If you did not request this, contact us immediately.</p>",
		html.EscapeString(site.Name),
	)
	return s.send(ctx, email, "", subject, text, htmlBody, "gdpr")
}

func (s *emailService) send(ctx context.Context, toEmail, toName, subject, text, htmlBody, category string) error {
	result, err := s.sendgrid.Send(ctx, sendgrid.SendEmailRequest{
		To:         []sendgrid.EmailAddress{{Email: toEmail, Name: toName}},
		Subject:    subject,
		Text:       text,
		HTML:       htmlBody,
		Categories: []string{category},
	})
	if err != nil {
		return fmt.Errorf("Failed to send email: %w", err)
	}
	s.log.Info("Sent email", "to", toEmail, "category", category, "status", result.StatusCode)
	return nil
}

// link builds an absolute URL on the site's own domain, preferring the
// PUBLIC_BASE_URL override for local development.
func (s *emailService) link(site *types.Site, path string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + path
	}
	return "https://" + site.Domain + path
}

func firstNameOrFriend(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "there"
	}
	return strings.Fields(name)[0]
}

func payloadID(payload map[string]interface{}, key string) uuid.UUID {
	if payload == nil {
		return uuid.Nil
	}
	raw, _ := payload[key].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil
	}
	return id
}
