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
	"strings"
	"time"
)

var validConsentTypes = map[string]bool{
	"marketing":  true,
	"analytics":  true,
	"functional": true,
	"necessary":  true,
}

var gdprDataTypes = []string{"contact_submissions", "waitlist_entries", "leads", "newsletter_subscriptions", "consent_records"}

type ConsentInput struct {
	Email       string
	ConsentType string
	Granted     bool
	ClientIP    string
	UserAgent   string
}

type ConsentStatus struct {
	ConsentType string     `json:"consent_type"`
	Granted     bool       `json:"granted"`
	RecordedAt  *time.Time `json:"recorded_at,omitempty"`
}

type DataExport struct {
	Email                  string                        `json:"email"`
	GeneratedAt            time.Time                     `json:"generated_at"`
	ContactSubmissions     []*types.ContactSubmission    `json:"contact_submissions"`
	WaitlistEntry          *types.WaitlistEntry          `json:"waitlist_entry,omitempty"`
	Lead                   *types.Lead                   `json:"lead,omitempty"`
	NewsletterSubscription *types.NewsletterSubscription `json:"newsletter_subscription,omitempty"`
	ConsentRecords         []*types.ConsentRecord        `json:"consent_records"`
}

type DeletionResult struct {
	AuditID         uuid.UUID `json:"audit_id"`
	RequestType     string    `json:"request_type"`
	RecordsAffected int64     `json:"records_affected"`
}

type RetentionPolicyInput struct {
	DataType      string
	RetentionDays int
	IsActive      bool
}

type GDPRService interface {
	RecordConsent(ctx context.Context, siteID uuid.UUID, input ConsentInput) (*types.ConsentRecord, error)
	GetConsentStatus(ctx context.Context, siteID uuid.UUID, email string) ([]ConsentStatus, error)
	ExportData(ctx context.Context, siteID uuid.UUID, email string) (*DataExport, error)
	DeleteData(ctx context.Context, siteID uuid.UUID, email, requestType, requestedBy string) (*DeletionResult, error)
	CreatePolicy(ctx context.Context, siteID uuid.UUID, version, content string, effectiveDate time.Time, activate bool) (*types.PrivacyPolicy, error)
	GetActivePolicy(ctx context.Context, siteID uuid.UUID) (*types.PrivacyPolicy, error)
	ListPolicies(ctx context.Context, siteID uuid.UUID) ([]*types.PrivacyPolicy, error)
	ActivatePolicy(ctx context.Context, siteID, policyID uuid.UUID) error
	SetRetentionPolicy(ctx context.Context, siteID uuid.UUID, input RetentionPolicyInput) (*types.DataRetentionPolicy, error)
	RetentionSweep(ctx context.Context) (map[string]int64, error)
	ListAuditLogs(ctx context.Context, siteID uuid.UUID, limit, offset int) ([]*types.DeletionAuditLog, int64, error)
}

type gdprService struct {
	db             *gorm.DB
	log            *logger.Logger
	gdprRepo       repos.GDPRRepo
	contactRepo    repos.ContactSubmissionRepo
	waitlistRepo   repos.WaitlistEntryRepo
	leadRepo       repos.LeadRepo
	newsletterRepo repos.NewsletterSubscriptionRepo
	analyticsRepo  repos.AnalyticsRepo
	jobService     JobService
}

func NewGDPRService(
	db *gorm.DB,
	log *logger.Logger,
	gdprRepo repos.GDPRRepo,
	contactRepo repos.ContactSubmissionRepo,
	waitlistRepo repos.WaitlistEntryRepo,
	leadRepo repos.LeadRepo,
	newsletterRepo repos.NewsletterSubscriptionRepo,
	analyticsRepo repos.AnalyticsRepo,
	jobService JobService,
) GDPRService {
	return &gdprService{
		db:             db,
		log:            log.With("service", "GDPRService"),
		gdprRepo:       gdprRepo,
		contactRepo:    contactRepo,
		waitlistRepo:   waitlistRepo,
		leadRepo:       leadRepo,
		newsletterRepo: newsletterRepo,
		analyticsRepo:  analyticsRepo,
		jobService:     jobService,
	}
}

func (s *gdprService) RecordConsent(ctx context.Context, siteID uuid.UUID, input ConsentInput) (*types.ConsentRecord, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	consentType := strings.ToLower(strings.TrimSpace(input.ConsentType))
	if !validConsentTypes[consentType] {
		return nil, fmt.Errorf("invalid consent type %q", input.ConsentType)
	}

	var policyVersion string
	if policy, err := s.gdprRepo.GetActivePolicy(ctx, nil, siteID); err == nil && policy != nil {
		policyVersion = policy.Version
	}

	record := &types.ConsentRecord{
		ID:            uuid.New(),
		SiteID:        siteID,
		Email:         email,
		ConsentType:   consentType,
		Granted:       input.Granted,
		PolicyVersion: policyVersion,
		IPAddress:     input.ClientIP,
		UserAgent:     input.UserAgent,
	}
	created, err := s.gdprRepo.CreateConsent(ctx, nil, record)
	if err != nil {
		return nil, fmt.Errorf("Failed to record consent: %w", err)
	}
	return created, nil
}

func (s *gdprService) GetConsentStatus(ctx context.Context, siteID uuid.UUID, email string) ([]ConsentStatus, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	statuses := make([]ConsentStatus, 0, len(validConsentTypes))
	for _, consentType := range []string{"necessary", "functional", "analytics", "marketing"} {
		latest, err := s.gdprRepo.LatestConsent(ctx, nil, siteID, email, consentType)
		if err != nil {
			return nil, fmt.Errorf("Failed to load consent for %s: %w", consentType, err)
		}
		status := ConsentStatus{ConsentType: consentType}
		if latest != nil {
			status.Granted = latest.Granted
			recordedAt := latest.CreatedAt
			status.RecordedAt = &recordedAt
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *gdprService) ExportData(ctx context.Context, siteID uuid.UUID, email string) (*DataExport, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email required")
	}

	export := &DataExport{Email: email, GeneratedAt: time.Now().UTC()}

	submissions, err := s.contactRepo.ListByEmail(ctx, nil, siteID, email)
	if err != nil {
		return nil, fmt.Errorf("Failed to load contact submissions: %w", err)
	}
	export.ContactSubmissions = submissions

	if entry, err := s.waitlistRepo.GetByEmail(ctx, nil, siteID, email); err == nil && entry != nil {
		export.WaitlistEntry = entry
	}
	if lead, err := s.leadRepo.GetByEmail(ctx, nil, siteID, email); err == nil && lead != nil {
		export.Lead = lead
	}
	if sub, err := s.newsletterRepo.GetByEmail(ctx, nil, siteID, email); err == nil && sub != nil {
		export.NewsletterSubscription = sub
	}

	consents, err := s.gdprRepo.ListConsentsByEmail(ctx, nil, siteID, email)
	if err != nil {
		return nil, fmt.Errorf("Failed to load consent records: %w", err)
	}
	export.ConsentRecords = consents

	if _, err := s.gdprRepo.CreateAuditLog(ctx, nil, &types.DeletionAuditLog{
		ID:          uuid.New(),
		SiteID:      siteID,
		EmailHash:   hashEmail(email),
		RequestType: "export",
		Status:      "completed",
		CompletedAt: timePtr(time.Now()),
	}); err != nil {
		s.log.Warn("Failed to write export audit log", "error", err)
	}
	return export, nil
}

// DeleteData handles right-to-erasure requests. requestType "delete" removes
// rows outright; "anonymize" keeps submission rows for reporting but strips
// the personal fields. Consent records are always deleted since they only
// exist to bind an email to a choice.
func (s *gdprService) DeleteData(ctx context.Context, siteID uuid.UUID, email, requestType, requestedBy string) (*DeletionResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email required")
	}
	if requestType != "delete" && requestType != "anonymize" {
		return nil, fmt.Errorf("invalid request type %q", requestType)
	}

	rawTypes, _ := json.Marshal(gdprDataTypes)
	audit, err := s.gdprRepo.CreateAuditLog(ctx, nil, &types.DeletionAuditLog{
		ID:          uuid.New(),
		SiteID:      siteID,
		EmailHash:   hashEmail(email),
		RequestType: requestType,
		DataTypes:   datatypes.JSON(rawTypes),
		RequestedBy: requestedBy,
		Status:      "pending",
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to create deletion audit log: %w", err)
	}

	var total int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		var txErr error

		if requestType == "anonymize" {
			n, txErr = s.contactRepo.AnonymizeByEmail(ctx, tx, siteID, email, anonymizeEmail(email))
		} else {
			n, txErr = s.contactRepo.DeleteByEmail(ctx, tx, siteID, email)
		}
		if txErr != nil {
			return txErr
		}
		total += n

		if n, txErr = s.waitlistRepo.DeleteByEmail(ctx, tx, siteID, email); txErr != nil {
			return txErr
		}
		total += n
		if n, txErr = s.leadRepo.DeleteByEmail(ctx, tx, siteID, email); txErr != nil {
			return txErr
		}
		total += n
		if n, txErr = s.newsletterRepo.DeleteByEmail(ctx, tx, siteID, email); txErr != nil {
			return txErr
		}
		total += n
		if n, txErr = s.gdprRepo.DeleteConsentsByEmail(ctx, tx, siteID, email); txErr != nil {
			return txErr
		}
		total += n
		return nil
	})
	if err != nil {
		_ = s.gdprRepo.UpdateAuditLogFields(ctx, nil, audit.ID, map[string]interface{}{"status": "failed"})
		return nil, fmt.Errorf("Failed to delete data: %w", err)
	}

	if uErr := s.gdprRepo.UpdateAuditLogFields(ctx, nil, audit.ID, map[string]interface{}{
		"status":           "completed",
		"records_affected": total,
		"completed_at":     time.Now(),
	}); uErr != nil {
		s.log.Warn("Failed to finalize deletion audit log", "audit_id", audit.ID, "error", uErr)
	}

	if s.jobService != nil {
		// The subject's rows are gone, so the address travels in the payload.
		if _, jErr := s.jobService.Enqueue(ctx, nil, EnqueueInput{
			SiteID:     &siteID,
			JobType:    JobTypeEmailSend,
			EntityType: "deletion_audit_log",
			EntityID:   &audit.ID,
			Payload: map[string]interface{}{
				"template": EmailTemplateGDPRDeletion,
				"email":    email,
			},
		}); jErr != nil {
			s.log.Warn("Failed to enqueue deletion confirmation email", "audit_id", audit.ID, "error", jErr)
		}
	}

	s.log.Info("Processed data deletion request", "site_id", siteID, "request_type", requestType, "records", total)
	return &DeletionResult{AuditID: audit.ID, RequestType: requestType, RecordsAffected: total}, nil
}

func (s *gdprService) CreatePolicy(ctx context.Context, siteID uuid.UUID, version, content string, effectiveDate time.Time, activate bool) (*types.PrivacyPolicy, error) {
	version = strings.TrimSpace(version)
	if version == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("version and content required")
	}
	if effectiveDate.IsZero() {
		effectiveDate = time.Now().UTC()
	}
	policy := &types.PrivacyPolicy{
		ID:            uuid.New(),
		SiteID:        siteID,
		Version:       version,
		Content:       content,
		EffectiveDate: effectiveDate,
	}
	var created *types.PrivacyPolicy
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var txErr error
		created, txErr = s.gdprRepo.CreatePolicy(ctx, tx, policy)
		if txErr != nil {
			return txErr
		}
		if activate {
			return s.gdprRepo.ActivatePolicy(ctx, tx, siteID, created.ID)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to create privacy policy: %w", err)
	}
	if activate {
		created.IsActive = true
	}
	return created, nil
}

func (s *gdprService) GetActivePolicy(ctx context.Context, siteID uuid.UUID) (*types.PrivacyPolicy, error) {
	return s.gdprRepo.GetActivePolicy(ctx, nil, siteID)
}

func (s *gdprService) ListPolicies(ctx context.Context, siteID uuid.UUID) ([]*types.PrivacyPolicy, error) {
	return s.gdprRepo.ListPolicies(ctx, nil, siteID)
}

func (s *gdprService) ActivatePolicy(ctx context.Context, siteID, policyID uuid.UUID) error {
	return s.gdprRepo.ActivatePolicy(ctx, nil, siteID, policyID)
}

func (s *gdprService) SetRetentionPolicy(ctx context.Context, siteID uuid.UUID, input RetentionPolicyInput) (*types.DataRetentionPolicy, error) {
	dataType := strings.TrimSpace(input.DataType)
	if dataType == "" {
		return nil, fmt.Errorf("data type required")
	}
	if input.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive")
	}
	policy, err := s.gdprRepo.UpsertRetentionPolicy(ctx, nil, &types.DataRetentionPolicy{
		ID:            uuid.New(),
		SiteID:        siteID,
		DataType:      dataType,
		RetentionDays: input.RetentionDays,
		IsActive:      input.IsActive,
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to upsert retention policy: %w", err)
	}
	return policy, nil
}

// RetentionSweep walks every active retention policy and purges rows older
// than the configured window. Returns per-data-type delete counts keyed as
// "<site>/<data_type>".
func (s *gdprService) RetentionSweep(ctx context.Context) (map[string]int64, error) {
	policies, err := s.gdprRepo.ListActiveRetentionPolicies(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Failed to list retention policies: %w", err)
	}

	results := make(map[string]int64, len(policies))
	for _, policy := range policies {
		cutoff := time.Now().AddDate(0, 0, -policy.RetentionDays)
		var n int64
		var pErr error
		switch policy.DataType {
		case "contact_submissions":
			n, pErr = s.contactRepo.DeleteOlderThan(ctx, nil, policy.SiteID, cutoff)
		case "page_views":
			n, pErr = s.analyticsRepo.DeletePageViewsOlderThan(ctx, nil, policy.SiteID, cutoff)
		case "events":
			n, pErr = s.analyticsRepo.DeleteEventsOlderThan(ctx, nil, policy.SiteID, cutoff)
		default:
			s.log.Warn("Skipping retention policy with unknown data type", "data_type", policy.DataType)
			continue
		}
		if pErr != nil {
			s.log.Error("Retention purge failed", "site_id", policy.SiteID, "data_type", policy.DataType, "error", pErr)
			continue
		}
		results[policy.SiteID.String()+"/"+policy.DataType] = n
		if tErr := s.gdprRepo.TouchRetentionPolicy(ctx, nil, policy.ID); tErr != nil {
			s.log.Warn("Failed to stamp retention run", "policy_id", policy.ID, "error", tErr)
		}
	}
	return results, nil
}

func (s *gdprService) ListAuditLogs(ctx context.Context, siteID uuid.UUID, limit, offset int) ([]*types.DeletionAuditLog, int64, error) {
	return s.gdprRepo.ListAuditLogs(ctx, nil, siteID, limit, offset)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashEmail(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}

// anonymizeEmail keeps the first letter and domain so anonymized rows still
// group sensibly: "jane@acme.com" becomes "j***@acme.com".
func anonymizeEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	return email[:1] + "***" + email[at:]
}

func timePtr(t time.Time) *time.Time {
	return &t
}
