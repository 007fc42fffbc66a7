package services

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/clients/hubspot"
	"github.com/vjbollavarapu/sitebackend/internal/clients/pipedrive"
	"github.com/vjbollavarapu/sitebackend/internal/clients/salesforce"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"github.com/vjbollavarapu/sitebackend/internal/utils"
	"gorm.io/gorm"
	"strings"
	"time"
)

type CRMService interface {
	SyncLead(ctx context.Context, leadID uuid.UUID) error
	CreateLeadDeal(ctx context.Context, leadID uuid.UUID) error
	SyncContactSubmission(ctx context.Context, submissionID uuid.UUID, note string) error
	SyncWaitlistEntry(ctx context.Context, entryID uuid.UUID) error
	SyncPending(ctx context.Context, siteID uuid.UUID, limit int) (int, error)
	Provider() string
}

type crmService struct {
	db           *gorm.DB
	log          *logger.Logger
	leadRepo     repos.LeadRepo
	contactRepo  repos.ContactSubmissionRepo
	waitlistRepo repos.WaitlistEntryRepo
	provider     string
	hubspot      hubspot.Client
	salesforce   salesforce.Client
	pipedrive    pipedrive.Client
}

func NewCRMService(
	db *gorm.DB,
	log *logger.Logger,
	leadRepo repos.LeadRepo,
	contactRepo repos.ContactSubmissionRepo,
	waitlistRepo repos.WaitlistEntryRepo,
	hubspotClient hubspot.Client,
	salesforceClient salesforce.Client,
	pipedriveClient pipedrive.Client,
) CRMService {
	provider := strings.ToLower(utils.GetEnv("CRM_PROVIDER", "", log))
	return &crmService{
		db:           db,
		log:          log.With("service", "CRMService", "provider", provider),
		leadRepo:     leadRepo,
		contactRepo:  contactRepo,
		waitlistRepo: waitlistRepo,
		provider:     provider,
		hubspot:      hubspotClient,
		salesforce:   salesforceClient,
		pipedrive:    pipedriveClient,
	}
}

func (s *crmService) Provider() string {
	return s.provider
}

func (s *crmService) SyncLead(ctx context.Context, leadID uuid.UUID) error {
	if s.provider == "" {
		return nil
	}
	lead, err := s.leadRepo.GetByID(ctx, nil, leadID)
	if err != nil {
		return fmt.Errorf("Failed to load lead %s: %w", leadID, err)
	}
	if lead == nil {
		s.log.Warn("Skipping CRM sync for missing lead", "lead_id", leadID)
		return nil
	}

	externalID, syncErr := s.push(ctx, lead)
	updates := map[string]interface{}{"crm_provider": s.provider, "updated_at": time.Now()}
	if syncErr != nil {
		updates["crm_sync_error"] = truncate(syncErr.Error(), 500)
		if uErr := s.leadRepo.UpdateFields(ctx, nil, lead.ID, updates); uErr != nil {
			s.log.Error("Failed to record CRM sync error", "lead_id", lead.ID, "error", uErr)
		}
		return fmt.Errorf("CRM sync failed for lead %s: %w", lead.ID, syncErr)
	}

	updates["crm_external_id"] = externalID
	updates["crm_synced_at"] = time.Now()
	updates["crm_sync_error"] = ""
	if uErr := s.leadRepo.UpdateFields(ctx, nil, lead.ID, updates); uErr != nil {
		return fmt.Errorf("Failed to record CRM sync result: %w", uErr)
	}
	s.log.Info("Synced lead to CRM", "lead_id", lead.ID, "external_id", externalID)
	return nil
}

func (s *crmService) SyncPending(ctx context.Context, siteID uuid.UUID, limit int) (int, error) {
	if s.provider == "" {
		return 0, nil
	}
	if limit <= 0 {
		limit = 50
	}
	leads, err := s.leadRepo.ListUnsynced(ctx, nil, siteID, limit)
	if err != nil {
		return 0, fmt.Errorf("Failed to list unsynced leads: %w", err)
	}
	synced := 0
	for _, lead := range leads {
		if sErr := s.SyncLead(ctx, lead.ID); sErr != nil {
			s.log.Warn("Lead sync failed during batch", "lead_id", lead.ID, "error", sErr)
			continue
		}
		synced++
	}
	return synced, nil
}

// crmContact is the provider-neutral shape every synced record reduces to.
type crmContact struct {
	Email    string
	Name     string
	Phone    string
	Company  string
	JobTitle string
	Industry string
	Source   string
}

func (s *crmService) push(ctx context.Context, lead *types.Lead) (string, error) {
	return s.pushContact(ctx, crmContact{
		Email:    lead.Email,
		Name:     lead.Name,
		Phone:    lead.Phone,
		Company:  lead.Company,
		JobTitle: lead.JobTitle,
		Industry: lead.Industry,
		Source:   lead.Source,
	})
}

func (s *crmService) pushContact(ctx context.Context, c crmContact) (string, error) {
	first, last := splitName(c.Name)
	switch s.provider {
	case "hubspot":
		if s.hubspot == nil {
			return "", fmt.Errorf("hubspot client not configured")
		}
		return s.hubspot.UpsertContact(ctx, hubspot.Contact{
			Email:     c.Email,
			FirstName: first,
			LastName:  last,
			Phone:     c.Phone,
			Company:   c.Company,
			JobTitle:  c.JobTitle,
			Industry:  c.Industry,
			Source:    c.Source,
		})
	case "salesforce":
		if s.salesforce == nil {
			return "", fmt.Errorf("salesforce client not configured")
		}
		return s.salesforce.CreateLead(ctx, salesforce.Lead{
			Email:     c.Email,
			FirstName: first,
			LastName:  last,
			Phone:     c.Phone,
			Company:   c.Company,
			Title:     c.JobTitle,
			Industry:  c.Industry,
			Source:    c.Source,
		})
	case "pipedrive":
		if s.pipedrive == nil {
			return "", fmt.Errorf("pipedrive client not configured")
		}
		name := c.Name
		if name == "" {
			name = c.Email
		}
		return s.pipedrive.UpsertPerson(ctx, pipedrive.Person{
			Email: c.Email,
			Name:  name,
			Phone: c.Phone,
			Org:   c.Company,
		})
	default:
		return "", fmt.Errorf("unknown CRM provider %q", s.provider)
	}
}

func (s *crmService) pushNote(ctx context.Context, externalID, title, body string) error {
	var err error
	switch s.provider {
	case "hubspot":
		if s.hubspot == nil {
			return fmt.Errorf("hubspot client not configured")
		}
		_, err = s.hubspot.CreateNote(ctx, externalID, title+"\n\n"+body)
	case "salesforce":
		if s.salesforce == nil {
			return fmt.Errorf("salesforce client not configured")
		}
		_, err = s.salesforce.CreateNote(ctx, externalID, title, body)
	case "pipedrive":
		if s.pipedrive == nil {
			return fmt.Errorf("pipedrive client not configured")
		}
		_, err = s.pipedrive.CreateNote(ctx, externalID, title+"\n\n"+body)
	default:
		err = fmt.Errorf("unknown CRM provider %q", s.provider)
	}
	return err
}

func (s *crmService) pushDeal(ctx context.Context, externalID, name string) error {
	var err error
	switch s.provider {
	case "hubspot":
		if s.hubspot == nil {
			return fmt.Errorf("hubspot client not configured")
		}
		_, err = s.hubspot.CreateDeal(ctx, externalID, name)
	case "salesforce":
		if s.salesforce == nil {
			return fmt.Errorf("salesforce client not configured")
		}
		_, err = s.salesforce.CreateOpportunity(ctx, name)
	case "pipedrive":
		if s.pipedrive == nil {
			return fmt.Errorf("pipedrive client not configured")
		}
		_, err = s.pipedrive.CreateDeal(ctx, externalID, name)
	default:
		err = fmt.Errorf("unknown CRM provider %q", s.provider)
	}
	return err
}

// CreateLeadDeal records a converted lead as a deal (an opportunity on
// Salesforce). The lead is synced first if it never made it to the CRM.
func (s *crmService) CreateLeadDeal(ctx context.Context, leadID uuid.UUID) error {
	if s.provider == "" {
		return nil
	}
	lead, err := s.leadRepo.GetByID(ctx, nil, leadID)
	if err != nil {
		return fmt.Errorf("Failed to load lead %s: %w", leadID, err)
	}
	if lead == nil {
		s.log.Warn("Skipping CRM deal for missing lead", "lead_id", leadID)
		return nil
	}
	if lead.CRMExternalID == "" {
		if sErr := s.SyncLead(ctx, leadID); sErr != nil {
			return sErr
		}
		lead, err = s.leadRepo.GetByID(ctx, nil, leadID)
		if err != nil || lead == nil {
			return fmt.Errorf("Failed to reload lead %s after sync: %w", leadID, err)
		}
	}
	name := lead.Name
	if name == "" {
		name = lead.Email
	}
	if dErr := s.pushDeal(ctx, lead.CRMExternalID, name); dErr != nil {
		return fmt.Errorf("CRM deal creation failed for lead %s: %w", lead.ID, dErr)
	}
	s.log.Info("Created CRM deal for lead", "lead_id", lead.ID)
	return nil
}

// SyncContactSubmission upserts the sender as a CRM contact and attaches the
// submission as a note. A non-empty note overrides the default
// subject/message body; status changes use that to log what happened.
func (s *crmService) SyncContactSubmission(ctx context.Context, submissionID uuid.UUID, note string) error {
	if s.provider == "" {
		return nil
	}
	sub, err := s.contactRepo.GetByID(ctx, nil, submissionID)
	if err != nil {
		return fmt.Errorf("Failed to load contact submission %s: %w", submissionID, err)
	}
	if sub == nil {
		s.log.Warn("Skipping CRM sync for missing submission", "submission_id", submissionID)
		return nil
	}

	externalID := sub.CRMExternalID
	if externalID == "" {
		externalID, err = s.pushContact(ctx, crmContact{
			Email:   sub.Email,
			Name:    sub.Name,
			Phone:   sub.Phone,
			Company: sub.Company,
			Source:  "contact_form",
		})
		if err != nil {
			return fmt.Errorf("CRM sync failed for submission %s: %w", sub.ID, err)
		}
		if uErr := s.contactRepo.UpdateFields(ctx, nil, sub.ID, map[string]interface{}{
			"crm_external_id": externalID,
			"crm_synced_at":   time.Now(),
		}); uErr != nil {
			return fmt.Errorf("Failed to record submission sync result: %w", uErr)
		}
	}

	title := "Contact form submission"
	body := note
	if body == "" {
		body = sub.Message
		if sub.Subject != "" {
			body = "Subject: " + sub.Subject + "\n\n" + sub.Message
		}
	} else {
		title = "Contact submission update"
	}
	if nErr := s.pushNote(ctx, externalID, title, body); nErr != nil {
		return fmt.Errorf("CRM note failed for submission %s: %w", sub.ID, nErr)
	}
	s.log.Info("Synced contact submission to CRM", "submission_id", sub.ID, "external_id", externalID)
	return nil
}

// SyncWaitlistEntry pushes a waitlist signup as a CRM contact with a note
// describing the request.
func (s *crmService) SyncWaitlistEntry(ctx context.Context, entryID uuid.UUID) error {
	if s.provider == "" {
		return nil
	}
	entry, err := s.waitlistRepo.GetByID(ctx, nil, entryID)
	if err != nil {
		return fmt.Errorf("Failed to load waitlist entry %s: %w", entryID, err)
	}
	if entry == nil {
		s.log.Warn("Skipping CRM sync for missing waitlist entry", "entry_id", entryID)
		return nil
	}

	externalID := entry.CRMExternalID
	if externalID == "" {
		externalID, err = s.pushContact(ctx, crmContact{
			Email:    entry.Email,
			Name:     entry.Name,
			Company:  entry.Company,
			JobTitle: entry.Role,
			Industry: entry.Industry,
			Source:   "waitlist",
		})
		if err != nil {
			return fmt.Errorf("CRM sync failed for waitlist entry %s: %w", entry.ID, err)
		}
		if uErr := s.waitlistRepo.UpdateFields(ctx, nil, entry.ID, map[string]interface{}{
			"crm_external_id": externalID,
			"crm_synced_at":   time.Now(),
		}); uErr != nil {
			return fmt.Errorf("Failed to record waitlist sync result: %w", uErr)
		}
	}

	var lines []string
	if entry.UseCase != "" {
		lines = append(lines, "Use case: "+entry.UseCase)
	}
	if entry.CompanySize != "" {
		lines = append(lines, "Company size: "+entry.CompanySize)
	}
	if entry.ReferralSource != "" {
		lines = append(lines, "Heard about us via: "+entry.ReferralSource)
	}
	if len(lines) > 0 {
		if nErr := s.pushNote(ctx, externalID, "Waitlist signup", strings.Join(lines, "\n")); nErr != nil {
			return fmt.Errorf("CRM note failed for waitlist entry %s: %w", entry.ID, nErr)
		}
	}
	s.log.Info("Synced waitlist entry to CRM", "entry_id", entry.ID, "external_id", externalID)
	return nil
}

func splitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	parts := strings.Fields(full)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
