package services

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/gorm"
	"strings"
	"time"
)

type LeadCaptureInput struct {
	Email       string
	Name        string
	Phone       string
	Company     string
	JobTitle    string
	Industry    string
	Source      string
	Medium      string
	Campaign    string
	LandingPage string
}

type LeadService interface {
	Capture(ctx context.Context, siteID uuid.UUID, input LeadCaptureInput) (*types.Lead, bool, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Lead, error)
	List(ctx context.Context, siteID uuid.UUID, filter repos.LeadFilter) ([]*types.Lead, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.Lead, error)
}

type leadService struct {
	db         *gorm.DB
	log        *logger.Logger
	leadRepo   repos.LeadRepo
	jobService JobService
	webhookSvc WebhookService
}

func NewLeadService(
	db *gorm.DB,
	log *logger.Logger,
	leadRepo repos.LeadRepo,
	jobService JobService,
	webhookSvc WebhookService,
) LeadService {
	return &leadService{
		db:         db,
		log:        log.With("service", "LeadService"),
		leadRepo:   leadRepo,
		jobService: jobService,
		webhookSvc: webhookSvc,
	}
}

// leadScore rewards completeness: richer profiles are easier to qualify.
func leadScore(lead *types.Lead) int {
	score := 0
	if strings.TrimSpace(lead.Company) != "" {
		score += 10
	}
	if strings.TrimSpace(lead.JobTitle) != "" {
		score += 10
	}
	if strings.TrimSpace(lead.Phone) != "" {
		score += 5
	}
	if strings.TrimSpace(lead.Industry) != "" {
		score += 5
	}
	if score > 100 {
		score = 100
	}
	return score
}

// Capture upserts on (site, email). A repeat capture merges newly provided
// fields into the existing lead and rescores it. The bool result reports
// whether the lead is new.
func (s *leadService) Capture(ctx context.Context, siteID uuid.UUID, input LeadCaptureInput) (*types.Lead, bool, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, false, fmt.Errorf("email required")
	}

	existing, err := s.leadRepo.GetByEmail(ctx, nil, siteID, email)
	if err != nil {
		return nil, false, fmt.Errorf("Failed to check existing lead: %w", err)
	}

	if existing != nil {
		updates := map[string]interface{}{}
		merge := func(column, current, incoming string) {
			if strings.TrimSpace(current) == "" && strings.TrimSpace(incoming) != "" {
				updates[column] = strings.TrimSpace(incoming)
			}
		}
		merge("name", existing.Name, input.Name)
		merge("phone", existing.Phone, input.Phone)
		merge("company", existing.Company, input.Company)
		merge("job_title", existing.JobTitle, input.JobTitle)
		merge("industry", existing.Industry, input.Industry)
		if len(updates) > 0 {
			if uErr := s.leadRepo.UpdateFields(ctx, nil, existing.ID, updates); uErr != nil {
				return nil, false, uErr
			}
			refreshed, gErr := s.leadRepo.GetByID(ctx, nil, existing.ID)
			if gErr != nil {
				return nil, false, gErr
			}
			existing = refreshed
			if sErr := s.leadRepo.UpdateFields(ctx, nil, existing.ID, map[string]interface{}{
				"score": leadScore(existing),
			}); sErr != nil {
				return nil, false, sErr
			}
			existing.Score = leadScore(existing)
		}
		return existing, false, nil
	}

	lead := &types.Lead{
		ID:          uuid.New(),
		SiteID:      siteID,
		Email:       email,
		Name:        strings.TrimSpace(input.Name),
		Phone:       strings.TrimSpace(input.Phone),
		Company:     strings.TrimSpace(input.Company),
		JobTitle:    strings.TrimSpace(input.JobTitle),
		Industry:    strings.TrimSpace(input.Industry),
		Source:      strings.TrimSpace(input.Source),
		Medium:      strings.TrimSpace(input.Medium),
		Campaign:    strings.TrimSpace(input.Campaign),
		LandingPage: strings.TrimSpace(input.LandingPage),
		Status:      "new",
	}
	lead.Score = leadScore(lead)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, cErr := s.leadRepo.Create(ctx, tx, lead)
		if cErr != nil {
			return fmt.Errorf("Failed to create lead: %w", cErr)
		}
		lead = created
		if s.jobService != nil {
			if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
				SiteID:     &siteID,
				JobType:    JobTypeCRMSync,
				EntityType: "lead",
				EntityID:   &lead.ID,
				Payload:    map[string]interface{}{"lead_id": lead.ID.String()},
			}); jErr != nil {
				return jErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if s.webhookSvc != nil {
		if _, wErr := s.webhookSvc.Dispatch(ctx, siteID, "lead.captured", map[string]interface{}{
			"lead_id": lead.ID.String(),
			"email":   lead.Email,
			"score":   lead.Score,
			"source":  lead.Source,
		}); wErr != nil {
			s.log.Warn("Failed to dispatch lead webhook", "error", wErr)
		}
	}
	return lead, true, nil
}

func (s *leadService) Get(ctx context.Context, id uuid.UUID) (*types.Lead, error) {
	return s.leadRepo.GetByID(ctx, nil, id)
}

func (s *leadService) List(ctx context.Context, siteID uuid.UUID, filter repos.LeadFilter) ([]*types.Lead, int64, error) {
	return s.leadRepo.ListBySite(ctx, nil, siteID, filter)
}

var validLeadStatuses = map[string]bool{
	"new": true, "qualified": true, "contacted": true, "converted": true, "lost": true,
}

// leadLifecycleStage maps a status onto the coarser funnel stage CRMs track.
func leadLifecycleStage(status string) string {
	switch status {
	case "qualified", "contacted":
		return "marketing_qualified"
	case "converted":
		return "customer"
	default:
		return "lead"
	}
}

func (s *leadService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*types.Lead, error) {
	if !validLeadStatuses[status] {
		return nil, fmt.Errorf("invalid lead status %q", status)
	}
	lead, err := s.leadRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if lead == nil {
		return nil, fmt.Errorf("lead not found")
	}

	updates := map[string]interface{}{
		"status":          status,
		"lifecycle_stage": leadLifecycleStage(status),
	}
	converting := status == "converted" && lead.ConvertedAt == nil
	if converting {
		updates["converted_at"] = time.Now()
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if uErr := s.leadRepo.UpdateFields(ctx, tx, id, updates); uErr != nil {
			return uErr
		}
		if converting && s.jobService != nil {
			// Conversion also becomes a deal on the CRM side.
			if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
				SiteID:     &lead.SiteID,
				JobType:    JobTypeCRMSync,
				EntityType: "lead",
				EntityID:   &lead.ID,
				Payload: map[string]interface{}{
					"lead_id":     lead.ID.String(),
					"create_deal": true,
				},
			}); jErr != nil {
				return jErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.webhookSvc != nil && (status == "qualified" || status == "converted") {
		event := "lead.qualified"
		if status == "converted" {
			event = "lead.converted"
		}
		if _, wErr := s.webhookSvc.Dispatch(ctx, lead.SiteID, event, map[string]interface{}{
			"lead_id": lead.ID.String(),
			"email":   lead.Email,
			"status":  status,
		}); wErr != nil {
			s.log.Warn("Failed to dispatch lead webhook", "error", wErr)
		}
	}
	return s.leadRepo.GetByID(ctx, nil, id)
}
