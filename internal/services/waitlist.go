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

type WaitlistJoinInput struct {
	Email          string
	Name           string
	Company        string
	Role           string
	CompanySize    string
	Industry       string
	UseCase        string
	ReferralSource string
	ReferralCode   string
	ClientIP       string
}

type WaitlistJoinResult struct {
	Entry    *types.WaitlistEntry
	Position int64
	Existing bool
}

type WaitlistService interface {
	Join(ctx context.Context, siteID uuid.UUID, input WaitlistJoinInput) (*WaitlistJoinResult, error)
	VerifyEmail(ctx context.Context, token string) (*types.WaitlistEntry, error)
	Position(ctx context.Context, siteID uuid.UUID, email string) (*types.WaitlistEntry, int64, error)
	Invite(ctx context.Context, id uuid.UUID) (*types.WaitlistEntry, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string) (*types.WaitlistEntry, error)
	List(ctx context.Context, siteID uuid.UUID, filter repos.WaitlistFilter) ([]*types.WaitlistEntry, int64, error)
}

type waitlistService struct {
	db           *gorm.DB
	log          *logger.Logger
	waitlistRepo repos.WaitlistEntryRepo
	jobService   JobService
	webhookSvc   WebhookService
}

func NewWaitlistService(
	db *gorm.DB,
	log *logger.Logger,
	waitlistRepo repos.WaitlistEntryRepo,
	jobService JobService,
	webhookSvc WebhookService,
) WaitlistService {
	return &waitlistService{
		db:           db,
		log:          log.With("service", "WaitlistService"),
		waitlistRepo: waitlistRepo,
		jobService:   jobService,
		webhookSvc:   webhookSvc,
	}
}

var execRoleHints = []string{"ceo", "cto", "cfo", "coo", "founder", "chief", "president", "vp", "vice president", "owner", "director"}
var managerRoleHints = []string{"manager", "head of", "lead", "principal"}
var engineerRoleHints = []string{"engineer", "developer", "architect", "programmer"}
var priorityIndustries = []string{"technology", "tech", "software", "saas", "finance", "fintech", "banking", "healthcare", "health", "medical"}

// priorityScore weighs signup attributes into a 0-100 score used for queue
// ordering. Larger companies, senior roles and target industries move up.
func priorityScore(input WaitlistJoinInput, emailVerified bool) int {
	score := 0

	switch strings.TrimSpace(input.CompanySize) {
	case "500+", "501-1000", "1000+":
		score += 30
	case "201-500":
		score += 25
	case "51-200":
		score += 20
	case "11-50":
		score += 15
	case "1-10":
		score += 10
	}

	role := strings.ToLower(input.Role)
	switch {
	case containsAny(role, execRoleHints):
		score += 25
	case containsAny(role, managerRoleHints):
		score += 15
	case containsAny(role, engineerRoleHints):
		score += 10
	}

	if industry := strings.ToLower(strings.TrimSpace(input.Industry)); industry != "" {
		if containsAny(industry, priorityIndustries) {
			score += 10
		} else {
			score += 5
		}
	}

	if strings.TrimSpace(input.Company) != "" {
		score += 5
	}
	if len(strings.TrimSpace(input.UseCase)) > 50 {
		score += 5
	}
	if emailVerified {
		score += 5
	}

	if score > 100 {
		score = 100
	}
	return score
}

func containsAny(s string, hints []string) bool {
	for _, h := range hints {
		if strings.Contains(s, h) {
			return true
		}
	}
	return false
}

func (s *waitlistService) Join(ctx context.Context, siteID uuid.UUID, input WaitlistJoinInput) (*WaitlistJoinResult, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if email == "" {
		return nil, fmt.Errorf("email required")
	}

	existing, err := s.waitlistRepo.GetByEmail(ctx, nil, siteID, email)
	if err != nil {
		return nil, fmt.Errorf("Failed to check existing entry: %w", err)
	}
	if existing != nil {
		ahead, aErr := s.waitlistRepo.CountAheadOf(ctx, nil, siteID, existing.PriorityScore, existing.CreatedAt)
		if aErr != nil {
			return nil, aErr
		}
		return &WaitlistJoinResult{Entry: existing, Position: ahead + 1, Existing: true}, nil
	}

	entry := &types.WaitlistEntry{
		ID:                uuid.New(),
		SiteID:            siteID,
		Email:             email,
		Name:              strings.TrimSpace(input.Name),
		Company:           strings.TrimSpace(input.Company),
		Role:              strings.TrimSpace(input.Role),
		CompanySize:       strings.TrimSpace(input.CompanySize),
		Industry:          strings.TrimSpace(input.Industry),
		UseCase:           strings.TrimSpace(input.UseCase),
		ReferralSource:    strings.TrimSpace(input.ReferralSource),
		ReferralCode:      utils.ShortToken(12),
		Status:            "pending",
		PriorityScore:     priorityScore(input, false),
		VerificationToken: utils.SecureToken(),
		IPAddress:         input.ClientIP,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if code := strings.TrimSpace(input.ReferralCode); code != "" {
			referrer, rErr := s.waitlistRepo.GetByReferralCode(ctx, tx, code)
			if rErr != nil {
				return rErr
			}
			if referrer != nil && referrer.SiteID == siteID {
				entry.ReferredByID = &referrer.ID
				if iErr := s.waitlistRepo.IncrementReferralCount(ctx, tx, referrer.ID); iErr != nil {
					return iErr
				}
				// Each referral nudges the referrer up the queue.
				newScore := referrer.PriorityScore + 5
				if newScore > 100 {
					newScore = 100
				}
				if uErr := s.waitlistRepo.UpdateFields(ctx, tx, referrer.ID, map[string]interface{}{
					"priority_score": newScore,
				}); uErr != nil {
					return uErr
				}
			}
		}

		created, cErr := s.waitlistRepo.Create(ctx, tx, entry)
		if cErr != nil {
			return fmt.Errorf("Failed to create waitlist entry: %w", cErr)
		}
		entry = created

		if s.jobService != nil {
			if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
				SiteID:     &siteID,
				JobType:    JobTypeEmailSend,
				EntityType: "waitlist_entry",
				EntityID:   &entry.ID,
				Payload: map[string]interface{}{
					"template": "waitlist_verification",
					"entry_id": entry.ID.String(),
				},
			}); jErr != nil {
				return jErr
			}
			if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
				SiteID:     &siteID,
				JobType:    JobTypeCRMSync,
				EntityType: "waitlist_entry",
				EntityID:   &entry.ID,
				Payload:    map[string]interface{}{"waitlist_entry_id": entry.ID.String()},
			}); jErr != nil {
				return jErr
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.webhookSvc != nil {
		if _, wErr := s.webhookSvc.Dispatch(ctx, siteID, "waitlist.joined", map[string]interface{}{
			"entry_id":       entry.ID.String(),
			"email":          entry.Email,
			"priority_score": entry.PriorityScore,
		}); wErr != nil {
			s.log.Warn("Failed to dispatch waitlist webhook", "error", wErr)
		}
	}

	ahead, err := s.waitlistRepo.CountAheadOf(ctx, nil, siteID, entry.PriorityScore, entry.CreatedAt)
	if err != nil {
		return nil, err
	}
	position := ahead + 1
	_ = s.waitlistRepo.UpdateFields(ctx, nil, entry.ID, map[string]interface{}{"position": position})
	entry.Position = int(position)
	return &WaitlistJoinResult{Entry: entry, Position: position}, nil
}

func (s *waitlistService) VerifyEmail(ctx context.Context, token string) (*types.WaitlistEntry, error) {
	entry, err := s.waitlistRepo.GetByVerificationToken(ctx, nil, token)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("invalid verification token")
	}
	if entry.EmailVerified {
		return entry, nil
	}
	newScore := entry.PriorityScore + 5
	if newScore > 100 {
		newScore = 100
	}
	if uErr := s.waitlistRepo.UpdateFields(ctx, nil, entry.ID, map[string]interface{}{
		"email_verified":     true,
		"verification_token": "",
		"priority_score":     newScore,
	}); uErr != nil {
		return nil, uErr
	}
	entry.EmailVerified = true
	entry.PriorityScore = newScore
	return entry, nil
}

func (s *waitlistService) Position(ctx context.Context, siteID uuid.UUID, email string) (*types.WaitlistEntry, int64, error) {
	entry, err := s.waitlistRepo.GetByEmail(ctx, nil, siteID, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		return nil, 0, err
	}
	if entry == nil {
		return nil, 0, fmt.Errorf("entry not found")
	}
	ahead, err := s.waitlistRepo.CountAheadOf(ctx, nil, siteID, entry.PriorityScore, entry.CreatedAt)
	if err != nil {
		return nil, 0, err
	}
	return entry, ahead + 1, nil
}

func (s *waitlistService) Invite(ctx context.Context, id uuid.UUID) (*types.WaitlistEntry, error) {
	entry, err := s.waitlistRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("entry not found")
	}
	if entry.Status != "pending" {
		return nil, fmt.Errorf("entry is %q, only pending entries can be invited", entry.Status)
	}
	now := time.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if uErr := s.waitlistRepo.UpdateFields(ctx, tx, id, map[string]interface{}{
			"status":     "invited",
			"invited_at": now,
		}); uErr != nil {
			return uErr
		}
		if s.jobService != nil {
			if _, jErr := s.jobService.Enqueue(ctx, tx, EnqueueInput{
				SiteID:     &entry.SiteID,
				JobType:    JobTypeEmailSend,
				EntityType: "waitlist_entry",
				EntityID:   &entry.ID,
				Payload: map[string]interface{}{
					"template": "waitlist_invitation",
					"entry_id": entry.ID.String(),
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
	entry.Status = "invited"
	entry.InvitedAt = &now
	return entry, nil
}

// validWaitlistTransitions gates the admin lifecycle. Invite has its own
// path because it also sends the invitation email.
var validWaitlistTransitions = map[string][]string{
	"pending":   {"approved", "declined"},
	"invited":   {"approved", "onboarded", "declined"},
	"approved":  {"onboarded", "declined"},
	"declined":  {},
	"onboarded": {},
}

// UpdateStatus moves an entry through approve/decline/onboard, or just
// rewrites the admin notes when status is empty. Onboarding stamps
// converted_at.
func (s *waitlistService) UpdateStatus(ctx context.Context, id uuid.UUID, status, notes string) (*types.WaitlistEntry, error) {
	entry, err := s.waitlistRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, fmt.Errorf("entry not found")
	}

	updates := map[string]interface{}{}
	if status != "" && status != entry.Status {
		allowed := false
		for _, next := range validWaitlistTransitions[entry.Status] {
			if next == status {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, fmt.Errorf("cannot move entry from %q to %q", entry.Status, status)
		}
		updates["status"] = status
		if status == "onboarded" {
			updates["converted_at"] = time.Now()
		}
	}
	if notes != "" {
		updates["notes"] = notes
	}
	if len(updates) == 0 {
		return entry, nil
	}
	if uErr := s.waitlistRepo.UpdateFields(ctx, nil, id, updates); uErr != nil {
		return nil, uErr
	}
	updated, err := s.waitlistRepo.GetByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	if newStatus, ok := updates["status"].(string); ok && s.webhookSvc != nil {
		if _, wErr := s.webhookSvc.Dispatch(ctx, entry.SiteID, "waitlist."+newStatus, map[string]interface{}{
			"entry_id": entry.ID.String(),
			"email":    entry.Email,
		}); wErr != nil {
			s.log.Warn("Failed to dispatch waitlist status webhook", "error", wErr)
		}
	}
	return updated, nil
}

func (s *waitlistService) List(ctx context.Context, siteID uuid.UUID, filter repos.WaitlistFilter) ([]*types.WaitlistEntry, int64, error) {
	return s.waitlistRepo.ListBySite(ctx, nil, siteID, filter)
}
