package services

import (
	"context"
	"encoding/json"
	"fmt"
	"github.com/google/uuid"
	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/types"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	JobTypeWebhookDeliver    = "webhook.deliver"
	JobTypeWebhookRetrySweep = "webhook.retry_sweep"
	JobTypeCRMSync           = "crm.sync"
	JobTypeEmailSend         = "email.send"
	JobTypeRetentionSweep    = "gdpr.retention_sweep"
	JobTypeABTestStats       = "abtest.refresh_stats"
	JobTypeExternalTrack     = "analytics.external_track"
)

type EnqueueInput struct {
	SiteID     *uuid.UUID
	JobType    string
	EntityType string
	EntityID   *uuid.UUID
	Payload    map[string]interface{}
}

type JobService interface {
	Enqueue(ctx context.Context, tx *gorm.DB, input EnqueueInput) (*types.JobRun, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*types.JobRun, error)
}

type jobService struct {
	db         *gorm.DB
	log        *logger.Logger
	jobRunRepo repos.JobRunRepo
}

func NewJobService(db *gorm.DB, log *logger.Logger, jobRunRepo repos.JobRunRepo) JobService {
	return &jobService{
		db:         db,
		log:        log.With("service", "JobService"),
		jobRunRepo: jobRunRepo,
	}
}

func (s *jobService) Enqueue(ctx context.Context, tx *gorm.DB, input EnqueueInput) (*types.JobRun, error) {
	if input.JobType == "" {
		return nil, fmt.Errorf("job type required")
	}
	var payload datatypes.JSON
	if input.Payload != nil {
		raw, err := json.Marshal(input.Payload)
		if err != nil {
			return nil, fmt.Errorf("Failed to marshal job payload: %w", err)
		}
		payload = datatypes.JSON(raw)
	}
	job := &types.JobRun{
		ID:         uuid.New(),
		SiteID:     input.SiteID,
		JobType:    input.JobType,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		Status:     "queued",
		Payload:    payload,
	}
	created, err := s.jobRunRepo.Create(ctx, tx, []*types.JobRun{job})
	if err != nil {
		return nil, fmt.Errorf("Failed to enqueue job: %w", err)
	}
	return created[0], nil
}

func (s *jobService) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*types.JobRun, error) {
	return s.jobRunRepo.GetByIDs(ctx, nil, ids)
}
