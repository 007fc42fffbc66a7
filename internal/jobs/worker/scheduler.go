package worker

import (
	"context"
	"time"

	"github.com/vjbollavarapu/sitebackend/internal/logger"
	"github.com/vjbollavarapu/sitebackend/internal/repos"
	"github.com/vjbollavarapu/sitebackend/internal/services"
)

// Scheduler enqueues the recurring sweep jobs on fixed intervals. Each tick
// is skipped while a previous sweep of the same type is still queued or
// running, so a slow sweep never stacks up behind itself.
type Scheduler struct {
	log        *logger.Logger
	jobRepo    repos.JobRunRepo
	jobService services.JobService
}

func NewScheduler(baseLog *logger.Logger, jobRepo repos.JobRunRepo, jobService services.JobService) *Scheduler {
	return &Scheduler{
		log:        baseLog.With("component", "JobScheduler"),
		jobRepo:    jobRepo,
		jobService: jobService,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx, services.JobTypeWebhookRetrySweep, 1*time.Minute)
	go s.loop(ctx, services.JobTypeABTestStats, 15*time.Minute)
	go s.loop(ctx, services.JobTypeRetentionSweep, 24*time.Hour)
}

func (s *Scheduler) loop(ctx context.Context, jobType string, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pending, err := s.jobRepo.HasPending(ctx, nil, jobType)
			if err != nil {
				s.log.Warn("Pending check failed", "job_type", jobType, "error", err)
				continue
			}
			if pending {
				continue
			}
			if _, err := s.jobService.Enqueue(ctx, nil, services.EnqueueInput{JobType: jobType}); err != nil {
				s.log.Warn("Failed to enqueue scheduled job", "job_type", jobType, "error", err)
			}
		}
	}
}
