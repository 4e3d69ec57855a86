package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/models"
)

// JobService tracks the externally visible state of background work.
// Tasks report progress here; handlers hand out the job ID immediately
// and serve polls from the store.
type JobService struct {
	store  JobStore
	logger *zap.Logger
}

// NewJobService creates a new job service.
func NewJobService(store JobStore, logger *zap.Logger) *JobService {
	return &JobService{
		store:  store,
		logger: logger.Named("jobs"),
	}
}

// Create registers a new pending job and returns its record.
func (s *JobService) Create(ctx context.Context, kind string) (*models.Job, error) {
	now := time.Now().UTC()
	job := &models.Job{
		ID:        uuid.New().String(),
		Kind:      kind,
		Status:    models.JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// MarkRunning transitions a job to running.
func (s *JobService) MarkRunning(ctx context.Context, id string) {
	s.update(ctx, id, func(job *models.Job) {
		job.Status = models.JobStatusRunning
	})
}

// SetProgress records batch progress (0-100).
func (s *JobService) SetProgress(ctx context.Context, id string, progress int) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.update(ctx, id, func(job *models.Job) {
		job.Progress = progress
	})
}

// Succeed marks the job finished with its result payload.
func (s *JobService) Succeed(ctx context.Context, id string, result map[string]any) {
	s.update(ctx, id, func(job *models.Job) {
		job.Status = models.JobStatusSucceeded
		job.Progress = 100
		job.Result = result
	})
}

// Fail marks the job failed with the error message.
func (s *JobService) Fail(ctx context.Context, id string, err error) {
	s.update(ctx, id, func(job *models.Job) {
		job.Status = models.JobStatusFailed
		if err != nil {
			job.Error = err.Error()
		}
	})
}

// Get returns a job record by ID.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.store.Get(ctx, id)
}

// List returns all known job records, newest first.
func (s *JobService) List(ctx context.Context) ([]*models.Job, error) {
	return s.store.List(ctx)
}

// update applies a mutation read-modify-write. Store failures are
// logged, not propagated: job bookkeeping must never fail the work
// itself.
func (s *JobService) update(ctx context.Context, id string, mutate func(*models.Job)) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		s.logger.Warn("job record not found for update", zap.String("job_id", id), zap.Error(err))
		return
	}

	mutate(job)
	job.UpdatedAt = time.Now().UTC()

	if err := s.store.Save(ctx, job); err != nil {
		s.logger.Warn("failed to save job update", zap.String("job_id", id), zap.Error(err))
	}
}
