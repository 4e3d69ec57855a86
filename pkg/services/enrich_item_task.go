package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// EnrichItemTask looks one item up on TMDB. It's a provider task, so
// the queue serializes it against other provider calls. A confident
// match chains into an embedding task; a miss finishes the job without
// error, leaving the item for a later retry pass.
type EnrichItemTask struct {
	workqueue.BaseTask
	enrichSvc *EnrichmentService
	embedSvc  *EmbeddingService
	jobSvc    *JobService
	logger    *zap.Logger
	jobID     string
	itemID    uuid.UUID
}

// NewEnrichItemTask creates a new enrichment task for one item.
func NewEnrichItemTask(
	enrichSvc *EnrichmentService,
	embedSvc *EmbeddingService,
	jobSvc *JobService,
	logger *zap.Logger,
	jobID string,
	itemID uuid.UUID,
) *EnrichItemTask {
	return &EnrichItemTask{
		BaseTask:  workqueue.NewBaseTask(fmt.Sprintf("Enrich item %s", itemID), true),
		enrichSvc: enrichSvc,
		embedSvc:  embedSvc,
		jobSvc:    jobSvc,
		logger:    logger,
		jobID:     jobID,
		itemID:    itemID,
	}
}

// Execute implements workqueue.Task.
func (t *EnrichItemTask) Execute(ctx context.Context, enqueuer workqueue.TaskEnqueuer) error {
	t.jobSvc.MarkRunning(ctx, t.jobID)

	err := t.enrichSvc.EnrichItem(ctx, t.itemID)
	if errors.Is(err, apperrors.ErrEnrichmentMiss) {
		t.jobSvc.Succeed(ctx, t.jobID, map[string]any{
			"status":  "no_match",
			"item_id": t.itemID.String(),
		})
		return nil
	}
	if err != nil {
		// The queue may retry this; the job only fails via OnFailure.
		return fmt.Errorf("enrich item: %w", err)
	}

	t.jobSvc.SetProgress(ctx, t.jobID, 50)

	embedJob, jobErr := t.jobSvc.Create(ctx, models.JobKindItemEmbedding)
	if jobErr != nil {
		t.logger.Warn("failed to create embedding job record",
			zap.String("item_id", t.itemID.String()),
			zap.Error(jobErr))
	} else {
		enqueuer.Enqueue(NewItemEmbeddingTask(t.embedSvc, t.jobSvc, embedJob.ID, t.itemID))
	}

	t.jobSvc.Succeed(ctx, t.jobID, map[string]any{
		"status":  "enriched",
		"item_id": t.itemID.String(),
	})
	return nil
}

// OnFailure implements workqueue.FailureReporter.
func (t *EnrichItemTask) OnFailure(ctx context.Context, err error) {
	t.jobSvc.Fail(ctx, t.jobID, err)
}
