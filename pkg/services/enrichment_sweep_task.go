package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

const (
	// maxEnrichAttempts caps how often an item is retried against TMDB
	// before the sweep stops picking it up.
	maxEnrichAttempts = 3
	// enrichSweepLimit bounds one sweep so a large backlog drains over
	// several restarts instead of flooding the provider lane.
	enrichSweepLimit = 500
)

// EnrichmentSweepTask re-enqueues enrichment for items that never got a
// confident TMDB match and are still below the attempt cap. Runs at
// startup so items stranded by a provider outage get another pass on
// the next boot. Data task: it only reads the catalog; the work it fans
// out is what hits the provider.
type EnrichmentSweepTask struct {
	workqueue.BaseTask
	itemRepo  repositories.ItemRepository
	enrichSvc *EnrichmentService
	embedSvc  *EmbeddingService
	jobSvc    *JobService
	logger    *zap.Logger
}

// NewEnrichmentSweepTask creates the pending-enrichment sweep.
func NewEnrichmentSweepTask(
	itemRepo repositories.ItemRepository,
	enrichSvc *EnrichmentService,
	embedSvc *EmbeddingService,
	jobSvc *JobService,
	logger *zap.Logger,
) *EnrichmentSweepTask {
	return &EnrichmentSweepTask{
		BaseTask:  workqueue.NewBaseTask("Sweep pending enrichment", false),
		itemRepo:  itemRepo,
		enrichSvc: enrichSvc,
		embedSvc:  embedSvc,
		jobSvc:    jobSvc,
		logger:    logger,
	}
}

// Execute implements workqueue.Task.
func (t *EnrichmentSweepTask) Execute(ctx context.Context, enqueuer workqueue.TaskEnqueuer) error {
	items, err := t.itemRepo.ListPendingEnrichment(ctx, maxEnrichAttempts, enrichSweepLimit)
	if err != nil {
		return fmt.Errorf("list pending enrichment: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	enqueued := 0
	for _, item := range items {
		// YouTube videos never enrich; they embed on title alone.
		if item.Source == models.SourceYouTube {
			continue
		}
		job, jobErr := t.jobSvc.Create(ctx, models.JobKindEnrichItem)
		if jobErr != nil {
			t.logger.Warn("failed to create enrichment job record",
				zap.String("item_id", item.ID.String()),
				zap.Error(jobErr))
			continue
		}
		enqueuer.Enqueue(NewEnrichItemTask(t.enrichSvc, t.embedSvc, t.jobSvc, t.logger, job.ID, item.ID))
		enqueued++
	}

	t.logger.Info("enrichment sweep enqueued retries",
		zap.Int("pending", len(items)),
		zap.Int("enqueued", enqueued))
	return nil
}
