package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// IngestNetflixTask processes an uploaded Netflix viewing activity
// export. It's a data task; every item it creates fans out into an
// enrichment task.
type IngestNetflixTask struct {
	workqueue.BaseTask
	ingestSvc *IngestionService
	enrichSvc *EnrichmentService
	embedSvc  *EmbeddingService
	jobSvc    *JobService
	logger    *zap.Logger
	jobID     string
	userID    uuid.UUID
	csvData   []byte
}

// NewIngestNetflixTask creates a new Netflix ingestion task bound to a
// job record.
func NewIngestNetflixTask(
	ingestSvc *IngestionService,
	enrichSvc *EnrichmentService,
	embedSvc *EmbeddingService,
	jobSvc *JobService,
	logger *zap.Logger,
	jobID string,
	userID uuid.UUID,
	csvData []byte,
) *IngestNetflixTask {
	return &IngestNetflixTask{
		BaseTask:  workqueue.NewBaseTask("Ingest Netflix history", false),
		ingestSvc: ingestSvc,
		enrichSvc: enrichSvc,
		embedSvc:  embedSvc,
		jobSvc:    jobSvc,
		logger:    logger,
		jobID:     jobID,
		userID:    userID,
		csvData:   csvData,
	}
}

// Execute implements workqueue.Task.
func (t *IngestNetflixTask) Execute(ctx context.Context, enqueuer workqueue.TaskEnqueuer) error {
	t.jobSvc.MarkRunning(ctx, t.jobID)

	result, err := t.ingestSvc.IngestNetflixCSV(ctx, t.userID, bytes.NewReader(t.csvData), func(item *models.Item) {
		enrichJob, jobErr := t.jobSvc.Create(ctx, models.JobKindEnrichItem)
		if jobErr != nil {
			t.logger.Warn("failed to create enrichment job record",
				zap.String("item_id", item.ID.String()),
				zap.Error(jobErr))
			return
		}
		enqueuer.Enqueue(NewEnrichItemTask(t.enrichSvc, t.embedSvc, t.jobSvc, t.logger, enrichJob.ID, item.ID))
	}, func(done, total int) {
		t.jobSvc.SetProgress(ctx, t.jobID, done*100/total)
	})
	if err != nil {
		return fmt.Errorf("ingest netflix csv: %w", err)
	}

	t.jobSvc.Succeed(ctx, t.jobID, map[string]any{
		"items_created":  result.ItemsCreated,
		"items_matched":  result.ItemsMatched,
		"events_created": result.EventsCreated,
		"rows_skipped":   result.RowsSkipped,
	})
	return nil
}

// OnFailure implements workqueue.FailureReporter.
func (t *IngestNetflixTask) OnFailure(ctx context.Context, err error) {
	t.jobSvc.Fail(ctx, t.jobID, err)
}
