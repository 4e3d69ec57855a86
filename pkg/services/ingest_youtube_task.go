package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// IngestYouTubeTask fetches the user's YouTube watch history and
// records it. Marked as a provider task because the fetch hits the
// Google API.
type IngestYouTubeTask struct {
	workqueue.BaseTask
	youtubeSvc *YouTubeService
	ingestSvc  *IngestionService
	embedSvc   *EmbeddingService
	jobSvc     *JobService
	logger     *zap.Logger
	jobID      string
	userID     uuid.UUID
	token      *oauth2.Token
}

// NewIngestYouTubeTask creates a new YouTube ingestion task. token may
// be nil in mock mode.
func NewIngestYouTubeTask(
	youtubeSvc *YouTubeService,
	ingestSvc *IngestionService,
	embedSvc *EmbeddingService,
	jobSvc *JobService,
	logger *zap.Logger,
	jobID string,
	userID uuid.UUID,
	token *oauth2.Token,
) *IngestYouTubeTask {
	return &IngestYouTubeTask{
		BaseTask:   workqueue.NewBaseTask("Ingest YouTube history", true),
		youtubeSvc: youtubeSvc,
		ingestSvc:  ingestSvc,
		embedSvc:   embedSvc,
		jobSvc:     jobSvc,
		logger:     logger,
		jobID:      jobID,
		userID:     userID,
		token:      token,
	}
}

// Execute implements workqueue.Task.
func (t *IngestYouTubeTask) Execute(ctx context.Context, enqueuer workqueue.TaskEnqueuer) error {
	t.jobSvc.MarkRunning(ctx, t.jobID)

	entries, err := t.youtubeSvc.FetchHistory(ctx, t.token)
	if err != nil {
		return fmt.Errorf("fetch youtube history: %w", err)
	}

	// YouTube videos have no TMDB presence, so they skip enrichment and
	// embed on title alone.
	result, err := t.ingestSvc.IngestYouTubeHistory(ctx, t.userID, entries, func(item *models.Item) {
		embedJob, jobErr := t.jobSvc.Create(ctx, models.JobKindItemEmbedding)
		if jobErr != nil {
			t.logger.Warn("failed to create embedding job record",
				zap.String("item_id", item.ID.String()),
				zap.Error(jobErr))
			return
		}
		enqueuer.Enqueue(NewItemEmbeddingTask(t.embedSvc, t.jobSvc, embedJob.ID, item.ID))
	}, func(done, total int) {
		t.jobSvc.SetProgress(ctx, t.jobID, done*100/total)
	})
	if err != nil {
		return fmt.Errorf("ingest youtube history: %w", err)
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
func (t *IngestYouTubeTask) OnFailure(ctx context.Context, err error) {
	t.jobSvc.Fail(ctx, t.jobID, err)
}
