package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// ItemEmbeddingTask generates and stores the embedding vector for one
// enriched item. Provider task.
type ItemEmbeddingTask struct {
	workqueue.BaseTask
	embedSvc *EmbeddingService
	jobSvc   *JobService
	jobID    string
	itemID   uuid.UUID
}

// NewItemEmbeddingTask creates a new embedding task for one item.
func NewItemEmbeddingTask(
	embedSvc *EmbeddingService,
	jobSvc *JobService,
	jobID string,
	itemID uuid.UUID,
) *ItemEmbeddingTask {
	return &ItemEmbeddingTask{
		BaseTask: workqueue.NewBaseTask(fmt.Sprintf("Embed item %s", itemID), true),
		embedSvc: embedSvc,
		jobSvc:   jobSvc,
		jobID:    jobID,
		itemID:   itemID,
	}
}

// Execute implements workqueue.Task.
func (t *ItemEmbeddingTask) Execute(ctx context.Context, _ workqueue.TaskEnqueuer) error {
	t.jobSvc.MarkRunning(ctx, t.jobID)

	if err := t.embedSvc.EmbedItem(ctx, t.itemID); err != nil {
		return fmt.Errorf("embed item: %w", err)
	}

	t.jobSvc.Succeed(ctx, t.jobID, map[string]any{
		"item_id": t.itemID.String(),
	})
	return nil
}

// OnFailure implements workqueue.FailureReporter.
func (t *ItemEmbeddingTask) OnFailure(ctx context.Context, err error) {
	t.jobSvc.Fail(ctx, t.jobID, err)
}
