package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

// RefreshRecommendationsTask recomputes one user's recommendation set.
// Data task: it only reads stored embeddings.
type RefreshRecommendationsTask struct {
	workqueue.BaseTask
	recommenderSvc *RecommenderService
	jobSvc         *JobService
	jobID          string
	userID         uuid.UUID
}

// NewRefreshRecommendationsTask creates a new refresh task for a user.
func NewRefreshRecommendationsTask(
	recommenderSvc *RecommenderService,
	jobSvc *JobService,
	jobID string,
	userID uuid.UUID,
) *RefreshRecommendationsTask {
	return &RefreshRecommendationsTask{
		BaseTask:       workqueue.NewBaseTask(fmt.Sprintf("Refresh recommendations for %s", userID), false),
		recommenderSvc: recommenderSvc,
		jobSvc:         jobSvc,
		jobID:          jobID,
		userID:         userID,
	}
}

// Execute implements workqueue.Task.
func (t *RefreshRecommendationsTask) Execute(ctx context.Context, _ workqueue.TaskEnqueuer) error {
	t.jobSvc.MarkRunning(ctx, t.jobID)

	count, err := t.recommenderSvc.Refresh(ctx, t.userID)
	if err != nil {
		return fmt.Errorf("refresh recommendations: %w", err)
	}

	t.jobSvc.Succeed(ctx, t.jobID, map[string]any{
		"recommendations_created": count,
		"user_id":                 t.userID.String(),
	})
	return nil
}

// OnFailure implements workqueue.FailureReporter.
func (t *RefreshRecommendationsTask) OnFailure(ctx context.Context, err error) {
	t.jobSvc.Fail(ctx, t.jobID, err)
}
