package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
	"github.com/a-s-adam/streamlink/pkg/metadata"
	"github.com/a-s-adam/streamlink/pkg/models"
)

// A failed attempt must leave the job running: the queue may retry it,
// and a poller that sees "failed" stops watching. Only OnFailure, which
// the queue calls after giving up, moves the job to failed.
func TestEnrichItemTask_JobStaysRunningUntilFinalFailure(t *testing.T) {
	ctx := context.Background()
	jobSvc := NewJobService(NewMemoryJobStore(), zap.NewNop())
	job, err := jobSvc.Create(ctx, models.JobKindEnrichItem)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Empty repo: every lookup errors, so Execute always fails.
	repo := &enrichItemRepo{}
	tmdb := metadata.NewClient(&config.TMDBConfig{BaseURL: "http://unused", APIKey: "test-key"})
	enrichSvc := NewEnrichmentService(repo, tmdb, zap.NewNop())

	task := NewEnrichItemTask(enrichSvc, nil, jobSvc, zap.NewNop(), job.ID, uuid.New())
	if err := task.Execute(ctx, &recordingEnqueuer{}); err == nil {
		t.Fatal("expected error, got nil")
	}

	got, _ := jobSvc.Get(ctx, job.ID)
	if got.Status != models.JobStatusRunning {
		t.Errorf("status after a failed attempt = %q, want running", got.Status)
	}

	task.OnFailure(ctx, errors.New("item lookup: not found"))
	got, _ = jobSvc.Get(ctx, job.ID)
	if got.Status != models.JobStatusFailed {
		t.Errorf("status after OnFailure = %q, want failed", got.Status)
	}
	if got.Error == "" {
		t.Error("expected the final error recorded on the job")
	}
}
