package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
)

func TestMemoryJobStore_SaveGetList(t *testing.T) {
	store := NewMemoryJobStore()
	ctx := context.Background()

	older := &models.Job{
		ID:        "job-a",
		Kind:      models.JobKindIngestNetflix,
		Status:    models.JobStatusPending,
		CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	newer := &models.Job{
		ID:        "job-b",
		Kind:      models.JobKindEnrichItem,
		Status:    models.JobStatusPending,
		CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}

	if err := store.Save(ctx, older); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Save(ctx, newer); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, "job-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Kind != models.JobKindIngestNetflix {
		t.Errorf("kind = %q", got.Kind)
	}

	// The store hands out copies; mutating one must not leak back.
	got.Status = models.JobStatusFailed
	again, _ := store.Get(ctx, "job-a")
	if again.Status != models.JobStatusPending {
		t.Error("store returned a shared pointer")
	}

	jobs, err := store.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != "job-b" || jobs[1].ID != "job-a" {
		t.Errorf("expected newest first, got %s then %s", jobs[0].ID, jobs[1].ID)
	}
}

func TestMemoryJobStore_GetMissing(t *testing.T) {
	store := NewMemoryJobStore()
	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJobService_Lifecycle(t *testing.T) {
	svc := NewJobService(NewMemoryJobStore(), zap.NewNop())
	ctx := context.Background()

	job, err := svc.Create(ctx, models.JobKindRefreshRecommendations)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ID == "" {
		t.Fatal("expected a job id")
	}
	if job.Status != models.JobStatusPending {
		t.Errorf("status = %q, want pending", job.Status)
	}
	if job.Terminal() {
		t.Error("pending job should not be terminal")
	}

	svc.MarkRunning(ctx, job.ID)
	got, _ := svc.Get(ctx, job.ID)
	if got.Status != models.JobStatusRunning {
		t.Errorf("status = %q, want running", got.Status)
	}

	svc.SetProgress(ctx, job.ID, 150)
	got, _ = svc.Get(ctx, job.ID)
	if got.Progress != 100 {
		t.Errorf("progress = %d, want clamp to 100", got.Progress)
	}

	svc.Succeed(ctx, job.ID, map[string]any{"items_created": 3})
	got, _ = svc.Get(ctx, job.ID)
	if got.Status != models.JobStatusSucceeded {
		t.Errorf("status = %q, want succeeded", got.Status)
	}
	if !got.Terminal() {
		t.Error("succeeded job should be terminal")
	}
	if got.Result["items_created"] != 3 {
		t.Errorf("result = %v", got.Result)
	}
}

func TestJobService_Fail(t *testing.T) {
	svc := NewJobService(NewMemoryJobStore(), zap.NewNop())
	ctx := context.Background()

	job, err := svc.Create(ctx, models.JobKindItemEmbedding)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.Fail(ctx, job.ID, errors.New("provider down"))
	got, _ := svc.Get(ctx, job.ID)
	if got.Status != models.JobStatusFailed {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.Error != "provider down" {
		t.Errorf("error = %q", got.Error)
	}
}

func TestJobService_UpdateMissingJobIsHarmless(t *testing.T) {
	svc := NewJobService(NewMemoryJobStore(), zap.NewNop())

	// Must not panic or create phantom records.
	svc.MarkRunning(context.Background(), "ghost")
	jobs, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 0 {
		t.Errorf("expected no jobs, got %d", len(jobs))
	}
}
