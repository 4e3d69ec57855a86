package models

import "time"

// JobStatus represents the lifecycle state of a background job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Job kinds exposed through the jobs API.
const (
	JobKindIngestNetflix          = "ingest_netflix"
	JobKindIngestYouTube          = "ingest_youtube"
	JobKindEnrichItem             = "enrich_item"
	JobKindItemEmbedding          = "item_embedding"
	JobKindRefreshRecommendations = "refresh_recommendations"
)

// Job is the externally visible record of a background task. The request
// that triggers work returns the job ID immediately; GET /jobs/{id} polls
// this record until it reaches a terminal status.
type Job struct {
	ID        string         `json:"task_id"`
	Kind      string         `json:"kind"`
	Status    JobStatus      `json:"status"`
	Progress  int            `json:"progress"` // 0-100
	Result    map[string]any `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Terminal reports whether the job has finished (successfully or not).
func (j *Job) Terminal() bool {
	return j.Status == JobStatusSucceeded || j.Status == JobStatusFailed
}
