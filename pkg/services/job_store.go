package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
)

// JobStore persists job records for status polling. Redis when
// configured, in-process memory otherwise.
type JobStore interface {
	Save(ctx context.Context, job *models.Job) error
	Get(ctx context.Context, id string) (*models.Job, error)
	List(ctx context.Context) ([]*models.Job, error)
}

const (
	jobKeyPrefix = "jobs:"
	jobTTL       = 24 * time.Hour
)

// redisJobStore keeps job records in Redis with a TTL, so finished jobs
// age out on their own and records survive process restarts.
type redisJobStore struct {
	client *redis.Client
}

// NewRedisJobStore creates a Redis-backed job store.
func NewRedisJobStore(client *redis.Client) JobStore {
	return &redisJobStore{client: client}
}

func (s *redisJobStore) Save(ctx context.Context, job *models.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := s.client.Set(ctx, jobKeyPrefix+job.ID, data, jobTTL).Err(); err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

func (s *redisJobStore) Get(ctx context.Context, id string) (*models.Job, error) {
	data, err := s.client.Get(ctx, jobKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	var job models.Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("unmarshal job: %w", err)
	}
	return &job, nil
}

func (s *redisJobStore) List(ctx context.Context) ([]*models.Job, error) {
	var jobs []*models.Job

	iter := s.client.Scan(ctx, 0, jobKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		data, err := s.client.Get(ctx, iter.Val()).Bytes()
		if err == redis.Nil {
			continue // expired between scan and get
		}
		if err != nil {
			return nil, fmt.Errorf("get job %s: %w", iter.Val(), err)
		}
		var job models.Job
		if err := json.Unmarshal(data, &job); err != nil {
			return nil, fmt.Errorf("unmarshal job %s: %w", iter.Val(), err)
		}
		jobs = append(jobs, &job)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan jobs: %w", err)
	}

	sortJobs(jobs)
	return jobs, nil
}

var _ JobStore = (*redisJobStore)(nil)

// memoryJobStore is the fallback when no Redis host is configured.
// Records live for the process lifetime only.
type memoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryJobStore creates an in-process job store.
func NewMemoryJobStore() JobStore {
	return &memoryJobStore{jobs: make(map[string]*models.Job)}
}

func (s *memoryJobStore) Save(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

func (s *memoryJobStore) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	clone := *job
	return &clone, nil
}

func (s *memoryJobStore) List(_ context.Context) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		clone := *job
		jobs = append(jobs, &clone)
	}
	sortJobs(jobs)
	return jobs, nil
}

var _ JobStore = (*memoryJobStore)(nil)

// sortJobs orders newest first, with ID as the tie-break.
func sortJobs(jobs []*models.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if !jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
		}
		return jobs[i].ID < jobs[j].ID
	})
}
