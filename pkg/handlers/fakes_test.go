package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"

	"github.com/google/uuid"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
	"github.com/a-s-adam/streamlink/pkg/services/workqueue"
)

func decodeBody(rec *httptest.ResponseRecorder, out any) error {
	return json.NewDecoder(rec.Body).Decode(out)
}

// captureQueue records enqueued tasks without running them.
type captureQueue struct {
	mu    sync.Mutex
	tasks []workqueue.Task
}

func (q *captureQueue) Enqueue(task workqueue.Task) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tasks = append(q.tasks, task)
}

func (q *captureQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

type fakeUserRepo struct {
	users  map[uuid.UUID]*models.User
	tokens map[uuid.UUID]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[uuid.UUID]*models.User),
		tokens: make(map[uuid.UUID]string),
	}
}

func (f *fakeUserRepo) add(email string) *models.User {
	user := &models.User{ID: uuid.New(), Email: email}
	f.users[user.ID] = user
	return user
}

func (f *fakeUserRepo) GetOrCreate(ctx context.Context, email, name, image string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	user := &models.User{ID: uuid.New(), Email: email, Name: name, Image: image}
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) SetYouTubeRefreshToken(ctx context.Context, id uuid.UUID, token string) error {
	if _, ok := f.users[id]; !ok {
		return apperrors.ErrNotFound
	}
	f.tokens[id] = token
	return nil
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

type fakeItemRepo struct {
	repositories.ItemRepository

	items      []*models.Item
	counts     []repositories.SourceCount
	lastFilter repositories.ItemFilter
}

func (f *fakeItemRepo) List(ctx context.Context, filter repositories.ItemFilter) ([]*models.Item, error) {
	f.lastFilter = filter
	return f.items, nil
}

func (f *fakeItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	for _, item := range f.items {
		if item.ID == id {
			return item, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeItemRepo) CountsBySource(ctx context.Context) ([]repositories.SourceCount, error) {
	return f.counts, nil
}

func (f *fakeItemRepo) SimilarByVector(ctx context.Context, itemID uuid.UUID, limit int) ([]*models.Item, error) {
	return f.items, nil
}

func (f *fakeItemRepo) ListWithEmbeddings(ctx context.Context) ([]*models.Item, error) {
	return f.items, nil
}

// fakeEventRepo is never exercised by handler tests; refresh requests
// only enqueue work.
type fakeEventRepo struct {
	repositories.EventRepository
}

type fakeRecRepo struct {
	repositories.RecommendationRepository

	recs []*models.Recommendation
}

func (f *fakeRecRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Recommendation, error) {
	return f.recs, nil
}

func (f *fakeRecRepo) ReplaceForUser(ctx context.Context, userID uuid.UUID, recs []*models.Recommendation) error {
	f.recs = recs
	return nil
}
