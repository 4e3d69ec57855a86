package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/services"
)

type recsFixture struct {
	mux      *http.ServeMux
	itemRepo *fakeItemRepo
	recRepo  *fakeRecRepo
	queue    *captureQueue
}

func newRecsFixture(t *testing.T) *recsFixture {
	t.Helper()

	logger := zap.NewNop()
	itemRepo := &fakeItemRepo{}
	recRepo := &fakeRecRepo{}
	queue := &captureQueue{}

	recommenderSvc := services.NewRecommenderService(itemRepo, &fakeEventRepo{}, recRepo, config.RecommenderConfig{
		SimilarityWeight:   0.85,
		RecencyWeight:      0.15,
		WatchWindowDays:    30,
		MaxRecommendations: 20,
	}, logger)
	jobSvc := services.NewJobService(services.NewMemoryJobStore(), logger)

	mux := http.NewServeMux()
	NewRecommendationsHandler(recommenderSvc, jobSvc, queue, logger).RegisterRoutes(mux)

	return &recsFixture{mux: mux, itemRepo: itemRepo, recRepo: recRepo, queue: queue}
}

func TestRecommendationsHandler_List(t *testing.T) {
	f := newRecsFixture(t)
	userID := uuid.New()
	f.recRepo.recs = []*models.Recommendation{
		{ID: uuid.New(), UserID: userID, ItemID: uuid.New(), Score: 0.9, Reason: "Because you watched The Matrix — shared Sci-Fi"},
		{ID: uuid.New(), UserID: userID, ItemID: uuid.New(), Score: 0.4, Reason: "Popular with other viewers"},
	}

	req := httptest.NewRequest(http.MethodGet, "/recommendations?user_id="+userID.String(), nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Recommendations []*models.Recommendation `json:"recommendations"`
		Count           int                      `json:"count"`
	}
	require.NoError(t, decodeBody(rec, &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "Popular with other viewers", resp.Recommendations[1].Reason)
}

func TestRecommendationsHandler_List_Empty(t *testing.T) {
	f := newRecsFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/recommendations?user_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	// A user with no recommendations gets an empty array, not null.
	assert.Contains(t, rec.Body.String(), `"recommendations":[]`)
}

func TestRecommendationsHandler_List_InvalidUserID(t *testing.T) {
	f := newRecsFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/recommendations?user_id=not-a-uuid", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecommendationsHandler_Refresh(t *testing.T) {
	f := newRecsFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/recommendations/refresh?user_id="+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, decodeBody(rec, &resp))
	assert.NotEmpty(t, resp["task_id"])
	assert.Equal(t, 1, f.queue.Len())
}

func TestRecommendationsHandler_Refresh_InvalidUserID(t *testing.T) {
	f := newRecsFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/recommendations/refresh?user_id=42", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, f.queue.Len())
}

func TestRecommendationsHandler_Similar(t *testing.T) {
	f := newRecsFixture(t)
	f.itemRepo.items = []*models.Item{
		{ID: uuid.New(), Title: "Blade Runner", Source: models.SourceNetflix},
		{ID: uuid.New(), Title: "Dune", Source: models.SourceNetflix},
	}

	req := httptest.NewRequest(http.MethodGet, "/recommendations/similar/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []*models.Item `json:"items"`
		Count int            `json:"count"`
	}
	require.NoError(t, decodeBody(rec, &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "Blade Runner", resp.Items[0].Title)
}

func TestRecommendationsHandler_Similar_InvalidID(t *testing.T) {
	f := newRecsFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/recommendations/similar/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
