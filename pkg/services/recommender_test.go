package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
)

type fakeItemRepo struct {
	repositories.ItemRepository

	items        []*models.Item
	similar      []*models.Item
	similarLimit int
}

func (f *fakeItemRepo) ListWithEmbeddings(ctx context.Context) ([]*models.Item, error) {
	return f.items, nil
}

func (f *fakeItemRepo) SimilarByVector(ctx context.Context, itemID uuid.UUID, limit int) ([]*models.Item, error) {
	f.similarLimit = limit
	return f.similar, nil
}

type fakeEventRepo struct {
	repositories.EventRepository

	events     []*models.WatchEvent
	allEvents  []*models.WatchEvent
	counts     map[uuid.UUID]int
	sinceCalls []time.Time
}

func (f *fakeEventRepo) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.WatchEvent, error) {
	f.sinceCalls = append(f.sinceCalls, since)
	if since.IsZero() {
		return f.allEvents, nil
	}
	return f.events, nil
}

func (f *fakeEventRepo) WatchCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	return f.counts, nil
}

type fakeRecRepo struct {
	repositories.RecommendationRepository

	replaced []*models.Recommendation
	stored   []*models.Recommendation
}

func (f *fakeRecRepo) ReplaceForUser(ctx context.Context, userID uuid.UUID, recs []*models.Recommendation) error {
	f.replaced = recs
	return nil
}

func (f *fakeRecRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Recommendation, error) {
	if limit < len(f.stored) {
		return f.stored[:limit], nil
	}
	return f.stored, nil
}

func testRecommenderConfig() config.RecommenderConfig {
	return config.RecommenderConfig{
		SimilarityWeight:   1.0,
		RecencyWeight:      0.0,
		WatchWindowDays:    30,
		MaxRecommendations: 20,
	}
}

func newTestItem(title string, embedding []float32, genres []string, createdAt time.Time) *models.Item {
	return &models.Item{
		ID:              uuid.New(),
		Source:          models.SourceNetflix,
		Type:            models.TypeMovie,
		Title:           title,
		TitleNormalized: models.NormalizeTitle(title),
		Genres:          genres,
		Embedding:       embedding,
		CreatedAt:       createdAt,
	}
}

func TestRecommenderService_Refresh_ContentBased(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	watchedItem := newTestItem("The Matrix", []float32{1, 0}, []string{"Sci-Fi", "Action"}, now.AddDate(0, 0, -10))
	closeItem := newTestItem("Blade Runner", []float32{0.9, 0.1}, []string{"Sci-Fi"}, now.AddDate(0, 0, -5))
	farItem := newTestItem("The Office", []float32{0, 1}, nil, now.AddDate(0, 0, -3))

	itemRepo := &fakeItemRepo{items: []*models.Item{watchedItem, closeItem, farItem}}
	eventRepo := &fakeEventRepo{events: []*models.WatchEvent{{
		ItemID:     watchedItem.ID,
		OccurredAt: now.AddDate(0, 0, -1),
	}}}
	recRepo := &fakeRecRepo{}

	svc := NewRecommenderService(itemRepo, eventRepo, recRepo, testRecommenderConfig(), zap.NewNop())
	svc.now = func() time.Time { return now }

	userID := uuid.New()
	count, err := svc.Refresh(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recommendations, got %d", count)
	}

	recs := recRepo.replaced
	for i, rec := range recs {
		if rec.ItemID == watchedItem.ID {
			t.Error("watched item was recommended")
		}
		if rec.Algorithm != models.AlgorithmContentBased {
			t.Errorf("algorithm = %q, want %q", rec.Algorithm, models.AlgorithmContentBased)
		}
		if rec.UserID != userID {
			t.Errorf("rec %d has user_id %s, want %s", i, rec.UserID, userID)
		}
		if i > 0 && recs[i].Score > recs[i-1].Score {
			t.Errorf("scores not non-increasing at index %d: %f > %f", i, recs[i].Score, recs[i-1].Score)
		}
	}

	if recs[0].ItemID != closeItem.ID {
		t.Errorf("expected %q ranked first", closeItem.Title)
	}
	if recs[0].Reason != "Because you watched The Matrix — shared Sci-Fi" {
		t.Errorf("unexpected reason: %q", recs[0].Reason)
	}
	// No shared genres, but the same source as the anchor.
	if recs[1].Reason != "More from NETFLIX, like The Matrix" {
		t.Errorf("unexpected reason: %q", recs[1].Reason)
	}
}

func TestRecommenderService_Refresh_WidensEmptyWindow(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	oldItem := newTestItem("Old Favorite", []float32{1, 0}, nil, now.AddDate(-1, 0, 0))
	candidate := newTestItem("New Release", []float32{1, 0}, nil, now.AddDate(0, 0, -1))

	itemRepo := &fakeItemRepo{items: []*models.Item{oldItem, candidate}}
	eventRepo := &fakeEventRepo{
		events: nil, // nothing inside the window
		allEvents: []*models.WatchEvent{{
			ItemID:     oldItem.ID,
			OccurredAt: now.AddDate(0, -6, 0),
		}},
	}
	recRepo := &fakeRecRepo{}

	svc := NewRecommenderService(itemRepo, eventRepo, recRepo, testRecommenderConfig(), zap.NewNop())
	svc.now = func() time.Time { return now }

	count, err := svc.Refresh(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 recommendation, got %d", count)
	}
	if len(eventRepo.sinceCalls) != 2 {
		t.Fatalf("expected window query then full-history query, got %d calls", len(eventRepo.sinceCalls))
	}
	if eventRepo.sinceCalls[0].IsZero() || !eventRepo.sinceCalls[1].IsZero() {
		t.Errorf("expected bounded then unbounded since, got %v", eventRepo.sinceCalls)
	}
	if recRepo.replaced[0].Algorithm != models.AlgorithmContentBased {
		t.Errorf("algorithm = %q, want content_based after widening", recRepo.replaced[0].Algorithm)
	}
}

func TestRecommenderService_Refresh_PopularityFallback(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	popular := newTestItem("Crowd Pleaser", []float32{1, 0}, nil, now.AddDate(0, 0, -2))
	niche := newTestItem("Deep Cut", []float32{0, 1}, nil, now.AddDate(0, 0, -2))

	itemRepo := &fakeItemRepo{items: []*models.Item{popular, niche}}
	eventRepo := &fakeEventRepo{
		counts: map[uuid.UUID]int{popular.ID: 7, niche.ID: 2},
	}
	recRepo := &fakeRecRepo{}

	svc := NewRecommenderService(itemRepo, eventRepo, recRepo, testRecommenderConfig(), zap.NewNop())
	svc.now = func() time.Time { return now }

	count, err := svc.Refresh(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 recommendations, got %d", count)
	}

	recs := recRepo.replaced
	if recs[0].ItemID != popular.ID {
		t.Error("expected most-watched item ranked first")
	}
	if recs[0].Score != 1.0 {
		t.Errorf("top popularity score = %v, want 1.0", recs[0].Score)
	}
	if want := 2.0 / 7.0; math.Abs(recs[1].Score-want) > 1e-9 {
		t.Errorf("popularity score = %v, want %v", recs[1].Score, want)
	}
	for _, rec := range recs {
		if rec.Score < 0 || rec.Score > 1 {
			t.Errorf("score %v outside [0, 1]", rec.Score)
		}
		if rec.Algorithm != models.AlgorithmPopularity {
			t.Errorf("algorithm = %q, want %q", rec.Algorithm, models.AlgorithmPopularity)
		}
		if rec.Reason != "Popular with other viewers" {
			t.Errorf("unexpected reason: %q", rec.Reason)
		}
	}
}

func TestRecommenderService_Refresh_ScoresStayInRange(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	watchedItem := newTestItem("The Matrix", []float32{1, 0}, nil, now.AddDate(0, 0, -10))
	opposite := newTestItem("Anti-Matrix", []float32{-1, 0}, nil, now.AddDate(0, 0, -5))

	itemRepo := &fakeItemRepo{items: []*models.Item{watchedItem, opposite}}
	eventRepo := &fakeEventRepo{events: []*models.WatchEvent{{
		ItemID:     watchedItem.ID,
		OccurredAt: now.AddDate(0, 0, -1),
	}}}
	recRepo := &fakeRecRepo{}

	svc := NewRecommenderService(itemRepo, eventRepo, recRepo, testRecommenderConfig(), zap.NewNop())
	svc.now = func() time.Time { return now }

	if _, err := svc.Refresh(context.Background(), uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	recs := recRepo.replaced
	if len(recs) != 1 {
		t.Fatalf("expected 1 recommendation, got %d", len(recs))
	}
	// Cosine against the profile is -1 here; the stored score must be
	// clamped, not negative.
	if recs[0].Score != 0 {
		t.Errorf("score = %v, want 0", recs[0].Score)
	}
}

func TestRecommenderService_Refresh_TieBreakDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	created := now.AddDate(0, 0, -2)

	a := newTestItem("Alpha", []float32{1, 0}, nil, created)
	b := newTestItem("Beta", []float32{0, 1}, nil, created)
	c := newTestItem("Gamma", []float32{0.5, 0.5}, nil, created.Add(time.Hour))

	itemRepo := &fakeItemRepo{items: []*models.Item{a, b, c}}
	eventRepo := &fakeEventRepo{counts: map[uuid.UUID]int{}}
	recRepo := &fakeRecRepo{}

	svc := NewRecommenderService(itemRepo, eventRepo, recRepo, testRecommenderConfig(), zap.NewNop())
	svc.now = func() time.Time { return now }

	runOnce := func() []uuid.UUID {
		if _, err := svc.Refresh(context.Background(), uuid.New()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ids := make([]uuid.UUID, len(recRepo.replaced))
		for i, rec := range recRepo.replaced {
			ids[i] = rec.ItemID
		}
		return ids
	}

	first := runOnce()
	second := runOnce()

	if len(first) != 3 {
		t.Fatalf("expected 3 recommendations, got %d", len(first))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("ordering not deterministic: %v vs %v", first, second)
		}
	}

	// All scores are zero: newest created_at wins, then lowest id.
	if first[0] != c.ID {
		t.Error("expected newest item first on score tie")
	}
	wantSecond, wantThird := a.ID, b.ID
	if wantSecond.String() > wantThird.String() {
		wantSecond, wantThird = wantThird, wantSecond
	}
	if first[1] != wantSecond || first[2] != wantThird {
		t.Error("expected id ascending tie-break for equal created_at")
	}
}

func TestRecommenderService_Refresh_TruncatesToMax(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cfg := testRecommenderConfig()
	cfg.MaxRecommendations = 2

	items := make([]*models.Item, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, newTestItem(
			string(rune('A'+i)), []float32{1, float32(i)}, nil, now.AddDate(0, 0, -i-1)))
	}

	itemRepo := &fakeItemRepo{items: items}
	eventRepo := &fakeEventRepo{counts: map[uuid.UUID]int{}}
	recRepo := &fakeRecRepo{}

	svc := NewRecommenderService(itemRepo, eventRepo, recRepo, cfg, zap.NewNop())
	svc.now = func() time.Time { return now }

	count, err := svc.Refresh(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected truncation to 2, got %d", count)
	}
}

func TestRecommenderService_SimilarClampsLimit(t *testing.T) {
	cfg := testRecommenderConfig()
	itemRepo := &fakeItemRepo{}
	svc := NewRecommenderService(itemRepo, &fakeEventRepo{}, &fakeRecRepo{}, cfg, zap.NewNop())

	if _, err := svc.Similar(context.Background(), uuid.New(), 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if itemRepo.similarLimit != cfg.MaxRecommendations {
		t.Errorf("limit = %d, want clamp to %d", itemRepo.similarLimit, cfg.MaxRecommendations)
	}

	if _, err := svc.Similar(context.Background(), uuid.New(), 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if itemRepo.similarLimit != cfg.MaxRecommendations {
		t.Errorf("limit = %d, want default %d", itemRepo.similarLimit, cfg.MaxRecommendations)
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestNormalizedRecency(t *testing.T) {
	min := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	max := min.AddDate(0, 0, 10)

	if got := normalizedRecency(min, min, max); got != 0 {
		t.Errorf("oldest item recency = %f, want 0", got)
	}
	if got := normalizedRecency(max, min, max); got != 1 {
		t.Errorf("newest item recency = %f, want 1", got)
	}
	if got := normalizedRecency(min.AddDate(0, 0, 5), min, max); math.Abs(got-0.5) > 1e-9 {
		t.Errorf("midpoint recency = %f, want 0.5", got)
	}
	// Degenerate span scores everything 1.
	if got := normalizedRecency(min, min, min); got != 1 {
		t.Errorf("single-item recency = %f, want 1", got)
	}
}
