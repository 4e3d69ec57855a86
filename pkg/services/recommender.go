package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
)

// RecommenderService ranks unwatched items against a user's taste
// profile. The profile is the (optionally recency-weighted) mean of the
// embeddings of recently watched items; candidates are scored by a
// blend of cosine similarity and catalog recency. Users without usable
// history get a popularity ranking instead of an error.
type RecommenderService struct {
	itemRepo  repositories.ItemRepository
	eventRepo repositories.EventRepository
	recRepo   repositories.RecommendationRepository
	cfg       config.RecommenderConfig
	logger    *zap.Logger

	// now is swappable for deterministic tests.
	now func() time.Time
}

// NewRecommenderService creates a new recommender service.
func NewRecommenderService(
	itemRepo repositories.ItemRepository,
	eventRepo repositories.EventRepository,
	recRepo repositories.RecommendationRepository,
	cfg config.RecommenderConfig,
	logger *zap.Logger,
) *RecommenderService {
	return &RecommenderService{
		itemRepo:  itemRepo,
		eventRepo: eventRepo,
		recRepo:   recRepo,
		cfg:       cfg,
		logger:    logger.Named("recommender"),
		now:       time.Now,
	}
}

// Refresh recomputes the user's recommendation set and replaces the
// stored rows in one transaction.
func (s *RecommenderService) Refresh(ctx context.Context, userID uuid.UUID) (int, error) {
	recs, err := s.rank(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := s.recRepo.ReplaceForUser(ctx, userID, recs); err != nil {
		return 0, fmt.Errorf("replace recommendations: %w", err)
	}

	s.logger.Info("recommendations refreshed",
		zap.String("user_id", userID.String()),
		zap.Int("count", len(recs)))

	return len(recs), nil
}

// List returns the user's stored recommendations, highest score first.
func (s *RecommenderService) List(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Recommendation, error) {
	if limit <= 0 || limit > s.cfg.MaxRecommendations {
		limit = s.cfg.MaxRecommendations
	}
	return s.recRepo.ListByUser(ctx, userID, limit)
}

// Similar returns the nearest neighbors of an item in embedding space.
func (s *RecommenderService) Similar(ctx context.Context, itemID uuid.UUID, limit int) ([]*models.Item, error) {
	if limit <= 0 || limit > s.cfg.MaxRecommendations {
		limit = s.cfg.MaxRecommendations
	}
	return s.itemRepo.SimilarByVector(ctx, itemID, limit)
}

// rank produces the new recommendation rows for a user.
func (s *RecommenderService) rank(ctx context.Context, userID uuid.UUID) ([]*models.Recommendation, error) {
	events, err := s.recentEvents(ctx, userID)
	if err != nil {
		return nil, err
	}

	corpus, err := s.itemRepo.ListWithEmbeddings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load embedding corpus: %w", err)
	}

	byID := make(map[uuid.UUID]*models.Item, len(corpus))
	for _, item := range corpus {
		byID[item.ID] = item
	}

	watched := make(map[uuid.UUID]bool, len(events))
	for _, ev := range events {
		watched[ev.ItemID] = true
	}

	profile, anchor := s.profileVector(events, byID)
	if profile == nil {
		return s.rankByPopularity(ctx, corpus, watched)
	}

	var candidates []*models.Item
	for _, item := range corpus {
		if !watched[item.ID] {
			candidates = append(candidates, item)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	minCreated, maxCreated := createdBounds(candidates)

	recs := make([]*models.Recommendation, 0, len(candidates))
	for _, item := range candidates {
		// Cosine similarity spans [-1, 1]; the stored score must stay
		// inside [0, 1].
		score := s.cfg.SimilarityWeight*CosineSimilarity(profile, item.Embedding) +
			s.cfg.RecencyWeight*normalizedRecency(item.CreatedAt, minCreated, maxCreated)

		recs = append(recs, &models.Recommendation{
			UserID:    userID,
			ItemID:    item.ID,
			Score:     clampScore(score),
			Reason:    reasonFor(item, anchor),
			Algorithm: models.AlgorithmContentBased,
		})
	}

	sortRecommendations(recs, byID)

	if len(recs) > s.cfg.MaxRecommendations {
		recs = recs[:s.cfg.MaxRecommendations]
	}
	return recs, nil
}

// recentEvents returns the watch-window slice of the user's history,
// widening to the full history when the window is empty.
func (s *RecommenderService) recentEvents(ctx context.Context, userID uuid.UUID) ([]*models.WatchEvent, error) {
	var since time.Time
	if s.cfg.WatchWindowDays > 0 {
		since = s.now().AddDate(0, 0, -s.cfg.WatchWindowDays)
	}

	events, err := s.eventRepo.ListByUserSince(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("load watch events: %w", err)
	}

	if len(events) == 0 && !since.IsZero() {
		events, err = s.eventRepo.ListByUserSince(ctx, userID, time.Time{})
		if err != nil {
			return nil, fmt.Errorf("load watch events: %w", err)
		}
	}

	return events, nil
}

// profileVector computes the user's taste vector and returns the
// watched item contributing the most weight, used for reasons. Returns
// nil when no watched item has an embedding.
func (s *RecommenderService) profileVector(events []*models.WatchEvent, byID map[uuid.UUID]*models.Item) ([]float32, *models.Item) {
	var (
		sum       []float32
		total     float64
		anchor    *models.Item
		anchorW   float64
		seen      = make(map[uuid.UUID]bool)
		reference = s.now()
	)

	for _, ev := range events {
		item, ok := byID[ev.ItemID]
		if !ok || len(item.Embedding) == 0 {
			continue
		}
		// Each item contributes once, at its most recent watch.
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true

		weight := 1.0
		if s.cfg.ProfileHalfLifeDays > 0 {
			age := reference.Sub(ev.OccurredAt).Hours() / 24
			if age < 0 {
				age = 0
			}
			weight = math.Pow(0.5, age/s.cfg.ProfileHalfLifeDays)
		}

		if sum == nil {
			sum = make([]float32, len(item.Embedding))
		}
		for i, v := range item.Embedding {
			sum[i] += float32(weight) * v
		}
		total += weight

		if anchor == nil || weight > anchorW {
			anchor = item
			anchorW = weight
		}
	}

	if sum == nil || total == 0 {
		return nil, nil
	}

	for i := range sum {
		sum[i] /= float32(total)
	}
	return sum, anchor
}

// rankByPopularity is the cold-start path: global watch counts stand in
// for taste.
func (s *RecommenderService) rankByPopularity(ctx context.Context, corpus []*models.Item, watched map[uuid.UUID]bool) ([]*models.Recommendation, error) {
	counts, err := s.eventRepo.WatchCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("load watch counts: %w", err)
	}

	// Raw counts are unbounded; divide by the candidate max so stored
	// scores stay inside [0, 1].
	maxCount := 0
	for _, item := range corpus {
		if watched[item.ID] {
			continue
		}
		if c := counts[item.ID]; c > maxCount {
			maxCount = c
		}
	}

	byID := make(map[uuid.UUID]*models.Item, len(corpus))
	var recs []*models.Recommendation
	for _, item := range corpus {
		byID[item.ID] = item
		if watched[item.ID] {
			continue
		}
		score := 0.0
		if maxCount > 0 {
			score = float64(counts[item.ID]) / float64(maxCount)
		}
		recs = append(recs, &models.Recommendation{
			ItemID:    item.ID,
			Score:     score,
			Reason:    "Popular with other viewers",
			Algorithm: models.AlgorithmPopularity,
		})
	}

	sortRecommendations(recs, byID)

	if len(recs) > s.cfg.MaxRecommendations {
		recs = recs[:s.cfg.MaxRecommendations]
	}
	return recs, nil
}

// clampScore bounds a blended score to the stored 0-1 range.
func clampScore(s float64) float64 {
	return math.Max(0, math.Min(1, s))
}

// sortRecommendations applies the deterministic ordering: score desc,
// item created_at desc, item id asc.
func sortRecommendations(recs []*models.Recommendation, byID map[uuid.UUID]*models.Item) {
	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		ci, cj := byID[recs[i].ItemID].CreatedAt, byID[recs[j].ItemID].CreatedAt
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return recs[i].ItemID.String() < recs[j].ItemID.String()
	})
}

// reasonFor explains a recommendation in terms of the anchor item:
// shared genres first, then shared source, then a generic fallback.
func reasonFor(item *models.Item, anchor *models.Item) string {
	if anchor == nil {
		return "Based on your recent viewing history"
	}

	if shared := sharedGenres(item.Genres, anchor.Genres); len(shared) > 0 {
		return fmt.Sprintf("Because you watched %s — shared %s", anchor.Title, strings.Join(shared, ", "))
	}

	if item.Source == anchor.Source {
		return fmt.Sprintf("More from %s, like %s", item.Source, anchor.Title)
	}

	return "Based on your recent viewing history"
}

func sharedGenres(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	set := make(map[string]bool, len(b))
	for _, g := range b {
		set[strings.ToLower(g)] = true
	}
	var shared []string
	for _, g := range a {
		if set[strings.ToLower(g)] {
			shared = append(shared, g)
		}
		if len(shared) == 2 {
			break
		}
	}
	return shared
}

func createdBounds(items []*models.Item) (time.Time, time.Time) {
	min, max := items[0].CreatedAt, items[0].CreatedAt
	for _, item := range items[1:] {
		if item.CreatedAt.Before(min) {
			min = item.CreatedAt
		}
		if item.CreatedAt.After(max) {
			max = item.CreatedAt
		}
	}
	return min, max
}

// normalizedRecency min-max scales an item's catalog age to [0, 1].
// A single-item corpus scores 1.
func normalizedRecency(created, min, max time.Time) float64 {
	span := max.Sub(min)
	if span <= 0 {
		return 1
	}
	return float64(created.Sub(min)) / float64(span)
}

// CosineSimilarity computes the cosine of the angle between two
// vectors. Mismatched lengths or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
