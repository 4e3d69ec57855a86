package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/logging"
	"github.com/a-s-adam/streamlink/pkg/metadata"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
	"github.com/a-s-adam/streamlink/pkg/retry"
)

// EnrichmentService matches ingested items against TMDB and applies
// metadata from confident matches. A miss leaves the item unenriched
// with its attempt counter bumped; it never fails the calling batch.
type EnrichmentService struct {
	itemRepo repositories.ItemRepository
	tmdb     *metadata.Client
	logger   *zap.Logger
}

// NewEnrichmentService creates a new enrichment service.
func NewEnrichmentService(
	itemRepo repositories.ItemRepository,
	tmdb *metadata.Client,
	logger *zap.Logger,
) *EnrichmentService {
	return &EnrichmentService{
		itemRepo: itemRepo,
		tmdb:     tmdb,
		logger:   logger.Named("enrichment"),
	}
}

// EnrichItem looks the item up on TMDB and applies metadata from the
// top result when the match is confident. Returns ErrEnrichmentMiss
// when no result clears the confidence bar, ErrProviderUnavailable
// when TMDB cannot be reached.
func (s *EnrichmentService) EnrichItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	if item.Enriched() {
		s.logger.Debug("item already enriched", zap.String("item_id", itemID.String()))
		return nil
	}

	if !s.tmdb.Configured() {
		return s.recordMiss(ctx, item, apperrors.ErrProviderUnavailable)
	}

	var results []metadata.SearchResult
	err = retry.DoIfRetryable(ctx, retry.DefaultConfig(), func() error {
		var searchErr error
		results, searchErr = s.tmdb.SearchMulti(ctx, item.Title)
		return searchErr
	})
	if err != nil {
		return s.recordMiss(ctx, item, err)
	}

	match := pickMatch(item, results)
	if match == nil {
		s.logger.Info("no confident tmdb match",
			zap.String("item_id", itemID.String()),
			zap.String("title", item.Title),
			zap.Int("candidates", len(results)))
		return s.recordMiss(ctx, item, apperrors.ErrEnrichmentMiss)
	}

	item.TMDBID = fmt.Sprintf("%d", match.ID)
	item.Overview = match.Overview
	item.PosterURL = s.tmdb.PosterURL(match.PosterPath)
	if item.Year == nil {
		if y := match.Year(); y > 0 {
			item.Year = &y
		}
	}

	// Genres and runtime only live on the detail record. A detail
	// failure still keeps the search-level metadata.
	details, err := s.tmdb.GetDetails(ctx, match.MediaType, match.ID)
	if err != nil {
		// TMDB errors can carry the request URL, api_key included.
		s.logger.Warn("tmdb details fetch failed, applying search metadata only",
			zap.String("item_id", itemID.String()),
			zap.String("error", logging.SanitizeError(err)))
	} else {
		item.Genres = details.GenreNames()
		if rt := details.RuntimeMinutes(); rt > 0 {
			item.Runtime = &rt
		}
		if details.Overview != "" {
			item.Overview = details.Overview
		}
	}

	if err := s.itemRepo.UpdateMetadata(ctx, item); err != nil {
		return fmt.Errorf("update item metadata: %w", err)
	}

	s.logger.Info("item enriched",
		zap.String("item_id", itemID.String()),
		zap.String("title", item.Title),
		zap.String("tmdb_id", item.TMDBID))

	return nil
}

// recordMiss bumps the attempt counter and propagates the cause so the
// caller can decide whether to retry.
func (s *EnrichmentService) recordMiss(ctx context.Context, item *models.Item, cause error) error {
	if err := s.itemRepo.RecordEnrichAttempt(ctx, item.ID); err != nil {
		s.logger.Warn("failed to record enrich attempt",
			zap.String("item_id", item.ID.String()),
			zap.Error(err))
	}
	return fmt.Errorf("enrich %q: %w", item.Title, cause)
}

// pickMatch applies the confidence policy to the ranked candidates:
// accept the first result whose normalized title matches exactly, or
// whose year agrees within one and whose normalized title contains (or
// is contained by) the item's.
func pickMatch(item *models.Item, results []metadata.SearchResult) *metadata.SearchResult {
	want := models.NormalizeTitle(item.Title)

	for i := range results {
		r := &results[i]
		got := models.NormalizeTitle(r.DisplayTitle())
		if got == "" {
			continue
		}

		if got == want {
			return r
		}

		if item.Year != nil {
			ry := r.Year()
			if ry > 0 && abs(ry-*item.Year) <= 1 &&
				(strings.Contains(got, want) || strings.Contains(want, got)) {
				return r
			}
		}
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
