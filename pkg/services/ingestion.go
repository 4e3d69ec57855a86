package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
)

// IngestResult summarizes one ingestion batch.
type IngestResult struct {
	ItemsCreated  int `json:"items_created"`
	ItemsMatched  int `json:"items_matched"`
	EventsCreated int `json:"events_created"`
	RowsSkipped   int `json:"rows_skipped"`
}

// ItemCreatedHook is invoked for every item an ingestion batch creates,
// after the item and its watch event are committed. Used to enqueue
// enrichment work.
type ItemCreatedHook func(item *models.Item)

// ProgressHook reports how many records of the batch have committed.
// Invoked every progressEvery records and on the final one.
type ProgressHook func(done, total int)

const progressEvery = 25

// IngestionService turns parsed history records into items and watch
// events. Each record commits independently so one bad record never
// rolls back the batch.
type IngestionService struct {
	itemRepo  repositories.ItemRepository
	eventRepo repositories.EventRepository
	parser    *NetflixCSVParser
	logger    *zap.Logger
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	itemRepo repositories.ItemRepository,
	eventRepo repositories.EventRepository,
	parser *NetflixCSVParser,
	logger *zap.Logger,
) *IngestionService {
	return &IngestionService{
		itemRepo:  itemRepo,
		eventRepo: eventRepo,
		parser:    parser,
		logger:    logger.Named("ingestion"),
	}
}

// IngestNetflixCSV parses a Netflix viewing activity export and records
// an item and a watch event per row. onCreated fires for newly created
// items only; re-ingesting the same file matches existing items and
// appends events.
func (s *IngestionService) IngestNetflixCSV(ctx context.Context, userID uuid.UUID, r io.Reader, onCreated ItemCreatedHook, onProgress ProgressHook) (*IngestResult, error) {
	records, skipped, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse netflix csv: %w", err)
	}

	result := &IngestResult{RowsSkipped: skipped}

	for i, rec := range records {
		item := &models.Item{
			ExternalID:      rec.Profile,
			Source:          models.SourceNetflix,
			Type:            rec.Type,
			Title:           rec.Title,
			TitleNormalized: models.NormalizeTitle(rec.Title),
			Year:            rec.Year,
			Runtime:         rec.Duration,
		}

		stored, created, err := s.itemRepo.Upsert(ctx, item)
		if err != nil {
			return result, fmt.Errorf("upsert item %q: %w", rec.Title, err)
		}
		if created {
			result.ItemsCreated++
		} else {
			result.ItemsMatched++
		}

		event := &models.WatchEvent{
			UserID:     userID,
			ItemID:     stored.ID,
			Source:     models.SourceNetflix,
			OccurredAt: rec.WatchedAt,
			Raw:        rec.Raw,
		}
		if err := s.eventRepo.Insert(ctx, event); err != nil {
			return result, fmt.Errorf("insert watch event for %q: %w", rec.Title, err)
		}
		result.EventsCreated++

		if created && onCreated != nil {
			onCreated(stored)
		}
		reportProgress(onProgress, i+1, len(records))
	}

	s.logger.Info("netflix ingestion complete",
		zap.String("user_id", userID.String()),
		zap.Int("items_created", result.ItemsCreated),
		zap.Int("items_matched", result.ItemsMatched),
		zap.Int("events_created", result.EventsCreated),
		zap.Int("rows_skipped", result.RowsSkipped))

	return result, nil
}

// IngestYouTubeHistory records watch history entries fetched from the
// YouTube service. Same convergence semantics as Netflix ingestion.
func (s *IngestionService) IngestYouTubeHistory(ctx context.Context, userID uuid.UUID, entries []YouTubeHistoryEntry, onCreated ItemCreatedHook, onProgress ProgressHook) (*IngestResult, error) {
	result := &IngestResult{}

	for i, entry := range entries {
		title, ok := entry.VideoTitle()
		if !ok {
			result.RowsSkipped++
			reportProgress(onProgress, i+1, len(entries))
			continue
		}

		item := &models.Item{
			ExternalID:      entry.VideoID(),
			Source:          models.SourceYouTube,
			Type:            models.TypeVideo,
			Title:           title,
			TitleNormalized: models.NormalizeTitle(title),
		}

		stored, created, err := s.itemRepo.Upsert(ctx, item)
		if err != nil {
			return result, fmt.Errorf("upsert item %q: %w", title, err)
		}
		if created {
			result.ItemsCreated++
		} else {
			result.ItemsMatched++
		}

		event := &models.WatchEvent{
			UserID:     userID,
			ItemID:     stored.ID,
			Source:     models.SourceYouTube,
			OccurredAt: entry.WatchedAt(),
			Raw:        entry.Raw(),
		}
		if err := s.eventRepo.Insert(ctx, event); err != nil {
			return result, fmt.Errorf("insert watch event for %q: %w", title, err)
		}
		result.EventsCreated++

		if created && onCreated != nil {
			onCreated(stored)
		}
		reportProgress(onProgress, i+1, len(entries))
	}

	s.logger.Info("youtube ingestion complete",
		zap.String("user_id", userID.String()),
		zap.Int("items_created", result.ItemsCreated),
		zap.Int("items_matched", result.ItemsMatched),
		zap.Int("events_created", result.EventsCreated),
		zap.Int("rows_skipped", result.RowsSkipped))

	return result, nil
}

func reportProgress(hook ProgressHook, done, total int) {
	if hook == nil || total == 0 {
		return
	}
	if done%progressEvery == 0 || done == total {
		hook(done, total)
	}
}
