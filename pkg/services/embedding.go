package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/embeddings"
	"github.com/a-s-adam/streamlink/pkg/models"
	"github.com/a-s-adam/streamlink/pkg/repositories"
)

// EmbeddingService generates and stores item embeddings. Items without
// an embedding simply stay out of similarity ranking, so a provider
// outage here degrades recommendations rather than breaking them.
type EmbeddingService struct {
	itemRepo repositories.ItemRepository
	client   embeddings.Client
	logger   *zap.Logger
}

// NewEmbeddingService creates a new embedding service.
func NewEmbeddingService(
	itemRepo repositories.ItemRepository,
	client embeddings.Client,
	logger *zap.Logger,
) *EmbeddingService {
	return &EmbeddingService{
		itemRepo: itemRepo,
		client:   client,
		logger:   logger.Named("embedding"),
	}
}

// EmbedItem generates and stores the embedding for one item. Already
// embedded items are skipped.
func (s *EmbeddingService) EmbedItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("get item: %w", err)
	}

	if len(item.Embedding) > 0 {
		s.logger.Debug("item already embedded", zap.String("item_id", itemID.String()))
		return nil
	}

	vector, err := s.client.Embed(ctx, EmbeddingText(item))
	if err != nil {
		return fmt.Errorf("embed item %q: %w", item.Title, err)
	}

	if err := s.itemRepo.SetEmbedding(ctx, item.ID, vector, s.client.Model()); err != nil {
		return fmt.Errorf("store embedding: %w", err)
	}

	s.logger.Info("item embedded",
		zap.String("item_id", itemID.String()),
		zap.String("title", item.Title),
		zap.Int("dimensions", len(vector)),
		zap.String("model", s.client.Model()))

	return nil
}

// EmbeddingText builds the provider input: title, then overview, then
// genres. The same item text always produces the same input string, so
// deterministic providers give stable vectors.
func EmbeddingText(item *models.Item) string {
	parts := []string{item.Title}
	if item.Overview != "" {
		parts = append(parts, item.Overview)
	}
	if len(item.Genres) > 0 {
		parts = append(parts, strings.Join(item.Genres, " "))
	}
	return strings.Join(parts, " ")
}
