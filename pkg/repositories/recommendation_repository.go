package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/a-s-adam/streamlink/pkg/database"
	"github.com/a-s-adam/streamlink/pkg/models"
)

// RecommendationRepository defines the interface for recommendation data access.
type RecommendationRepository interface {
	// ReplaceForUser atomically supersedes the user's recommendation set:
	// old rows are deleted and the new batch inserted in one transaction.
	ReplaceForUser(ctx context.Context, userID uuid.UUID, recs []*models.Recommendation) error
	// ListByUser returns recommendations with their items, descending by
	// score, bounded by limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Recommendation, error)
}

// recommendationRepository implements RecommendationRepository using PostgreSQL.
type recommendationRepository struct {
	db *database.DB
}

// NewRecommendationRepository creates a new recommendation repository.
func NewRecommendationRepository(db *database.DB) RecommendationRepository {
	return &recommendationRepository{db: db}
}

func (r *recommendationRepository) ReplaceForUser(ctx context.Context, userID uuid.UUID, recs []*models.Recommendation) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if _, err := tx.Exec(ctx, `DELETE FROM recommendations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("failed to delete old recommendations: %w", err)
	}

	query := `
		INSERT INTO recommendations (user_id, item_id, score, reason, algorithm)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)`
	for _, rec := range recs {
		if _, err := tx.Exec(ctx, query, userID, rec.ItemID, rec.Score, rec.Reason, rec.Algorithm); err != nil {
			return fmt.Errorf("failed to insert recommendation: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *recommendationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Recommendation, error) {
	query := `
		SELECT r.id, r.user_id, r.item_id, r.score, COALESCE(r.reason, ''),
		       r.algorithm, r.created_at,
		       i.id, COALESCE(i.external_id, ''), i.source, i.type, i.title,
		       i.title_normalized, i.year, i.runtime, i.genres,
		       COALESCE(i.overview, ''), COALESCE(i.poster_url, ''),
		       COALESCE(i.tmdb_id, ''), i.embedding,
		       COALESCE(i.embedding_model, ''), i.enrich_attempts,
		       i.enriched_at, i.created_at, i.updated_at
		FROM recommendations r
		JOIN items i ON i.id = r.item_id
		WHERE r.user_id = $1
		ORDER BY r.score DESC, i.created_at DESC, r.item_id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recommendations: %w", err)
	}
	defer rows.Close()

	var recs []*models.Recommendation
	for rows.Next() {
		var (
			rec       models.Recommendation
			item      models.Item
			genres    []string
			embedding *pgvector.Vector
		)
		err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.ItemID, &rec.Score, &rec.Reason,
			&rec.Algorithm, &rec.CreatedAt,
			&item.ID, &item.ExternalID, &item.Source, &item.Type, &item.Title,
			&item.TitleNormalized, &item.Year, &item.Runtime, &genres,
			&item.Overview, &item.PosterURL,
			&item.TMDBID, &embedding,
			&item.EmbeddingModel, &item.EnrichAttempts,
			&item.EnrichedAt, &item.CreatedAt, &item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recommendation: %w", err)
		}
		item.Genres = genres
		if embedding != nil {
			item.Embedding = embedding.Slice()
		}
		rec.Item = &item
		recs = append(recs, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return recs, nil
}

// Ensure recommendationRepository implements RecommendationRepository at compile time.
var _ RecommendationRepository = (*recommendationRepository)(nil)
