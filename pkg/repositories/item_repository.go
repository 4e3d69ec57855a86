package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pgvector/pgvector-go"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/database"
	"github.com/a-s-adam/streamlink/pkg/models"
)

// ItemFilter narrows List results.
type ItemFilter struct {
	Source string
	Search string
	Limit  int
	Offset int
}

// SourceCount is one row of the per-source item statistics.
type SourceCount struct {
	Source string `json:"source"`
	Count  int    `json:"count"`
}

// ItemRepository defines the interface for item data access.
type ItemRepository interface {
	// Upsert resolves the item by its identity key
	// (title_normalized, year, source), creating it when absent.
	// First writer wins; concurrent creators converge to one row.
	// Returns the canonical row and whether this call created it.
	Upsert(ctx context.Context, item *models.Item) (*models.Item, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)
	List(ctx context.Context, filter ItemFilter) ([]*models.Item, error)
	CountsBySource(ctx context.Context) ([]SourceCount, error)

	// UpdateMetadata applies enrichment results.
	UpdateMetadata(ctx context.Context, item *models.Item) error
	// RecordEnrichAttempt bumps the attempt counter so a later retry pass
	// can find items that never got a confident match.
	RecordEnrichAttempt(ctx context.Context, id uuid.UUID) error

	SetEmbedding(ctx context.Context, id uuid.UUID, vector []float32, model string) error

	// ListWithEmbeddings returns the ranking corpus: every item that has
	// an embedding.
	ListWithEmbeddings(ctx context.Context) ([]*models.Item, error)

	// SimilarByVector pushes cosine nearest-neighbor search down to
	// pgvector, excluding the reference item itself.
	SimilarByVector(ctx context.Context, itemID uuid.UUID, limit int) ([]*models.Item, error)

	// ListPendingEnrichment finds items never confidently matched, below
	// the attempt cap, oldest first.
	ListPendingEnrichment(ctx context.Context, maxAttempts, limit int) ([]*models.Item, error)
}

// itemRepository implements ItemRepository using PostgreSQL.
type itemRepository struct {
	db *database.DB
}

// NewItemRepository creates a new item repository.
func NewItemRepository(db *database.DB) ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `
	id, COALESCE(external_id, ''), source, type, title, title_normalized,
	year, runtime, genres, COALESCE(overview, ''), COALESCE(poster_url, ''),
	COALESCE(tmdb_id, ''), embedding, COALESCE(embedding_model, ''),
	enrich_attempts, enriched_at, created_at, updated_at`

func scanItem(row pgx.Row) (*models.Item, error) {
	var (
		item      models.Item
		genres    []string
		embedding *pgvector.Vector
	)
	err := row.Scan(
		&item.ID,
		&item.ExternalID,
		&item.Source,
		&item.Type,
		&item.Title,
		&item.TitleNormalized,
		&item.Year,
		&item.Runtime,
		&genres,
		&item.Overview,
		&item.PosterURL,
		&item.TMDBID,
		&embedding,
		&item.EmbeddingModel,
		&item.EnrichAttempts,
		&item.EnrichedAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Genres = genres
	if embedding != nil {
		item.Embedding = embedding.Slice()
	}
	return &item, nil
}

func (r *itemRepository) Upsert(ctx context.Context, item *models.Item) (*models.Item, bool, error) {
	if item.TitleNormalized == "" {
		item.TitleNormalized = models.NormalizeTitle(item.Title)
	}

	// xmax = 0 distinguishes a fresh insert from a conflict-update.
	query := `
		INSERT INTO items (external_id, source, type, title, title_normalized, year)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, $6)
		ON CONFLICT (title_normalized, (COALESCE(year, 0)), source) DO UPDATE
		SET external_id = COALESCE(items.external_id, EXCLUDED.external_id),
		    updated_at = now()
		RETURNING ` + itemColumns + `, (xmax = 0) AS inserted`

	var (
		stored    models.Item
		genres    []string
		embedding *pgvector.Vector
		inserted  bool
	)
	err := r.db.QueryRow(ctx, query,
		item.ExternalID,
		item.Source,
		item.Type,
		item.Title,
		item.TitleNormalized,
		item.Year,
	).Scan(
		&stored.ID,
		&stored.ExternalID,
		&stored.Source,
		&stored.Type,
		&stored.Title,
		&stored.TitleNormalized,
		&stored.Year,
		&stored.Runtime,
		&genres,
		&stored.Overview,
		&stored.PosterURL,
		&stored.TMDBID,
		&embedding,
		&stored.EmbeddingModel,
		&stored.EnrichAttempts,
		&stored.EnrichedAt,
		&stored.CreatedAt,
		&stored.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert item: %w", err)
	}
	stored.Genres = genres
	if embedding != nil {
		stored.Embedding = embedding.Slice()
	}

	return &stored, inserted, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get item: %w", err)
	}

	return item, nil
}

func (r *itemRepository) List(ctx context.Context, filter ItemFilter) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	args := []any{}

	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND source = $%d", len(args))
	}
	if filter.Search != "" {
		args = append(args, "%"+models.NormalizeTitle(filter.Search)+"%")
		query += fmt.Sprintf(" AND title_normalized LIKE $%d", len(args))
	}

	query += " ORDER BY created_at DESC, id"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *itemRepository) CountsBySource(ctx context.Context) ([]SourceCount, error) {
	query := `SELECT source, COUNT(*) FROM items GROUP BY source ORDER BY source`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count items by source: %w", err)
	}
	defer rows.Close()

	var counts []SourceCount
	for rows.Next() {
		var c SourceCount
		if err := rows.Scan(&c.Source, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan source count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating source counts: %w", err)
	}

	return counts, nil
}

func (r *itemRepository) UpdateMetadata(ctx context.Context, item *models.Item) error {
	query := `
		UPDATE items
		SET year = COALESCE($1, year),
		    runtime = $2,
		    genres = $3,
		    overview = NULLIF($4, ''),
		    poster_url = NULLIF($5, ''),
		    tmdb_id = NULLIF($6, ''),
		    enriched_at = now(),
		    updated_at = now()
		WHERE id = $7`

	result, err := r.db.Exec(ctx, query,
		item.Year,
		item.Runtime,
		item.Genres,
		item.Overview,
		item.PosterURL,
		item.TMDBID,
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update item metadata: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *itemRepository) RecordEnrichAttempt(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE items SET enrich_attempts = enrich_attempts + 1, updated_at = now() WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("failed to record enrich attempt: %w", err)
	}
	return nil
}

func (r *itemRepository) SetEmbedding(ctx context.Context, id uuid.UUID, vector []float32, model string) error {
	query := `UPDATE items SET embedding = $1, embedding_model = $2, updated_at = now() WHERE id = $3`

	result, err := r.db.Exec(ctx, query, pgvector.NewVector(vector), model, id)
	if err != nil {
		return fmt.Errorf("failed to set item embedding: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *itemRepository) ListWithEmbeddings(ctx context.Context) ([]*models.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE embedding IS NOT NULL ORDER BY created_at, id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items with embeddings: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *itemRepository) SimilarByVector(ctx context.Context, itemID uuid.UUID, limit int) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE id != $1
		  AND embedding IS NOT NULL
		ORDER BY embedding <=> (SELECT embedding FROM items WHERE id = $1)
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, itemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *itemRepository) ListPendingEnrichment(ctx context.Context, maxAttempts, limit int) ([]*models.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE enriched_at IS NULL
		  AND enrich_attempts < $1
		ORDER BY created_at, id
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, maxAttempts, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending enrichment: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func collectItems(rows pgx.Rows) ([]*models.Item, error) {
	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}
	return items, nil
}

// Ensure itemRepository implements ItemRepository at compile time.
var _ ItemRepository = (*itemRepository)(nil)
