package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/a-s-adam/streamlink/pkg/database"
	"github.com/a-s-adam/streamlink/pkg/models"
)

// EventRepository defines the interface for watch event data access.
// Events are append-only; there is no update or delete path.
type EventRepository interface {
	Insert(ctx context.Context, event *models.WatchEvent) error
	// ListByUserSince returns the user's events with occurred_at >= since,
	// newest first. A zero since returns the full history.
	ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.WatchEvent, error)
	// WatchCounts returns the number of watch events per item across all
	// users, for popularity ranking.
	WatchCounts(ctx context.Context) (map[uuid.UUID]int, error)
}

// eventRepository implements EventRepository using PostgreSQL.
type eventRepository struct {
	db *database.DB
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *database.DB) EventRepository {
	return &eventRepository{db: db}
}

func (r *eventRepository) Insert(ctx context.Context, event *models.WatchEvent) error {
	query := `
		INSERT INTO watch_events (user_id, item_id, source, occurred_at, raw)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		event.UserID,
		event.ItemID,
		event.Source,
		event.OccurredAt,
		event.Raw,
	).Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert watch event: %w", err)
	}

	return nil
}

func (r *eventRepository) ListByUserSince(ctx context.Context, userID uuid.UUID, since time.Time) ([]*models.WatchEvent, error) {
	query := `
		SELECT id, user_id, item_id, source, occurred_at, created_at
		FROM watch_events
		WHERE user_id = $1 AND occurred_at >= $2
		ORDER BY occurred_at DESC, id`

	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list watch events: %w", err)
	}
	defer rows.Close()

	var events []*models.WatchEvent
	for rows.Next() {
		var event models.WatchEvent
		err := rows.Scan(
			&event.ID,
			&event.UserID,
			&event.ItemID,
			&event.Source,
			&event.OccurredAt,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch event: %w", err)
		}
		events = append(events, &event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watch events: %w", err)
	}

	return events, nil
}

func (r *eventRepository) WatchCounts(ctx context.Context) (map[uuid.UUID]int, error) {
	query := `SELECT item_id, COUNT(*) FROM watch_events GROUP BY item_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count watch events: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			itemID uuid.UUID
			count  int
		)
		if err := rows.Scan(&itemID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan watch count: %w", err)
		}
		counts[itemID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watch counts: %w", err)
	}

	return counts, nil
}

// Ensure eventRepository implements EventRepository at compile time.
var _ EventRepository = (*eventRepository)(nil)
