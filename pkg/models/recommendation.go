package models

import (
	"time"

	"github.com/google/uuid"
)

// Algorithm tags recorded on generated recommendations.
const (
	AlgorithmContentBased = "content_based"
	AlgorithmPopularity   = "popularity"
)

// Recommendation is one ranked suggestion for a user. Rows are ephemeral:
// a refresh replaces the user's whole set.
type Recommendation struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ItemID    uuid.UUID `json:"item_id"`
	Score     float64   `json:"score"` // 0.0-1.0
	Reason    string    `json:"reason,omitempty"`
	Algorithm string    `json:"algorithm"`
	CreatedAt time.Time `json:"created_at"`

	// Item is populated on read for API responses.
	Item *Item `json:"item,omitempty"`
}
