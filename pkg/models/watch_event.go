package models

import (
	"time"

	"github.com/google/uuid"
)

// WatchEvent is a timestamped fact that a user watched an Item.
// Events are append-only and never deduplicated: each watch is a
// distinct event even when it references the same Item.
type WatchEvent struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	ItemID     uuid.UUID         `json:"item_id"`
	Source     string            `json:"source"`
	OccurredAt time.Time         `json:"occurred_at"`
	Raw        map[string]string `json:"raw,omitempty"` // original record for operator re-triage
	CreatedAt  time.Time         `json:"created_at"`
}
