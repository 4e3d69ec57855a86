package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Source constants identify where a history record came from.
const (
	SourceNetflix = "NETFLIX"
	SourceYouTube = "YOUTUBE"
)

// Item type constants.
const (
	TypeMovie   = "movie"
	TypeTVShow  = "tv_show"
	TypeVideo   = "video"
	TypeUnknown = "unknown"
)

// Item is a normalized media entity (movie, TV show, YouTube video)
// independent of any one user. Uniquely identified by
// (title_normalized, year, source); concurrent creators converge to one
// row via upsert-on-conflict.
type Item struct {
	ID         uuid.UUID `json:"id"`
	ExternalID string    `json:"external_id,omitempty"`
	Source     string    `json:"source"`
	Type       string    `json:"type"`

	// Title is the display form; TitleNormalized is the dedup key component.
	Title           string `json:"title"`
	TitleNormalized string `json:"-"`

	Year      *int      `json:"year,omitempty"`
	Runtime   *int      `json:"runtime,omitempty"` // minutes
	Genres    []string  `json:"genres,omitempty"`
	Overview  string    `json:"overview,omitempty"`
	PosterURL string    `json:"poster_url,omitempty"`
	TMDBID    string    `json:"tmdb_id,omitempty"`

	// Embedding is nil until the embedding job succeeds. Items without an
	// embedding are excluded from similarity ranking.
	Embedding      []float32 `json:"-"`
	EmbeddingModel string    `json:"embedding_model,omitempty"`

	EnrichAttempts int        `json:"-"`
	EnrichedAt     *time.Time `json:"enriched_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Enriched reports whether metadata enrichment has been applied.
func (i *Item) Enriched() bool {
	return i.TMDBID != "" && i.Overview != ""
}

// NormalizeTitle produces the matching form of a title: trimmed, internal
// whitespace collapsed, case-folded. Two raw titles differing only in
// whitespace or case normalize to the same string and therefore resolve
// to the same Item.
func NormalizeTitle(title string) string {
	return strings.ToLower(strings.Join(strings.Fields(title), " "))
}
