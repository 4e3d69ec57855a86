// Package metadata implements the TMDB lookup used to enrich ingested
// items with canonical titles, genres, runtimes, and artwork.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/config"
)

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// SearchResult is one candidate from the multi-search endpoint. Movie
// and TV results carry the same information under different field names;
// accessors below paper over that.
type SearchResult struct {
	ID           int     `json:"id"`
	MediaType    string  `json:"media_type"` // movie, tv, person
	Title        string  `json:"title"`      // movies
	Name         string  `json:"name"`       // tv
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
}

// DisplayTitle returns the title regardless of media type.
func (r *SearchResult) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Year parses the release year, returning 0 when TMDB has no date.
func (r *SearchResult) Year() int {
	dateStr := r.ReleaseDate
	if dateStr == "" {
		dateStr = r.FirstAirDate
	}
	t, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Details is the per-title detail response, fetched after a confident
// search match to pick up genres and runtime.
type Details struct {
	ID             int    `json:"id"`
	Overview       string `json:"overview"`
	PosterPath     string `json:"poster_path"`
	Runtime        int    `json:"runtime"`          // movies, minutes
	EpisodeRunTime []int  `json:"episode_run_time"` // tv
	Genres         []struct {
		Name string `json:"name"`
	} `json:"genres"`
}

// GenreNames flattens the nested genre objects.
func (d *Details) GenreNames() []string {
	var names []string
	for _, g := range d.Genres {
		names = append(names, g.Name)
	}
	return names
}

// RuntimeMinutes returns the movie runtime or the first episode runtime.
func (d *Details) RuntimeMinutes() int {
	if d.Runtime > 0 {
		return d.Runtime
	}
	if len(d.EpisodeRunTime) > 0 {
		return d.EpisodeRunTime[0]
	}
	return 0
}

// Client is a thin TMDB API v3 client.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a TMDB client. An empty API key is allowed; calls
// then fail with ErrProviderUnavailable so enrichment degrades instead
// of blocking ingestion.
func NewClient(cfg *config.TMDBConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// SearchMulti queries the multi-search endpoint and returns movie and TV
// candidates in TMDB's relevance order. Person results are dropped.
func (c *Client) SearchMulti(ctx context.Context, query string) ([]SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("tmdb api key not configured: %w", apperrors.ErrProviderUnavailable)
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", query)
	params.Set("include_adult", "false")

	var payload struct {
		Results []SearchResult `json:"results"`
	}
	if err := c.get(ctx, "/search/multi", params, &payload); err != nil {
		return nil, fmt.Errorf("tmdb search %q: %w", query, err)
	}

	results := make([]SearchResult, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.MediaType == "movie" || r.MediaType == "tv" {
			results = append(results, r)
		}
	}
	return results, nil
}

// GetDetails fetches the detail record for a matched title. mediaType is
// "movie" or "tv" as reported by the search result.
func (c *Client) GetDetails(ctx context.Context, mediaType string, id int) (*Details, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("tmdb api key not configured: %w", apperrors.ErrProviderUnavailable)
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)

	var details Details
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", mediaType, id), params, &details); err != nil {
		return nil, fmt.Errorf("tmdb details %s/%d: %w", mediaType, id, err)
	}
	return &details, nil
}

// PosterURL expands a poster path to a full image URL.
func (c *Client) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return posterBaseURL + path
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w: %w", apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("tmdb returned %d: %w", resp.StatusCode, apperrors.ErrProviderUnavailable)
	default:
		return fmt.Errorf("tmdb returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
