package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/config"
	"github.com/a-s-adam/streamlink/pkg/retry"
)

func newTestClient(serverURL, apiKey string) *Client {
	return NewClient(&config.TMDBConfig{BaseURL: serverURL, APIKey: apiKey})
}

func TestClient_Configured(t *testing.T) {
	if newTestClient("http://unused", "").Configured() {
		t.Error("expected Configured to be false without an API key")
	}
	if !newTestClient("http://unused", "key").Configured() {
		t.Error("expected Configured to be true with an API key")
	}
}

func TestClient_SearchMulti_FiltersPersonResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/multi" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Error("api_key not forwarded")
		}
		if r.URL.Query().Get("include_adult") != "false" {
			t.Error("include_adult not set to false")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"id":1,"media_type":"movie","title":"The Matrix","release_date":"1999-03-31"},
			{"id":2,"media_type":"person","name":"Keanu Reeves"},
			{"id":3,"media_type":"tv","name":"The Matrix Documentary","first_air_date":"2001-06-01"}
		]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "test-key")
	results, err := client.SearchMulti(context.Background(), "matrix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results after filtering, got %d", len(results))
	}
	if results[0].DisplayTitle() != "The Matrix" || results[0].Year() != 1999 {
		t.Errorf("unexpected first result: %+v", results[0])
	}
	if results[1].DisplayTitle() != "The Matrix Documentary" || results[1].Year() != 2001 {
		t.Errorf("unexpected second result: %+v", results[1])
	}
}

func TestClient_SearchMulti_WithoutKey(t *testing.T) {
	client := newTestClient("http://unused", "")
	_, err := client.SearchMulti(context.Background(), "matrix")
	if !errors.Is(err, apperrors.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
}

func TestClient_ErrorClassification(t *testing.T) {
	tests := []struct {
		status        int
		wantTransient bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{http.StatusNotFound, false},
		{http.StatusUnauthorized, false},
	}

	for _, tt := range tests {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := newTestClient(server.URL, "test-key")
		_, err := client.SearchMulti(context.Background(), "matrix")
		server.Close()

		if err == nil {
			t.Fatalf("status %d: expected error, got nil", tt.status)
		}
		if got := errors.Is(err, apperrors.ErrProviderUnavailable); got != tt.wantTransient {
			t.Errorf("status %d: provider-unavailable = %v, want %v", tt.status, got, tt.wantTransient)
		}
		if got := retry.IsRetryable(err); got != tt.wantTransient {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, got, tt.wantTransient)
		}
	}
}

func TestClient_GetDetails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/603" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":603,"runtime":136,"overview":"A hacker.","genres":[{"name":"Action"}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, "test-key")
	details, err := client.GetDetails(context.Background(), "movie", 603)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if details.RuntimeMinutes() != 136 {
		t.Errorf("runtime = %d, want 136", details.RuntimeMinutes())
	}
	if names := details.GenreNames(); len(names) != 1 || names[0] != "Action" {
		t.Errorf("genres = %v", names)
	}
}

func TestDetails_RuntimeMinutes(t *testing.T) {
	movie := &Details{Runtime: 120}
	if got := movie.RuntimeMinutes(); got != 120 {
		t.Errorf("movie runtime = %d, want 120", got)
	}

	tv := &Details{EpisodeRunTime: []int{45, 60}}
	if got := tv.RuntimeMinutes(); got != 45 {
		t.Errorf("tv runtime = %d, want 45", got)
	}

	empty := &Details{}
	if got := empty.RuntimeMinutes(); got != 0 {
		t.Errorf("empty runtime = %d, want 0", got)
	}
}

func TestClient_PosterURL(t *testing.T) {
	client := newTestClient("http://unused", "key")
	if got := client.PosterURL("/abc.jpg"); got != "https://image.tmdb.org/t/p/w500/abc.jpg" {
		t.Errorf("PosterURL = %q", got)
	}
	if got := client.PosterURL(""); got != "" {
		t.Errorf("empty path PosterURL = %q, want empty", got)
	}
}
