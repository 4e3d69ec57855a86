package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/config"
)

const youtubeReadonlyScope = "https://www.googleapis.com/auth/youtube.readonly"

// YouTubeHistoryEntry is one Takeout-shaped watch history record.
type YouTubeHistoryEntry struct {
	Header   string   `json:"header"`
	Title    string   `json:"title"`
	TitleURL string   `json:"titleUrl"`
	Time     string   `json:"time"`
	Products []string `json:"products"`
}

// VideoTitle strips the `Watched "..."` wrapper. Returns false for
// system entries (surveys, ads, removed videos) that carry no video
// title or no link.
func (e YouTubeHistoryEntry) VideoTitle() (string, bool) {
	title := strings.TrimSpace(e.Title)
	if !strings.HasPrefix(title, "Watched ") || e.TitleURL == "" {
		return "", false
	}
	title = strings.Trim(strings.TrimPrefix(title, "Watched "), `"`)
	if title == "" {
		return "", false
	}
	return title, true
}

// VideoID extracts the video id from the titleUrl `v=` parameter.
func (e YouTubeHistoryEntry) VideoID() string {
	u, err := url.Parse(e.TitleURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("v")
}

// WatchedAt parses the RFC3339 timestamp, falling back to now.
func (e YouTubeHistoryEntry) WatchedAt() time.Time {
	t, err := time.Parse(time.RFC3339, e.Time)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

// Raw returns the original record for storage on the watch event.
func (e YouTubeHistoryEntry) Raw() map[string]string {
	return map[string]string{
		"header":   e.Header,
		"title":    e.Title,
		"titleUrl": e.TitleURL,
		"time":     e.Time,
	}
}

// YouTubeService drives the OAuth flow and history fetch for YouTube
// ingestion. The Data API does not expose watch history, so real
// fetches return nothing; history arrives via Takeout uploads or, in
// mock mode, a canned set.
type YouTubeService struct {
	oauth    *oauth2.Config
	mockMode bool
	logger   *zap.Logger
}

// NewYouTubeService creates a new YouTube service.
func NewYouTubeService(cfg *config.YouTubeConfig, mockMode bool, logger *zap.Logger) *YouTubeService {
	return &YouTubeService{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{youtubeReadonlyScope},
			Endpoint:     google.Endpoint,
		},
		mockMode: mockMode,
		logger:   logger.Named("youtube"),
	}
}

// AuthURL returns the OAuth consent URL to redirect the user to.
func (s *YouTubeService) AuthURL(state string) (string, error) {
	if s.mockMode {
		return "http://localhost:3000/mock-youtube-auth", nil
	}
	if s.oauth.ClientID == "" {
		return "", fmt.Errorf("youtube oauth client id not configured")
	}
	return s.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent")), nil
}

// ExchangeCode trades an authorization code for tokens. The refresh
// token is stored on the user for later history refreshes.
func (s *YouTubeService) ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error) {
	if s.mockMode {
		return &oauth2.Token{
			AccessToken:  "mock_access_token",
			RefreshToken: "mock_refresh_token",
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(time.Hour),
		}, nil
	}
	if s.oauth.ClientSecret == "" {
		return nil, fmt.Errorf("youtube oauth client secret not configured")
	}

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange auth code: %w: %w", apperrors.ErrProviderUnavailable, err)
	}
	return token, nil
}

// FetchHistory returns the user's watch history. Mock mode returns the
// canned entries; otherwise empty, since the Data API has no history
// endpoint and real history comes from Takeout uploads.
func (s *YouTubeService) FetchHistory(_ context.Context, _ *oauth2.Token) ([]YouTubeHistoryEntry, error) {
	if s.mockMode {
		return mockHistory(), nil
	}

	s.logger.Warn("youtube watch history is not available via the Data API; upload Takeout data instead")
	return nil, nil
}

func mockHistory() []YouTubeHistoryEntry {
	return []YouTubeHistoryEntry{
		{
			Header:   "YouTube Data",
			Title:    `Watched "Mock YouTube Video 1"`,
			TitleURL: "https://www.youtube.com/watch?v=mock1",
			Time:     "2024-01-15T20:30:00Z",
			Products: []string{"YouTube"},
		},
		{
			Header:   "YouTube Data",
			Title:    `Watched "Mock YouTube Video 2"`,
			TitleURL: "https://www.youtube.com/watch?v=mock2",
			Time:     "2024-01-15T19:30:00Z",
			Products: []string{"YouTube"},
		},
	}
}
