package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
)

func TestYouTubeHistoryEntry_VideoTitle(t *testing.T) {
	tests := []struct {
		name      string
		entry     YouTubeHistoryEntry
		wantTitle string
		wantOK    bool
	}{
		{
			name: "watched entry",
			entry: YouTubeHistoryEntry{
				Title:    `Watched "How to Cook Pasta"`,
				TitleURL: "https://www.youtube.com/watch?v=abc123",
			},
			wantTitle: "How to Cook Pasta",
			wantOK:    true,
		},
		{
			name: "unquoted title",
			entry: YouTubeHistoryEntry{
				Title:    "Watched How to Cook Pasta",
				TitleURL: "https://www.youtube.com/watch?v=abc123",
			},
			wantTitle: "How to Cook Pasta",
			wantOK:    true,
		},
		{
			name: "survey entry without link",
			entry: YouTubeHistoryEntry{
				Title: "Answered survey question",
			},
			wantOK: false,
		},
		{
			name: "removed video without link",
			entry: YouTubeHistoryEntry{
				Title: "Watched a video that has been removed",
			},
			wantOK: false,
		},
		{
			name:   "empty entry",
			entry:  YouTubeHistoryEntry{},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, ok := tt.entry.VideoTitle()
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && title != tt.wantTitle {
				t.Errorf("title = %q, want %q", title, tt.wantTitle)
			}
		})
	}
}

func TestYouTubeHistoryEntry_VideoID(t *testing.T) {
	entry := YouTubeHistoryEntry{TitleURL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ"}
	if got := entry.VideoID(); got != "dQw4w9WgXcQ" {
		t.Errorf("video id = %q", got)
	}

	noParam := YouTubeHistoryEntry{TitleURL: "https://www.youtube.com/channel/UC123"}
	if got := noParam.VideoID(); got != "" {
		t.Errorf("expected empty id, got %q", got)
	}
}

func TestYouTubeHistoryEntry_WatchedAt(t *testing.T) {
	entry := YouTubeHistoryEntry{Time: "2024-01-15T20:30:00Z"}
	want := time.Date(2024, 1, 15, 20, 30, 0, 0, time.UTC)
	if got := entry.WatchedAt(); !got.Equal(want) {
		t.Errorf("watchedAt = %v, want %v", got, want)
	}

	// Unparseable timestamps fall back to now.
	bad := YouTubeHistoryEntry{Time: "yesterday"}
	before := time.Now().UTC()
	if got := bad.WatchedAt(); got.Before(before) {
		t.Errorf("expected fallback to now, got %v", got)
	}
}

func TestYouTubeService_MockMode(t *testing.T) {
	svc := NewYouTubeService(&config.YouTubeConfig{}, true, zap.NewNop())

	authURL, err := svc.AuthURL("state123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if authURL != "http://localhost:3000/mock-youtube-auth" {
		t.Errorf("auth url = %q", authURL)
	}

	token, err := svc.ExchangeCode(context.Background(), "any-code")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token.RefreshToken != "mock_refresh_token" {
		t.Errorf("refresh token = %q", token.RefreshToken)
	}

	entries, err := svc.FetchHistory(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 mock entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if _, ok := entry.VideoTitle(); !ok {
			t.Errorf("mock entry %q did not parse as a watched video", entry.Title)
		}
		if entry.VideoID() == "" {
			t.Errorf("mock entry %q has no video id", entry.Title)
		}
	}
}

func TestYouTubeService_AuthURL(t *testing.T) {
	svc := NewYouTubeService(&config.YouTubeConfig{
		ClientID:    "client-id",
		RedirectURI: "http://localhost:3000/youtube/callback",
	}, false, zap.NewNop())

	authURL, err := svc.AuthURL("state456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"client-id", "state456", "access_type=offline", "prompt=consent"} {
		if !strings.Contains(authURL, want) {
			t.Errorf("auth url missing %q: %s", want, authURL)
		}
	}
}

func TestYouTubeService_AuthURL_Unconfigured(t *testing.T) {
	svc := NewYouTubeService(&config.YouTubeConfig{}, false, zap.NewNop())
	if _, err := svc.AuthURL("state"); err == nil {
		t.Fatal("expected error without a client id")
	}
}

func TestYouTubeService_FetchHistory_RealModeIsEmpty(t *testing.T) {
	svc := NewYouTubeService(&config.YouTubeConfig{ClientID: "id"}, false, zap.NewNop())
	entries, err := svc.FetchHistory(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no entries from the Data API, got %d", len(entries))
	}
}
