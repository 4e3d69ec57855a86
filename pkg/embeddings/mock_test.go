package embeddings

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
)

func TestMockClient_Deterministic(t *testing.T) {
	client := NewMockClient(1536)

	a, err := client.Embed(context.Background(), "The Matrix Sci-Fi Action")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := client.Embed(context.Background(), "The Matrix Sci-Fi Action")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(a) != 1536 {
		t.Fatalf("dimensions = %d, want 1536", len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at index %d: %f != %f", i, a[i], b[i])
		}
	}

	other, err := client.Embed(context.Background(), "Something else entirely")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	same := true
	for i := range a {
		if a[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical vectors")
	}
}

func TestMockClient_ValueRange(t *testing.T) {
	client := NewMockClient(64)
	vector, err := client.Embed(context.Background(), "range check")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range vector {
		if v < -1 || v > 1 {
			t.Errorf("component %d = %f outside [-1, 1]", i, v)
		}
	}
}

func TestMockClient_DefaultDimensions(t *testing.T) {
	client := NewMockClient(0)
	vector, err := client.Embed(context.Background(), "default dims")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vector) != 1536 {
		t.Errorf("dimensions = %d, want 1536", len(vector))
	}
}

func TestMockClient_EmbedBatch(t *testing.T) {
	client := NewMockClient(32)
	vectors, err := client.EmbedBatch(context.Background(), []string{"one", "two", "three"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 3 {
		t.Fatalf("expected 3 vectors, got %d", len(vectors))
	}

	single, _ := client.Embed(context.Background(), "two")
	for i := range single {
		if vectors[1][i] != single[i] {
			t.Fatal("batch vector differs from single embed of same text")
		}
	}
}

func TestNewClient_MockModeForcesMock(t *testing.T) {
	cfg := &config.EmbeddingsConfig{Provider: "openai", Dimensions: 8}
	client, err := NewClient(cfg, true, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.Model() != "mock-md5" {
		t.Errorf("model = %q, want mock-md5", client.Model())
	}
}

func TestNewClient_UnknownProvider(t *testing.T) {
	cfg := &config.EmbeddingsConfig{Provider: "cohere"}
	if _, err := NewClient(cfg, false, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
