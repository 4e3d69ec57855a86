package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/apperrors"
	"github.com/a-s-adam/streamlink/pkg/config"
	"github.com/a-s-adam/streamlink/pkg/logging"
)

// openAIClient calls an OpenAI-compatible embeddings endpoint.
type openAIClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIClient creates an embedding client against an OpenAI-compatible
// endpoint.
func NewOpenAIClient(cfg *config.EmbeddingsConfig, logger *zap.Logger) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")

	return &openAIClient{
		client: openai.NewClientWithConfig(clientConfig),
		model:  cfg.Model,
		logger: logger.Named("embeddings"),
	}, nil
}

func (c *openAIClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (c *openAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()

	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(c.model),
		Input: texts,
	})
	if err != nil {
		c.logger.Error("embedding request failed",
			zap.Int("inputs", len(texts)),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("error", logging.SanitizeError(err)))
		return nil, fmt.Errorf("create embeddings: %w: %w", apperrors.ErrEmbeddingUnavailable, err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		vectors[i] = d.Embedding
	}

	c.logger.Debug("embedding request completed",
		zap.Int("inputs", len(texts)),
		zap.Duration("elapsed", time.Since(start)))

	return vectors, nil
}

func (c *openAIClient) Model() string {
	return c.model
}

var _ Client = (*openAIClient)(nil)
