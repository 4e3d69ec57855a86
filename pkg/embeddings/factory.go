package embeddings

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/a-s-adam/streamlink/pkg/config"
)

// NewClient builds the embedding client selected by configuration.
// Mock mode forces the deterministic client regardless of provider.
func NewClient(cfg *config.EmbeddingsConfig, mockMode bool, logger *zap.Logger) (Client, error) {
	if mockMode {
		return NewMockClient(cfg.Dimensions), nil
	}

	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg, logger)
	case "mock":
		return NewMockClient(cfg.Dimensions), nil
	default:
		return nil, fmt.Errorf("unknown embeddings provider: %s", cfg.Provider)
	}
}
