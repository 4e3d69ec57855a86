// Package embeddings provides the vector embedding providers used to
// place media items in similarity space.
package embeddings

import "context"

// Client generates embedding vectors for item text.
type Client interface {
	// Embed returns the embedding vector for the input text.
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per input, in order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Model returns the provider's model name, recorded alongside the
	// stored vector.
	Model() string
}
