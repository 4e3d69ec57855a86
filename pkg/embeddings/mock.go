package embeddings

import (
	"context"
	"crypto/md5"
)

// mockClient derives a deterministic vector from the MD5 digest of the
// input text. The same text always embeds to the same vector, so tests
// and offline development get stable similarity behavior without a
// provider.
type mockClient struct {
	dimensions int
}

// NewMockClient creates a deterministic offline embedding client.
func NewMockClient(dimensions int) Client {
	if dimensions <= 0 {
		dimensions = 1536
	}
	return &mockClient{dimensions: dimensions}
}

func (c *mockClient) Embed(_ context.Context, text string) ([]float32, error) {
	digest := md5.Sum([]byte(text))

	// Cycle the digest bytes across the vector, scaled to [-1, 1].
	vector := make([]float32, c.dimensions)
	for i := range vector {
		b := digest[i%len(digest)]
		vector[i] = float32(b)/255.0*2 - 1
	}
	return vector, nil
}

func (c *mockClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := c.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (c *mockClient) Model() string {
	return "mock-md5"
}

var _ Client = (*mockClient)(nil)
