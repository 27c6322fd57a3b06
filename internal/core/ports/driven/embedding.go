package driven

import (
	"context"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// EmbeddingProvider converts text into fixed-dimension vectors.
// It is a remote service with its own latency and failure profile;
// every call must be bounded by the caller's context.
//
// Implementations may include:
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
//   - Ollama (nomic-embed-text, all-minilm)
//   - Local models via inference servers
type EmbeddingProvider interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	// Results are positionally aligned with the input slice.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g. 768, 1536).
	// All vectors in a tenant's index must have this dimension.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight
	// test request. Used at startup before committing to semantic mode.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// EmbeddingCache returns vectors for chunk text, computing through an
// EmbeddingProvider only on miss. Keys are tenant-scoped: identical text
// in two tenants occupies two entries, preserving tenant isolation.
type EmbeddingCache interface {
	// GetOrCompute returns the cached vector for (tenant, text) when the
	// entry is fresh, otherwise computes it via the provider and stores
	// the result. Concurrent callers for the same key share a single
	// in-flight provider call. Provider failures are never cached.
	GetOrCompute(ctx context.Context, tenant domain.TenantID, text string) ([]float32, error)
}
