package driven

import (
	"context"
	"time"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// CorpusStore persists documents, chunks, and their vectors per tenant.
// Backed by SQLite. Vectors round-trip as exact float32 values so that
// similarity ranking is identical before and after a restart.
type CorpusStore interface {
	// ReplaceCorpus atomically replaces a tenant's documents, chunks,
	// and vectors with the given set. Used after a successful reload.
	ReplaceCorpus(ctx context.Context, tenant domain.TenantID, docs []domain.Document, chunks []domain.Chunk, vectors [][]float32) error

	// LoadCorpus returns a tenant's persisted chunks and vectors in
	// insertion order, together with their documents.
	LoadCorpus(ctx context.Context, tenant domain.TenantID) ([]domain.Document, []domain.Chunk, [][]float32, error)

	// DocumentHashes returns name -> content hash for a tenant's
	// persisted documents, used to skip unchanged files on reload.
	DocumentHashes(ctx context.Context, tenant domain.TenantID) (map[string]string, error)
}

// CacheEntry is one persisted embedding cache record.
type CacheEntry struct {
	// Tenant scopes the entry; identical content under two tenants
	// occupies two entries.
	Tenant domain.TenantID

	// Fingerprint is the sha256 hex digest of the chunk text.
	Fingerprint string

	// Vector is the embedding.
	Vector []float32

	// CreatedAt is when the entry was computed, for TTL checks.
	CreatedAt time.Time
}

// CacheStore persists embedding cache entries across restarts.
type CacheStore interface {
	// GetEntry returns the entry for (tenant, fingerprint), or
	// domain.ErrNotFound.
	GetEntry(ctx context.Context, tenant domain.TenantID, fingerprint string) (*CacheEntry, error)

	// PutEntry stores or replaces an entry.
	PutEntry(ctx context.Context, entry CacheEntry) error

	// DeleteEntry removes an entry.
	DeleteEntry(ctx context.Context, tenant domain.TenantID, fingerprint string) error

	// EvictOldest removes the oldest entries for a tenant until at most
	// keep remain. Returns the number evicted.
	EvictOldest(ctx context.Context, tenant domain.TenantID, keep int) (int, error)

	// CountEntries returns the number of entries for a tenant.
	CountEntries(ctx context.Context, tenant domain.TenantID) (int, error)
}
