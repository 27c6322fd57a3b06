package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleCorpus(tenant domain.TenantID) ([]domain.Document, []domain.Chunk, [][]float32) {
	extracted := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	docs := []domain.Document{
		{
			ID: "doc-2", TenantID: tenant, Name: "zz_expenses.txt", Title: "Expenses",
			MIMEType: "text/plain", Content: "Expenses are reimbursed monthly.",
			ContentHash: "hash-expenses", ExtractedAt: extracted,
		},
		{
			ID: "doc-1", TenantID: tenant, Name: "leave.txt", Title: "Leave Policy",
			MIMEType: "text/plain", Content: "Leave accrues at two days per month.",
			ContentHash: "hash-leave", ExtractedAt: extracted,
		},
	}
	chunks := []domain.Chunk{
		{ID: "chunk-b", DocumentID: "doc-2", TenantID: tenant, Content: "Expenses are reimbursed monthly.", Index: 0, Start: 0, End: 32},
		{ID: "chunk-a", DocumentID: "doc-1", TenantID: tenant, Content: "Leave accrues at two days per month.", Index: 0, Start: 0, End: 36},
	}
	vectors := [][]float32{
		{0.25, -1.5, 3.0e-7},
		{1, 0, -0.000123},
	}
	return docs, chunks, vectors
}

func TestReplaceAndLoadCorpusRoundTrip(t *testing.T) {
	store := newTestStore(t)
	corpus := store.CorpusStore()
	ctx := context.Background()

	docs, chunks, vectors := sampleCorpus("jordan")
	require.NoError(t, corpus.ReplaceCorpus(ctx, "jordan", docs, chunks, vectors))

	gotDocs, gotChunks, gotVectors, err := corpus.LoadCorpus(ctx, "jordan")
	require.NoError(t, err)

	// Documents come back ordered by name.
	require.Len(t, gotDocs, 2)
	assert.Equal(t, "leave.txt", gotDocs[0].Name)
	assert.Equal(t, "Leave Policy", gotDocs[0].Title)
	assert.Equal(t, "hash-leave", gotDocs[0].ContentHash)
	assert.Equal(t, domain.TenantID("jordan"), gotDocs[0].TenantID)
	assert.Equal(t, "zz_expenses.txt", gotDocs[1].Name)

	// Chunks come back in insertion order, not name order.
	require.Len(t, gotChunks, 2)
	assert.Equal(t, "chunk-b", gotChunks[0].ID)
	assert.Equal(t, "chunk-a", gotChunks[1].ID)
	assert.Equal(t, 36, gotChunks[1].End)

	// Vectors round-trip as exact float32 values.
	require.Len(t, gotVectors, 2)
	assert.Equal(t, vectors[0], gotVectors[0])
	assert.Equal(t, vectors[1], gotVectors[1])
}

func TestReplaceCorpusMismatchedVectors(t *testing.T) {
	store := newTestStore(t)
	corpus := store.CorpusStore()

	_, chunks, _ := sampleCorpus("jordan")
	err := corpus.ReplaceCorpus(context.Background(), "jordan", nil, chunks, [][]float32{{1, 0, 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestReplaceCorpusOverwrites(t *testing.T) {
	store := newTestStore(t)
	corpus := store.CorpusStore()
	ctx := context.Background()

	docs, chunks, vectors := sampleCorpus("jordan")
	require.NoError(t, corpus.ReplaceCorpus(ctx, "jordan", docs, chunks, vectors))
	require.NoError(t, corpus.ReplaceCorpus(ctx, "jordan", docs[:1], chunks[:1], vectors[:1]))

	gotDocs, gotChunks, _, err := corpus.LoadCorpus(ctx, "jordan")
	require.NoError(t, err)
	assert.Len(t, gotDocs, 1)
	assert.Len(t, gotChunks, 1)
}

func TestCorpusTenantIsolation(t *testing.T) {
	store := newTestStore(t)
	corpus := store.CorpusStore()
	ctx := context.Background()

	docs, chunks, vectors := sampleCorpus("jordan")
	require.NoError(t, corpus.ReplaceCorpus(ctx, "jordan", docs, chunks, vectors))

	gotDocs, gotChunks, gotVectors, err := corpus.LoadCorpus(ctx, "us")
	require.NoError(t, err)
	assert.Empty(t, gotDocs)
	assert.Empty(t, gotChunks)
	assert.Empty(t, gotVectors)

	// Replacing one tenant leaves the other untouched.
	require.NoError(t, corpus.ReplaceCorpus(ctx, "us", nil, nil, nil))
	gotDocs, _, _, err = corpus.LoadCorpus(ctx, "jordan")
	require.NoError(t, err)
	assert.Len(t, gotDocs, 2)
}

func TestDocumentHashes(t *testing.T) {
	store := newTestStore(t)
	corpus := store.CorpusStore()
	ctx := context.Background()

	docs, chunks, vectors := sampleCorpus("jordan")
	require.NoError(t, corpus.ReplaceCorpus(ctx, "jordan", docs, chunks, vectors))

	hashes, err := corpus.DocumentHashes(ctx, "jordan")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"leave.txt":       "hash-leave",
		"zz_expenses.txt": "hash-expenses",
	}, hashes)

	hashes, err = corpus.DocumentHashes(ctx, "us")
	require.NoError(t, err)
	assert.Empty(t, hashes)
}

func TestLoadCorpusCorruptBlob(t *testing.T) {
	store := newTestStore(t)
	corpus := store.CorpusStore()
	ctx := context.Background()

	docs, chunks, vectors := sampleCorpus("jordan")
	require.NoError(t, corpus.ReplaceCorpus(ctx, "jordan", docs, chunks, vectors))

	// Truncate one embedding to a length that is not a whole number of
	// float32 values.
	_, err := store.db.Exec("UPDATE chunks SET embedding = X'0102' WHERE id = 'chunk-a'")
	require.NoError(t, err)

	_, _, _, err = corpus.LoadCorpus(ctx, "jordan")
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestLoadCorpusDimensionMismatch(t *testing.T) {
	store := newTestStore(t)
	corpus := store.CorpusStore()
	ctx := context.Background()

	docs, chunks, vectors := sampleCorpus("jordan")
	require.NoError(t, corpus.ReplaceCorpus(ctx, "jordan", docs, chunks, vectors))

	// A valid blob of the wrong dimension is still damage.
	_, err := store.db.Exec("UPDATE chunks SET embedding = X'0000803F' WHERE id = 'chunk-a'")
	require.NoError(t, err)

	_, _, _, err = corpus.LoadCorpus(ctx, "jordan")
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestCacheEntryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	_, err := cache.GetEntry(ctx, "jordan", "fp-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	created := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	require.NoError(t, cache.PutEntry(ctx, driven.CacheEntry{
		Tenant: "jordan", Fingerprint: "fp-1", Vector: []float32{0.5, -0.25, 1}, CreatedAt: created,
	}))

	entry, err := cache.GetEntry(ctx, "jordan", "fp-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.25, 1}, entry.Vector)
	assert.True(t, entry.CreatedAt.Equal(created))

	// Same fingerprint under another tenant is a separate entry.
	_, err = cache.GetEntry(ctx, "us", "fp-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCachePutReplaces(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	require.NoError(t, cache.PutEntry(ctx, driven.CacheEntry{Tenant: "jordan", Fingerprint: "fp-1", Vector: []float32{1}}))
	require.NoError(t, cache.PutEntry(ctx, driven.CacheEntry{Tenant: "jordan", Fingerprint: "fp-1", Vector: []float32{2}}))

	entry, err := cache.GetEntry(ctx, "jordan", "fp-1")
	require.NoError(t, err)
	assert.Equal(t, []float32{2}, entry.Vector)

	count, err := cache.CountEntries(ctx, "jordan")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCacheDeleteEntry(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	require.NoError(t, cache.PutEntry(ctx, driven.CacheEntry{Tenant: "jordan", Fingerprint: "fp-1", Vector: []float32{1}}))
	require.NoError(t, cache.DeleteEntry(ctx, "jordan", "fp-1"))

	_, err := cache.GetEntry(ctx, "jordan", "fp-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Deleting a missing entry is not an error.
	require.NoError(t, cache.DeleteEntry(ctx, "jordan", "fp-1"))
}

func TestCacheEvictOldest(t *testing.T) {
	store := newTestStore(t)
	cache := store.CacheStore()
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, fp := range []string{"fp-0", "fp-1", "fp-2", "fp-3", "fp-4"} {
		require.NoError(t, cache.PutEntry(ctx, driven.CacheEntry{
			Tenant: "jordan", Fingerprint: fp, Vector: []float32{float32(i)},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, cache.PutEntry(ctx, driven.CacheEntry{
		Tenant: "us", Fingerprint: "fp-0", Vector: []float32{9}, CreatedAt: base,
	}))

	evicted, err := cache.EvictOldest(ctx, "jordan", 2)
	require.NoError(t, err)
	assert.Equal(t, 3, evicted)

	count, err := cache.CountEntries(ctx, "jordan")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// The newest entries survive.
	_, err = cache.GetEntry(ctx, "jordan", "fp-4")
	assert.NoError(t, err)
	_, err = cache.GetEntry(ctx, "jordan", "fp-3")
	assert.NoError(t, err)
	_, err = cache.GetEntry(ctx, "jordan", "fp-0")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Other tenants are untouched.
	count, err = cache.CountEntries(ctx, "us")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStoreReopens(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	docs, chunks, vectors := sampleCorpus("jordan")
	require.NoError(t, store.CorpusStore().ReplaceCorpus(context.Background(), "jordan", docs, chunks, vectors))
	require.NoError(t, store.Close())

	// Migrations are recorded, so a second open does not re-run them.
	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	gotDocs, gotChunks, _, err := store.CorpusStore().LoadCorpus(context.Background(), "jordan")
	require.NoError(t, err)
	assert.Len(t, gotDocs, 2)
	assert.Len(t, gotChunks, 2)
}

func TestFloat32BlobCodec(t *testing.T) {
	in := []float32{0, -0, 1.5, -2.25, 3.4e38, 1.4e-45}
	out := bytesToFloat32Slice(float32SliceToBytes(in))
	assert.Equal(t, in, out)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
