package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/index"
)

// mockEmbedding implements driven.EmbeddingProvider with a fixed query
// vector.
type mockEmbedding struct {
	vector   []float32
	embedErr error
	calls    int
}

func (m *mockEmbedding) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vector, nil
}

func (m *mockEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedding) Dimensions() int              { return len(m.vector) }
func (m *mockEmbedding) ModelName() string            { return "mock" }
func (m *mockEmbedding) Ping(_ context.Context) error { return nil }
func (m *mockEmbedding) Close() error                 { return nil }

// buildFixture creates a registry with one tenant snapshot and a
// catalog carrying attribution for its documents.
func buildFixture(t *testing.T) (*index.Registry, *Catalog) {
	t.Helper()
	registry := index.NewRegistry(2)
	cat := NewCatalog()

	b := index.NewBuilder(2)
	require.NoError(t, b.Add([]float32{1, 0}, domain.Chunk{
		ID: "c1", DocumentID: "d1", TenantID: "jordan", Content: "leave accrual rules",
	}))
	require.NoError(t, b.Add([]float32{0.9, 0.44}, domain.Chunk{
		ID: "c2", DocumentID: "d1", TenantID: "jordan", Content: "carry-over limits",
	}))
	require.NoError(t, b.Add([]float32{0, 1}, domain.Chunk{
		ID: "c3", DocumentID: "d2", TenantID: "jordan", Content: "expense reporting",
	}))
	registry.Swap("jordan", b.Seal())

	cat.replace("jordan", []domain.Document{
		{ID: "d1", Name: "leave.md", Title: "Leave Policy"},
		{ID: "d2", Name: "expenses.md", Title: "Expenses"},
	})
	return registry, cat
}

func TestRetrieveRankedWithAttribution(t *testing.T) {
	registry, cat := buildFixture(t)
	embedding := &mockEmbedding{vector: []float32{1, 0}}
	svc := NewRetrievalService(registry, embedding, cat, 3, 0.55)

	result, err := svc.Retrieve(context.Background(), "jordan", "how does leave accrue", domain.RetrieveOptions{})
	require.NoError(t, err)

	assert.False(t, result.NoContext)
	require.Len(t, result.Chunks, 2, "the orthogonal chunk is below the floor")
	assert.Equal(t, "c1", result.Chunks[0].Chunk.ID)
	assert.Equal(t, "leave.md", result.Chunks[0].DocumentName)
	assert.Equal(t, "Leave Policy", result.Chunks[0].DocumentTitle)
	assert.Equal(t, "c2", result.Chunks[1].Chunk.ID)
	assert.InDelta(t, 1.0, result.BestScore, 1e-6)
	assert.Greater(t, result.Chunks[0].Score, result.Chunks[1].Score)
}

func TestRetrieveBelowFloorYieldsNoContext(t *testing.T) {
	registry, cat := buildFixture(t)
	// Query orthogonal to everything except the weak c3 direction.
	embedding := &mockEmbedding{vector: []float32{0.1, -1}}
	svc := NewRetrievalService(registry, embedding, cat, 3, 0.55)

	result, err := svc.Retrieve(context.Background(), "jordan", "unrelated question", domain.RetrieveOptions{})
	require.NoError(t, err)

	assert.True(t, result.NoContext)
	assert.Empty(t, result.Chunks)
	assert.NotZero(t, result.BestScore, "the best pre-threshold score is reported")
	assert.Less(t, result.BestScore, 0.55)
}

func TestRetrieveEmptyIndexSkipsEmbedding(t *testing.T) {
	registry := index.NewRegistry(2)
	embedding := &mockEmbedding{vector: []float32{1, 0}}
	svc := NewRetrievalService(registry, embedding, NewCatalog(), 3, 0.55)

	result, err := svc.Retrieve(context.Background(), "us", "anything", domain.RetrieveOptions{})
	require.NoError(t, err)

	assert.True(t, result.NoContext)
	assert.Empty(t, result.Chunks)
	assert.Zero(t, result.BestScore)
	assert.Zero(t, embedding.calls, "no provider call for an empty index")
}

func TestRetrieveTenantIsolation(t *testing.T) {
	registry, cat := buildFixture(t)
	embedding := &mockEmbedding{vector: []float32{1, 0}}
	svc := NewRetrievalService(registry, embedding, cat, 3, 0.55)

	// The us tenant has no snapshot; jordan's chunks must not leak.
	result, err := svc.Retrieve(context.Background(), "us", "leave accrual", domain.RetrieveOptions{})
	require.NoError(t, err)
	assert.True(t, result.NoContext)
	assert.Empty(t, result.Chunks)
}

func TestRetrieveOptionsOverride(t *testing.T) {
	registry, cat := buildFixture(t)
	embedding := &mockEmbedding{vector: []float32{1, 0}}
	svc := NewRetrievalService(registry, embedding, cat, 3, 0.55)

	result, err := svc.Retrieve(context.Background(), "jordan", "leave", domain.RetrieveOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, result.Chunks, 1)
	assert.Equal(t, "c1", result.Chunks[0].Chunk.ID)

	result, err = svc.Retrieve(context.Background(), "jordan", "leave", domain.RetrieveOptions{TopK: 10, MinScore: -1})
	require.NoError(t, err)
	assert.Len(t, result.Chunks, 2, "negative override falls back to the configured floor")
}

func TestRetrieveValidation(t *testing.T) {
	registry, cat := buildFixture(t)
	embedding := &mockEmbedding{vector: []float32{1, 0}}
	svc := NewRetrievalService(registry, embedding, cat, 3, 0.55)

	_, err := svc.Retrieve(context.Background(), "jordan", "   ", domain.RetrieveOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Retrieve(context.Background(), "", "query", domain.RetrieveOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRetrieveProviderFailure(t *testing.T) {
	registry, cat := buildFixture(t)
	embedding := &mockEmbedding{embedErr: errors.New("connection refused")}
	svc := NewRetrievalService(registry, embedding, cat, 3, 0.55)

	_, err := svc.Retrieve(context.Background(), "jordan", "leave", domain.RetrieveOptions{})
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
}
