package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driving"
)

func TestServer_handleRetrieve(t *testing.T) {
	ctx := context.Background()

	t.Run("returns ranked chunks", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			result: &domain.RetrievalResult{
				Chunks: []domain.RetrievedChunk{
					{
						Chunk:         domain.Chunk{ID: "c1", Content: "Leave accrues at two days per month."},
						DocumentName:  "leave.md",
						DocumentTitle: "Leave Policy",
						Score:         0.91,
					},
				},
				BestScore: 0.91,
			},
		}

		ports := &Ports{Retrieval: mockRetrieval}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := RetrieveInput{Tenant: "jordan", Query: "how much leave", TopK: 5, MinScore: 0.6}
		_, output, err := server.handleRetrieve(ctx, nil, input)

		require.NoError(t, err)
		assert.False(t, output.NoContext)
		assert.Equal(t, 0.91, output.BestScore)
		require.Len(t, output.Chunks, 1)
		assert.Equal(t, "leave.md", output.Chunks[0].Document)
		assert.Equal(t, "Leave Policy", output.Chunks[0].Title)
		assert.Equal(t, 0.91, output.Chunks[0].Score)
		assert.Equal(t, "Leave accrues at two days per month.", output.Chunks[0].Content)

		// Overrides pass through to the service.
		assert.Equal(t, 5, mockRetrieval.gotOpts.TopK)
		assert.Equal(t, 0.6, mockRetrieval.gotOpts.MinScore)
	})

	t.Run("reports no context", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			result: &domain.RetrievalResult{
				Chunks:    []domain.RetrievedChunk{},
				NoContext: true,
				BestScore: 0.32,
			},
		}

		ports := &Ports{Retrieval: mockRetrieval}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleRetrieve(ctx, nil, RetrieveInput{Tenant: "jordan", Query: "unrelated"})

		require.NoError(t, err)
		assert.True(t, output.NoContext)
		assert.Empty(t, output.Chunks)
		assert.Equal(t, 0.32, output.BestScore)
	})

	t.Run("returns error on retrieval failure", func(t *testing.T) {
		mockRetrieval := &mockRetrievalService{
			err: errors.New("embedding service unreachable"),
		}

		ports := &Ports{Retrieval: mockRetrieval}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleRetrieve(ctx, nil, RetrieveInput{Tenant: "jordan", Query: "anything"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "embedding service unreachable")
	})
}

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns grounded answer with deduplicated sources", func(t *testing.T) {
		mockAsk := &mockAskService{
			answer: &driving.Answer{
				Text:     "You accrue two days per month.",
				Grounded: true,
				Sources: []domain.RetrievedChunk{
					{DocumentName: "leave.md"},
					{DocumentName: "leave.md"},
					{DocumentName: "handbook.md"},
					{DocumentName: ""},
				},
			},
		}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Ask: mockAsk}
		server, err := NewServer(ports)
		require.NoError(t, err)

		input := AskInput{Tenant: "jordan", Question: "How much leave do I get?"}
		_, output, err := server.handleAsk(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "You accrue two days per month.", output.Answer)
		assert.True(t, output.Grounded)
		assert.Equal(t, []string{"leave.md", "handbook.md"}, output.Sources)
	})

	t.Run("returns ungrounded answer without sources", func(t *testing.T) {
		mockAsk := &mockAskService{
			answer: &driving.Answer{
				Text:     "I do not have policy information on that.",
				Grounded: false,
			},
		}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Ask: mockAsk}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Tenant: "jordan", Question: "anything"})

		require.NoError(t, err)
		assert.False(t, output.Grounded)
		assert.Empty(t, output.Sources)
	})

	t.Run("returns error on ask failure", func(t *testing.T) {
		mockAsk := &mockAskService{err: errors.New("model overloaded")}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Ask: mockAsk}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Tenant: "jordan", Question: "anything"})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "model overloaded")
	})
}

func TestServer_handleReload(t *testing.T) {
	ctx := context.Background()

	t.Run("returns reload report", func(t *testing.T) {
		mockIngest := &mockIngestService{
			report: &domain.ReloadReport{
				Ingested: 2,
				Skipped:  3,
				Chunks:   14,
				Failures: []domain.IngestFailure{
					{Name: "broken.docx", Err: errors.New("not a zip archive")},
				},
			},
		}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Ingest: mockIngest}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, output, err := server.handleReload(ctx, nil, ReloadInput{Tenant: "jordan"})

		require.NoError(t, err)
		assert.Equal(t, 2, output.Ingested)
		assert.Equal(t, 3, output.Skipped)
		assert.Equal(t, 14, output.Chunks)
		assert.Equal(t, []string{"broken.docx: not a zip archive"}, output.Failures)
	})

	t.Run("returns error for unknown tenant", func(t *testing.T) {
		mockIngest := &mockIngestService{err: domain.ErrUnknownTenant}

		ports := &Ports{Retrieval: &mockRetrievalService{}, Ingest: mockIngest}
		server, err := NewServer(ports)
		require.NoError(t, err)

		_, _, err = server.handleReload(ctx, nil, ReloadInput{Tenant: "nobody"})

		assert.ErrorIs(t, err, domain.ErrUnknownTenant)
	})
}
