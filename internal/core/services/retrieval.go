package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
	"github.com/cleardesk/hrkb/internal/core/ports/driving"
	"github.com/cleardesk/hrkb/internal/index"
	"github.com/cleardesk/hrkb/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Default retrieval parameters.
const (
	// DefaultTopK is the number of chunks returned when the caller does
	// not specify one.
	DefaultTopK = 3

	// DefaultMinScore is the relevance floor. A best match below it
	// produces a no-context result instead of weak citations.
	DefaultMinScore = 0.55

	// candidateMultiplier oversizes the raw search so that thresholding
	// still leaves enough candidates to fill TopK.
	candidateMultiplier = 3
)

// RetrievalService embeds queries and searches per-tenant index
// snapshots.
type RetrievalService struct {
	registry  *index.Registry
	embedding driven.EmbeddingProvider
	catalog   *Catalog
	topK      int
	minScore  float64
}

// NewRetrievalService creates a new retrieval service. topK and
// minScore of zero select the defaults.
func NewRetrievalService(
	registry *index.Registry,
	embedding driven.EmbeddingProvider,
	cat *Catalog,
	topK int,
	minScore float64,
) *RetrievalService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &RetrievalService{
		registry:  registry,
		embedding: embedding,
		catalog:   cat,
		topK:      topK,
		minScore:  minScore,
	}
}

// Retrieve embeds the query and returns ranked chunks with source
// attribution. An empty or unpopulated tenant index yields an explicit
// no-context result, never an error.
func (s *RetrievalService) Retrieve(
	ctx context.Context, tenant domain.TenantID, query string, opts domain.RetrieveOptions,
) (*domain.RetrievalResult, error) {
	if err := tenant.Validate(); err != nil {
		return nil, fmt.Errorf("%w: tenant %q", domain.ErrInvalidInput, tenant)
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.topK
	}
	minScore := opts.MinScore
	if minScore <= 0 {
		minScore = s.minScore
	}

	snapshot := s.registry.Get(tenant)
	if snapshot.Len() == 0 {
		logger.Debug("Tenant %s has an empty index", tenant)
		return &domain.RetrievalResult{Chunks: []domain.RetrievedChunk{}, NoContext: true}, nil
	}

	vector, err := s.embedding.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProvider) {
			return nil, fmt.Errorf("embedding query: %w", err)
		}
		return nil, fmt.Errorf("embedding query: %w: %w", domain.ErrEmbeddingProvider, err)
	}

	hits, err := snapshot.Search(vector, topK*candidateMultiplier)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}
	if len(hits) == 0 {
		return &domain.RetrievalResult{Chunks: []domain.RetrievedChunk{}, NoContext: true}, nil
	}

	best := hits[0].Score
	logger.Debug("Best score %.4f (floor %.2f) for tenant %s", best, minScore, tenant)
	if best < minScore {
		return &domain.RetrievalResult{
			Chunks:    []domain.RetrievedChunk{},
			NoContext: true,
			BestScore: best,
		}, nil
	}

	chunks := make([]domain.RetrievedChunk, 0, topK)
	for _, hit := range hits {
		if hit.Score < minScore {
			break
		}
		rc := domain.RetrievedChunk{Chunk: hit.Ref, Score: hit.Score}
		if info, ok := s.catalog.lookup(tenant, hit.Ref.DocumentID); ok {
			rc.DocumentName = info.name
			rc.DocumentTitle = info.title
		}
		chunks = append(chunks, rc)
		if len(chunks) == topK {
			break
		}
	}

	return &domain.RetrievalResult{Chunks: chunks, BestScore: best}, nil
}
