package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cleardesk/hrkb/internal/chunker"
	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
	"github.com/cleardesk/hrkb/internal/core/ports/driving"
	"github.com/cleardesk/hrkb/internal/extractors"
	"github.com/cleardesk/hrkb/internal/index"
	"github.com/cleardesk/hrkb/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// IngestService builds per-tenant index snapshots from knowledge
// directories and uploaded documents.
type IngestService struct {
	tenants    map[domain.TenantID]domain.Tenant
	extractors driven.ExtractorRegistry
	chunker    *chunker.Chunker
	cache      driven.EmbeddingCache
	registry   *index.Registry
	corpus     driven.CorpusStore
	catalog    *Catalog

	// reloading holds a marker per tenant while its reload runs.
	// A second reload for the same tenant fails fast instead of
	// queueing; other tenants are unaffected.
	reloading sync.Map
}

// NewIngestService creates a new ingest service. corpus may be nil, in
// which case indexes are memory-only and warmup is a no-op.
func NewIngestService(
	tenants []domain.Tenant,
	registry *index.Registry,
	extractorRegistry driven.ExtractorRegistry,
	ch *chunker.Chunker,
	cache driven.EmbeddingCache,
	corpus driven.CorpusStore,
	cat *Catalog,
) *IngestService {
	byID := make(map[domain.TenantID]domain.Tenant, len(tenants))
	for _, t := range tenants {
		byID[t.ID] = t
	}
	return &IngestService{
		tenants:    byID,
		extractors: extractorRegistry,
		chunker:    ch,
		cache:      cache,
		registry:   registry,
		corpus:     corpus,
		catalog:    cat,
	}
}

// tenantCorpus is the mutable working set for one rebuild.
type tenantCorpus struct {
	docs    []domain.Document
	chunks  []domain.Chunk
	vectors [][]float32
}

// Reload re-ingests a tenant's knowledge directory and swaps the active
// index. Documents whose content hash is unchanged keep their persisted
// chunks and vectors; per-document failures are collected, not fatal.
func (s *IngestService) Reload(ctx context.Context, tenant domain.TenantID) (*domain.ReloadReport, error) {
	t, ok := s.tenants[tenant]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTenant, tenant)
	}
	if _, busy := s.reloading.LoadOrStore(tenant, struct{}{}); busy {
		return nil, fmt.Errorf("%w: tenant %q", domain.ErrReloadInProgress, tenant)
	}
	defer s.reloading.Delete(tenant)

	logger.Section("Reload: " + string(tenant))
	started := time.Now()

	prev, err := s.loadPrevious(ctx, tenant)
	if err != nil {
		logger.Warn("Previous corpus for %s unreadable, rebuilding from scratch: %v", tenant, err)
		prev = &tenantCorpus{}
	}
	prevByName := indexByName(prev)

	names, err := s.listKnowledgeFiles(t.KnowledgeDir)
	if err != nil {
		return nil, fmt.Errorf("scanning knowledge directory: %w", err)
	}
	logger.Info("Found %d source files for tenant %s", len(names), tenant)

	report := &domain.ReloadReport{}
	next := &tenantCorpus{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.ingestFile(ctx, t, filepath.Join(t.KnowledgeDir, name), name, prevByName, next, report); err != nil {
			logger.Warn("Ingesting %s failed: %v", name, err)
			report.Failures = append(report.Failures, domain.IngestFailure{Name: name, Err: err})
		}
	}

	if err := s.commit(ctx, tenant, next); err != nil {
		return nil, err
	}
	report.Chunks = len(next.chunks)
	logger.Info("Reloaded tenant %s: %d ingested, %d skipped, %d failed, %d chunks in %v",
		tenant, report.Ingested, report.Skipped, len(report.Failures), report.Chunks,
		time.Since(started).Round(time.Millisecond))
	return report, nil
}

// IngestDocument extracts, chunks, and embeds one uploaded document,
// then rebuilds the tenant's index with it included. An existing
// document with the same name is replaced.
func (s *IngestService) IngestDocument(ctx context.Context, raw *domain.RawDocument) (*domain.ReloadReport, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if _, ok := s.tenants[raw.TenantID]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTenant, raw.TenantID)
	}
	if _, busy := s.reloading.LoadOrStore(raw.TenantID, struct{}{}); busy {
		return nil, fmt.Errorf("%w: tenant %q", domain.ErrReloadInProgress, raw.TenantID)
	}
	defer s.reloading.Delete(raw.TenantID)

	doc, chunks, vectors, err := s.processDocument(ctx, raw)
	if err != nil {
		return nil, err
	}

	prev, err := s.loadPrevious(ctx, raw.TenantID)
	if err != nil {
		logger.Warn("Previous corpus for %s unreadable, keeping only the new document: %v", raw.TenantID, err)
		prev = &tenantCorpus{}
	}

	next := &tenantCorpus{}
	for _, d := range prev.docs {
		if d.Name == doc.Name {
			continue
		}
		next.docs = append(next.docs, d)
	}
	keep := make(map[string]bool, len(next.docs))
	for _, d := range next.docs {
		keep[d.ID] = true
	}
	for i, c := range prev.chunks {
		if !keep[c.DocumentID] {
			continue
		}
		next.chunks = append(next.chunks, c)
		next.vectors = append(next.vectors, prev.vectors[i])
	}
	next.docs = append(next.docs, *doc)
	next.chunks = append(next.chunks, chunks...)
	next.vectors = append(next.vectors, vectors...)

	if err := s.commit(ctx, raw.TenantID, next); err != nil {
		return nil, err
	}
	return &domain.ReloadReport{Ingested: 1, Chunks: len(next.chunks)}, nil
}

// Warmup restores persisted indexes for all configured tenants. A
// corrupt corpus leaves that tenant with an empty index and does not
// affect the others.
func (s *IngestService) Warmup(ctx context.Context) error {
	if s.corpus == nil {
		return nil
	}
	logger.Section("Warmup")
	for id := range s.tenants {
		docs, chunks, vectors, err := s.corpus.LoadCorpus(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrIndexCorrupt) {
				logger.Warn("Persisted index for tenant %s is corrupt, starting empty: %v", id, err)
				s.registry.Swap(id, index.Empty(s.registry.Dimensions()))
				continue
			}
			return fmt.Errorf("loading corpus for tenant %s: %w", id, err)
		}
		builder := index.NewBuilder(s.registry.Dimensions())
		for i, c := range chunks {
			if err := builder.Add(vectors[i], c); err != nil {
				logger.Warn("Persisted index for tenant %s is unusable, starting empty: %v", id, err)
				builder = nil
				break
			}
		}
		if builder == nil {
			s.registry.Swap(id, index.Empty(s.registry.Dimensions()))
			continue
		}
		s.registry.Swap(id, builder.Seal())
		s.catalog.replace(id, docs)
		logger.Info("Restored tenant %s: %d documents, %d chunks", id, len(docs), len(chunks))
	}
	return nil
}

// ingestFile processes one file from the knowledge directory, reusing
// persisted chunks when the content hash is unchanged.
func (s *IngestService) ingestFile(
	ctx context.Context,
	t domain.Tenant,
	path, name string,
	prev map[string]*docEntry,
	next *tenantCorpus,
	report *domain.ReloadReport,
) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	raw := &domain.RawDocument{
		TenantID: t.ID,
		Name:     name,
		MIMEType: extractors.DetectMIMEType(name),
		Content:  content,
	}

	extractor, err := s.extractors.Lookup(raw.MIMEType)
	if err != nil {
		return err
	}
	doc, err := extractor.Extract(ctx, raw)
	if err != nil {
		return err
	}

	if entry, ok := prev[name]; ok && entry.doc.ContentHash == doc.ContentHash && len(entry.chunks) > 0 {
		next.docs = append(next.docs, entry.doc)
		next.chunks = append(next.chunks, entry.chunks...)
		next.vectors = append(next.vectors, entry.vectors...)
		report.Skipped++
		logger.Debug("Skipped %s (unchanged)", name)
		return nil
	}

	chunks, vectors, err := s.embedDocument(ctx, doc)
	if err != nil {
		return err
	}
	next.docs = append(next.docs, *doc)
	next.chunks = append(next.chunks, chunks...)
	next.vectors = append(next.vectors, vectors...)
	report.Ingested++
	logger.Debug("Ingested %s: %d chunks", name, len(chunks))
	return nil
}

// processDocument runs extraction, chunking, and embedding for one raw
// document.
func (s *IngestService) processDocument(ctx context.Context, raw *domain.RawDocument) (*domain.Document, []domain.Chunk, [][]float32, error) {
	extractor, err := s.extractors.Lookup(raw.MIMEType)
	if err != nil {
		return nil, nil, nil, err
	}
	doc, err := extractor.Extract(ctx, raw)
	if err != nil {
		return nil, nil, nil, err
	}
	chunks, vectors, err := s.embedDocument(ctx, doc)
	if err != nil {
		return nil, nil, nil, err
	}
	return doc, chunks, vectors, nil
}

// embedDocument splits a document and embeds each chunk through the
// cache.
func (s *IngestService) embedDocument(ctx context.Context, doc *domain.Document) ([]domain.Chunk, [][]float32, error) {
	chunks, err := s.chunker.Split(doc)
	if err != nil {
		return nil, nil, err
	}
	vectors := make([][]float32, len(chunks))
	for i, c := range chunks {
		vector, err := s.cache.GetOrCompute(ctx, doc.TenantID, c.Content)
		if err != nil {
			return nil, nil, fmt.Errorf("embedding chunk %d: %w", i, err)
		}
		vectors[i] = vector
	}
	return chunks, vectors, nil
}

// commit builds the new snapshot, persists the corpus, and swaps the
// active index. The swap happens last so readers never see an index
// that failed to persist.
func (s *IngestService) commit(ctx context.Context, tenant domain.TenantID, next *tenantCorpus) error {
	builder := index.NewBuilder(s.registry.Dimensions())
	for i, c := range next.chunks {
		if err := builder.Add(next.vectors[i], c); err != nil {
			return fmt.Errorf("indexing chunk %s: %w", c.ID, err)
		}
	}
	if s.corpus != nil {
		if err := s.corpus.ReplaceCorpus(ctx, tenant, next.docs, next.chunks, next.vectors); err != nil {
			return fmt.Errorf("persisting corpus: %w", err)
		}
	}
	s.registry.Swap(tenant, builder.Seal())
	s.catalog.replace(tenant, next.docs)
	return nil
}

// loadPrevious fetches a tenant's persisted corpus, or an empty one
// when persistence is disabled.
func (s *IngestService) loadPrevious(ctx context.Context, tenant domain.TenantID) (*tenantCorpus, error) {
	if s.corpus == nil {
		return &tenantCorpus{}, nil
	}
	docs, chunks, vectors, err := s.corpus.LoadCorpus(ctx, tenant)
	if err != nil {
		return nil, err
	}
	return &tenantCorpus{docs: docs, chunks: chunks, vectors: vectors}, nil
}

// listKnowledgeFiles returns the supported file names in a knowledge
// directory, sorted. A missing directory is treated as empty.
func (s *IngestService) listKnowledgeFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn("Knowledge directory %s does not exist", dir)
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if name == "" || name[0] == '.' {
			continue
		}
		if _, err := s.extractors.Lookup(extractors.DetectMIMEType(name)); err != nil {
			logger.Debug("Skipping %s: unsupported format", name)
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// docEntry groups a persisted document with its chunks and vectors.
type docEntry struct {
	doc     domain.Document
	chunks  []domain.Chunk
	vectors [][]float32
}

// indexByName groups a corpus by document name for hash lookups.
func indexByName(c *tenantCorpus) map[string]*docEntry {
	byID := make(map[string]*docEntry, len(c.docs))
	byName := make(map[string]*docEntry, len(c.docs))
	for _, d := range c.docs {
		e := &docEntry{doc: d}
		byID[d.ID] = e
		byName[d.Name] = e
	}
	for i, ch := range c.chunks {
		if e, ok := byID[ch.DocumentID]; ok {
			e.chunks = append(e.chunks, ch)
			e.vectors = append(e.vectors, c.vectors[i])
		}
	}
	return byName
}
