package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/cleardesk/hrkb/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to the
// corpus and embedding cache store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.hrkb/data/corpus.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".hrkb", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "corpus.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CorpusStore returns a CorpusStore interface backed by this store.
func (s *Store) CorpusStore() driven.CorpusStore {
	return &corpusStore{store: s}
}

// CacheStore returns a CacheStore interface backed by this store.
func (s *Store) CacheStore() driven.CacheStore {
	return &cacheStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Corpus Store ====================

// corpusStore implements driven.CorpusStore.
type corpusStore struct {
	store *Store
}

var _ driven.CorpusStore = (*corpusStore)(nil)

// ReplaceCorpus atomically replaces a tenant's documents, chunks, and
// vectors in a single transaction. Chunk order is preserved through a
// monotonically increasing sequence column.
func (s *corpusStore) ReplaceCorpus(ctx context.Context, tenant domain.TenantID, docs []domain.Document, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("%w: %d chunks but %d vectors", domain.ErrInvalidInput, len(chunks), len(vectors))
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE tenant_id = ?", string(tenant)); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE tenant_id = ?", string(tenant)); err != nil {
		return fmt.Errorf("clearing documents: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (id, tenant_id, name, title, mime_type, content, content_hash, metadata, extracted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing document insert: %w", err)
	}
	defer docStmt.Close()

	for _, doc := range docs {
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		if _, err := docStmt.ExecContext(ctx, doc.ID, string(tenant), doc.Name, doc.Title,
			doc.MIMEType, doc.Content, doc.ContentHash, string(metadataJSON),
			doc.ExtractedAt.UTC()); err != nil {
			return fmt.Errorf("saving document %s: %w", doc.Name, err)
		}
	}

	chunkStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, tenant_id, document_id, content, position, start_off, end_off, embedding, metadata, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer chunkStmt.Close()

	for i, chunk := range chunks {
		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}
		embeddingBlob := float32SliceToBytes(vectors[i])
		if _, err := chunkStmt.ExecContext(ctx, chunk.ID, string(tenant), chunk.DocumentID,
			chunk.Content, chunk.Index, chunk.Start, chunk.End, embeddingBlob,
			string(metadataJSON), i); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// LoadCorpus returns a tenant's persisted corpus in insertion order.
// Vector dimensions are checked for internal consistency; a mismatch
// means the data on disk is damaged and is reported as such.
func (s *corpusStore) LoadCorpus(ctx context.Context, tenant domain.TenantID) ([]domain.Document, []domain.Chunk, [][]float32, error) {
	docs, err := s.loadDocuments(ctx, tenant)
	if err != nil {
		return nil, nil, nil, err
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, document_id, content, position, start_off, end_off, embedding, metadata
		FROM chunks WHERE tenant_id = ? ORDER BY seq
	`, string(tenant))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	var vectors [][]float32
	dim := -1
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		var metadataJSON string
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Index,
			&chunk.Start, &chunk.End, &embeddingBlob, &metadataJSON); err != nil {
			return nil, nil, nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunk.TenantID = tenant
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
				return nil, nil, nil, fmt.Errorf("%w: chunk %s metadata: %v", domain.ErrIndexCorrupt, chunk.ID, err)
			}
		}

		if len(embeddingBlob)%4 != 0 {
			return nil, nil, nil, fmt.Errorf("%w: chunk %s embedding blob length %d", domain.ErrIndexCorrupt, chunk.ID, len(embeddingBlob))
		}
		vector := bytesToFloat32Slice(embeddingBlob)
		if len(vector) == 0 {
			return nil, nil, nil, fmt.Errorf("%w: chunk %s has no embedding", domain.ErrIndexCorrupt, chunk.ID)
		}
		if dim == -1 {
			dim = len(vector)
		} else if len(vector) != dim {
			return nil, nil, nil, fmt.Errorf("%w: chunk %s dimension %d, expected %d", domain.ErrIndexCorrupt, chunk.ID, len(vector), dim)
		}

		chunks = append(chunks, chunk)
		vectors = append(vectors, vector)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return docs, chunks, vectors, nil
}

// DocumentHashes returns name -> content hash for a tenant's documents.
func (s *corpusStore) DocumentHashes(ctx context.Context, tenant domain.TenantID) (map[string]string, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT name, content_hash FROM documents WHERE tenant_id = ?
	`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("querying document hashes: %w", err)
	}
	defer rows.Close()

	hashes := make(map[string]string)
	for rows.Next() {
		var name, hash string
		if err := rows.Scan(&name, &hash); err != nil {
			return nil, fmt.Errorf("scanning document hash: %w", err)
		}
		hashes[name] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document hashes: %w", err)
	}
	return hashes, nil
}

// loadDocuments returns a tenant's documents ordered by name.
func (s *corpusStore) loadDocuments(ctx context.Context, tenant domain.TenantID) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, name, title, mime_type, content, content_hash, metadata, extracted_at
		FROM documents WHERE tenant_id = ? ORDER BY name
	`, string(tenant))
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document
	for rows.Next() {
		var doc domain.Document
		var metadataJSON string
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Title, &doc.MIMEType, &doc.Content,
			&doc.ContentHash, &metadataJSON, &doc.ExtractedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		doc.TenantID = tenant
		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
				return nil, fmt.Errorf("%w: document %s metadata: %v", domain.ErrIndexCorrupt, doc.ID, err)
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// ==================== Cache Store ====================

// cacheStore implements driven.CacheStore.
type cacheStore struct {
	store *Store
}

var _ driven.CacheStore = (*cacheStore)(nil)

// GetEntry retrieves a cache entry by tenant and fingerprint.
func (s *cacheStore) GetEntry(ctx context.Context, tenant domain.TenantID, fingerprint string) (*driven.CacheEntry, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT vector, created_at FROM embedding_cache
		WHERE tenant_id = ? AND fingerprint = ?
	`, string(tenant), fingerprint)

	var vectorBlob []byte
	var createdAt time.Time
	if err := row.Scan(&vectorBlob, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning cache entry: %w", err)
	}

	return &driven.CacheEntry{
		Tenant:      tenant,
		Fingerprint: fingerprint,
		Vector:      bytesToFloat32Slice(vectorBlob),
		CreatedAt:   createdAt,
	}, nil
}

// PutEntry stores or replaces a cache entry.
func (s *cacheStore) PutEntry(ctx context.Context, entry driven.CacheEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO embedding_cache (tenant_id, fingerprint, vector, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(tenant_id, fingerprint) DO UPDATE SET
			vector = excluded.vector,
			created_at = excluded.created_at
	`, string(entry.Tenant), entry.Fingerprint, float32SliceToBytes(entry.Vector), entry.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving cache entry: %w", err)
	}
	return nil
}

// DeleteEntry removes a cache entry.
func (s *cacheStore) DeleteEntry(ctx context.Context, tenant domain.TenantID, fingerprint string) error {
	_, err := s.store.db.ExecContext(ctx, `
		DELETE FROM embedding_cache WHERE tenant_id = ? AND fingerprint = ?
	`, string(tenant), fingerprint)
	if err != nil {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// EvictOldest removes the oldest entries for a tenant until at most
// keep remain.
func (s *cacheStore) EvictOldest(ctx context.Context, tenant domain.TenantID, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	result, err := s.store.db.ExecContext(ctx, `
		DELETE FROM embedding_cache
		WHERE tenant_id = ? AND fingerprint NOT IN (
			SELECT fingerprint FROM embedding_cache
			WHERE tenant_id = ?
			ORDER BY created_at DESC, fingerprint
			LIMIT ?
		)
	`, string(tenant), string(tenant), keep)
	if err != nil {
		return 0, fmt.Errorf("evicting cache entries: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting evicted entries: %w", err)
	}
	return int(affected), nil
}

// CountEntries returns the number of cache entries for a tenant.
func (s *cacheStore) CountEntries(ctx context.Context, tenant domain.TenantID) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM embedding_cache WHERE tenant_id = ?
	`, string(tenant))
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting cache entries: %w", err)
	}
	return count, nil
}

// ==================== Helpers ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
