package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownTenant indicates the tenant is not configured.
	ErrUnknownTenant = errors.New("unknown tenant")

	// Ingestion Errors.

	// ErrUnsupportedFormat indicates a document type no extractor handles.
	// Unknown formats fail closed rather than being indexed as garbage.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtraction indicates a document could not be converted to text.
	// The file is malformed or corrupt; nothing was written to the corpus.
	ErrExtraction = errors.New("text extraction failed")

	// ErrInvalidChunkConfig indicates chunk overlap >= chunk size.
	ErrInvalidChunkConfig = errors.New("invalid chunking configuration")

	// ErrReloadInProgress indicates a knowledge base reload is already
	// running for the tenant.
	ErrReloadInProgress = errors.New("reload in progress")

	// Retrieval Errors.

	// ErrEmbeddingProvider indicates the embedding provider call failed
	// or timed out. The failure is never cached, so a retry may succeed.
	ErrEmbeddingProvider = errors.New("embedding provider failure")

	// ErrIndexCorrupt indicates a persisted index failed integrity checks
	// on load, such as a dimension mismatch with the configured provider.
	// Fatal for that tenant's index only; the tenant starts empty.
	ErrIndexCorrupt = errors.New("vector index corrupt")

	// ErrDimensionMismatch indicates a vector does not match the index
	// dimension. Rejected at insertion to keep the index consistent.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
