package domain

// RetrieveOptions configures a retrieval request.
type RetrieveOptions struct {
	// TopK is the maximum number of chunks to return. Zero means the
	// service default.
	TopK int

	// MinScore overrides the configured relevance floor when > 0.
	MinScore float64
}

// RetrievedChunk is one ranked retrieval hit with source attribution.
type RetrievedChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// DocumentName is the source document name for citation.
	DocumentName string

	// DocumentTitle is the source document title.
	DocumentTitle string

	// Score is the cosine similarity to the query, in [-1, 1].
	Score float64
}

// RetrievalResult is the outcome of a retrieval request. A best match
// below the relevance floor yields NoContext=true rather than a
// low-quality citation list; the caller decides whether to fall back
// to non-grounded generation.
type RetrievalResult struct {
	// Chunks are the ranked hits at or above the relevance floor.
	Chunks []RetrievedChunk

	// NoContext indicates no chunk met the relevance floor (or the
	// tenant index is empty).
	NoContext bool

	// BestScore is the top similarity before thresholding. Zero when
	// the index is empty.
	BestScore float64
}

// IngestFailure records one document that failed during a reload batch.
// Failures do not abort the batch; remaining documents continue.
type IngestFailure struct {
	// Name is the source file name.
	Name string

	// Err is the ingestion error.
	Err error
}

// ReloadReport summarises a knowledge base reload for one tenant.
type ReloadReport struct {
	// Ingested is the number of documents (re-)embedded and indexed.
	Ingested int

	// Skipped is the number of documents whose content was unchanged.
	Skipped int

	// Chunks is the total number of chunks in the new index.
	Chunks int

	// Failures lists per-document errors encountered during the batch.
	Failures []IngestFailure
}
