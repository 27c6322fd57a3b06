package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// RawDocument represents opaque bytes delivered for ingestion, before
// any text extraction has happened.
type RawDocument struct {
	// TenantID is the tenant the document belongs to.
	TenantID TenantID

	// Name is the source file name (e.g. "benefits_2026.pdf").
	Name string

	// MIMEType is the declared or detected content type.
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains source-specific key-value pairs.
	Metadata map[string]any
}

// Document represents an ingested document after text extraction.
// Documents are never mutated in place; re-ingestion produces a new
// extraction with a fresh ExtractedAt timestamp.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// TenantID is the owning tenant.
	TenantID TenantID

	// Name is the source file name, used for attribution.
	Name string

	// Title is the human-readable title.
	Title string

	// MIMEType is the content type the document was extracted from.
	MIMEType string

	// Content is the full normalised text. Page and section breaks are
	// preserved as blank-line markers.
	Content string

	// ContentHash is the sha256 hex digest of Content, used to skip
	// re-embedding unchanged documents on reload.
	ContentHash string

	// Metadata contains arbitrary key-value pairs.
	Metadata map[string]any

	// ExtractedAt is when the text was extracted.
	ExtractedAt time.Time
}

// Chunk is a contiguous span of a document's normalised text, the unit
// of embedding and retrieval. Chunks of one document, ordered by offset,
// reconstruct the document text with configured overlaps.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// TenantID is the owning tenant.
	TenantID TenantID

	// Content is the text content of this chunk.
	Content string

	// Index is the ordinal position within the document.
	Index int

	// Start is the byte offset of the chunk in the document content.
	Start int

	// End is the byte offset one past the last byte of the chunk.
	End int

	// Metadata contains chunk-specific key-value pairs.
	Metadata map[string]any
}

// Fingerprint returns the deterministic cache key component for the
// chunk's text. It is a pure function of the content: identical text
// always produces the same fingerprint.
func (c Chunk) Fingerprint() string {
	return Fingerprint(c.Content)
}

// Fingerprint computes the sha256 hex digest of a text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
