package driven

import (
	"context"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// Extractor converts raw document bytes of specific MIME types into
// normalised plain text. Extraction has no side effects beyond the
// returned result; persistence is the caller's responsibility.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Priority returns the selection priority (higher = preferred)
	// when several extractors claim the same MIME type.
	Priority() int

	// Extract transforms raw bytes into a document with normalised
	// text. Malformed input fails with domain.ErrExtraction.
	Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error)
}

// ExtractorRegistry selects an extractor for a MIME type. Unknown types
// fail closed with domain.ErrUnsupportedFormat.
type ExtractorRegistry interface {
	// Lookup returns the highest-priority extractor for the MIME type.
	Lookup(mimeType string) (Extractor, error)

	// SupportedMIMETypes returns all MIME types with a registered
	// extractor, sorted.
	SupportedMIMETypes() []string
}
