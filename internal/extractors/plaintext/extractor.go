package plaintext

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
	"github.com/cleardesk/hrkb/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text documents.
type Extractor struct{}

// New creates a new plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
	}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 5 // Fallback extractor
}

// Extract converts raw bytes to a normalised text document. Bytes that
// are not valid UTF-8 are replaced rather than failing the whole file.
func (e *Extractor) Extract(_ context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	content := raw.Content
	if !utf8.Valid(content) {
		content = bytes.ToValidUTF8(content, []byte("�"))
	}

	text := extractors.NormalizeText(string(content))

	doc := &domain.Document{
		ID:          uuid.New().String(),
		TenantID:    raw.TenantID,
		Name:        raw.Name,
		Title:       extractTitle(raw.Name),
		MIMEType:    raw.MIMEType,
		Content:     text,
		ContentHash: domain.Fingerprint(text),
		Metadata:    copyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}

	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["format"] = "plaintext"

	return doc, nil
}

// extractTitle derives a human-readable title from the file name.
func extractTitle(name string) string {
	filename := filepath.Base(name)
	ext := filepath.Ext(filename)
	if ext != "" {
		filename = strings.TrimSuffix(filename, ext)
	}
	filename = strings.ReplaceAll(filename, "_", " ")
	filename = strings.ReplaceAll(filename, "-", " ")
	return filename
}

// copyMetadata creates a shallow copy of metadata.
func copyMetadata(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
