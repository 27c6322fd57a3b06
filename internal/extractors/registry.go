// Package extractors provides implementations of the Extractor
// interface for the supported document formats. Each extractor knows
// how to pull normalised text out of a specific MIME type.
//
// Extractors are registered with the Registry at startup; documents
// with a MIME type no extractor claims fail closed.
package extractors

import (
	"mime"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
)

// Ensure Registry implements the port.
var _ driven.ExtractorRegistry = (*Registry)(nil)

// Registry dispatches raw documents to the highest-priority extractor
// claiming their MIME type.
type Registry struct {
	byMIME map[string][]driven.Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{byMIME: make(map[string][]driven.Extractor)}
}

// Register adds an extractor for all MIME types it supports.
func (r *Registry) Register(e driven.Extractor) {
	for _, mt := range e.SupportedMIMETypes() {
		list := append(r.byMIME[mt], e)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byMIME[mt] = list
	}
}

// Lookup returns the extractor for a MIME type, or
// domain.ErrUnsupportedFormat for unknown types.
func (r *Registry) Lookup(mimeType string) (driven.Extractor, error) {
	// Parameters like "; charset=utf-8" do not affect dispatch.
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))

	if list, ok := r.byMIME[mimeType]; ok && len(list) > 0 {
		return list[0], nil
	}
	return nil, domain.ErrUnsupportedFormat
}

// SupportedMIMETypes returns all registered MIME types, sorted.
func (r *Registry) SupportedMIMETypes() []string {
	out := make([]string, 0, len(r.byMIME))
	for mt := range r.byMIME {
		out = append(out, mt)
	}
	sort.Strings(out)
	return out
}

// customMIMETypes maps extensions Go's mime package does not know (or
// resolves inconsistently across platforms) to stable types.
var customMIMETypes = map[string]string{
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".txt":      "text/plain",
	".csv":      "text/csv",
	".docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// DetectMIMEType resolves a file name to a MIME type. Files without an
// extension default to text/plain; unknown extensions return
// application/octet-stream, which no extractor claims.
func DetectMIMEType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return "text/plain"
	}
	if mt, ok := customMIMETypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		if i := strings.IndexByte(mt, ';'); i >= 0 {
			mt = mt[:i]
		}
		return mt
	}
	return "application/octet-stream"
}
