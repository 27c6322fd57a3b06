// Package pdf extracts text from PDF documents by shelling out to the
// poppler pdftotext tool. Pure-Go PDF text extraction is unreliable for
// real-world HR documents; pdftotext handles encodings and layout well
// and is available on every supported platform.
package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleardesk/hrkb/internal/core/domain"
	"github.com/cleardesk/hrkb/internal/core/ports/driven"
	"github.com/cleardesk/hrkb/internal/extractors"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// ErrPDFToolNotFound indicates pdftotext is not installed.
var ErrPDFToolNotFound = errors.New("pdftotext not found in PATH")

// maxTitleLineLength bounds how long a first line can be and still be
// treated as a document title.
const maxTitleLineLength = 200

// CommandRunner executes an external command and returns its stdout.
// Abstracted so tests can inject a fake pdftotext.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Extractor handles PDF documents via pdftotext.
type Extractor struct {
	runner CommandRunner
}

// New creates a new PDF extractor using the real pdftotext binary.
func New() *Extractor {
	return &Extractor{runner: execRunner{}}
}

// NewWithRunner creates a PDF extractor with an injected runner.
func NewWithRunner(runner CommandRunner) *Extractor {
	return &Extractor{runner: runner}
}

// CheckAvailable reports whether pdftotext is installed.
func CheckAvailable() error {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return ErrPDFToolNotFound
	}
	return nil
}

// InstallInstructions returns platform hints for installing pdftotext.
func InstallInstructions() string {
	return strings.Join([]string{
		"pdftotext is required for PDF ingestion:",
		"  macOS:  brew install poppler",
		"  Debian: apt install poppler-utils",
		"  Fedora: dnf install poppler-utils",
	}, "\n")
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (e *Extractor) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Priority returns the selection priority.
func (e *Extractor) Priority() int {
	return 50 // Format-specific extractor
}

// Extract converts a PDF to normalised plain text. Page breaks become
// blank lines. A crash or non-zero exit of pdftotext fails with
// domain.ErrExtraction; nothing is written to the corpus.
func (e *Extractor) Extract(ctx context.Context, raw *domain.RawDocument) (*domain.Document, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}
	if _, real := e.runner.(execRunner); real {
		if err := CheckAvailable(); err != nil {
			return nil, err
		}
	}

	tmp, err := os.CreateTemp("", "hrkb-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("%w: temp file: %w", domain.ErrExtraction, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw.Content); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("%w: write temp file: %w", domain.ErrExtraction, err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: close temp file: %w", domain.ErrExtraction, err)
	}

	// "-" sends the text to stdout; -layout keeps table-ish structure.
	out, err := e.runner.Run(ctx, "pdftotext", "-layout", tmp.Name(), "-")
	if err != nil {
		return nil, fmt.Errorf("%w: pdftotext failed: %w", domain.ErrExtraction, err)
	}

	// pdftotext separates pages with form feeds.
	text := strings.ReplaceAll(string(out), "\f", "\n\n")
	text = extractors.NormalizeText(text)

	doc := &domain.Document{
		ID:          uuid.New().String(),
		TenantID:    raw.TenantID,
		Name:        raw.Name,
		Title:       extractTitle(text, raw.Name),
		MIMEType:    raw.MIMEType,
		Content:     text,
		ContentHash: domain.Fingerprint(text),
		Metadata:    copyMetadata(raw.Metadata),
		ExtractedAt: time.Now(),
	}

	if doc.Metadata == nil {
		doc.Metadata = make(map[string]any)
	}
	doc.Metadata["format"] = "pdf"

	return doc, nil
}

// extractTitle uses the first short non-empty line of the extracted
// text as the title, falling back to the file name.
func extractTitle(content, name string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(line) <= maxTitleLineLength {
			return line
		}
	}

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
