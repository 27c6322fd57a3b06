// Package chunker splits normalised document text into overlapping
// segments sized for embedding and LLM context limits.
package chunker

import (
	"strings"

	"github.com/google/uuid"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 1500

// DefaultChunkOverlap is the default number of overlapping characters.
const DefaultChunkOverlap = 300

// DefaultBoundaryWindow is how far back from a hard cut the chunker
// looks for a natural break before giving up and cutting mid-sentence.
const DefaultBoundaryWindow = 100

// Config holds chunking parameters. Counts are in bytes of normalised
// text; the loader guarantees valid UTF-8 with paragraph breaks encoded
// as blank lines.
type Config struct {
	// Size is the maximum chunk length.
	Size int

	// Overlap is the exact number of units consecutive chunks share.
	Overlap int

	// BoundaryWindow is the lookback distance for natural breaks.
	// Zero means DefaultBoundaryWindow.
	BoundaryWindow int
}

// Validate checks the configuration. Overlap >= Size cannot make
// progress and is a configuration error.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Overlap < 0 {
		return domain.ErrInvalidChunkConfig
	}
	if c.Overlap >= c.Size {
		return domain.ErrInvalidChunkConfig
	}
	return nil
}

// Chunker splits document content into overlapping chunks.
type Chunker struct {
	cfg Config
}

// New creates a chunker, applying defaults for zero-valued fields.
func New(cfg Config) (*Chunker, error) {
	if cfg.Size == 0 && cfg.Overlap == 0 {
		cfg.Size = DefaultChunkSize
		cfg.Overlap = DefaultChunkOverlap
	}
	if cfg.BoundaryWindow == 0 {
		cfg.BoundaryWindow = DefaultBoundaryWindow
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Chunker{cfg: cfg}, nil
}

// Split chunks a document's content. Chunks carry monotonically
// increasing offsets; consecutive chunks overlap by exactly
// cfg.Overlap, except the final chunk which may be shorter than Size.
// Splitting the same content twice yields identical boundaries.
func (c *Chunker) Split(doc *domain.Document) ([]domain.Chunk, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	content := doc.Content
	if content == "" {
		return nil, nil
	}

	total := len(content)
	estimated := total/(c.cfg.Size-c.cfg.Overlap) + 1
	chunks := make([]domain.Chunk, 0, estimated)

	start := 0
	for start < total {
		end := start + c.cfg.Size
		if end >= total {
			end = total
		} else {
			end = c.snapToBoundary(content, start, end)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         uuid.New().String(),
			DocumentID: doc.ID,
			TenantID:   doc.TenantID,
			Content:    content[start:end],
			Index:      len(chunks),
			Start:      start,
			End:        end,
		})

		if end == total {
			break
		}
		start = end - c.cfg.Overlap
	}

	return chunks, nil
}

// snapToBoundary moves a hard cut back to the nearest natural break
// within the boundary window. Paragraph breaks win over sentence ends.
// The cut never moves so far back that the next chunk fails to advance.
func (c *Chunker) snapToBoundary(content string, start, end int) int {
	// The snapped cut must leave the next start strictly after this
	// one, so it has to stay beyond start+Overlap.
	floor := end - c.cfg.BoundaryWindow
	if min := start + c.cfg.Overlap + 1; floor < min {
		floor = min
	}
	if floor >= end {
		return end
	}

	window := content[floor:end]

	if i := strings.LastIndex(window, "\n\n"); i >= 0 {
		return floor + i + 2
	}
	if i := lastSentenceEnd(window); i >= 0 {
		return floor + i + 1
	}
	return end
}

// lastSentenceEnd returns the index of the last sentence-terminating
// byte in s that is followed by whitespace, or -1.
func lastSentenceEnd(s string) int {
	for i := len(s) - 1; i > 0; i-- {
		switch s[i] {
		case ' ', '\n', '\t':
			switch s[i-1] {
			case '.', '!', '?':
				return i - 1
			}
		}
	}
	return -1
}

// Reassemble reconstructs the original text from chunks in offset
// order, dropping each chunk's leading overlap. Used by integrity
// checks and tests.
func Reassemble(chunks []domain.Chunk) string {
	var b strings.Builder
	prevEnd := 0
	for _, ch := range chunks {
		if ch.Start >= prevEnd {
			b.WriteString(ch.Content)
		} else {
			b.WriteString(ch.Content[prevEnd-ch.Start:])
		}
		prevEnd = ch.End
	}
	return b.String()
}
