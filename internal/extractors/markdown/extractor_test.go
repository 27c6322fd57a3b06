package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

func extract(t *testing.T, content string) *domain.Document {
	t.Helper()
	doc, err := New().Extract(context.Background(), &domain.RawDocument{
		TenantID: "jordan",
		Name:     "handbook.md",
		MIMEType: "text/markdown",
		Content:  []byte(content),
	})
	require.NoError(t, err)
	return doc
}

func TestExtractTitleFromHeading(t *testing.T) {
	doc := extract(t, "# Employee Handbook\n\nWelcome aboard.")
	assert.Equal(t, "Employee Handbook", doc.Title)
}

func TestExtractTitleFallsBackToFilename(t *testing.T) {
	doc := extract(t, "No heading here.")
	assert.Equal(t, "handbook", doc.Title)
}

func TestExtractStripsFormatting(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		contains    string
		notContains string
	}{
		{"bold", "This is **important** text.", "This is important text.", "**"},
		{"italic", "This is *emphasised* text.", "This is emphasised text.", "*"},
		{"inline code", "Run `hrkb reload` daily.", "Run  daily.", "`"},
		{"link keeps text", "See [the policy](https://intranet/policy).", "See the policy.", "https"},
		{"image removed", "Before ![diagram](img.png) after.", "Before  after.", "img.png"},
		{"blockquote marker", "> Quoted policy line.", "Quoted policy line.", ">"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := extract(t, tt.input)
			assert.Contains(t, doc.Content, tt.contains)
			assert.NotContains(t, doc.Content, tt.notContains)
		})
	}
}

func TestExtractCodeBlockRemoved(t *testing.T) {
	doc := extract(t, "Intro.\n\n```\nsecret_config = true\n```\n\nOutro.")
	assert.NotContains(t, doc.Content, "secret_config")
	assert.Contains(t, doc.Content, "Intro.")
	assert.Contains(t, doc.Content, "Outro.")
}

func TestExtractHeadingsBecomeParagraphs(t *testing.T) {
	doc := extract(t, "# Title\n\nIntro text.\n\n## Leave Policy\nDetails follow.")

	// Headings survive as their own paragraphs so the chunker can cut
	// at section starts.
	assert.Contains(t, doc.Content, "Leave Policy\n")
	assert.NotContains(t, doc.Content, "#")
}

func TestExtractNilInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractMetadataFormat(t *testing.T) {
	doc := extract(t, "# T\n\nbody")
	assert.Equal(t, "markdown", doc.Metadata["format"])
	assert.Equal(t, domain.Fingerprint(doc.Content), doc.ContentHash)
}
