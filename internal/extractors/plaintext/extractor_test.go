package plaintext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

func TestExtract(t *testing.T) {
	e := New()

	raw := &domain.RawDocument{
		TenantID: "jordan",
		Name:     "leave_policy.txt",
		MIMEType: "text/plain",
		Content:  []byte("Annual leave accrues monthly.\r\n\r\n\r\nCarry-over is capped.\r\n"),
	}

	doc, err := e.Extract(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, domain.TenantID("jordan"), doc.TenantID)
	assert.Equal(t, "leave_policy.txt", doc.Name)
	assert.Equal(t, "leave policy", doc.Title)
	assert.Equal(t, "Annual leave accrues monthly.\n\nCarry-over is capped.", doc.Content)
	assert.Equal(t, domain.Fingerprint(doc.Content), doc.ContentHash)
	assert.Equal(t, "plaintext", doc.Metadata["format"])
	assert.NotEmpty(t, doc.ID)
	assert.False(t, doc.ExtractedAt.IsZero())
}

func TestExtractInvalidUTF8(t *testing.T) {
	e := New()

	raw := &domain.RawDocument{
		TenantID: "us",
		Name:     "notes.txt",
		MIMEType: "text/plain",
		Content:  []byte{'o', 'k', ' ', 0xff, 0xfe, ' ', 'e', 'n', 'd'},
	}

	doc, err := e.Extract(context.Background(), raw)
	require.NoError(t, err, "invalid bytes are replaced, not fatal")
	assert.Contains(t, doc.Content, "ok")
	assert.Contains(t, doc.Content, "end")
}

func TestExtractNilInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractPreservesMetadata(t *testing.T) {
	raw := &domain.RawDocument{
		TenantID: "jordan",
		Name:     "a.txt",
		Content:  []byte("text"),
		Metadata: map[string]any{"origin": "upload"},
	}

	doc, err := New().Extract(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "upload", doc.Metadata["origin"])

	// The document owns a copy; mutating it must not touch the input.
	doc.Metadata["origin"] = "changed"
	assert.Equal(t, "upload", raw.Metadata["origin"])
}

func TestDeterministicContentHash(t *testing.T) {
	raw := func() *domain.RawDocument {
		return &domain.RawDocument{TenantID: "jordan", Name: "a.txt", Content: []byte("same content")}
	}

	first, err := New().Extract(context.Background(), raw())
	require.NoError(t, err)
	second, err := New().Extract(context.Background(), raw())
	require.NoError(t, err)

	assert.Equal(t, first.ContentHash, second.ContentHash)
	assert.NotEqual(t, first.ID, second.ID, "IDs are unique per extraction")
}
