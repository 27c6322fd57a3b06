package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// buildDocx assembles a minimal DOCX archive in memory.
func buildDocx(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

const documentXMLTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>First paragraph of the policy.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second </w:t></w:r><w:r><w:t>paragraph joins runs.</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtract(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": documentXMLTemplate,
	})

	doc, err := New().Extract(context.Background(), &domain.RawDocument{
		TenantID: "jordan",
		Name:     "travel-policy.docx",
		MIMEType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Content:  content,
	})
	require.NoError(t, err)

	assert.Equal(t, "First paragraph of the policy.\n\nSecond paragraph joins runs.", doc.Content)
	assert.Equal(t, "travel policy", doc.Title)
	assert.Equal(t, "docx", doc.Metadata["format"])
	assert.Equal(t, domain.Fingerprint(doc.Content), doc.ContentHash)
}

func TestExtractTitleFromCoreProperties(t *testing.T) {
	coreXML := `<?xml version="1.0"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
                   xmlns:dc="http://purl.org/dc/elements/1.1/">
  <dc:title>Travel and Expenses</dc:title>
</cp:coreProperties>`

	content := buildDocx(t, map[string]string{
		"word/document.xml": documentXMLTemplate,
		"docProps/core.xml": coreXML,
	})

	doc, err := New().Extract(context.Background(), &domain.RawDocument{
		TenantID: "jordan",
		Name:     "travel.docx",
		Content:  content,
	})
	require.NoError(t, err)
	assert.Equal(t, "Travel and Expenses", doc.Title)
}

func TestExtractNotAZip(t *testing.T) {
	_, err := New().Extract(context.Background(), &domain.RawDocument{
		TenantID: "jordan",
		Name:     "broken.docx",
		Content:  []byte("this is not a zip archive"),
	})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractMissingDocumentXML(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/other.xml": "<x/>",
	})

	_, err := New().Extract(context.Background(), &domain.RawDocument{
		TenantID: "jordan",
		Name:     "empty.docx",
		Content:  content,
	})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractMalformedDocumentXML(t *testing.T) {
	content := buildDocx(t, map[string]string{
		"word/document.xml": "<w:document><unclosed",
	})

	_, err := New().Extract(context.Background(), &domain.RawDocument{
		TenantID: "jordan",
		Name:     "bad.docx",
		Content:  content,
	})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractNilInput(t *testing.T) {
	_, err := New().Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
