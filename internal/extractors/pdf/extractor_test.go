package pdf

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// fakeRunner implements CommandRunner without invoking pdftotext.
type fakeRunner struct {
	output []byte
	err    error

	gotName string
	gotArgs []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.gotName = name
	f.gotArgs = args
	if f.err != nil {
		return nil, f.err
	}
	return f.output, nil
}

func TestExtract(t *testing.T) {
	runner := &fakeRunner{
		output: []byte("Benefits Overview\n\nMedical coverage starts on day one.\fPage two content here.\n"),
	}
	e := NewWithRunner(runner)

	doc, err := e.Extract(context.Background(), &domain.RawDocument{
		TenantID: "us",
		Name:     "benefits_2026.pdf",
		MIMEType: "application/pdf",
		Content:  []byte("%PDF-1.7 fake"),
	})
	require.NoError(t, err)

	assert.Equal(t, "pdftotext", runner.gotName)
	require.Len(t, runner.gotArgs, 3)
	assert.Equal(t, "-layout", runner.gotArgs[0])
	assert.Equal(t, "-", runner.gotArgs[2])

	// Form feeds become paragraph breaks.
	assert.Contains(t, doc.Content, "day one.\n\nPage two")
	assert.Equal(t, "Benefits Overview", doc.Title)
	assert.Equal(t, "pdf", doc.Metadata["format"])
	assert.Equal(t, domain.Fingerprint(doc.Content), doc.ContentHash)
}

func TestExtractToolFailure(t *testing.T) {
	runner := &fakeRunner{err: errors.New("exit status 1")}
	e := NewWithRunner(runner)

	_, err := e.Extract(context.Background(), &domain.RawDocument{
		TenantID: "us",
		Name:     "corrupt.pdf",
		Content:  []byte("not a pdf"),
	})
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestExtractNilInput(t *testing.T) {
	_, err := NewWithRunner(&fakeRunner{}).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		filename string
		expected string
	}{
		{"first line", "Parental Leave Policy\nDetails below.", "x.pdf", "Parental Leave Policy"},
		{"skips blank lines", "\n\n  \nRemote Work Policy\nbody", "x.pdf", "Remote Work Policy"},
		{"long first line falls through", strings.Repeat("a", 300) + "\nShort Title\nbody", "x.pdf", "Short Title"},
		{"empty content uses filename", "", "onboarding_guide.pdf", "onboarding guide"},
		{"all lines too long", strings.Repeat("b", 300), "leave-rules.pdf", "leave rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractTitle(tt.content, tt.filename))
		})
	}
}

func TestInstallInstructions(t *testing.T) {
	assert.Contains(t, InstallInstructions(), "poppler")
}
