package extractors

import (
	"regexp"
	"strings"
)

var multiBlank = regexp.MustCompile(`\n{3,}`)

// NormalizeText canonicalises extracted text: line endings become \n,
// runs of blank lines collapse to a single paragraph break, and
// surrounding whitespace is trimmed. Paragraph and page breaks survive
// as blank lines so the chunker can prefer them as cut points.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = multiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
