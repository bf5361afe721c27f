// Package pdfutil pulls plain text out of uploaded PDF documents.
package pdfutil

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	pdf "github.com/ledongthuc/pdf"
)

// Summary describes a PDF resource.
type Summary struct {
	Pages   int    `json:"pages"`
	Excerpt string `json:"excerpt"`
}

// ExtractText returns the text of every page followed by the page count.
func ExtractText(data []byte) (string, int, error) {
	reader := bytes.NewReader(data)
	doc, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("new pdf reader: %w", err)
	}
	var builder strings.Builder
	total := doc.NumPage()
	for page := 1; page <= total; page++ {
		p := doc.Page(page)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			return "", total, fmt.Errorf("page %d: %w", page, err)
		}
		builder.WriteString(content)
		builder.WriteString("\n")
	}
	return builder.String(), total, nil
}

// Summarize drains r and returns the page count and the first maxChars
// characters of text with whitespace collapsed.
func Summarize(r io.Reader, maxChars int) (Summary, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Summary{}, fmt.Errorf("read pdf: %w", err)
	}
	text, pages, err := ExtractText(data)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Pages: pages, Excerpt: Excerpt(text, maxChars)}, nil
}

// Excerpt collapses whitespace and truncates to maxChars runes, ending with
// an ellipsis when text was cut.
func Excerpt(text string, maxChars int) string {
	collapsed := strings.Join(strings.FieldsFunc(text, unicode.IsSpace), " ")
	runes := []rune(collapsed)
	if maxChars <= 0 || len(runes) <= maxChars {
		return collapsed
	}
	return strings.TrimSpace(string(runes[:maxChars])) + "…"
}
