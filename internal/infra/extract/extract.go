// Package extract pulls plain text out of uploaded documents.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/ports/adapter"
)

var _ adapter.DocumentExtractor = (*Extractor)(nil)

type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func isPDF(name, mime string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf") || strings.EqualFold(mime, "application/pdf")
}

func isText(name, mime string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown":
		return true
	}
	return strings.HasPrefix(strings.ToLower(mime), "text/")
}

func (e *Extractor) Supports(name, mime string) bool {
	return isPDF(name, mime) || isText(name, mime)
}

func (e *Extractor) Extract(ctx context.Context, name, mime string, data []byte) (string, error) {
	switch {
	case isPDF(name, mime):
		return pdfText(ctx, data)
	case isText(name, mime):
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrUnsupportedFile, name)
		}
		return string(data), nil
	}
	return "", fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, name)
}

func pdfText(ctx context.Context, data []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", domain.ErrNoExtractedText
	}
	return out, nil
}
