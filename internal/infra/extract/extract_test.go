//go:build !integration

package extract

import (
	"context"
	"errors"
	"testing"

	"lovelace-tutor/internal/domain"
)

func TestSupports(t *testing.T) {
	e := New()
	cases := []struct {
		name, mime string
		want       bool
	}{
		{"notes.TXT", "", true},
		{"readme.md", "", true},
		{"data", "text/csv", true},
		{"book.pdf", "", true},
		{"scan", "application/pdf", true},
		{"slides.pptx", "application/octet-stream", false},
		{"photo.png", "image/png", false},
	}
	for _, tc := range cases {
		if got := e.Supports(tc.name, tc.mime); got != tc.want {
			t.Errorf("Supports(%q, %q) = %v", tc.name, tc.mime, got)
		}
	}
}

func TestExtract_Text(t *testing.T) {
	e := New()
	got, err := e.Extract(context.Background(), "n.md", "", []byte("# Title\nbody"))
	if err != nil || got != "# Title\nbody" {
		t.Fatalf("Extract: %q %v", got, err)
	}
	if _, err := e.Extract(context.Background(), "n.txt", "", []byte{0xff, 0xfe}); !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("invalid utf-8: %v", err)
	}
	if _, err := e.Extract(context.Background(), "x.bin", "", []byte("x")); !errors.Is(err, domain.ErrUnsupportedFile) {
		t.Fatalf("unknown type: %v", err)
	}
}

func TestExtract_BrokenPDF(t *testing.T) {
	if _, err := New().Extract(context.Background(), "bad.pdf", "application/pdf", []byte("not a pdf")); err == nil {
		t.Fatalf("expected error for corrupt pdf")
	}
}
