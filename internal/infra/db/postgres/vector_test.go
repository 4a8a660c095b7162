//go:build !integration

package postgres

import "testing"

func TestVectorLiteral(t *testing.T) {
	if got := vectorLiteral(nil); got != "[]" {
		t.Fatalf("empty vector: %q", got)
	}
	if got := vectorLiteral([]float32{0.5, -1, 0.25}); got != "[0.5,-1,0.25]" {
		t.Fatalf("vector literal: %q", got)
	}
}
