//go:build !integration

package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
)

func TestWith_AttachesContextFields(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)

	ctx := WithTraceID(context.Background(), "t-1")
	ctx = WithJobID(ctx, "job-9")
	With(ctx, &base).Info().Msg("hello")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if got["trace_id"] != "t-1" || got["job_id"] != "job-9" {
		t.Fatalf("missing context fields: %v", got)
	}
	if _, ok := got["lesson_id"]; ok {
		t.Fatalf("lesson_id should be absent: %v", got)
	}
	if TraceID(ctx) != "t-1" {
		t.Fatalf("TraceID = %q", TraceID(ctx))
	}
}

func TestRedact(t *testing.T) {
	if Redact("sk-1234567890", true) != "sk-1234567890" {
		t.Fatalf("dev mode must not redact")
	}
	if got := Redact("", false); got != "" {
		t.Fatalf("unset secret: %q", got)
	}
	if got := Redact("short", false); got != "***" {
		t.Fatalf("short secret: %q", got)
	}
	if got := Redact("sk-1234567890", false); got != "sk-1...90" {
		t.Fatalf("long secret: %q", got)
	}
}
