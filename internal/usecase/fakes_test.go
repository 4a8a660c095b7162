//go:build !integration

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/adapter"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// ---- Fakes ----

// scriptedModel replies from a script; reply(i, req) decides the i-th response.
type scriptedModel struct {
	mu    sync.Mutex
	reply func(i int, req adapter.ConverseRequest) (*adapter.ConverseResponse, error)
	reqs  []adapter.ConverseRequest
}

func (m *scriptedModel) Converse(_ context.Context, req adapter.ConverseRequest) (*adapter.ConverseResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	turns := make([]adapter.Turn, len(req.Turns))
	copy(turns, req.Turns)
	req.Turns = turns
	m.reqs = append(m.reqs, req)
	return m.reply(len(m.reqs)-1, req)
}

func (m *scriptedModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reqs)
}

func textReply(s string) *adapter.ConverseResponse {
	return &adapter.ConverseResponse{
		StopReason: "end_turn",
		Blocks:     []adapter.Block{{Type: adapter.BlockText, Text: s}},
	}
}

func toolUse(id, name string, input any) adapter.Block {
	raw, _ := json.Marshal(input)
	return adapter.Block{Type: adapter.BlockToolUse, ToolUseID: id, ToolName: name, Input: raw}
}

func toolReply(uses ...adapter.Block) *adapter.ConverseResponse {
	return &adapter.ConverseResponse{StopReason: "tool_use", Blocks: uses}
}

type fakeWorker struct {
	mu   sync.Mutex
	err  error
	reqs []adapter.RenderRequest
}

func (w *fakeWorker) Enqueue(_ context.Context, req adapter.RenderRequest) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reqs = append(w.reqs, req)
	return w.err
}

type fakeVideos struct {
	err  error
	keys []string
}

func (v *fakeVideos) PutVideo(_ context.Context, key string, data []byte) (string, error) {
	if v.err != nil {
		return "", v.err
	}
	v.keys = append(v.keys, key)
	return "https://cdn.test/" + key, nil
}

type staticCreds string

func (c staticCreds) SecretFor(string) (string, error) { return string(c), nil }

// hashEmbedder maps each text to a 2-d vector derived from its length so
// tests get stable, distinct embeddings.
type hashEmbedder struct {
	mu      sync.Mutex
	batches [][]string
	err     error
}

func (e *hashEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.batches = append(e.batches, append([]string(nil), texts...))
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) Transcribe(context.Context, string, string, []byte) (string, error) {
	return f.text, f.err
}

// textExtractor accepts .txt/.md and text/* and returns the bytes verbatim;
// a body of "FAIL" simulates a broken document.
type textExtractor struct{}

func (textExtractor) Supports(name, mime string) bool {
	n := strings.ToLower(name)
	return strings.HasPrefix(mime, "text/") || strings.HasSuffix(n, ".txt") || strings.HasSuffix(n, ".md")
}

func (textExtractor) Extract(_ context.Context, name, _ string, data []byte) (string, error) {
	if string(data) == "FAIL" {
		return "", fmt.Errorf("cannot read %s", name)
	}
	return string(data), nil
}

type fakeVision struct {
	text string
	err  error
	mime string
}

func (v *fakeVision) ExtractWhiteboard(_ context.Context, _ []byte, mime string) (string, error) {
	v.mime = mime
	return v.text, v.err
}

type fakeWriter struct {
	system, user string
	out          string
	err          error
}

func (w *fakeWriter) Complete(_ context.Context, system, user string) (string, error) {
	w.system, w.user = system, user
	return w.out, w.err
}

type fakeRetriever struct {
	IngestUseCase
	chunks []model.RetrievedChunk
	err    error
	query  string
	lesson string
}

func (r *fakeRetriever) Retrieve(_ context.Context, lessonID, query string, _ int) ([]model.RetrievedChunk, error) {
	r.lesson, r.query = lessonID, query
	return r.chunks, r.err
}

type fakeSynth struct {
	audio []byte
	err   error
}

func (s *fakeSynth) Synthesize(context.Context, string) ([]byte, string, error) {
	return s.audio, "audio/mpeg", s.err
}

var errBoom = errors.New("boom")
