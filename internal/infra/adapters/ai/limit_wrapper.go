package ai

import (
	"context"

	"lovelace-tutor/internal/domain/ports/adapter"
)

// Limiter caps concurrent provider calls across every wrapped port.
// A nil *Limiter passes calls straight through.
type Limiter struct {
	sem chan struct{}
}

func NewLimiter(maxConcurrent int) *Limiter {
	if maxConcurrent <= 0 {
		return nil
	}
	return &Limiter{sem: make(chan struct{}, maxConcurrent)}
}

func (l *Limiter) acquire(ctx context.Context) (func(), error) {
	if l == nil {
		return func() {}, nil
	}
	select {
	case l.sem <- struct{}{}:
		return func() { <-l.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Compile-time check
var (
	_ adapter.ToolChatModel     = (*limitedChat)(nil)
	_ adapter.Embedder          = (*limitedEmbedder)(nil)
	_ adapter.SpeechSynthesizer = (*limitedSpeech)(nil)
	_ adapter.Transcriber       = (*limitedTranscriber)(nil)
	_ adapter.VisionExtractor   = (*limitedVision)(nil)
	_ adapter.PromptWriter      = (*limitedWriter)(nil)
)

type limitedChat struct {
	inner adapter.ToolChatModel
	l     *Limiter
}

func (l *Limiter) ToolChat(inner adapter.ToolChatModel) adapter.ToolChatModel {
	if l == nil || inner == nil {
		return inner
	}
	return &limitedChat{inner: inner, l: l}
}

func (c *limitedChat) Converse(ctx context.Context, req adapter.ConverseRequest) (*adapter.ConverseResponse, error) {
	release, err := c.l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return c.inner.Converse(ctx, req)
}

type limitedEmbedder struct {
	inner adapter.Embedder
	l     *Limiter
}

func (l *Limiter) Embedder(inner adapter.Embedder) adapter.Embedder {
	if l == nil || inner == nil {
		return inner
	}
	return &limitedEmbedder{inner: inner, l: l}
}

func (e *limitedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	release, err := e.l.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()
	return e.inner.Embed(ctx, texts)
}

type limitedSpeech struct {
	inner adapter.SpeechSynthesizer
	l     *Limiter
}

func (l *Limiter) Speech(inner adapter.SpeechSynthesizer) adapter.SpeechSynthesizer {
	if l == nil || inner == nil {
		return inner
	}
	return &limitedSpeech{inner: inner, l: l}
}

func (s *limitedSpeech) Synthesize(ctx context.Context, text string) ([]byte, string, error) {
	release, err := s.l.acquire(ctx)
	if err != nil {
		return nil, "", err
	}
	defer release()
	return s.inner.Synthesize(ctx, text)
}

type limitedTranscriber struct {
	inner adapter.Transcriber
	l     *Limiter
}

func (l *Limiter) Transcriber(inner adapter.Transcriber) adapter.Transcriber {
	if l == nil || inner == nil {
		return inner
	}
	return &limitedTranscriber{inner: inner, l: l}
}

func (t *limitedTranscriber) Transcribe(ctx context.Context, fileName, mimeType string, data []byte) (string, error) {
	release, err := t.l.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return t.inner.Transcribe(ctx, fileName, mimeType, data)
}

type limitedVision struct {
	inner adapter.VisionExtractor
	l     *Limiter
}

func (l *Limiter) Vision(inner adapter.VisionExtractor) adapter.VisionExtractor {
	if l == nil || inner == nil {
		return inner
	}
	return &limitedVision{inner: inner, l: l}
}

func (v *limitedVision) ExtractWhiteboard(ctx context.Context, image []byte, mimeType string) (string, error) {
	release, err := v.l.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return v.inner.ExtractWhiteboard(ctx, image, mimeType)
}

type limitedWriter struct {
	inner adapter.PromptWriter
	l     *Limiter
}

func (l *Limiter) Writer(inner adapter.PromptWriter) adapter.PromptWriter {
	if l == nil || inner == nil {
		return inner
	}
	return &limitedWriter{inner: inner, l: l}
}

func (w *limitedWriter) Complete(ctx context.Context, system, user string) (string, error) {
	release, err := w.l.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()
	return w.inner.Complete(ctx, system, user)
}
