// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/ports/adapter"
)

var (
	_ adapter.VisionExtractor = (*MultiAIAdapter)(nil)
	_ adapter.PromptWriter    = (*MultiAIAdapter)(nil)
)

// MultiAIAdapter routes vision and prompt calls across providers. The
// default provider is tried first, the others in registration order when it
// fails.
type MultiAIAdapter struct {
	defaultProvider string // e.g., "openai" or "gemini"
	order           []string
	vision          map[string]adapter.VisionExtractor
	writers         map[string]adapter.PromptWriter
}

func NewMultiAIAdapter(defaultProvider string) *MultiAIAdapter {
	return &MultiAIAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		vision:          map[string]adapter.VisionExtractor{},
		writers:         map[string]adapter.PromptWriter{},
	}
}

func (m *MultiAIAdapter) remember(provider string) string {
	provider = strings.ToLower(provider)
	for _, p := range m.order {
		if p == provider {
			return provider
		}
	}
	m.order = append(m.order, provider)
	return provider
}

// Add registers a provider; either port may be nil.
func (m *MultiAIAdapter) Add(provider string, v adapter.VisionExtractor, w adapter.PromptWriter) *MultiAIAdapter {
	p := m.remember(provider)
	if v != nil {
		m.vision[p] = v
	}
	if w != nil {
		m.writers[p] = w
	}
	return m
}

// Providers lists registered providers, default first.
func (m *MultiAIAdapter) Providers() []string {
	out := make([]string, 0, len(m.order))
	for _, p := range m.order {
		if p == m.defaultProvider {
			out = append([]string{p}, out...)
		} else {
			out = append(out, p)
		}
	}
	return out
}

func (m *MultiAIAdapter) HasVision() bool { return len(m.vision) > 0 }
func (m *MultiAIAdapter) HasWriter() bool { return len(m.writers) > 0 }

func (m *MultiAIAdapter) ExtractWhiteboard(ctx context.Context, image []byte, mimeType string) (string, error) {
	var errs []error
	for _, p := range m.Providers() {
		v := m.vision[p]
		if v == nil {
			continue
		}
		out, err := v.ExtractWhiteboard(ctx, image, mimeType)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", p, err))
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: vision", domain.ErrNotConfigured)
	}
	return "", errors.Join(errs...)
}

func (m *MultiAIAdapter) Complete(ctx context.Context, system, user string) (string, error) {
	var errs []error
	for _, p := range m.Providers() {
		w := m.writers[p]
		if w == nil {
			continue
		}
		out, err := w.Complete(ctx, system, user)
		if err == nil {
			return out, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		errs = append(errs, fmt.Errorf("%s: %w", p, err))
	}
	if len(errs) == 0 {
		return "", fmt.Errorf("%w: prompt model", domain.ErrNotConfigured)
	}
	return "", errors.Join(errs...)
}
