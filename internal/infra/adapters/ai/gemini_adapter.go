// File: internal/infra/adapters/ai/gemini_adapter.go
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"google.golang.org/genai"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/infra/metrics"
)

var (
	_ adapter.VisionExtractor = (*GeminiAdapter)(nil)
	_ adapter.PromptWriter    = (*GeminiAdapter)(nil)
)

// GeminiAdapter reads whiteboards and writes prompts with the official SDK.
type GeminiAdapter struct {
	client *genai.Client
	model  string
}

func NewGeminiAdapter(ctx context.Context, cfg config.GeminiConfig) (*GeminiAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: empty api key")
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: cfg.BaseURL,
		},
	})
	if err != nil {
		return nil, err
	}
	return &GeminiAdapter{client: c, model: modelOrDefault(cfg.Model, "gemini-2.0-flash")}, nil
}

func (g *GeminiAdapter) ExtractWhiteboard(ctx context.Context, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	parts := []*genai.Part{
		genai.NewPartFromText(visionUserPrompt),
		genai.NewPartFromBytes(image, mimeType),
	}
	return g.generate(ctx, "vision", visionSystemPrompt, parts, nil)
}

func (g *GeminiAdapter) Complete(ctx context.Context, system, user string) (string, error) {
	t := float32(promptTemperature)
	return g.generate(ctx, "prompt", system, []*genai.Part{genai.NewPartFromText(user)}, &t)
}

func (g *GeminiAdapter) generate(ctx context.Context, op, system string, parts []*genai.Part, temperature *float32) (text string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAICall("gemini", op, started, err) }()

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       temperature,
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", err
	}

	if resp != nil && resp.UsageMetadata != nil {
		metrics.ObserveTokenUsage("gemini", g.model,
			int(resp.UsageMetadata.PromptTokenCount), int(resp.UsageMetadata.CandidatesTokenCount))
	}
	text = candidateText(resp)
	if text == "" {
		return "", errors.New("gemini: empty response")
	}
	return text, nil
}

func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil && p.Text != "" {
			b.WriteString(p.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

func modelOrDefault(model, def string) string {
	if strings.TrimSpace(model) != "" {
		return model
	}
	return def
}
