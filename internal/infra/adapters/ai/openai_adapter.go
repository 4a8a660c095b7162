package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/infra/metrics"
)

const (
	visionSystemPrompt = "You are reading a math whiteboard. Extract equations, symbols, and describe what the student is attempting. Be concise."
	visionUserPrompt   = "Extract what is on this whiteboard."
	promptTemperature  = 0.3
)

// Compile-time assurance this adapter satisfies the ports
var (
	_ adapter.Embedder          = (*OpenAIAdapter)(nil)
	_ adapter.SpeechSynthesizer = (*OpenAIAdapter)(nil)
	_ adapter.Transcriber       = (*OpenAIAdapter)(nil)
	_ adapter.VisionExtractor   = (*OpenAIAdapter)(nil)
	_ adapter.PromptWriter      = (*OpenAIAdapter)(nil)
)

// OpenAIAdapter covers embeddings, speech, transcription and chat completions.
type OpenAIAdapter struct {
	apiKey string
	base   string // e.g., https://api.openai.com/v1
	cfg    config.OpenAIConfig
	client *http.Client
}

func NewOpenAIAdapter(cfg config.OpenAIConfig, timeout time.Duration) (*OpenAIAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key empty")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.openai.com/v1"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIAdapter{
		apiKey: cfg.APIKey,
		base:   base,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}, nil
}

func (o *OpenAIAdapter) auth() map[string]string {
	return map[string]string{"Authorization": "Bearer " + o.apiKey}
}

func (o *OpenAIAdapter) Embed(ctx context.Context, texts []string) (out [][]float32, err error) {
	if len(texts) == 0 {
		return nil, nil
	}
	started := time.Now()
	defer func() { metrics.ObserveAICall("openai", "embed", started, err) }()

	body := struct {
		Model string   `json:"model"`
		Input []string `json:"input"`
	}{o.cfg.EmbeddingModel, texts}
	var payload struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
		Usage struct {
			PromptTokens int `json:"prompt_tokens"`
		} `json:"usage"`
	}
	if err := postJSON(ctx, o.client, "openai", o.base+"/embeddings", o.auth(), body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Data) != len(texts) {
		return nil, fmt.Errorf("openai: %d embeddings for %d inputs", len(payload.Data), len(texts))
	}
	sort.Slice(payload.Data, func(i, j int) bool { return payload.Data[i].Index < payload.Data[j].Index })
	out = make([][]float32, len(payload.Data))
	for i, d := range payload.Data {
		out[i] = d.Embedding
	}
	metrics.ObserveTokenUsage("openai", o.cfg.EmbeddingModel, payload.Usage.PromptTokens, 0)
	return out, nil
}

func (o *OpenAIAdapter) Synthesize(ctx context.Context, text string) (audio []byte, ct string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAICall("openai", "tts", started, err) }()

	body := struct {
		Model          string `json:"model"`
		Voice          string `json:"voice"`
		Input          string `json:"input"`
		ResponseFormat string `json:"response_format"`
	}{o.cfg.TTSModel, o.cfg.TTSVoice, text, "mp3"}
	b, err := jsonBody(body)
	if err != nil {
		return nil, "", err
	}
	resp, err := send(ctx, o.client, "openai", o.base+"/audio/speech", "application/json", o.auth(), b)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	audio, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("openai: read audio: %w", err)
	}
	return audio, "audio/mpeg", nil
}

func (o *OpenAIAdapter) Transcribe(ctx context.Context, fileName, mimeType string, data []byte) (text string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAICall("openai", "transcribe", started, err) }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("model", o.cfg.TranscribeModel); err != nil {
		return "", err
	}
	fw, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return "", err
	}
	if _, err := fw.Write(data); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, err := send(ctx, o.client, "openai", o.base+"/audio/transcriptions", mw.FormDataContentType(), o.auth(), &buf)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	var payload struct {
		Text string `json:"text"`
	}
	if err := decodeJSON(resp.Body, &payload); err != nil {
		return "", fmt.Errorf("openai: decode transcription: %w", err)
	}
	return strings.TrimSpace(payload.Text), nil
}

type chatPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

func (o *OpenAIAdapter) chat(ctx context.Context, op string, messages []chatMessage, temperature *float64) (reply string, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAICall("openai", op, started, err) }()

	body := struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		Temperature *float64      `json:"temperature,omitempty"`
	}{o.cfg.ChatModel, messages, temperature}
	var payload struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
		} `json:"usage"`
	}
	if err := postJSON(ctx, o.client, "openai", o.base+"/chat/completions", o.auth(), body, &payload); err != nil {
		return "", err
	}
	metrics.ObserveTokenUsage("openai", o.cfg.ChatModel, payload.Usage.PromptTokens, payload.Usage.CompletionTokens)
	for _, c := range payload.Choices {
		if c.Message.Content != "" {
			return strings.TrimSpace(c.Message.Content), nil
		}
	}
	return "", errors.New("openai: no choice content")
}

func (o *OpenAIAdapter) ExtractWhiteboard(ctx context.Context, image []byte, mimeType string) (string, error) {
	img := chatPart{Type: "image_url", ImageURL: &struct {
		URL string `json:"url"`
	}{DataURL(mimeType, image)}}
	return o.chat(ctx, "vision", []chatMessage{
		{Role: "system", Content: visionSystemPrompt},
		{Role: "user", Content: []chatPart{{Type: "text", Text: visionUserPrompt}, img}},
	}, nil)
}

func (o *OpenAIAdapter) Complete(ctx context.Context, system, user string) (string, error) {
	t := promptTemperature
	return o.chat(ctx, "prompt", []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, &t)
}

// DataURL encodes bytes as a data: URL; mime defaults to image/png.
func DataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
