// File: internal/infra/adapters/ai/anthropic_adapter.go
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/infra/metrics"
)

const anthropicVersion = "2023-06-01"

// Compile-time assurance this adapter satisfies the port
var _ adapter.ToolChatModel = (*AnthropicAdapter)(nil)

// AnthropicAdapter implements adapter.ToolChatModel on the Messages API.
type AnthropicAdapter struct {
	apiKey string
	base   string // e.g., https://api.anthropic.com/v1
	client *http.Client
}

func NewAnthropicAdapter(cfg config.AnthropicConfig, timeout time.Duration) (*AnthropicAdapter, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic api key empty")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.anthropic.com/v1"
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &AnthropicAdapter{apiKey: cfg.APIKey, base: base, client: &http.Client{Timeout: timeout}}, nil
}

type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system,omitempty"`
	Messages  []anthropicMessage `json:"messages"`
	Tools     []anthropicTool    `json:"tools,omitempty"`
}

type anthropicResponse struct {
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func toAnthropicBlock(b adapter.Block) anthropicBlock {
	switch b.Type {
	case adapter.BlockToolUse:
		input := b.Input
		if len(input) == 0 {
			input = json.RawMessage(`{}`)
		}
		return anthropicBlock{Type: b.Type, ID: b.ToolUseID, Name: b.ToolName, Input: input}
	case adapter.BlockToolResult:
		return anthropicBlock{Type: b.Type, ToolUseID: b.ToolUseID, Content: b.Content, IsError: b.IsError}
	default:
		return anthropicBlock{Type: adapter.BlockText, Text: b.Text}
	}
}

func fromAnthropicBlock(b anthropicBlock) adapter.Block {
	switch b.Type {
	case adapter.BlockToolUse:
		return adapter.Block{Type: b.Type, ToolUseID: b.ID, ToolName: b.Name, Input: b.Input}
	default:
		return adapter.Block{Type: b.Type, Text: b.Text}
	}
}

func (a *AnthropicAdapter) Converse(ctx context.Context, req adapter.ConverseRequest) (resp *adapter.ConverseResponse, err error) {
	started := time.Now()
	defer func() { metrics.ObserveAICall("anthropic", "messages", started, err) }()

	body := anthropicRequest{Model: req.Model, MaxTokens: req.MaxTokens, System: req.System}
	for _, t := range req.Turns {
		m := anthropicMessage{Role: t.Role, Content: make([]anthropicBlock, 0, len(t.Blocks))}
		for _, b := range t.Blocks {
			m.Content = append(m.Content, toAnthropicBlock(b))
		}
		body.Messages = append(body.Messages, m)
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, anthropicTool(t))
	}

	var out anthropicResponse
	headers := map[string]string{"x-api-key": a.apiKey, "anthropic-version": anthropicVersion}
	if err := postJSON(ctx, a.client, "anthropic", a.base+"/messages", headers, body, &out); err != nil {
		return nil, err
	}

	resp = &adapter.ConverseResponse{
		StopReason: out.StopReason,
		Blocks:     make([]adapter.Block, 0, len(out.Content)),
		Usage:      adapter.Usage{PromptTokens: out.Usage.InputTokens, CompletionTokens: out.Usage.OutputTokens},
	}
	for _, b := range out.Content {
		resp.Blocks = append(resp.Blocks, fromAnthropicBlock(b))
	}
	metrics.ObserveTokenUsage("anthropic", req.Model, out.Usage.InputTokens, out.Usage.OutputTokens)
	return resp, nil
}
