//go:build !integration

package ai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"lovelace-tutor/internal/config"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/infra/adapters/ai"
)

func TestAnthropic_ConverseRoundTrip(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" || r.Header.Get("x-api-key") != "k" || r.Header.Get("anthropic-version") == "" {
			t.Errorf("unexpected request %s %v", r.URL.Path, r.Header)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{
			"content":[{"type":"text","text":"Adding it."},{"type":"tool_use","id":"tu_1","name":"desmos_add_expression","input":{"latex":"y=x"}}],
			"stop_reason":"tool_use",
			"usage":{"input_tokens":12,"output_tokens":7}
		}`))
	}))
	defer srv.Close()

	a, err := ai.NewAnthropicAdapter(config.AnthropicConfig{APIKey: "k", BaseURL: srv.URL + "/v1/"}, 0)
	if err != nil {
		t.Fatalf("NewAnthropicAdapter: %v", err)
	}
	resp, err := a.Converse(context.Background(), adapter.ConverseRequest{
		Model:     "m",
		System:    "sys",
		MaxTokens: 100,
		Turns: []adapter.Turn{
			{Role: "user", Blocks: []adapter.Block{{Type: adapter.BlockText, Text: "plot y=x"}}},
			{Role: "assistant", Blocks: []adapter.Block{{Type: adapter.BlockToolUse, ToolUseID: "tu_0", ToolName: "desmos_get_expressions"}}},
			{Role: "user", Blocks: []adapter.Block{{Type: adapter.BlockToolResult, ToolUseID: "tu_0", Content: "[]"}}},
		},
		Tools: []adapter.ToolSpec{{Name: "desmos_add_expression", Description: "d", InputSchema: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatalf("Converse: %v", err)
	}

	if got["system"] != "sys" || got["max_tokens"].(float64) != 100 {
		t.Fatalf("unexpected request body %v", got)
	}
	msgs := got["messages"].([]any)
	use := msgs[1].(map[string]any)["content"].([]any)[0].(map[string]any)
	if use["id"] != "tu_0" || use["name"] != "desmos_get_expressions" {
		t.Fatalf("tool_use block not mapped: %v", use)
	}
	if _, ok := use["input"].(map[string]any); !ok {
		t.Fatalf("tool_use without input must send an empty object: %v", use)
	}
	result := msgs[2].(map[string]any)["content"].([]any)[0].(map[string]any)
	if result["tool_use_id"] != "tu_0" || result["content"] != "[]" {
		t.Fatalf("tool_result block not mapped: %v", result)
	}
	tools := got["tools"].([]any)
	if tools[0].(map[string]any)["input_schema"] == nil {
		t.Fatalf("tool schema missing: %v", tools)
	}

	if resp.StopReason != "tool_use" || resp.Text() != "Adding it." || resp.Usage.PromptTokens != 12 {
		t.Fatalf("unexpected response %+v", resp)
	}
	uses := resp.ToolUses()
	if len(uses) != 1 || uses[0].ToolUseID != "tu_1" || string(uses[0].Input) != `{"latex":"y=x"}` {
		t.Fatalf("unexpected tool uses %+v", uses)
	}
}

func TestAnthropic_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
	}))
	defer srv.Close()

	a, _ := ai.NewAnthropicAdapter(config.AnthropicConfig{APIKey: "k", BaseURL: srv.URL}, 0)
	_, err := a.Converse(context.Background(), adapter.ConverseRequest{Model: "m", MaxTokens: 1})
	var apiErr *ai.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusTooManyRequests || apiErr.Provider != "anthropic" {
		t.Fatalf("expected APIError 429, got %v", err)
	}

	if _, err := ai.NewAnthropicAdapter(config.AnthropicConfig{}, 0); err == nil {
		t.Fatalf("empty key should be rejected")
	}
}
