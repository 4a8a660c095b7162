package adapter

import (
	"context"
	"encoding/json"
	"strings"
)

// Block types of a conversation turn.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Block is one content element of a turn. Which fields are set depends on Type:
// text uses Text; tool_use uses ToolUseID, ToolName, Input; tool_result uses
// ToolUseID, Content, IsError.
type Block struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	ToolName  string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

// Turn is a single transcript entry, role "user" or "assistant".
type Turn struct {
	Role   string  `json:"role"`
	Blocks []Block `json:"blocks"`
}

// ToolSpec declares a tool the model may invoke. InputSchema is a JSON schema object.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

// Usage for a single model call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

type ConverseRequest struct {
	Model     string
	System    string
	MaxTokens int
	Turns     []Turn
	Tools     []ToolSpec
}

type ConverseResponse struct {
	StopReason string
	Blocks     []Block
	Usage      Usage
}

// ToolUses returns the tool invocations of the response in order.
func (r *ConverseResponse) ToolUses() []Block {
	var out []Block
	for _, b := range r.Blocks {
		if b.Type == BlockToolUse {
			out = append(out, b)
		}
	}
	return out
}

// Text joins the text blocks of the response with newlines, trimmed.
func (r *ConverseResponse) Text() string {
	var parts []string
	for _, b := range r.Blocks {
		if b.Type == BlockText {
			parts = append(parts, b.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// ToolChatModel is the port for a conversational model that supports tool use.
type ToolChatModel interface {
	Converse(ctx context.Context, req ConverseRequest) (*ConverseResponse, error)
}
