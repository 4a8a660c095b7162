package usecase

import (
	"encoding/json"
	"fmt"
	"strings"

	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/adapter"
)

const firstTempID = 1000

// toolCall is one decoded tool invocation. The loop switches over the
// concrete types; anything it does not know is an unknownToolCall.
type toolCall interface{ toolName() string }

type addExpressionCall struct{ Latex string }
type getExpressionsCall struct{}
type removeExpressionCall struct{ ID string }
type setExpressionCall struct{ ID, Latex string }
type unknownToolCall struct{ Name string }

func (addExpressionCall) toolName() string    { return toolAddExpression }
func (getExpressionsCall) toolName() string   { return toolGetExpressions }
func (removeExpressionCall) toolName() string { return toolRemoveExpression }
func (setExpressionCall) toolName() string    { return toolSetExpression }
func (c unknownToolCall) toolName() string    { return c.Name }

type toolInput struct {
	ID    *string `json:"id"`
	Latex *string `json:"latex"`
}

// decodeToolCall maps a tool_use block onto a typed call. A known tool with
// unusable input yields an error that is reported back to the model.
func decodeToolCall(b adapter.Block) (toolCall, error) {
	var in toolInput
	switch b.ToolName {
	case toolAddExpression, toolRemoveExpression, toolSetExpression:
		if len(b.Input) > 0 {
			if err := json.Unmarshal(b.Input, &in); err != nil {
				return nil, fmt.Errorf("invalid input for %s: %v", b.ToolName, err)
			}
		}
	}

	switch b.ToolName {
	case toolAddExpression:
		if in.Latex == nil || strings.TrimSpace(*in.Latex) == "" {
			return nil, fmt.Errorf("%s requires a non-empty latex string", b.ToolName)
		}
		return addExpressionCall{Latex: *in.Latex}, nil
	case toolGetExpressions:
		return getExpressionsCall{}, nil
	case toolRemoveExpression:
		if in.ID == nil || *in.ID == "" {
			return nil, fmt.Errorf("%s requires an id", b.ToolName)
		}
		return removeExpressionCall{ID: *in.ID}, nil
	case toolSetExpression:
		if in.ID == nil || *in.ID == "" {
			return nil, fmt.Errorf("%s requires an id", b.ToolName)
		}
		if in.Latex == nil {
			return nil, fmt.Errorf("%s requires a latex string", b.ToolName)
		}
		return setExpressionCall{ID: *in.ID, Latex: *in.Latex}, nil
	default:
		return unknownToolCall{Name: b.ToolName}, nil
	}
}

// expressionMirror is the server-side copy of the calculator state for one
// request. It only exists to answer desmos_get_expressions consistently with
// the actions issued so far.
type expressionMirror struct {
	exprs  []model.DesmosExpression
	nextID int
}

func newExpressionMirror(seed []model.DesmosExpression) *expressionMirror {
	exprs := make([]model.DesmosExpression, len(seed))
	copy(exprs, seed)
	return &expressionMirror{exprs: exprs, nextID: firstTempID}
}

func (m *expressionMirror) add(latex string) string {
	id := fmt.Sprintf("temp-%d", m.nextID)
	m.nextID++
	m.exprs = append(m.exprs, model.DesmosExpression{ID: id, Latex: latex})
	return id
}

// remove and set are no-ops for unknown ids; the client is the source of truth.
func (m *expressionMirror) remove(id string) {
	out := m.exprs[:0]
	for _, e := range m.exprs {
		if e.ID != id {
			out = append(out, e)
		}
	}
	m.exprs = out
}

func (m *expressionMirror) set(id, latex string) {
	for i := range m.exprs {
		if m.exprs[i].ID == id {
			m.exprs[i].Latex = latex
		}
	}
}

func (m *expressionMirror) snapshotJSON() string {
	if len(m.exprs) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(m.exprs)
	return string(b)
}

func toolResult(id, content string, isErr bool) adapter.Block {
	return adapter.Block{Type: adapter.BlockToolResult, ToolUseID: id, Content: content, IsError: isErr}
}

const toolSuccess = `{"success":true}`

func addSuccess(id string) string {
	b, _ := json.Marshal(struct {
		Success bool   `json:"success"`
		ID      string `json:"id"`
	}{true, id})
	return string(b)
}
