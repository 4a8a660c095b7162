// File: internal/usecase/graph_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"lovelace-tutor/internal/domain"
	"lovelace-tutor/internal/domain/model"
	"lovelace-tutor/internal/domain/ports/adapter"
	"lovelace-tutor/internal/infra/logging"
	"lovelace-tutor/internal/infra/metrics"
)

// MaxToolIterations bounds the number of model round-trips per request.
const MaxToolIterations = 10

const maxIterationsMessage = "Completed (reached maximum iterations)."

// Compile-time check
var _ GraphUseCase = (*graphUC)(nil)

type GraphRequest struct {
	Query       string
	Expressions []model.DesmosExpression
	Dimension   model.Dimension
}

type GraphResult struct {
	Actions    []model.DesmosAction `json:"actions"`
	Message    string               `json:"message"`
	Iterations int                  `json:"-"`
}

type GraphUseCase interface {
	Run(ctx context.Context, req GraphRequest) (*GraphResult, error)
}

type graphUC struct {
	llm       adapter.ToolChatModel
	model     string
	maxTokens int
	log       *zerolog.Logger
}

func NewGraphUseCase(llm adapter.ToolChatModel, modelName string, maxTokens int, logger *zerolog.Logger) GraphUseCase {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &graphUC{llm: llm, model: modelName, maxTokens: maxTokens, log: logger}
}

func (uc *graphUC) Run(ctx context.Context, req GraphRequest) (*GraphResult, error) {
	log := logging.With(ctx, uc.log)
	defer logging.TraceDuration(log, "GraphUC.Run")()

	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidArgument)
	}
	dim := req.Dimension
	if dim == "" {
		dim = model.Dimension3D
	}

	mirror := newExpressionMirror(req.Expressions)
	turns := []adapter.Turn{{
		Role:   "user",
		Blocks: []adapter.Block{{Type: adapter.BlockText, Text: query}},
	}}
	result := &GraphResult{Actions: []model.DesmosAction{}}

	for i := 1; i <= MaxToolIterations; i++ {
		result.Iterations = i
		resp, err := uc.llm.Converse(ctx, adapter.ConverseRequest{
			Model:     uc.model,
			System:    graphSystemPrompt(dim),
			MaxTokens: uc.maxTokens,
			Turns:     turns,
			Tools:     graphTools,
		})
		if err != nil {
			log.Error().Err(err).Int("iteration", i).Msg("graph model call failed")
			return nil, fmt.Errorf("%w: graph model: %w", domain.ErrUpstream, err)
		}

		uses := resp.ToolUses()
		if len(uses) == 0 {
			result.Message = resp.Text()
			metrics.ObserveToolLoop(i, false)
			log.Debug().Int("iterations", i).Int("actions", len(result.Actions)).Msg("graph loop finished")
			return result, nil
		}

		turns = append(turns, adapter.Turn{Role: "assistant", Blocks: resp.Blocks})
		results := make([]adapter.Block, 0, len(uses))
		for _, use := range uses {
			block, action := uc.dispatch(mirror, use)
			if action != nil {
				result.Actions = append(result.Actions, *action)
			}
			metrics.IncToolCall(use.ToolName, block.IsError)
			results = append(results, block)
		}
		turns = append(turns, adapter.Turn{Role: "user", Blocks: results})
	}

	log.Warn().Int("actions", len(result.Actions)).Msg("graph loop hit iteration cap")
	metrics.ObserveToolLoop(MaxToolIterations, true)
	result.Message = maxIterationsMessage
	return result, nil
}

// dispatch satisfies one tool invocation against the mirror.
func (uc *graphUC) dispatch(m *expressionMirror, use adapter.Block) (adapter.Block, *model.DesmosAction) {
	call, err := decodeToolCall(use)
	if err != nil {
		return toolResult(use.ToolUseID, err.Error(), true), nil
	}

	switch c := call.(type) {
	case addExpressionCall:
		id := m.add(c.Latex)
		a := model.AddAction(id, c.Latex)
		return toolResult(use.ToolUseID, addSuccess(id), false), &a
	case getExpressionsCall:
		return toolResult(use.ToolUseID, m.snapshotJSON(), false), nil
	case removeExpressionCall:
		m.remove(c.ID)
		a := model.RemoveAction(c.ID)
		return toolResult(use.ToolUseID, toolSuccess, false), &a
	case setExpressionCall:
		m.set(c.ID, c.Latex)
		a := model.SetAction(c.ID, c.Latex)
		return toolResult(use.ToolUseID, toolSuccess, false), &a
	case unknownToolCall:
		uc.log.Warn().Str("tool", c.Name).Msg("model requested unknown tool")
		return toolResult(use.ToolUseID, "Unknown tool: "+c.Name, true), nil
	default:
		// unreachable: decodeToolCall is closed
		panic(fmt.Sprintf("unhandled tool call %T", call))
	}
}
