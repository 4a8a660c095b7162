package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiTokensIn,
		aiTokensOut,
		aiCallsLatencyMs,
		toolLoopIterations,
		toolCallsTotal,
	)
}

var (
	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{50, 100, 200, 400, 800, 1600, 3000, 5000, 10000, 30000},
		},
		[]string{"provider", "operation", "success"},
	)

	toolLoopIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graph_tool_loop_iterations",
			Help:    "Model round-trips per graph request.",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
		},
		[]string{"capped"},
	)

	toolCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graph_tool_calls_total",
			Help: "Tool invocations requested by the model, by tool name and outcome.",
		},
		[]string{"tool", "is_error"},
	)
)

// ObserveAICall records one upstream model call.
func ObserveAICall(provider, operation string, started time.Time, err error) {
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(operation), strconv.FormatBool(err == nil)).
		Observe(float64(time.Since(started).Milliseconds()))
}

func ObserveTokenUsage(provider, model string, tokensIn, tokensOut int) {
	lbl := []string{norm(provider), norm(model)}
	aiTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
}

func ObserveToolLoop(iterations int, capped bool) {
	toolLoopIterations.WithLabelValues(strconv.FormatBool(capped)).Observe(float64(iterations))
}

func IncToolCall(tool string, isError bool) {
	toolCallsTotal.WithLabelValues(norm(tool), strconv.FormatBool(isError)).Inc()
}
