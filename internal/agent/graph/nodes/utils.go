package nodes

import (
	"context"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/crm-chatbot-api/server/internal/agent/model"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
	"github.com/crm-chatbot-api/server/pkg/metrics"
)

const DefaultMaxToolCalls = 6

// normalizeMaxToolCalls returns a sane default when the provided value is invalid.
func normalizeMaxToolCalls(n int) int {
	if n <= 0 {
		return DefaultMaxToolCalls
	}
	return n
}

// checkAndMarkToolLimit marks the state once the number of executed tool
// rounds reaches the limit. Returns true only when marked now.
func checkAndMarkToolLimit(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	if !state.ToolCallLimitReached && state.ToolCallCount >= max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// incrementToolCallAndCheck counts one tool round and marks the state if it
// now exceeds the limit. Returns true when exceeded.
func incrementToolCallAndCheck(state *model.AppState, max int) bool {
	max = normalizeMaxToolCalls(max)
	state.ToolCallCount++
	if state.ToolCallCount > max {
		state.ToolCallLimitReached = true
		return true
	}
	return false
}

// MaxRunSteps bounds graph execution: a fixed number of steps for the
// linear part plus two per allowed tool round.
func MaxRunSteps(maxToolCalls int) int {
	steps := 10 + normalizeMaxToolCalls(maxToolCalls)*2
	if steps < 20 {
		steps = 20
	}
	return steps
}

// addUsageCost converts the usage of one model response into USD, logs it
// and accumulates it into state. Must only be called from a state handler.
func addUsageCost(state *model.AppState, node, modelName string, out *schema.Message) {
	usage := model.UsageOf(out)
	if usage == nil {
		return
	}
	inC, outC, totalC := model.ComputeCost(usage, model.ResolvePricing(modelName))
	state.TotalCostUSD += totalC
	metrics.RecordCost(modelName, totalC)

	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     usage.PromptTokens,
		"completion_tokens": usage.CompletionTokens,
		"total_tokens":      usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD

	logx.Debug().
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Int("total_tokens", usage.TotalTokens).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")
}

// RecordUsage accounts for model calls made inside lambda nodes (summaries,
// classification). Outside a graph run only the metric is recorded.
func RecordUsage(ctx context.Context, modelName string, out *schema.Message) {
	err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
		addUsageCost(state, "lambda", modelName, out)
		return nil
	})
	if err != nil {
		if usage := model.UsageOf(out); usage != nil {
			_, _, total := model.ComputeCost(usage, model.ResolvePricing(modelName))
			metrics.RecordCost(modelName, total)
		}
	}
}
