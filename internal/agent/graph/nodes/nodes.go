package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/crm-chatbot-api/server/internal/agent/graph/classifier"
	"github.com/crm-chatbot-api/server/internal/agent/graph/conversations"
	"github.com/crm-chatbot-api/server/internal/agent/graph/prompts"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
	"github.com/crm-chatbot-api/server/pkg/metrics"
)

// ===== Classification =====

// NewClassifierPreHandler resets per-pass state and snapshots the question
// and the history as they were before this pass.
func NewClassifierPreHandler() func(context.Context, model.RoutingInput, *model.AppState) (model.RoutingInput, error) {
	return func(ctx context.Context, in model.RoutingInput, s *model.AppState) (model.RoutingInput, error) {
		in.Question = strings.TrimSpace(in.Question)
		in.History = in.History.Clone()

		s.Question = in.Question
		s.History = in.History
		s.Label = ""
		s.Messages = nil
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewClassifierNode labels the question.
func NewClassifierNode(c *classifier.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.RoutingInput) (model.Classification, error) {
		label, err := c.Classify(ctx, in.Question, in.History)
		if err != nil {
			return model.Classification{}, err
		}
		return model.Classification{
			Question: in.Question,
			History:  in.History,
			Label:    label,
		}, nil
	})
}

// NewClassifierPostHandler stores the label in state.
func NewClassifierPostHandler() func(context.Context, model.Classification, *model.AppState) (model.Classification, error) {
	return func(ctx context.Context, out model.Classification, s *model.AppState) (model.Classification, error) {
		if !out.Label.Valid() {
			out.Label = model.LabelUnknown
		}
		s.Label = out.Label
		metrics.RecordRoute(out.Label.String())
		logx.Debug().Str("label", out.Label.String()).Int("history_turns", len(out.History)).Msg("Routing question")
		return out, nil
	}
}

// NewLabelCondition routes to exactly one handler. Anything that is not
// crm-agent goes to the fallback handler.
func NewLabelCondition() func(context.Context, model.Classification) (string, error) {
	return func(ctx context.Context, in model.Classification) (string, error) {
		if in.Label == model.LabelCRMAgent {
			return NodeCRMAssembler, nil
		}
		return NodeUnknownAssembler, nil
	}
}

// ===== Handler input =====

type systemRenderer func(ctx context.Context, summary string) (string, error)

func newAssemblerNode(mm *conversations.MessagesManager, render systemRenderer) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.Classification) ([]*schema.Message, error) {
		summary, err := mm.Summarize(ctx, in.History)
		if err != nil {
			return nil, err
		}
		system, err := render(ctx, summary)
		if err != nil {
			return nil, err
		}
		return conversations.BuildMessages(system, in.History, in.Question), nil
	})
}

// NewCRMAssemblerNode builds the crm-agent input from its own history summary.
func NewCRMAssemblerNode(mm *conversations.MessagesManager) *compose.Lambda {
	return newAssemblerNode(mm, prompts.RenderCRMAgentSystem)
}

// NewUnknownAssemblerNode builds the fallback handler input.
func NewUnknownAssemblerNode(mm *conversations.MessagesManager) *compose.Lambda {
	return newAssemblerNode(mm, prompts.RenderUnknownSystem)
}

// ===== crm-agent model/tool loop =====

// NewCRMChatModelPreHandler accumulates the transcript and, once the tool
// limit is reached, appends a notice asking the model to answer now.
func NewCRMChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AppState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AppState) ([]*schema.Message, error) {
		state.Messages = append(state.Messages, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			state.Messages = append(state.Messages, schema.SystemMessage(fmt.Sprintf(
				"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
					"Answer now using only the information you have already gathered. "+
					"Acknowledge anything you could not look up.",
				maxToolCalls,
			)))
			logx.Warn().Int("max_tool_calls", maxToolCalls).Msg("Tool call limit reached; requesting final answer")
		}

		out := make([]*schema.Message, len(state.Messages))
		copy(out, state.Messages)
		return out, nil
	}
}

// NewCRMChatModelPostHandler records cost, fills in missing tool call ids
// and appends the response to the transcript.
func NewCRMChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out == nil {
			return out, nil
		}
		addUsageCost(state, NodeCRMChatModel, modelName, out)

		// Some providers omit tool_call ids; the tools node needs them to pair results.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.Messages = append(state.Messages, out)

		if len(out.ToolCalls) > 0 && !state.ToolCallLimitReached {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}
		return out, nil
	}
}

// NewToolExecutorCondition loops back to the tools while the model asks for
// them and the limit has not been reached.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})
		if err != nil {
			return "", fmt.Errorf("read tool limit: %w", err)
		}

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - finalizing")
			return NodeCRMFinalize, nil
		}
		if input != nil && len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}
		return NodeCRMFinalize, nil
	}
}

// NewToolExecutorPreHandler counts one tool round per model turn.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AppState) (*schema.Message, error) {
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Int("tool_calls_in_round", len(in.ToolCalls)).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}

// ===== Fallback handler =====

// NewUnknownChatModelPostHandler records cost of the fallback answer.
func NewUnknownChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AppState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AppState) (*schema.Message, error) {
		if out != nil {
			addUsageCost(state, NodeUnknownChatModel, modelName, out)
		}
		return out, nil
	}
}

// ===== Result =====

// NewFinalizeNode turns the handler's final message into the pass result,
// appending exactly one turn labelled with the handler's own label.
func NewFinalizeNode(label model.AgentLabel) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, out *schema.Message) (model.RoutingResult, error) {
		answer := ""
		if out != nil {
			answer = out.Content
		}
		if strings.TrimSpace(answer) == "" {
			logx.Warn().Str("label", label.String()).Msg("Handler returned empty answer; using fallback text")
			answer = FallbackAnswer
		}

		var result model.RoutingResult
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AppState) error {
			result = model.RoutingResult{
				Label:  label,
				Answer: answer,
				History: state.History.Append(model.Turn{
					User:      state.Question,
					Assistant: answer,
					Agent:     label,
				}),
				CostUSD: state.TotalCostUSD,
			}
			return nil
		})
		if err != nil {
			return model.RoutingResult{}, fmt.Errorf("finalize %s: %w", label, err)
		}
		return result, nil
	})
}
