package conversations

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/crm-chatbot-api/server/internal/agent/graph/prompts"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	errx "github.com/crm-chatbot-api/server/internal/core/error"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
)

// UsageHook observes every model response so callers can account for cost.
type UsageHook func(ctx context.Context, modelName string, out *schema.Message)

// MessagesManager turns session history into model input: history summaries
// and the replayed message list handed to the handlers.
type MessagesManager struct {
	summarizer einomodel.BaseChatModel
	modelName  string
	onUsage    UsageHook
}

func NewMessagesManager(summarizer einomodel.BaseChatModel, modelName string, onUsage UsageHook) *MessagesManager {
	return &MessagesManager{
		summarizer: summarizer,
		modelName:  modelName,
		onUsage:    onUsage,
	}
}

// Summarize asks the summarizer model to condense history. Empty history
// yields an empty summary without a model call.
func (mm *MessagesManager) Summarize(ctx context.Context, history model.History) (string, error) {
	if len(history) == 0 {
		return "", nil
	}

	msgs := make([]*schema.Message, 0, 1+2*len(history))
	msgs = append(msgs, schema.SystemMessage(prompts.SummaryInstruction()))
	msgs = append(msgs, replay(history)...)

	out, err := mm.summarizer.Generate(ctx, msgs)
	if err != nil {
		logx.Error().Err(err).Int("turns", len(history)).Msg("History summarization failed")
		return "", errx.WrapLLM(fmt.Errorf("summarize history: %w", err))
	}
	if mm.onUsage != nil {
		mm.onUsage(ctx, mm.modelName, out)
	}
	if out == nil {
		return "", nil
	}

	summary := strings.TrimSpace(out.Content)
	logx.Debug().Int("turns", len(history)).Int("summary_len", len(summary)).Msg("History summarized")
	return summary, nil
}

// BuildMessages returns [system, replayed history..., user(question)].
func BuildMessages(systemPrompt string, history model.History, question string) []*schema.Message {
	msgs := make([]*schema.Message, 0, 2+2*len(history))
	msgs = append(msgs, schema.SystemMessage(systemPrompt))
	msgs = append(msgs, replay(history)...)
	return append(msgs, schema.UserMessage(question))
}

// replay converts each turn into a user/assistant message pair.
func replay(history model.History) []*schema.Message {
	msgs := make([]*schema.Message, 0, 2*len(history))
	for _, t := range history {
		msgs = append(msgs,
			schema.UserMessage(t.User),
			schema.AssistantMessage(t.Assistant, nil),
		)
	}
	return msgs
}
