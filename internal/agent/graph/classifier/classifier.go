// Package classifier decides which handler answers a question.
package classifier

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/crm-chatbot-api/server/internal/agent/graph/conversations"
	"github.com/crm-chatbot-api/server/internal/agent/graph/prompts"
	"github.com/crm-chatbot-api/server/internal/agent/model"
	errx "github.com/crm-chatbot-api/server/internal/core/error"
	logx "github.com/crm-chatbot-api/server/pkg/logger"
)

type Config struct {
	Model     einomodel.BaseChatModel
	ModelName string
	Messages  *conversations.MessagesManager
	OnUsage   conversations.UsageHook
}

type Classifier struct {
	model     einomodel.BaseChatModel
	modelName string
	messages  *conversations.MessagesManager
	onUsage   conversations.UsageHook
}

func New(cfg Config) (*Classifier, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("classifier model is nil")
	}
	if cfg.Messages == nil {
		return nil, fmt.Errorf("classifier messages manager is nil")
	}
	return &Classifier{
		model:     cfg.Model,
		modelName: cfg.ModelName,
		messages:  cfg.Messages,
		onUsage:   cfg.OnUsage,
	}, nil
}

// Classify labels question given the history before this turn. Any model
// output other than exactly "crm-agent" after trimming and lower-casing maps
// to unknown. Model failures are returned, never coerced.
func (c *Classifier) Classify(ctx context.Context, question string, history model.History) (model.AgentLabel, error) {
	question = strings.TrimSpace(question)

	summary, err := c.messages.Summarize(ctx, history)
	if err != nil {
		return model.LabelUnknown, err
	}

	system, err := prompts.RenderClassifierSystem(ctx, question, summary, history)
	if err != nil {
		return model.LabelUnknown, err
	}

	out, err := c.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(question),
	})
	if err != nil {
		logx.Error().Err(err).Msg("Classification call failed")
		return model.LabelUnknown, errx.WrapLLM(fmt.Errorf("classify: %w", err))
	}
	if c.onUsage != nil {
		c.onUsage(ctx, c.modelName, out)
	}

	raw := ""
	if out != nil {
		raw = out.Content
	}
	label := model.ParseLabel(raw)

	logx.Debug().Str("raw", raw).Str("label", label.String()).Int("history_turns", len(history)).Msg("Question classified")
	if label == model.LabelUnknown && isAmbiguous(raw) {
		logx.Warn().Str("raw", raw).Msg("Ambiguous classifier output coerced to unknown")
	}
	return label, nil
}

// isAmbiguous reports output that was neither label, e.g. "crm agent".
func isAmbiguous(raw string) bool {
	norm := strings.ToLower(strings.TrimSpace(raw))
	return norm != "" && norm != model.LabelUnknown.String()
}
