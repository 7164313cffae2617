package prompts

import (
	"context"
	_ "embed"
	"strings"

	"github.com/crm-chatbot-api/server/internal/agent/model"
)

//go:embed template/summary_prompt.txt
var summaryInstruction string

//go:embed template/classifier_prompt.txt
var classifierSystemPrompt string

// SummaryInstruction is the system message of every history summarization call.
func SummaryInstruction() string {
	return strings.TrimSpace(summaryInstruction)
}

// RenderClassifierSystem renders the classification prompt. The last-turn
// block, which asks the model to keep the previous label for follow-ups, is
// only emitted when history is non-empty.
func RenderClassifierSystem(ctx context.Context, question, summary string, history model.History) (string, error) {
	vars := map[string]any{
		"CRMLabel":     model.LabelCRMAgent.String(),
		"UnknownLabel": model.LabelUnknown.String(),
		"Question":     question,
		"Summary":      strings.TrimSpace(summary),
		"HasHistory":   false,
	}
	if last, ok := history.Last(); ok {
		agent := last.Agent
		if !agent.Valid() {
			agent = model.LabelUnknown
		}
		vars["HasHistory"] = true
		vars["LastQuestion"] = last.User
		vars["LastAnswer"] = last.Assistant
		vars["LastAgent"] = agent.String()
	}
	return renderSystem(ctx, "classifier", classifierSystemPrompt, vars)
}
