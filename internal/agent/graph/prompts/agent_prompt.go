package prompts

import (
	"context"
	_ "embed"
	"strings"

	"github.com/crm-chatbot-api/server/internal/agent/graph/tools"
	"github.com/crm-chatbot-api/server/internal/agent/model"
)

//go:embed template/crm_agent_prompt.txt
var crmAgentSystemPrompt string

//go:embed template/unknown_prompt.txt
var unknownSystemPrompt string

// RenderCRMAgentSystem renders the crm-agent instructions with the history summary.
func RenderCRMAgentSystem(ctx context.Context, summary string) (string, error) {
	return renderSystem(ctx, "crm-agent", crmAgentSystemPrompt, map[string]any{
		"Label":      model.LabelCRMAgent.String(),
		"Tools":      tools.Names(),
		"FormatTool": tools.ToolFormatJSON,
		"UsersTool":  tools.ToolListUsers,
		"Summary":    strings.TrimSpace(summary),
	})
}

// RenderUnknownSystem renders the fallback instructions with the history summary.
func RenderUnknownSystem(ctx context.Context, summary string) (string, error) {
	return renderSystem(ctx, "unknown", unknownSystemPrompt, map[string]any{
		"Summary": strings.TrimSpace(summary),
	})
}
