package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/crm-chatbot-api/server/internal/agent/model"
)

// GetCRMTools returns the full crm-agent tool set: the CRM-backed tools
// followed by format_json.
func GetCRMTools(ds model.CRMDataSource) []tool.BaseTool {
	return append(NewCRMTools(ds), NewFormatJSON())
}

// GetToolInfos collects the schema of every tool for binding to a chat model.
func GetToolInfos(ctx context.Context, ts []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(ts))
	for _, t := range ts {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// UnknownToolObservation is fed back to the model for a tool name it invented.
func UnknownToolObservation(name string) string {
	b, _ := json.Marshal(map[string]any{
		"error":     "unknown_tool",
		"name":      name,
		"available": Names(),
	})
	return string(b)
}
