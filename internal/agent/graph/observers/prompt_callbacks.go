package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/crm-chatbot-api/server/pkg/logger"
)

// newPromptHandler logs rendered prompt sizes; full text only at trace level.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output == nil || len(output.Result) == 0 || output.Result[0] == nil {
				return ctx
			}
			content := output.Result[0].Content
			logx.Debug().Str("name", info.Name).Int("rendered_len", len(content)).Msg("Prompt rendered")
			logx.Trace().Str("name", info.Name).Str("rendered", content).Msg("Prompt text")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("name", info.Name).Msg("Prompt render error")
			return ctx
		},
	}
}
