package observers

import (
	"context"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/prompt"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/retail-assistant/server/pkg/logger"
)

// newPromptHandler logs the size of the system and policy prompts once rendered.
func newPromptHandler() *callbackHelper.PromptCallbackHandler {
	return &callbackHelper.PromptCallbackHandler{
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *prompt.CallbackOutput) context.Context {
			if output == nil || len(output.Result) == 0 {
				return ctx
			}
			chars := 0
			for _, m := range output.Result {
				if m != nil {
					chars += len(m.Content)
				}
			}
			logx.Debug().
				Str("template", info.Name).
				Int("messages", len(output.Result)).
				Int("chars", chars).
				Msg("Prompt rendered")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("template", info.Name).Msg("Prompt render failed")
			return ctx
		},
	}
}
