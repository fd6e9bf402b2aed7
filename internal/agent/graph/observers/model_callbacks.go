package observers

import (
	"context"
	"strings"
	"unicode/utf8"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"

	logx "github.com/retail-assistant/server/pkg/logger"
)

const previewRunes = 120

// newModelHandler logs each chat model round: the customer query going in and
// either the tools requested or the drafted answer coming out.
func newModelHandler() *callbackHelper.ModelCallbackHandler {
	return &callbackHelper.ModelCallbackHandler{
		OnStart: func(ctx context.Context, info *einocb.RunInfo, input *model.CallbackInput) context.Context {
			if input == nil {
				return ctx
			}
			logx.Debug().
				Str("model", info.Name).
				Int("history", len(input.Messages)).
				Str("query", preview(latestFrom(input.Messages, schema.User))).
				Msg("Model round")
			return ctx
		},
		OnEnd: func(ctx context.Context, info *einocb.RunInfo, output *model.CallbackOutput) context.Context {
			if output == nil || output.Message == nil {
				return ctx
			}
			ev := logx.Debug().Str("model", info.Name)
			if requested := toolNames(output.Message.ToolCalls); len(requested) > 0 {
				ev = ev.Strs("requested_tools", requested)
			} else {
				ev = ev.Str("draft", preview(output.Message.Content))
			}
			if output.TokenUsage != nil {
				ev = ev.Int("total_tokens", output.TokenUsage.TotalTokens)
			}
			ev.Msg("Model replied")
			return ctx
		},
		OnError: func(ctx context.Context, info *einocb.RunInfo, err error) context.Context {
			logx.Error().Err(err).Str("model", info.Name).Msg("Model call failed")
			return ctx
		},
	}
}

func latestFrom(msgs []*schema.Message, role schema.RoleType) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i] != nil && msgs[i].Role == role {
			return msgs[i].Content
		}
	}
	return ""
}

func toolNames(calls []schema.ToolCall) []string {
	names := make([]string, 0, len(calls))
	for _, c := range calls {
		names = append(names, c.Function.Name)
	}
	return names
}

// preview trims s to previewRunes so customer text does not flood debug logs.
func preview(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= previewRunes {
		return s
	}
	return string([]rune(s)[:previewRunes]) + "…"
}
