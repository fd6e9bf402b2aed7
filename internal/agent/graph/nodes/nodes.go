package nodes

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/retail-assistant/server/internal/agent/graph/prompts"
	"github.com/retail-assistant/server/internal/agent/model"
	logx "github.com/retail-assistant/server/pkg/logger"
)

const (
	NodeInput     = "input"
	NodeChatModel = "chat_model"
	NodeTools     = "tools"
	NodeFinalize  = "finalize"
)

// NewInputPreHandler resets per-query state before the system prompt is added.
func NewInputPreHandler() func(context.Context, []*schema.Message, *model.AgentState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, s *model.AgentState) ([]*schema.Message, error) {
		s.History = nil
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.ToolsUsed = nil
		s.TotalCostUSD = 0
		return in, nil
	}
}

// NewInputNode prepends the rendered system prompt to the incoming messages.
func NewInputNode(vars prompts.SystemPromptVars) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in []*schema.Message) ([]*schema.Message, error) {
		// Generate system prompt via Eino prompt component (enables prompt callbacks)
		systemPrompt, err := prompts.RenderSystem(ctx, vars)
		if err != nil {
			return nil, fmt.Errorf("render system prompt: %w", err)
		}
		out := make([]*schema.Message, 0, len(in)+1)
		out = append(out, schema.SystemMessage(systemPrompt))
		for _, m := range in {
			if m != nil {
				out = append(out, m)
			}
		}
		return out, nil
	})
}

// NewChatModelPreHandler accumulates history and, once the tool budget is
// spent, asks the model to answer with what it has.
func NewChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.AgentState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.AgentState) ([]*schema.Message, error) {
		// Some providers drop tool_call_id on tool results; reattach the most recent id.
		for _, msg := range in {
			if msg == nil || msg.Role != schema.Tool || strings.TrimSpace(msg.ToolCallID) != "" {
				continue
			}
			if id := lastToolCallID(state.History); id != "" {
				msg.ToolCallID = id
			}
		}

		state.History = append(state.History, in...)

		if budget := budgetFor(state, maxToolCalls); budget.closeIfSpent() {
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Answer using the tool results you already have and do not call more tools.",
					budget.limit,
				),
			}
			state.History = append(state.History, wrapUp)
		}

		return state.History, nil
	}
}

// NewChatModelPostHandler records usage cost, fills missing tool call ids and
// appends the reply to history.
func NewChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.AgentState) (*schema.Message, error) {
		if out == nil {
			return nil, fmt.Errorf("chat model returned no message")
		}

		if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
			bill := model.PriceFor(modelName).Bill(out.ResponseMeta.Usage)
			if out.Extra == nil {
				out.Extra = map[string]any{}
			}
			out.Extra["usage_cost"] = map[string]any{
				"currency":          "USD",
				"model":             modelName,
				"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
				"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
				"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
				"input_cost":        bill.Input,
				"output_cost":       bill.Output,
				"total_cost":        bill.Total(),
			}
			logx.Debug().
				Str("node", NodeChatModel).
				Str("model", modelName).
				Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
				Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
				Float64("total_cost_usd", bill.Total()).
				Msg("LLM usage")

			state.TotalCostUSD += bill.Total()
			out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
		}

		// Normalize tool calls: some providers may omit tool_call IDs.
		for i := range out.ToolCalls {
			if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
				state.ToolCallIDSeq++
				out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
			}
		}

		state.History = append(state.History, out)

		if len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("AI response ready")
		}
		return out, nil
	}
}

// NewToolsCondition routes tool calls to the tools node unless the budget is spent.
func NewToolsCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		_ = compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - finalizing")
			return NodeFinalize, nil
		}
		if input != nil && len(input.ToolCalls) > 0 {
			return NodeTools, nil
		}
		return NodeFinalize, nil
	}
}

// NewToolsPreHandler counts tool calls and records which tools ran.
func NewToolsPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.AgentState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.AgentState) (*schema.Message, error) {
		budget := budgetFor(state, maxToolCalls)
		exceeded := budget.spend(len(in.ToolCalls))
		for _, tc := range in.ToolCalls {
			state.ToolsUsed = append(state.ToolsUsed, tc.Function.Name)
		}

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Strs("tools", state.ToolsUsed).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().Int("max_tool_calls", budget.limit).Msg("Tool call limit exceeded")
		}
		return in, nil
	}
}

// NewToolsPostHandler appends tool results to history. When the run stops
// after one tool round the node's output is the whole history; otherwise only
// the new tool messages flow back to the chat model.
func NewToolsPostHandler(multiStep bool) func(context.Context, []*schema.Message, *model.AgentState) ([]*schema.Message, error) {
	return func(ctx context.Context, out []*schema.Message, state *model.AgentState) ([]*schema.Message, error) {
		if multiStep {
			return out, nil
		}
		state.History = append(state.History, out...)
		return cloneHistory(state.History), nil
	}
}

// NewFinalizeNode emits the accumulated history.
func NewFinalizeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *schema.Message) ([]*schema.Message, error) {
		var out []*schema.Message
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.AgentState) error {
			out = cloneHistory(state.History)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		return out, nil
	})
}

// ToolsUsed lists executed tool names in order by pairing tool messages with
// the assistant tool calls they answer.
func ToolsUsed(history []*schema.Message) []string {
	names := map[string]string{}
	var used []string
	for _, m := range history {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.Assistant:
			for _, tc := range m.ToolCalls {
				names[tc.ID] = tc.Function.Name
			}
		case schema.Tool:
			name := names[m.ToolCallID]
			if name == "" {
				name = m.ToolName
			}
			if name != "" {
				used = append(used, name)
			}
		}
	}
	return used
}

func lastToolCallID(history []*schema.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
			continue
		}
		return strings.TrimSpace(msg.ToolCalls[0].ID)
	}
	return ""
}

func cloneHistory(h []*schema.Message) []*schema.Message {
	out := make([]*schema.Message, len(h))
	copy(out, h)
	return out
}
