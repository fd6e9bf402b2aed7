package model

import (
	"github.com/cloudwego/eino/schema"
)

// AgentState stores per-invocation state for the Eino Graph.
// Concurrency model:
//   - Registered as Graph Local State via compose.WithGenLocalState.
//   - Read and written only inside state handlers or compose.ProcessState,
//     which Eino serializes, so no mutex is needed.
type AgentState struct {
	History              []*schema.Message // system prompt, user turn, assistant and tool messages
	ToolCallCount        int
	ToolCallLimitReached bool
	ToolCallIDSeq        int      // synthesizes tool_call_id when the provider omits it
	ToolsUsed            []string // tool names in call order

	// Accumulated total LLM cost (USD) across model invocations for this query
	TotalCostUSD float64
}
