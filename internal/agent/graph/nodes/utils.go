package nodes

import (
	"github.com/retail-assistant/server/internal/agent/model"
)

const DefaultMaxToolCalls = 6

// toolBudget tracks tool calls against a per-run ceiling stored on the state.
type toolBudget struct {
	state *model.AgentState
	limit int
}

func budgetFor(state *model.AgentState, limit int) toolBudget {
	if limit <= 0 {
		limit = DefaultMaxToolCalls
	}
	return toolBudget{state: state, limit: limit}
}

// closeIfSpent flags the run once the ceiling is met. It reports true only
// on the call that flips the flag so the wrap-up notice is added once.
func (b toolBudget) closeIfSpent() bool {
	if b.state.ToolCallLimitReached || b.state.ToolCallCount < b.limit {
		return false
	}
	b.state.ToolCallLimitReached = true
	return true
}

// spend charges n calls and reports whether the ceiling was overrun.
func (b toolBudget) spend(n int) bool {
	b.state.ToolCallCount += n
	over := b.state.ToolCallCount > b.limit
	if over {
		b.state.ToolCallLimitReached = true
	}
	return over
}
