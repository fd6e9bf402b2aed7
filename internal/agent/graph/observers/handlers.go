package observers

import (
	einocb "github.com/cloudwego/eino/callbacks"
	callbackHelper "github.com/cloudwego/eino/utils/callbacks"
)

// ToolRecorder receives one event per finished tool call.
type ToolRecorder interface {
	ObserveTool(name string, err error)
}

// NewAllCallbacks aggregates all observer handlers (prompt, tool, model) into one
// callbacks.Handler. rec may be nil.
func NewAllCallbacks(rec ToolRecorder) einocb.Handler {
	return callbackHelper.NewHandlerHelper().
		Tool(newToolHandler(rec)).
		ChatModel(newModelHandler()).
		Prompt(newPromptHandler()).
		Handler()
}
