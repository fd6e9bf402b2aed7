package prompts

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/system_prompt.txt
var agentSystemPrompt string

// SystemPromptVars names the tools the routing rules refer to.
type SystemPromptVars struct {
	PolicyTool            string
	ProductSearchTool     string
	ProductCategoryTool   string
	ProductPriceTool      string
	OrderTrackingTool     string
	OrderByProductTool    string
	OrdersByStatusTool    string
	OrdersByUserTool      string
	MyOrdersTool          string
	AllOrdersTool         string
	CancelCheckTool       string
	CancelTool            string
	CancellableOrdersTool string
	DefaultUser           string
}

// RenderSystem renders the agent system prompt via the Eino prompt component so
// prompt callbacks fire.
func RenderSystem(ctx context.Context, vars SystemPromptVars) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(agentSystemPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"PolicyTool":            vars.PolicyTool,
		"ProductSearchTool":     vars.ProductSearchTool,
		"ProductCategoryTool":   vars.ProductCategoryTool,
		"ProductPriceTool":      vars.ProductPriceTool,
		"OrderTrackingTool":     vars.OrderTrackingTool,
		"OrderByProductTool":    vars.OrderByProductTool,
		"OrdersByStatusTool":    vars.OrdersByStatusTool,
		"OrdersByUserTool":      vars.OrdersByUserTool,
		"MyOrdersTool":          vars.MyOrdersTool,
		"AllOrdersTool":         vars.AllOrdersTool,
		"CancelCheckTool":       vars.CancelCheckTool,
		"CancelTool":            vars.CancelTool,
		"CancellableOrdersTool": vars.CancellableOrdersTool,
		"DefaultUser":           vars.DefaultUser,
	})
	if err != nil {
		return "", fmt.Errorf("system prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("system prompt render: empty result")
	}
	return msgs[0].Content, nil
}
