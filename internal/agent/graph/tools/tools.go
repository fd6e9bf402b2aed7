package tools

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"

	"github.com/retail-assistant/server/internal/agent/graph/prompts"
	"github.com/retail-assistant/server/internal/retail"
)

// Tool names as exposed to the model.
const (
	ToolOrderTracking          = "OrderTrackingTool"
	ToolOrderTrackingByProduct = "OrderTrackingByProductTool"
	ToolAllOrders              = "AllOrdersTool"
	ToolOrdersByStatus         = "OrdersByStatusTool"
	ToolOrdersByUser           = "OrdersByUserTool"
	ToolMyOrders               = "MyOrdersTool"
	ToolReturnableOrders       = "ReturnableOrdersTool"
	ToolCancellationCheck      = "OrderCancellationCheckTool"
	ToolCancellation           = "OrderCancellationTool"
	ToolCancellableOrders      = "CancellableOrdersTool"
	ToolProductSearch          = "ProductSearchTool"
	ToolProductCategory        = "ProductCategoryTool"
	ToolProductPrice           = "ProductPriceTool"
	ToolReturnPolicy           = "ReturnPolicyTool"
)

// MaxListLimit caps any limit argument the model supplies.
const MaxListLimit = 100

// NewRetailTools wraps every Service operation as an invokable tool.
func NewRetailTools(svc *retail.Service) []tool.BaseTool {
	return []tool.BaseTool{
		newOrderTrackingTool(svc),
		newOrderTrackingByProductTool(svc),
		newAllOrdersTool(svc),
		newOrdersByStatusTool(svc),
		newOrdersByUserTool(svc),
		newMyOrdersTool(svc),
		newReturnableOrdersTool(svc),
		newCancellationCheckTool(svc),
		newCancellationTool(svc),
		newCancellableOrdersTool(svc),
		newProductSearchTool(svc),
		newProductCategoryTool(svc),
		newProductPriceTool(svc),
		newReturnPolicyTool(svc),
	}
}

// GetToolInfos collects tool schemas for binding to the chat model.
func GetToolInfos(ctx context.Context, tools []tool.BaseTool) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(tools))
	for _, t := range tools {
		info, err := t.Info(ctx)
		if err != nil {
			return nil, fmt.Errorf("tool info: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// PromptVars fills the system prompt with the registered tool names.
func PromptVars(defaultUser string) prompts.SystemPromptVars {
	return prompts.SystemPromptVars{
		PolicyTool:            ToolReturnPolicy,
		ProductSearchTool:     ToolProductSearch,
		ProductCategoryTool:   ToolProductCategory,
		ProductPriceTool:      ToolProductPrice,
		OrderTrackingTool:     ToolOrderTracking,
		OrderByProductTool:    ToolOrderTrackingByProduct,
		OrdersByStatusTool:    ToolOrdersByStatus,
		OrdersByUserTool:      ToolOrdersByUser,
		MyOrdersTool:          ToolMyOrders,
		AllOrdersTool:         ToolAllOrders,
		CancelCheckTool:       ToolCancellationCheck,
		CancelTool:            ToolCancellation,
		CancellableOrdersTool: ToolCancellableOrders,
		DefaultUser:           defaultUser,
	}
}

// stringFields lists the string arguments of each tool; the arguments handler
// trims them and coerces non-strings.
var stringFields = map[string][]string{
	ToolOrderTracking:          {"order_id"},
	ToolOrderTrackingByProduct: {"product_name"},
	ToolOrdersByStatus:         {"status"},
	ToolOrdersByUser:           {"user_id"},
	ToolReturnableOrders:       {"user_id"},
	ToolCancellationCheck:      {"order_id"},
	ToolCancellation:           {"order_id", "reason"},
	ToolCancellableOrders:      {"user_id"},
	ToolProductSearch:          {"query"},
	ToolProductCategory:        {"category"},
	ToolProductPrice:           {"product_name"},
	ToolReturnPolicy:           {"question"},
}

// StringFields returns the string argument names of a tool.
func StringFields(name string) []string {
	return stringFields[name]
}
