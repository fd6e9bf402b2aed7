package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/retail-assistant/server/internal/retail"
)

// ===================================
// Order Tools
// ===================================

type OrderIDInput struct {
	OrderID string `json:"order_id"`
}

type ProductNameInput struct {
	ProductName string `json:"product_name"`
	Limit       int    `json:"limit,omitempty"`
}

type StatusInput struct {
	Status string `json:"status"`
	Limit  int    `json:"limit,omitempty"`
}

type UserInput struct {
	UserID string `json:"user_id,omitempty"`
	Limit  int    `json:"limit,omitempty"`
}

type LimitInput struct {
	Limit int `json:"limit,omitempty"`
}

type CancelInput struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason,omitempty"`
}

var limitParam = &schema.ParameterInfo{
	Type: schema.Integer,
	Desc: "Maximum number of orders to return",
}

func newOrderTrackingTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolOrderTracking,
			Desc: "Look up one order by its order ID. Returns status, date, product name and whether the order can still be returned.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": {Type: schema.String, Desc: "The order ID, e.g. 1001", Required: true},
			}),
		},
		func(ctx context.Context, in *OrderIDInput) (*retail.OrderResult, error) {
			out := svc.OrderByID(ctx, in.OrderID)
			return &out, nil
		},
	)
}

func newOrderTrackingByProductTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolOrderTrackingByProduct,
			Desc: "Find the most recent orders for a product when the user gives no order ID. Matches product names by substring.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_name": {Type: schema.String, Desc: "Product name or part of it, e.g. hoodie", Required: true},
				"limit":        limitParam,
			}),
		},
		func(ctx context.Context, in *ProductNameInput) (*retail.OrderList, error) {
			out := svc.OrdersByProductName(ctx, in.ProductName, in.Limit)
			return &out, nil
		},
	)
}

func newAllOrdersTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolAllOrders,
			Desc: "List the most recent orders across all users.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit": limitParam,
			}),
		},
		func(ctx context.Context, in *LimitInput) (*retail.OrderList, error) {
			out := svc.AllOrders(ctx, in.Limit)
			return &out, nil
		},
	)
}

func newOrdersByStatusTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolOrdersByStatus,
			Desc: "List orders with a given status: pending, processing, shipped, delivered, cancelled or returned.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"status": {Type: schema.String, Desc: "Order status", Required: true},
				"limit":  limitParam,
			}),
		},
		func(ctx context.Context, in *StatusInput) (*retail.OrderList, error) {
			out := svc.OrdersByStatus(ctx, in.Status, in.Limit)
			return &out, nil
		},
	)
}

func newOrdersByUserTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolOrdersByUser,
			Desc: "List orders placed by a specific user ID.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {Type: schema.String, Desc: "User ID, e.g. 2001", Required: true},
				"limit":   limitParam,
			}),
		},
		func(ctx context.Context, in *UserInput) (*retail.OrderList, error) {
			out := svc.OrdersByUser(ctx, in.UserID, in.Limit)
			return &out, nil
		},
	)
}

func newMyOrdersTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolMyOrders,
			Desc: "List the current user's own orders.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"limit": limitParam,
			}),
		},
		func(ctx context.Context, in *LimitInput) (*retail.OrderList, error) {
			out := svc.MyOrders(ctx, in.Limit)
			return &out, nil
		},
	)
}

func newReturnableOrdersTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolReturnableOrders,
			Desc: "List delivered orders of a user that are still inside their return window. Defaults to the current user.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {Type: schema.String, Desc: "User ID; omit for the current user"},
				"limit":   limitParam,
			}),
		},
		func(ctx context.Context, in *UserInput) (*retail.OrderList, error) {
			out := svc.ReturnableOrdersByUser(ctx, in.UserID, in.Limit)
			return &out, nil
		},
	)
}

func newCancellationCheckTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCancellationCheck,
			Desc: "Check whether an order can be cancelled. Only processing orders can be cancelled.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": {Type: schema.String, Desc: "The order ID", Required: true},
			}),
		},
		func(ctx context.Context, in *OrderIDInput) (*retail.CancelCheck, error) {
			out := svc.CanCancel(ctx, in.OrderID)
			return &out, nil
		},
	)
}

func newCancellationTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCancellation,
			Desc: "Cancel an order. Use only when the user explicitly asks to cancel.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"order_id": {Type: schema.String, Desc: "The order ID", Required: true},
				"reason":   {Type: schema.String, Desc: "Cancellation reason given by the user"},
			}),
		},
		func(ctx context.Context, in *CancelInput) (*retail.CancelResult, error) {
			out := svc.CancelOrder(ctx, in.OrderID, in.Reason)
			return &out, nil
		},
	)
}

func newCancellableOrdersTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCancellableOrders,
			Desc: "List a user's orders that can still be cancelled, with how many days ago each was placed.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"user_id": {Type: schema.String, Desc: "User ID; omit for the current user"},
				"limit":   limitParam,
			}),
		},
		func(ctx context.Context, in *UserInput) (*retail.OrderList, error) {
			out := svc.CancellableOrders(ctx, in.UserID, in.Limit)
			return &out, nil
		},
	)
}
