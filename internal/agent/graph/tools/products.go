package tools

import (
	"context"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"

	"github.com/retail-assistant/server/internal/retail"
)

// ===================================
// Product and Policy Tools
// ===================================

type ProductSearchInput struct {
	Query string `json:"query"`
}

type CategoryInput struct {
	Category string `json:"category"`
}

type PriceInput struct {
	ProductName string `json:"product_name"`
}

type PolicyInput struct {
	Question string `json:"question"`
}

func newProductSearchTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolProductSearch,
			Desc: "Search products by keywords over name and category. Understands price filters such as \"under 2k\", \"over 500\" or \"between 1000 and 3000\".",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {Type: schema.String, Desc: "Free-text product query", Required: true},
			}),
		},
		func(ctx context.Context, in *ProductSearchInput) (*retail.ProductList, error) {
			out := svc.SearchProducts(ctx, in.Query)
			return &out, nil
		},
	)
}

func newProductCategoryTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolProductCategory,
			Desc: "List products in a category, e.g. apparel or footwear.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"category": {Type: schema.String, Desc: "Category name", Required: true},
			}),
		},
		func(ctx context.Context, in *CategoryInput) (*retail.ProductList, error) {
			out := svc.ProductsInCategory(ctx, in.Category)
			return &out, nil
		},
	)
}

func newProductPriceTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolProductPrice,
			Desc: "Get the price of a named product. Closest name matches come first.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"product_name": {Type: schema.String, Desc: "Product name", Required: true},
			}),
		},
		func(ctx context.Context, in *PriceInput) (*retail.ProductList, error) {
			out := svc.PriceOfProduct(ctx, in.ProductName)
			return &out, nil
		},
	)
}

func newReturnPolicyTool(svc *retail.Service) tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolReturnPolicy,
			Desc: "Answer questions about returns, refunds, exchanges, deadlines and eligibility from the store's return policy.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"question": {Type: schema.String, Desc: "The user's policy question", Required: true},
			}),
		},
		func(ctx context.Context, in *PolicyInput) (*retail.PolicyAnswer, error) {
			out := svc.ReturnPolicy(ctx, in.Question)
			return &out, nil
		},
	)
}
