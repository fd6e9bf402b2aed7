package tools

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-assistant/server/internal/agent/result"
	"github.com/retail-assistant/server/internal/retail/retailtest"
)

func invoke(t *testing.T, name, args string) result.Value {
	t.Helper()
	ctx := context.Background()
	for _, bt := range NewRetailTools(retailtest.NewService(t)) {
		info, err := bt.Info(ctx)
		require.NoError(t, err)
		if info.Name != name {
			continue
		}
		it, ok := bt.(tool.InvokableTool)
		require.True(t, ok)
		out, err := it.InvokableRun(ctx, args)
		require.NoError(t, err)
		v, err := result.Parse(out)
		require.NoError(t, err)
		return v
	}
	t.Fatalf("tool %s not registered", name)
	return result.NullValue()
}

func TestToolInfosAreUnique(t *testing.T) {
	infos, err := GetToolInfos(context.Background(), NewRetailTools(retailtest.NewService(t)))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, info := range infos {
		assert.False(t, seen[info.Name], info.Name)
		seen[info.Name] = true
		assert.NotEmpty(t, info.Desc)
	}
	assert.Len(t, seen, 14)
}

func TestOrderTrackingTool(t *testing.T) {
	v := invoke(t, ToolOrderTracking, `{"order_id":"1001"}`)

	key, found, ok := v.Discriminant()
	require.True(t, ok)
	assert.Equal(t, result.KeyFound, key)
	assert.True(t, found)
	assert.Equal(t, "Classic Hoodie", v.Str("product_name"))
	returnable, ok := v.Get("returnable")
	require.True(t, ok)
	assert.True(t, returnable.Truthy())
}

func TestOrderTrackingToolNotFound(t *testing.T) {
	v := invoke(t, ToolOrderTracking, `{"order_id":"9999"}`)

	_, found, ok := v.Discriminant()
	require.True(t, ok)
	assert.False(t, found)
	assert.Equal(t, "9999", v.Str("order_id"))
}

func TestCancellationTools(t *testing.T) {
	check := invoke(t, ToolCancellationCheck, `{"order_id":"1004"}`)
	key, ok, _ := check.Discriminant()
	assert.Equal(t, result.KeyCanCancel, key)
	assert.False(t, ok)
	assert.Contains(t, check.Str("reason"), "shipped")

	done := invoke(t, ToolCancellation, `{"order_id":"1002"}`)
	key, ok, _ = done.Discriminant()
	assert.Equal(t, result.KeySuccess, key)
	assert.True(t, ok)
	assert.Equal(t, "Customer request", done.Str("cancellation_reason"))
}

func TestProductSearchTool(t *testing.T) {
	v := invoke(t, ToolProductSearch, `{"query":"sneakers under 5k"}`)

	_, found, _ := v.Discriminant()
	assert.True(t, found)
	products, _ := v.Get("products")
	items := products.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "Running Sneakers", items[0].Str("name"))
}

func TestReturnPolicyToolWithoutIndex(t *testing.T) {
	v := invoke(t, ToolReturnPolicy, `{"question":"how long do I have?"}`)

	_, found, _ := v.Discriminant()
	assert.False(t, found)
	assert.NotEmpty(t, v.Str("error"))
}

func TestPromptVarsNameRegisteredTools(t *testing.T) {
	vars := PromptVars("2001")
	assert.Equal(t, ToolReturnPolicy, vars.PolicyTool)
	assert.Equal(t, ToolCancellation, vars.CancelTool)
	assert.Equal(t, "2001", vars.DefaultUser)
	assert.Equal(t, []string{"order_id", "reason"}, StringFields(ToolCancellation))
}
