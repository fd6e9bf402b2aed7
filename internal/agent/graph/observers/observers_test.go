package observers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	einocb "github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
)

type recorder struct {
	names []string
	errs  []error
}

func (r *recorder) ObserveTool(name string, err error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func TestToolHandlerRecordsCalls(t *testing.T) {
	rec := &recorder{}
	h := newToolHandler(rec)
	ctx := context.Background()
	info := &einocb.RunInfo{Name: "OrderTrackingTool", Component: components.ComponentOfTool}

	h.OnStart(ctx, info, &tool.CallbackInput{ArgumentsInJSON: `{"order_id":"1001"}`})
	h.OnEnd(ctx, info, &tool.CallbackOutput{Response: `{"found":true}`})
	h.OnError(ctx, info, errors.New("boom"))

	assert.Equal(t, []string{"OrderTrackingTool", "OrderTrackingTool"}, rec.names)
	assert.NoError(t, rec.errs[0])
	assert.EqualError(t, rec.errs[1], "boom")
}

func TestToolHandlerWithoutRecorder(t *testing.T) {
	h := newToolHandler(nil)
	info := &einocb.RunInfo{Name: "x"}
	assert.NotPanics(t, func() {
		h.OnEnd(context.Background(), info, nil)
		h.OnError(context.Background(), info, errors.New("boom"))
	})
	assert.NotNil(t, NewAllCallbacks(nil))
}

func TestLatestFromPicksNewestOfRole(t *testing.T) {
	msgs := []*schema.Message{
		schema.UserMessage("where is order 1001"),
		nil,
		schema.AssistantMessage("checking", nil),
		schema.UserMessage("and order 1002?"),
		schema.SystemMessage("notice"),
	}
	assert.Equal(t, "and order 1002?", latestFrom(msgs, schema.User))
	assert.Equal(t, "", latestFrom(nil, schema.User))
}

func TestToolNamesAndPreview(t *testing.T) {
	calls := []schema.ToolCall{
		{Function: schema.FunctionCall{Name: "OrderTrackingTool"}},
		{Function: schema.FunctionCall{Name: "ReturnPolicyTool"}},
	}
	assert.Equal(t, []string{"OrderTrackingTool", "ReturnPolicyTool"}, toolNames(calls))

	long := strings.Repeat("é", previewRunes+5)
	got := preview("  " + long)
	assert.Equal(t, previewRunes+1, utf8.RuneCountInString(got))
	assert.True(t, strings.HasSuffix(got, "…"))
	assert.Equal(t, "short", preview(" short "))
}
