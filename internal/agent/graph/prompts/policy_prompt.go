package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

//go:embed template/policy_prompt.txt
var policyPrompt string

// NoPolicyContext replaces the context block when retrieval returns nothing.
const NoPolicyContext = "No relevant policy context found."

// PolicyChunk is one retrieved passage with its chunk index.
type PolicyChunk struct {
	Index int
	Text  string
}

// FormatPolicyContext prefixes each chunk with its index and separates them by
// blank lines.
func FormatPolicyContext(chunks []PolicyChunk) string {
	if len(chunks) == 0 {
		return NoPolicyContext
	}
	parts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, fmt.Sprintf("[chunk %d] %s", c.Index, c.Text))
	}
	return strings.Join(parts, "\n\n")
}

// RenderPolicy builds the single user message sent to the model when answering
// a policy question.
func RenderPolicy(ctx context.Context, question string, chunks []PolicyChunk) ([]*schema.Message, error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.UserMessage(policyPrompt),
	)
	msgs, err := tpl.Format(ctx, map[string]any{
		"context":  FormatPolicyContext(chunks),
		"question": question,
	})
	if err != nil {
		return nil, fmt.Errorf("policy prompt render: %w", err)
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("policy prompt render: empty result")
	}
	return msgs, nil
}
