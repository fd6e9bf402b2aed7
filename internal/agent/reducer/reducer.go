// Package reducer turns an agent message history into the single answer shown
// to the user.
package reducer

import (
	"strings"
	"unicode/utf8"

	"github.com/cloudwego/eino/schema"

	"github.com/retail-assistant/server/internal/agent/graph/parsers"
	"github.com/retail-assistant/server/internal/agent/render"
	"github.com/retail-assistant/server/internal/agent/result"
)

const (
	NotOrderedMessage       = "I couldn't find that in your orders. It looks like you haven't ordered this item."
	NoProductsMessage       = "I couldn't find any matching products in our catalog."
	NoOrdersMessage         = "I couldn't find any matching orders on your account."
	LookupFailedMessage     = "Sorry, I couldn't look that up right now. Please try again in a moment."
	CouldNotCompleteMessage = "Sorry, I couldn't complete that request."
	NoAnswer                = "No answer."

	// minAnswerRunes filters out empty or placeholder assistant replies.
	minAnswerRunes = 3
)

// Source names the rule that produced an answer.
type Source string

const (
	SourceNegative    Source = "negative_result"
	SourceAssistant   Source = "assistant"
	SourceToolResult  Source = "tool_result"
	SourceLastMessage Source = "last_message"
	SourceNone        Source = "none"
)

type Outcome struct {
	Answer string
	Source Source
}

// Reduce picks the answer for a history. Any negative tool result, at any
// nesting depth, overrides the assistant's prose.
func Reduce(msgs []*schema.Message) Outcome {
	candidate := lastAssistantAnswer(msgs)

	for _, r := range collectResults(msgs) {
		if neg, ok := r.FirstNegative(); ok {
			return Outcome{Answer: negativeAnswer(neg), Source: SourceNegative}
		}
	}

	if candidate != "" {
		return Outcome{Answer: candidate, Source: SourceAssistant}
	}
	if tr := lastToolAnswer(msgs); tr != "" {
		return Outcome{Answer: tr, Source: SourceToolResult}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if m := msgs[i]; m != nil && strings.TrimSpace(m.Content) != "" {
			return Outcome{Answer: strings.TrimSpace(m.Content), Source: SourceLastMessage}
		}
	}
	return Outcome{Answer: NoAnswer, Source: SourceNone}
}

// negativeAnswer never echoes an error field: those carry store and index
// failures, which reach the customer only as LookupFailedMessage.
func negativeAnswer(neg result.Value) string {
	key, _, _ := neg.Discriminant()
	if key != result.KeyFound {
		if reason := strings.TrimSpace(neg.Str("reason")); reason != "" {
			return reason
		}
		if neg.Str("error") != "" {
			return LookupFailedMessage
		}
		return CouldNotCompleteMessage
	}

	has := func(k string) bool {
		_, ok := neg.Get(k)
		return ok
	}
	switch {
	case neg.Str("error") != "":
		return LookupFailedMessage
	case has("products"):
		return NoProductsMessage
	case has("question"):
		return render.NoPolicyAnswer
	case has("orders") && neg.Str("query") == "":
		return NoOrdersMessage
	default:
		return NotOrderedMessage
	}
}

func lastAssistantAnswer(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil || m.Role != schema.Assistant {
			continue
		}
		if c := strings.TrimSpace(m.Content); utf8.RuneCountInString(c) >= minAnswerRunes {
			return c
		}
	}
	return ""
}

// collectResults gathers results from tool messages and from assistant
// Extra["tool_results"], in history order.
func collectResults(msgs []*schema.Message) []result.Value {
	var out []result.Value
	for _, m := range msgs {
		if m == nil {
			continue
		}
		switch m.Role {
		case schema.Tool:
			out = append(out, parsers.ParseToolResult(m.Content))
		case schema.Assistant:
			out = append(out, parsers.ParseExtraResults(m.Extra)...)
		}
	}
	return out
}

// lastToolAnswer renders the newest tool result. Shapes no tool produces are
// returned as the raw content.
func lastToolAnswer(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m == nil || m.Role != schema.Tool {
			continue
		}
		c := strings.TrimSpace(m.Content)
		if c == "" {
			continue
		}
		if text, ok := render.Result(parsers.ParseToolResult(c)); ok {
			return text
		}
		return c
	}
	return ""
}
