package parsers

import (
	"strings"

	"github.com/retail-assistant/server/internal/agent/result"
	logx "github.com/retail-assistant/server/pkg/logger"
)

// basic safety limits to avoid pathological inputs
const (
	maxContentLen = 128 * 1024 // 128KB
	maxErrSnippet = 200
)

// ParseToolResult reads tool message content as a result value. Content that is
// not a JSON object or array becomes {found:false, raw:<text>}.
func ParseToolResult(content string) result.Value {
	text := stripFences(strings.TrimSpace(content))
	if len(text) > maxContentLen || (!strings.HasPrefix(text, "{") && !strings.HasPrefix(text, "[")) {
		return unparsed(content)
	}
	v, err := result.Parse(text)
	if err != nil {
		logx.Debug().Err(err).Str("content", snippet(text)).Msg("Tool result is not JSON")
		return unparsed(content)
	}
	return v
}

// ParseExtraResults reads tool results an assistant message carries in
// Extra["tool_results"]: a single result or a list, as JSON text or decoded values.
func ParseExtraResults(extra map[string]any) []result.Value {
	raw, ok := extra["tool_results"]
	if !ok || raw == nil {
		return nil
	}
	var out []result.Value
	add := func(item any) {
		if s, ok := item.(string); ok {
			out = append(out, ParseToolResult(s))
			return
		}
		out = append(out, result.FromAny(item))
	}
	switch t := raw.(type) {
	case []any:
		for _, item := range t {
			add(item)
		}
	case []string:
		for _, item := range t {
			add(item)
		}
	default:
		add(t)
	}
	return out
}

func unparsed(content string) result.Value {
	return result.ObjectValue(map[string]result.Value{
		result.KeyFound: result.BoolValue(false),
		"raw":           result.StringValue(content),
	})
}

// stripFences removes a surrounding ``` or ```json fence.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func snippet(s string) string {
	if len(s) > maxErrSnippet {
		return s[:maxErrSnippet] + "..."
	}
	return s
}
