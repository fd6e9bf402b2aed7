package parsers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// SanitizeArguments trims the named string fields (coercing non-strings),
// clamps "limit" to [1, maxLimit] and drops an unusable limit. Arguments that
// are not a JSON object are returned unchanged.
func SanitizeArguments(arguments string, stringFields []string, maxLimit int) string {
	var m map[string]any
	if err := sonic.UnmarshalString(arguments, &m); err != nil || m == nil {
		return arguments
	}

	for _, field := range stringFields {
		v, ok := m[field]
		if !ok {
			continue
		}
		switch vv := v.(type) {
		case string:
			m[field] = strings.TrimSpace(vv)
		case nil:
			delete(m, field)
		default:
			m[field] = strings.TrimSpace(fmt.Sprint(v))
		}
	}

	if v, ok := m["limit"]; ok {
		switch vv := v.(type) {
		case float64:
			m["limit"] = clampInt(int(vv), 1, maxLimit)
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(vv)); err == nil {
				m["limit"] = clampInt(n, 1, maxLimit)
			} else {
				delete(m, "limit")
			}
		default:
			delete(m, "limit")
		}
	}

	out, err := sonic.MarshalString(m)
	if err != nil {
		return arguments
	}
	return out
}

// clampInt returns v limited to [min, max].
func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if max > 0 && v > max {
		return max
	}
	return v
}
