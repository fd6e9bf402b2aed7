// Package result models tool results as an explicit recursive value so the
// reducer can walk them without untyped map access.
package result

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Sequence
	Object
)

// Discriminant keys in lookup order.
const (
	KeyFound     = "found"
	KeySuccess   = "success"
	KeyCanCancel = "can_cancel"
)

var discriminantKeys = []string{KeyFound, KeySuccess, KeyCanCancel}

// Value is an object, a sequence or a scalar.
type Value struct {
	kind   Kind
	b      bool
	n      float64
	s      string
	items  []Value
	fields map[string]Value
}

func NullValue() Value { return Value{kind: Null} }
func BoolValue(b bool) Value { return Value{kind: Bool, b: b} }
func NumberValue(n float64) Value { return Value{kind: Number, n: n} }
func StringValue(s string) Value { return Value{kind: String, s: s} }
func SequenceValue(v ...Value) Value { return Value{kind: Sequence, items: v} }

// ObjectValue copies fields into a new object.
func ObjectValue(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: Object, fields: cp}
}

// FromAny converts decoded JSON (maps, slices, scalars) into a Value. Unknown
// types are rendered with %v as strings.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return NullValue()
	case Value:
		return t
	case bool:
		return BoolValue(t)
	case float64:
		return NumberValue(t)
	case float32:
		return NumberValue(float64(t))
	case int:
		return NumberValue(float64(t))
	case int64:
		return NumberValue(float64(t))
	case string:
		return StringValue(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromAny(e)
		}
		return SequenceValue(items...)
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, e := range t {
			fields[k] = FromAny(e)
		}
		return Value{kind: Object, fields: fields}
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}

// Parse decodes JSON text into a Value.
func Parse(text string) (Value, error) {
	var raw any
	if err := sonic.UnmarshalString(text, &raw); err != nil {
		return Value{}, err
	}
	return FromAny(raw), nil
}

func (v Value) Kind() Kind { return v.kind }

// Get returns the field for objects; ok is false for missing keys or non-objects.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	f, ok := v.fields[key]
	return f, ok
}

// Str returns the field as a string when it is a non-empty string scalar.
func (v Value) Str(key string) string {
	f, ok := v.Get(key)
	if !ok || f.kind != String {
		return ""
	}
	return f.s
}

func (v Value) Items() []Value { return v.items }

// Keys returns object keys in sorted order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Truthy mirrors loose JSON truthiness: false, null, 0, "" and "false" are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.n != 0
	case String:
		s := strings.TrimSpace(v.s)
		return s != "" && !strings.EqualFold(s, "false")
	case Sequence:
		return len(v.items) > 0
	case Object:
		return len(v.fields) > 0
	}
	return false
}

// Discriminant returns the first of found/success/can_cancel present on an
// object and its truthiness.
func (v Value) Discriminant() (key string, value bool, ok bool) {
	for _, k := range discriminantKeys {
		if f, present := v.Get(k); present {
			return k, f.Truthy(), true
		}
	}
	return "", false, false
}

// FirstNegative walks v depth-first and returns the first object whose
// discriminant is false, at any nesting depth.
func (v Value) FirstNegative() (Value, bool) {
	switch v.kind {
	case Object:
		if _, val, ok := v.Discriminant(); ok && !val {
			return v, true
		}
		for _, k := range v.Keys() {
			if neg, ok := v.fields[k].FirstNegative(); ok {
				return neg, true
			}
		}
	case Sequence:
		for _, item := range v.items {
			if neg, ok := item.FirstNegative(); ok {
				return neg, true
			}
		}
	}
	return Value{}, false
}

// Interface converts v back to plain Go values.
func (v Value) Interface() any {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.n
	case String:
		return v.s
	case Sequence:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case Object:
		out := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			out[k] = f.Interface()
		}
		return out
	}
	return nil
}

// MarshalJSON renders objects with sorted keys.
func (v Value) MarshalJSON() ([]byte, error) {
	return sonic.ConfigStd.Marshal(v.Interface())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// String renders v as compact JSON, or the raw text for string scalars.
func (v Value) String() string {
	if v.kind == String {
		return v.s
	}
	b, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("%v", v.Interface())
	}
	return string(b)
}
