// Package response normalizes heterogeneous agent output — raw objects,
// JSON strings, plain text — into a single canonical shape that guards
// can inspect without caring where the output came from.
package response

import (
	"encoding/json"
	"fmt"
)

// Response is the canonical shape every guard reads. It is a permissive
// mapping: well-known fields are read through accessors, unknown keys are
// preserved untouched.
type Response map[string]any

// Well-known type tags set by Normalize or by upstream callers.
const (
	TypeToolCall = "tool_call"
	TypeText     = "text"
	TypeUnknown  = "unknown"
)

// Normalize coerces any input into a Response. It is a total function:
// unparsable input degrades to a typed placeholder, it never fails.
//
//   - a non-nil mapping is returned unchanged (unknown keys preserved)
//   - a string is JSON-parsed; a parsed object is returned as-is, anything
//     else degrades to {type: "text", content: <raw>}
//   - everything else (nil, numbers, bools, slices) degrades to
//     {type: "unknown", raw: <stringified input>}
func Normalize(raw any) Response {
	switch v := raw.(type) {
	case Response:
		if v != nil {
			return v
		}
	case map[string]any:
		if v != nil {
			return Response(v)
		}
	case string:
		var parsed map[string]any
		if err := json.Unmarshal([]byte(v), &parsed); err == nil && parsed != nil {
			return Response(parsed)
		}
		return Response{"type": TypeText, "content": v}
	}
	return Response{"type": TypeUnknown, "raw": stringify(raw)}
}

// Type returns the response's type tag, or "" when absent.
func (r Response) Type() string {
	s, _ := r["type"].(string)
	return s
}

// Output returns the response's output field when present, otherwise the
// response itself. SchemaGuard and MathGuard operate on this view.
func (r Response) Output() any {
	if out, ok := r["output"]; ok {
		return out
	}
	return map[string]any(r)
}

func stringify(v any) string {
	if v == nil {
		return "null"
	}
	return fmt.Sprintf("%v", v)
}
