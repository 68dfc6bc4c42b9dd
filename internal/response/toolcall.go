package response

// ToolCall is a single tool invocation extracted from a response.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// Field alias priority. Agent frameworks disagree on naming; the resolution
// order is fixed so that the same response always yields the same call.
var (
	nameAliases = []string{"toolName", "tool_name", "name"}
	argAliases  = []string{"arguments", "args"}
	listAliases = []string{"toolCalls", "tool_calls"}
)

// UnknownToolName is the sentinel used when no name alias resolves.
const UnknownToolName = "unknown"

// ToolCalls extracts the ordered sequence of tool calls from the response.
// A response tagged type=="tool_call" contributes itself as one call; any
// aliased tool-call list is appended after it in list order.
func (r Response) ToolCalls() []ToolCall {
	var calls []ToolCall

	if r.Type() == TypeToolCall {
		calls = append(calls, resolveCall(map[string]any(r)))
	}

	for _, key := range listAliases {
		raw, ok := r[key]
		if !ok {
			continue
		}
		for _, item := range asSlice(raw) {
			if m, ok := item.(map[string]any); ok {
				calls = append(calls, resolveCall(m))
			}
		}
		break // first present alias wins
	}

	return calls
}

func resolveCall(m map[string]any) ToolCall {
	call := ToolCall{Name: UnknownToolName, Arguments: map[string]any{}}

	for _, key := range nameAliases {
		if s, ok := m[key].(string); ok && s != "" {
			call.Name = s
			break
		}
	}

	for _, key := range argAliases {
		if args, ok := m[key].(map[string]any); ok {
			call.Arguments = args
			break
		}
	}

	return call
}

func asSlice(v any) []any {
	switch s := v.(type) {
	case []any:
		return s
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out
	}
	return nil
}
