package guard

import (
	"fmt"

	"github.com/qwed-ai/responseguard/internal/response"
)

// ArgumentRule constrains the arguments of a single tool.
type ArgumentRule struct {
	// Required argument names that must be present on every call.
	Required []string

	// Forbidden argument names that must never be present.
	Forbidden []string

	// AllowedValues restricts named arguments to a value set (values are
	// compared by their string form).
	AllowedValues map[string][]string
}

// ArgumentGuardConfig maps tool names to their argument rules. Tools
// without a rule pass unchecked.
type ArgumentGuardConfig struct {
	Tools map[string]ArgumentRule
}

// ArgumentGuard enforces per-tool argument rules on every tool call in the
// response. The first violating call short-circuits.
type ArgumentGuard struct {
	tools map[string]ArgumentRule
}

func NewArgumentGuard(cfg ArgumentGuardConfig) *ArgumentGuard {
	tools := make(map[string]ArgumentRule, len(cfg.Tools))
	for name, rule := range cfg.Tools {
		tools[name] = rule
	}
	return &ArgumentGuard{tools: tools}
}

func (g *ArgumentGuard) Name() string { return "argument" }

func (g *ArgumentGuard) Description() string {
	return "Enforces required, forbidden, and value-restricted tool arguments"
}

func (g *ArgumentGuard) Check(resp response.Response, _ map[string]any) Verdict {
	calls := resp.ToolCalls()
	if len(calls) == 0 {
		return pass(g.Name(), "No tool calls to verify")
	}

	checked := 0
	for _, call := range calls {
		rule, ok := g.tools[call.Name]
		if !ok {
			continue
		}
		checked++

		var missing []string
		for _, name := range rule.Required {
			if _, present := call.Arguments[name]; !present {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			return fail(g.Name(),
				fmt.Sprintf("Tool %q is missing required arguments", call.Name),
				map[string]any{"tool": call.Name, "missing": missing})
		}

		for _, name := range rule.Forbidden {
			if _, present := call.Arguments[name]; present {
				return fail(g.Name(),
					fmt.Sprintf("Tool %q carries forbidden argument %q", call.Name, name),
					map[string]any{"tool": call.Name, "forbidden": name})
			}
		}

		for name, allowed := range rule.AllowedValues {
			value, present := call.Arguments[name]
			if !present {
				continue
			}
			if !valueAllowed(value, allowed) {
				return fail(g.Name(),
					fmt.Sprintf("Argument %q of tool %q has a disallowed value", name, call.Name),
					map[string]any{"tool": call.Name, "argument": name,
						"value": fmt.Sprintf("%v", value), "allowed": allowed})
			}
		}
	}

	if checked == 0 {
		return pass(g.Name(), "No argument rules apply")
	}
	return pass(g.Name(), fmt.Sprintf("Verified arguments of %d tool call(s)", checked))
}

func valueAllowed(value any, allowed []string) bool {
	s := fmt.Sprintf("%v", value)
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
