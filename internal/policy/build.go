package policy

import (
	"fmt"

	"github.com/qwed-ai/responseguard/internal/guard"
)

// Build instantiates the guard set's pipeline in declared order. Unknown
// guard names are a configuration error.
func (s *GuardSet) Build() ([]guard.Guard, error) {
	guards := make([]guard.Guard, 0, len(s.Defaults.Guards))

	for _, name := range s.Defaults.Guards {
		g, err := s.build(name)
		if err != nil {
			return nil, err
		}
		guards = append(guards, g)
	}

	return guards, nil
}

func (s *GuardSet) build(name string) (guard.Guard, error) {
	switch name {
	case "tool":
		return guard.NewToolGuard(guard.ToolGuardConfig{
			BlockedTools:            s.Tool.BlockedTools,
			AllowedTools:            s.Tool.AllowedTools,
			DisableDefaultBlocklist: s.Tool.DisableDefaultBlocklist,
			DangerousPatterns:       s.Tool.DangerousPatterns,
			DisableShellScan:        s.Tool.DisableShellScan,
		}), nil
	case "safety":
		return guard.NewSafetyGuard(guard.SafetyGuardConfig{
			DisablePII:        s.Safety.DisablePII,
			DisableInjection:  s.Safety.DisableInjection,
			DisableUnicode:    s.Safety.DisableUnicode,
			PIIAllowList:      s.Safety.PIIAllowList,
			InjectionPatterns: s.Safety.InjectionPatterns,
			CheckBudget:       s.Safety.CheckBudget,
			MaxCost:           s.Safety.MaxCost,
		}), nil
	case "schema":
		return guard.NewSchemaGuard(guard.SchemaGuardConfig{
			Schema:      s.Schema.Schema,
			StrictDraft: s.Schema.StrictDraft,
		}), nil
	case "math":
		return guard.NewMathGuard(guard.MathGuardConfig{
			Tolerance: s.Math.Tolerance,
		}), nil
	case "finance":
		return guard.NewFinanceGuard(guard.FinanceGuardConfig{
			Tolerance: s.Finance.Tolerance,
		}), nil
	case "argument":
		tools := make(map[string]guard.ArgumentRule, len(s.Argument.Tools))
		for tool, rule := range s.Argument.Tools {
			tools[tool] = guard.ArgumentRule{
				Required:      rule.Required,
				Forbidden:     rule.Forbidden,
				AllowedValues: rule.AllowedValues,
			}
		}
		return guard.NewArgumentGuard(guard.ArgumentGuardConfig{Tools: tools}), nil
	case "state":
		return guard.NewStateGuard(guard.StateGuardConfig{
			Transitions: s.State.Transitions,
			StateKey:    s.State.StateKey,
			ContextKey:  s.State.ContextKey,
		}), nil
	case "legal":
		return guard.NewLegalGuard(), nil
	}
	return nil, fmt.Errorf("unknown guard %q in guard set", name)
}
