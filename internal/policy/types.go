// Package policy loads guard sets from YAML. A guard set is the data form
// of a verification pipeline: which guards run, in what order, and with
// what configuration. Packs layer extra rules on top of a base set.
package policy

// Defaults selects the pipeline-wide behavior of a guard set.
type Defaults struct {
	// Strict marks error-severity failures as blocking.
	Strict *bool `yaml:"strict"`

	// Guards lists the guards to run, in order. Known names: tool, safety,
	// schema, math, finance, argument, state, legal.
	Guards []string `yaml:"guards"`
}

// ToolRules configures the tool guard.
type ToolRules struct {
	BlockedTools            []string `yaml:"blocked_tools"`
	AllowedTools            []string `yaml:"allowed_tools"`
	DisableDefaultBlocklist bool     `yaml:"disable_default_blocklist"`
	DangerousPatterns       []string `yaml:"dangerous_patterns"`
	DisableShellScan        bool     `yaml:"disable_shell_scan"`
}

// SafetyRules configures the safety guard.
type SafetyRules struct {
	DisablePII        bool     `yaml:"disable_pii"`
	DisableInjection  bool     `yaml:"disable_injection"`
	DisableUnicode    bool     `yaml:"disable_unicode"`
	PIIAllowList      []string `yaml:"pii_allow_list"`
	InjectionPatterns []string `yaml:"injection_patterns"`
	CheckBudget       bool     `yaml:"check_budget"`
	MaxCost           float64  `yaml:"max_cost"`
}

// SchemaRules configures the schema guard.
type SchemaRules struct {
	Schema      map[string]any `yaml:"schema"`
	StrictDraft bool           `yaml:"strict_draft"`
}

// MathRules configures the math guard.
type MathRules struct {
	Tolerance float64 `yaml:"tolerance"`
}

// FinanceRules configures the finance guard.
type FinanceRules struct {
	Tolerance float64 `yaml:"tolerance"`
}

// ArgumentRules configures the argument guard: one rule set per tool name.
type ArgumentRules struct {
	Tools map[string]ArgumentToolRule `yaml:"tools"`
}

// ArgumentToolRule is the YAML form of one tool's argument constraints.
type ArgumentToolRule struct {
	Required      []string            `yaml:"required"`
	Forbidden     []string            `yaml:"forbidden"`
	AllowedValues map[string][]string `yaml:"allowed_values"`
}

// StateRules configures the state guard.
type StateRules struct {
	Transitions map[string][]string `yaml:"transitions"`
	StateKey    string              `yaml:"state_key"`
	ContextKey  string              `yaml:"context_key"`
}

// GuardSet is one complete verification policy.
type GuardSet struct {
	Version  string        `yaml:"version"`
	Defaults Defaults      `yaml:"defaults"`
	Tool     ToolRules     `yaml:"tool"`
	Safety   SafetyRules   `yaml:"safety"`
	Schema   SchemaRules   `yaml:"schema"`
	Math     MathRules     `yaml:"math"`
	Finance  FinanceRules  `yaml:"finance"`
	Argument ArgumentRules `yaml:"argument"`
	State    StateRules    `yaml:"state"`
}

// Strict reports the effective strict setting (default true).
func (s *GuardSet) Strict() bool {
	if s.Defaults.Strict == nil {
		return true
	}
	return *s.Defaults.Strict
}
