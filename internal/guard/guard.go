// Package guard implements the policy checks that run against a normalized
// agent response. Each guard is a self-contained, configuration-driven check:
// policy parameters are fixed at construction and every Check call is a pure,
// stateless evaluation, so one guard instance is safely shared across
// concurrent verifications.
package guard

import (
	"github.com/qwed-ai/responseguard/internal/response"
)

// Severity classifies a verdict. Only error-severity failures block under
// the verifier's strict policy; warnings and infos surface but never block.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Verdict is the structured outcome of one guard's check.
// A failing verdict always carries a non-empty message; severity info is
// only valid on passing verdicts (the verifier enforces both invariants).
type Verdict struct {
	GuardName string         `json:"guard"`
	Passed    bool           `json:"passed"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Severity  Severity       `json:"severity"`
}

// Guard is the capability contract every policy check implements.
// Check must be a pure function of the response, the context, and the
// guard's own fixed configuration: no I/O, no mutation of resp.
type Guard interface {
	// Name returns the guard's stable identifier (e.g. "tool", "safety").
	Name() string

	// Description returns a human-readable summary of the policy.
	Description() string

	// Check evaluates the policy against a normalized response.
	// ctx carries optional caller-supplied context (session state, budgets).
	Check(resp response.Response, ctx map[string]any) Verdict
}

func pass(name, msg string) Verdict {
	return Verdict{GuardName: name, Passed: true, Message: msg, Severity: SeverityInfo}
}

func fail(name, msg string, details map[string]any) Verdict {
	return Verdict{GuardName: name, Passed: false, Message: msg, Details: details, Severity: SeverityError}
}

func warn(name, msg string, details map[string]any) Verdict {
	return Verdict{GuardName: name, Passed: false, Message: msg, Details: details, Severity: SeverityWarning}
}
