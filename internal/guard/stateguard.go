package guard

import (
	"fmt"

	"github.com/qwed-ai/responseguard/internal/response"
)

// StateGuardConfig configures a StateGuard.
type StateGuardConfig struct {
	// Transitions maps a current state to the set of states it may move to.
	Transitions map[string][]string

	// StateKey is the output field carrying the proposed state
	// (default "state").
	StateKey string

	// ContextKey is the context field carrying the current state
	// (default "current_state").
	ContextKey string
}

// StateGuard validates that the state transition proposed by the response
// is allowed from the current state carried in the context. When either
// side is absent there is nothing to validate and the guard passes.
type StateGuard struct {
	transitions map[string][]string
	stateKey    string
	contextKey  string
}

func NewStateGuard(cfg StateGuardConfig) *StateGuard {
	g := &StateGuard{
		transitions: cfg.Transitions,
		stateKey:    cfg.StateKey,
		contextKey:  cfg.ContextKey,
	}
	if g.stateKey == "" {
		g.stateKey = "state"
	}
	if g.contextKey == "" {
		g.contextKey = "current_state"
	}
	return g
}

func (g *StateGuard) Name() string { return "state" }

func (g *StateGuard) Description() string {
	return "Validates proposed state transitions against an allowed-transition table"
}

func (g *StateGuard) Check(resp response.Response, ctx map[string]any) Verdict {
	if ctx == nil {
		return pass(g.Name(), "No current state in context")
	}
	current, ok := ctx[g.contextKey].(string)
	if !ok || current == "" {
		return pass(g.Name(), "No current state in context")
	}

	data, ok := asObject(resp.Output())
	if !ok {
		return pass(g.Name(), "No proposed state in response")
	}
	next, ok := data[g.stateKey].(string)
	if !ok || next == "" {
		return pass(g.Name(), "No proposed state in response")
	}

	allowed := g.transitions[current]
	for _, s := range allowed {
		if s == next {
			return pass(g.Name(), fmt.Sprintf("Transition %s -> %s allowed", current, next))
		}
	}

	return fail(g.Name(),
		fmt.Sprintf("Transition %s -> %s is not allowed", current, next),
		map[string]any{"from": current, "to": next, "allowed": allowed})
}
