package guard

import (
	"testing"

	"github.com/qwed-ai/responseguard/internal/response"
)

func orderTransitions() StateGuardConfig {
	return StateGuardConfig{Transitions: map[string][]string{
		"pending":   {"approved", "rejected"},
		"approved":  {"shipped"},
		"shipped":   {"delivered"},
		"delivered": {},
	}}
}

func TestStateGuard_AllowedTransition(t *testing.T) {
	g := NewStateGuard(orderTransitions())
	resp := response.Response{"state": "approved"}
	v := g.Check(resp, map[string]any{"current_state": "pending"})
	if !v.Passed {
		t.Fatalf("expected pending->approved to pass, got: %s", v.Message)
	}
}

func TestStateGuard_DisallowedTransition(t *testing.T) {
	g := NewStateGuard(orderTransitions())
	resp := response.Response{"state": "delivered"}
	v := g.Check(resp, map[string]any{"current_state": "pending"})
	if v.Passed {
		t.Fatalf("expected pending->delivered to fail")
	}
	if v.Severity != SeverityError {
		t.Errorf("expected severity error, got %s", v.Severity)
	}
	if v.Details["from"] != "pending" || v.Details["to"] != "delivered" {
		t.Errorf("unexpected details: %v", v.Details)
	}
}

func TestStateGuard_TerminalStateRejectsEverything(t *testing.T) {
	g := NewStateGuard(orderTransitions())
	resp := response.Response{"state": "pending"}
	if v := g.Check(resp, map[string]any{"current_state": "delivered"}); v.Passed {
		t.Errorf("expected terminal state to reject transitions")
	}
}

func TestStateGuard_NoCurrentStatePasses(t *testing.T) {
	g := NewStateGuard(orderTransitions())
	resp := response.Response{"state": "approved"}

	if v := g.Check(resp, nil); !v.Passed {
		t.Errorf("expected nil context to pass, got: %s", v.Message)
	}
	if v := g.Check(resp, map[string]any{}); !v.Passed {
		t.Errorf("expected missing current_state to pass, got: %s", v.Message)
	}
}

func TestStateGuard_NoProposedStatePasses(t *testing.T) {
	g := NewStateGuard(orderTransitions())
	resp := response.Response{"type": "text", "content": "nothing to change"}
	v := g.Check(resp, map[string]any{"current_state": "pending"})
	if !v.Passed {
		t.Errorf("expected response without state to pass, got: %s", v.Message)
	}
}

func TestStateGuard_CustomKeys(t *testing.T) {
	cfg := orderTransitions()
	cfg.StateKey = "next_phase"
	cfg.ContextKey = "phase"
	g := NewStateGuard(cfg)

	resp := response.Response{"next_phase": "shipped"}
	if v := g.Check(resp, map[string]any{"phase": "approved"}); !v.Passed {
		t.Errorf("expected custom keys to resolve, got: %s", v.Message)
	}
	if v := g.Check(resp, map[string]any{"phase": "pending"}); v.Passed {
		t.Errorf("expected pending->shipped to fail under custom keys")
	}
}

func TestStateGuard_ReadsOutputField(t *testing.T) {
	g := NewStateGuard(orderTransitions())
	resp := response.Response{"output": map[string]any{"state": "rejected"}}
	if v := g.Check(resp, map[string]any{"current_state": "pending"}); !v.Passed {
		t.Errorf("expected state inside output to resolve, got: %s", v.Message)
	}
}
