package guard

import (
	"testing"

	"github.com/qwed-ai/responseguard/internal/response"
)

func searchRule() ArgumentGuardConfig {
	return ArgumentGuardConfig{Tools: map[string]ArgumentRule{
		"search": {
			Required:  []string{"query"},
			Forbidden: []string{"api_key"},
			AllowedValues: map[string][]string{
				"engine": {"web", "news"},
			},
		},
	}}
}

func TestArgumentGuard_ValidCallPasses(t *testing.T) {
	g := NewArgumentGuard(searchRule())
	v := g.Check(toolCallResponse("search", map[string]any{"query": "go", "engine": "web"}), nil)
	if !v.Passed {
		t.Fatalf("expected valid arguments to pass, got: %s", v.Message)
	}
}

func TestArgumentGuard_MissingRequired(t *testing.T) {
	g := NewArgumentGuard(searchRule())
	v := g.Check(toolCallResponse("search", map[string]any{"engine": "web"}), nil)
	if v.Passed {
		t.Fatalf("expected missing required argument to fail")
	}
	missing, ok := v.Details["missing"].([]string)
	if !ok || len(missing) != 1 || missing[0] != "query" {
		t.Errorf("expected missing [query], got %v", v.Details["missing"])
	}
}

func TestArgumentGuard_ForbiddenArgument(t *testing.T) {
	g := NewArgumentGuard(searchRule())
	v := g.Check(toolCallResponse("search", map[string]any{"query": "go", "api_key": "sk-123"}), nil)
	if v.Passed {
		t.Fatalf("expected forbidden argument to fail")
	}
	if v.Details["forbidden"] != "api_key" {
		t.Errorf("expected forbidden detail api_key, got %v", v.Details["forbidden"])
	}
}

func TestArgumentGuard_DisallowedValue(t *testing.T) {
	g := NewArgumentGuard(searchRule())
	v := g.Check(toolCallResponse("search", map[string]any{"query": "go", "engine": "darkweb"}), nil)
	if v.Passed {
		t.Fatalf("expected out-of-set value to fail")
	}
	if v.Details["argument"] != "engine" || v.Details["value"] != "darkweb" {
		t.Errorf("unexpected details: %v", v.Details)
	}
}

func TestArgumentGuard_ValueSetMatchesByStringForm(t *testing.T) {
	g := NewArgumentGuard(ArgumentGuardConfig{Tools: map[string]ArgumentRule{
		"resize": {AllowedValues: map[string][]string{"scale": {"2"}}},
	}})
	v := g.Check(toolCallResponse("resize", map[string]any{"scale": 2}), nil)
	if !v.Passed {
		t.Errorf("expected numeric 2 to match allowed value \"2\", got: %s", v.Message)
	}
}

func TestArgumentGuard_ToolWithoutRulePasses(t *testing.T) {
	g := NewArgumentGuard(searchRule())
	v := g.Check(toolCallResponse("calculator", map[string]any{"expr": "1+1"}), nil)
	if !v.Passed {
		t.Fatalf("expected unruled tool to pass, got: %s", v.Message)
	}
	if v.Message != "No argument rules apply" {
		t.Errorf("unexpected message: %s", v.Message)
	}
}

func TestArgumentGuard_NoToolCalls(t *testing.T) {
	g := NewArgumentGuard(searchRule())
	v := g.Check(response.Response{"type": "text", "content": "hi"}, nil)
	if !v.Passed || v.Message != "No tool calls to verify" {
		t.Errorf("expected trivial pass, got passed=%v message=%s", v.Passed, v.Message)
	}
}

func TestArgumentGuard_SecondCallViolates(t *testing.T) {
	g := NewArgumentGuard(searchRule())
	resp := response.Response{
		"tool_calls": []any{
			map[string]any{"name": "search", "arguments": map[string]any{"query": "ok"}},
			map[string]any{"name": "search", "arguments": map[string]any{}},
		},
	}
	v := g.Check(resp, nil)
	if v.Passed {
		t.Fatalf("expected second call missing query to fail")
	}
}
