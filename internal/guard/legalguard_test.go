package guard

import (
	"strings"
	"sync"
	"testing"

	"github.com/qwed-ai/responseguard/internal/response"
)

func contractResponse(fields map[string]any) response.Response {
	return response.Response{"type": "text", "output": fields}
}

func fullClauseSet() []any {
	return []any{
		map[string]any{"type": "termination", "text": "..."},
		map[string]any{"type": "governing_law", "text": "..."},
		map[string]any{"type": "force_majeure", "text": "..."},
	}
}

func TestLegalGuard_CompleteContractPasses(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"type":          "MSA",
		"jurisdiction":  "NY",
		"governing_law": "New York",
		"forum":         "New York",
		"clauses":       fullClauseSet(),
	}), nil)
	if !v.Passed {
		t.Fatalf("expected complete contract to pass, got: %s", v.Message)
	}
}

func TestLegalGuard_JurisdictionMismatch(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"governing_law": "Delaware",
		"forum":         "Texas",
		"clauses":       fullClauseSet(),
	}), nil)
	if v.Passed {
		t.Fatalf("expected governing-law/forum conflict to fail")
	}
	if v.Severity != SeverityError {
		t.Errorf("expected severity error, got %s", v.Severity)
	}
	flags, _ := v.Details["flags"].([]string)
	if len(flags) == 0 || !strings.HasPrefix(flags[0], "JURISDICTION_MISMATCH") {
		t.Errorf("expected JURISDICTION_MISMATCH flag, got %v", v.Details["flags"])
	}
}

func TestLegalGuard_StateCodeMatchesFullName(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"governing_law": "the laws of the State of California",
		"forum":         "CA",
		"clauses":       fullClauseSet(),
	}), nil)
	if !v.Passed {
		t.Errorf("expected California/CA to resolve to the same state, got: %s", v.Message)
	}
}

func TestLegalGuard_NonCompeteInCalifornia(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"jurisdiction": "CA",
		"clauses": append(fullClauseSet(),
			map[string]any{"type": "non_compete", "text": "..."}),
	}), nil)
	if v.Passed {
		t.Fatalf("expected California non-compete to fail")
	}
	flags, _ := v.Details["flags"].([]string)
	if len(flags) == 0 || !strings.HasPrefix(flags[0], "PROHIBITED_CLAUSE") {
		t.Errorf("expected PROHIBITED_CLAUSE flag, got %v", v.Details["flags"])
	}
}

func TestLegalGuard_NonCompeteOutsideCaliforniaPasses(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"jurisdiction": "TX",
		"clauses": append(fullClauseSet(),
			map[string]any{"type": "non_compete", "text": "..."}),
	}), nil)
	if !v.Passed {
		t.Errorf("expected non-compete outside California to pass, got: %s", v.Message)
	}
}

func TestLegalGuard_MissingClausesWarns(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"jurisdiction": "NY",
		"clauses": []any{
			map[string]any{"type": "termination", "text": "..."},
		},
	}), nil)
	if v.Passed {
		t.Fatalf("expected missing standard clauses to flag")
	}
	if v.Severity != SeverityWarning {
		t.Errorf("expected severity warning for completeness, got %s", v.Severity)
	}
	flags, _ := v.Details["flags"].([]string)
	if len(flags) != 1 || !strings.HasPrefix(flags[0], "COMPLETENESS_WARNING") {
		t.Errorf("expected single COMPLETENESS_WARNING flag, got %v", v.Details["flags"])
	}
	if !strings.Contains(flags[0], "governing_law") || !strings.Contains(flags[0], "force_majeure") {
		t.Errorf("expected the two missing clauses to be named, got %s", flags[0])
	}
}

func TestLegalGuard_LongNDATermFails(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"type":       "NDA",
		"term_years": 10,
		"clauses":    fullClauseSet(),
	}), nil)
	if v.Passed {
		t.Fatalf("expected 10-year NDA to fail")
	}
	flags, _ := v.Details["flags"].([]string)
	if len(flags) == 0 || !strings.HasPrefix(flags[0], "UNREASONABLE_TERM") {
		t.Errorf("expected UNREASONABLE_TERM flag, got %v", v.Details["flags"])
	}
}

func TestLegalGuard_FiveYearNDAPasses(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"type":       "NDA",
		"term_years": 5,
		"clauses":    fullClauseSet(),
	}), nil)
	if !v.Passed {
		t.Errorf("expected 5-year NDA to pass, got: %s", v.Message)
	}
}

func TestLegalGuard_ErrorFlagsIncludeWarnings(t *testing.T) {
	g := NewLegalGuard()
	v := g.Check(contractResponse(map[string]any{
		"type":       "NDA",
		"term_years": 10,
		"clauses":    []any{},
	}), nil)
	if v.Passed || v.Severity != SeverityError {
		t.Fatalf("expected blocking verdict, got passed=%v severity=%s", v.Passed, v.Severity)
	}
	flags, _ := v.Details["flags"].([]string)
	if len(flags) != 2 {
		t.Errorf("expected term error plus completeness warning, got %v", flags)
	}
}

func TestLegalGuard_ConcurrentChecks(t *testing.T) {
	g := NewLegalGuard()
	fields := map[string]any{
		"governing_law": "the laws of the State of West Virginia",
		"forum":         "Virginia",
		"clauses":       fullClauseSet(),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if v := g.Check(contractResponse(fields), nil); v.Passed {
					t.Errorf("expected WV/VA mismatch to fail under concurrent checks")
				}
			}
		}()
	}
	wg.Wait()
}

func TestLegalGuard_NonContractOutputPasses(t *testing.T) {
	g := NewLegalGuard()

	if v := g.Check(response.Response{"type": "text", "content": "plain answer"}, nil); !v.Passed {
		t.Errorf("expected non-contract response to pass, got: %s", v.Message)
	}
	if v := g.Check(contractResponse(map[string]any{"summary": "notes"}), nil); !v.Passed {
		t.Errorf("expected output without contract fields to pass, got: %s", v.Message)
	}
}
