package guard

import (
	"testing"

	"github.com/qwed-ai/responseguard/internal/response"
)

func financeResponse(fields map[string]any) response.Response {
	return response.Response{"type": "text", "output": fields}
}

func TestFinanceGuard_ZeroRateNPV(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{})
	v := g.Check(financeResponse(map[string]any{
		"cashflows": []any{-1000.0, 400.0, 400.0, 400.0},
		"npv":       200.0,
	}), nil)
	if !v.Passed {
		t.Fatalf("expected undiscounted sum to verify, got: %s", v.Message)
	}
}

func TestFinanceGuard_DiscountedNPV(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{})
	v := g.Check(financeResponse(map[string]any{
		"cashflows":     []any{-1000.0, 500.0, 500.0, 500.0},
		"discount_rate": 0.1,
		"npv":           243.43,
	}), nil)
	if !v.Passed {
		t.Fatalf("expected NPV within tolerance to verify, got: %s", v.Message)
	}
}

func TestFinanceGuard_WrongNPVFails(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{})
	v := g.Check(financeResponse(map[string]any{
		"cashflows": []any{-1000.0, 400.0, 400.0, 400.0},
		"npv":       500.0,
	}), nil)
	if v.Passed {
		t.Fatalf("expected inflated NPV claim to fail")
	}
	if v.Severity != SeverityError {
		t.Errorf("expected severity error, got %s", v.Severity)
	}
	if expected := v.Details["expected"]; expected != 200.0 {
		t.Errorf("expected recomputed value 200 in details, got %v", expected)
	}
	if actual := v.Details["actual"]; actual != 500.0 {
		t.Errorf("expected claimed value 500 in details, got %v", actual)
	}
}

func TestFinanceGuard_CustomTolerance(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{Tolerance: 1.0})
	v := g.Check(financeResponse(map[string]any{
		"cashflows":     []any{-1000.0, 500.0, 500.0, 500.0},
		"discount_rate": 0.1,
		"npv":           243.0,
	}), nil)
	if !v.Passed {
		t.Errorf("expected claim within widened tolerance to verify, got: %s", v.Message)
	}
}

func TestFinanceGuard_NothingToVerify(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{})

	cases := []struct {
		name   string
		fields map[string]any
	}{
		{"no npv", map[string]any{"cashflows": []any{-100.0, 50.0}}},
		{"no cashflows", map[string]any{"npv": 120.0}},
		{"empty cashflows", map[string]any{"cashflows": []any{}, "npv": 0.0}},
		{"cashflows not a list", map[string]any{"cashflows": "some", "npv": 0.0}},
	}
	for _, tc := range cases {
		v := g.Check(financeResponse(tc.fields), nil)
		if !v.Passed {
			t.Errorf("%s: expected trivial pass, got: %s", tc.name, v.Message)
		}
		if v.Message != "No financial calculation to verify" {
			t.Errorf("%s: unexpected message: %s", tc.name, v.Message)
		}
	}
}

func TestFinanceGuard_NonObjectOutputPasses(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{})
	v := g.Check(response.Response{"output": "the NPV is 200"}, nil)
	if !v.Passed || v.Message != "No structured output to verify" {
		t.Errorf("expected trivial pass for text output, got: %s", v.Message)
	}
}

func TestFinanceGuard_UnusableDiscountRate(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{})
	v := g.Check(financeResponse(map[string]any{
		"cashflows":     []any{-1000.0, 500.0},
		"discount_rate": -1.0,
		"npv":           0.0,
	}), nil)
	if v.Passed {
		t.Fatalf("expected rate of -100%% to fail instead of dividing by zero")
	}
	if v.Severity != SeverityError {
		t.Errorf("expected severity error, got %s", v.Severity)
	}
}

func TestFinanceGuard_CoercesNumericEncodings(t *testing.T) {
	g := NewFinanceGuard(FinanceGuardConfig{})
	v := g.Check(financeResponse(map[string]any{
		"cashflows": []any{-1000, 400, "400", 400.0},
		"npv":       int64(200),
	}), nil)
	if !v.Passed {
		t.Errorf("expected mixed numeric encodings to verify, got: %s", v.Message)
	}
}
