package guard

import (
	"fmt"
	"math"

	"github.com/qwed-ai/responseguard/internal/response"
)

// FinanceGuardConfig configures a FinanceGuard. A zero Tolerance means
// DefaultTolerance.
type FinanceGuardConfig struct {
	Tolerance float64
}

// FinanceGuard recomputes investment math in structured output: when both
// cashflows and a claimed npv are present, the net present value of the
// series at discount_rate (period zero undiscounted) must match the claim
// within the configured tolerance. Anything else passes trivially.
type FinanceGuard struct {
	tolerance float64
}

func NewFinanceGuard(cfg FinanceGuardConfig) *FinanceGuard {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &FinanceGuard{tolerance: tol}
}

func (g *FinanceGuard) Name() string { return "finance" }

func (g *FinanceGuard) Description() string {
	return "Verifies net present value claims against the stated cashflows"
}

func (g *FinanceGuard) Check(resp response.Response, _ map[string]any) Verdict {
	data, ok := asObject(resp.Output())
	if !ok {
		return pass(g.Name(), "No structured output to verify")
	}

	flowsRaw, hasFlows := data["cashflows"]
	npvRaw, hasNPV := data["npv"]
	if !hasFlows || !hasNPV {
		return pass(g.Name(), "No financial calculation to verify")
	}
	flows, ok := flowsRaw.([]any)
	if !ok || len(flows) == 0 {
		return pass(g.Name(), "No financial calculation to verify")
	}

	rate := toFloat(data["discount_rate"])
	if rate <= -1 {
		return fail(g.Name(),
			fmt.Sprintf("Discount rate %v is not usable for NPV", data["discount_rate"]),
			map[string]any{"discountRate": rate})
	}

	expected := 0.0
	for period, cf := range flows {
		expected += toFloat(cf) / math.Pow(1+rate, float64(period))
	}
	actual := toFloat(npvRaw)

	if math.Abs(expected-actual) > g.tolerance {
		return fail(g.Name(),
			fmt.Sprintf("NPV %v does not match calculated value %v", actual, expected),
			map[string]any{"expected": expected, "actual": actual, "discountRate": rate})
	}

	return pass(g.Name(), fmt.Sprintf("NPV verified over %d cashflow(s)", len(flows)))
}
