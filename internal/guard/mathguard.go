package guard

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/qwed-ai/responseguard/internal/response"
)

// DefaultTolerance is the numeric slack allowed between a claimed total and
// the recomputed one.
const DefaultTolerance = 0.01

// MathGuardConfig configures a MathGuard. A zero Tolerance means
// DefaultTolerance.
type MathGuardConfig struct {
	Tolerance float64
}

// MathGuard recomputes order-style arithmetic in structured output:
// when both total and subtotal are present,
// expected = subtotal + tax + shipping − discount must match total within
// the configured tolerance. Anything else passes trivially — there is no
// calculation to verify.
type MathGuard struct {
	tolerance float64
}

func NewMathGuard(cfg MathGuardConfig) *MathGuard {
	tol := cfg.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	return &MathGuard{tolerance: tol}
}

func (g *MathGuard) Name() string { return "math" }

func (g *MathGuard) Description() string {
	return "Verifies arithmetic consistency of totals in structured output"
}

func (g *MathGuard) Check(resp response.Response, _ map[string]any) Verdict {
	data, ok := asObject(resp.Output())
	if !ok {
		return pass(g.Name(), "No structured output to verify")
	}

	totalRaw, hasTotal := data["total"]
	_, hasSubtotal := data["subtotal"]
	if !hasTotal || !hasSubtotal {
		return pass(g.Name(), "No calculation to verify")
	}

	expected := toFloat(data["subtotal"]) + toFloat(data["tax"]) + toFloat(data["shipping"]) - toFloat(data["discount"])
	actual := toFloat(totalRaw)

	if math.Abs(expected-actual) > g.tolerance {
		return fail(g.Name(),
			fmt.Sprintf("Total %v does not match calculated value %v", actual, expected),
			map[string]any{"expected": expected, "actual": actual})
	}

	return pass(g.Name(), fmt.Sprintf("Calculation verified (total=%v)", actual))
}

// asObject views v as a string-keyed mapping when possible.
func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case response.Response:
		return map[string]any(m), true
	}
	return nil, false
}

// toFloat coerces common numeric encodings to float64; anything else is 0.
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	case string:
		f, _ := strconv.ParseFloat(n, 64)
		return f
	}
	return 0
}
