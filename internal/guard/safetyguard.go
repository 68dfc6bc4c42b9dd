package guard

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/qwed-ai/responseguard/internal/response"
	"github.com/qwed-ai/responseguard/internal/unicode"
)

// piiPattern pairs a PII category with its detection regex. One issue is
// collected per matching category regardless of match count.
type piiPattern struct {
	category string
	re       *regexp.Regexp
}

var defaultPIIPatterns = []piiPattern{
	{"email", regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)},
	{"phone", regexp.MustCompile(`\(?\b\d{3}\)?[-.\s]\d{3}[-.\s]\d{4}\b`)},
	{"ssn", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"credit_card", regexp.MustCompile(`\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`)},
}

// defaultInjectionPatterns cover instruction-override phrasings. The list is
// ordered; the first match is reported.
var defaultInjectionPatterns = []string{
	`(?i)ignore\s+(previous|all|above)\s+instructions`,
	`(?i)disregard\s+(previous|all|above)`,
	`(?i)forget\s+(everything|instructions)`,
	`(?i)you\s+are\s+now`,
	`(?i)pretend\s+(you|to\s+be)`,
}

// SafetyGuardConfig configures a SafetyGuard. The zero value enables the
// PII, injection, and unicode checks with the built-in pattern sets; the
// budget check is off until MaxCost is set.
type SafetyGuardConfig struct {
	DisablePII       bool
	DisableInjection bool
	DisableUnicode   bool

	// PIIAllowList names categories ("email", "phone", ...) exempt from
	// the PII scan.
	PIIAllowList []string

	// InjectionPatterns are regex sources appended after the built-in
	// injection set. Invalid patterns are skipped.
	InjectionPatterns []string

	// CheckBudget enables the cost ceiling: the response's usage.cost plus
	// the context's total_cost must not exceed MaxCost.
	CheckBudget bool
	MaxCost     float64
}

// SafetyGuard scans the response's combined text for prompt-injection
// phrasings, smuggled unicode, PII, and (optionally) budget overruns.
//
// Check ordering is part of the contract: PII issues are accumulated first,
// but an injection match fails immediately with severity error and takes
// precedence over any accumulated PII — PII alone fails with severity
// warning, which never blocks under the default strict policy.
type SafetyGuard struct {
	checkPII       bool
	checkInjection bool
	checkUnicode   bool
	checkBudget    bool
	maxCost        float64
	piiAllow       map[string]struct{}
	injection      []*regexp.Regexp
	injectionSrc   []string
}

// NewSafetyGuard builds a SafetyGuard from cfg, compiling all patterns once.
func NewSafetyGuard(cfg SafetyGuardConfig) *SafetyGuard {
	g := &SafetyGuard{
		checkPII:       !cfg.DisablePII,
		checkInjection: !cfg.DisableInjection,
		checkUnicode:   !cfg.DisableUnicode,
		checkBudget:    cfg.CheckBudget,
		maxCost:        cfg.MaxCost,
		piiAllow:       make(map[string]struct{}, len(cfg.PIIAllowList)),
	}
	for _, cat := range cfg.PIIAllowList {
		g.piiAllow[cat] = struct{}{}
	}

	sources := append(append([]string(nil), defaultInjectionPatterns...), cfg.InjectionPatterns...)
	for _, src := range sources {
		re, err := regexp.Compile(src)
		if err != nil {
			continue
		}
		g.injection = append(g.injection, re)
		g.injectionSrc = append(g.injectionSrc, src)
	}

	return g
}

func (g *SafetyGuard) Name() string { return "safety" }

func (g *SafetyGuard) Description() string {
	return "Scans response text for prompt injection, smuggled unicode, and PII"
}

func (g *SafetyGuard) Check(resp response.Response, ctx map[string]any) Verdict {
	blob := textBlob(resp)

	var issues []string
	if g.checkPII {
		for _, p := range defaultPIIPatterns {
			if _, allowed := g.piiAllow[p.category]; allowed {
				continue
			}
			if p.re.MatchString(blob) {
				issues = append(issues, "Potential "+p.category+" detected")
			}
		}
	}

	if g.checkInjection {
		for i, re := range g.injection {
			if re.MatchString(blob) {
				return fail(g.Name(), "Potential prompt injection detected",
					map[string]any{"pattern": g.injectionSrc[i]})
			}
		}
	}

	if g.checkUnicode {
		if findings := unicode.Scan(blob); unicode.HasBlocking(findings) {
			return fail(g.Name(), "Smuggled unicode characters detected",
				map[string]any{"findings": summarizeFindings(findings)})
		}
	}

	if g.checkBudget {
		cost := numberField(resp["usage"], "cost") + contextNumber(ctx, "total_cost")
		if cost > g.maxCost {
			return fail(g.Name(),
				fmt.Sprintf("Cost %.4f exceeds budget %.4f", cost, g.maxCost),
				map[string]any{"cost": cost, "maxCost": g.maxCost})
		}
	}

	if len(issues) > 0 {
		return warn(g.Name(), "PII detected in response", map[string]any{"issues": issues})
	}

	return pass(g.Name(), "No safety issues detected")
}

// textBlob concatenates, in fixed order, the content, output, text, and
// arguments fields into one scannable string. Structured values are
// JSON-serialized.
func textBlob(resp response.Response) string {
	var parts []string
	appendField := func(v any) {
		switch s := v.(type) {
		case string:
			parts = append(parts, s)
		default:
			if b, err := json.Marshal(v); err == nil {
				parts = append(parts, string(b))
			}
		}
	}

	if v, ok := resp["content"]; ok {
		appendField(v)
	}
	if v, ok := resp["output"]; ok {
		appendField(v)
	}
	if v, ok := resp["text"]; ok {
		appendField(v)
	}
	if v, ok := resp["arguments"]; ok {
		appendField(v)
	}

	return strings.Join(parts, " ")
}

func summarizeFindings(findings []unicode.Finding) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range findings {
		key := f.Category + " " + f.Codepoint
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, key)
	}
	return out
}

func numberField(v any, key string) float64 {
	m, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	return toFloat(m[key])
}

func contextNumber(ctx map[string]any, key string) float64 {
	if ctx == nil {
		return 0
	}
	return toFloat(ctx[key])
}
