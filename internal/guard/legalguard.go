package guard

import (
	"fmt"
	"sort"
	"strings"

	"github.com/qwed-ai/responseguard/internal/response"
)

// requiredClauses are the clause types every reviewed contract is expected
// to carry. Their absence is flagged but never blocks.
var requiredClauses = []string{"termination", "governing_law", "force_majeure"}

// usStates maps full state names to their two-letter codes, for matching a
// governing-law clause against a forum location.
var usStates = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

// maxNDATermYears is the upper bound before an NDA term is flagged as
// exceeding standard commercial practice.
const maxNDATermYears = 5

// LegalGuard reviews contract-shaped output: governing-law vs forum
// conflicts, clauses void in the stated jurisdiction, completeness of
// standard clauses, and unreasonable NDA terms. Outputs that do not look
// like a contract review pass trivially.
type LegalGuard struct{}

func NewLegalGuard() *LegalGuard { return &LegalGuard{} }

func (g *LegalGuard) Name() string { return "legal" }

func (g *LegalGuard) Description() string {
	return "Reviews contract output for jurisdiction conflicts and void or missing clauses"
}

func (g *LegalGuard) Check(resp response.Response, _ map[string]any) Verdict {
	data, ok := asObject(resp.Output())
	if !ok {
		return pass(g.Name(), "No contract output to review")
	}
	if !looksLikeContract(data) {
		return pass(g.Name(), "No contract output to review")
	}

	var errFlags, warnFlags []string

	law, hasLaw := data["governing_law"].(string)
	forum, hasForum := data["forum"].(string)
	if hasLaw && hasForum && !sameJurisdiction(law, forum) {
		errFlags = append(errFlags,
			fmt.Sprintf("JURISDICTION_MISMATCH: governing law %q conflicts with forum %q", law, forum))
	}

	jurisdiction := strings.ToUpper(stringField(data, "jurisdiction"))
	clauses := clauseTypes(data["clauses"])

	if jurisdiction == "CA" || strings.Contains(jurisdiction, "CALIFORNIA") {
		for _, c := range clauses {
			if c == "non_compete" {
				errFlags = append(errFlags,
					"PROHIBITED_CLAUSE: Non-compete clauses are unenforceable in California")
				break
			}
		}
	}

	var missing []string
	for _, req := range requiredClauses {
		found := false
		for _, c := range clauses {
			if c == req {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		warnFlags = append(warnFlags,
			fmt.Sprintf("COMPLETENESS_WARNING: missing standard clauses: %s", strings.Join(missing, ", ")))
	}

	if stringField(data, "type") == "NDA" {
		if years := toFloat(data["term_years"]); years > maxNDATermYears {
			errFlags = append(errFlags,
				fmt.Sprintf("UNREASONABLE_TERM: %v year term for NDA exceeds standard commercial practice", data["term_years"]))
		}
	}

	if len(errFlags) > 0 {
		return fail(g.Name(), "Contract review found blocking issues",
			map[string]any{"flags": append(errFlags, warnFlags...)})
	}
	if len(warnFlags) > 0 {
		return warn(g.Name(), "Contract review found non-blocking issues",
			map[string]any{"flags": warnFlags})
	}
	return pass(g.Name(), "Contract review passed")
}

// looksLikeContract reports whether the output carries any of the fields the
// review understands. Plain answers and tool calls stay out of scope.
func looksLikeContract(data map[string]any) bool {
	for _, key := range []string{"clauses", "governing_law", "jurisdiction", "term_years"} {
		if _, ok := data[key]; ok {
			return true
		}
	}
	return false
}

// sameJurisdiction matches a governing-law description against a forum
// location by resolving both to US state codes. Unresolvable values are
// treated as compatible rather than guessed at.
func sameJurisdiction(law, forum string) bool {
	lawState := stateCode(law)
	forumState := stateCode(forum)
	if lawState == "" || forumState == "" {
		return true
	}
	return lawState == forumState
}

func stateCode(s string) string {
	trimmed := strings.TrimSpace(s)
	upper := strings.ToUpper(trimmed)
	for _, code := range usStates {
		if upper == code {
			return code
		}
	}
	lowered := strings.ToLower(trimmed)
	// Longest names first, so "west virginia" never resolves as "virginia".
	for _, name := range stateNameOrder {
		if strings.Contains(lowered, name) {
			return usStates[name]
		}
	}
	return ""
}

// stateNameOrder is fixed at init so Check stays safe under concurrent use.
var stateNameOrder = func() []string {
	names := make([]string, 0, len(usStates))
	for name := range usStates {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}()

func clauseTypes(v any) []string {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var types []string
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			if t, ok := m["type"].(string); ok {
				types = append(types, t)
			}
		}
	}
	return types
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
