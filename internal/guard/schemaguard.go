package guard

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/qwed-ai/responseguard/internal/response"
)

// SchemaGuardConfig configures a SchemaGuard.
type SchemaGuardConfig struct {
	// Schema is the target schema. The structural subset reads "type" and
	// "required"; StrictDraft mode compiles the whole document.
	Schema map[string]any

	// StrictDraft compiles Schema with a full JSON-Schema engine and
	// validates the data against it. When compilation fails the guard
	// degrades to the structural subset.
	StrictDraft bool
}

// SchemaGuard checks the response's output against a fixed target schema.
// By default it applies a minimal structural subset — type:object plus a
// required-field list — rather than full draft compliance; the full engine
// is an optional consulted capability behind StrictDraft.
type SchemaGuard struct {
	wantType string
	required []string
	compiled *jsonschema.Schema // non-nil only in StrictDraft mode
}

func NewSchemaGuard(cfg SchemaGuardConfig) *SchemaGuard {
	g := &SchemaGuard{}

	if t, ok := cfg.Schema["type"].(string); ok {
		g.wantType = t
	}
	g.required = stringList(cfg.Schema["required"])

	if cfg.StrictDraft && len(cfg.Schema) > 0 {
		if doc, err := json.Marshal(cfg.Schema); err == nil {
			compiler := jsonschema.NewCompiler()
			if err := compiler.AddResource("schema.json", bytes.NewReader(doc)); err == nil {
				if sch, err := compiler.Compile("schema.json"); err == nil {
					g.compiled = sch
				}
			}
		}
	}

	return g
}

func (g *SchemaGuard) Name() string { return "schema" }

func (g *SchemaGuard) Description() string {
	return "Validates structured output against the configured schema"
}

func (g *SchemaGuard) Check(resp response.Response, _ map[string]any) Verdict {
	data := resp.Output()
	if r, ok := data.(response.Response); ok {
		data = map[string]any(r)
	}

	if g.compiled != nil {
		if err := g.compiled.Validate(data); err != nil {
			return fail(g.Name(), "Output does not conform to schema",
				map[string]any{"error": err.Error()})
		}
		return pass(g.Name(), "Schema validation passed")
	}

	if g.wantType == "object" {
		m, ok := data.(map[string]any)
		if !ok {
			return fail(g.Name(), "Expected object output",
				map[string]any{"expectedType": "object", "actualType": fmt.Sprintf("%T", data)})
		}
		if missing := missingKeys(m, g.required); len(missing) > 0 {
			return fail(g.Name(), "Output is missing required fields",
				map[string]any{"missing": missing})
		}
		return pass(g.Name(), "Schema check passed")
	}

	if len(g.required) > 0 {
		if m, ok := data.(map[string]any); ok {
			if missing := missingKeys(m, g.required); len(missing) > 0 {
				return fail(g.Name(), "Output is missing required fields",
					map[string]any{"missing": missing})
			}
		}
	}

	return pass(g.Name(), "Schema check passed")
}

func missingKeys(m map[string]any, required []string) []string {
	var missing []string
	for _, key := range required {
		if _, ok := m[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
