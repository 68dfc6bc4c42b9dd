package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPacks_MissingDirReturnsBase(t *testing.T) {
	base := Default()
	merged, infos, err := LoadPacks(filepath.Join(t.TempDir(), "nope"), base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged != base {
		t.Errorf("expected base set returned unchanged")
	}
	if len(infos) != 0 {
		t.Errorf("expected no pack infos, got %v", infos)
	}
}

func TestLoadPacks_MergesListsAndMaps(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "finance.yaml", `
name: finance
description: payment controls
version: "1.0"
defaults:
  guards: [argument]
tool:
  blocked_tools: [charge_card, send_payment]
argument:
  tools:
    refund:
      required: [order_id, amount]
`)

	base := Default()
	base.Tool.BlockedTools = []string{"send_payment"}

	merged, infos, err := LoadPacks(dir, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(infos) != 1 || infos[0].Name != "finance" || !infos[0].Enabled {
		t.Errorf("unexpected pack infos: %+v", infos)
	}

	// Union keeps the existing entry once and appends the new one.
	if len(merged.Tool.BlockedTools) != 2 {
		t.Errorf("expected 2 blocked tools after union, got %v", merged.Tool.BlockedTools)
	}

	// Pack guard names append after the base order.
	last := merged.Defaults.Guards[len(merged.Defaults.Guards)-1]
	if last != "argument" {
		t.Errorf("expected argument appended to guard order, got %v", merged.Defaults.Guards)
	}

	if _, ok := merged.Argument.Tools["refund"]; !ok {
		t.Errorf("expected refund rule merged, got %v", merged.Argument.Tools)
	}
}

func TestLoadPacks_UnderscoreDisablesPack(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "_draft.yaml", `
name: draft
tool:
  blocked_tools: [experimental_tool]
`)

	merged, infos, err := LoadPacks(dir, Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 1 || infos[0].Enabled {
		t.Errorf("expected disabled pack info, got %+v", infos)
	}
	if len(merged.Tool.BlockedTools) != 0 {
		t.Errorf("expected disabled pack not to merge, got %v", merged.Tool.BlockedTools)
	}
}

func TestLoadPacks_StrictTrueWins(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "strict.yaml", `
name: strict
defaults:
  strict: true
`)

	relaxed := false
	base := Default()
	base.Defaults.Strict = &relaxed

	merged, _, err := LoadPacks(dir, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !merged.Strict() {
		t.Errorf("expected pack strict:true to win over base strict:false")
	}
}

func TestLoadPacks_BaseNotMutated(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "extra.yaml", `
name: extra
tool:
  blocked_tools: [new_tool]
`)

	base := Default()
	if _, _, err := LoadPacks(dir, base); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(base.Tool.BlockedTools) != 0 {
		t.Errorf("expected base set untouched, got %v", base.Tool.BlockedTools)
	}
}

func TestLoadPacks_SkipsNonYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "not yaml")
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, infos, err := LoadPacks(dir, Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected no pack infos, got %v", infos)
	}
}

func TestLoadPacks_StateTransitionsUnion(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "flow.yaml", `
name: flow
state:
  transitions:
    pending: [cancelled]
`)

	base := Default()
	base.State.Transitions = map[string][]string{"pending": {"approved"}}

	merged, _, err := LoadPacks(dir, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := merged.State.Transitions["pending"]
	if len(got) != 2 {
		t.Errorf("expected union of transitions, got %v", got)
	}
}
