package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pack extends GuardSet with metadata for distributable policy packs.
// We avoid yaml:",inline" because GuardSet also has a `version` field.
type Pack struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	PackVersion string        `yaml:"version"`
	Author      string        `yaml:"author"`
	Defaults    Defaults      `yaml:"defaults"`
	Tool        ToolRules     `yaml:"tool"`
	Safety      SafetyRules   `yaml:"safety"`
	Schema      SchemaRules   `yaml:"schema"`
	Math        MathRules     `yaml:"math"`
	Finance     FinanceRules  `yaml:"finance"`
	Argument    ArgumentRules `yaml:"argument"`
	State       StateRules    `yaml:"state"`
}

// PackInfo is a summary of a pack for listing.
type PackInfo struct {
	Name        string
	Description string
	Version     string
	Author      string
	Enabled     bool
	Path        string
}

// LoadPacks reads all .yaml files from the packs directory and merges them
// into the base guard set. List fields are unioned, rule maps are merged
// with pack entries winning per key, and strict:true from any enabled pack
// wins. Packs whose file name starts with an underscore are disabled.
func LoadPacks(packsDir string, base *GuardSet) (*GuardSet, []PackInfo, error) {
	var infos []PackInfo

	entries, err := os.ReadDir(packsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil, nil
		}
		return nil, nil, err
	}

	result := cloneGuardSet(base)

	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}

		path := filepath.Join(packsDir, entry.Name())

		baseName := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		enabled := !strings.HasPrefix(baseName, "_")

		pack, err := loadPack(path)
		if err != nil {
			infos = append(infos, PackInfo{
				Name:    baseName,
				Enabled: enabled,
				Path:    path,
			})
			continue
		}

		info := PackInfo{
			Name:        pack.Name,
			Description: pack.Description,
			Version:     pack.PackVersion,
			Author:      pack.Author,
			Enabled:     enabled,
			Path:        path,
		}
		if info.Name == "" {
			info.Name = baseName
		}
		infos = append(infos, info)

		if !enabled {
			continue
		}

		mergePackInto(result, pack)
	}

	return result, infos, nil
}

func loadPack(path string) (*Pack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var pack Pack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("failed to parse pack %s: %w", path, err)
	}

	return &pack, nil
}

// mergePackInto layers a pack onto the target guard set.
func mergePackInto(target *GuardSet, pack *Pack) {
	// Guard order: append names the base does not already run.
	for _, name := range pack.Defaults.Guards {
		if !containsString(target.Defaults.Guards, name) {
			target.Defaults.Guards = append(target.Defaults.Guards, name)
		}
	}

	// Strict: true from any enabled pack wins.
	if pack.Defaults.Strict != nil && *pack.Defaults.Strict {
		strict := true
		target.Defaults.Strict = &strict
	}

	target.Tool.BlockedTools = unionStrings(target.Tool.BlockedTools, pack.Tool.BlockedTools)
	target.Tool.AllowedTools = unionStrings(target.Tool.AllowedTools, pack.Tool.AllowedTools)
	target.Tool.DangerousPatterns = unionStrings(target.Tool.DangerousPatterns, pack.Tool.DangerousPatterns)

	target.Safety.PIIAllowList = unionStrings(target.Safety.PIIAllowList, pack.Safety.PIIAllowList)
	target.Safety.InjectionPatterns = unionStrings(target.Safety.InjectionPatterns, pack.Safety.InjectionPatterns)
	if pack.Safety.CheckBudget {
		target.Safety.CheckBudget = true
		target.Safety.MaxCost = pack.Safety.MaxCost
	}

	if len(pack.Schema.Schema) > 0 {
		target.Schema = pack.Schema
	}
	if pack.Math.Tolerance > 0 {
		target.Math.Tolerance = pack.Math.Tolerance
	}
	if pack.Finance.Tolerance > 0 {
		target.Finance.Tolerance = pack.Finance.Tolerance
	}

	if len(pack.Argument.Tools) > 0 {
		if target.Argument.Tools == nil {
			target.Argument.Tools = make(map[string]ArgumentToolRule)
		}
		for tool, rule := range pack.Argument.Tools {
			target.Argument.Tools[tool] = rule
		}
	}

	if len(pack.State.Transitions) > 0 {
		if target.State.Transitions == nil {
			target.State.Transitions = make(map[string][]string)
		}
		for from, to := range pack.State.Transitions {
			target.State.Transitions[from] = unionStrings(target.State.Transitions[from], to)
		}
	}
	if pack.State.StateKey != "" {
		target.State.StateKey = pack.State.StateKey
	}
	if pack.State.ContextKey != "" {
		target.State.ContextKey = pack.State.ContextKey
	}
}

func cloneGuardSet(s *GuardSet) *GuardSet {
	clone := &GuardSet{
		Version:  s.Version,
		Defaults: Defaults{Strict: s.Defaults.Strict},
		Tool:     s.Tool,
		Safety:   s.Safety,
		Schema:   s.Schema,
		Math:     s.Math,
		Finance:  s.Finance,
	}

	clone.Defaults.Guards = append([]string(nil), s.Defaults.Guards...)
	clone.Tool.BlockedTools = append([]string(nil), s.Tool.BlockedTools...)
	clone.Tool.AllowedTools = append([]string(nil), s.Tool.AllowedTools...)
	clone.Tool.DangerousPatterns = append([]string(nil), s.Tool.DangerousPatterns...)
	clone.Safety.PIIAllowList = append([]string(nil), s.Safety.PIIAllowList...)
	clone.Safety.InjectionPatterns = append([]string(nil), s.Safety.InjectionPatterns...)

	if len(s.Argument.Tools) > 0 {
		clone.Argument.Tools = make(map[string]ArgumentToolRule, len(s.Argument.Tools))
		for tool, rule := range s.Argument.Tools {
			clone.Argument.Tools[tool] = rule
		}
	}
	if len(s.State.Transitions) > 0 {
		clone.State.Transitions = make(map[string][]string, len(s.State.Transitions))
		for from, to := range s.State.Transitions {
			clone.State.Transitions[from] = append([]string(nil), to...)
		}
	}
	clone.State.StateKey = s.State.StateKey
	clone.State.ContextKey = s.State.ContextKey

	return clone
}

func unionStrings(base, extra []string) []string {
	seen := make(map[string]bool, len(base))
	for _, s := range base {
		seen[s] = true
	}
	for _, s := range extra {
		if !seen[s] {
			seen[s] = true
			base = append(base, s)
		}
	}
	return base
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
