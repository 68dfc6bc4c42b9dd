package policy

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a guard set from path. A missing file yields the default set;
// any other read or parse failure is returned.
func Load(path string) (*GuardSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	var set GuardSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	if len(set.Defaults.Guards) == 0 {
		set.Defaults.Guards = defaultGuardOrder()
	}

	return &set, nil
}

// Default is the built-in guard set: strict mode, the four core guards,
// built-in pattern tables.
func Default() *GuardSet {
	return &GuardSet{
		Version: "0.1",
		Defaults: Defaults{
			Guards: defaultGuardOrder(),
		},
	}
}

func defaultGuardOrder() []string {
	return []string{"tool", "safety", "schema", "math"}
}
