package rules

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// LoadDefault parses the rule set embedded into the binary. It is trusted
// and not validated, matching the reference implementation's treatment of
// its own embedded defaults.
func LoadDefault() ([]Rule, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultRulesYAML, &cfg); err != nil {
		return nil, fmt.Errorf("parse embedded default rules: %w", err)
	}
	return cfg.Rules, nil
}

// LoadFile parses a user-supplied YAML rule file at path and validates it.
func LoadFile(path string) ([]Rule, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is an operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := Validate(cfg.Rules); err != nil {
		return nil, err
	}
	return cfg.Rules, nil
}
