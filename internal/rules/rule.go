// Package rules defines the redaction rule model: the YAML shape rule files
// are loaded from, validation of a rule set's structural integrity, and the
// merge/activation logic that turns a default set plus an optional user set
// into the effective, active rule list a config gets compiled from.
package rules

// MaxPatternLength bounds how large a single rule's regex source may be,
// defending the compiler against pathological or malicious patterns.
const MaxPatternLength = 500

// Rule is a single named redaction rule.
type Rule struct {
	Name                    string   `yaml:"name"`
	Description             string   `yaml:"description,omitempty"`
	Pattern                 string   `yaml:"pattern"`
	PatternType             string   `yaml:"pattern_type"`
	ReplaceWith             string   `yaml:"replace_with"`
	Version                 string   `yaml:"version,omitempty"`
	CreatedAt               string   `yaml:"created_at,omitempty"`
	Author                  string   `yaml:"author,omitempty"`
	UpdatedAt               string   `yaml:"updated_at,omitempty"`
	Multiline               bool     `yaml:"multiline"`
	DotMatchesNewLine       bool     `yaml:"dot_matches_new_line"`
	OptIn                   bool     `yaml:"opt_in"`
	ProgrammaticValidation  bool     `yaml:"programmatic_validation"`
	Enabled                 *bool    `yaml:"enabled,omitempty"`
	Severity                string   `yaml:"severity,omitempty"`
	Tags                    []string `yaml:"tags,omitempty"`
}

// WithDefaults returns a copy of r with the provenance/type fields filled in
// the way a freshly constructed rule would have them, mirroring the Default
// rule record of the reference implementation this model is grounded on.
func (r Rule) WithDefaults() Rule {
	if r.PatternType == "" {
		r.PatternType = "regex"
	}
	if r.ReplaceWith == "" {
		r.ReplaceWith = "[REDACTED]"
	}
	if r.Version == "" {
		r.Version = "1.0.0"
	}
	if r.CreatedAt == "" {
		r.CreatedAt = "1970-01-01T00:00:00Z"
	}
	if r.UpdatedAt == "" {
		r.UpdatedAt = "1970-01-01T00:00:00Z"
	}
	if r.Author == "" {
		r.Author = "Obscura Team"
	}
	return r
}

// IsEnabled reports whether the rule is enabled, defaulting to true when
// Enabled is unset (nil means "no explicit override").
func (r Rule) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// Config is an ordered collection of rules, the unit a YAML rule file or an
// embedded default set deserializes into.
type Config struct {
	Rules []Rule `yaml:"rules"`
}
