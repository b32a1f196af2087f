package config

// RuleGraphConfig configures the rule graph compiler.
type RuleGraphConfig struct {
	// WarnOnUnusedQueryInputs toggles whether the compiler reports
	// declared-but-unused query input types as warnings.
	WarnOnUnusedQueryInputs bool `yaml:"warn_on_unused_query_inputs"`

	// FixturePath, if set, is the fixture file (see the format in
	// internal/rulegraph/fixture.go) that `rulegraph check` compiles when it
	// is given no fixture arguments. It is not read when arguments are given.
	FixturePath string `yaml:"fixture_path"`

	// MaxRules bounds the rule set size the compiler will accept before
	// refusing to run, as a cheap guard against pathological input
	// (default: 10000).
	MaxRules int `yaml:"max_rules"`
}

// DefaultMaxRules is the default ceiling on the number of rules Compile
// will accept.
const DefaultMaxRules = 10000

// DefaultRuleGraphConfig returns production defaults.
func DefaultRuleGraphConfig() RuleGraphConfig {
	return RuleGraphConfig{
		WarnOnUnusedQueryInputs: true,
		MaxRules:                DefaultMaxRules,
	}
}
