// Package rules owns the serialized form of the scan rule set: loading it
// from its YAML file, validating it against the pipeline and writing it back
// after a successful scan advanced the watermark.
package rules

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jobtrack/mailscan/internal/core"
)

// ConfigError wraps a malformed or missing rule set. It is fatal: a scan
// never starts without a valid rule set.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("rule set %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Load reads and validates a rule set from a YAML file. A missing file yields
// the default rule set so first runs work without any tuning.
func Load(path string) (*core.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Defaults(), nil
		}
		return nil, &ConfigError{Path: path, Err: err}
	}

	rs := &core.RuleSet{}
	if err := yaml.Unmarshal(data, rs); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("failed to parse: %w", err)}
	}

	applyFallbacks(rs)

	if err := rs.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return rs, nil
}

// Save writes the rule set back to its YAML file. The serialized form
// round-trips losslessly, watermark included.
func Save(path string, rs *core.RuleSet) error {
	data, err := yaml.Marshal(rs)
	if err != nil {
		return fmt.Errorf("failed to serialize rule set: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write rule set %s: %w", path, err)
	}
	return nil
}

// applyFallbacks fills scan parameters a hand-edited file may omit. Status
// rules are never defaulted for a file that defines its own.
func applyFallbacks(rs *core.RuleSet) {
	def := Defaults()
	if len(rs.StatusRules) == 0 {
		rs.StatusRules = def.StatusRules
	}
	if rs.DaysBack == 0 {
		rs.DaysBack = def.DaysBack
	}
	if rs.MaxEmailsPerCompany == 0 {
		rs.MaxEmailsPerCompany = def.MaxEmailsPerCompany
	}
	if rs.ExcludeDomains == nil {
		rs.ExcludeDomains = def.ExcludeDomains
	}
}
