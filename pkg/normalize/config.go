package normalize

import (
	"sort"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// Config selects which rules run and at what severity. Rule IDs are matched
// case-insensitively. A nil *Config runs every rule at its default severity.
type Config struct {
	disabled map[string]struct{}
	severity map[string]core.Severity
}

// NewConfig returns a Config with every rule enabled.
func NewConfig() *Config {
	return &Config{
		disabled: map[string]struct{}{},
		severity: map[string]core.Severity{},
	}
}

func ruleKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Disable turns off the given rules.
func (c *Config) Disable(ids ...string) *Config {
	if c.disabled == nil {
		c.disabled = map[string]struct{}{}
	}
	for _, id := range ids {
		if k := ruleKey(id); k != "" {
			c.disabled[k] = struct{}{}
		}
	}
	return c
}

// SetSeverity reports findings of rule id at sev instead of the rule default.
func (c *Config) SetSeverity(id string, sev core.Severity) *Config {
	if c.severity == nil {
		c.severity = map[string]core.Severity{}
	}
	c.severity[ruleKey(id)] = sev
	return c
}

// IsDisabled reports whether rule id was turned off.
func (c *Config) IsDisabled(id string) bool {
	if c == nil {
		return false
	}
	_, off := c.disabled[ruleKey(id)]
	return off
}

// GetSeverity returns the override for rule id, or def when there is none.
func (c *Config) GetSeverity(id string, def core.Severity) core.Severity {
	if c == nil {
		return def
	}
	if sev, ok := c.severity[ruleKey(id)]; ok {
		return sev
	}
	return def
}

// UnknownRules lists the configured IDs that name no registered rule, sorted.
func (c *Config) UnknownRules() []string {
	if c == nil {
		return nil
	}
	seen := map[string]bool{}
	var unknown []string
	check := func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		if _, ok := GetByID(id); !ok {
			unknown = append(unknown, id)
		}
	}
	for id := range c.disabled {
		check(id)
	}
	for id := range c.severity {
		check(id)
	}
	sort.Strings(unknown)
	return unknown
}
