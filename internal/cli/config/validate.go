package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leapstack-labs/sqlscope/pkg/adapter"
	"github.com/leapstack-labs/sqlscope/pkg/core"
	"github.com/leapstack-labs/sqlscope/pkg/normalize"
)

var validOutputs = map[string]bool{"": true, "auto": true, "text": true, "json": true, "markdown": true}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Adapter == "" {
		errs = append(errs, errors.New("adapter is required"))
	} else if !adapter.IsRegistered(c.Adapter) {
		errs = append(errs, &adapter.UnknownAdapterError{Type: c.Adapter, Available: adapter.ListAdapters()})
	}
	if c.Sample.Normalization <= 0 {
		errs = append(errs, fmt.Errorf("sample.normalization must be positive, got %d", c.Sample.Normalization))
	}
	if c.Sample.Insights <= 0 {
		errs = append(errs, fmt.Errorf("sample.insights must be positive, got %d", c.Sample.Insights))
	}
	if !validOutputs[c.OutputFormat] {
		errs = append(errs, fmt.Errorf("unknown output format %q (use auto, text, markdown or json)", c.OutputFormat))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 {
		errs = append(errs, errors.New("server.rate_limit must not be negative"))
	}
	for id, sev := range c.Lint.Severity {
		if _, ok := core.ParseSeverity(sev); !ok {
			errs = append(errs, fmt.Errorf("lint.severity.%s: unknown severity %q", id, sev))
		}
	}
	for _, id := range c.RuleConfig().UnknownRules() {
		errs = append(errs, fmt.Errorf("lint: unknown rule %q", id))
	}

	return errors.Join(errs...)
}

// DisabledRules returns the rule IDs listed under lint.disabled. Entries may
// hold comma-separated IDs, as they do when set from the environment.
func (c *Config) DisabledRules() []string {
	var ids []string
	for _, entry := range c.Lint.Disabled {
		for _, id := range strings.Split(entry, ",") {
			if id = strings.ToUpper(strings.TrimSpace(id)); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// RuleConfig converts the lint section into analyzer rule configuration.
func (c *Config) RuleConfig() *normalize.Config {
	rules := normalize.NewConfig().Disable(c.DisabledRules()...)
	for id, sev := range c.Lint.Severity {
		if s, ok := core.ParseSeverity(sev); ok {
			rules.SetSeverity(id, s)
		}
	}
	return rules
}

// AdapterConfig returns the adapter configuration for the configured backend.
func (c *Config) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:    c.Adapter,
		Path:    c.Database,
		Options: c.Options,
		Params:  c.Params,
	}
}
