package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/leapstack-labs/sqlscope/pkg/core"
)

func TestConfig_CaseInsensitiveIDs(t *testing.T) {
	cfg := NewConfig().Disable("nf01", " ck02 ", "").SetSeverity("Nf03", core.SeverityError)

	assert.True(t, cfg.IsDisabled("NF01"))
	assert.True(t, cfg.IsDisabled("CK02"))
	assert.False(t, cfg.IsDisabled("NF02"))
	assert.Equal(t, core.SeverityError, cfg.GetSeverity("NF03", core.SeverityWarning))
	assert.Equal(t, core.SeverityWarning, cfg.GetSeverity("CK01", core.SeverityWarning))
}

func TestConfig_NilAndZeroValue(t *testing.T) {
	var nilCfg *Config
	assert.False(t, nilCfg.IsDisabled("NF01"))
	assert.Equal(t, core.SeverityInfo, nilCfg.GetSeverity("NF01", core.SeverityInfo))
	assert.Nil(t, nilCfg.UnknownRules())

	var zero Config
	zero.Disable("NF02").SetSeverity("CK01", core.SeverityInfo)
	assert.True(t, zero.IsDisabled("nf02"))
	assert.Equal(t, core.SeverityInfo, zero.GetSeverity("ck01", core.SeverityError))
}

func TestConfig_UnknownRules(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want []string
	}{
		{"all known", NewConfig().Disable("NF01").SetSeverity("CK04", core.SeverityInfo), nil},
		{"unknown disabled", NewConfig().Disable("NF09", "NF01"), []string{"NF09"}},
		{"unknown override", NewConfig().SetSeverity("xx1", core.SeverityInfo), []string{"XX1"}},
		{"reported once, sorted", NewConfig().Disable("ZZ", "AA").SetSeverity("zz", core.SeverityInfo), []string{"AA", "ZZ"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.UnknownRules())
		})
	}
}
