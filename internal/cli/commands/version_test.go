package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	tests := []struct {
		name    string
		version string
		want    string
	}{
		{"release", "0.3.1", "sqlscope v0.3.1\n"},
		{"tag with prefix", "v1.2.3", "sqlscope v1.2.3\n"},
		{"dev build", "dev", "sqlscope vdev\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd := NewVersionCommand(tt.version)
			cmd.SetOut(&out)
			cmd.SetArgs([]string{})

			require.NoError(t, cmd.Execute())
			assert.Contains(t, out.String(), tt.want)
			assert.NotContains(t, out.String(), "vv")
		})
	}
}

func TestNewVersionCommand_ListsAdapters(t *testing.T) {
	var out bytes.Buffer
	cmd := NewVersionCommand("dev")
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	// the sqlite adapter is linked into this test binary
	assert.Regexp(t, `(?m)^adapters: .*\bsqlite\b`, out.String())
}

func TestNewVersionCommand_RejectsArgs(t *testing.T) {
	cmd := NewVersionCommand("dev")
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"extra"})

	assert.Error(t, cmd.Execute())
}
