package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/sqlscope/internal/cli/output"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

// errNoInput is returned when no spec was given and stdin is a terminal.
var errNoInput = errors.New("no query spec given: pass a file, --spec, or pipe JSON/YAML on stdin")

// readInput returns the document named by args[0] ("-" for stdin), the
// inline value, or piped stdin, plus whether it should be parsed as YAML.
func readInput(cmd *cobra.Command, args []string, inline string) ([]byte, bool, error) {
	switch {
	case inline != "":
		return []byte(inline), false, nil
	case len(args) > 0 && args[0] != "-":
		data, err := os.ReadFile(args[0])
		if err != nil {
			return nil, false, fmt.Errorf("failed to read file: %w", err)
		}
		ext := strings.ToLower(filepath.Ext(args[0]))
		return data, ext == ".yaml" || ext == ".yml", nil
	case len(args) > 0 || !output.IsTerminal(cmd.InOrStdin()):
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, false, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, false, nil
	default:
		return nil, false, errNoInput
	}
}

// decodeDocument decodes JSON or YAML into v. YAML is converted to JSON
// first so both formats share the JSON field names and decoders. Input
// that does not look like JSON is tried as YAML.
func decodeDocument(data []byte, isYAML bool, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return errors.New("empty document")
	}
	if !isYAML && (trimmed[0] == '{' || trimmed[0] == '[') {
		return decodeJSON(trimmed, v)
	}

	var doc any
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert YAML: %w", err)
	}
	return decodeJSON(asJSON, v)
}

func decodeJSON(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// parseSpec decodes a query spec and normalizes its literal values.
func parseSpec(data []byte, isYAML bool) (core.QuerySpec, error) {
	var spec core.QuerySpec
	if err := decodeDocument(data, isYAML, &spec); err != nil {
		return core.QuerySpec{}, fmt.Errorf("failed to parse query spec: %w", err)
	}
	spec.NormalizeValues()
	return spec, nil
}

// readSpec reads and parses the query spec for compile and query.
func readSpec(cmd *cobra.Command, args []string, inline string) (core.QuerySpec, error) {
	data, isYAML, err := readInput(cmd, args, inline)
	if err != nil {
		return core.QuerySpec{}, err
	}
	return parseSpec(data, isYAML)
}
