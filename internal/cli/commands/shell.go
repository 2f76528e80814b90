package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/pkg/adapter"
	"github.com/leapstack-labs/sqlscope/pkg/core"
)

const (
	shellPrompt     = "sqlscope> "
	shellContPrompt = "      ...> "
)

// NewShellCommand creates the interactive shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive query shell",
		Long: `Start an interactive shell against the configured database.

Type a JSON query spec (it may span several lines) to compile and run it,
or a dot-command such as .tables or .analyze. Type .help for the list.`,
		Example: `  sqlscope shell --database shop.db

  sqlscope> {"table": "orders", "where": {"status": "paid"}, "limit": 5}`,
		Args: cobra.NoArgs,
		RunE: runShell,
	}
}

type shell struct {
	cc  *CommandContext
	src adapter.Adapter
	out io.Writer
}

func runShell(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := cmd.Context()
	src, err := cc.OpenSource(ctx)
	if err != nil {
		return err
	}
	defer closeSource(cc, src)

	sh := &shell{cc: cc, src: src, out: cmd.OutOrStdout()}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     shellHistoryFile(cc.Cfg.StatePath),
		AutoComplete:    sh.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	database := cc.Cfg.Database
	if database == "" {
		database = ":memory:"
	}
	_, _ = fmt.Fprintf(sh.out, "sqlscope shell (%s: %s)\n", src.DialectName(), database)
	_, _ = fmt.Fprintln(sh.out, "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(sh.out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(shellPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := sh.dotCommand(ctx, line); quit {
				break
			}
			continue
		}

		// Accumulate until the input is a complete JSON document.
		buf.WriteString(line)
		buf.WriteByte('\n')
		if !json.Valid([]byte(buf.String())) {
			rl.SetPrompt(shellContPrompt)
			continue
		}
		rl.SetPrompt(shellPrompt)

		input := buf.String()
		buf.Reset()
		if err := sh.runSpec(ctx, input); err != nil {
			cc.Renderer.Error(err.Error())
		}
		_, _ = fmt.Fprintln(sh.out)
	}

	return nil
}

func shellHistoryFile(statePath string) string {
	if statePath == "" || statePath == ":memory:" {
		return ""
	}
	return filepath.Join(filepath.Dir(statePath), "shell_history")
}

func (sh *shell) runSpec(ctx context.Context, input string) error {
	spec, err := parseSpec([]byte(input), false)
	if err != nil {
		return err
	}
	result, err := sh.cc.Engine.RunQuery(ctx, sh.src, spec)
	if err != nil {
		return err
	}
	return renderQueryResult(sh.cc.Renderer, result, spec.Columns, "")
}

// dotCommand handles a dot-command and reports whether the shell should exit.
func (sh *shell) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	r := sh.cc.Renderer

	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printShellHelp(sh.out)

	case ".tables":
		schema, err := sh.src.Schema(ctx)
		if err != nil {
			r.Error(err.Error())
			return false
		}
		for _, name := range schema.Names() {
			_, _ = fmt.Fprintln(sh.out, name)
		}

	case ".schema":
		schema, err := sh.src.Schema(ctx)
		if err != nil {
			r.Error(err.Error())
			return false
		}
		if len(parts) > 1 {
			if schema, err = filterSchema(schema, parts[1:]); err != nil {
				r.Error(err.Error())
				return false
			}
		}
		if err := renderSchema(r, schema); err != nil {
			r.Error(err.Error())
		}

	case ".analyze", ".insights":
		kind := core.AnalysisNormalization
		if strings.EqualFold(parts[0], ".insights") {
			kind = core.AnalysisInsights
		}
		limit := sampleSize(sh.cc, kind)
		if len(parts) > 1 {
			n, err := strconv.Atoi(parts[1])
			if err != nil || n <= 0 {
				r.Error(fmt.Sprintf("invalid sample size %q", parts[1]))
				return false
			}
			limit = n
		}
		report, err := sh.cc.Engine.AnalyzeSource(ctx, sh.src, kind, limit)
		if err != nil {
			r.Error(err.Error())
			return false
		}
		if err := renderReport(r, report); err != nil {
			r.Error(err.Error())
		}

	case ".clear":
		_, _ = fmt.Fprint(sh.out, "\033[H\033[2J")

	default:
		r.Error(fmt.Sprintf("unknown command: %s (type .help for commands)", parts[0]))
	}
	return false
}

func printShellHelp(w io.Writer) {
	help := `
Commands:
  .help              Show this help message
  .tables            List tables
  .schema [table...] Show columns, keys and defaults
  .analyze [n]       Normalization report (n rows per table)
  .insights [n]      Data insights report (n rows per table)
  .clear             Clear the screen
  .quit / .exit      Exit the shell

Tips:
  - Any other input is a JSON query spec, e.g. {"table": "orders"}
  - A spec may span several lines; it runs once the JSON is complete
  - Tab completes dot-commands and table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer offers dot-commands, with table names after .schema.
func (sh *shell) completer(ctx context.Context) *readline.PrefixCompleter {
	var tables []readline.PrefixCompleterInterface
	if schema, err := sh.src.Schema(ctx); err == nil {
		for _, name := range schema.Names() {
			tables = append(tables, readline.PcItem(name))
		}
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tables...),
		readline.PcItem(".analyze"),
		readline.PcItem(".insights"),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
