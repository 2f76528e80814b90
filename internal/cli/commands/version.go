package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlscope/pkg/adapter"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display the sqlscope version and the registered database adapters.`,
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "sqlscope v%s\n", strings.TrimPrefix(version, "v"))
			_, _ = fmt.Fprintln(w, "Query compiler, normalization analyzer and profiler")

			names := adapter.ListAdapters()
			if len(names) == 0 {
				_, _ = fmt.Fprintln(w, "adapters: none")
				return
			}
			_, _ = fmt.Fprintf(w, "adapters: %s\n", strings.Join(names, ", "))
		},
	}
}
