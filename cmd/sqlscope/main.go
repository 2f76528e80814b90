// Package main provides the sqlscope CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/leapstack-labs/sqlscope/internal/cli"

	_ "github.com/leapstack-labs/sqlscope/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/sqlscope/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/sqlscope/pkg/adapters/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
