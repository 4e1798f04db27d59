// Package main provides the CLI entrypoint for metabrowse.
package main

import (
	"os"

	"github.com/leapstack-labs/metabrowse/internal/cli"

	// Register metadata sources.
	_ "github.com/leapstack-labs/metabrowse/pkg/sources/duckdb"
	_ "github.com/leapstack-labs/metabrowse/pkg/sources/postgres"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
