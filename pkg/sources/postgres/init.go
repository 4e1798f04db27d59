// Package postgres provides the PostgreSQL metadata source for metabrowse.
//
// This file registers the source with the source registry.
// Import this package with a blank identifier to register it:
//
//	import _ "github.com/leapstack-labs/metabrowse/pkg/sources/postgres"
package postgres

import (
	"log/slog"

	"github.com/leapstack-labs/metabrowse/pkg/source"
)

func init() {
	source.Register("postgres", func(logger *slog.Logger) source.Source { return New(logger) })
}
