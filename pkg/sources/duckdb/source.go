// Package duckdb provides the DuckDB metadata source for metabrowse.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver

	"github.com/leapstack-labs/metabrowse/pkg/core"
	"github.com/leapstack-labs/metabrowse/pkg/source"
)

// Source implements core.Source against DuckDB's duckdb_* catalog functions.
type Source struct {
	source.BaseSQLSource
}

// New creates a new DuckDB source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		BaseSQLSource: source.BaseSQLSource{Logger: logger},
	}
}

// Connect opens the DuckDB database at cfg.Path.
// Use ":memory:" as the path for an in-memory database.
func (s *Source) Connect(ctx context.Context, cfg source.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	s.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	return nil
}

// ExecuteMetadataQuery lists one scope's rows. Scopes DuckDB has no catalog
// for (roles, tablespaces) list empty.
func (s *Source) ExecuteMetadataQuery(ctx context.Context, scope core.Scope) ([]*core.Record, error) {
	query, args, err := listQuery(scope)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return nil, nil
	}
	return s.QueryRecords(ctx, query, args...)
}

// ExecuteSingleObjectQuery fetches the row of one object by identity.
func (s *Source) ExecuteSingleObjectQuery(ctx context.Context, scope core.Scope, id core.ID) (*core.Record, error) {
	query, args, err := singleQuery(scope, id)
	if err != nil {
		return nil, err
	}
	return s.QueryRecord(ctx, query, args...)
}

// Capabilities returns DuckDB's static capability flags.
func (s *Source) Capabilities() core.ServerCapabilities { return capabilities{} }

type capabilities struct{}

func (capabilities) SupportsTablespaces() bool       { return false }
func (capabilities) SupportsExtraComments() bool     { return false }
func (capabilities) SupportsPartitions() bool        { return false }
func (capabilities) SupportsMaterializedViews() bool { return false }

// Ensure Source implements core.Source.
var _ core.Source = (*Source)(nil)
