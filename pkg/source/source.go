// Package source provides the metadata source contract and shared plumbing
// for concrete source implementations.
//
// A source is the cache layer's only I/O boundary: it translates listing
// scopes into catalog queries for one server type and normalizes the rows
// into core.Records. Concrete implementations live in pkg/sources/
// subdirectories and register themselves by name.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Type aliases so source implementations and their callers share one
// vocabulary with pkg/core.
type (
	// Config is an alias for core.SourceConfig.
	Config = core.SourceConfig

	// Source is an alias for core.Source.
	Source = core.Source

	// Record is an alias for core.Record.
	Record = core.Record
)

// BaseSQLSource provides common database/sql functionality for sources.
// Embed this struct in concrete implementations to get standard Close and
// query plumbing.
type BaseSQLSource struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLSource) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing metadata source connection")
		}
		return b.DB.Close()
	}
	return nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLSource) IsConnected() bool {
	return b.DB != nil
}

// QueryRecords runs a catalog query and normalizes every row into a Record
// keyed by the query's column names. Row order is preserved.
func (b *BaseSQLSource) QueryRecords(ctx context.Context, query string, args ...any) ([]*core.Record, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := b.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute metadata query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var records []*core.Record
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan metadata row: %w", err)
		}

		rec := core.NewRecord(nil)
		for i, col := range cols {
			val := values[i]
			if bs, ok := val.([]byte); ok {
				val = string(bs)
			}
			rec.Set(col, val)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating metadata rows: %w", err)
	}
	return records, nil
}

// QueryRecord runs a single-object catalog query. Returns core.ErrNoRow
// when the query matches nothing.
func (b *BaseSQLSource) QueryRecord(ctx context.Context, query string, args ...any) (*core.Record, error) {
	records, err := b.QueryRecords(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, core.ErrNoRow
	}
	return records[0], nil
}
