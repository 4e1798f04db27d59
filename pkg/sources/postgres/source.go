// Package postgres provides the PostgreSQL metadata source for metabrowse.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/metabrowse/pkg/core"
	"github.com/leapstack-labs/metabrowse/pkg/source"
)

// Source implements core.Source against the PostgreSQL system catalogs.
type Source struct {
	source.BaseSQLSource
	caps capabilities
}

// New creates a new PostgreSQL source instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Source {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Source{
		BaseSQLSource: source.BaseSQLSource{Logger: logger},
	}
}

// Connect establishes a connection to PostgreSQL and detects the server
// version for capability gating.
func (s *Source) Connect(ctx context.Context, cfg source.Config) error {
	dsn := buildDSN(cfg)

	s.Logger.Debug("connecting to postgres",
		slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	s.DB = db
	s.Cfg = cfg
	s.caps = detectCapabilities(ctx, db)
	return nil
}

// buildDSN constructs a PostgreSQL connection string.
func buildDSN(cfg source.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if cfg.Options != nil {
		if mode, ok := cfg.Options["sslmode"]; ok {
			sslmode = mode
		}
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}

	return dsn
}

// ExecuteMetadataQuery lists one scope's rows from the system catalogs.
func (s *Source) ExecuteMetadataQuery(ctx context.Context, scope core.Scope) ([]*core.Record, error) {
	query, args, err := s.listQuery(scope)
	if err != nil {
		return nil, err
	}
	return s.QueryRecords(ctx, query, args...)
}

// ExecuteSingleObjectQuery fetches the row of one object by identity.
// Returns core.ErrNoRow when the object no longer exists.
func (s *Source) ExecuteSingleObjectQuery(ctx context.Context, scope core.Scope, id core.ID) (*core.Record, error) {
	query, args, err := s.singleQuery(scope, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.QueryRecord(ctx, query, args...)
	if errors.Is(err, core.ErrNoRow) {
		return nil, core.ErrNoRow
	}
	return rec, err
}

// Capabilities returns the detected server capability flags.
func (s *Source) Capabilities() core.ServerCapabilities { return s.caps }

// capabilities gates version-dependent catalog features.
type capabilities struct {
	versionNum int
}

// detectCapabilities reads server_version_num; a failure leaves the most
// conservative flags.
func detectCapabilities(ctx context.Context, db *sql.DB) capabilities {
	var raw string
	if err := db.QueryRowContext(ctx, "SHOW server_version_num").Scan(&raw); err != nil {
		return capabilities{}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return capabilities{}
	}
	return capabilities{versionNum: n}
}

func (c capabilities) SupportsTablespaces() bool       { return true }
func (c capabilities) SupportsExtraComments() bool     { return true }
func (c capabilities) SupportsPartitions() bool        { return c.versionNum >= 100000 }
func (c capabilities) SupportsMaterializedViews() bool { return c.versionNum >= 90300 }

// Ensure Source implements core.Source.
var _ core.Source = (*Source)(nil)
