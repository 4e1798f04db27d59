// Package commands implements the metabrowse subcommands.
package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metabrowse/internal/cli/config"
	"github.com/leapstack-labs/metabrowse/pkg/model"
	"github.com/leapstack-labs/metabrowse/pkg/source"
)

type configKey struct{}
type loggerKey struct{}

// WithConfig stores the loaded config in the context.
func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// WithLogger stores the CLI logger in the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// CommandContext bundles what every browsing command needs: the resolved
// config, a connected source, and the database container node over it.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Source   source.Source
	Database *model.Database
}

// NewCommandContext loads config from the command context, connects the
// configured source and wraps it in a Database node. The returned cleanup
// closes the connection.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg, ok := cmd.Context().Value(configKey{}).(*config.Config)
	if !ok || cfg == nil {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}
	logger, _ := cmd.Context().Value(loggerKey{}).(*slog.Logger)
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if err := cfg.Target.Validate(); err != nil {
		return nil, nil, err
	}

	src, err := source.NewSource(cfg.Target.ToSourceConfig(), logger)
	if err != nil {
		return nil, nil, err
	}
	if err := src.Connect(cmd.Context(), cfg.Target.ToSourceConfig()); err != nil {
		return nil, nil, fmt.Errorf("failed to connect: %w", err)
	}

	dbName := cfg.Target.Database
	if dbName == "" {
		dbName = cfg.Target.Path
	}
	db := model.NewDatabase(dbName, src, logger)

	cleanup := func() { _ = src.Close() }
	return &CommandContext{Cfg: cfg, Logger: logger, Source: src, Database: db}, cleanup, nil
}

// SchemaArg resolves the schema to browse: the first positional argument if
// present, otherwise the configured default.
func (c *CommandContext) SchemaArg(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return c.Cfg.Target.DefaultSchema()
}
