package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// NewSchemasCommand creates the schemas command.
func NewSchemasCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List schemas in the connected database",
		Example: `  # List all schemas
  metabrowse schemas

  # As JSON
  metabrowse schemas -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			schemas, err := cmdCtx.Database.Schemas(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list schemas: %w", err)
			}

			rows := make([][]string, 0, len(schemas))
			for _, s := range schemas {
				owner := ""
				if r, err := s.Owner(cmd.Context()); err == nil {
					owner = r.Name()
				} else if !core.IsNotFound(err) {
					return err
				}
				rows = append(rows, []string{s.Name(), owner, s.Description()})
			}
			return renderRows(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat,
				[]string{"schema", "owner", "description"}, rows)
		},
	}
}
