package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tables [schema]",
		Short: "List tables, views and materialized views in a schema",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # List relations in the default schema
  metabrowse tables

  # List relations in a named schema
  metabrowse tables analytics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			schema, err := cmdCtx.Database.Schema(cmd.Context(), cmdCtx.SchemaArg(args))
			if err != nil {
				return err
			}
			rels, err := schema.Relations(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list relations: %w", err)
			}

			rows := make([][]string, 0, len(rels))
			for _, rel := range rels {
				rows = append(rows, []string{
					rel.Name(),
					rel.TableTypeName(),
					string(rel.PersistenceKind()),
					yesNo(rel.IsPartition()),
					rel.Description(),
				})
			}
			return renderRows(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat,
				[]string{"name", "type", "persistence", "partition", "description"}, rows)
		},
	}
}
