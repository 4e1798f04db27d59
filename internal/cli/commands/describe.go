package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/metabrowse/pkg/model"
)

// NewDescribeCommand creates the describe command.
func NewDescribeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <[schema.]table>",
		Short: "Show columns, constraints and indexes of a relation",
		Args:  cobra.ExactArgs(1),
		Example: `  # Describe a table in the default schema
  metabrowse describe orders

  # Describe a schema-qualified table
  metabrowse describe analytics.daily_orders`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			rel, err := resolveRelation(cmd, cmdCtx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			format := cmdCtx.Cfg.OutputFormat

			cols, err := rel.Columns(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load columns: %w", err)
			}
			colRows := make([][]string, 0, len(cols))
			for _, c := range cols {
				colRows = append(colRows, []string{
					strconv.Itoa(c.Position()), c.Name(), c.TypeName(),
					yesNo(c.NotNull()), c.DefaultExpr(), c.Description(),
				})
			}
			fmt.Fprintf(out, "%s %s\n", rel.TableTypeName(), rel.FullyQualifiedName())
			if err := renderRows(out, format,
				[]string{"#", "column", "type", "not null", "default", "description"}, colRows); err != nil {
				return err
			}

			if hc, ok := rel.(model.HasConstraints); ok {
				constraints, err := hc.Constraints(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load constraints: %w", err)
				}
				if len(constraints) > 0 {
					fmt.Fprintln(out, "\nConstraints:")
					conRows := make([][]string, 0, len(constraints))
					for _, con := range constraints {
						conRows = append(conRows, []string{
							con.Name(), string(con.Type()), con.Definition(),
						})
					}
					if err := renderRows(out, format,
						[]string{"name", "type", "definition"}, conRows); err != nil {
						return err
					}
				}
			}

			if hi, ok := rel.(model.HasIndexes); ok {
				indexes, err := hi.Indexes(cmd.Context())
				if err != nil {
					return fmt.Errorf("failed to load indexes: %w", err)
				}
				if len(indexes) > 0 {
					fmt.Fprintln(out, "\nIndexes:")
					idxRows := make([][]string, 0, len(indexes))
					for _, idx := range indexes {
						idxRows = append(idxRows, []string{
							idx.Name(), yesNo(idx.Unique()), yesNo(idx.Primary()), idx.Definition(),
						})
					}
					if err := renderRows(out, format,
						[]string{"name", "unique", "primary", "definition"}, idxRows); err != nil {
						return err
					}
				}
			}

			return nil
		},
	}
}

// resolveRelation finds a relation from a possibly schema-qualified name.
func resolveRelation(cmd *cobra.Command, cmdCtx *CommandContext, ref string) (model.Relation, error) {
	schemaName := cmdCtx.Cfg.Target.DefaultSchema()
	relName := ref
	if parts := strings.SplitN(ref, ".", 2); len(parts) == 2 {
		schemaName, relName = parts[0], parts[1]
	}
	schema, err := cmdCtx.Database.Schema(cmd.Context(), schemaName)
	if err != nil {
		return nil, err
	}
	return schema.Relation(cmd.Context(), relName)
}
