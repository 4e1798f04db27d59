package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewPrefetchCommand creates the prefetch command.
func NewPrefetchCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "prefetch [schema]",
		Short: "Warm the column cache for every relation in a schema",
		Long: `Load the column listings of every relation in the schema concurrently.
Loads for different relations run in parallel; each relation's listing is
queried exactly once no matter how many navigations later hit it.`,
		Args: cobra.MaximumNArgs(1),
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

			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(workers)
			counts := make([]int, len(rels))
			for i, rel := range rels {
				g.Go(func() error {
					cols, err := rel.Columns(ctx)
					if err != nil {
						return fmt.Errorf("%s: %w", rel.FullyQualifiedName(), err)
					}
					counts[i] = len(cols)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			rows := make([][]string, 0, len(rels))
			total := 0
			for i, rel := range rels {
				rows = append(rows, []string{rel.Name(), strconv.Itoa(counts[i])})
				total += counts[i]
			}
			if err := renderRows(cmd.OutOrStdout(), cmdCtx.Cfg.OutputFormat,
				[]string{"relation", "columns"}, rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cached %d columns across %d relations\n", total, len(rels))
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Maximum concurrent column loads")
	return cmd
}
