package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewRefreshCommand creates the refresh command.
func NewRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh <[schema.]table>",
		Short: "Re-read one relation's metadata from the server",
		Long: `Re-read one relation's row from the server and merge it into the cache
in place. Derived caches (constraints, indexes) are invalidated; the columns
cache is kept. The relation listing itself is not reloaded.`,
		Args: cobra.ExactArgs(1),
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

			refreshed, err := rel.Schema().Coordinator().Refresh(cmd.Context(), rel)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "refreshed %s %s (id %s)\n",
				refreshed.ObjectKind(), refreshed.Name(), refreshed.ObjectID())
			return nil
		},
	}
}
