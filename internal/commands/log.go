package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/hubtab/internal/activity"
	"github.com/cleared-dev/hubtab/internal/render"
)

func newLogCommand(g *globals) *cobra.Command {
	var f activity.Filter

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show the activity log with the commit each change landed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := g.open(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			entries, err := activity.Open(e.root).Entries(f)
			if err != nil {
				return err
			}
			return render.ActivityTable(cmd.OutOrStdout(), entries)
		},
	}

	cmd.Flags().StringVar(&f.Action, "action", "", "only this action (borrow, repay, transfer, settle, undo, import)")
	cmd.Flags().IntVarP(&f.Last, "last", "n", 20, "show the newest n entries (0 = all)")
	return cmd
}
