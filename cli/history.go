package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(current func() *app) *cobra.Command {
	var clearAll bool
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			out := cmd.OutOrStdout()
			if clearAll {
				if err := a.sessions.ClearHistory(cmd.Context()); err != nil {
					return fmt.Errorf("failed to clear history: %w", err)
				}
				fmt.Fprintln(out, "History cleared")
				return nil
			}

			entries := a.sessions.History(cmd.Context())
			if len(entries) == 0 {
				fmt.Fprintln(out, "No transfers yet")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tTYPE\tNAME")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Time, e.Type, e.Name)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Forget all recorded transfers")
	return cmd
}
