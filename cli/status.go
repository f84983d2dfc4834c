package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moyoez/shareit-go/transfer"
)

func newStatusCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the transfer server is reachable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			report := a.prober.Check(cmd.Context())
			if !report.IsRunning {
				return transfer.ServerUnavailable(report.Error)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Server %s is running\n", a.cfg.ServerURL)
			return nil
		},
	}
}
