package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/moyoez/shareit-go/session"
)

func newReceiveCmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "receive <code>",
		Short: "Download the file behind a share code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			finish := watch(a.sessions, cmd.ErrOrStderr(), "Downloading "+args[0])
			s, err := a.sessions.Receive(cmd.Context(), session.ReceiveRequest{Code: args[0]})
			finish()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s to %s\n", s.Filename, s.SavedPath)
			return nil
		},
	}
}
