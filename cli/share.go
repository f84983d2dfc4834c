package cli

import (
	"fmt"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/moyoez/shareit-go/session"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/types"
)

func newShareCmd(current func() *app) *cobra.Command {
	var (
		password string
		expiry   int
		oneTime  bool
		noQR     bool
	)
	cmd := &cobra.Command{
		Use:   "share <file> [file...]",
		Short: "Upload a file and print its share code",
		Long: `Upload a file to the transfer server and print the code the receiver needs.

Only the first file is uploaded; every selected file is recorded in history.
--password, --expiry and --one-time are kept with the session but the server
does not enforce them.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			files := make([]types.FileRef, 0, len(args))
			for _, path := range args {
				ref, err := tool.FileRefFromPath(path)
				if err != nil {
					return err
				}
				files = append(files, ref)
			}

			opts := types.ShareOptions{
				Password:      password,
				ExpiryMinutes: a.cfg.Share.ExpiryMinutes,
				OneTime:       a.cfg.Share.OneTime,
			}
			if cmd.Flags().Changed("expiry") {
				opts.ExpiryMinutes = expiry
			}
			if cmd.Flags().Changed("one-time") {
				opts.OneTime = oneTime
			}

			out := cmd.OutOrStdout()
			finish := watch(a.sessions, cmd.ErrOrStderr(), "Uploading "+files[0].Name)
			s, err := a.sessions.Share(cmd.Context(), session.ShareRequest{Files: files, Options: opts})
			finish()
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Share code: %s\n", s.Code)
			if !noQR {
				qr, err := qrcode.New(s.Code, qrcode.Medium)
				if err != nil {
					tool.DefaultLogger.Warnf("Failed to render QR code: %v", err)
					return nil
				}
				fmt.Fprint(out, qr.ToSmallString(false))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password to note with the share (not enforced)")
	cmd.Flags().IntVar(&expiry, "expiry", 0, "Expiry in minutes to note with the share (not enforced)")
	cmd.Flags().BoolVar(&oneTime, "one-time", false, "Mark the share as single download (not enforced)")
	cmd.Flags().BoolVar(&noQR, "no-qr", false, "Do not print the share code as a QR code")
	return cmd
}
