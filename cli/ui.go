package cli

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/moyoez/shareit-go/api"
	"github.com/moyoez/shareit-go/notify"
	"github.com/moyoez/shareit-go/tool"
)

func newUICmd(current func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Serve the local control API for the browser UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			hub := notify.NewHub()
			sinks := []notify.Sink{hub}
			if a.cfg.NotifySocket != "" {
				sinks = append(sinks, &notify.SocketSink{Path: a.cfg.NotifySocket})
			}
			events, stop := a.sessions.Subscribe()
			defer stop()
			go notify.NewRelay(a.cfg.ProgressPerSecond, sinks...).Run(ctx, events)

			srv := api.NewServer(api.Options{
				Listen:   a.cfg.UIListen,
				Sessions: a.sessions,
				Prober:   a.prober,
				Hub:      hub,
				Defaults: a.cfg.Share,
			})
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			tool.DefaultLogger.Info("Shutting down local API")
			shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancelShutdown()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
