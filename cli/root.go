// Package cli provides the command-line interface for shareit.
package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/moyoez/shareit-go/history"
	"github.com/moyoez/shareit-go/session"
	"github.com/moyoez/shareit-go/tool"
	"github.com/moyoez/shareit-go/transfer"
	"github.com/moyoez/shareit-go/types"
)

var Version = "v0.1.0-dev"

// app is what every subcommand works with once flags and config are resolved.
type app struct {
	cfg      types.AppConfig
	store    history.Store
	prober   *transfer.Prober
	sessions *session.Controller
}

func (a *app) close() {
	if c, ok := a.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			tool.DefaultLogger.Warnf("Failed to close history store: %v", err)
		}
	}
}

func newApp(flags types.Config) (*app, error) {
	cfg, err := tool.LoadConfig(flags.UseConfigPath)
	if err != nil {
		return nil, err
	}
	tool.ApplyFlags(&cfg, flags)

	store, err := history.Open(cfg.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	prober := transfer.NewProber(cfg.ServerURL, time.Duration(cfg.ProbeTimeoutMs)*time.Millisecond).
		WithPing(cfg.PingOnProbeFailure)
	client := transfer.NewClient(cfg.ServerURL, tool.NewHTTPClient(time.Duration(cfg.TransferTimeoutSec)*time.Second))

	return &app{
		cfg:    cfg,
		store:  store,
		prober: prober,
		sessions: session.New(session.Options{
			Prober:         prober,
			Client:         client,
			History:        store,
			DownloadFolder: cfg.DownloadFolder,
		}),
	}, nil
}

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	var (
		flags types.Config
		a     *app
	)
	current := func() *app { return a }

	rootCmd := &cobra.Command{
		Use:   "shareit",
		Short: "Share files through a port-code transfer server",
		Long: `shareit uploads a file to a transfer server and prints the code it is
reachable under, or downloads the file behind a code into the download folder.

The server answers GET / when running, POST /upload with {"port": <code>}
and GET /download/<code> with the file.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			tool.InitLogger()
			tool.SetLogMode(flags.Log)
			var err error
			a, err = newApp(flags)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a != nil {
				a.close()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&flags.UseConfigPath, "config", "c", "", "Configuration file path (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flags.Log, "log", "", "Log mode: dev, prod or none")
	rootCmd.PersistentFlags().StringVar(&flags.UseServerURL, "server", "", "Transfer server base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flags.UseDownloadFolder, "download-folder", "", "Folder for received files (overrides config)")

	rootCmd.AddCommand(
		newShareCmd(current),
		newReceiveCmd(current),
		newHistoryCmd(current),
		newStatusCmd(current),
		newUICmd(current),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
