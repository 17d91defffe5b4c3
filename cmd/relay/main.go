package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ciphera/internal/app"
)

func newRootCommand() *cobra.Command {
	var (
		configFile string
		o          app.Overrides
	)
	cmd := &cobra.Command{
		Use:          "relay",
		Short:        "Two-party encrypted chat relay",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(configFile, o)
			if err != nil {
				return err
			}
			w, err := app.NewWire(cfg)
			if err != nil {
				return err
			}
			defer w.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.RunRelay(ctx, w)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "f", "", "path to the relay configuration file (TOML format)")
	cmd.Flags().StringVar(&o.Address, "addr", "", "listen address (default 127.0.0.1:8080)")
	cmd.Flags().StringVar(&o.KeyFile, "key-file", "", "file holding the hex encoded shared key")
	cmd.Flags().StringVar(&o.Suite, "suite", "", "AEAD suite: aes-256-gcm or chacha20-poly1305")
	cmd.Flags().StringVar(&o.LogLevel, "log-level", "", "ERROR, WARNING, NOTICE, INFO or DEBUG")
	cmd.Flags().StringVar(&o.Metrics, "metrics", "", "serve Prometheus metrics on this address")
	return cmd
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
