package commands

import (
	"github.com/spf13/cobra"

	"ciphera/internal/app"
	"ciphera/internal/config"
)

var (
	configFile string
	overrides  app.Overrides
	cfg        *config.Config
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "ciphera",
		Short:        "Encrypted two-party chat client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = app.LoadConfig(configFile, overrides)
			return err
		},
	}

	root.PersistentFlags().StringVarP(&configFile, "config", "f", "", "configuration file (TOML format)")
	root.PersistentFlags().StringVar(&overrides.Address, "relay", "", "relay address (default 127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&overrides.KeyFile, "key-file", "", "file holding the hex encoded shared key")
	root.PersistentFlags().StringVar(&overrides.Suite, "suite", "", "AEAD suite: aes-256-gcm or chacha20-poly1305")
	root.PersistentFlags().StringVar(&overrides.LogLevel, "log-level", "", "ERROR, WARNING, NOTICE, INFO or DEBUG")

	root.AddCommand(keygenCmd(), fingerprintCmd(), chatCmd())
	return root
}
