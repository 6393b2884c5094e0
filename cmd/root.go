package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/resale-group/backoffice-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "backoffice",
	Short:        "Dropshipping back-office order matcher",
	Long:         "Matches storefront sales to supplier purchase orders, tracks committed matches, and reports margins.",
	SilenceUsage: true,

	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// setup loads configuration and installs the global logger before any
// subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "cli: load config")
	}
	cfg = c

	return eris.Wrap(config.InitLogger(cfg.Log), "cli: init logger")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
