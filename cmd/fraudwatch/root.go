package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"fraudwatch/internal/gateway/app"
	"fraudwatch/internal/gateway/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var portFlag string

var rootCmd = &cobra.Command{
	Use:   "fraudwatch",
	Short: "Community scam-report intake and broadcast service",
	Long: "fraudwatch collects scam reports over a chat websocket, verifies and\n" +
		"deduplicates them with an AI model, and announces widely reported scams\n" +
		"on a public channel.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "listen address, overrides PORT")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.Version = version
}

// loadConfig reads configuration and builds the logger every subcommand uses.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if portFlag != "" {
		cfg.Port = config.NormalizePort(portFlag)
	}
	logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
	return cfg, logger, nil
}
