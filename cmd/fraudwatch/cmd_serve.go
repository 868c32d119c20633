package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudwatch/internal/gateway/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat, channel and media endpoints with the broadcast sweeper",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	logger.Info("starting fraudwatch", "version", version, "env", cfg.Env, "addr", cfg.Port)

	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}()
	return a.Run(cmd.Context())
}
