package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	reportrepo "fraudwatch/internal/gateway/repository/report"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending report schema migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required for migrate")
	}
	results, err := reportrepo.MigrateDSN(cmd.Context(), cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	for _, r := range results {
		logger.Info("migration applied", "version", r.Source.Version, "duration", r.Duration.String())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", len(results))
	return nil
}
