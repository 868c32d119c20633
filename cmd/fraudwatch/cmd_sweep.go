package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fraudwatch/internal/gateway/app"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one broadcast pass and exit",
	Long: `Selects reports at or above the broadcast threshold that were never
announced, publishes them and marks them broadcasted. Useful from cron when
the server runs with a long BROADCAST_INTERVAL.`,
	RunE: runSweep,
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := app.New(cmd.Context(), cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer func() { _ = a.Close() }()

	res, err := a.SweepOnce(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "candidates=%d published=%d failed=%d\n", res.Candidates, res.Published, res.Failed)
	return nil
}
