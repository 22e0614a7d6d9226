package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncOnceCmd = &cobra.Command{
	Use:   "sync-once",
	Short: "Run a single sync cycle and print its report as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := loadStore()
		if err != nil {
			return err
		}
		defer db.Close()

		scheduler, err := newScheduler(cfg, db, logger)
		if err != nil {
			return err
		}
		report := scheduler.RunCycle(cmd.Context(), time.Now())

		jsonData, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report to JSON: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(jsonData))
		return report.Err
	},
}

func init() {
	rootCmd.AddCommand(syncOnceCmd)
}
