package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Simplici0/advance/internal/db"
	"github.com/Simplici0/advance/internal/seed"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the configured default fee schedule if missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		schedule, err := cfg.Fees.Schedule()
		if err != nil {
			return err
		}

		database, err := db.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck

		stats, err := seed.Run(ctx, database, seed.Config{FeeScheduleName: cfg.Fees.Name, FeeSchedule: schedule})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seed: %d inserted, %d differing from configuration\n", stats.Inserts, stats.Mismatches)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
