package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Simplici0/advance/internal/db"
	"github.com/Simplici0/advance/internal/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		database, err := db.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer database.Close() //nolint:errcheck

		if err := migrations.Up(ctx, database, cfg.MigrationsDir); err != nil {
			return err
		}

		version, err := migrations.Version(ctx, database)
		if err != nil {
			return err
		}
		zap.L().Info("migrations applied", zap.String("db_path", cfg.DBPath), zap.Int64("version", version))
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
