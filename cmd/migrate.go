package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dtroode/passkeeper-server/database"
	"github.com/dtroode/passkeeper-server/internal/config"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		migrationCmd("up", "Apply all pending migrations", database.Migrate),
		migrationCmd("down", "Revert the most recent migration", database.Rollback),
		migrationCmd("status", "Print the state of every migration", database.Status),
	)

	return cmd
}

func migrationCmd(use, short string, run func(ctx context.Context, dsn string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
			defer stop()

			cfg, err := config.NewConfig()
			if err != nil {
				return err
			}

			if err := run(ctx, cfg.Database.DSN); err != nil {
				return fmt.Errorf("migrate %s: %w", use, err)
			}
			return nil
		},
	}
}
