package main

import (
	"fmt"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"

	"github.com/johnquangdev/speech-insights/internal/infrastructure/database"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(newMigrateDirectionCommand(ctx, "up", "Apply all pending migrations", migrate.Up))
	cmd.AddCommand(newMigrateDirectionCommand(ctx, "down", "Roll back all migrations", migrate.Down))
	cmd.AddCommand(newMigrateStatusCommand(ctx))
	return cmd
}

func newMigrateDirectionCommand(ctx *commandContext, use, short string, direction migrate.MigrationDirection) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			db, err := database.NewDB(cfg)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			n, err := database.Migrate(db, cfg.Database.Driver, direction)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) %s\n", n, use)
			return nil
		},
	}
}

func newMigrateStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.config()
			if err != nil {
				return err
			}
			if cfg.Database.Driver == "sqlite" {
				fmt.Fprintln(cmd.OutOrStdout(), "SQLite schema is managed by auto-migration")
				return nil
			}

			db, err := database.NewDB(cfg)
			if err != nil {
				return err
			}
			defer database.CloseDB(db)

			records, err := database.MigrationStatus(db)
			if err != nil {
				return err
			}
			embedded, err := database.EmbeddedMigrations()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Migration", "Applied"},
				migrationRows(embedded, records),
				nil, 0,
			))
			return nil
		},
	}
}

// migrationRows lists every embedded migration with its applied time, or "pending"
func migrationRows(embedded []string, records []*migrate.MigrationRecord) [][]string {
	applied := make(map[string]string, len(records))
	for _, r := range records {
		applied[r.Id] = r.AppliedAt.Format("2006-01-02 15:04:05")
	}

	rows := make([][]string, 0, len(embedded))
	for _, id := range embedded {
		at, ok := applied[id]
		if !ok {
			at = "pending"
		}
		rows = append(rows, []string{id, at})
	}
	return rows
}
