package cmd

import (
	"fmt"

	"github.com/gameia/engine/internal/config"
	"github.com/gameia/engine/internal/db"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or inspect database migrations",
	}

	migrate.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(database *sqlx.DB, driver string) error {
				return db.RunMigrations(database.DB, driver)
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(database *sqlx.DB, driver string) error {
				return db.MigrateDown(database.DB, driver)
			})
		},
	})

	migrate.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(func(database *sqlx.DB, driver string) error {
				version, err := db.Version(database.DB, driver)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), version)
				return nil
			})
		},
	})

	return migrate
}

func withDB(fn func(database *sqlx.DB, driver string) error) error {
	cfg := config.Load()

	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close(database)

	return fn(database, cfg.DBDriver)
}
