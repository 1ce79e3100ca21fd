package main

import (
	"fmt"
	"os"

	"event-site/internal/config"
	"event-site/internal/data"
	"event-site/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "siteadmin",
	Short: "Maintenance tasks for the events site",
	Long: `siteadmin applies database migrations, manages administrator
accounts and prunes the cache using the same configuration as the server.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createAdminCmd)
	rootCmd.AddCommand(setPasswordCmd)
	rootCmd.AddCommand(pruneCacheCmd)
}

// env is what every subcommand needs: the configuration, a logger and an
// open, migrated database.
type env struct {
	cfg *config.Config
	log logger.Logger
	db  *sqlx.DB
}

func openEnv() (*env, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log := logger.New(cfg.Log, os.Stderr)

	db, err := data.NewDB(cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := data.ApplyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &env{cfg: cfg, log: log, db: db}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}
