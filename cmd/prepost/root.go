package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/mind-engage/prepost/internal/assessment"
	"github.com/mind-engage/prepost/internal/config"
	"github.com/mind-engage/prepost/internal/db"
)

var rootCmd = &cobra.Command{
	Use:          "prepost",
	Short:        "Pre-test / post-test assessment service",
	Long:         "prepost runs the pre/post assessment API and offers offline admin tasks against the same database.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("db-driver", "", "Database driver: sqlite|postgres (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("db-dsn", "", "Database DSN (overrides DB_DSN)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
}

// loadConfig reads .env and the environment, then applies the
// persistent flags on top.
func loadConfig(cmd *cobra.Command) config.Config {
	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("db-driver"); v != "" {
		cfg.DBDriver = v
	}
	if v, _ := cmd.Flags().GetString("db-dsn"); v != "" {
		cfg.DBDSN = v
	}
	return cfg
}

func openStore(ctx context.Context, cfg config.Config) (*sql.DB, *assessment.SQLStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("db open failed: %w", err)
	}
	return dbh, assessment.NewSQLStore(dbh, cfg.DBDriver), nil
}
