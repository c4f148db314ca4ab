// Package commands provides CLI commands for the admin tool
package commands

import (
	"context"
	"database/sql"
	"os"

	"repairlog/internal/database"
	"repairlog/internal/observability"
	contextutils "repairlog/internal/utils"

	"github.com/spf13/cobra"
)

// tables in drop order, dependents first
var allTables = []string{
	"repair_result_photos",
	"repair_result_reasons",
	"repair_result_repair_actions",
	"repair_result_fault_features",
	"repair_results",
	"repair_events",
	"photos",
	"fault_features",
	"faults",
	"reasons_not_repaired",
	"repair_actions",
	"features",
	"products",
	"schema_migrations",
}

// DatabaseCommands returns the database management commands
func DatabaseCommands(dbManager *database.Manager, logger *observability.Logger, db *sql.DB, databaseURL string) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the repair log backend.

Available commands:
  migrate   - Apply the schema and pending migrations
  reset     - Drop all tables and re-apply the schema
  stats     - Show database statistics`,
	}

	dbCmd.AddCommand(migrateCmd(dbManager, logger, db, databaseURL))
	dbCmd.AddCommand(resetCmd(dbManager, logger, db, databaseURL))
	dbCmd.AddCommand(statsCmd(logger, db))

	return dbCmd
}

func migrateCmd(dbManager *database.Manager, logger *observability.Logger, db *sql.DB, databaseURL string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the schema and pending migrations",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			logger.Info(ctx, "Diagnostic info", map[string]interface{}{"config_file": os.Getenv("REPAIRLOG_CONFIG_FILE"), "database": getDatabaseInfo(db)})

			if err := dbManager.RunMigrations(db, databaseURL); err != nil {
				logger.Error(ctx, "Migration failed", err, map[string]interface{}{"db_url": maskDatabaseURL(databaseURL)})
				return contextutils.WrapError(err, "migration failed")
			}

			logger.Info(ctx, "Migrations applied successfully", map[string]interface{}{})
			return nil
		},
	}
}

func resetCmd(dbManager *database.Manager, logger *observability.Logger, db *sql.DB, databaseURL string) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop all tables and re-apply the schema",
		Long: `Drop all repair log tables and re-apply the schema from scratch.

This destroys all stored data. Requires the --force flag.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			if !force {
				return contextutils.ErrorWithContextf("refusing to reset without --force")
			}

			logger.Info(ctx, "Resetting database", map[string]interface{}{"database": getDatabaseInfo(db)})

			for _, table := range allTables {
				if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
					logger.Error(ctx, "Failed to drop table", err, map[string]interface{}{"table": table})
					return contextutils.WrapErrorf(err, "failed to drop table %s", table)
				}
			}

			if err := dbManager.RunMigrations(db, databaseURL); err != nil {
				return contextutils.WrapError(err, "failed to re-apply schema")
			}

			logger.Info(ctx, "Database reset completed", map[string]interface{}{})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm that all data should be destroyed")

	return cmd
}

func statsCmd(logger *observability.Logger, db *sql.DB) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show database statistics",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx := context.Background()

			logger.Info(ctx, "Diagnostic info", map[string]interface{}{"config_file": os.Getenv("REPAIRLOG_CONFIG_FILE"), "database": getDatabaseInfo(db)})

			counts := map[string]interface{}{}
			for _, table := range []string{"products", "features", "faults", "repair_actions", "reasons_not_repaired", "photos", "repair_results", "repair_events"} {
				var n int
				if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
					logger.Error(ctx, "Failed to count table", err, map[string]interface{}{"table": table})
					return contextutils.WrapErrorf(err, "failed to count %s", table)
				}
				counts[table] = n
			}

			logger.Info(ctx, "Database statistics", counts)
			return nil
		},
	}
}
