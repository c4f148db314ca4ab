// Package main provides the main entry point for the repair log admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"repairlog/cmd/adm/commands"
	"repairlog/internal/config"
	"repairlog/internal/database"
	"repairlog/internal/observability"
	"repairlog/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	if os.Getenv("REPAIRLOG_CONFIG_FILE") == "" {
		defaultPaths := []string{
			"../config.yaml",
			"../../config.yaml",
			"config.yaml",
		}

		for _, path := range defaultPaths {
			if _, err := os.Stat(path); err == nil {
				if err := os.Setenv("REPAIRLOG_CONFIG_FILE", path); err != nil {
					fmt.Fprintf(os.Stderr, "Failed to set REPAIRLOG_CONFIG_FILE environment variable: %v\n", err)
					os.Exit(1)
				}
				break
			}
		}
	}

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Quiet logging and no telemetry exporters for the CLI
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "repairlog-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{"db_url": cfg.Database.URL})
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn(ctx, "Warning: failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	catalogService := services.NewCatalogService(db, nil, logger)
	resultService := services.NewRepairResultService(db, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Repair Log Administration Tool",
		Long: `Repair Log Administration Tool

A CLI tool for administering the repair log backend.
Provides commands for database migrations, catalogue seeding, and
inspecting stored repair results.`,

		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.DatabaseCommands(dbManager, logger, db, cfg.Database.URL))
	rootCmd.AddCommand(commands.SeedCommands(catalogService, logger))
	rootCmd.AddCommand(commands.ResultsCommands(resultService, logger))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
