// Package main provides the entry point for the repair log backend server.
// It wires the database, catalogue cache, capture session store, and HTTP
// routes, then runs until interrupted.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repairlog/internal/config"
	"repairlog/internal/database"
	"repairlog/internal/handlers"
	"repairlog/internal/middleware"
	"repairlog/internal/observability"
	"repairlog/internal/services"
	contextutils "repairlog/internal/utils"
)

// Application bundles everything the server needs so startup and shutdown
// stay testable.
type Application struct {
	cfg    *config.Config
	db     *sql.DB
	cache  *services.CatalogCache
	server *http.Server
	logger *observability.Logger
}

// NewApplication builds the full service graph and HTTP router.
func NewApplication(cfg *config.Config, logger *observability.Logger) (*Application, error) {
	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithConfig(cfg.Database)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to initialize database")
	}

	cache, err := services.NewCatalogCache(cfg, logger)
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to connect catalogue cache")
	}

	catalogService := services.NewCatalogService(db, cache, logger)
	photoService := services.NewPhotoService(db, cfg.MaxPhotoBytes(), logger)
	resultService := services.NewRepairResultService(db, logger)
	eventService := services.NewEventService(db, logger)
	notificationService := services.NewNotificationService(cfg, logger)
	captureService := services.NewCaptureService(resultService, eventService, notificationService, cfg.SessionTTL(), logger)

	schemaLoader, err := middleware.NewSchemaLoader()
	if err != nil {
		return nil, contextutils.WrapError(err, "failed to compile request schemas")
	}

	router := handlers.NewRouter(
		cfg,
		catalogService,
		captureService,
		photoService,
		resultService,
		eventService,
		notificationService,
		schemaLoader,
		logger,
	)

	return &Application{
		cfg:    cfg,
		db:     db,
		cache:  cache,
		logger: logger,
		server: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// Run serves HTTP until the context is cancelled or the listener fails.
func (a *Application) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return contextutils.WrapError(err, "server failed")
	}
}

// Shutdown drains in-flight requests and closes backing connections.
func (a *Application) Shutdown(ctx context.Context) error {
	if err := a.server.Shutdown(ctx); err != nil {
		return contextutils.WrapError(err, "server shutdown failed")
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn(ctx, "Error closing catalogue cache", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := a.db.Close(); err != nil {
		return contextutils.WrapError(err, "database close failed")
	}
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "repairlog-backend")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if tp != nil {
			if sd, ok := tp.(interface{ Shutdown(context.Context) error }); ok {
				if err := sd.Shutdown(shutdownCtx); err != nil {
					logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error(), "provider": "tracer"})
				}
			}
		}
		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error(), "provider": "meter"})
			}
		}
	}()

	logger.Info(ctx, "Starting repair log backend", map[string]interface{}{
		"port":     cfg.Server.Port,
		"logLevel": cfg.Server.LogLevel,
	})

	app, err := NewApplication(cfg, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create application", err, nil)
		os.Exit(1)
	}

	appErr := make(chan error, 1)
	go func() {
		if err := app.Run(ctx); err != nil {
			appErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully", nil)
	case err := <-appErr:
		logger.Error(ctx, "Application failed", err, nil)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err, nil)
		os.Exit(1)
	}

	logger.Info(ctx, "Shutdown completed successfully", nil)
}
