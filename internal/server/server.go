// Package server provides the main server initialization and run logic.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shepherd-church/shepherd/internal/access"
	"github.com/shepherd-church/shepherd/internal/api"
	"github.com/shepherd-church/shepherd/internal/api/handlers"
	"github.com/shepherd-church/shepherd/internal/config"
	"github.com/shepherd-church/shepherd/internal/db"
	"github.com/shepherd-church/shepherd/internal/logger"
	"github.com/shepherd-church/shepherd/internal/logstream"
	"github.com/shepherd-church/shepherd/internal/queue"
	"github.com/shepherd-church/shepherd/internal/scheduler"
	"github.com/shepherd-church/shepherd/internal/service"
	"github.com/shepherd-church/shepherd/internal/worker"
	"gorm.io/gorm"
)

// Config holds the server configuration options.
type Config struct {
	Port    int    // Port to run the server on (0 = use config default)
	Mode    string // Run mode: server, worker, or both
	Version string // Version string to report
}

// Run starts the server with the given configuration and blocks until the context is canceled.
func Run(ctx context.Context, cfg Config) error {
	// Set version in handlers
	if cfg.Version != "" {
		handlers.Version = cfg.Version
	}

	// Load configuration
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Override port from CLI flag if provided
	if cfg.Port != 0 {
		appCfg.Server.Port = cfg.Port
	}

	// Initialize logger
	logger.Init(appCfg.Log.Format, appCfg.Log.Level)
	slog.Info("Starting Shepherd", "version", cfg.Version, "mode", appCfg.Server.Mode)

	mode := cfg.Mode
	if mode == "" {
		mode = "both"
	}
	runServer := mode == "server" || mode == "both"
	runWorker := mode == "worker" || mode == "both"
	if !runServer && !runWorker {
		return fmt.Errorf("invalid mode %q: valid modes are server, worker, both", mode)
	}

	// Propagate app log level to database if not explicitly set
	if appCfg.Database.LogLevel == "" {
		appCfg.Database.LogLevel = appCfg.Log.Level
	}

	database, err := setupDatabase(appCfg)
	if err != nil {
		return err
	}

	evaluator, err := buildEvaluator(appCfg.Access)
	if err != nil {
		return err
	}

	loc, err := appCfg.Reports.Location()
	if err != nil {
		return err
	}

	// Initialize job queue based on configuration
	jobQueue, err := createQueue(appCfg, database)
	if err != nil {
		return fmt.Errorf("failed to initialize job queue: %w", err)
	}
	defer jobQueue.Close()
	slog.Info("Job queue initialized", "type", appCfg.Queue.Type)

	var (
		srv          *http.Server
		sched        *scheduler.Scheduler
		workerCancel context.CancelFunc
		workerDone   chan struct{}
		broker       *logstream.Broker
	)

	if runWorker {
		w := worker.New(database, jobQueue, appCfg.Reports.Dir, slog.Default(), worker.DefaultMaxWorkers)
		broker = w.Broker()
		workerCtx, cancel := context.WithCancel(ctx)
		workerCancel = cancel
		workerDone = make(chan struct{})

		go func() {
			defer close(workerDone)
			if err := w.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Worker failed", "error", err)
			}
		}()

		sched = scheduler.New(service.NewReportService(database, jobQueue), appCfg.Reports.Schedule, loc)
		if err := sched.Start(); err != nil {
			cancel()
			return err
		}
	}

	if runServer {
		router := api.NewRouter(appCfg, database, jobQueue, evaluator, broker)

		addr := fmt.Sprintf(":%d", appCfg.Server.Port)
		srv = &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			slog.Info("Server listening", "address", addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("Server failed", "error", err)
			}
		}()
	}

	// Wait for context cancellation
	<-ctx.Done()
	slog.Info("Shutting down...")

	if sched != nil {
		sched.Stop()
	}

	if workerCancel != nil {
		workerCancel()
		<-workerDone
		slog.Info("Worker stopped")
	}

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		slog.Info("Server stopped")
	}

	slog.Info("Shepherd exited")
	return nil
}

// setupDatabase opens the database, migrates it and seeds the settings and
// bootstrap admin.
func setupDatabase(cfg *config.Config) (*gorm.DB, error) {
	database, err := db.New(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("Database initialized", "driver", cfg.Database.Driver)

	if err := db.Migrate(database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	instanceID, err := db.GetOrCreateInstanceID(database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instance ID: %w", err)
	}
	slog.Info("Instance ID initialized", "instance_id", instanceID)

	if err := db.EnsureChurchName(database, cfg.Church.Name); err != nil {
		return nil, err
	}

	if err := db.CreateDefaultAdmin(database); err != nil {
		return nil, fmt.Errorf("failed to create default admin user: %w", err)
	}
	return database, nil
}

// buildEvaluator loads the permission table and compiles it.
func buildEvaluator(cfg config.AccessConfig) (*access.Evaluator, error) {
	table, err := access.LoadTable(cfg.TableFile)
	if err != nil {
		return nil, err
	}
	evaluator, err := access.NewEvaluator(table, cfg.FallbackPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Access control initialized", "paths", len(table), "fallback", evaluator.Fallback())
	return evaluator, nil
}

// RunWithSignalHandling starts the server and handles OS signals for graceful shutdown.
func RunWithSignalHandling(cfg Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Run server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, cfg)
	}()

	// Wait for signal or error
	select {
	case sig := <-quit:
		slog.Info("Received signal", "signal", sig)
		cancel()
		// Wait for server to finish
		return <-errCh
	case err := <-errCh:
		return err
	}
}

// createQueue creates a queue based on configuration.
func createQueue(cfg *config.Config, database *gorm.DB) (queue.Queue, error) {
	switch cfg.Queue.Type {
	case "memory":
		return queue.NewMemoryQueue(100), nil
	case "valkey":
		if cfg.Queue.ValkeyAddr == "" {
			return nil, fmt.Errorf("valkey address is required when queue type is valkey")
		}
		return queue.NewValkeyQueue(cfg.Queue.ValkeyAddr, database)
	default:
		return nil, fmt.Errorf("unsupported queue type: %s (supported: memory, valkey)", cfg.Queue.Type)
	}
}
