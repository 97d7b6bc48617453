package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garnizeh/questionnaire/api"
	dbfs "github.com/garnizeh/questionnaire/db"
	"github.com/garnizeh/questionnaire/internal/config"
	"github.com/garnizeh/questionnaire/internal/db"
	"github.com/garnizeh/questionnaire/internal/jobs"
	"github.com/garnizeh/questionnaire/internal/repository/sqlite"
	"github.com/garnizeh/questionnaire/internal/search"
	"github.com/garnizeh/questionnaire/internal/survey"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	var configPath = flag.String("config", "", "Path to config YAML file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
	api.SetLogger(logger)
	survey.SetLogger(logger)

	log.Printf("Starting questionnaire server version %s (built at %s)", version, buildTime)

	ctx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	// Open database connection
	conn, err := db.New(ctx, cfg.DatabasePath, logger)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, conn, dbfs.Migrations, dbfs.SeedFiles); err != nil {
			log.Fatalf("Failed to migrate DB: %v", err)
		}
	}

	store := sqlite.New(conn, logger)
	loader, err := survey.NewLoader(ctx, store)
	if err != nil {
		log.Fatalf("Failed to load payload schemas: %v", err)
	}
	processor := survey.NewProcessor(store, survey.NewDecomposer(loader, cfg.PayloadSchemaVersion), cfg.Domain)

	// Search documents are written by the job workers
	index := search.NewIndex(conn)
	pool := jobs.NewWorkerPool(jobs.NewRepository(conn), search.Handlers(index), logger, cfg.Workers.Count)
	pool.Start(ctx)

	handler := api.SetupRoutes(cfg, version, buildTime, api.Services{
		Store:     store,
		Processor: processor,
		Schemas:   loader,
		Index:     search.NewSyncer(pool, cfg.Workers.MaxAttempts),
		Search:    index,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.APITimeout,
		WriteTimeout: cfg.APITimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on %s", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	pool.Stop()
	cancelWorkers()

	if err := conn.Close(); err != nil {
		log.Printf("Error closing DB: %v", err)
	}

	log.Println("Server exited")
}
