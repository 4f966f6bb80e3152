package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/kurihiro0119/github-org-audit/internal/api"
	"github.com/kurihiro0119/github-org-audit/internal/config"
	"github.com/kurihiro0119/github-org-audit/internal/logging"
	"github.com/kurihiro0119/github-org-audit/internal/storage"
	"github.com/kurihiro0119/github-org-audit/internal/storage/postgres"
	"github.com/kurihiro0119/github-org-audit/internal/storage/sqlite"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateStorage(); err != nil {
		return err
	}
	if !cfg.RecordingEnabled() {
		return &config.ConfigError{Field: "STORAGE_TYPE", Message: "must be sqlite or postgres to serve audit history"}
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Initialize storage
	var store storage.Storage
	switch cfg.StorageType {
	case "postgres":
		store, err = postgres.NewPostgresStorage(cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("failed to initialize PostgreSQL storage: %w", err)
		}
	default:
		store, err = sqlite.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
	}
	defer store.Close()

	router := api.SetupRoutes(api.NewHandler(store), logger)

	addr := fmt.Sprintf("%s:%s", cfg.APIHost, cfg.APIPort)
	logger.Info("starting API server", zap.String("addr", addr), zap.String("storage", cfg.StorageType))

	return router.Run(addr)
}
