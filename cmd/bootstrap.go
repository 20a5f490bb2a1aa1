package cmd

import (
	"context"
	"fmt"

	"relation-manager/core/archive"
	"relation-manager/core/config"
	"relation-manager/core/database"
	"relation-manager/core/gormstore"
	"relation-manager/core/logger"
	"relation-manager/core/storage"
	"relation-manager/feature/household/models"

	"go.uber.org/zap"
)

// newRegistry lists every model reconciliations may address.
func newRegistry() *gormstore.Registry {
	return gormstore.NewRegistry(models.All()...)
}

// loadRuntime loads configuration and builds the logger shared by every command.
func loadRuntime() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	l, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, l, nil
}

// openStore connects to the database and wraps it in a store.
func openStore(cfg *config.Config, l *zap.Logger) (*gormstore.Store, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return gormstore.New(db, newRegistry(), gormstore.WithLogger(l)), nil
}

// openArchiver returns nil when archiving is disabled.
func openArchiver(ctx context.Context, cfg *config.Config, l *zap.Logger) (*archive.Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}
	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	archiver := archive.New(client, cfg.Storage.Bucket, cfg.Archive, l)
	if err := archiver.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return archiver, nil
}
