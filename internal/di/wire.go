package di

import (
	"context"
	"fmt"

	"github.com/aristath/frontier/internal/config"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a fully configured container.
// Order of operations:
// 1. Initialize databases
// 2. Initialize repositories, clients and services
// 3. Register jobs
func Wire(cfg *config.Config, log zerolog.Logger) (*Container, error) {
	container, err := InitializeDatabases(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := InitializeServices(container, cfg, log); err != nil {
		container.CacheDB.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := RegisterJobs(container, cfg, log); err != nil {
		container.CacheDB.Close()
		return nil, fmt.Errorf("failed to register jobs: %w", err)
	}

	log.Info().Msg("Dependency injection wiring completed successfully")
	return container, nil
}

// Close stops background work and releases resources. Runs still in flight
// are cancelled and awaited until ctx expires.
func (c *Container) Close(ctx context.Context) error {
	if c.Scheduler != nil {
		c.Scheduler.Stop()
	}

	var firstErr error
	if c.RunStore != nil {
		if err := c.RunStore.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("failed to stop runs: %w", err)
		}
	}
	if c.CacheDB != nil {
		if err := c.CacheDB.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close cache database: %w", err)
		}
	}
	return firstErr
}
