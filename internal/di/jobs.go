package di

import (
	"fmt"

	"github.com/aristath/frontier/internal/clientdata"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/runs"
	"github.com/aristath/frontier/internal/scheduler"
	"github.com/rs/zerolog"
)

// RegisterJobs creates the scheduler and registers background jobs. The
// scheduler is not started.
func RegisterJobs(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.PriceHistoryRepo == nil || container.RunStore == nil {
		return fmt.Errorf("container must hold the price history repository and run store")
	}

	container.Scheduler = scheduler.New(log)
	container.CleanupJob = clientdata.NewCleanupJob(container.PriceHistoryRepo, container.CacheDB, log)

	if err := container.Scheduler.AddJob(clientdata.CleanupSchedule, container.CleanupJob); err != nil {
		return fmt.Errorf("failed to register %s: %w", container.CleanupJob.Name(), err)
	}

	container.ExpiryJob = runs.NewExpiryJob(container.RunStore, cfg.SessionTTL, log)
	if err := container.Scheduler.AddJob(runs.ExpirySchedule, container.ExpiryJob); err != nil {
		return fmt.Errorf("failed to register %s: %w", container.ExpiryJob.Name(), err)
	}
	return nil
}
