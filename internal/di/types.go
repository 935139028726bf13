// Package di provides dependency injection wiring and initialization.
package di

import (
	"github.com/aristath/frontier/internal/clientdata"
	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/modules/runs"
	"github.com/aristath/frontier/internal/scheduler"
)

// Container holds all application dependencies.
//
// Wire builds it bottom-up: database, repositories, clients and services,
// then background jobs. Close releases them in reverse.
type Container struct {
	// Databases
	CacheDB *database.DB

	// Repositories
	PriceHistoryRepo *clientdata.Repository

	// Clients
	YahooClient     *yahoo.Client
	HistoryProvider *clientdata.CachedHistoryProvider

	// Services
	AnalysisService *analysis.Service
	RunStore        *runs.Store

	// Jobs
	Scheduler  *scheduler.Scheduler
	CleanupJob *clientdata.CleanupJob
	ExpiryJob  *runs.ExpiryJob
}
