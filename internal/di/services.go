package di

import (
	"fmt"

	"github.com/aristath/frontier/internal/clientdata"
	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/config"
	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/modules/runs"
	"github.com/rs/zerolog"
)

// InitializeServices creates repositories, clients and services.
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	if container == nil || container.CacheDB == nil {
		return fmt.Errorf("container must hold an open cache database")
	}

	container.PriceHistoryRepo = clientdata.NewRepository(container.CacheDB.Conn())

	container.YahooClient = yahoo.NewClient(cfg.Yahoo, log)
	container.HistoryProvider = clientdata.NewCachedHistoryProvider(
		container.PriceHistoryRepo,
		container.YahooClient,
		cfg.CacheTTL,
		log,
	)

	container.AnalysisService = analysis.NewService(container.HistoryProvider, cfg.Analysis, log)
	container.RunStore = runs.NewStore(container.AnalysisService, log)

	log.Info().
		Int("history_days", cfg.Analysis.HistoryDays).
		Int("samples", cfg.Analysis.Samples).
		Int("generations", cfg.Analysis.Optimizer.Generations).
		Msg("Services initialized")
	return nil
}
