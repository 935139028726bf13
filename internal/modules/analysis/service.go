// Package analysis runs the portfolio pipeline: fetch price histories, build
// statistics, evaluate the current allocation, sample the attainable region
// and search for the Pareto front.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/allocation"
	"github.com/aristath/frontier/internal/modules/montecarlo"
	"github.com/aristath/frontier/internal/modules/optimization"
	"github.com/aristath/frontier/internal/modules/statistics"
	"github.com/aristath/frontier/internal/progress"
)

// Progress phases reported to the run callback.
const (
	PhaseFetching   = "fetching"
	PhaseStatistics = "statistics"
	PhaseSampling   = "sampling"
	PhaseOptimizing = "optimizing"
	PhaseDone       = "done"
)

// HistoryProvider retrieves a trailing window of daily bars for a ticker.
// Failures are reported as *domain.DataUnavailableError.
type HistoryProvider interface {
	GetHistory(ctx context.Context, ticker string, days int) ([]domain.DailyBar, error)
}

// Settings configures a pipeline run.
type Settings struct {
	HistoryDays      int
	Samples          int
	SampleSeed       uint64
	FetchConcurrency int
	Optimizer        optimization.Settings
}

// DefaultSettings mirrors the defaults of every stage.
func DefaultSettings() Settings {
	return Settings{
		HistoryDays:      domain.HistoryWindowDays,
		Samples:          montecarlo.DefaultSamples,
		SampleSeed:       1,
		FetchConcurrency: 4,
		Optimizer:        optimization.DefaultSettings(),
	}
}

// Result is everything one run produces. It is immutable once returned.
type Result struct {
	Portfolio domain.Portfolio
	Histories map[string][]domain.DailyBar
	Dataset   *statistics.Dataset
	Baseline  allocation.Baseline
	Current   montecarlo.Point
	Cloud     montecarlo.Cloud
	Front     *optimization.Front
	Duration  time.Duration
}

// Stats is a shortcut to the statistical model.
func (r *Result) Stats() *statistics.Statistics {
	return r.Dataset.Stats
}

// Allocation builds the allocation table for idx after validating it
// against the front.
func (r *Result) Allocation(idx int) (allocation.Result, error) {
	if err := allocation.ValidateSelection(idx, r.Front.Len()); err != nil {
		return allocation.Result{}, err
	}
	return allocation.Build(r.Baseline, r.Front, idx), nil
}

// Service runs the analysis pipeline.
type Service struct {
	provider HistoryProvider
	settings Settings
	log      zerolog.Logger
}

// NewService creates a pipeline service over provider.
func NewService(provider HistoryProvider, settings Settings, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		settings: settings,
		log:      log.With().Str("component", "analysis").Logger(),
	}
}

// Settings returns the service settings.
func (s *Service) Settings() Settings {
	return s.settings
}

// Run executes the full pipeline for portfolio. cb may be nil.
func (s *Service) Run(ctx context.Context, portfolio domain.Portfolio, cb progress.Callback) (*Result, error) {
	start := time.Now()
	tickers := portfolio.Tickers()

	histories, err := s.fetch(ctx, tickers, cb)
	if err != nil {
		runsTotal.WithLabelValues("fetch_failed").Inc()
		return nil, err
	}

	progress.Call(cb, 0, 1, PhaseStatistics)
	dataset, err := statistics.Build(tickers, histories)
	if err != nil {
		runsTotal.WithLabelValues("statistics_failed").Inc()
		return nil, err
	}
	progress.Call(cb, 1, 1, PhaseStatistics)

	baseline, err := allocation.NewBaseline(portfolio, dataset.Prices.LastPrices())
	if err != nil {
		return nil, fmt.Errorf("failed to build baseline allocation: %w", err)
	}
	stats := dataset.Stats
	currentER := stats.ExpectedReturn(baseline.Weights)
	currentEV := stats.Volatility(baseline.Weights)

	progress.Call(cb, 0, 1, PhaseSampling)
	cloud := montecarlo.NewSampler(s.settings.SampleSeed).Sample(stats, s.settings.Samples)
	progress.Call(cb, 1, 1, PhaseSampling)

	front, err := s.optimize(ctx, stats, cb)
	if err != nil {
		runsTotal.WithLabelValues("optimize_failed").Inc()
		return nil, err
	}

	result := &Result{
		Portfolio: portfolio,
		Histories: histories,
		Dataset:   dataset,
		Baseline:  baseline,
		Current: montecarlo.Point{
			EV: currentEV,
			ER: currentER,
			SR: statistics.Sharpe(currentER, currentEV),
		},
		Cloud:    cloud,
		Front:    front,
		Duration: time.Since(start),
	}

	runsTotal.WithLabelValues("ok").Inc()
	runDuration.Observe(result.Duration.Seconds())
	frontSize.Observe(float64(front.Len()))
	progress.Call(cb, 1, 1, PhaseDone)

	s.log.Info().
		Strs("tickers", tickers).
		Int("observations", stats.Observations).
		Int("front_size", front.Len()).
		Dur("duration", result.Duration).
		Msg("Analysis completed")

	return result, nil
}

func (s *Service) fetch(ctx context.Context, tickers []string, cb progress.Callback) (map[string][]domain.DailyBar, error) {
	days := s.settings.HistoryDays
	if days <= 0 {
		days = domain.HistoryWindowDays
	}

	var (
		mu        sync.Mutex
		done      int
		histories = make(map[string][]domain.DailyBar, len(tickers))
	)
	progress.Call(cb, 0, len(tickers), PhaseFetching)

	g, gctx := errgroup.WithContext(ctx)
	if s.settings.FetchConcurrency > 0 {
		g.SetLimit(s.settings.FetchConcurrency)
	}
	for _, ticker := range tickers {
		g.Go(func() error {
			bars, err := s.provider.GetHistory(gctx, ticker, days)
			if err != nil {
				return err
			}

			// cb is not required to be safe for concurrent use; reporting
			// under mu also keeps the count monotonic.
			mu.Lock()
			defer mu.Unlock()
			histories[ticker] = bars
			done++
			progress.Call(cb, done, len(tickers), PhaseFetching)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return histories, nil
}

func (s *Service) optimize(ctx context.Context, stats *statistics.Statistics, cb progress.Callback) (*optimization.Front, error) {
	if stats.Len() == 1 {
		return optimization.SingleAssetFront(stats)
	}

	optimizer := optimization.NewOptimizer(s.settings.Optimizer, s.log)
	optimizer.SetProgress(cb)
	return optimizer.Optimize(ctx, stats)
}
