package clientdata

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/frontier/internal/domain"
)

// HistoryFetcher retrieves a trailing window of daily bars for a ticker.
type HistoryFetcher interface {
	GetHistory(ctx context.Context, ticker string, days int) ([]domain.DailyBar, error)
}

// CachedHistoryProvider serves histories from the cache and falls back to the
// upstream fetcher when the entry is missing or expired. When the upstream
// fails, a stale entry is returned instead of the error.
type CachedHistoryProvider struct {
	repo     *Repository
	upstream HistoryFetcher
	ttl      time.Duration
	log      zerolog.Logger
}

// NewCachedHistoryProvider wraps upstream with the repository cache.
func NewCachedHistoryProvider(repo *Repository, upstream HistoryFetcher, ttl time.Duration, log zerolog.Logger) *CachedHistoryProvider {
	if ttl <= 0 {
		ttl = TTLPriceHistory
	}
	return &CachedHistoryProvider{
		repo:     repo,
		upstream: upstream,
		ttl:      ttl,
		log:      log.With().Str("component", "history_cache").Logger(),
	}
}

// GetHistory implements HistoryFetcher.
func (p *CachedHistoryProvider) GetHistory(ctx context.Context, ticker string, days int) ([]domain.DailyBar, error) {
	key := Key(ticker, days)

	cached, err := p.repo.Get(ctx, key)
	if err != nil {
		p.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache read failed")
	}
	if cached != nil && cached.Fresh(p.repo.now()) {
		p.log.Debug().Str("ticker", ticker).Int("bars", len(cached.Bars)).Msg("Cache hit")
		return cached.Bars, nil
	}

	bars, err := p.upstream.GetHistory(ctx, ticker, days)
	if err != nil {
		if cached != nil && ctx.Err() == nil {
			p.log.Warn().
				Err(err).
				Str("ticker", ticker).
				Time("fetched_at", cached.FetchedAt).
				Msg("Upstream failed, serving stale history")
			return cached.Bars, nil
		}
		return nil, err
	}

	if err := p.repo.Store(ctx, key, ticker, bars, p.ttl); err != nil {
		p.log.Warn().Err(err).Str("ticker", ticker).Msg("Cache write failed")
	}
	return bars, nil
}
