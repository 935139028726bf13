// Package yahoo fetches daily price histories from the Yahoo Finance chart
// API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/frontier/internal/domain"
)

// DefaultBaseURL is the public Yahoo Finance query host.
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds client settings.
type Config struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RetryBackoff      time.Duration
}

// DefaultConfig returns conservative pacing for the public endpoint.
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		Burst:             2,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
	}
}

// Client is a Yahoo Finance API client
type Client struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     Config
	now     func() time.Time
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client. Zero fields of cfg take
// their DefaultConfig values.
func NewClient(cfg Config, log zerolog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = def.RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = def.MaxRetries
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = def.RetryBackoff
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:     cfg,
		now:     time.Now,
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// errPermanent marks failures that retrying cannot fix.
type errPermanent struct{ err error }

func (e errPermanent) Error() string { return e.err.Error() }
func (e errPermanent) Unwrap() error { return e.err }

// GetHistory fetches daily bars for the trailing window of days calendar
// days ending now. Closes are dividend/split adjusted and the other prices
// scaled by the same factor. Bars with a missing close are skipped.
// Any failure is reported as *domain.DataUnavailableError.
func (c *Client) GetHistory(ctx context.Context, ticker string, days int) ([]domain.DailyBar, error) {
	end := c.now()
	start := end.AddDate(0, 0, -days)

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &domain.DataUnavailableError{Ticker: ticker, Err: err}
		}

		began := time.Now()
		bars, err := c.fetchChart(ctx, ticker, start, end)
		requestDuration.Observe(time.Since(began).Seconds())
		if err == nil {
			requestsTotal.WithLabelValues("ok").Inc()
			c.log.Info().
				Str("ticker", ticker).
				Int("days", days).
				Int("count", len(bars)).
				Msg("Fetched historical prices")
			return bars, nil
		}

		lastErr = err
		var permanent errPermanent
		if errors.As(err, &permanent) || ctx.Err() != nil {
			requestsTotal.WithLabelValues("failed").Inc()
			return nil, &domain.DataUnavailableError{Ticker: ticker, Err: err}
		}
		requestsTotal.WithLabelValues("retried").Inc()

		if attempt < c.cfg.MaxRetries-1 {
			wait := c.cfg.RetryBackoff * time.Duration(1<<uint(attempt)) // exponential backoff
			c.log.Warn().Err(err).
				Str("ticker", ticker).
				Int("attempt", attempt+1).
				Dur("wait", wait).
				Msg("Failed to fetch history, retrying")

			select {
			case <-ctx.Done():
				return nil, &domain.DataUnavailableError{Ticker: ticker, Err: ctx.Err()}
			case <-time.After(wait):
			}
		}
	}

	requestsTotal.WithLabelValues("failed").Inc()
	return nil, &domain.DataUnavailableError{
		Ticker: ticker,
		Err:    fmt.Errorf("failed after %d attempts: %w", c.cfg.MaxRetries, lastErr),
	}
}

func (c *Client) fetchChart(ctx context.Context, ticker string, start, end time.Time) ([]domain.DailyBar, error) {
	params := url.Values{}
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	params.Add("period2", strconv.FormatInt(end.Unix(), 10))
	params.Add("interval", "1d")
	params.Add("events", "div,splits")
	params.Add("includeAdjustedClose", "true")

	reqURL := c.cfg.BaseURL + "/v8/finance/chart/" + url.PathEscape(ticker) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errPermanent{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("Yahoo Finance API returned status %d: %s", resp.StatusCode, truncate(body, 200))
		// 404 is an unknown symbol; other 4xx except throttling are not transient
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, errPermanent{err}
		}
		return nil, err
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, errPermanent{fmt.Errorf("failed to parse response: %w", err)}
	}
	if result.Chart.Error != nil {
		return nil, errPermanent{fmt.Errorf("Yahoo Finance API error: %s: %s", result.Chart.Error.Code, result.Chart.Error.Description)}
	}
	if len(result.Chart.Result) == 0 {
		return nil, errPermanent{fmt.Errorf("no chart data returned for %s", ticker)}
	}

	bars := parseBars(result.Chart.Result[0])
	if len(bars) == 0 {
		return nil, errPermanent{fmt.Errorf("no price history returned for %s", ticker)}
	}
	return bars, nil
}

func parseBars(chart chartResult) []domain.DailyBar {
	if len(chart.Indicators.Quote) == 0 {
		return nil
	}
	quote := chart.Indicators.Quote[0]

	var adjClose []*float64
	if len(chart.Indicators.AdjClose) > 0 {
		adjClose = chart.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.DailyBar, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		closePrice, ok := at(quote.Close, i)
		if !ok || closePrice <= 0 {
			continue
		}

		factor := 1.0
		if adj, ok := at(adjClose, i); ok && adj > 0 {
			factor = adj / closePrice
		}

		open, _ := at(quote.Open, i)
		high, _ := at(quote.High, i)
		low, _ := at(quote.Low, i)

		var volume int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			volume = *quote.Volume[i]
		}

		// Shift to exchange-local time so the UTC date is the trading date.
		date := time.Unix(ts+chart.Meta.GMTOffset, 0).UTC()

		bars = append(bars, domain.DailyBar{
			Date:   time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
			Open:   open * factor,
			High:   high * factor,
			Low:    low * factor,
			Close:  closePrice * factor,
			Volume: volume,
		})
	}
	return bars
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
