// Package clientdata provides persistent caching of price histories fetched
// from external providers. Histories are stored as msgpack blobs with
// expiration timestamps for cache-first behavior.
package clientdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/frontier/internal/domain"
)

// Entry is a cached price history.
type Entry struct {
	Ticker    string
	Bars      []domain.DailyBar
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Fresh reports whether the entry has not yet expired at now.
func (e Entry) Fresh(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// Repository provides cache operations for price histories.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository creates a new price history repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Key builds the cache key of a ticker's history over a trailing window.
func Key(ticker string, days int) string {
	return fmt.Sprintf("%s:%d", ticker, days)
}

// Store saves bars with expiration = now + ttl, replacing any previous entry.
func (r *Repository) Store(ctx context.Context, key, ticker string, bars []domain.DailyBar, ttl time.Duration) error {
	data, err := msgpack.Marshal(bars)
	if err != nil {
		return fmt.Errorf("failed to marshal history for %s: %w", ticker, err)
	}

	now := r.now()
	_, err = r.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO price_history (cache_key, ticker, data, fetched_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		key, ticker, data, now.Unix(), now.Add(ttl).Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store history for %s: %w", ticker, err)
	}
	return nil
}

// Get returns the entry regardless of expiration status, or nil when the
// key is absent. Callers decide with Entry.Fresh whether to use it.
func (r *Repository) Get(ctx context.Context, key string) (*Entry, error) {
	var (
		ticker             string
		data               []byte
		fetchedAt, expires int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT ticker, data, fetched_at, expires_at FROM price_history WHERE cache_key = ?`, key,
	).Scan(&ticker, &data, &fetchedAt, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history %s: %w", key, err)
	}

	var bars []domain.DailyBar
	if err := msgpack.Unmarshal(data, &bars); err != nil {
		return nil, fmt.Errorf("failed to decode history %s: %w", key, err)
	}
	return &Entry{
		Ticker:    ticker,
		Bars:      bars,
		FetchedAt: time.Unix(fetchedAt, 0),
		ExpiresAt: time.Unix(expires, 0),
	}, nil
}

// DeleteExpired removes all rows whose expires_at is before now and returns
// the number of rows deleted.
func (r *Repository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM price_history WHERE expires_at < ?`, r.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired histories: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}
