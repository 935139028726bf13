// Package domain holds the core data types shared by every module: holdings,
// price bars, and the error kinds of the analysis pipeline.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date key used to align price series.
const DateLayout = "2006-01-02"

// HistoryWindowDays is the trailing window of price history requested per ticker.
const HistoryWindowDays = 365

// Holding is one position of a user portfolio.
type Holding struct {
	Ticker   string `json:"ticker"`
	Quantity int    `json:"quantity"`
}

// Portfolio is an ordered set of holdings. The order defines the column
// order of every matrix and table derived from it.
type Portfolio struct {
	Holdings []Holding `json:"holdings"`
}

// NewPortfolio builds a portfolio, normalizing tickers and rejecting
// duplicates and negative quantities.
func NewPortfolio(holdings []Holding) (Portfolio, error) {
	seen := make(map[string]bool, len(holdings))
	out := make([]Holding, 0, len(holdings))
	for _, h := range holdings {
		ticker := strings.ToUpper(strings.TrimSpace(h.Ticker))
		if ticker == "" {
			return Portfolio{}, fmt.Errorf("empty ticker")
		}
		if h.Quantity < 0 {
			return Portfolio{}, fmt.Errorf("negative quantity %d for %s", h.Quantity, ticker)
		}
		if seen[ticker] {
			return Portfolio{}, fmt.Errorf("duplicate ticker %s", ticker)
		}
		seen[ticker] = true
		out = append(out, Holding{Ticker: ticker, Quantity: h.Quantity})
	}
	if len(out) == 0 {
		return Portfolio{}, fmt.Errorf("portfolio has no holdings")
	}
	return Portfolio{Holdings: out}, nil
}

// Tickers returns the tickers in portfolio order.
func (p Portfolio) Tickers() []string {
	tickers := make([]string, len(p.Holdings))
	for i, h := range p.Holdings {
		tickers[i] = h.Ticker
	}
	return tickers
}

// Quantities returns the share counts in portfolio order.
func (p Portfolio) Quantities() []int {
	qty := make([]int, len(p.Holdings))
	for i, h := range p.Holdings {
		qty[i] = h.Quantity
	}
	return qty
}

// Len returns the number of holdings.
func (p Portfolio) Len() int {
	return len(p.Holdings)
}

// DailyBar is one daily OHLCV data point.
type DailyBar struct {
	Date   time.Time `json:"date" msgpack:"d"`
	Open   float64   `json:"open" msgpack:"o"`
	High   float64   `json:"high" msgpack:"h"`
	Low    float64   `json:"low" msgpack:"l"`
	Close  float64   `json:"close" msgpack:"c"`
	Volume int64     `json:"volume" msgpack:"v"`
}

// DateKey returns the calendar date used for cross-ticker alignment.
func (b DailyBar) DateKey() string {
	return b.Date.UTC().Format(DateLayout)
}
