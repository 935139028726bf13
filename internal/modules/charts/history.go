package charts

import (
	"github.com/markcheno/go-talib"

	"github.com/aristath/frontier/internal/domain"
)

// DefaultSMAPeriod is the moving-average window of the history view.
const DefaultSMAPeriod = 20

// Candle directions.
const (
	Increasing = "increasing"
	Decreasing = "decreasing"
)

// Candle is one bar of the history view.
type Candle struct {
	Date      string   `json:"date"`
	Open      float64  `json:"open"`
	High      float64  `json:"high"`
	Low       float64  `json:"low"`
	Close     float64  `json:"close"`
	Volume    int64    `json:"volume"`
	Direction string   `json:"direction"`
	SMA       *float64 `json:"sma,omitempty"`
}

// HistoryView is the OHLC view of one ticker with a moving-average overlay.
type HistoryView struct {
	Ticker    string   `json:"ticker"`
	SMAPeriod int      `json:"sma_period"`
	Candles   []Candle `json:"candles"`
}

// History builds the candle view of bars. A bar closing at or above its
// open is increasing. The SMA is absent until period bars are available.
func History(ticker string, bars []domain.DailyBar, period int) HistoryView {
	if period <= 0 {
		period = DefaultSMAPeriod
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}

	var sma []float64
	if len(closes) >= period {
		sma = talib.Sma(closes, period)
	}

	candles := make([]Candle, len(bars))
	for i, b := range bars {
		direction := Increasing
		if b.Close < b.Open {
			direction = Decreasing
		}
		candles[i] = Candle{
			Date:      b.DateKey(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
			Direction: direction,
		}
		if sma != nil && i >= period-1 {
			v := sma[i]
			candles[i].SMA = &v
		}
	}

	return HistoryView{Ticker: ticker, SMAPeriod: period, Candles: candles}
}
