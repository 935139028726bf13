// Package statistics turns aligned daily close prices into log returns,
// per-asset summary statistics and the (observation-scaled) covariance
// structure consumed by the sampler and the optimizer.
package statistics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/aristath/frontier/internal/domain"
)

// MinAlignedRows is the minimum number of common trading days needed to
// produce at least one return observation.
const MinAlignedRows = 2

// PriceMatrix holds close prices aligned on common trading dates.
// Closes is rows x tickers, rows in ascending date order.
type PriceMatrix struct {
	Tickers []string
	Dates   []string
	Closes  *mat.Dense
}

// Rows returns the number of aligned trading days.
func (pm *PriceMatrix) Rows() int {
	return len(pm.Dates)
}

// LastPrices returns the most recent aligned close per ticker.
func (pm *PriceMatrix) LastPrices() []float64 {
	return mat.Row(nil, pm.Rows()-1, pm.Closes)
}

// ReturnMatrix holds daily log returns, one column per ticker. Dates are the
// dates of the later price in each pair.
type ReturnMatrix struct {
	Tickers []string
	Dates   []string
	Data    *mat.Dense
}

// Rows returns the number of return observations.
func (rm *ReturnMatrix) Rows() int {
	return len(rm.Dates)
}

// Column returns the returns of one ticker.
func (rm *ReturnMatrix) Column(j int) []float64 {
	return mat.Col(nil, j, rm.Data)
}

// Align inner-joins the series of every ticker on calendar date. A date is
// kept only if every ticker has a bar on it. When a ticker has several bars
// on the same date the last one wins.
func Align(tickers []string, series map[string][]domain.DailyBar) (*PriceMatrix, error) {
	closesByTicker := make([]map[string]float64, len(tickers))
	counts := make(map[string]int)

	for i, ticker := range tickers {
		byDate := make(map[string]float64, len(series[ticker]))
		for _, bar := range series[ticker] {
			if bar.Close <= 0 || math.IsNaN(bar.Close) {
				continue
			}
			byDate[bar.DateKey()] = bar.Close
		}
		closesByTicker[i] = byDate
		for date := range byDate {
			counts[date]++
		}
	}

	dates := make([]string, 0, len(counts))
	for date, n := range counts {
		if n == len(tickers) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	if len(tickers) == 0 || len(dates) < MinAlignedRows {
		return nil, &domain.InsufficientDataError{
			Tickers: append([]string(nil), tickers...),
			Rows:    len(dates),
		}
	}

	closes := mat.NewDense(len(dates), len(tickers), nil)
	for r, date := range dates {
		for c := range tickers {
			closes.Set(r, c, closesByTicker[c][date])
		}
	}

	return &PriceMatrix{
		Tickers: append([]string(nil), tickers...),
		Dates:   dates,
		Closes:  closes,
	}, nil
}

// LogReturns applies ln(p_t / p_{t-1}) per column. The first row has no
// predecessor and is dropped.
func LogReturns(pm *PriceMatrix) *ReturnMatrix {
	rows, cols := pm.Closes.Dims()
	data := mat.NewDense(rows-1, cols, nil)
	for r := 1; r < rows; r++ {
		for c := 0; c < cols; c++ {
			data.Set(r-1, c, math.Log(pm.Closes.At(r, c)/pm.Closes.At(r-1, c)))
		}
	}

	return &ReturnMatrix{
		Tickers: pm.Tickers,
		Dates:   append([]string(nil), pm.Dates[1:]...),
		Data:    data,
	}
}
