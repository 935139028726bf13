// Package charts renders PNG charts of an analysis run and builds the
// per-ticker price history view.
package charts

import (
	"errors"
	"fmt"
	"math"

	"github.com/vicanso/go-charts/v2"

	"github.com/aristath/frontier/internal/modules/allocation"
	"github.com/aristath/frontier/internal/modules/statistics"
)

const (
	width  = 900
	height = 540
)

// ErrNothingToPlot is returned when every value of a chart is non-finite.
var ErrNothingToPlot = errors.New("no finite values to plot")

// Weights renders the current weights per ticker, next to the selected
// solution's weights when the result has a selection.
func Weights(result allocation.Result) ([]byte, error) {
	if len(result.Rows) == 0 {
		return nil, ErrNothingToPlot
	}

	tickers := make([]string, len(result.Rows))
	current := make([]float64, len(result.Rows))
	for i, row := range result.Rows {
		tickers[i] = row.Ticker
		current[i] = allocation.RoundPct(row.WeightPct)
	}

	values := [][]float64{current}
	names := []string{"Current (%)"}
	if result.Selected() {
		selected := make([]float64, len(result.Rows))
		for i, row := range result.Rows {
			selected[i] = allocation.RoundPct(*row.SelectedWeightPct)
		}
		values = append(values, selected)
		names = append(names, fmt.Sprintf("Solution %d (%%)", result.Index))
	}
	if !allFinite(values...) {
		return nil, ErrNothingToPlot
	}

	painter, err := charts.BarRender(values,
		charts.TitleTextOptionFunc("Portfolio weights"),
		charts.XAxisDataOptionFunc(tickers),
		charts.LegendLabelsOptionFunc(names),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render weights chart: %w", err)
	}
	return painter.Bytes()
}

// Statistics compares each stock's expected return with its volatility.
func Statistics(stats *statistics.Statistics) ([]byte, error) {
	if stats.Len() == 0 {
		return nil, ErrNothingToPlot
	}

	tickers := make([]string, stats.Len())
	er := make([]float64, stats.Len())
	vol := make([]float64, stats.Len())
	for i, a := range stats.Assets {
		tickers[i] = a.Ticker
		er[i] = a.ER
		vol[i] = a.Volatility
	}
	if !allFinite(er, vol) {
		return nil, ErrNothingToPlot
	}

	painter, err := charts.BarRender([][]float64{er, vol},
		charts.TitleTextOptionFunc("Expected return vs volatility per stock"),
		charts.XAxisDataOptionFunc(tickers),
		charts.LegendLabelsOptionFunc([]string{"ER", "Volatility"}),
		charts.ThemeOptionFunc(charts.ThemeLight),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render statistics chart: %w", err)
	}
	return painter.Bytes()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(series ...[]float64) bool {
	for _, values := range series {
		for _, v := range values {
			if !finite(v) {
				return false
			}
		}
	}
	return true
}
