// Package allocation builds the allocation table comparing the current
// holdings with a selected member of the Pareto front.
package allocation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/optimization"
)

// BaselineIndex selects the current allocation without a front member.
const BaselineIndex = -1

// Column headers of the presentation table.
const (
	ColumnStock          = "Stock"
	ColumnQuantity       = "Quantity"
	ColumnLastPrice      = "Last Price ($)"
	ColumnValue          = "Value ($)"
	ColumnWeight         = "Portfolio Weights (%)"
	ColumnSelectedWeight = "Weights of Selected Solution (%)"
	ColumnSelectedValue  = "Values of Selected Solution ($)"
)

// Baseline is the current allocation: quantity x latest price per ticker.
type Baseline struct {
	Tickers    []string
	Quantities []int
	LastPrices []float64
	Values     []float64
	Weights    []float64
	Total      float64
}

// NewBaseline computes the allocation vector and current weights.
func NewBaseline(portfolio domain.Portfolio, lastPrices []float64) (Baseline, error) {
	if len(lastPrices) != portfolio.Len() {
		return Baseline{}, fmt.Errorf("got %d prices for %d holdings", len(lastPrices), portfolio.Len())
	}

	b := Baseline{
		Tickers:    portfolio.Tickers(),
		Quantities: portfolio.Quantities(),
		LastPrices: append([]float64(nil), lastPrices...),
		Values:     make([]float64, portfolio.Len()),
		Weights:    make([]float64, portfolio.Len()),
	}
	for i, q := range b.Quantities {
		b.Values[i] = float64(q) * lastPrices[i]
		b.Total += b.Values[i]
	}
	for i, v := range b.Values {
		b.Weights[i] = v / b.Total
	}
	return b, nil
}

// Row is one ticker of the allocation table. Selected* fields are nil for
// the baseline view.
type Row struct {
	Ticker            string   `json:"ticker"`
	Quantity          int      `json:"quantity"`
	LastPrice         float64  `json:"last_price"`
	Value             float64  `json:"value"`
	WeightPct         float64  `json:"weight_pct"`
	SelectedWeightPct *float64 `json:"selected_weight_pct,omitempty"`
	SelectedValue     *float64 `json:"selected_value,omitempty"`
}

// Result is the allocation table for one selection.
type Result struct {
	Index int   `json:"index"`
	Rows  []Row `json:"rows"`
}

// Selected reports whether a front member is part of the table.
func (r Result) Selected() bool {
	return r.Index != BaselineIndex
}

// ValidateSelection checks idx against the front size. BaselineIndex is
// always valid.
func ValidateSelection(idx, frontSize int) error {
	if idx == BaselineIndex || (idx >= 0 && idx < frontSize) {
		return nil
	}
	return &domain.InvalidSelectionError{Index: idx, FrontSize: frontSize}
}

// Build produces the allocation table. idx must be BaselineIndex or a valid
// front index; callers check it with ValidateSelection first. The selected
// weights are renormalized to sum exactly to one before use, absorbing the
// optimizer's constraint tolerance.
func Build(baseline Baseline, front *optimization.Front, idx int) Result {
	rows := make([]Row, len(baseline.Tickers))
	for i, ticker := range baseline.Tickers {
		rows[i] = Row{
			Ticker:    ticker,
			Quantity:  baseline.Quantities[i],
			LastPrice: baseline.LastPrices[i],
			Value:     baseline.Values[i],
			WeightPct: baseline.Weights[i] * 100,
		}
	}

	if idx != BaselineIndex {
		selected := Normalize(front.Weights(idx))
		for i := range rows {
			pct := selected[i] * 100
			value := selected[i] * baseline.Total
			rows[i].SelectedWeightPct = &pct
			rows[i].SelectedValue = &value
		}
	}

	return Result{Index: idx, Rows: rows}
}

// Normalize divides a weight vector by its sum.
func Normalize(weights []float64) []float64 {
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	out := make([]float64, len(weights))
	for i, w := range weights {
		out[i] = w / sum
	}
	return out
}

// Table is a presentation-ready rendering of a Result.
type Table struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Formatted renders currency and percentage columns as display strings:
// prices to the cent, values truncated to whole currency units, weights to
// one decimal.
func (r Result) Formatted() Table {
	columns := []string{ColumnStock, ColumnQuantity, ColumnLastPrice, ColumnValue, ColumnWeight}
	if r.Selected() {
		columns = append(columns, ColumnSelectedWeight, ColumnSelectedValue)
	}

	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		cells := []string{
			row.Ticker,
			strconv.Itoa(row.Quantity),
			"$ " + strconv.FormatFloat(row.LastPrice, 'f', 2, 64),
			"$ " + formatWhole(row.Value),
			"% " + strconv.FormatFloat(RoundPct(row.WeightPct), 'f', 1, 64),
		}
		if r.Selected() {
			cells = append(cells,
				"% "+strconv.FormatFloat(RoundPct(*row.SelectedWeightPct), 'f', 1, 64),
				"$ "+formatWhole(*row.SelectedValue),
			)
		}
		rows[i] = cells
	}

	return Table{Columns: columns, Rows: rows}
}

// RoundPct rounds a percentage to one decimal.
func RoundPct(pct float64) float64 {
	return math.Round(pct*10) / 10
}

func formatWhole(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatInt(int64(v), 10)
}
