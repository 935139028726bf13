package domain

import (
	"fmt"
	"strings"
)

// InsufficientDataError is returned when aligning the price histories of a
// portfolio leaves fewer than two common trading days.
type InsufficientDataError struct {
	Tickers []string
	Rows    int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient aligned price data for [%s]: %d rows (need at least 2)",
		strings.Join(e.Tickers, ", "), e.Rows)
}

// DataUnavailableError is returned by a history provider when a ticker has no
// usable price history.
type DataUnavailableError struct {
	Ticker string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("price history unavailable for %s: %v", e.Ticker, e.Err)
	}
	return fmt.Sprintf("price history unavailable for %s", e.Ticker)
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// DegenerateProblemError is returned by the optimizer when fewer than two
// assets are supplied.
type DegenerateProblemError struct {
	Assets int
}

func (e *DegenerateProblemError) Error() string {
	return fmt.Sprintf("degenerate optimization problem: %d asset(s), need at least 2", e.Assets)
}

// InvalidSelectionError is returned when a Pareto-front index is out of range.
type InvalidSelectionError struct {
	Index     int
	FrontSize int
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid selection %d: front has %d member(s)", e.Index, e.FrontSize)
}
