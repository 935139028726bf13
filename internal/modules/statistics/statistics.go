package statistics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/aristath/frontier/internal/domain"
)

// AssetStats are the per-ticker summary statistics of the return matrix.
// Volatility and ER are scaled by the observation count n (sqrt(n) and n)
// so they are consistent with the covariance matrix.
type AssetStats struct {
	Ticker     string  `json:"ticker"`
	Mean       float64 `json:"mean"`
	Var        float64 `json:"var"`
	Std        float64 `json:"std"`
	Volatility float64 `json:"volatility"`
	ER         float64 `json:"er"`
}

// Statistics is the read-only statistical model of one analysis run.
type Statistics struct {
	Tickers      []string
	Assets       []AssetStats
	Observations int
	Covariance   *mat.SymDense
	Correlation  *mat.SymDense

	er *mat.VecDense
}

// Dataset bundles everything the builder derives from the raw histories.
type Dataset struct {
	Prices  *PriceMatrix
	Returns *ReturnMatrix
	Stats   *Statistics
}

// Build aligns the histories, derives log returns and computes statistics.
func Build(tickers []string, series map[string][]domain.DailyBar) (*Dataset, error) {
	prices, err := Align(tickers, series)
	if err != nil {
		return nil, err
	}

	returns := LogReturns(prices)

	stats, err := Compute(returns)
	if err != nil {
		return nil, fmt.Errorf("failed to compute statistics: %w", err)
	}

	return &Dataset{Prices: prices, Returns: returns, Stats: stats}, nil
}

// Compute derives per-asset statistics, the correlation matrix and the
// covariance matrix scaled by the observation count.
func Compute(rm *ReturnMatrix) (*Statistics, error) {
	n, m := rm.Data.Dims()
	if n == 0 || m == 0 {
		return nil, fmt.Errorf("empty return matrix (%dx%d)", n, m)
	}
	if len(rm.Tickers) != m {
		return nil, fmt.Errorf("return matrix has %d columns but %d tickers", m, len(rm.Tickers))
	}

	scale := float64(n)
	assets := make([]AssetStats, m)
	er := mat.NewVecDense(m, nil)

	for j := 0; j < m; j++ {
		col := rm.Column(j)
		mean := stat.Mean(col, nil)
		variance := stat.Variance(col, nil)
		std := math.Sqrt(variance)

		assets[j] = AssetStats{
			Ticker:     rm.Tickers[j],
			Mean:       mean,
			Var:        variance,
			Std:        std,
			Volatility: std * math.Sqrt(scale),
			ER:         mean * scale,
		}
		er.SetVec(j, assets[j].ER)
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, rm.Data, nil)
	cov.ScaleSym(scale, &cov)

	var corr mat.SymDense
	stat.CorrelationMatrix(&corr, rm.Data, nil)

	return &Statistics{
		Tickers:      rm.Tickers,
		Assets:       assets,
		Observations: n,
		Covariance:   &cov,
		Correlation:  &corr,
		er:           er,
	}, nil
}

// NewStatistics builds a model directly from expected-return scores and a
// covariance matrix. Used when the statistics come from outside the builder
// (tests, cached runs).
func NewStatistics(tickers []string, er []float64, cov [][]float64) (*Statistics, error) {
	m := len(tickers)
	if len(er) != m || len(cov) != m {
		return nil, fmt.Errorf("dimension mismatch: %d tickers, %d returns, %d covariance rows", m, len(er), len(cov))
	}

	sym := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		if len(cov[i]) != m {
			return nil, fmt.Errorf("covariance row %d has size %d, expected %d", i, len(cov[i]), m)
		}
		for j := i; j < m; j++ {
			sym.SetSym(i, j, cov[i][j])
		}
	}

	assets := make([]AssetStats, m)
	for i, ticker := range tickers {
		vol := math.Sqrt(math.Max(sym.At(i, i), 0))
		assets[i] = AssetStats{Ticker: ticker, ER: er[i], Volatility: vol}
	}

	corr := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			corr.SetSym(i, j, sym.At(i, j)/math.Sqrt(sym.At(i, i)*sym.At(j, j)))
		}
	}

	return &Statistics{
		Tickers:     append([]string(nil), tickers...),
		Assets:      assets,
		Covariance:  sym,
		Correlation: corr,
		er:          mat.NewVecDense(m, append([]float64(nil), er...)),
	}, nil
}

// Len returns the number of assets.
func (s *Statistics) Len() int {
	return len(s.Tickers)
}

// ExpectedReturns returns the ER score of every asset.
func (s *Statistics) ExpectedReturns() []float64 {
	out := make([]float64, s.er.Len())
	for i := range out {
		out[i] = s.er.AtVec(i)
	}
	return out
}

// ExpectedReturn is the weighted sum of per-asset ER scores.
func (s *Statistics) ExpectedReturn(weights []float64) float64 {
	return mat.Dot(s.er, mat.NewVecDense(len(weights), weights))
}

// Volatility is sqrt(wᵀ·Cov·w). Tiny negative quadratic forms caused by
// rounding on a singular covariance are clamped to zero.
func (s *Statistics) Volatility(weights []float64) float64 {
	w := mat.NewVecDense(len(weights), weights)
	return math.Sqrt(math.Max(mat.Inner(w, s.Covariance, w), 0))
}

// CovarianceRows returns the covariance as a dense row slice.
func (s *Statistics) CovarianceRows() [][]float64 {
	return symRows(s.Covariance)
}

// CorrelationRows returns the correlation as a dense row slice.
func (s *Statistics) CorrelationRows() [][]float64 {
	return symRows(s.Correlation)
}

// Sharpe is er / ev. A zero volatility yields ±Inf or NaN rather than a
// failure; callers presenting the value must check math.IsInf/IsNaN.
func Sharpe(er, ev float64) float64 {
	return er / ev
}

func symRows(m *mat.SymDense) [][]float64 {
	n := m.SymmetricDim()
	rows := make([][]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			rows[i][j] = m.At(i, j)
		}
	}
	return rows
}
