package handlers

import (
	"math"
	"strconv"

	"github.com/aristath/frontier/internal/modules/analysis"
	"github.com/aristath/frontier/internal/modules/montecarlo"
	"github.com/aristath/frontier/internal/modules/statistics"
)

// Float encodes non-finite values (zero-volatility Sharpe ratios) as null.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

func floats(values []float64) []Float {
	out := make([]Float, len(values))
	for i, v := range values {
		out[i] = Float(v)
	}
	return out
}

func matrix(rows [][]float64) [][]Float {
	out := make([][]Float, len(rows))
	for i, row := range rows {
		out[i] = floats(row)
	}
	return out
}

// PointResponse is one (EV, ER, SR) point.
type PointResponse struct {
	EV Float `json:"EV"`
	ER Float `json:"ER"`
	SR Float `json:"SR"`
}

// SolutionResponse is one Pareto front member.
type SolutionResponse struct {
	Index   int     `json:"index"`
	ER      Float   `json:"ER"`
	EV      Float   `json:"EV"`
	SR      Float   `json:"SR"`
	Weights []Float `json:"weights"`
}

// FrontierResponse is the body of GET /frontier.
type FrontierResponse struct {
	Tickers     []string           `json:"tickers"`
	Front       []SolutionResponse `json:"front"`
	Current     PointResponse      `json:"current"`
	Cloud       []PointResponse    `json:"cloud"`
	Generations int                `json:"generations"`
	Evaluations int                `json:"evaluations"`
}

// AssetResponse is the per-stock statistics row.
type AssetResponse struct {
	Ticker     string `json:"ticker"`
	Mean       Float  `json:"mean"`
	Var        Float  `json:"var"`
	Std        Float  `json:"std"`
	Volatility Float  `json:"volatility"`
	ER         Float  `json:"ER"`
}

// StatisticsResponse is the body of GET /statistics.
type StatisticsResponse struct {
	Tickers      []string        `json:"tickers"`
	Observations int             `json:"observations"`
	Assets       []AssetResponse `json:"assets"`
	Correlation  [][]Float       `json:"correlation"`
	Covariance   [][]Float       `json:"covariance"`
}

func point(p montecarlo.Point) PointResponse {
	return PointResponse{EV: Float(p.EV), ER: Float(p.ER), SR: Float(p.SR)}
}

func frontierResponse(result *analysis.Result) FrontierResponse {
	front := make([]SolutionResponse, result.Front.Len())
	for i, sol := range result.Front.Solutions {
		front[i] = SolutionResponse{
			Index:   i,
			ER:      Float(sol.ER),
			EV:      Float(sol.EV),
			SR:      Float(sol.SR),
			Weights: floats(sol.Weights),
		}
	}

	cloud := make([]PointResponse, len(result.Cloud.Points))
	for i, p := range result.Cloud.Points {
		cloud[i] = point(p)
	}

	return FrontierResponse{
		Tickers:     result.Front.Tickers,
		Front:       front,
		Current:     point(result.Current),
		Cloud:       cloud,
		Generations: result.Front.Generations,
		Evaluations: result.Front.Evaluations,
	}
}

func statisticsResponse(stats *statistics.Statistics) StatisticsResponse {
	assets := make([]AssetResponse, len(stats.Assets))
	for i, a := range stats.Assets {
		assets[i] = AssetResponse{
			Ticker:     a.Ticker,
			Mean:       Float(a.Mean),
			Var:        Float(a.Var),
			Std:        Float(a.Std),
			Volatility: Float(a.Volatility),
			ER:         Float(a.ER),
		}
	}

	return StatisticsResponse{
		Tickers:      stats.Tickers,
		Observations: stats.Observations,
		Assets:       assets,
		Correlation:  matrix(stats.CorrelationRows()),
		Covariance:   matrix(stats.CovarianceRows()),
	}
}
