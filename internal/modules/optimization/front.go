package optimization

import (
	"fmt"

	"github.com/aristath/frontier/internal/modules/statistics"
)

// Solution is one member of the Pareto front.
type Solution struct {
	ER      float64   // expected return
	EV      float64   // volatility
	SR      float64   // ER / EV; non-finite when EV is zero
	Weights []float64 // raw weights, sum within the feasibility tolerance
}

// Front is the optimizer output, indexed 0..k-1 in emission order.
type Front struct {
	Tickers     []string
	Solutions   []Solution
	Generations int
	Evaluations int
}

// Len returns the number of front members.
func (f *Front) Len() int {
	return len(f.Solutions)
}

// Weights returns the raw weight vector of member idx.
func (f *Front) Weights(idx int) []float64 {
	return f.Solutions[idx].Weights
}

// extractFront takes the rank-0 members of the final population in
// population order and reports their true objectives. Members dominated on
// the raw (unpenalized) objectives by another rank-0 member are dropped so
// the emitted table is mutually non-dominated.
func extractFront(tickers []string, members []individual) *Front {
	var first []int
	for i := range members {
		if members[i].rank == 0 {
			first = append(first, i)
		}
	}

	solutions := make([]Solution, 0, len(first))
	for _, i := range first {
		dominated := false
		for _, j := range first {
			if i != j && dominates(members[j].objectives, members[i].objectives) {
				dominated = true
				break
			}
		}
		if dominated {
			continue
		}

		er := -members[i].objectives[0]
		ev := members[i].objectives[1]
		solutions = append(solutions, Solution{
			ER:      er,
			EV:      ev,
			SR:      statistics.Sharpe(er, ev),
			Weights: append([]float64(nil), members[i].genes...),
		})
	}

	return &Front{
		Tickers:   append([]string(nil), tickers...),
		Solutions: solutions,
	}
}

// SingleAssetFront is the shortcut for a one-asset portfolio: the only
// feasible allocation is weight 1.0.
func SingleAssetFront(stats *statistics.Statistics) (*Front, error) {
	if stats.Len() != 1 {
		return nil, fmt.Errorf("single-asset front requires exactly 1 asset, got %d", stats.Len())
	}

	w := []float64{1.0}
	er := stats.ExpectedReturn(w)
	ev := stats.Volatility(w)

	return &Front{
		Tickers: append([]string(nil), stats.Tickers...),
		Solutions: []Solution{{
			ER:      er,
			EV:      ev,
			SR:      statistics.Sharpe(er, ev),
			Weights: w,
		}},
	}, nil
}
