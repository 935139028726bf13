// Package montecarlo draws random feasible weight vectors and evaluates them
// to describe the attainable risk/return region. Samples are for display only
// and never feed the optimizer.
package montecarlo

import (
	"math/rand/v2"

	"github.com/aristath/frontier/internal/modules/statistics"
)

// DefaultSamples is the default size of the cloud.
const DefaultSamples = 5000

// Point is one evaluated sample.
type Point struct {
	EV float64 `json:"EV"`
	ER float64 `json:"ER"`
	SR float64 `json:"SR"`
}

// Cloud is the set of evaluated samples, in draw order.
type Cloud struct {
	Points []Point `json:"points"`
}

// Sampler draws weight vectors from a seeded source.
type Sampler struct {
	rng *rand.Rand
}

// NewSampler creates a sampler seeded deterministically.
func NewSampler(seed uint64) *Sampler {
	return &Sampler{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Weights draws one vector of independent U(0,1) values normalized by their
// sum. The result lies on the simplex but is not uniformly distributed
// over it.
func (s *Sampler) Weights(m int) []float64 {
	w := make([]float64, m)
	var sum float64
	for i := range w {
		w[i] = s.rng.Float64()
		sum += w[i]
	}
	for i := range w {
		w[i] /= sum
	}
	return w
}

// Sample evaluates n random weight vectors. n <= 0 uses DefaultSamples.
func (s *Sampler) Sample(stats *statistics.Statistics, n int) Cloud {
	if n <= 0 {
		n = DefaultSamples
	}

	points := make([]Point, n)
	for i := range points {
		w := s.Weights(stats.Len())
		er := stats.ExpectedReturn(w)
		ev := stats.Volatility(w)
		points[i] = Point{EV: ev, ER: er, SR: statistics.Sharpe(er, ev)}
	}

	return Cloud{Points: points}
}
