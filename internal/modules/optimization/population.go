package optimization

import (
	"math"

	"github.com/aristath/frontier/internal/modules/statistics"
)

// individual is one candidate weight vector with its evaluation and ranking
// state. genes is a view into the owning population's arena.
type individual struct {
	genes      []float64
	objectives [2]float64 // -expected return, volatility
	penalized  [2]float64 // objectives + penalty * violation
	violation  float64
	rank       int
	crowding   float64
}

// population stores members in a fixed-capacity arena so generations reuse
// the same backing memory instead of allocating per individual.
type population struct {
	m       int
	arena   []float64
	members []individual
}

func newPopulation(capacity, m int) *population {
	return &population{
		m:       m,
		arena:   make([]float64, capacity*m),
		members: make([]individual, 0, capacity),
	}
}

func (p *population) len() int {
	return len(p.members)
}

func (p *population) full() bool {
	return len(p.members) == cap(p.members)
}

// add copies genes into the next free arena slot.
func (p *population) add(genes []float64) *individual {
	i := len(p.members)
	slot := p.arena[i*p.m : (i+1)*p.m : (i+1)*p.m]
	copy(slot, genes)
	p.members = append(p.members, individual{genes: slot})
	return &p.members[i]
}

// addMember copies a whole record, including its evaluation.
func (p *population) addMember(src *individual) {
	dst := p.add(src.genes)
	genes := dst.genes
	*dst = *src
	dst.genes = genes
}

func (p *population) reset() {
	p.members = p.members[:0]
}

// contains reports whether an identical gene vector is already present.
func (p *population) contains(genes []float64) bool {
	for i := range p.members {
		if sameGenes(p.members[i].genes, genes) {
			return true
		}
	}
	return false
}

// addUnique adds genes unless the population is full or already holds an
// identical vector. Duplicates would inflate one point's share of the front.
func (p *population) addUnique(genes []float64) bool {
	if p.full() || p.contains(genes) {
		return false
	}
	p.add(genes)
	return true
}

func sameGenes(a, b []float64) bool {
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-16 {
			return false
		}
	}
	return true
}

// problem evaluates candidates against the two objectives and the
// sum-to-one constraint.
type problem struct {
	stats     *statistics.Statistics
	tolerance float64
	penalty   float64
}

func (pr problem) evaluate(ind *individual) {
	er := pr.stats.ExpectedReturn(ind.genes)
	ev := pr.stats.Volatility(ind.genes)

	sum := 0.0
	for _, w := range ind.genes {
		sum += w
	}

	ind.objectives = [2]float64{-er, ev}
	ind.violation = math.Max(0, math.Abs(sum-1)-pr.tolerance)
	ind.penalized = [2]float64{
		ind.objectives[0] + pr.penalty*ind.violation,
		ind.objectives[1] + pr.penalty*ind.violation,
	}
}
