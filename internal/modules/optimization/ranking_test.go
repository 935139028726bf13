package optimization

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func members(points ...[2]float64) []individual {
	out := make([]individual, len(points))
	for i, p := range points {
		out[i] = individual{penalized: p, objectives: p}
	}
	return out
}

func TestDominates(t *testing.T) {
	assert.True(t, dominates([2]float64{1, 1}, [2]float64{2, 2}))
	assert.True(t, dominates([2]float64{1, 2}, [2]float64{1, 3}))
	assert.False(t, dominates([2]float64{1, 1}, [2]float64{1, 1}))
	assert.False(t, dominates([2]float64{1, 3}, [2]float64{2, 2}))
}

func TestNonDominatedSort_Fronts(t *testing.T) {
	pop := members(
		[2]float64{1, 4}, // front 0
		[2]float64{2, 2}, // front 0
		[2]float64{4, 1}, // front 0
		[2]float64{3, 3}, // front 1 (dominated by {2,2})
		[2]float64{5, 5}, // front 2
	)

	fronts := nonDominatedSort(pop)

	require.Len(t, fronts, 3)
	assert.Equal(t, []int{0, 1, 2}, fronts[0])
	assert.Equal(t, []int{3}, fronts[1])
	assert.Equal(t, []int{4}, fronts[2])
	assert.Equal(t, 1, pop[3].rank)
	assert.Equal(t, 2, pop[4].rank)
}

func TestAssignCrowding_BoundariesInfinite(t *testing.T) {
	pop := members(
		[2]float64{0, 4},
		[2]float64{1, 3},
		[2]float64{3, 1},
		[2]float64{4, 0},
	)
	front := []int{0, 1, 2, 3}

	assignCrowding(pop, front)

	assert.True(t, math.IsInf(pop[0].crowding, 1))
	assert.True(t, math.IsInf(pop[3].crowding, 1))
	// Interior: (3-0)/4 + (4-1)/4 for both middle points
	assert.InDelta(t, 1.5, pop[1].crowding, 1e-12)
	assert.InDelta(t, 1.5, pop[2].crowding, 1e-12)
}

func TestAssignCrowding_SmallFront(t *testing.T) {
	pop := members([2]float64{0, 1}, [2]float64{1, 0})
	assignCrowding(pop, []int{0, 1})

	assert.True(t, math.IsInf(pop[0].crowding, 1))
	assert.True(t, math.IsInf(pop[1].crowding, 1))
}

func TestAssignCrowding_FlatObjective(t *testing.T) {
	pop := members([2]float64{1, 0}, [2]float64{1, 1}, [2]float64{1, 2})
	assignCrowding(pop, []int{0, 1, 2})

	assert.False(t, math.IsNaN(pop[1].crowding))
	assert.InDelta(t, 1.0, pop[1].crowding, 1e-12)
}

func TestBetter_TieBreaks(t *testing.T) {
	a := &individual{rank: 0, crowding: 1}
	b := &individual{rank: 1, crowding: 5}
	assert.True(t, better(a, b))

	c := &individual{rank: 0, crowding: 2}
	assert.True(t, better(c, a))

	d := &individual{rank: 0, crowding: 1, violation: 0.1}
	assert.True(t, better(a, d))
	assert.False(t, better(a, a))
}

func TestSurvivors_SplitsLastFrontByCrowding(t *testing.T) {
	pop := members(
		[2]float64{0, 4},
		[2]float64{1, 3},
		[2]float64{2, 2.5},
		[2]float64{4, 0},
		[2]float64{5, 5},
	)
	fronts := rankAndCrowd(pop)

	keep := survivors(pop, fronts, 3)

	require.Len(t, keep, 3)
	// Both boundary points survive, plus the interior point with the larger gap.
	assert.Contains(t, keep, 0)
	assert.Contains(t, keep, 3)
	assert.NotContains(t, keep, 4)
}
