package optimization

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/statistics"
)

func threeAssets(t *testing.T) *statistics.Statistics {
	t.Helper()
	s, err := statistics.NewStatistics([]string{"A", "B", "C"}, []float64{0.12, 0.08, 0.10}, [][]float64{
		{0.04, 0.01, 0.005},
		{0.01, 0.03, 0.008},
		{0.005, 0.008, 0.025},
	})
	require.NoError(t, err)
	return s
}

func smallSettings() Settings {
	s := DefaultSettings()
	s.PopulationSize = 40
	s.Offspring = 20
	s.Generations = 200
	return s
}

func TestOptimize_FrontIsNonDominated(t *testing.T) {
	front, err := NewOptimizer(smallSettings(), zerolog.Nop()).Optimize(context.Background(), threeAssets(t))
	require.NoError(t, err)
	require.NotZero(t, front.Len())

	for i, a := range front.Solutions {
		for j, b := range front.Solutions {
			if i == j {
				continue
			}
			aDominatesB := a.ER >= b.ER && a.EV <= b.EV && (a.ER > b.ER || a.EV < b.EV)
			assert.False(t, aDominatesB, "row %d dominates row %d", i, j)
		}
	}
}

func TestOptimize_SolutionsAreBoundedAndConsistent(t *testing.T) {
	stats := threeAssets(t)
	front, err := NewOptimizer(smallSettings(), zerolog.Nop()).Optimize(context.Background(), stats)
	require.NoError(t, err)

	bestER := math.Inf(-1)
	for _, sol := range front.Solutions {
		require.Len(t, sol.Weights, 3)
		for _, w := range sol.Weights {
			assert.GreaterOrEqual(t, w, 0.0)
			assert.LessOrEqual(t, w, 1.0)
		}
		assert.GreaterOrEqual(t, sol.EV, 0.0)
		assert.InDelta(t, stats.ExpectedReturn(sol.Weights), sol.ER, 1e-12)
		assert.InDelta(t, stats.Volatility(sol.Weights), sol.EV, 1e-12)
		assert.InDelta(t, sol.ER/sol.EV, sol.SR, 1e-12)
		bestER = math.Max(bestER, sol.ER)
	}

	// The high-return end of the front should approach the best single asset.
	assert.Greater(t, bestER, 0.115)
	assert.Equal(t, []string{"A", "B", "C"}, front.Tickers)
	assert.Equal(t, 200, front.Generations)
}

func TestOptimize_Deterministic(t *testing.T) {
	stats := threeAssets(t)
	settings := smallSettings()
	settings.Generations = 60

	first, err := NewOptimizer(settings, zerolog.Nop()).Optimize(context.Background(), stats)
	require.NoError(t, err)
	second, err := NewOptimizer(settings, zerolog.Nop()).Optimize(context.Background(), stats)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	// Parallel evaluation does not change the result.
	settings.Workers = 4
	parallel, err := NewOptimizer(settings, zerolog.Nop()).Optimize(context.Background(), stats)
	require.NoError(t, err)
	assert.Equal(t, first, parallel)

	settings.Workers = 1
	settings.Seed = 99
	other, err := NewOptimizer(settings, zerolog.Nop()).Optimize(context.Background(), stats)
	require.NoError(t, err)
	assert.NotEqual(t, first.Solutions, other.Solutions)
}

func TestOptimize_DegenerateSingleAsset(t *testing.T) {
	stats, err := statistics.NewStatistics([]string{"A"}, []float64{0.1}, [][]float64{{0.04}})
	require.NoError(t, err)

	_, err = NewOptimizer(DefaultSettings(), zerolog.Nop()).Optimize(context.Background(), stats)

	var degenerate *domain.DegenerateProblemError
	require.True(t, errors.As(err, &degenerate))
	assert.Equal(t, 1, degenerate.Assets)

	front, err := SingleAssetFront(stats)
	require.NoError(t, err)
	require.Equal(t, 1, front.Len())
	assert.Equal(t, []float64{1.0}, front.Weights(0))
	assert.InDelta(t, 0.1, front.Solutions[0].ER, 1e-12)
	assert.InDelta(t, 0.2, front.Solutions[0].EV, 1e-12)
}

func TestSingleAssetFront_RejectsMultipleAssets(t *testing.T) {
	_, err := SingleAssetFront(threeAssets(t))
	assert.Error(t, err)
}

func TestOptimize_ReportsProgressAndHonoursCancellation(t *testing.T) {
	settings := smallSettings()
	settings.Generations = 10

	calls := 0
	opt := NewOptimizer(settings, zerolog.Nop())
	opt.SetProgress(func(current, total int, message string) {
		calls++
		assert.Equal(t, 10, total)
	})
	_, err := opt.Optimize(context.Background(), threeAssets(t))
	require.NoError(t, err)
	assert.Equal(t, 10, calls)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = opt.Optimize(ctx, threeAssets(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptimize_ZeroVolatilityDoesNotCrash(t *testing.T) {
	stats, err := statistics.NewStatistics([]string{"A", "B"}, []float64{0.1, 0.05}, [][]float64{{0, 0}, {0, 0}})
	require.NoError(t, err)

	settings := smallSettings()
	settings.Generations = 20
	front, err := NewOptimizer(settings, zerolog.Nop()).Optimize(context.Background(), stats)
	require.NoError(t, err)
	require.NotZero(t, front.Len())
	for _, sol := range front.Solutions {
		assert.Equal(t, 0.0, sol.EV)
	}
}

func TestSettings_Validate(t *testing.T) {
	assert.NoError(t, DefaultSettings().Validate())

	bad := DefaultSettings()
	bad.PopulationSize = 1
	assert.Error(t, bad.Validate())

	bad = DefaultSettings()
	bad.Offspring = 0
	assert.Error(t, bad.Validate())

	bad = DefaultSettings()
	bad.CrossoverProb = 1.5
	assert.Error(t, bad.Validate())
}
