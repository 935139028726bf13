// Package optimization searches for the Pareto front of (expected return,
// volatility) over portfolio weight vectors with an elitist NSGA-II style
// evolutionary algorithm. The sum-to-one constraint is soft: candidates
// outside the tolerance are penalized, never discarded.
package optimization

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/aristath/frontier/internal/domain"
	"github.com/aristath/frontier/internal/modules/statistics"
	"github.com/aristath/frontier/internal/progress"
)

// maxMatingAttempts bounds offspring generation when duplicates keep
// being produced, as a multiple of the offspring count.
const maxMatingAttempts = 100

// Optimizer runs the multi-objective search.
type Optimizer struct {
	settings Settings
	progress progress.Callback
	log      zerolog.Logger
}

// NewOptimizer creates an optimizer with the given settings.
func NewOptimizer(settings Settings, log zerolog.Logger) *Optimizer {
	return &Optimizer{
		settings: settings,
		log:      log.With().Str("component", "optimizer").Logger(),
	}
}

// SetProgress registers a callback invoked once per generation.
func (o *Optimizer) SetProgress(cb progress.Callback) {
	o.progress = cb
}

// Settings returns the optimizer's settings.
func (o *Optimizer) Settings() Settings {
	return o.settings
}

// Optimize runs the search for the assets of stats and returns the final
// non-dominated front. Fewer than two assets is a DegenerateProblemError;
// use SingleAssetFront for that case.
func (o *Optimizer) Optimize(ctx context.Context, stats *statistics.Statistics) (*Front, error) {
	m := stats.Len()
	if m < 2 {
		return nil, &domain.DegenerateProblemError{Assets: m}
	}
	if err := o.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid optimizer settings: %w", err)
	}

	s := o.settings
	start := time.Now()
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x5851f42d4c957f2d))
	pr := problem{stats: stats, tolerance: s.Tolerance, penalty: s.Penalty}
	capacity := s.PopulationSize + s.Offspring

	o.log.Info().
		Int("assets", m).
		Int("population", s.PopulationSize).
		Int("offspring", s.Offspring).
		Int("generations", s.Generations).
		Uint64("seed", s.Seed).
		Msg("Starting multi-objective optimization")

	current := newPopulation(capacity, m)
	next := newPopulation(capacity, m)

	genes := make([]float64, m)
	for current.len() < s.PopulationSize {
		for i := range genes {
			genes[i] = rng.Float64()
		}
		current.add(genes)
	}
	if err := o.evaluate(ctx, pr, current.members); err != nil {
		return nil, err
	}
	rankAndCrowd(current.members)
	evaluations := current.len()

	child1 := make([]float64, m)
	child2 := make([]float64, m)

	for gen := 1; gen <= s.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("optimization cancelled at generation %d: %w", gen, err)
		}

		parents := current.len()
		for attempts := 0; current.len() < capacity && attempts < s.Offspring*maxMatingAttempts; attempts++ {
			pool := current.members[:parents]
			a := tournament(rng, pool)
			b := tournament(rng, pool)
			sbx(rng, pool[a].genes, pool[b].genes, child1, child2, s.CrossoverProb, s.CrossoverEta)
			polynomialMutation(rng, child1, s.MutationEta)
			polynomialMutation(rng, child2, s.MutationEta)

			current.addUnique(child1)
			current.addUnique(child2)
		}

		offspring := current.members[parents:]
		if err := o.evaluate(ctx, pr, offspring); err != nil {
			return nil, err
		}
		evaluations += len(offspring)

		fronts := rankAndCrowd(current.members)
		keep := survivors(current.members, fronts, s.PopulationSize)

		next.reset()
		for _, i := range keep {
			next.addMember(&current.members[i])
		}
		current, next = next, current

		// Crowding distances must describe the surviving population for the
		// next round of tournaments.
		rankAndCrowd(current.members)

		progress.Call(o.progress, gen, s.Generations, "optimizing")
	}

	front := extractFront(stats.Tickers, current.members)
	front.Generations = s.Generations
	front.Evaluations = evaluations

	o.log.Info().
		Int("front_size", len(front.Solutions)).
		Int("evaluations", evaluations).
		Dur("duration", time.Since(start)).
		Msg("Optimization finished")

	return front, nil
}

// evaluate computes objectives for a slice of members, fanning out over
// Workers goroutines. Each goroutine writes only its own members so the
// result does not depend on scheduling.
func (o *Optimizer) evaluate(ctx context.Context, pr problem, members []individual) error {
	workers := o.settings.Workers
	if workers <= 1 || len(members) < 2*workers {
		for i := range members {
			pr.evaluate(&members[i])
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	chunk := (len(members) + workers - 1) / workers
	for lo := 0; lo < len(members); lo += chunk {
		part := members[lo:min(lo+chunk, len(members))]
		g.Go(func() error {
			for i := range part {
				pr.evaluate(&part[i])
			}
			return nil
		})
	}
	return g.Wait()
}
