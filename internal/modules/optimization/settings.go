package optimization

import "fmt"

// Settings configures the evolutionary search.
type Settings struct {
	PopulationSize int     // survivors kept each generation
	Offspring      int     // children generated each generation
	Generations    int     // fixed number of generations, no early stop
	Seed           uint64  // random seed; equal seeds give identical fronts
	CrossoverProb  float64 // probability a mating applies SBX
	CrossoverEta   float64 // SBX distribution index
	MutationEta    float64 // polynomial mutation distribution index
	Tolerance      float64 // |sum(w)-1| allowed before a candidate is infeasible
	Penalty        float64 // weight of the constraint violation added to both objectives
	Workers        int     // parallel evaluation goroutines; <= 1 evaluates inline
}

// DefaultSettings returns the production search parameters.
func DefaultSettings() Settings {
	return Settings{
		PopulationSize: 100,
		Offspring:      30,
		Generations:    1000,
		Seed:           1,
		CrossoverProb:  0.9,
		CrossoverEta:   15,
		MutationEta:    20,
		Tolerance:      0.02,
		Penalty:        1000,
		Workers:        1,
	}
}

// Validate checks the settings are usable.
func (s Settings) Validate() error {
	if s.PopulationSize < 2 {
		return fmt.Errorf("population size must be at least 2, got %d", s.PopulationSize)
	}
	if s.Offspring < 1 {
		return fmt.Errorf("offspring per generation must be at least 1, got %d", s.Offspring)
	}
	if s.Generations < 0 {
		return fmt.Errorf("generations must be non-negative, got %d", s.Generations)
	}
	if s.CrossoverProb < 0 || s.CrossoverProb > 1 {
		return fmt.Errorf("crossover probability must be in [0,1], got %g", s.CrossoverProb)
	}
	if s.CrossoverEta <= 0 || s.MutationEta <= 0 {
		return fmt.Errorf("distribution indices must be positive (crossover %g, mutation %g)", s.CrossoverEta, s.MutationEta)
	}
	if s.Tolerance < 0 || s.Penalty < 0 {
		return fmt.Errorf("tolerance and penalty must be non-negative")
	}
	return nil
}
