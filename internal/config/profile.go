package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aristath/frontier/internal/modules/analysis"
)

// Profile is the YAML shape of an analysis profile. Omitted fields keep
// their current value.
//
//	history_days: 365
//	samples: 5000
//	optimizer:
//	  population_size: 100
//	  generations: 1000
type Profile struct {
	HistoryDays      *int              `yaml:"history_days"`
	Samples          *int              `yaml:"samples"`
	SampleSeed       *uint64           `yaml:"sample_seed"`
	FetchConcurrency *int              `yaml:"fetch_concurrency"`
	Optimizer        *OptimizerProfile `yaml:"optimizer"`
}

// OptimizerProfile overrides optimizer settings.
type OptimizerProfile struct {
	PopulationSize *int     `yaml:"population_size"`
	Offspring      *int     `yaml:"offspring"`
	Generations    *int     `yaml:"generations"`
	Seed           *uint64  `yaml:"seed"`
	CrossoverProb  *float64 `yaml:"crossover_prob"`
	CrossoverEta   *float64 `yaml:"crossover_eta"`
	MutationEta    *float64 `yaml:"mutation_eta"`
	Tolerance      *float64 `yaml:"tolerance"`
	Penalty        *float64 `yaml:"penalty"`
	Workers        *int     `yaml:"workers"`
}

// ParseProfile decodes a YAML profile, rejecting unknown keys.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &p, nil
}

// ApplyProfile reads the YAML file at path and merges it into c.Analysis.
func (c *Config) ApplyProfile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read profile %s: %w", path, err)
	}
	p, err := ParseProfile(data)
	if err != nil {
		return err
	}
	c.Analysis = p.Apply(c.Analysis)
	return nil
}

// Apply returns s with every field set in the profile overridden.
func (p *Profile) Apply(s analysis.Settings) analysis.Settings {
	setInt(&s.HistoryDays, p.HistoryDays)
	setInt(&s.Samples, p.Samples)
	setUint(&s.SampleSeed, p.SampleSeed)
	setInt(&s.FetchConcurrency, p.FetchConcurrency)

	if o := p.Optimizer; o != nil {
		setInt(&s.Optimizer.PopulationSize, o.PopulationSize)
		setInt(&s.Optimizer.Offspring, o.Offspring)
		setInt(&s.Optimizer.Generations, o.Generations)
		setUint(&s.Optimizer.Seed, o.Seed)
		setFloat(&s.Optimizer.CrossoverProb, o.CrossoverProb)
		setFloat(&s.Optimizer.CrossoverEta, o.CrossoverEta)
		setFloat(&s.Optimizer.MutationEta, o.MutationEta)
		setFloat(&s.Optimizer.Tolerance, o.Tolerance)
		setFloat(&s.Optimizer.Penalty, o.Penalty)
		setInt(&s.Optimizer.Workers, o.Workers)
	}
	return s
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setUint(dst *uint64, v *uint64) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}
