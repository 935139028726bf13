package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/frontier/internal/modules/analysis"
)

func TestLoad_Defaults(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	t.Setenv("FRONTIER_DATA_DIR", dir)
	t.Setenv("PORT", "")
	t.Setenv("FRONTIER_PROFILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.DataDir)
	assert.DirExists(t, dir)
	assert.Equal(t, filepath.Join(dir, "cache.db"), cfg.CachePath())
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.SessionTTL)
	assert.Equal(t, analysis.DefaultSettings(), cfg.Analysis)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("FRONTIER_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "9090")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("CACHE_TTL", "30m")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("YAHOO_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, 30*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 0.5, cfg.Yahoo.RequestsPerSecond)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("FRONTIER_DATA_DIR", t.TempDir())
	t.Setenv("PORT", "not-a-number")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.CacheTTL)
}

func TestLoad_WithProfile(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte(`
samples: 200
optimizer:
  population_size: 20
  generations: 50
  workers: 4
`), 0o644))

	t.Setenv("FRONTIER_DATA_DIR", dir)
	t.Setenv("FRONTIER_PROFILE", profile)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 200, cfg.Analysis.Samples)
	assert.Equal(t, 20, cfg.Analysis.Optimizer.PopulationSize)
	assert.Equal(t, 50, cfg.Analysis.Optimizer.Generations)
	assert.Equal(t, 4, cfg.Analysis.Optimizer.Workers)
	// untouched fields keep defaults
	assert.Equal(t, 30, cfg.Analysis.Optimizer.Offspring)
	assert.Equal(t, 0.02, cfg.Analysis.Optimizer.Tolerance)
}

func TestLoad_InvalidProfileRejected(t *testing.T) {
	dir := t.TempDir()
	profile := filepath.Join(dir, "profile.yaml")
	require.NoError(t, os.WriteFile(profile, []byte("optimizer:\n  population_size: 1\n"), 0o644))

	t.Setenv("FRONTIER_DATA_DIR", dir)
	t.Setenv("FRONTIER_PROFILE", profile)

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "population size")
}

func TestParseProfile(t *testing.T) {
	t.Run("unknown key", func(t *testing.T) {
		_, err := ParseProfile([]byte("generation: 10\n"))
		require.Error(t, err)
	})

	t.Run("empty document", func(t *testing.T) {
		p, err := ParseProfile(nil)
		require.NoError(t, err)
		assert.Equal(t, analysis.DefaultSettings(), p.Apply(analysis.DefaultSettings()))
	})

	t.Run("seed override", func(t *testing.T) {
		p, err := ParseProfile([]byte("sample_seed: 7\noptimizer:\n  seed: 42\n  penalty: 500\n"))
		require.NoError(t, err)
		s := p.Apply(analysis.DefaultSettings())
		assert.Equal(t, uint64(7), s.SampleSeed)
		assert.Equal(t, uint64(42), s.Optimizer.Seed)
		assert.Equal(t, 500.0, s.Optimizer.Penalty)
	})
}

func TestValidate(t *testing.T) {
	base := Config{
		Port:       8080,
		CacheTTL:   time.Hour,
		SessionTTL: time.Hour,
		Analysis:   analysis.DefaultSettings(),
	}
	base.Yahoo.RequestsPerSecond = 1
	require.NoError(t, base.Validate())

	bad := base
	bad.Port = 70000
	assert.Error(t, bad.Validate())

	bad = base
	bad.Analysis.HistoryDays = 1
	assert.Error(t, bad.Validate())

	bad = base
	bad.SessionTTL = 0
	assert.Error(t, bad.Validate())

	bad = base
	bad.Yahoo.RequestsPerSecond = 0
	assert.Error(t, bad.Validate())
}
