// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/aristath/frontier/internal/clients/yahoo"
	"github.com/aristath/frontier/internal/modules/analysis"
)

// Config holds application configuration
type Config struct {
	DataDir        string // Base directory for the cache database (always absolute)
	LogLevel       string
	LogPretty      bool
	Port           int
	DevMode        bool
	RequestTimeout time.Duration
	AllowedOrigins []string
	CacheTTL       time.Duration
	SessionTTL     time.Duration // Finished runs idle this long are dropped
	ProfilePath    string // Optional YAML file overriding analysis settings
	Yahoo          yahoo.Config
	Analysis       analysis.Settings
}

// CachePath returns the location of the price-history cache database.
func (c *Config) CachePath() string {
	return filepath.Join(c.DataDir, "cache.db")
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("FRONTIER_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	yahooCfg := yahoo.DefaultConfig()
	yahooCfg.BaseURL = getEnv("YAHOO_BASE_URL", yahooCfg.BaseURL)
	yahooCfg.RequestsPerSecond = getEnvAsFloat("YAHOO_REQUESTS_PER_SECOND", yahooCfg.RequestsPerSecond)
	yahooCfg.MaxRetries = getEnvAsInt("YAHOO_MAX_RETRIES", yahooCfg.MaxRetries)
	yahooCfg.Timeout = getEnvAsDuration("YAHOO_TIMEOUT", yahooCfg.Timeout)

	cfg := &Config{
		DataDir:        absDataDir,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      getEnvAsBool("LOG_PRETTY", false),
		Port:           getEnvAsInt("PORT", 8080),
		DevMode:        getEnvAsBool("DEV_MODE", false),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 60*time.Second),
		AllowedOrigins: []string{getEnv("CORS_ALLOWED_ORIGIN", "*")},
		CacheTTL:       getEnvAsDuration("CACHE_TTL", 12*time.Hour),
		SessionTTL:     getEnvAsDuration("SESSION_TTL", time.Hour),
		ProfilePath:    getEnv("FRONTIER_PROFILE", ""),
		Yahoo:          yahooCfg,
		Analysis:       analysis.DefaultSettings(),
	}

	if cfg.ProfilePath != "" {
		if err := cfg.ApplyProfile(cfg.ProfilePath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration is usable
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %s", c.CacheTTL)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session TTL must be positive, got %s", c.SessionTTL)
	}
	if c.Yahoo.RequestsPerSecond <= 0 {
		return fmt.Errorf("yahoo requests per second must be positive, got %g", c.Yahoo.RequestsPerSecond)
	}
	if c.Analysis.HistoryDays < 2 {
		return fmt.Errorf("history window must be at least 2 days, got %d", c.Analysis.HistoryDays)
	}
	if c.Analysis.Samples < 0 {
		return fmt.Errorf("sample count must be non-negative, got %d", c.Analysis.Samples)
	}
	if err := c.Analysis.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
