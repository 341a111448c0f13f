// Package config loads runtime configuration from defaults, an optional
// YAML file, and LEARNTRACK_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/example/learntrack/internal/ema"
	"github.com/example/learntrack/internal/routine"
)

// Config holds all learntrack configuration.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	EMA      EMAConfig      `yaml:"ema"`
	Routine  RoutineConfig  `yaml:"routine"`
	Sweep    SweepConfig    `yaml:"sweep"`
	LogLevel string         `yaml:"log_level"` // debug, info, warn, error
}

// DatabaseConfig selects the persistence backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, postgres, bolt, memory
	DSN    string `yaml:"dsn"`
}

// EMAConfig configures the mastery updater.
type EMAConfig struct {
	Alpha              float64 `yaml:"alpha"`
	BootstrapAlpha     float64 `yaml:"bootstrap_alpha"`
	BootstrapThreshold int     `yaml:"bootstrap_threshold"`
	Enabled            bool    `yaml:"enabled"`
}

// RoutineConfig configures review interval growth.
type RoutineConfig struct {
	MaxIntervalDays float64 `yaml:"max_interval_days"`
}

// SweepConfig configures the reminder sweep.
type SweepConfig struct {
	Every     string `yaml:"every"` // duration string, e.g. "1h"
	StartHour int    `yaml:"start_hour"`
	EndHour   int    `yaml:"end_hour"`
	Enabled   bool   `yaml:"enabled"`
}

// Default returns the default configuration.
func Default() *Config {
	e := ema.DefaultConfig()
	return &Config{
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data/learntrack.db",
		},
		EMA: EMAConfig{
			Alpha:              e.Alpha,
			BootstrapAlpha:     e.BootstrapAlpha,
			BootstrapThreshold: e.BootstrapThreshold,
			Enabled:            e.Enabled,
		},
		Routine: RoutineConfig{
			MaxIntervalDays: routine.DefaultMaxIntervalDays,
		},
		Sweep: SweepConfig{
			Every:     "1h",
			StartHour: 8,
			EndHour:   20,
			Enabled:   true,
		},
		LogLevel: "info",
	}
}

// Load reads configuration from a YAML file. A missing file is not an
// error: defaults plus environment overrides are returned instead.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies LEARNTRACK_* environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("LEARNTRACK_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("LEARNTRACK_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("LEARNTRACK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("LEARNTRACK_SWEEP_EVERY"); v != "" {
		c.Sweep.Every = v
	}
	if v := os.Getenv("LEARNTRACK_SWEEP_START_HOUR"); v != "" {
		if hour, err := strconv.Atoi(v); err == nil && hour >= 0 && hour < 24 {
			c.Sweep.StartHour = hour
		}
	}
	if v := os.Getenv("LEARNTRACK_SWEEP_END_HOUR"); v != "" {
		if hour, err := strconv.Atoi(v); err == nil && hour >= 0 && hour < 24 {
			c.Sweep.EndHour = hour
		}
	}
	if v := os.Getenv("LEARNTRACK_SWEEP_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Sweep.Enabled = enabled
		}
	}
}

// ValidDrivers lists the supported database drivers.
var ValidDrivers = []string{"sqlite", "postgres", "bolt", "memory"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validDriver := false
	for _, d := range ValidDrivers {
		if c.Database.Driver == d {
			validDriver = true
			break
		}
	}
	if !validDriver {
		return fmt.Errorf("invalid database driver: %s (valid: %v)", c.Database.Driver, ValidDrivers)
	}
	if c.Database.Driver != "memory" && c.Database.DSN == "" {
		return fmt.Errorf("database dsn is required for driver %s", c.Database.Driver)
	}

	if err := c.GetEMAConfig().Validate(); err != nil {
		return err
	}
	if c.Routine.MaxIntervalDays < 0 {
		return fmt.Errorf("routine max_interval_days cannot be negative")
	}

	if c.Sweep.StartHour < 0 || c.Sweep.StartHour > 23 || c.Sweep.EndHour < 0 || c.Sweep.EndHour > 23 {
		return fmt.Errorf("sweep hours must be between 0 and 23")
	}
	if c.Sweep.StartHour > c.Sweep.EndHour {
		return fmt.Errorf("sweep start_hour %d is after end_hour %d", c.Sweep.StartHour, c.Sweep.EndHour)
	}
	return nil
}

// GetEMAConfig returns the mastery updater configuration.
func (c *Config) GetEMAConfig() ema.Config {
	return ema.Config{
		Alpha:              c.EMA.Alpha,
		BootstrapAlpha:     c.EMA.BootstrapAlpha,
		BootstrapThreshold: c.EMA.BootstrapThreshold,
		Enabled:            c.EMA.Enabled,
	}
}

// GetIntervalPolicy returns the review spacing policy.
func (c *Config) GetIntervalPolicy() routine.IntervalPolicy {
	return routine.IntervalPolicy{MaxIntervalDays: c.Routine.MaxIntervalDays}
}

// GetSweepEvery returns the sweep cadence as a duration.
func (c *Config) GetSweepEvery() time.Duration {
	d, err := time.ParseDuration(c.Sweep.Every)
	if err != nil || d <= 0 {
		return time.Hour
	}
	return d
}
