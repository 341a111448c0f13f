package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 0.3, cfg.EMA.Alpha)
	assert.Equal(t, 0.5, cfg.EMA.BootstrapAlpha)
	assert.Equal(t, 3, cfg.EMA.BootstrapThreshold)
	assert.True(t, cfg.EMA.Enabled)
	assert.Equal(t, float64(30), cfg.Routine.MaxIntervalDays)
	assert.True(t, cfg.Sweep.Enabled)
	assert.Equal(t, time.Hour, cfg.GetSweepEvery())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysYAMLOnDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: postgres
  dsn: postgres://localhost/learntrack?sslmode=disable
sweep:
  every: 30m
  start_hour: 9
  end_hour: 17
  enabled: true
log_level: debug
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*time.Minute, cfg.GetSweepEvery())
	assert.Equal(t, 9, cfg.Sweep.StartHour)
	assert.Equal(t, "debug", cfg.LogLevel)
	// untouched sections keep their defaults
	assert.Equal(t, 0.3, cfg.EMA.Alpha)
	assert.Equal(t, float64(30), cfg.Routine.MaxIntervalDays)
}

func TestEnvOverridesBeatYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: sqlite\n"), 0o644))

	t.Setenv("LEARNTRACK_DB_DRIVER", "memory")
	t.Setenv("LEARNTRACK_SWEEP_START_HOUR", "10")
	t.Setenv("LEARNTRACK_SWEEP_ENABLED", "false")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, 10, cfg.Sweep.StartHour)
	assert.False(t, cfg.Sweep.Enabled)
}

func TestBadEnvValuesAreIgnored(t *testing.T) {
	t.Setenv("LEARNTRACK_SWEEP_START_HOUR", "25")
	t.Setenv("LEARNTRACK_SWEEP_END_HOUR", "teatime")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Sweep.StartHour)
	assert.Equal(t, 20, cfg.Sweep.EndHour)
}

func TestGetSweepEveryFallsBackOnGarbage(t *testing.T) {
	cfg := Default()
	cfg.Sweep.Every = "often"
	assert.Equal(t, time.Hour, cfg.GetSweepEvery())

	cfg.Sweep.Every = "-5m"
	assert.Equal(t, time.Hour, cfg.GetSweepEvery())
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Database.Driver = "oracle" }},
		{"missing dsn", func(c *Config) { c.Database.DSN = "" }},
		{"alpha out of range", func(c *Config) { c.EMA.Alpha = 1.5 }},
		{"bootstrap below alpha", func(c *Config) { c.EMA.BootstrapAlpha = 0.1 }},
		{"negative cap", func(c *Config) { c.Routine.MaxIntervalDays = -1 }},
		{"start hour out of range", func(c *Config) { c.Sweep.StartHour = 24 }},
		{"start after end", func(c *Config) { c.Sweep.StartHour = 21; c.Sweep.EndHour = 8 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestMemoryDriverNeedsNoDSN(t *testing.T) {
	cfg := Default()
	cfg.Database.Driver = "memory"
	cfg.Database.DSN = ""
	assert.NoError(t, cfg.Validate())
}

func TestGetEMAConfigMirrorsFields(t *testing.T) {
	cfg := Default()
	cfg.EMA.Alpha = 0.4
	cfg.EMA.Enabled = false

	e := cfg.GetEMAConfig()
	assert.Equal(t, 0.4, e.Alpha)
	assert.Equal(t, 0.5, e.BootstrapAlpha)
	assert.Equal(t, 3, e.BootstrapThreshold)
	assert.False(t, e.Enabled)

	p := cfg.GetIntervalPolicy()
	assert.Equal(t, float64(30), p.MaxIntervalDays)
}
