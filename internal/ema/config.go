package ema

import (
	"fmt"
	"math"
)

// Config holds the smoothing parameters for mastery updates.
// It is passed in explicitly; nothing in this package reads the environment.
type Config struct {
	// Alpha is the steady-state smoothing factor.
	Alpha float64
	// BootstrapAlpha is the heavier smoothing factor applied while an
	// outcome has fewer than BootstrapThreshold observations, so early
	// scores move the average faster.
	BootstrapAlpha float64
	// BootstrapThreshold is the observation count at which updates switch
	// from BootstrapAlpha to Alpha.
	BootstrapThreshold int
	// Enabled selects the EMA strategy; when false the legacy
	// direct-replacement strategy is used instead.
	Enabled bool
}

// DefaultConfig returns the standard smoothing parameters
func DefaultConfig() Config {
	return Config{
		Alpha:              0.3,
		BootstrapAlpha:     0.5,
		BootstrapThreshold: 3,
		Enabled:            true,
	}
}

// Validate checks that the parameters are finite and usable
func (c Config) Validate() error {
	if math.IsNaN(c.Alpha) || math.IsInf(c.Alpha, 0) || c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("%w: alpha %v not in (0, 1]", ErrInvalidConfig, c.Alpha)
	}
	if math.IsNaN(c.BootstrapAlpha) || math.IsInf(c.BootstrapAlpha, 0) || c.BootstrapAlpha <= 0 || c.BootstrapAlpha > 1 {
		return fmt.Errorf("%w: bootstrap alpha %v not in (0, 1]", ErrInvalidConfig, c.BootstrapAlpha)
	}
	if c.BootstrapAlpha < c.Alpha {
		return fmt.Errorf("%w: bootstrap alpha %v below alpha %v", ErrInvalidConfig, c.BootstrapAlpha, c.Alpha)
	}
	if c.BootstrapThreshold < 0 {
		return fmt.Errorf("%w: bootstrap threshold %d is negative", ErrInvalidConfig, c.BootstrapThreshold)
	}
	return nil
}
