// Package ema maintains bounded mastery scores as exponential moving
// averages of raw performance observations. All functions are pure; stores
// and clocks live with the callers.
package ema

import "math"

// Update describes the result of folding one observation into a score
type Update struct {
	NewEMA           float64
	EffectiveAlpha   float64
	Change           float64 // NewEMA minus the prior value (0.0 when absent)
	Bootstrapped     bool    // true when BootstrapAlpha was applied
	FirstObservation bool    // true when no prior EMA existed
}

// Strategy turns one raw score observation into a new mastery value.
// Implementations are chosen once at construction time, not per call.
type Strategy interface {
	Name() string
	Update(oldEMA *float64, score float64, observations int) Update
}

// Updater is the EMA strategy with a fast-convergence bootstrap phase:
// while an outcome has seen fewer than BootstrapThreshold observations,
// the heavier BootstrapAlpha is used so the first few scores dominate.
type Updater struct {
	cfg Config
}

// NewUpdater validates cfg and returns an EMA updater bound to it
func NewUpdater(cfg Config) (*Updater, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Updater{cfg: cfg}, nil
}

func (u *Updater) Name() string { return "ema" }

// Update computes newEMA = alpha*score + (1-alpha)*old, clamped to [0,1].
// A nil oldEMA means no prior observation; the arithmetic uses 0.0 and the
// result is flagged as a first observation.
func (u *Updater) Update(oldEMA *float64, score float64, observations int) Update {
	score = Clamp01(score)
	alpha := u.cfg.Alpha
	bootstrapped := observations < u.cfg.BootstrapThreshold
	if bootstrapped {
		alpha = u.cfg.BootstrapAlpha
	}
	prev := 0.0
	first := oldEMA == nil
	if !first {
		prev = Clamp01(*oldEMA)
	}
	next := Clamp01(alpha*score + (1-alpha)*prev)
	return Update{
		NewEMA:           next,
		EffectiveAlpha:   alpha,
		Change:           next - prev,
		Bootstrapped:     bootstrapped,
		FirstObservation: first,
	}
}

// Replace is the legacy strategy: the latest score overwrites the stored
// value outright. Kept for callers migrating from pre-EMA data.
type Replace struct{}

func (Replace) Name() string { return "replace" }

func (Replace) Update(oldEMA *float64, score float64, observations int) Update {
	score = Clamp01(score)
	prev := 0.0
	first := oldEMA == nil
	if !first {
		prev = Clamp01(*oldEMA)
	}
	return Update{
		NewEMA:           score,
		EffectiveAlpha:   1,
		Change:           score - prev,
		FirstObservation: first,
	}
}

// StrategyFor returns the strategy cfg selects: the EMA updater when
// Enabled, plain replacement otherwise.
func StrategyFor(cfg Config) (Strategy, error) {
	if !cfg.Enabled {
		return Replace{}, nil
	}
	return NewUpdater(cfg)
}

// Clamp01 clamps v to [0, 1]
func Clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
