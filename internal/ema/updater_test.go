package ema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestUpdater(t *testing.T) *Updater {
	t.Helper()
	u, err := NewUpdater(DefaultConfig())
	require.NoError(t, err)
	return u
}

func f(v float64) *float64 { return &v }

func TestUpdateFirstObservationBootstraps(t *testing.T) {
	u := newTestUpdater(t)

	got := u.Update(nil, 0.9, 0)

	assert.InDelta(t, 0.45, got.NewEMA, 1e-12)
	assert.InDelta(t, 0.5, got.EffectiveAlpha, 1e-12)
	assert.InDelta(t, 0.45, got.Change, 1e-12)
	assert.True(t, got.Bootstrapped)
	assert.True(t, got.FirstObservation)
}

func TestUpdateSecondObservationStillBootstrapped(t *testing.T) {
	u := newTestUpdater(t)

	got := u.Update(f(0.45), 0.9, 1)

	assert.InDelta(t, 0.675, got.NewEMA, 1e-12)
	assert.True(t, got.Bootstrapped)
	assert.False(t, got.FirstObservation)
}

func TestUpdateAtThresholdUsesSteadyAlpha(t *testing.T) {
	u := newTestUpdater(t)

	got := u.Update(f(0.675), 0.9, 3)

	assert.InDelta(t, 0.7425, got.NewEMA, 1e-12)
	assert.InDelta(t, 0.3, got.EffectiveAlpha, 1e-12)
	assert.False(t, got.Bootstrapped)
}

func TestUpdateStaysInRange(t *testing.T) {
	u := newTestUpdater(t)

	for _, old := range []*float64{nil, f(0), f(0.25), f(0.5), f(0.75), f(1)} {
		for _, score := range []float64{-5, -0.1, 0, 0.3, 0.9, 1, 1.1, 100} {
			for _, count := range []int{0, 1, 2, 3, 10} {
				got := u.Update(old, score, count)
				assert.GreaterOrEqual(t, got.NewEMA, 0.0)
				assert.LessOrEqual(t, got.NewEMA, 1.0)
			}
		}
	}
}

func TestUpdateClampsOutOfRangeScores(t *testing.T) {
	u := newTestUpdater(t)

	high := u.Update(f(0.5), 3.7, 10)
	assert.InDelta(t, 0.3*1+0.7*0.5, high.NewEMA, 1e-12)

	low := u.Update(f(0.5), -3.7, 10)
	assert.InDelta(t, 0.7*0.5, low.NewEMA, 1e-12)
}

func TestUpdateConvergesMonotonically(t *testing.T) {
	u := newTestUpdater(t)

	ema := 0.1
	target := 0.95
	for i := 0; i < 40; i++ {
		got := u.Update(&ema, target, 3+i)
		assert.Greater(t, got.NewEMA, ema, "step %d must move toward the observed value", i)
		assert.LessOrEqual(t, got.NewEMA, target)
		ema = got.NewEMA
	}
	assert.InDelta(t, target, ema, 1e-4)
}

func TestBootstrapMovesFurtherThanSteadyState(t *testing.T) {
	u := newTestUpdater(t)

	boot := u.Update(f(0.2), 0.9, 0)
	steady := u.Update(f(0.2), 0.9, 3)

	assert.Greater(t, math.Abs(boot.Change), math.Abs(steady.Change))
}

func TestRegressionLowersScore(t *testing.T) {
	u := newTestUpdater(t)

	got := u.Update(f(0.9), 0.2, 8)

	assert.Negative(t, got.Change)
	assert.Less(t, got.NewEMA, 0.9)
}

func TestReplaceOverwrites(t *testing.T) {
	var r Replace

	got := r.Update(f(0.2), 0.9, 7)
	assert.InDelta(t, 0.9, got.NewEMA, 1e-12)
	assert.InDelta(t, 0.7, got.Change, 1e-12)
	assert.False(t, got.Bootstrapped)

	clamped := r.Update(nil, 1.4, 0)
	assert.InDelta(t, 1.0, clamped.NewEMA, 1e-12)
	assert.True(t, clamped.FirstObservation)
}

func TestStrategyFor(t *testing.T) {
	cfg := DefaultConfig()

	s, err := StrategyFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, "ema", s.Name())

	cfg.Enabled = false
	s, err = StrategyFor(cfg)
	require.NoError(t, err)
	assert.Equal(t, "replace", s.Name())
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 0.0, Clamp01(math.Inf(-1)))
	assert.Equal(t, 0.3, Clamp01(0.3))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 1.0, Clamp01(math.Inf(1)))
}
