package ema

import (
	"fmt"
	"math"
)

// OutcomeCalc records how one outcome moved during a batch update
type OutcomeCalc struct {
	OutcomeID      string
	OldEMA         *float64 // nil when the outcome had no prior value
	NewEMA         float64
	EffectiveAlpha float64
	Change         float64
	Bootstrapped   bool
	Observations   int // count used for the bootstrap decision
}

// Batch folds one observation batch into a set of mastery scores, one
// independent update per outcome. The returned map holds only the outcomes
// present in scores; outcomes missing from the batch are never touched, and
// callers overlay the result with Merge. Non-finite inputs are rejected up
// front with ErrInvalidScore, before any clamping.
func Batch(s Strategy, oldEMAs map[string]float64, scores map[string]float64, observations map[string]int) (map[string]float64, map[string]OutcomeCalc, error) {
	for id, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w: raw score %v for outcome %q", ErrInvalidScore, v, id)
		}
	}
	for id, v := range oldEMAs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("%w: stored mastery %v for outcome %q", ErrInvalidScore, v, id)
		}
	}

	updated := make(map[string]float64, len(scores))
	calcs := make(map[string]OutcomeCalc, len(scores))
	for id, score := range scores {
		var old *float64
		if v, ok := oldEMAs[id]; ok {
			v := v
			old = &v
		}
		count := observations[id]
		u := s.Update(old, score, count)
		updated[id] = u.NewEMA
		calcs[id] = OutcomeCalc{
			OutcomeID:      id,
			OldEMA:         old,
			NewEMA:         u.NewEMA,
			EffectiveAlpha: u.EffectiveAlpha,
			Change:         u.Change,
			Bootstrapped:   u.Bootstrapped,
			Observations:   count,
		}
	}
	return updated, calcs, nil
}

// Merge overlays updated values onto old ones without mutating either map
func Merge(old, updated map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(old)+len(updated))
	for k, v := range old {
		out[k] = v
	}
	for k, v := range updated {
		out[k] = v
	}
	return out
}
