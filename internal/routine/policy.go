// Package routine schedules when each learning outcome is next due for
// review. Mastery stretches the gap between reviews, regression shrinks it.
// All operations take explicit timestamps so callers control the clock.
package routine

import "math"

// PolicyVersion identifies the tier table below. It is stamped on every
// record this package maintains so a later policy revision can tell which
// rules produced a stored schedule.
const PolicyVersion = 1

// DefaultMaxIntervalDays caps how far out a review can be pushed.
const DefaultMaxIntervalDays = 30

// DefaultDaysSinceReview is assumed when an outcome has no due date yet.
const DefaultDaysSinceReview = 1

// IntervalPolicy maps current mastery to the days until the next review.
// The zero value uses DefaultMaxIntervalDays as the cap.
type IntervalPolicy struct {
	MaxIntervalDays float64
}

// NewIntervalPolicy returns the policy with the standard 30 day cap
func NewIntervalPolicy() IntervalPolicy {
	return IntervalPolicy{MaxIntervalDays: DefaultMaxIntervalDays}
}

// NextIntervalDays returns the review interval for an outcome:
//
//	EMA >= 0.8        max(7, days*2)
//	0.6 <= EMA < 0.8  max(3, days*1.5)
//	0.4 <= EMA < 0.6  max(1, days*1.2)
//	EMA < 0.4         1
//
// The result never exceeds the cap. Strong outcomes double their gap each
// round, weak ones come back tomorrow.
func (p IntervalPolicy) NextIntervalDays(currentEMA, daysSinceLastReview float64) float64 {
	var next float64
	switch {
	case currentEMA >= 0.8:
		next = math.Max(7, daysSinceLastReview*2)
	case currentEMA >= 0.6:
		next = math.Max(3, daysSinceLastReview*1.5)
	case currentEMA >= 0.4:
		next = math.Max(1, daysSinceLastReview*1.2)
	default:
		next = 1
	}
	limit := p.MaxIntervalDays
	if limit <= 0 {
		limit = DefaultMaxIntervalDays
	}
	return math.Min(next, limit)
}
