package tracker

import (
	"context"
	"time"

	"github.com/example/learntrack/pkg/models"
)

// Overdue returns the outcomes due at or before asOf, most stale first.
// A student with no schedule gets an empty list.
func (t *Tracker) Overdue(ctx context.Context, studentID, courseID string, asOf time.Time) ([]models.ScheduledOutcome, error) {
	sched, err := t.routines.GetRoutine(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return t.scheduler.Overdue(sched, asOf), nil
}

// Schedule returns every scheduled outcome in due-date order, with the
// ones already due flagged.
func (t *Tracker) Schedule(ctx context.Context, studentID, courseID string, asOf time.Time) ([]models.ScheduledOutcome, error) {
	sched, err := t.routines.GetRoutine(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	return t.scheduler.AllScheduled(sched, asOf), nil
}

// Mastery returns a snapshot of the student's per-outcome scores. A
// student with no record gets an empty map, indistinguishable from zero
// progress on every outcome.
func (t *Tracker) Mastery(ctx context.Context, studentID, courseID string) (map[string]float64, error) {
	rec, err := t.mastery.GetMastery(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64)
	if rec != nil {
		for k, v := range rec.EMAByOutcome {
			out[k] = v
		}
	}
	return out, nil
}
