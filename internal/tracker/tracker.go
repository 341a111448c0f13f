// Package tracker ties the mastery calculator and the review scheduler to
// their stores. It owns the session-completion workflow: fold an
// observation batch into a student's mastery record, then reschedule every
// reviewed outcome.
//
// Records are read-modify-write at whole-record granularity with no
// optimistic concurrency, which is safe while a (student, course) pair has
// at most one writer at a time. Callers needing concurrent multi-device
// completion for one student must serialize per pair upstream.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/example/learntrack/internal/database"
	"github.com/example/learntrack/internal/ema"
	"github.com/example/learntrack/internal/routine"
	"github.com/example/learntrack/pkg/models"
)

// Options configures a Tracker. Zero values select the defaults: the
// standard EMA config, the standard interval policy, the system clock and
// a no-op logger.
type Options struct {
	// EMA selects and parameterizes the update strategy. The zero value
	// means ema.DefaultConfig(); to run the legacy replacement strategy
	// pass a fully populated config with Enabled false.
	EMA    ema.Config
	Policy routine.IntervalPolicy
	Clock  Clock
	Logger *zap.Logger
}

// Tracker orchestrates mastery updates and review scheduling for
// student/course pairs.
type Tracker struct {
	mastery   database.MasteryStore
	routines  database.RoutineStore
	strategy  ema.Strategy
	scheduler *routine.Scheduler
	clock     Clock
	log       *zap.Logger
}

// New wires a tracker to its stores
func New(mastery database.MasteryStore, routines database.RoutineStore, opts Options) (*Tracker, error) {
	if opts.EMA == (ema.Config{}) {
		opts.EMA = ema.DefaultConfig()
	}
	if opts.Policy == (routine.IntervalPolicy{}) {
		opts.Policy = routine.NewIntervalPolicy()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	strategy, err := ema.StrategyFor(opts.EMA)
	if err != nil {
		return nil, err
	}
	return &Tracker{
		mastery:   mastery,
		routines:  routines,
		strategy:  strategy,
		scheduler: routine.NewScheduler(opts.Policy),
		clock:     opts.Clock,
		log:       opts.Logger,
	}, nil
}

// CompletionResult reports what one recorded session changed
type CompletionResult struct {
	SessionID      string
	EMAByOutcome   map[string]float64 // full merged map after the update
	Calcs          map[string]ema.OutcomeCalc
	DueAtByOutcome map[string]time.Time // new due dates for the reviewed outcomes
}

// RecordCompletion folds a finished session's scores into the student's
// mastery record and reschedules each reviewed outcome. Outcomes absent
// from scores keep their mastery and due dates untouched. The mastery
// write commits before the schedule write; if the schedule write then
// fails the error says so, since the observation evidence is already
// durable.
func (t *Tracker) RecordCompletion(ctx context.Context, studentID, courseID string, scores map[string]float64) (*CompletionResult, error) {
	sessionID := uuid.NewString()
	if len(scores) == 0 {
		t.log.Debug("empty session batch, nothing to record",
			zap.String("session_id", sessionID),
			zap.String("student_id", studentID),
			zap.String("course_id", courseID))
		return &CompletionResult{
			SessionID:      sessionID,
			EMAByOutcome:   map[string]float64{},
			Calcs:          map[string]ema.OutcomeCalc{},
			DueAtByOutcome: map[string]time.Time{},
		}, nil
	}

	now := t.clock.Now()

	cur, err := t.mastery.GetMastery(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		cur = models.NewMasteryRecord(studentID, courseID)
	}

	updated, calcs, err := ema.Batch(t.strategy, cur.EMAByOutcome, scores, cur.ObservationsByOutcome)
	if err != nil {
		return nil, err
	}

	cur.EMAByOutcome = ema.Merge(cur.EMAByOutcome, updated)
	if cur.ObservationsByOutcome == nil {
		cur.ObservationsByOutcome = make(map[string]int, len(scores))
	}
	for id := range scores {
		cur.ObservationsByOutcome[id]++
	}
	cur.UpdatedAt = now

	if err := t.mastery.PutMastery(ctx, cur); err != nil {
		return nil, err
	}

	sched, err := t.routines.GetRoutine(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if sched == nil {
		sched = models.NewRoutineRecord(studentID, courseID)
	}

	dueAt := make(map[string]time.Time, len(scores))
	for id := range scores {
		dueAt[id] = t.scheduler.RecordReview(sched, id, cur.EMAByOutcome[id], now)
	}
	t.scheduler.SetLastTaught(sched, now)

	if err := t.routines.PutRoutine(ctx, sched); err != nil {
		t.log.Error("schedule write failed after mastery commit",
			zap.String("session_id", sessionID),
			zap.String("student_id", studentID),
			zap.String("course_id", courseID),
			zap.Error(err))
		return nil, fmt.Errorf("reschedule %s/%s (mastery already recorded): %w", studentID, courseID, err)
	}

	t.log.Info("session recorded",
		zap.String("session_id", sessionID),
		zap.String("student_id", studentID),
		zap.String("course_id", courseID),
		zap.String("strategy", t.strategy.Name()),
		zap.Int("outcomes", len(scores)))

	return &CompletionResult{
		SessionID:      sessionID,
		EMAByOutcome:   cur.EMAByOutcome,
		Calcs:          calcs,
		DueAtByOutcome: dueAt,
	}, nil
}
