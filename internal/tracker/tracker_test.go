package tracker

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/learntrack/internal/database"
	"github.com/example/learntrack/internal/ema"
	"github.com/example/learntrack/pkg/models"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func (c *fixedClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestTracker(t *testing.T) (*Tracker, *database.MemoryStore, *fixedClock) {
	t.Helper()
	store := database.NewMemoryStore()
	clock := &fixedClock{now: t0}
	tr, err := New(store, store, Options{Clock: clock})
	require.NoError(t, err)
	return tr, store, clock
}

func TestRecordCompletionFirstSession(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	res, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 0.9})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.InDelta(t, 0.45, res.EMAByOutcome["o1"], 1e-12)
	require.Contains(t, res.Calcs, "o1")
	assert.True(t, res.Calcs["o1"].Bootstrapped)
	assert.Nil(t, res.Calcs["o1"].OldEMA)

	rec, err := store.GetMastery(ctx, "s1", "math")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.InDelta(t, 0.45, rec.EMAByOutcome["o1"], 1e-12)
	assert.Equal(t, 1, rec.ObservationsByOutcome["o1"])
	assert.True(t, rec.UpdatedAt.Equal(t0))

	sched, err := store.GetRoutine(ctx, "s1", "math")
	require.NoError(t, err)
	require.NotNil(t, sched)
	require.NotNil(t, sched.LastTaughtAt)
	assert.True(t, sched.LastTaughtAt.Equal(t0))
	assert.True(t, res.DueAtByOutcome["o1"].Equal(sched.DueAtByOutcome["o1"]))
	assert.True(t, sched.DueAtByOutcome["o1"].After(t0))
}

func TestRecordCompletionBootstrapThenSteadyState(t *testing.T) {
	tr, store, clock := newTestTracker(t)
	ctx := context.Background()

	// three bootstrapped sessions, then the steady-state alpha takes over
	want := []struct {
		ema          float64
		bootstrapped bool
	}{
		{0.45, true},
		{0.675, true},
		{0.7875, true},
		{0.3*0.9 + 0.7*0.7875, false},
	}
	for i, step := range want {
		res, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 0.9})
		require.NoError(t, err)
		assert.InDelta(t, step.ema, res.EMAByOutcome["o1"], 1e-9, "session %d", i+1)
		assert.Equal(t, step.bootstrapped, res.Calcs["o1"].Bootstrapped, "session %d", i+1)
		clock.advance(24 * time.Hour)
	}

	rec, err := store.GetMastery(ctx, "s1", "math")
	require.NoError(t, err)
	assert.Equal(t, 4, rec.ObservationsByOutcome["o1"])
}

func TestRecordCompletionLeavesUntouchedOutcomesAlone(t *testing.T) {
	tr, store, clock := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 0.8, "o2": 0.4})
	require.NoError(t, err)

	before, err := store.GetRoutine(ctx, "s1", "math")
	require.NoError(t, err)
	o1Due := before.DueAtByOutcome["o1"]

	clock.advance(6 * time.Hour)
	res, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o2": 0.9})
	require.NoError(t, err)
	assert.NotContains(t, res.DueAtByOutcome, "o1")
	assert.InDelta(t, 0.5*0.8, res.EMAByOutcome["o1"], 1e-12, "o1 mastery must carry over unchanged")

	after, err := store.GetRoutine(ctx, "s1", "math")
	require.NoError(t, err)
	assert.True(t, after.DueAtByOutcome["o1"].Equal(o1Due), "o1 due date must not move")

	rec, err := store.GetMastery(ctx, "s1", "math")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.ObservationsByOutcome["o1"])
	assert.Equal(t, 2, rec.ObservationsByOutcome["o2"])
}

func TestRecordCompletionRejectsNaN(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": math.NaN()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ema.ErrInvalidScore)

	rec, err := store.GetMastery(ctx, "s1", "math")
	require.NoError(t, err)
	assert.Nil(t, rec, "rejected batch must not create a record")
}

func TestRecordCompletionEmptyBatchIsANoop(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	res, err := tr.RecordCompletion(ctx, "s1", "math", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Empty(t, res.EMAByOutcome)

	rec, err := store.GetMastery(ctx, "s1", "math")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestRecordCompletionReschedulesEnrolledOutcome(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Enroll(ctx, "s1", "math", []string{"o1"}))

	clock.advance(5 * 24 * time.Hour)
	res, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 1.0})
	require.NoError(t, err)

	// first observation of 1.0 bootstraps to 0.5: max(1, 5*1.2) = 6 days
	wantDue := clock.now.Add(time.Duration(6 * 24 * float64(time.Hour)))
	assert.WithinDuration(t, wantDue, res.DueAtByOutcome["o1"], time.Second)
}

func TestEnrollMakesOutcomesImmediatelyOverdue(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Enroll(ctx, "s1", "math", []string{"o2", "o1"}))

	due, err := tr.Overdue(ctx, "s1", "math", t0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "o1", due[0].OutcomeID)
	assert.Equal(t, "o2", due[1].OutcomeID)

	none, err := tr.Overdue(ctx, "s1", "math", t0.Add(-time.Second))
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOverdueForUnknownStudentIsEmpty(t *testing.T) {
	tr, _, _ := newTestTracker(t)

	due, err := tr.Overdue(context.Background(), "ghost", "math", t0)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestScheduleAnnotatesOverdue(t *testing.T) {
	tr, _, clock := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.Enroll(ctx, "s1", "math", []string{"o1", "o2"}))
	clock.advance(time.Hour)
	_, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o2": 1.0})
	require.NoError(t, err)

	all, err := tr.Schedule(ctx, "s1", "math", clock.now)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "o1", all[0].OutcomeID)
	assert.True(t, all[0].Overdue)
	assert.Equal(t, "o2", all[1].OutcomeID)
	assert.False(t, all[1].Overdue)
}

func TestEnrollmentDistinguishesNeverStarted(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.Enrollment(ctx, "s1", "math")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotEnrolled)

	require.NoError(t, tr.Enroll(ctx, "s1", "math", []string{"o1"}))

	rec, err := tr.Enrollment(ctx, "s1", "math")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Contains(t, rec.DueAtByOutcome, "o1")
}

func TestEnrollFromCatalog(t *testing.T) {
	tr, store, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, store.PutOutcomes(ctx, []models.Outcome{
		{CourseID: "math", OutcomeID: "frac", Title: "Fractions", Position: 2},
		{CourseID: "math", OutcomeID: "add", Title: "Addition", Position: 1},
	}))

	require.NoError(t, tr.EnrollFromCatalog(ctx, "s1", "math", store))

	due, err := tr.Overdue(ctx, "s1", "math", t0)
	require.NoError(t, err)
	require.Len(t, due, 2)

	err = tr.EnrollFromCatalog(ctx, "s1", "history", store)
	require.Error(t, err)
}

func TestMarkTaughtCreatesBareRecord(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	require.NoError(t, tr.MarkTaught(ctx, "s1", "math", t0))

	rec, err := tr.Enrollment(ctx, "s1", "math")
	require.NoError(t, err)
	require.NotNil(t, rec.LastTaughtAt)
	assert.True(t, rec.LastTaughtAt.Equal(t0))
	assert.Empty(t, rec.DueAtByOutcome)
}

func TestMasterySnapshotIsDetached(t *testing.T) {
	tr, _, _ := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 0.9})
	require.NoError(t, err)

	snap, err := tr.Mastery(ctx, "s1", "math")
	require.NoError(t, err)
	snap["o1"] = 0.0

	again, err := tr.Mastery(ctx, "s1", "math")
	require.NoError(t, err)
	assert.InDelta(t, 0.45, again["o1"], 1e-12)

	empty, err := tr.Mastery(ctx, "ghost", "math")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestReplaceStrategyOverwritesMastery(t *testing.T) {
	store := database.NewMemoryStore()
	clock := &fixedClock{now: t0}
	tr, err := New(store, store, Options{
		Clock: clock,
		EMA: ema.Config{
			Alpha:              0.3,
			BootstrapAlpha:     0.5,
			BootstrapThreshold: 3,
			Enabled:            false,
		},
	})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 0.9})
	require.NoError(t, err)
	res, err := tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 0.2})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, res.EMAByOutcome["o1"], 1e-12, "replace strategy keeps only the latest score")
}

// failingRoutineStore forces schedule writes to fail while delegating
// everything else.
type failingRoutineStore struct {
	database.RoutineStore
	err error
}

func (s *failingRoutineStore) PutRoutine(ctx context.Context, rec *models.RoutineRecord) error {
	return s.err
}

func TestRecordCompletionKeepsMasteryWhenScheduleWriteFails(t *testing.T) {
	store := database.NewMemoryStore()
	clock := &fixedClock{now: t0}
	boom := errors.New("disk full")
	tr, err := New(store, &failingRoutineStore{RoutineStore: store, err: boom}, Options{Clock: clock})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = tr.RecordCompletion(ctx, "s1", "math", map[string]float64{"o1": 0.9})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	rec, getErr := store.GetMastery(ctx, "s1", "math")
	require.NoError(t, getErr)
	require.NotNil(t, rec, "observation evidence must survive the failed schedule write")
	assert.InDelta(t, 0.45, rec.EMAByOutcome["o1"], 1e-12)
}
