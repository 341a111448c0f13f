package tracker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/example/learntrack/internal/database"
	"github.com/example/learntrack/pkg/models"
)

// ErrNotEnrolled is returned by Enrollment when no schedule exists for the
// pair. Every other read path treats a missing record as an empty starting
// state; here "never started" is the answer the caller asked for.
var ErrNotEnrolled = errors.New("tracker: student has no enrollment for course")

// Enroll creates or refreshes the schedule for the listed outcomes, each
// due immediately. Existing outcomes not listed keep their schedules.
// Callers gate this behind enrollment creation; rerunning it resets the
// listed outcomes to due-now.
func (t *Tracker) Enroll(ctx context.Context, studentID, courseID string, outcomeIDs []string) error {
	now := t.clock.Now()
	sched, err := t.routines.GetRoutine(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	if sched == nil {
		sched = t.scheduler.Initialize(studentID, courseID, outcomeIDs, now)
	} else {
		t.scheduler.InitializeInto(sched, outcomeIDs, now)
	}
	if err := t.routines.PutRoutine(ctx, sched); err != nil {
		return err
	}
	t.log.Info("enrollment initialized",
		zap.String("student_id", studentID),
		zap.String("course_id", courseID),
		zap.Int("outcomes", len(outcomeIDs)))
	return nil
}

// EnrollFromCatalog enrolls a student in every outcome the catalog lists
// for the course.
func (t *Tracker) EnrollFromCatalog(ctx context.Context, studentID, courseID string, catalog database.OutcomeStore) error {
	outcomes, err := catalog.ListOutcomesByCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		return fmt.Errorf("course %s has no outcomes in the catalog", courseID)
	}
	ids := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		ids = append(ids, o.OutcomeID)
	}
	return t.Enroll(ctx, studentID, courseID, ids)
}

// Enrollment returns the stored schedule, or ErrNotEnrolled when the pair
// has none.
func (t *Tracker) Enrollment(ctx context.Context, studentID, courseID string) (*models.RoutineRecord, error) {
	rec, err := t.routines.GetRoutine(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotEnrolled, studentID, courseID)
	}
	return rec, nil
}

// MarkTaught records a teaching event at course granularity without
// touching any outcome's schedule.
func (t *Tracker) MarkTaught(ctx context.Context, studentID, courseID string, at time.Time) error {
	sched, err := t.routines.GetRoutine(ctx, studentID, courseID)
	if err != nil {
		return err
	}
	if sched == nil {
		sched = models.NewRoutineRecord(studentID, courseID)
	}
	t.scheduler.SetLastTaught(sched, at)
	return t.routines.PutRoutine(ctx, sched)
}
