package routine

import (
	"sort"
	"time"

	"github.com/example/learntrack/pkg/models"
)

// Scheduler maintains the due-date map and last-taught timestamp of a
// routine record. It never reads the wall clock; every operation takes the
// relevant instant as an argument.
type Scheduler struct {
	policy IntervalPolicy
}

// NewScheduler returns a scheduler driven by the given interval policy
func NewScheduler(policy IntervalPolicy) *Scheduler {
	return &Scheduler{policy: policy}
}

// Initialize creates a schedule with every given outcome due at now, so a
// fresh enrollment is immediately eligible for an initial assessment.
// Callers gate this behind enrollment creation; re-running it overwrites
// the listed outcomes' schedules.
func (s *Scheduler) Initialize(studentID, courseID string, outcomeIDs []string, now time.Time) *models.RoutineRecord {
	rec := models.NewRoutineRecord(studentID, courseID)
	s.InitializeInto(rec, outcomeIDs, now)
	return rec
}

// InitializeInto resets the listed outcomes to due-at-now on an existing
// record, leaving any other outcomes' schedules alone.
func (s *Scheduler) InitializeInto(rec *models.RoutineRecord, outcomeIDs []string, now time.Time) {
	if rec.DueAtByOutcome == nil {
		rec.DueAtByOutcome = make(map[string]time.Time, len(outcomeIDs))
	}
	for _, id := range outcomeIDs {
		rec.DueAtByOutcome[id] = now
	}
	rec.SpacingPolicyVersion = PolicyVersion
}

// RecordReview reschedules one outcome after a review and returns its new
// due date. Days since the last review are measured from the outcome's
// current due date to reviewedAt; with no due date on file the default of
// one day applies, and an early review counts as zero days.
func (s *Scheduler) RecordReview(rec *models.RoutineRecord, outcomeID string, newEMA float64, reviewedAt time.Time) time.Time {
	if rec.DueAtByOutcome == nil {
		rec.DueAtByOutcome = make(map[string]time.Time)
	}
	days := float64(DefaultDaysSinceReview)
	if due, ok := rec.DueAtByOutcome[outcomeID]; ok {
		days = reviewedAt.Sub(due).Hours() / 24
		if days < 0 {
			days = 0
		}
	}
	interval := s.policy.NextIntervalDays(newEMA, days)
	next := reviewedAt.Add(time.Duration(interval * float64(24*time.Hour)))
	rec.DueAtByOutcome[outcomeID] = next
	rec.SpacingPolicyVersion = PolicyVersion
	return next
}

// SetLastTaught records the most recent teaching event. Course
// granularity, independent of the per-outcome schedules.
func (s *Scheduler) SetLastTaught(rec *models.RoutineRecord, at time.Time) {
	t := at
	rec.LastTaughtAt = &t
}

// Overdue returns the outcomes due at or before asOf, most stale first.
// A nil or empty record yields an empty schedule, not an error.
func (s *Scheduler) Overdue(rec *models.RoutineRecord, asOf time.Time) []models.ScheduledOutcome {
	if rec == nil {
		return nil
	}
	out := make([]models.ScheduledOutcome, 0, len(rec.DueAtByOutcome))
	for id, due := range rec.DueAtByOutcome {
		if due.After(asOf) {
			continue
		}
		out = append(out, models.ScheduledOutcome{OutcomeID: id, DueAt: due, Overdue: true})
	}
	sortByDueAt(out)
	return out
}

// AllScheduled returns every scheduled outcome in due-date order,
// flagging the ones already due as of asOf.
func (s *Scheduler) AllScheduled(rec *models.RoutineRecord, asOf time.Time) []models.ScheduledOutcome {
	if rec == nil {
		return nil
	}
	out := make([]models.ScheduledOutcome, 0, len(rec.DueAtByOutcome))
	for id, due := range rec.DueAtByOutcome {
		out = append(out, models.ScheduledOutcome{OutcomeID: id, DueAt: due, Overdue: !due.After(asOf)})
	}
	sortByDueAt(out)
	return out
}

// sortByDueAt orders ascending by due date; equal due dates fall back to
// the outcome ID so bulk-initialized schedules list deterministically.
func sortByDueAt(s []models.ScheduledOutcome) {
	sort.Slice(s, func(i, j int) bool {
		if s[i].DueAt.Equal(s[j].DueAt) {
			return s[i].OutcomeID < s[j].OutcomeID
		}
		return s[i].DueAt.Before(s[j].DueAt)
	})
}
