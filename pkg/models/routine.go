package models

import "time"

// RoutineRecord holds the review schedule for a student/course pair
type RoutineRecord struct {
	StudentID            string               `json:"student_id"`
	CourseID             string               `json:"course_id"`
	LastTaughtAt         *time.Time           `json:"last_taught_at,omitempty"` // course granularity, not per outcome
	DueAtByOutcome       map[string]time.Time `json:"due_at_by_outcome"`        // outcome ID -> next review due date
	SpacingPolicyVersion int                  `json:"spacing_policy_version"`
}

// NewRoutineRecord creates an empty schedule for a student/course pair
func NewRoutineRecord(studentID, courseID string) *RoutineRecord {
	return &RoutineRecord{
		StudentID:      studentID,
		CourseID:       courseID,
		DueAtByOutcome: make(map[string]time.Time),
	}
}

// Clone returns a deep copy so callers can hand records across goroutines safely
func (r *RoutineRecord) Clone() *RoutineRecord {
	if r == nil {
		return nil
	}
	out := &RoutineRecord{
		StudentID:            r.StudentID,
		CourseID:             r.CourseID,
		SpacingPolicyVersion: r.SpacingPolicyVersion,
	}
	if r.LastTaughtAt != nil {
		t := *r.LastTaughtAt
		out.LastTaughtAt = &t
	}
	if r.DueAtByOutcome != nil {
		out.DueAtByOutcome = make(map[string]time.Time, len(r.DueAtByOutcome))
		for k, v := range r.DueAtByOutcome {
			out.DueAtByOutcome[k] = v
		}
	}
	return out
}

// ScheduledOutcome is one row of a schedule query result
type ScheduledOutcome struct {
	OutcomeID string    `json:"outcome_id"`
	DueAt     time.Time `json:"due_at"`
	Overdue   bool      `json:"overdue"`
}
