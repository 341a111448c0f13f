// Package database defines the persistence contracts for mastery and
// routine records and provides SQL, in-memory and bbolt backends. Domain
// code depends only on the interfaces, never on a concrete backend.
package database

import (
	"context"

	"github.com/example/learntrack/pkg/models"
)

// Enrollment identifies one (student, course) pair with stored state.
type Enrollment struct {
	StudentID string
	CourseID  string
}

// MasteryStore persists mastery records, one per (student, course) pair.
//
// Writes are full-record upserts: callers compute the complete merged
// record before calling PutMastery.
type MasteryStore interface {
	// GetMastery retrieves the record for a pair.
	// Returns nil, nil if no record exists (student not yet observed).
	GetMastery(ctx context.Context, studentID, courseID string) (*models.MasteryRecord, error)

	// PutMastery creates or replaces the record for its pair.
	PutMastery(ctx context.Context, rec *models.MasteryRecord) error
}

// RoutineStore persists review schedules with the same full-record-upsert
// contract as MasteryStore.
type RoutineStore interface {
	// GetRoutine retrieves the schedule for a pair.
	// Returns nil, nil if no schedule exists (student not yet enrolled).
	GetRoutine(ctx context.Context, studentID, courseID string) (*models.RoutineRecord, error)

	// PutRoutine creates or replaces the schedule for its pair.
	PutRoutine(ctx context.Context, rec *models.RoutineRecord) error
}

// OutcomeStore persists the course outcome catalog.
type OutcomeStore interface {
	// ListOutcomesByCourse returns a course's outcomes in catalog order.
	// An unknown course yields an empty slice, not an error.
	ListOutcomesByCourse(ctx context.Context, courseID string) ([]models.Outcome, error)

	// PutOutcomes upserts catalog entries keyed by (course, outcome).
	PutOutcomes(ctx context.Context, outcomes []models.Outcome) error
}

// EnrollmentLister enumerates every pair with a stored schedule. The sweep
// uses it to find students with reviews coming due; it is kept out of the
// core store contracts on purpose.
type EnrollmentLister interface {
	Enrollments(ctx context.Context) ([]Enrollment, error)
}

// Store bundles everything a fully wired backend provides.
type Store interface {
	MasteryStore
	RoutineStore
	OutcomeStore
	EnrollmentLister

	Close() error
}
