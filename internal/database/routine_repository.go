package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/example/learntrack/pkg/models"
)

// routineRow is the persisted form of a routine record
type routineRow struct {
	StudentID     string         `db:"student_id"`
	CourseID      string         `db:"course_id"`
	LastTaughtAt  sql.NullString `db:"last_taught_at"`
	DueByOutcome  string         `db:"due_at_by_outcome"`
	PolicyVersion int            `db:"spacing_policy_version"`
}

// GetRoutine returns the schedule for a pair, or nil, nil when the student
// has no enrollment yet.
func (s *SQLStore) GetRoutine(ctx context.Context, studentID, courseID string) (*models.RoutineRecord, error) {
	var row routineRow
	query := s.db.Rebind(`
		SELECT student_id, course_id, last_taught_at, due_at_by_outcome, spacing_policy_version
		FROM routine_records
		WHERE student_id = ? AND course_id = ?
	`)
	err := s.db.GetContext(ctx, &row, query, studentID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get routine %s/%s: %w", studentID, courseID, err)
	}

	rec := &models.RoutineRecord{
		StudentID:            row.StudentID,
		CourseID:             row.CourseID,
		SpacingPolicyVersion: row.PolicyVersion,
	}
	if err := json.Unmarshal([]byte(row.DueByOutcome), &rec.DueAtByOutcome); err != nil {
		return nil, fmt.Errorf("decode routine %s/%s: %w", studentID, courseID, err)
	}
	if row.LastTaughtAt.Valid && row.LastTaughtAt.String != "" {
		t, err := time.Parse(time.RFC3339Nano, row.LastTaughtAt.String)
		if err != nil {
			return nil, fmt.Errorf("decode routine %s/%s: %w", studentID, courseID, err)
		}
		rec.LastTaughtAt = &t
	}
	return rec, nil
}

// PutRoutine creates or replaces the schedule for its pair
func (s *SQLStore) PutRoutine(ctx context.Context, rec *models.RoutineRecord) error {
	due, err := json.Marshal(dueMapUTC(rec.DueAtByOutcome))
	if err != nil {
		return fmt.Errorf("encode routine %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	var lastTaught sql.NullString
	if rec.LastTaughtAt != nil {
		lastTaught = sql.NullString{String: formatTime(*rec.LastTaughtAt), Valid: true}
	}

	query := s.db.Rebind(`
		INSERT INTO routine_records (student_id, course_id, last_taught_at, due_at_by_outcome, spacing_policy_version)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			last_taught_at = excluded.last_taught_at,
			due_at_by_outcome = excluded.due_at_by_outcome,
			spacing_policy_version = excluded.spacing_policy_version
	`)
	_, err = s.db.ExecContext(ctx, query,
		rec.StudentID, rec.CourseID, lastTaught, string(due), rec.SpacingPolicyVersion)
	if err != nil {
		return fmt.Errorf("put routine %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	return nil
}

// Enrollments lists every pair with a stored schedule, ordered for
// deterministic sweeps.
func (s *SQLStore) Enrollments(ctx context.Context) ([]Enrollment, error) {
	var rows []struct {
		StudentID string `db:"student_id"`
		CourseID  string `db:"course_id"`
	}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT student_id, course_id FROM routine_records
		ORDER BY student_id ASC, course_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	out := make([]Enrollment, 0, len(rows))
	for _, r := range rows {
		out = append(out, Enrollment{StudentID: r.StudentID, CourseID: r.CourseID})
	}
	return out, nil
}

// dueMapUTC normalizes due dates to UTC so the stored JSON is uniform
func dueMapUTC(m map[string]time.Time) map[string]time.Time {
	if m == nil {
		return nil
	}
	out := make(map[string]time.Time, len(m))
	for k, v := range m {
		out[k] = v.UTC()
	}
	return out
}
