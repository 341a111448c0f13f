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

// masteryRow is the persisted form of a mastery record
type masteryRow struct {
	StudentID    string `db:"student_id"`
	CourseID     string `db:"course_id"`
	EMAs         string `db:"ema_by_outcome"`
	Observations string `db:"observations_by_outcome"`
	UpdatedAt    string `db:"updated_at"`
}

// GetMastery returns the mastery record for a pair, or nil, nil when the
// student has no observations yet.
func (s *SQLStore) GetMastery(ctx context.Context, studentID, courseID string) (*models.MasteryRecord, error) {
	var row masteryRow
	query := s.db.Rebind(`
		SELECT student_id, course_id, ema_by_outcome, observations_by_outcome, updated_at
		FROM mastery_records
		WHERE student_id = ? AND course_id = ?
	`)
	err := s.db.GetContext(ctx, &row, query, studentID, courseID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mastery %s/%s: %w", studentID, courseID, err)
	}

	rec := &models.MasteryRecord{StudentID: row.StudentID, CourseID: row.CourseID}
	if err := json.Unmarshal([]byte(row.EMAs), &rec.EMAByOutcome); err != nil {
		return nil, fmt.Errorf("decode mastery %s/%s: %w", studentID, courseID, err)
	}
	if err := json.Unmarshal([]byte(row.Observations), &rec.ObservationsByOutcome); err != nil {
		return nil, fmt.Errorf("decode observations %s/%s: %w", studentID, courseID, err)
	}
	rec.UpdatedAt, err = parseTime(row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("decode mastery %s/%s: %w", studentID, courseID, err)
	}
	return rec, nil
}

// PutMastery creates or replaces the record for its pair
func (s *SQLStore) PutMastery(ctx context.Context, rec *models.MasteryRecord) error {
	emas, err := json.Marshal(rec.EMAByOutcome)
	if err != nil {
		return fmt.Errorf("encode mastery %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	obs, err := json.Marshal(rec.ObservationsByOutcome)
	if err != nil {
		return fmt.Errorf("encode observations %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}

	query := s.db.Rebind(`
		INSERT INTO mastery_records (student_id, course_id, ema_by_outcome, observations_by_outcome, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (student_id, course_id) DO UPDATE SET
			ema_by_outcome = excluded.ema_by_outcome,
			observations_by_outcome = excluded.observations_by_outcome,
			updated_at = excluded.updated_at
	`)
	_, err = s.db.ExecContext(ctx, query,
		rec.StudentID, rec.CourseID, string(emas), string(obs), formatTime(rec.UpdatedAt))
	if err != nil {
		return fmt.Errorf("put mastery %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	return nil
}

// formatTime renders a timestamp as RFC 3339 UTC for storage
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime reads a stored RFC 3339 timestamp; empty means zero time
func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
