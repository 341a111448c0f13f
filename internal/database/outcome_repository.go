package database

import (
	"context"
	"fmt"

	"github.com/example/learntrack/pkg/models"
)

// outcomeRow is the persisted form of a catalog entry
type outcomeRow struct {
	CourseID    string `db:"course_id"`
	OutcomeID   string `db:"outcome_id"`
	Title       string `db:"title"`
	Strand      string `db:"strand"`
	Description string `db:"description"`
	Position    int    `db:"position"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

// ListOutcomesByCourse returns a course's outcomes in catalog order
func (s *SQLStore) ListOutcomesByCourse(ctx context.Context, courseID string) ([]models.Outcome, error) {
	var rows []outcomeRow
	query := s.db.Rebind(`
		SELECT course_id, outcome_id, title, strand, description, position, created_at, updated_at
		FROM outcomes
		WHERE course_id = ?
		ORDER BY position ASC, outcome_id ASC
	`)
	if err := s.db.SelectContext(ctx, &rows, query, courseID); err != nil {
		return nil, fmt.Errorf("list outcomes for %s: %w", courseID, err)
	}

	out := make([]models.Outcome, 0, len(rows))
	for _, r := range rows {
		created, err := parseTime(r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode outcome %s/%s: %w", r.CourseID, r.OutcomeID, err)
		}
		updated, err := parseTime(r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("decode outcome %s/%s: %w", r.CourseID, r.OutcomeID, err)
		}
		out = append(out, models.Outcome{
			CourseID:    r.CourseID,
			OutcomeID:   r.OutcomeID,
			Title:       r.Title,
			Strand:      r.Strand,
			Description: r.Description,
			Position:    r.Position,
			CreatedAt:   created,
			UpdatedAt:   updated,
		})
	}
	return out, nil
}

// PutOutcomes upserts catalog entries keyed by (course, outcome)
func (s *SQLStore) PutOutcomes(ctx context.Context, outcomes []models.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	query := s.db.Rebind(`
		INSERT INTO outcomes (course_id, outcome_id, title, strand, description, position, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (course_id, outcome_id) DO UPDATE SET
			title = excluded.title,
			strand = excluded.strand,
			description = excluded.description,
			position = excluded.position,
			updated_at = excluded.updated_at
	`)
	for _, o := range outcomes {
		_, err := s.db.ExecContext(ctx, query,
			o.CourseID, o.OutcomeID, o.Title, o.Strand, o.Description, o.Position,
			formatTime(o.CreatedAt), formatTime(o.UpdatedAt))
		if err != nil {
			return fmt.Errorf("put outcome %s/%s: %w", o.CourseID, o.OutcomeID, err)
		}
	}
	return nil
}
