package models

import "time"

// Outcome is a single learning outcome from a course catalog
type Outcome struct {
	CourseID    string    `json:"course_id" db:"course_id"`
	OutcomeID   string    `json:"outcome_id" db:"outcome_id"`
	Title       string    `json:"title" db:"title"`
	Strand      string    `json:"strand" db:"strand"` // curriculum strand or unit the outcome belongs to
	Description string    `json:"description" db:"description"`
	Position    int       `json:"position" db:"position"` // order within the course
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
