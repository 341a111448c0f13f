package models

import "time"

// MasteryRecord tracks a student's mastery of each learning outcome in a course
type MasteryRecord struct {
	StudentID             string             `json:"student_id"`
	CourseID              string             `json:"course_id"`
	EMAByOutcome          map[string]float64 `json:"ema_by_outcome"`          // outcome ID -> smoothed score in [0,1]
	ObservationsByOutcome map[string]int     `json:"observations_by_outcome"` // outcome ID -> observations folded in so far
	UpdatedAt             time.Time          `json:"updated_at"`
}

// NewMasteryRecord creates an empty record for a student/course pair
func NewMasteryRecord(studentID, courseID string) *MasteryRecord {
	return &MasteryRecord{
		StudentID:             studentID,
		CourseID:              courseID,
		EMAByOutcome:          make(map[string]float64),
		ObservationsByOutcome: make(map[string]int),
	}
}

// Observations returns how many observations have been folded in for an outcome
func (m *MasteryRecord) Observations(outcomeID string) int {
	if m == nil || m.ObservationsByOutcome == nil {
		return 0
	}
	return m.ObservationsByOutcome[outcomeID]
}

// Clone returns a deep copy so callers can hand records across goroutines safely
func (m *MasteryRecord) Clone() *MasteryRecord {
	if m == nil {
		return nil
	}
	out := &MasteryRecord{
		StudentID: m.StudentID,
		CourseID:  m.CourseID,
		UpdatedAt: m.UpdatedAt,
	}
	if m.EMAByOutcome != nil {
		out.EMAByOutcome = make(map[string]float64, len(m.EMAByOutcome))
		for k, v := range m.EMAByOutcome {
			out.EMAByOutcome[k] = v
		}
	}
	if m.ObservationsByOutcome != nil {
		out.ObservationsByOutcome = make(map[string]int, len(m.ObservationsByOutcome))
		for k, v := range m.ObservationsByOutcome {
			out.ObservationsByOutcome[k] = v
		}
	}
	return out
}
