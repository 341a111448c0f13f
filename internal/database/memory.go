package database

import (
	"context"
	"sort"
	"sync"

	"github.com/example/learntrack/pkg/models"
)

// MemoryStore keeps all records in process memory. It backs tests and
// throwaway runs; records are deep-copied on both sides of the API so
// callers never alias internal state.
type MemoryStore struct {
	mu       sync.RWMutex
	mastery  map[string]*models.MasteryRecord
	routines map[string]*models.RoutineRecord
	outcomes map[string]map[string]models.Outcome // courseID -> outcomeID -> entry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory backend
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		mastery:  make(map[string]*models.MasteryRecord),
		routines: make(map[string]*models.RoutineRecord),
		outcomes: make(map[string]map[string]models.Outcome),
	}
}

func pairKey(studentID, courseID string) string {
	return studentID + "\x00" + courseID
}

func (s *MemoryStore) GetMastery(_ context.Context, studentID, courseID string) (*models.MasteryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.mastery[pairKey(studentID, courseID)]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) PutMastery(_ context.Context, rec *models.MasteryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mastery[pairKey(rec.StudentID, rec.CourseID)] = rec.Clone()
	return nil
}

func (s *MemoryStore) GetRoutine(_ context.Context, studentID, courseID string) (*models.RoutineRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.routines[pairKey(studentID, courseID)]
	if !ok {
		return nil, nil
	}
	return rec.Clone(), nil
}

func (s *MemoryStore) PutRoutine(_ context.Context, rec *models.RoutineRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routines[pairKey(rec.StudentID, rec.CourseID)] = rec.Clone()
	return nil
}

func (s *MemoryStore) ListOutcomesByCourse(_ context.Context, courseID string) ([]models.Outcome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	byID := s.outcomes[courseID]
	out := make([]models.Outcome, 0, len(byID))
	for _, o := range byID {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].OutcomeID < out[j].OutcomeID
	})
	return out, nil
}

func (s *MemoryStore) PutOutcomes(_ context.Context, outcomes []models.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range outcomes {
		byID, ok := s.outcomes[o.CourseID]
		if !ok {
			byID = make(map[string]models.Outcome)
			s.outcomes[o.CourseID] = byID
		}
		byID[o.OutcomeID] = o
	}
	return nil
}

func (s *MemoryStore) Enrollments(_ context.Context) ([]Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Enrollment, 0, len(s.routines))
	for _, rec := range s.routines {
		out = append(out, Enrollment{StudentID: rec.StudentID, CourseID: rec.CourseID})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentID != out[j].StudentID {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
