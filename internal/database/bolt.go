package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/example/learntrack/pkg/models"
)

// Bucket keys
var (
	bucketMastery  = []byte("mastery")
	bucketRoutine  = []byte("routine")
	bucketOutcomes = []byte("outcomes")
)

// BoltStore implements Store on a single-file bbolt database: one bucket
// per record family, JSON values, transactional writes. A crash mid-write
// cannot corrupt previously committed data.
type BoltStore struct {
	db *bolt.DB
}

var _ Store = (*BoltStore)(nil)

// OpenBolt opens (or creates) a bbolt database at the given path
func OpenBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bbolt open: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketMastery, bucketRoutine, bucketOutcomes} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("bbolt init: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close closes the underlying bbolt database
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) GetMastery(_ context.Context, studentID, courseID string) (*models.MasteryRecord, error) {
	var rec *models.MasteryRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketMastery).Get([]byte(pairKey(studentID, courseID)))
		if raw == nil {
			return nil
		}
		rec = &models.MasteryRecord{}
		return json.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("get mastery %s/%s: %w", studentID, courseID, err)
	}
	return rec, nil
}

func (s *BoltStore) PutMastery(_ context.Context, rec *models.MasteryRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode mastery %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketMastery).Put([]byte(pairKey(rec.StudentID, rec.CourseID)), raw)
	})
	if err != nil {
		return fmt.Errorf("put mastery %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	return nil
}

func (s *BoltStore) GetRoutine(_ context.Context, studentID, courseID string) (*models.RoutineRecord, error) {
	var rec *models.RoutineRecord
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketRoutine).Get([]byte(pairKey(studentID, courseID)))
		if raw == nil {
			return nil
		}
		rec = &models.RoutineRecord{}
		return json.Unmarshal(raw, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("get routine %s/%s: %w", studentID, courseID, err)
	}
	return rec, nil
}

func (s *BoltStore) PutRoutine(_ context.Context, rec *models.RoutineRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode routine %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRoutine).Put([]byte(pairKey(rec.StudentID, rec.CourseID)), raw)
	})
	if err != nil {
		return fmt.Errorf("put routine %s/%s: %w", rec.StudentID, rec.CourseID, err)
	}
	return nil
}

func (s *BoltStore) ListOutcomesByCourse(_ context.Context, courseID string) ([]models.Outcome, error) {
	var out []models.Outcome
	err := s.db.View(func(tx *bolt.Tx) error {
		course := tx.Bucket(bucketOutcomes).Bucket([]byte(courseID))
		if course == nil {
			return nil
		}
		return course.ForEach(func(_, v []byte) error {
			var o models.Outcome
			if err := json.Unmarshal(v, &o); err != nil {
				return err
			}
			out = append(out, o)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list outcomes for %s: %w", courseID, err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].OutcomeID < out[j].OutcomeID
	})
	return out, nil
}

func (s *BoltStore) PutOutcomes(_ context.Context, outcomes []models.Outcome) error {
	if len(outcomes) == 0 {
		return nil
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		for _, o := range outcomes {
			course, err := tx.Bucket(bucketOutcomes).CreateBucketIfNotExists([]byte(o.CourseID))
			if err != nil {
				return err
			}
			raw, err := json.Marshal(o)
			if err != nil {
				return err
			}
			if err := course.Put([]byte(o.OutcomeID), raw); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put outcomes: %w", err)
	}
	return nil
}

func (s *BoltStore) Enrollments(_ context.Context) ([]Enrollment, error) {
	var out []Enrollment
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketRoutine).ForEach(func(_, v []byte) error {
			var rec struct {
				StudentID string `json:"student_id"`
				CourseID  string `json:"course_id"`
			}
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			out = append(out, Enrollment{StudentID: rec.StudentID, CourseID: rec.CourseID})
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StudentID != out[j].StudentID {
			return out[i].StudentID < out[j].StudentID
		}
		return out[i].CourseID < out[j].CourseID
	})
	return out, nil
}
