// Package practice assembles review sets from a student's schedule and
// mastery state.
package practice

import (
	"context"
	"math/rand"
	"sort"
	"time"

	"github.com/example/learntrack/pkg/models"
)

// DefaultSetSize caps a practice set when the caller does not say otherwise
const DefaultSetSize = 10

// ScheduleSource lists a student's scheduled outcomes
type ScheduleSource interface {
	Schedule(ctx context.Context, studentID, courseID string, asOf time.Time) ([]models.ScheduledOutcome, error)
}

// MasterySource reports current mastery by outcome
type MasterySource interface {
	Mastery(ctx context.Context, studentID, courseID string) (map[string]float64, error)
}

// Item is one outcome picked for practice
type Item struct {
	OutcomeID string
	DueAt     time.Time
	Overdue   bool
	EMA       float64 // 0 when the outcome was never scored
}

// Planner picks what a student should practice next
type Planner struct {
	schedule ScheduleSource
	mastery  MasterySource
}

// NewPlanner creates a planner over the given sources
func NewPlanner(schedule ScheduleSource, mastery MasterySource) *Planner {
	return &Planner{schedule: schedule, mastery: mastery}
}

// Plan assembles up to size items for one sitting: everything overdue
// first, oldest due date leading, then the weakest remaining outcomes to
// fill the set. The returned order is shuffled for presentation.
func (p *Planner) Plan(ctx context.Context, studentID, courseID string, asOf time.Time, size int) ([]Item, error) {
	if size <= 0 {
		size = DefaultSetSize
	}

	scheduled, err := p.schedule.Schedule(ctx, studentID, courseID, asOf)
	if err != nil {
		return nil, err
	}
	emas, err := p.mastery.Mastery(ctx, studentID, courseID)
	if err != nil {
		return nil, err
	}

	var due, fresh []Item
	for _, s := range scheduled {
		item := Item{OutcomeID: s.OutcomeID, DueAt: s.DueAt, Overdue: s.Overdue, EMA: emas[s.OutcomeID]}
		if s.Overdue {
			due = append(due, item)
		} else {
			fresh = append(fresh, item)
		}
	}

	// Weakest first among the not-yet-due
	sort.SliceStable(fresh, func(i, j int) bool {
		if fresh[i].EMA != fresh[j].EMA {
			return fresh[i].EMA < fresh[j].EMA
		}
		return fresh[i].DueAt.Before(fresh[j].DueAt)
	})

	set := due
	if len(set) > size {
		set = set[:size]
	}
	for _, item := range fresh {
		if len(set) >= size {
			break
		}
		set = append(set, item)
	}

	// Shuffle so a sitting doesn't always open with the same outcome
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	rnd.Shuffle(len(set), func(i, j int) {
		set[i], set[j] = set[j], set[i]
	})

	return set, nil
}

// OutcomeIDs lists the ids in a practice set, in set order
func OutcomeIDs(items []Item) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.OutcomeID)
	}
	return ids
}
