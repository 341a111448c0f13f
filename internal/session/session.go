// Package session turns graded lesson items into the observation batch
// the tracker consumes: one raw score per outcome, averaged over the items
// that exercised it.
package session

import "github.com/google/uuid"

// Result is one graded item from a sitting
type Result struct {
	OutcomeID string
	Correct   bool
	Score     *float64 // explicit partial credit in [0,1]; overrides Correct when set
}

// Builder accumulates item results for one sitting
type Builder struct {
	id    string
	items map[string][]float64
}

// NewBuilder starts an empty sitting with a fresh session ID
func NewBuilder() *Builder {
	return &Builder{
		id:    uuid.NewString(),
		items: make(map[string][]float64),
	}
}

// ID returns the session identifier for correlating logs and results
func (b *Builder) ID() string { return b.id }

// Add records one graded item. A plain Correct grades as 1.0, a miss as
// 0.0, and an explicit Score overrides both.
func (b *Builder) Add(r Result) {
	v := 0.0
	if r.Correct {
		v = 1.0
	}
	if r.Score != nil {
		v = *r.Score
	}
	b.items[r.OutcomeID] = append(b.items[r.OutcomeID], v)
}

// Len returns the number of items recorded so far
func (b *Builder) Len() int {
	n := 0
	for _, scores := range b.items {
		n += len(scores)
	}
	return n
}

// Batch returns the mean score per outcome, the shape RecordCompletion
// takes. Outcomes with no items are absent, never zero-filled.
func (b *Builder) Batch() map[string]float64 {
	out := make(map[string]float64, len(b.items))
	for id, scores := range b.items {
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		out[id] = sum / float64(len(scores))
	}
	return out
}

// Counts returns how many items contributed to each outcome's score
func (b *Builder) Counts() map[string]int {
	out := make(map[string]int, len(b.items))
	for id, scores := range b.items {
		out[id] = len(scores)
	}
	return out
}

// Scores is a one-shot convenience over Builder for callers that already
// hold the full item list.
func Scores(results []Result) map[string]float64 {
	b := NewBuilder()
	for _, r := range results {
		b.Add(r)
	}
	return b.Batch()
}
