// Package milestone decides when a lock's scan count reaches one of the
// configured notification thresholds.
package milestone

import "slices"

// DefaultMilestones are used by Default.
var DefaultMilestones = []int64{10, 25, 50, 100, 250, 500, 1000}

// Tracker holds a fixed set of milestone values. It is immutable and safe
// for concurrent use.
type Tracker struct {
	milestones []int64
	set        map[int64]struct{}
}

// NewTracker builds a Tracker from milestones. Order and duplicates in the
// input do not matter.
func NewTracker(milestones []int64) *Tracker {
	t := &Tracker{set: make(map[int64]struct{}, len(milestones))}
	for _, m := range milestones {
		if _, ok := t.set[m]; ok {
			continue
		}
		t.set[m] = struct{}{}
		t.milestones = append(t.milestones, m)
	}
	slices.Sort(t.milestones)
	return t
}

// Default returns a Tracker over DefaultMilestones.
func Default() *Tracker {
	return NewTracker(DefaultMilestones)
}

// Milestones returns the sorted milestone values.
func (t *Tracker) Milestones() []int64 {
	return slices.Clone(t.milestones)
}

// Next computes the effect of one scan on a lock whose scan count is count
// and whose last reached milestone is last (0 when none).
//
// It returns the new count, the new last milestone and whether a milestone
// was newly reached. A milestone is reached when the new count is one of the
// milestones and is greater than last; otherwise last is returned unchanged.
func (t *Tracker) Next(count, last int64) (next, newLast int64, reached bool) {
	next = count + 1
	if _, ok := t.set[next]; ok && next > last {
		return next, next, true
	}
	return next, last, false
}
