package engine

import (
	"slices"
	"sort"
	"strings"

	"plancal/internal/model"
)

// ConflictSet holds ids of events overlapping at least one other event.
type ConflictSet map[string]struct{}

// Has reports whether id is in conflict.
func (c ConflictSet) Has(id string) bool {
	_, ok := c[id]
	return ok
}

// IDs returns the ids in ascending order.
func (c ConflictSet) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Signature identifies the set independently of insertion order. The empty
// set has the empty signature.
func (c ConflictSet) Signature() string {
	return strings.Join(c.IDs(), "|")
}

// DetectConflicts returns the ids of events whose [Start, End) interval
// overlaps another event in the collection.
//
// Events are sorted by start; for each event the scan only moves forward
// while the next start is before the current end, so the cost is
// O(n log n + n*k) with k the largest number of simultaneous overlaps.
func DetectConflicts(events []model.Event) ConflictSet {
	sorted := make([]model.Event, len(events))
	copy(sorted, events)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := make(ConflictSet)
	for i := range sorted {
		for j := i + 1; j < len(sorted); j++ {
			if !sorted[j].Start.Before(sorted[i].End) {
				break
			}
			out[sorted[i].ID] = struct{}{}
			out[sorted[j].ID] = struct{}{}
		}
	}
	return out
}
