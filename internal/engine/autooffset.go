package engine

import (
	"time"

	"plancal/internal/model"
)

// DefaultAutoOffset is how far conflicting events are pushed.
const DefaultAutoOffset = 5 * time.Minute

// AutoOffset nudges newly conflicting events forward in time.
//
// Each distinct conflict signature triggers a single shift of every event in
// it; the result is not re-checked, so overlaps between the shifted events
// remain. The remembered signature is cleared once no conflicts are left.
type AutoOffset struct {
	Enabled bool
	Offset  time.Duration

	lastSignature string
}

// NewAutoOffset returns a policy using offset, or DefaultAutoOffset when
// offset is not positive.
func NewAutoOffset(enabled bool, offset time.Duration) *AutoOffset {
	if offset <= 0 {
		offset = DefaultAutoOffset
	}
	return &AutoOffset{Enabled: enabled, Offset: offset}
}

// Observe reacts to the current conflict set. It commits at most one
// mutation to h and reports whether it did.
func (p *AutoOffset) Observe(conflicts ConflictSet, h *History, now time.Time) bool {
	if len(conflicts) == 0 {
		p.lastSignature = ""
		return false
	}
	if !p.Enabled {
		return false
	}
	sig := conflicts.Signature()
	if sig == p.lastSignature {
		return false
	}
	p.lastSignature = sig

	offset := p.Offset
	if offset <= 0 {
		offset = DefaultAutoOffset
	}
	h.Commit(func(events []model.Event) []model.Event {
		for i := range events {
			if !conflicts.Has(events[i].ID) {
				continue
			}
			events[i].Start = events[i].Start.Add(offset)
			events[i].End = events[i].End.Add(offset)
			events[i].UpdatedAt = now
		}
		return events
	})
	return true
}

// Signature returns the last signature acted upon.
func (p *AutoOffset) Signature() string { return p.lastSignature }
