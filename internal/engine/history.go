package engine

import (
	"plancal/internal/model"
)

// DefaultHistoryLimit bounds both the undo and the redo stack.
const DefaultHistoryLimit = 20

// History owns the working event collection together with its undo and redo
// snapshots. Every snapshot is an independent deep copy.
//
// History is not safe for concurrent use; the page serializes access.
type History struct {
	current []model.Event
	undo    [][]model.Event
	redo    [][]model.Event
	limit   int
}

// NewHistory starts a history over a copy of events. A limit below one uses
// DefaultHistoryLimit.
func NewHistory(events []model.Event, limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History{current: model.CloneEvents(events), limit: limit}
}

// Events returns a copy of the current collection.
func (h *History) Events() []model.Event {
	return model.CloneEvents(h.current)
}

// Len returns the number of events in the current collection.
func (h *History) Len() int { return len(h.current) }

// Commit snapshots the current collection onto the undo stack, clears redo
// and replaces the collection with updater's result. updater receives a copy
// it may modify freely.
func (h *History) Commit(updater func([]model.Event) []model.Event) {
	h.undo = pushBounded(h.undo, model.CloneEvents(h.current), h.limit)
	h.redo = nil
	next := updater(model.CloneEvents(h.current))
	if next == nil {
		next = []model.Event{}
	}
	h.current = next
}

// Undo restores the previous snapshot. It returns false and changes nothing
// when there is nothing to undo.
func (h *History) Undo() bool {
	if len(h.undo) == 0 {
		return false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = pushBounded(h.redo, h.current, h.limit)
	h.current = prev
	return true
}

// Redo mirrors Undo.
func (h *History) Redo() bool {
	if len(h.redo) == 0 {
		return false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = pushBounded(h.undo, h.current, h.limit)
	h.current = next
	return true
}

// Reset replaces the collection without recording history. Used when the
// event source delivers a fresh snapshot.
func (h *History) Reset(events []model.Event) {
	h.current = model.CloneEvents(events)
}

func (h *History) UndoDepth() int { return len(h.undo) }
func (h *History) RedoDepth() int { return len(h.redo) }

func pushBounded(stack [][]model.Event, snap []model.Event, limit int) [][]model.Event {
	stack = append(stack, snap)
	if over := len(stack) - limit; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}
