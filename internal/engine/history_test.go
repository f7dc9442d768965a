package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
)

func appendEvent(id string) func([]model.Event) []model.Event {
	return func(events []model.Event) []model.Event {
		return append(events, model.Event{ID: id})
	}
}

func TestHistoryBounds(t *testing.T) {
	h := NewHistory(nil, 0)
	for i := 0; i < 25; i++ {
		h.Commit(appendEvent(fmt.Sprintf("e%02d", i)))
	}
	assert.Equal(t, 25, h.Len())
	assert.Equal(t, DefaultHistoryLimit, h.UndoDepth())

	undone := 0
	for h.Undo() {
		undone++
	}
	assert.Equal(t, 20, undone)
	assert.Equal(t, 5, h.Len(), "oldest snapshots were dropped")
}

func TestHistoryUndoRedo(t *testing.T) {
	h := NewHistory([]model.Event{{ID: "seed"}}, 20)
	h.Commit(appendEvent("a"))
	h.Commit(appendEvent("b"))

	require.True(t, h.Undo())
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.RedoDepth())

	require.True(t, h.Redo())
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 0, h.RedoDepth())

	require.True(t, h.Undo())
	h.Commit(appendEvent("c"))
	assert.Equal(t, 0, h.RedoDepth(), "commit clears redo")
	assert.False(t, h.Redo())
}

func TestHistoryEmptyStacksAreNoOps(t *testing.T) {
	h := NewHistory([]model.Event{{ID: "seed"}}, 20)
	assert.False(t, h.Undo())
	assert.False(t, h.Redo())
	assert.Equal(t, 1, h.Len())
}

func TestHistorySnapshotsAreIndependent(t *testing.T) {
	start := at(2026, time.October, 16, 9, 0)
	h := NewHistory([]model.Event{{ID: "a", Start: start, End: start.Add(time.Hour), Labels: []string{"x"}}}, 20)

	h.Commit(func(events []model.Event) []model.Event {
		events[0].Labels[0] = "mutated"
		events[0].Start = start.Add(time.Hour)
		return events
	})
	require.True(t, h.Undo())

	got := h.Events()
	assert.Equal(t, "x", got[0].Labels[0])
	assert.True(t, start.Equal(got[0].Start))

	got[0].Labels[0] = "outside"
	assert.Equal(t, "x", h.Events()[0].Labels[0], "Events returns a copy")
}

func TestHistoryResetKeepsStacks(t *testing.T) {
	h := NewHistory(nil, 20)
	h.Commit(appendEvent("a"))
	h.Reset([]model.Event{{ID: "remote-1"}, {ID: "remote-2"}})
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, h.UndoDepth())
}

func TestHistoryNilUpdaterResult(t *testing.T) {
	h := NewHistory([]model.Event{{ID: "a"}}, 20)
	h.Commit(func([]model.Event) []model.Event { return nil })
	assert.NotNil(t, h.Events())
	assert.Equal(t, 0, h.Len())
}
