package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
)

func TestAutoOffsetShiftsOncePerSignature(t *testing.T) {
	base := at(2026, time.October, 16, 9, 0)
	now := at(2026, time.October, 16, 8, 0)
	h := NewHistory([]model.Event{
		span("A", base, 0, 60),
		span("B", base, 30, 90),
		span("C", base, 100, 130),
	}, 20)
	p := NewAutoOffset(true, 0)

	conflicts := DetectConflicts(h.Events())
	require.True(t, p.Observe(conflicts, h, now))
	assert.Equal(t, 1, h.UndoDepth(), "one commit for the whole set")
	assert.Equal(t, "A|B", p.Signature())

	got := h.Events()
	assert.True(t, base.Add(5*time.Minute).Equal(got[0].Start))
	assert.True(t, base.Add(65*time.Minute).Equal(got[0].End))
	assert.True(t, base.Add(35*time.Minute).Equal(got[1].Start))
	assert.True(t, base.Add(100*time.Minute).Equal(got[2].Start), "C untouched")
	assert.True(t, now.Equal(got[0].UpdatedAt))

	// Shifting both keeps them overlapping; the same signature is ignored.
	assert.False(t, p.Observe(DetectConflicts(h.Events()), h, now))
	assert.Equal(t, 1, h.UndoDepth())
}

func TestAutoOffsetClearsSignatureWhenResolved(t *testing.T) {
	base := at(2026, time.October, 16, 9, 0)
	h := NewHistory([]model.Event{span("A", base, 0, 60), span("B", base, 30, 90)}, 20)
	p := NewAutoOffset(true, 10*time.Minute)

	require.True(t, p.Observe(DetectConflicts(h.Events()), h, base))
	assert.False(t, p.Observe(ConflictSet{}, h, base))
	assert.Equal(t, "", p.Signature())

	require.True(t, p.Observe(DetectConflicts(h.Events()), h, base), "same conflict can trigger again")
	assert.True(t, base.Add(20*time.Minute).Equal(h.Events()[0].Start))
}

func TestAutoOffsetDisabled(t *testing.T) {
	base := at(2026, time.October, 16, 9, 0)
	h := NewHistory([]model.Event{span("A", base, 0, 60), span("B", base, 30, 90)}, 20)
	p := NewAutoOffset(false, 0)

	assert.False(t, p.Observe(DetectConflicts(h.Events()), h, base))
	assert.Equal(t, 0, h.UndoDepth())
	assert.Equal(t, "", p.Signature())
}
