package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"plancal/internal/model"
)

func span(id string, base time.Time, fromMin, toMin int) model.Event {
	return model.Event{
		ID:    id,
		Start: base.Add(time.Duration(fromMin) * time.Minute),
		End:   base.Add(time.Duration(toMin) * time.Minute),
	}
}

func TestDetectConflicts(t *testing.T) {
	base := at(2026, time.October, 16, 9, 0)
	events := []model.Event{
		span("C", base, 100, 130),
		span("B", base, 30, 90),
		span("A", base, 0, 60),
	}

	got := DetectConflicts(events)
	assert.Equal(t, []string{"A", "B"}, got.IDs())
	assert.False(t, got.Has("C"))
	assert.Equal(t, "A|B", got.Signature())
}

func TestDetectConflictsTouchingIntervals(t *testing.T) {
	base := at(2026, time.October, 16, 9, 0)
	got := DetectConflicts([]model.Event{
		span("A", base, 0, 60),
		span("B", base, 60, 120),
	})
	assert.Empty(t, got)
	assert.Equal(t, "", got.Signature())
}

func TestDetectConflictsLongEventSpansMany(t *testing.T) {
	base := at(2026, time.October, 16, 9, 0)
	got := DetectConflicts([]model.Event{
		span("all-day", base, 0, 600),
		span("x", base, 60, 90),
		span("y", base, 300, 330),
		span("after", base, 600, 660),
	})
	assert.Equal(t, []string{"all-day", "x", "y"}, got.IDs())
}

func TestDetectConflictsDoesNotReorderInput(t *testing.T) {
	base := at(2026, time.October, 16, 9, 0)
	events := []model.Event{span("late", base, 120, 180), span("early", base, 0, 30)}
	DetectConflicts(events)
	assert.Equal(t, "late", events[0].ID)
}
