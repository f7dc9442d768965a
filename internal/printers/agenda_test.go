package printers

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"plancal/internal/engine"
	"plancal/internal/model"
	"plancal/internal/planner"
)

func oct(d, h, m int) time.Time {
	return time.Date(2026, time.October, d, h, m, 0, 0, time.UTC)
}

func init() {
	color.NoColor = true
}

func TestAgendaPrint(t *testing.T) {
	v := planner.View{
		Kind:  engine.ViewWeek,
		Range: engine.ResolveRange(engine.ViewWeek, oct(16, 12, 0)),
		Events: []model.Event{
			{ID: "b", Title: "Review", CalendarID: "calendar.eng", Start: oct(16, 9, 30), End: oct(16, 10, 30), Status: model.StatusConfirmed},
			{ID: "a", Title: "Standup", CalendarID: "calendar.eng", Start: oct(16, 9, 0), End: oct(16, 10, 0), Status: model.StatusConfirmed},
			{ID: "c", Title: "Offsite", CalendarID: "calendar.team", Start: oct(14, 0, 0), End: oct(15, 0, 0), AllDay: true},
		},
		Conflicts: []string{"a", "b"},
	}

	var buf bytes.Buffer
	(&Agenda{Out: &buf, ShowID: true}).Print(v)
	out := buf.String()

	assert.Contains(t, out, "Week Mon Oct 12 to Sun Oct 18 2026 - 3 events")
	assert.Contains(t, out, "09:00-10:00")
	assert.Contains(t, out, "all day")
	assert.Contains(t, out, "2 conflicting events")
	assert.Regexp(t, `!\s+Fri Oct 16\s+09:00-10:00\s+Standup`, out)
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Offsite")), bytes.Index(buf.Bytes(), []byte("Standup")), "sorted by start")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Standup")), bytes.Index(buf.Bytes(), []byte("Review")))
}

func TestAgendaEmpty(t *testing.T) {
	v := planner.View{
		Kind:   engine.ViewDay,
		Range:  engine.ResolveRange(engine.ViewDay, oct(16, 12, 0)),
		Status: planner.Status{Err: errors.New("feed down")},
	}

	var buf bytes.Buffer
	(&Agenda{Out: &buf}).Print(v)
	out := buf.String()
	assert.Contains(t, out, "Day Fri Oct 16 2026 - 0 events")
	assert.Contains(t, out, "refresh failed: feed down")
	assert.Contains(t, out, "none")
}
