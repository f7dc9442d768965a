package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
)

func TestColorFor(t *testing.T) {
	ev := model.Event{CalendarID: "calendar.eng", Priority: model.PriorityHigh, Status: model.StatusCancelled}

	byCal := ColorFor(ev, ColorByCalendar)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, byCal)
	assert.Equal(t, byCal, ColorFor(ev, ColorByCalendar), "stable per calendar")
	assert.NotEqual(t, byCal, ColorFor(model.Event{CalendarID: "calendar.ops"}, ColorByCalendar))

	assert.NotEqual(t, grey, ColorFor(ev, ColorByPriority))
	assert.Equal(t, grey, ColorFor(ev, ColorByStatus), "cancelled has no hue")
	assert.Equal(t, grey, ColorFor(ev, ColorByType))
	assert.Equal(t, "", ColorFor(ev, ColorNone))

	ev.Color = "#123456"
	assert.Equal(t, "#123456", ColorFor(ev, ColorByPriority))
}

func TestParseColorEncoding(t *testing.T) {
	enc, err := ParseColorEncoding("")
	require.NoError(t, err)
	assert.Equal(t, ColorByCalendar, enc)

	enc, err = ParseColorEncoding(" Priority ")
	require.NoError(t, err)
	assert.Equal(t, ColorByPriority, enc)

	_, err = ParseColorEncoding("rainbow")
	assert.Error(t, err)
}
