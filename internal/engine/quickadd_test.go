package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQuickAdd(t *testing.T) {
	fallback := at(2026, time.October, 16, 16, 45)

	cases := []struct {
		line       string
		title      string
		start, end time.Time
		calendar   string
	}{
		{
			line:  "Team sync tomorrow 2pm-3pm #eng",
			title: "Team sync", calendar: "calendar.eng",
			start: at(2026, time.October, 17, 14, 0), end: at(2026, time.October, 17, 15, 0),
		},
		{
			line:  "Dentist",
			title: "Dentist",
			start: at(2026, time.October, 16, 9, 0), end: at(2026, time.October, 16, 10, 0),
		},
		{
			line:  "Today 10:30am - 11:15am design review",
			title: "design review",
			start: at(2026, time.October, 16, 10, 30), end: at(2026, time.October, 16, 11, 15),
		},
		{
			line:  "Deploy 13-14:30 #Ops",
			title: "Deploy", calendar: "calendar.ops",
			start: at(2026, time.October, 16, 13, 0), end: at(2026, time.October, 16, 14, 30),
		},
		{
			line:  "Late call 11pm-1am",
			title: "Late call",
			start: at(2026, time.October, 16, 23, 0), end: at(2026, time.October, 17, 0, 0),
		},
		{
			line:  "Lunch 12pm-12am",
			title: "Lunch",
			start: at(2026, time.October, 16, 12, 0), end: at(2026, time.October, 16, 13, 0),
		},
		{
			line:  "Review 2-3pm",
			title: "Review",
			start: at(2026, time.October, 16, 14, 0), end: at(2026, time.October, 16, 15, 0),
		},
		{
			line:  "Workshop 11-1pm",
			title: "Workshop",
			start: at(2026, time.October, 16, 11, 0), end: at(2026, time.October, 16, 13, 0),
		},
		{
			line:  "Office hours 9:30-11am",
			title: "Office hours",
			start: at(2026, time.October, 16, 9, 30), end: at(2026, time.October, 16, 11, 0),
		},
		{
			line:  "Handover 2pm-3",
			title: "Handover",
			start: at(2026, time.October, 16, 14, 0), end: at(2026, time.October, 16, 15, 0),
		},
		{
			line:  "tomorrow #home",
			title: DefaultQuickAddTitle, calendar: "calendar.home",
			start: at(2026, time.October, 17, 9, 0), end: at(2026, time.October, 17, 10, 0),
		},
		{
			line:  "Rollout 25-26",
			title: "Rollout 25-26",
			start: at(2026, time.October, 16, 9, 0), end: at(2026, time.October, 16, 10, 0),
		},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			d, ok := ParseQuickAdd(tc.line, fallback)
			require.True(t, ok)
			assert.Equal(t, tc.title, d.Title)
			assert.Equal(t, tc.calendar, d.CalendarID)
			assert.True(t, tc.start.Equal(d.Start), "start=%s want %s", d.Start, tc.start)
			assert.True(t, tc.end.Equal(d.End), "end=%s want %s", d.End, tc.end)
		})
	}
}

func TestParseQuickAddBlank(t *testing.T) {
	for _, line := range []string{"", "   ", "\t\n"} {
		_, ok := ParseQuickAdd(line, time.Now())
		assert.False(t, ok, "%q", line)
	}
}
