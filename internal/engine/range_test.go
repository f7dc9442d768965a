package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestResolveRange(t *testing.T) {
	// Friday afternoon.
	pivot := at(2026, time.October, 16, 15, 40)

	cases := []struct {
		view     ViewKind
		from, to time.Time
	}{
		{ViewDay, day(2026, 10, 16), EndOfDay(day(2026, 10, 16))},
		{ViewWorkWeek, day(2026, 10, 12), EndOfDay(day(2026, 10, 16))},
		{ViewWeek, day(2026, 10, 12), EndOfDay(day(2026, 10, 18))},
		{ViewPeople, day(2026, 10, 12), EndOfDay(day(2026, 10, 18))},
		{ViewResources, day(2026, 10, 12), EndOfDay(day(2026, 10, 18))},
		{ViewMonth, day(2026, 10, 1), EndOfDay(day(2026, 10, 31))},
		{ViewTimeline, day(2026, 10, 1), EndOfDay(day(2026, 10, 31))},
		{ViewGantt, day(2026, 10, 1), EndOfDay(day(2026, 10, 31))},
		{ViewQuarter, day(2026, 10, 1), EndOfDay(day(2026, 12, 31))},
		{ViewYear, day(2026, 1, 1), EndOfDay(day(2026, 12, 31))},
		{ViewAgenda, day(2026, 10, 16), EndOfDay(day(2026, 10, 18))},
	}
	for _, tc := range cases {
		t.Run(string(tc.view), func(t *testing.T) {
			r := ResolveRange(tc.view, pivot)
			assert.True(t, tc.from.Equal(r.From), "from=%s want %s", r.From, tc.from)
			assert.True(t, tc.to.Equal(r.To), "to=%s want %s", r.To, tc.to)
			assert.Equal(t, r, ResolveRange(tc.view, pivot), "same input, same window")
		})
	}
}

func TestResolveRangeWeekAlwaysMondayToSunday(t *testing.T) {
	start := day(2024, 12, 20)
	for i := 0; i < 60; i++ {
		d := start.AddDate(0, 0, i).Add(time.Duration(i) * 37 * time.Minute)
		r := ResolveRange(ViewWeek, d)
		assert.Equal(t, time.Monday, r.From.Weekday(), "pivot %s", d)
		assert.Equal(t, time.Sunday, r.To.Weekday(), "pivot %s", d)
		assert.True(t, r.Contains(d), "pivot %s not in %v", d, r)
		assert.Equal(t, 7*24*time.Hour-time.Nanosecond, r.To.Sub(r.From))
	}
}

func TestResolveRangeSundayBelongsToPreviousWeek(t *testing.T) {
	r := ResolveRange(ViewWeek, at(2026, time.March, 1, 12, 0))
	assert.True(t, day(2026, 2, 23).Equal(r.From))
	assert.True(t, EndOfDay(day(2026, 3, 1)).Equal(r.To))
}

func TestResolveRangeQuarterBounds(t *testing.T) {
	r := ResolveRange(ViewQuarter, at(2026, time.May, 20, 8, 0))
	assert.True(t, day(2026, 4, 1).Equal(r.From))
	assert.True(t, EndOfDay(day(2026, 6, 30)).Equal(r.To))
}

func TestParseViewKind(t *testing.T) {
	v, err := ParseViewKind(" Work-Week ")
	require.NoError(t, err)
	assert.Equal(t, ViewWorkWeek, v)

	_, err = ParseViewKind("fortnight")
	assert.Error(t, err)
	assert.Len(t, ViewKinds(), 11)
}
