package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
	"plancal/internal/planner"
	"plancal/internal/sink"
)

var (
	_ sink.Sink        = (*Store)(nil)
	_ planner.Provider = (*Store)(nil)
)

func oct(d, h int) time.Time {
	return time.Date(2026, time.October, d, h, 0, 0, 0, time.UTC)
}

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "events.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStoreSaveAndReplace(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	ev := model.Event{
		ID: "evt-1", CalendarID: "calendar.eng", Title: "Standup",
		Start: oct(16, 9), End: oct(16, 10),
		Labels:    []string{"daily"},
		Attendees: []model.Attendee{{Person: model.Person{Name: "Alice"}, Response: "accepted"}},
	}
	require.NoError(t, s.SaveEvent(ctx, ev))

	got, ok := stored(t, s, "evt-1")
	require.True(t, ok)
	assert.Equal(t, "Standup", got.Title)
	assert.Equal(t, []string{"daily"}, got.Labels)
	assert.Equal(t, "accepted", got.Attendees[0].Response)
	assert.True(t, ev.Start.Equal(got.Start))

	ev.Title = "Standup (moved)"
	require.NoError(t, s.SaveEvent(ctx, ev))
	got, _ = stored(t, s, "evt-1")
	assert.Equal(t, "Standup (moved)", got.Title)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestStoreDelete(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SaveEvent(ctx, model.Event{ID: "evt-1", Start: oct(16, 9), End: oct(16, 10)}))
	require.NoError(t, s.DeleteEvent(ctx, "evt-1"))
	require.NoError(t, s.DeleteEvent(ctx, "evt-1"), "deleting twice is fine")

	_, ok := stored(t, s, "evt-1")
	assert.False(t, ok)
	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestStoreEventsByWindow(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	for _, ev := range []model.Event{
		{ID: "late", CalendarID: "calendar.eng", Start: oct(16, 15), End: oct(16, 16)},
		{ID: "early", CalendarID: "calendar.ops", Start: oct(16, 8), End: oct(16, 9)},
		{ID: "straddle", CalendarID: "calendar.eng", Start: oct(11, 22), End: oct(12, 2)},
		{ID: "before", CalendarID: "calendar.eng", Start: oct(5, 9), End: oct(5, 10)},
		{ID: "after", CalendarID: "calendar.eng", Start: oct(20, 9), End: oct(20, 10)},
	} {
		require.NoError(t, s.SaveEvent(ctx, ev))
	}

	week := planner.Query{From: oct(12, 0), To: oct(18, 23)}
	got, err := s.Events(ctx, week)
	require.NoError(t, err)
	assert.Equal(t, []string{"straddle", "early", "late"}, ids(got))

	week.CalendarIDs = []string{"calendar.ops"}
	got, err = s.Events(ctx, week)
	require.NoError(t, err)
	assert.Equal(t, []string{"early"}, ids(got))

	all, err := s.Events(ctx, planner.Query{})
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	s, path := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.SaveEvent(ctx, model.Event{ID: "evt-1", Start: oct(16, 9), End: oct(16, 10)}))
	require.NoError(t, s.Close())

	again, err := Open(ctx, path)
	require.NoError(t, err)
	defer again.Close()

	_, ok := stored(t, again, "evt-1")
	assert.True(t, ok)
}

func TestStoreInMemory(t *testing.T) {
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.SaveEvent(context.Background(), model.Event{ID: "m", Start: oct(16, 9), End: oct(16, 10)}))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func stored(t *testing.T, s *Store, id string) (model.Event, bool) {
	t.Helper()
	all, err := s.Events(context.Background(), planner.Query{})
	require.NoError(t, err)
	for _, ev := range all {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

func ids(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.ID)
	}
	return out
}
