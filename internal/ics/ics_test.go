package ics

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plancal/internal/model"
	"plancal/internal/planner"
)

var sampleFeed = strings.Join([]string{
	"BEGIN:VCALENDAR",
	"VERSION:2.0",
	"PRODID:-//Example//EN",
	"BEGIN:VEVENT",
	"UID:standup-1@example.com",
	"DTSTAMP:20261001T000000Z",
	"DTSTART:20261016T090000Z",
	"DTEND:20261016T093000Z",
	"SUMMARY:Daily standup",
	"DESCRIPTION:Bring blockers",
	"LOCATION:Room 4F",
	"STATUS:TENTATIVE",
	"PRIORITY:2",
	"CATEGORIES:daily,eng",
	"ORGANIZER;CN=Alice:mailto:alice@example.com",
	"ATTENDEE;CN=Bob;PARTSTAT=ACCEPTED:mailto:bob@example.com",
	"RRULE:FREQ=DAILY",
	"CREATED:20261001T080000Z",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"UID:offsite@example.com",
	"DTSTAMP:20261001T000000Z",
	"DTSTART;VALUE=DATE:20261020",
	"DTEND;VALUE=DATE:20261022",
	"SUMMARY:Offsite",
	"END:VEVENT",
	"BEGIN:VEVENT",
	"DTSTAMP:20261001T000000Z",
	"DTSTART:20261016T090000Z",
	"SUMMARY:No uid",
	"END:VEVENT",
	"END:VCALENDAR",
	"",
}, "\r\n")

var engFeed = Feed{ID: "calendar.eng", Name: "Engineering"}

func TestParse(t *testing.T) {
	events, err := Parse(engFeed, []byte(sampleFeed))
	require.NoError(t, err)
	require.Len(t, events, 2, "the VEVENT without UID is skipped")

	ev := events[0]
	assert.Equal(t, "standup-1@example.com", ev.ID)
	assert.Equal(t, "calendar.eng", ev.CalendarID)
	assert.Equal(t, "Daily standup", ev.Title)
	assert.Equal(t, "Bring blockers", ev.Description)
	assert.Equal(t, "Room 4F", ev.Location)
	assert.True(t, time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC).Equal(ev.Start))
	assert.True(t, time.Date(2026, 10, 16, 9, 30, 0, 0, time.UTC).Equal(ev.End))
	assert.False(t, ev.AllDay)
	assert.Equal(t, model.StatusTentative, ev.Status)
	assert.Equal(t, model.PriorityCritical, ev.Priority)
	assert.Equal(t, []string{"daily", "eng"}, ev.Labels)
	assert.Equal(t, model.Person{Name: "Alice", Email: "alice@example.com"}, ev.Organizer)
	assert.Equal(t, ev.Organizer, ev.Owner)
	require.Len(t, ev.Attendees, 1)
	assert.Equal(t, "bob@example.com", ev.Attendees[0].Email)
	assert.Equal(t, "accepted", ev.Attendees[0].Response)
	assert.Equal(t, "FREQ=DAILY", ev.Metadata["rrule"])
	assert.True(t, time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC).Equal(ev.CreatedAt))

	offsite := events[1]
	assert.True(t, offsite.AllDay)
	assert.True(t, time.Date(2026, 10, 20, 0, 0, 0, 0, time.Local).Equal(offsite.Start))
	assert.True(t, time.Date(2026, 10, 22, 0, 0, 0, 0, time.Local).Equal(offsite.End))
}

func TestParseEmpty(t *testing.T) {
	_, err := Parse(engFeed, nil)
	assert.Error(t, err)
}

func TestExportRoundTrip(t *testing.T) {
	events, err := Parse(engFeed, []byte(sampleFeed))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, events))
	out := buf.String()
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "UID:standup-1@example.com")
	assert.Contains(t, out, "UID:offsite@example.com")

	back, err := Parse(Feed{ID: "calendar.export"}, buf.Bytes())
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "Daily standup", back[0].Title)
	assert.True(t, events[0].Start.Equal(back[0].Start))
	assert.Equal(t, model.StatusTentative, back[0].Status)
	assert.Equal(t, model.PriorityCritical, back[0].Priority)
	assert.Equal(t, []string{"daily", "eng"}, back[0].Labels)
	assert.Equal(t, "alice@example.com", back[0].Organizer.Email)
	assert.Equal(t, "accepted", back[0].Attendees[0].Response)
	assert.True(t, back[1].AllDay)
	assert.True(t, events[1].Start.Equal(back[1].Start))
}

func feedServer(t *testing.T, hits *atomic.Int32, status *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if code := int(status.Load()); code != 0 {
			w.WriteHeader(code)
			return
		}
		if r.Header.Get("If-None-Match") == `"v1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchUsesETag(t *testing.T) {
	var hits, status atomic.Int32
	srv := feedServer(t, &hits, &status)
	f := NewFetcher(t.TempDir(), srv.Client())
	feed := Feed{ID: "calendar.eng", URL: srv.URL + "/eng.ics"}

	first, err := f.Fetch(context.Background(), feed)
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	assert.Equal(t, sampleFeed, string(first.Body))

	second, err := f.Fetch(context.Background(), feed)
	require.NoError(t, err)
	assert.True(t, second.FromCache, "304 serves the stored body")
	assert.Equal(t, first.Body, second.Body)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchFallsBackToCache(t *testing.T) {
	var hits, status atomic.Int32
	srv := feedServer(t, &hits, &status)
	f := NewFetcher(t.TempDir(), srv.Client())
	feed := Feed{ID: "calendar.eng", URL: srv.URL + "/eng.ics"}

	_, err := f.Fetch(context.Background(), feed)
	require.NoError(t, err)

	status.Store(http.StatusInternalServerError)
	res, err := f.Fetch(context.Background(), feed)
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, sampleFeed, string(res.Body))
}

func TestFetchErrorsWithoutCache(t *testing.T) {
	var hits, status atomic.Int32
	status.Store(http.StatusNotFound)
	srv := feedServer(t, &hits, &status)
	f := NewFetcher(t.TempDir(), srv.Client())

	_, err := f.Fetch(context.Background(), Feed{ID: "calendar.eng", URL: srv.URL + "/eng.ics"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")

	_, err = f.Fetch(context.Background(), Feed{ID: "calendar.none"})
	assert.Error(t, err)
}

func TestProvider(t *testing.T) {
	var hits, status atomic.Int32
	srv := feedServer(t, &hits, &status)
	bad := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(bad.Close)

	p := NewProvider([]Feed{
		{ID: "calendar.eng", URL: srv.URL + "/eng.ics"},
		{ID: "calendar.broken", URL: bad.URL + "/gone.ics"},
	}, NewFetcher(t.TempDir(), nil))

	week := planner.Query{
		From: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC),
	}
	got, err := p.Events(context.Background(), week)
	require.NoError(t, err, "one broken feed does not fail the refresh")
	require.Len(t, got, 1, "the offsite is next week")
	assert.Equal(t, "standup-1@example.com", got[0].ID)

	week.CalendarIDs = []string{"calendar.broken"}
	_, err = p.Events(context.Background(), week)
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://calendar.example.com/...(redacted)", redactURL("https://calendar.example.com/private/abc123/basic.ics?token=x"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
