// Package engine holds the calendar scheduling logic of the calendar page:
// range resolution per view, the filter/search language, conflict detection,
// drag rescheduling, quick-add parsing, undo/redo history and the
// auto-offset rule. Everything here operates on in-memory values and is
// free of I/O.
package engine

import (
	"fmt"
	"strings"
	"time"
)

// ViewKind selects the shape of the date window shown by the calendar page.
type ViewKind string

const (
	ViewDay       ViewKind = "day"
	ViewWorkWeek  ViewKind = "work-week"
	ViewWeek      ViewKind = "week"
	ViewMonth     ViewKind = "month"
	ViewQuarter   ViewKind = "quarter"
	ViewYear      ViewKind = "year"
	ViewTimeline  ViewKind = "timeline"
	ViewGantt     ViewKind = "gantt"
	ViewPeople    ViewKind = "people"
	ViewResources ViewKind = "resources"
	ViewAgenda    ViewKind = "agenda"
)

var viewKinds = []ViewKind{
	ViewDay, ViewWorkWeek, ViewWeek, ViewMonth, ViewQuarter, ViewYear,
	ViewTimeline, ViewGantt, ViewPeople, ViewResources, ViewAgenda,
}

// ViewKinds lists every supported view.
func ViewKinds() []ViewKind {
	return append([]ViewKind(nil), viewKinds...)
}

// ParseViewKind validates a user-supplied view name.
func ParseViewKind(s string) (ViewKind, error) {
	v := ViewKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range viewKinds {
		if k == v {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown view %q", s)
}

// Range is an inclusive time window.
type Range struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t lies within [From, To].
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}

// ResolveRange returns the window to query for the given view around pivot.
// Weeks start on Monday. Unknown views resolve like ViewWeek.
func ResolveRange(view ViewKind, pivot time.Time) Range {
	switch view {
	case ViewDay:
		return Range{From: StartOfDay(pivot), To: EndOfDay(pivot)}
	case ViewWorkWeek:
		mon := startOfWeek(pivot)
		return Range{From: mon, To: EndOfDay(mon.AddDate(0, 0, 4))}
	case ViewMonth, ViewTimeline, ViewGantt:
		first := time.Date(pivot.Year(), pivot.Month(), 1, 0, 0, 0, 0, pivot.Location())
		return Range{From: first, To: endOfPeriod(first.AddDate(0, 1, 0))}
	case ViewQuarter:
		qm := time.Month((int(pivot.Month())-1)/3*3 + 1)
		first := time.Date(pivot.Year(), qm, 1, 0, 0, 0, 0, pivot.Location())
		return Range{From: first, To: endOfPeriod(first.AddDate(0, 3, 0))}
	case ViewYear:
		first := time.Date(pivot.Year(), time.January, 1, 0, 0, 0, 0, pivot.Location())
		return Range{From: first, To: endOfPeriod(first.AddDate(1, 0, 0))}
	case ViewAgenda:
		return Range{From: StartOfDay(pivot), To: endOfWeek(pivot)}
	default:
		// week, people, resources
		return Range{From: startOfWeek(pivot), To: endOfWeek(pivot)}
	}
}

// StartOfDay returns local midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last representable instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return endOfPeriod(StartOfDay(t).AddDate(0, 0, 1))
}

func endOfPeriod(nextStart time.Time) time.Time {
	return nextStart.Add(-time.Nanosecond)
}

func startOfWeek(t time.Time) time.Time {
	// time.Weekday has Sunday = 0; shift so Monday = 0.
	offset := (int(t.Weekday()) + 6) % 7
	return StartOfDay(t).AddDate(0, 0, -offset)
}

func endOfWeek(t time.Time) time.Time {
	return EndOfDay(startOfWeek(t).AddDate(0, 0, 6))
}
