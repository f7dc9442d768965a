package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"plancal/internal/model"
)

type DragMode string

const (
	DragMove        DragMode = "move"
	DragResizeStart DragMode = "resize-start"
	DragResizeEnd   DragMode = "resize-end"
)

// DefaultSnapMinutes is used when a request carries an unsupported interval.
const DefaultSnapMinutes = 15

// ParseDragMode validates a user-supplied drag mode.
func ParseDragMode(s string) (DragMode, error) {
	switch m := DragMode(strings.ToLower(strings.TrimSpace(s))); m {
	case DragMove, DragResizeStart, DragResizeEnd:
		return m, nil
	default:
		return "", fmt.Errorf("unknown drag mode %q", s)
	}
}

// NormalizeSnap maps anything other than 5, 15 or 30 minutes to
// DefaultSnapMinutes.
func NormalizeSnap(minutes int) int {
	switch minutes {
	case 5, 15, 30:
		return minutes
	default:
		return DefaultSnapMinutes
	}
}

// DragRequest describes a drop on the single-day time grid.
type DragRequest struct {
	Mode        DragMode  `json:"mode"`
	Target      time.Time `json:"target"`
	SnapMinutes int       `json:"snapMinutes"`
}

// SnapToInterval rounds t to the nearest multiple of snap measured from
// midnight of t's day. Exact halves round up.
func SnapToInterval(t time.Time, snap time.Duration) time.Time {
	if snap <= 0 {
		return t
	}
	day := StartOfDay(t)
	steps := math.Floor(float64(t.Sub(day))/float64(snap) + 0.5)
	return day.Add(time.Duration(steps) * snap)
}

// Reschedule applies a drop to ev and returns the updated copy.
//
// The target is snapped first and then clamped to the day of ev's original
// start, since the day grid cannot move an event across midnight. A move keeps
// the duration exactly. resize-start does not check against End; resize-end
// never produces a zero or negative duration and falls back to one snap
// interval instead.
func Reschedule(ev model.Event, req DragRequest, now time.Time) model.Event {
	snap := time.Duration(NormalizeSnap(req.SnapMinutes)) * time.Minute
	target := clampToDay(SnapToInterval(req.Target, snap), ev.Start)

	out := ev.Clone()
	switch req.Mode {
	case DragMove:
		dur := ev.Duration()
		out.Start = target
		out.End = target.Add(dur)
	case DragResizeStart:
		out.Start = target
	case DragResizeEnd:
		if target.After(out.Start) {
			out.End = target
		} else {
			out.End = out.Start.Add(snap)
		}
	default:
		return out
	}
	out.UpdatedAt = now
	return out
}

func clampToDay(t, day time.Time) time.Time {
	lo := StartOfDay(day)
	hi := EndOfDay(day)
	if t.Before(lo) {
		return lo
	}
	if t.After(hi) {
		return hi
	}
	return t
}

// ApplyDrag reschedules the event with the given id inside events. The
// returned slice is a new collection; found is false when no event has id, in
// which case the collection is returned unchanged.
func ApplyDrag(events []model.Event, id string, req DragRequest, now time.Time) (out []model.Event, found bool) {
	out = make([]model.Event, len(events))
	for i := range events {
		if events[i].ID == id {
			out[i] = Reschedule(events[i], req, now)
			found = true
			continue
		}
		out[i] = events[i]
	}
	return out, found
}
