package planner

import (
	"context"
	"errors"
	"slices"
	"time"

	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// Query selects the events a provider should return.
type Query struct {
	From, To      time.Time
	CalendarIDs   []string // empty means every calendar
	ColorEncoding ColorEncoding
}

// Overlaps reports whether ev intersects the inclusive [From, To] window.
// A zero bound is open.
func (q Query) Overlaps(ev model.Event) bool {
	if !q.To.IsZero() && ev.Start.After(q.To) {
		return false
	}
	if !q.From.IsZero() && ev.End.Before(q.From) {
		return false
	}
	return true
}

// Includes reports whether calendarID is selected by the query.
func (q Query) Includes(calendarID string) bool {
	return len(q.CalendarIDs) == 0 || slices.Contains(q.CalendarIDs, calendarID)
}

// Provider is an event source.
type Provider interface {
	Events(ctx context.Context, q Query) ([]model.Event, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, q Query) ([]model.Event, error)

func (f ProviderFunc) Events(ctx context.Context, q Query) ([]model.Event, error) {
	return f(ctx, q)
}

// MultiProvider merges several sources. Events are deduplicated by ID, the
// earlier provider winning. A failing provider is skipped unless all fail.
type MultiProvider []Provider

func (m MultiProvider) Events(ctx context.Context, q Query) ([]model.Event, error) {
	out := make([]model.Event, 0)
	seen := make(map[string]struct{})
	var errs []error
	for _, p := range m {
		events, err := p.Events(ctx, q)
		if err != nil {
			appLog.Warn("event provider failed", "err", err)
			errs = append(errs, err)
			continue
		}
		for _, ev := range events {
			if _, dup := seen[ev.ID]; dup {
				continue
			}
			seen[ev.ID] = struct{}{}
			out = append(out, ev)
		}
	}
	if len(m) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
