package ics

import (
	"context"
	"errors"
	"slices"
	"sync"

	appLog "plancal/internal/log"
	"plancal/internal/model"
	"plancal/internal/planner"
)

// Provider serves events from a set of ICS feeds.
type Provider struct {
	feeds   []Feed
	fetcher *Fetcher
}

func NewProvider(feeds []Feed, fetcher *Fetcher) *Provider {
	return &Provider{feeds: feeds, fetcher: fetcher}
}

// Events fetches every selected feed concurrently and returns the events
// overlapping the query window. A failing feed is logged and skipped; the
// call only fails when every selected feed failed.
func (p *Provider) Events(ctx context.Context, q planner.Query) ([]model.Event, error) {
	feeds := make([]Feed, 0, len(p.feeds))
	for _, f := range p.feeds {
		if len(q.CalendarIDs) == 0 || slices.Contains(q.CalendarIDs, f.ID) {
			feeds = append(feeds, f)
		}
	}

	type result struct {
		events []model.Event
		err    error
	}
	results := make([]result, len(feeds))

	var wg sync.WaitGroup
	for i, f := range feeds {
		wg.Add(1)
		go func(i int, f Feed) {
			defer wg.Done()
			res, err := p.fetcher.Fetch(ctx, f)
			if err != nil {
				results[i].err = err
				return
			}
			results[i].events, results[i].err = Parse(f, res.Body)
		}(i, f)
	}
	wg.Wait()

	out := make([]model.Event, 0)
	var errs []error
	for i, r := range results {
		if r.err != nil {
			appLog.Error("ics feed failed", r.err, "feed", feeds[i].ID)
			errs = append(errs, r.err)
			continue
		}
		for _, ev := range r.events {
			if q.Overlaps(ev) {
				out = append(out, ev)
			}
		}
	}
	if len(feeds) > 0 && len(errs) == len(feeds) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
