package commands

import (
	"context"
	"errors"
	"time"

	"plancal/internal/cache"
	"plancal/internal/config"
	"plancal/internal/engine"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
	"plancal/internal/planner"
	"plancal/internal/sink"
	"plancal/internal/store"
)

// app is the wired page with the collaborators it owns.
type app struct {
	cfg   *config.Config
	store *store.Store
	sinks *sink.Dispatcher
	page  *planner.Page
}

// openApp builds the page: cache snapshot for a fast start, the sqlite
// store for local edits, and the ICS feeds as read-only sources.
func openApp(ctx context.Context, cfg *config.Config, pivot time.Time) (*app, error) {
	st, err := store.Open(ctx, cfg.StorePath())
	if err != nil {
		return nil, err
	}
	if n, err := st.Count(ctx); err == nil {
		appLog.Debug("event store opened", "path", cfg.StorePath(), "events", n)
	} else {
		appLog.Warn("event store count failed", "path", cfg.StorePath(), "err", err)
	}

	providers := planner.MultiProvider{st}
	feeds := make([]ics.Feed, 0, len(cfg.ICS))
	for _, f := range cfg.ICS {
		if f.URL == "" {
			continue
		}
		id := f.ID
		if id == "" {
			id = f.Name
		}
		feeds = append(feeds, ics.Feed{ID: id, Name: f.Name, URL: f.URL})
	}
	if len(feeds) > 0 {
		providers = append(providers, ics.NewProvider(feeds, ics.NewFetcher(cfg.ICSCachePath(), nil)))
	}

	view, err := engine.ParseViewKind(cfg.DefaultView)
	if err != nil {
		view = engine.ViewWeek
	}
	colors, err := planner.ParseColorEncoding(cfg.ColorEncoding)
	if err != nil {
		colors = planner.ColorByCalendar
	}

	dispatcher := sink.NewDispatcher(sink.DefaultQueueSize, st)
	page := planner.NewPage(planner.Options{
		Provider:        providers,
		Cache:           cache.NewDiskKV(cfg.CachePath()),
		Sink:            dispatcher,
		View:            view,
		Pivot:           pivot,
		DefaultCalendar: cfg.DefaultCalendar,
		ColorEncoding:   colors,
		SnapMinutes:     cfg.SnapMinutes,
		HistoryLimit:    cfg.HistoryLimit,
		AutoOffset:      cfg.AutoOffset.Enabled,
		AutoOffsetDelay: cfg.AutoOffset.Duration(),
	})

	return &app{cfg: cfg, store: st, sinks: dispatcher, page: page}, nil
}

// Close drains pending store writes, then closes the store.
func (a *app) Close(ctx context.Context) error {
	return errors.Join(a.sinks.Close(ctx), a.store.Close())
}
