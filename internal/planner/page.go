// Package planner holds the state of one calendar page: the working event
// collection with its history, the active view and filters, and the
// collaborators it reads from and writes to.
package planner

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"plancal/internal/cache"
	"plancal/internal/engine"
	appLog "plancal/internal/log"
	"plancal/internal/model"
	"plancal/internal/sink"
)

var (
	ErrEventNotFound = errors.New("event not found")
	ErrEmptyQuickAdd = errors.New("quick-add text is empty")
	ErrInvalidEvent  = errors.New("invalid event")
)

// Status describes the last provider refresh.
type Status struct {
	Loading     bool
	Err         error
	LastRefresh time.Time
	// FromCache is set while the collection still comes from the local cache.
	FromCache bool
	CachedAt  time.Time
}

// Options configures a Page. Provider, Cache and Sink are optional.
type Options struct {
	Provider Provider
	Cache    cache.KV
	Sink     sink.Sink

	View            engine.ViewKind
	Pivot           time.Time
	CalendarIDs     []string
	DefaultCalendar string
	ColorEncoding   ColorEncoding
	SnapMinutes     int
	HistoryLimit    int

	AutoOffset      bool
	AutoOffsetDelay time.Duration

	Now   func() time.Time
	NewID func() string
}

// View is a read-only snapshot of what the page shows.
type View struct {
	Kind        engine.ViewKind
	Pivot       time.Time
	Range       engine.Range
	Query       string
	Tokens      []engine.SearchToken
	Filters     []engine.FilterGroup
	CalendarIDs []string
	Events      []model.Event
	Conflicts   []string
	Status      Status
	UndoDepth   int
	RedoDepth   int
	SnapMinutes int

	AutoOffset      bool
	AutoOffsetDelay time.Duration
}

// Page is the calendar page state container. Every command runs to
// completion under one mutex, including conflict detection and the
// auto-offset reaction; provider I/O happens outside it.
type Page struct {
	provider Provider
	kv       cache.KV
	sink     sink.Sink
	now      func() time.Time
	newID    func() string

	mu              sync.Mutex
	view            engine.ViewKind
	pivot           time.Time
	calendarIDs     []string
	defaultCalendar string
	colors          ColorEncoding
	snap            int
	query           string
	tokens          []engine.SearchToken
	groups          []engine.FilterGroup
	history         *engine.History
	offset          *engine.AutoOffset
	visible         []model.Event
	conflicts       engine.ConflictSet
	status          Status
	refreshSeq      uint64
}

// NewPage builds a page and, when a cache is configured, pre-populates the
// collection from it.
func NewPage(opts Options) *Page {
	p := &Page{
		provider:        opts.Provider,
		kv:              opts.Cache,
		sink:            opts.Sink,
		now:             opts.Now,
		newID:           opts.NewID,
		view:            opts.View,
		pivot:           opts.Pivot,
		calendarIDs:     slices.Clone(opts.CalendarIDs),
		defaultCalendar: opts.DefaultCalendar,
		colors:          opts.ColorEncoding,
		snap:            engine.NormalizeSnap(opts.SnapMinutes),
		history:         engine.NewHistory(nil, opts.HistoryLimit),
		offset:          engine.NewAutoOffset(opts.AutoOffset, opts.AutoOffsetDelay),
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.newID == nil {
		p.newID = uuid.NewString
	}
	if p.view == "" {
		p.view = engine.ViewWeek
	}
	if p.pivot.IsZero() {
		p.pivot = p.now()
	}
	if p.defaultCalendar == "" {
		p.defaultCalendar = "calendar.default"
	}
	if p.colors == "" {
		p.colors = ColorByCalendar
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadCache()
	p.settle(p.history.Events())
	return p
}

func (p *Page) loadCache() {
	if p.kv == nil {
		return
	}
	snap, err := cache.LoadSnapshot(p.kv)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			appLog.Warn("event cache unreadable, starting empty", "err", err)
		}
		return
	}
	p.history.Reset(snap.Events)
	p.status.FromCache = true
	p.status.CachedAt = snap.CachedAt
	appLog.Debug("events restored from cache", "count", len(snap.Events), "cached_at", snap.CachedAt)
}

// Query returns what the provider is asked for under the current view.
func (p *Page) Query() Query {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queryLocked()
}

func (p *Page) queryLocked() Query {
	r := engine.ResolveRange(p.view, p.pivot)
	return Query{
		From:          r.From,
		To:            r.To,
		CalendarIDs:   slices.Clone(p.calendarIDs),
		ColorEncoding: p.colors,
	}
}

// Refresh asks the provider for the current window and replaces the
// collection with its answer. Undo and redo stacks are kept. On failure the
// collection is left alone and the error is recorded in Status. A refresh
// overtaken by a newer one is discarded.
func (p *Page) Refresh(ctx context.Context) error {
	p.mu.Lock()
	if p.provider == nil {
		p.mu.Unlock()
		return nil
	}
	p.refreshSeq++
	seq := p.refreshSeq
	p.status.Loading = true
	q := p.queryLocked()
	p.mu.Unlock()

	events, err := p.provider.Events(ctx, q)

	p.mu.Lock()
	defer p.mu.Unlock()
	if seq != p.refreshSeq {
		return nil
	}
	p.status.Loading = false
	if err != nil {
		p.status.Err = err
		appLog.Error("event refresh failed", err, "from", q.From, "to", q.To)
		return fmt.Errorf("refresh: %w", err)
	}

	events = model.CloneEvents(events)
	Colorize(events, p.colors)
	p.history.Reset(events)
	p.status.Err = nil
	p.status.FromCache = false
	p.status.LastRefresh = p.now()
	appLog.Debug("events refreshed", "count", len(events), "from", q.From, "to", q.To)

	p.settle(p.history.Events())
	return nil
}

// SetView switches the view kind and pivot date and returns the new window.
// Callers refresh afterwards to load the window.
func (p *Page) SetView(kind engine.ViewKind, pivot time.Time) engine.Range {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.view = kind
	if !pivot.IsZero() {
		p.pivot = pivot
	}
	p.settle(p.history.Events())
	return engine.ResolveRange(p.view, p.pivot)
}

// SetQuery replaces the free-text search.
func (p *Page) SetQuery(query string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.query = query
	p.tokens = engine.ParseSearchTokens(query)
	p.settle(p.history.Events())
}

// SetFilters replaces the structured filter groups.
func (p *Page) SetFilters(groups []engine.FilterGroup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups = slices.Clone(groups)
	p.settle(p.history.Events())
}

// SetCalendars limits the page to the given calendars; empty shows all.
func (p *Page) SetCalendars(ids []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calendarIDs = slices.Clone(ids)
	p.settle(p.history.Events())
}

// SetAutoOffset reconfigures the conflict nudge. A non-positive delay keeps
// the current one. Enabling it reacts to conflicts already on the page.
func (p *Page) SetAutoOffset(enabled bool, delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.offset.Enabled = enabled
	if delay > 0 {
		p.offset.Offset = delay
	}
	p.settle(p.history.Events())
}

// QuickAdd parses line against the start of the current window and adds
// the resulting event.
func (p *Page) QuickAdd(line string) (model.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	r := engine.ResolveRange(p.view, p.pivot)
	draft, ok := engine.ParseQuickAdd(line, r.From)
	if !ok {
		return model.Event{}, ErrEmptyQuickAdd
	}

	now := p.now()
	ev := model.Event{
		ID:         p.newID(),
		CalendarID: draft.CalendarID,
		Title:      draft.Title,
		Start:      draft.Start,
		End:        draft.End,
		Status:     model.StatusConfirmed,
		Priority:   model.PriorityNormal,
		Type:       model.TypeMeeting,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if ev.CalendarID == "" {
		ev.CalendarID = p.defaultCalendar
	}
	ev.Color = ColorFor(ev, p.colors)

	p.mutate(func(events []model.Event) []model.Event {
		return append(events, ev)
	})
	return p.lookup(ev.ID), nil
}

// Upsert inserts ev or replaces the event with the same ID. An empty ID
// gets a fresh one.
func (p *Page) Upsert(ev model.Event) (model.Event, error) {
	if err := validateEvent(ev); err != nil {
		return model.Event{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	ev = ev.Clone()
	if ev.ID == "" {
		ev.ID = p.newID()
	}
	if ev.CalendarID == "" {
		ev.CalendarID = p.defaultCalendar
	}
	if old, ok := p.find(ev.ID); ok && ev.CreatedAt.IsZero() {
		ev.CreatedAt = old.CreatedAt
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = now
	}
	ev.UpdatedAt = now
	ev.Color = ColorFor(ev, p.colors)

	p.mutate(func(events []model.Event) []model.Event {
		for i := range events {
			if events[i].ID == ev.ID {
				events[i] = ev
				return events
			}
		}
		return append(events, ev)
	})
	return p.lookup(ev.ID), nil
}

func validateEvent(ev model.Event) error {
	if ev.End.Before(ev.Start) {
		return fmt.Errorf("%w: ends before it starts", ErrInvalidEvent)
	}
	for i, r := range ev.Reminders {
		if r.OffsetMinutes < 0 {
			return fmt.Errorf("%w: reminder %d has negative offset %d", ErrInvalidEvent, i, r.OffsetMinutes)
		}
	}
	return nil
}

// BulkUpdate applies fn to every listed event in a single history entry and
// returns how many events it touched.
func (p *Page) BulkUpdate(ids []string, fn func(*model.Event)) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := p.find(id); ok {
			want[id] = struct{}{}
		}
	}
	if len(want) == 0 {
		return 0, ErrEventNotFound
	}

	now := p.now()
	p.mutate(func(events []model.Event) []model.Event {
		for i := range events {
			if _, ok := want[events[i].ID]; ok {
				fn(&events[i])
				events[i].UpdatedAt = now
			}
		}
		return events
	})
	return len(want), nil
}

// Delete removes the event with the given ID.
func (p *Page) Delete(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.find(id); !ok {
		return ErrEventNotFound
	}
	p.mutate(func(events []model.Event) []model.Event {
		return slices.DeleteFunc(events, func(ev model.Event) bool { return ev.ID == id })
	})
	return nil
}

// Drag reschedules one event. A zero SnapMinutes uses the page setting.
// Unknown IDs leave history untouched.
func (p *Page) Drag(id string, req engine.DragRequest) (model.Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.find(id); !ok {
		return model.Event{}, ErrEventNotFound
	}
	if req.SnapMinutes == 0 {
		req.SnapMinutes = p.snap
	}
	now := p.now()
	p.mutate(func(events []model.Event) []model.Event {
		out, _ := engine.ApplyDrag(events, id, req, now)
		return out
	})
	return p.lookup(id), nil
}

// Undo reverts the last mutation; it reports false when there is none.
func (p *Page) Undo() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := p.history.Events()
	if !p.history.Undo() {
		return false
	}
	p.settle(before)
	return true
}

// Redo re-applies the last undone mutation.
func (p *Page) Redo() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	before := p.history.Events()
	if !p.history.Redo() {
		return false
	}
	p.settle(before)
	return true
}

// View returns a snapshot of the visible state.
func (p *Page) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return View{
		Kind:        p.view,
		Pivot:       p.pivot,
		Range:       engine.ResolveRange(p.view, p.pivot),
		Query:       p.query,
		Tokens:      slices.Clone(p.tokens),
		Filters:     slices.Clone(p.groups),
		CalendarIDs: slices.Clone(p.calendarIDs),
		Events:      model.CloneEvents(p.visible),
		Conflicts:   p.conflicts.IDs(),
		Status:      p.status,
		UndoDepth:   p.history.UndoDepth(),
		RedoDepth:   p.history.RedoDepth(),
		SnapMinutes: p.snap,

		AutoOffset:      p.offset.Enabled,
		AutoOffsetDelay: p.offset.Offset,
	}
}

// Events returns the whole working collection, visible or not.
func (p *Page) Events() []model.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.history.Events()
}

// Event looks up one event in the working collection.
func (p *Page) Event(id string) (model.Event, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.find(id)
}

func (p *Page) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Page) find(id string) (model.Event, bool) {
	for _, ev := range p.history.Events() {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

func (p *Page) lookup(id string) model.Event {
	ev, _ := p.find(id)
	return ev
}

func (p *Page) mutate(fn func([]model.Event) []model.Event) {
	before := p.history.Events()
	p.history.Commit(fn)
	p.settle(before)
}

// settle recomputes the visible set and conflicts, lets the auto-offset
// react, then writes the cache and tells the sink what changed since
// baseline.
func (p *Page) settle(baseline []model.Event) {
	p.recompute()
	if p.offset.Observe(p.conflicts, p.history, p.now()) {
		appLog.Info("conflicting events nudged", "signature", p.offset.Signature(), "by", p.offset.Offset)
		p.recompute()
	}

	current := p.history.Events()
	p.writeCache(current)
	p.notify(baseline, current)
}

func (p *Page) recompute() {
	q := p.queryLocked()
	inWindow := make([]model.Event, 0)
	for _, ev := range p.history.Events() {
		if q.Overlaps(ev) && q.Includes(ev.CalendarID) {
			inWindow = append(inWindow, ev)
		}
	}
	p.visible = engine.FilterEvents(inWindow, p.groups, p.tokens, p.now())
	p.conflicts = engine.DetectConflicts(p.visible)
}

func (p *Page) writeCache(events []model.Event) {
	if p.kv == nil {
		return
	}
	if err := cache.SaveSnapshot(p.kv, events, p.now()); err != nil {
		appLog.Warn("event cache write failed", "err", err)
	}
}

func (p *Page) notify(before, after []model.Event) {
	if p.sink == nil {
		return
	}
	ctx := context.Background()
	prev := make(map[string]model.Event, len(before))
	for _, ev := range before {
		prev[ev.ID] = ev
	}
	for _, ev := range after {
		old, ok := prev[ev.ID]
		delete(prev, ev.ID)
		if ok && reflect.DeepEqual(old, ev) {
			continue
		}
		if err := p.sink.SaveEvent(ctx, ev); err != nil {
			appLog.Debug("sink save not queued", "id", ev.ID, "err", err)
		}
	}
	for _, ev := range before {
		if _, gone := prev[ev.ID]; !gone {
			continue
		}
		if err := p.sink.DeleteEvent(ctx, ev.ID); err != nil {
			appLog.Debug("sink delete not queued", "id", ev.ID, "err", err)
		}
	}
}
