package web

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"plancal/internal/engine"
	"plancal/internal/ics"
	appLog "plancal/internal/log"
	"plancal/internal/model"
	"plancal/internal/planner"
)

// viewResponse is the JSON response shape for the page state.
type viewResponse struct {
	View            string               `json:"view"`
	Pivot           time.Time            `json:"pivot"`
	RangeStart      time.Time            `json:"range_start"`
	RangeEnd        time.Time            `json:"range_end"`
	DisplayTimeZone string               `json:"display_timezone"`
	Query           string               `json:"query"`
	Filters         []engine.FilterGroup `json:"filters"`
	Calendars       []string             `json:"calendars"`
	Events          []model.Event        `json:"events"`
	Conflicts       []string             `json:"conflicts"`
	Status          statusDTO            `json:"status"`
	UndoDepth       int                  `json:"undo_depth"`
	RedoDepth       int                  `json:"redo_depth"`
	SnapMinutes     int                  `json:"snap_minutes"`
	AutoOffset      autoOffsetDTO        `json:"auto_offset"`
}

type autoOffsetDTO struct {
	Enabled bool `json:"enabled"`
	Minutes int  `json:"minutes"`
}

type statusDTO struct {
	Loading     bool       `json:"loading"`
	Error       string     `json:"error,omitempty"`
	LastRefresh *time.Time `json:"last_refresh,omitempty"`
	FromCache   bool       `json:"from_cache"`
	CachedAt    *time.Time `json:"cached_at,omitempty"`
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (s *Server) viewResponse() viewResponse {
	v := s.page.View()
	resp := viewResponse{
		View:            string(v.Kind),
		Pivot:           v.Pivot,
		RangeStart:      v.Range.From,
		RangeEnd:        v.Range.To,
		DisplayTimeZone: s.cfg.Location().String(),
		Query:           v.Query,
		Filters:         v.Filters,
		Calendars:       v.CalendarIDs,
		Events:          v.Events,
		Conflicts:       v.Conflicts,
		Status: statusDTO{
			Loading:     v.Status.Loading,
			LastRefresh: timePtr(v.Status.LastRefresh),
			FromCache:   v.Status.FromCache,
			CachedAt:    timePtr(v.Status.CachedAt),
		},
		UndoDepth:   v.UndoDepth,
		RedoDepth:   v.RedoDepth,
		SnapMinutes: v.SnapMinutes,
		AutoOffset: autoOffsetDTO{
			Enabled: v.AutoOffset,
			Minutes: int(v.AutoOffsetDelay / time.Minute),
		},
	}
	if v.Status.Err != nil {
		resp.Status.Error = v.Status.Err.Error()
	}
	if resp.Filters == nil {
		resp.Filters = []engine.FilterGroup{}
	}
	if resp.Calendars == nil {
		resp.Calendars = []string{}
	}
	if resp.Events == nil {
		resp.Events = []model.Event{}
	}
	if resp.Conflicts == nil {
		resp.Conflicts = []string{}
	}
	return resp
}

// handleEvents returns the visible events of the current view.
//
// GET /api/events
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	writeCachedJSON(w, r, s.viewResponse())
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.page.Event(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

// handleUpsert creates or replaces an event. New events answer 201.
func (s *Server) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var in model.Event
	if !decodeJSON(w, r, &in) {
		return
	}
	existed := false
	if in.ID != "" {
		_, existed = s.page.Event(in.ID)
	}

	ev, err := s.page.Upsert(in)
	if err != nil {
		s.writePageError(w, err)
		return
	}
	status := http.StatusOK
	if !existed {
		status = http.StatusCreated
	}
	writeJSON(w, status, ev)
}

// bulkRequest applies the non-nil fields of Set to every listed event.
type bulkRequest struct {
	IDs []string `json:"ids"`
	Set struct {
		Status     *model.Status    `json:"status"`
		Priority   *model.Priority  `json:"priority"`
		Type       *model.EventType `json:"type"`
		CalendarID *string          `json:"calendarId"`
		Team       *string          `json:"team"`
		ProjectID  *string          `json:"projectId"`
	} `json:"set"`
}

func (s *Server) handleBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}

	set := req.Set
	n, err := s.page.BulkUpdate(req.IDs, func(ev *model.Event) {
		if set.Status != nil {
			ev.Status = *set.Status
		}
		if set.Priority != nil {
			ev.Priority = *set.Priority
		}
		if set.Type != nil {
			ev.Type = *set.Type
		}
		if set.CalendarID != nil {
			ev.CalendarID = *set.CalendarID
		}
		if set.Team != nil {
			ev.Team = *set.Team
		}
		if set.ProjectID != nil {
			ev.ProjectID = *set.ProjectID
		}
	})
	if err != nil {
		s.writePageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.page.Delete(r.PathValue("id")); err != nil {
		s.writePageError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dragRequest struct {
	Mode        string    `json:"mode"`
	Target      time.Time `json:"target"`
	SnapMinutes int       `json:"snapMinutes"`
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := engine.ParseDragMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Target.IsZero() {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}

	ev, err := s.page.Drag(r.PathValue("id"), engine.DragRequest{
		Mode:        mode,
		Target:      req.Target.In(s.cfg.Location()),
		SnapMinutes: req.SnapMinutes,
	})
	if err != nil {
		s.writePageError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

type quickAddRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	var req quickAddRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ev, err := s.page.QuickAdd(req.Text)
	if err != nil {
		s.writePageError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleViews(w http.ResponseWriter, _ *http.Request) {
	kinds := engine.ViewKinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"current": string(s.page.View().Kind),
		"views":   names,
	})
}

type setViewRequest struct {
	View string `json:"view"`
	// Date is the pivot, "2006-01-02" in the display zone or RFC 3339.
	Date string `json:"date"`
}

// handleSetView switches view and pivot, then reloads the new window.
func (s *Server) handleSetView(w http.ResponseWriter, r *http.Request) {
	var req setViewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	kind, err := engine.ParseViewKind(req.View)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pivot, err := parseDate(req.Date, s.cfg.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.page.SetView(kind, pivot)
	s.refreshBestEffort(r)
	writeJSON(w, http.StatusOK, s.viewResponse())
}

type setAutoOffsetRequest struct {
	Enabled bool `json:"enabled"`
	// Minutes keeps the current offset when zero.
	Minutes int `json:"minutes"`
}

// handleSetAutoOffset turns the conflict nudge on or off for this page.
func (s *Server) handleSetAutoOffset(w http.ResponseWriter, r *http.Request) {
	var req setAutoOffsetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Minutes < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid minutes %d", req.Minutes))
		return
	}
	s.page.SetAutoOffset(req.Enabled, time.Duration(req.Minutes)*time.Minute)
	writeJSON(w, http.StatusOK, s.viewResponse())
}

type setFiltersRequest struct {
	Query  string               `json:"query"`
	Groups []engine.FilterGroup `json:"groups"`
	// Calendars, when present, replaces the calendar selection.
	Calendars *[]string `json:"calendars"`
}

func (s *Server) handleSetFilters(w http.ResponseWriter, r *http.Request) {
	var req setFiltersRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.page.SetQuery(req.Query)
	s.page.SetFilters(req.Groups)
	if req.Calendars != nil {
		s.page.SetCalendars(*req.Calendars)
		s.refreshBestEffort(r)
	}
	writeJSON(w, http.StatusOK, s.viewResponse())
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	if !s.page.Undo() {
		writeError(w, http.StatusConflict, "nothing to undo")
		return
	}
	writeJSON(w, http.StatusOK, s.viewResponse())
}

func (s *Server) handleRedo(w http.ResponseWriter, _ *http.Request) {
	if !s.page.Redo() {
		writeError(w, http.StatusConflict, "nothing to redo")
		return
	}
	writeJSON(w, http.StatusOK, s.viewResponse())
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.page.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.viewResponse())
}

// handleExport renders the visible events as an iCalendar document.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := ics.Export(&buf, s.page.View().Events); err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export events")
		return
	}
	w.Header().Set("Content-Disposition", `inline; filename="plancal.ics"`)
	writeCached(w, r, "text/calendar; charset=utf-8", buf.Bytes())
}

// refreshBestEffort reloads the page; a failure stays visible in the
// page status.
func (s *Server) refreshBestEffort(r *http.Request) {
	if err := s.page.Refresh(r.Context()); err != nil {
		appLog.Warn("refresh after view change failed", "err", err)
	}
}

func (s *Server) writePageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrEventNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, planner.ErrEmptyQuickAdd), errors.Is(err, planner.ErrInvalidEvent):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		appLog.Error("page command failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseDate accepts "" (zero time), a calendar date in loc or RFC 3339.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.In(loc), nil
}
