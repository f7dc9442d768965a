// Package printers renders page state for the terminal.
package printers

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"plancal/internal/engine"
	"plancal/internal/model"
	"plancal/internal/planner"
)

// Agenda prints the visible events of a view as a table. Conflicting
// events are marked with "!".
type Agenda struct {
	Out    io.Writer
	ShowID bool
}

func (a *Agenda) out() io.Writer {
	if a.Out == nil {
		return color.Output
	}
	return a.Out
}

// Title prints the view heading with its window.
func (a *Agenda) Title(v planner.View) {
	t := color.New(color.Bold, color.Underline)
	c := color.New(color.Faint)

	_, _ = t.Fprint(a.out(), heading(v.Kind, v.Range))
	_, _ = c.Fprintf(a.out(), " - %d ", len(v.Events))
	switch len(v.Events) {
	case 1:
		_, _ = c.Fprintln(a.out(), "event")
	default:
		_, _ = c.Fprintln(a.out(), "events")
	}

	if v.Status.Err != nil {
		y := color.New(color.FgHiYellow, color.Italic)
		_, _ = y.Fprintf(a.out(), "refresh failed: %v\n", v.Status.Err)
	}
	if v.Status.FromCache && !v.Status.CachedAt.IsZero() {
		_, _ = c.Fprintf(a.out(), "cached %s\n", v.Status.CachedAt.In(v.Range.From.Location()).Format("Jan 2 15:04"))
	}
}

// Print writes the heading followed by the event table.
func (a *Agenda) Print(v planner.View) {
	a.Title(v)
	if len(v.Events) == 0 {
		f := color.New(color.Faint, color.Italic)
		_, _ = f.Fprint(a.out(), " none\n\n")
		return
	}

	conflicts := make(map[string]struct{}, len(v.Conflicts))
	for _, id := range v.Conflicts {
		conflicts[id] = struct{}{}
	}

	events := slices.Clone(v.Events)
	slices.SortStableFunc(events, func(x, y model.Event) int {
		if c := x.Start.Compare(y.Start); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})

	bold := color.New(color.Bold)
	red := color.New(color.FgHiRed)
	faint := color.New(color.Faint)

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	header := []any{"", bold.Sprint("Day"), bold.Sprint("Time"), bold.Sprint("Title"), bold.Sprint("Calendar"), bold.Sprint("Status")}
	if a.ShowID {
		header = append(header, bold.Sprint("ID"))
	}
	tbl.AddRow(header...)

	loc := v.Range.From.Location()
	for _, ev := range events {
		mark, title := " ", ev.Title
		if _, ok := conflicts[ev.ID]; ok {
			mark, title = red.Sprint("!"), red.Sprint(ev.Title)
		}
		status := string(ev.Status)
		if ev.Status == model.StatusCancelled {
			status = faint.Sprint(status)
		}
		row := []any{mark, ev.Start.In(loc).Format("Mon Jan 2"), clock(ev, loc), title, ev.CalendarID, status}
		if a.ShowID {
			row = append(row, faint.Sprint(ev.ID))
		}
		tbl.AddRow(row...)
	}

	_, _ = fmt.Fprintln(a.out(), tbl)
	if n := len(v.Conflicts); n > 0 {
		_, _ = red.Fprintf(a.out(), "%d conflicting events\n", n)
	}
	_, _ = fmt.Fprintln(a.out())
}

func heading(kind engine.ViewKind, r engine.Range) string {
	name := string(kind)
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	from, to := r.From.Format("Mon Jan 2"), r.To.Format("Mon Jan 2 2006")
	if r.From.Year() == r.To.Year() && r.From.YearDay() == r.To.YearDay() {
		return fmt.Sprintf("%s %s", name, to)
	}
	return fmt.Sprintf("%s %s to %s", name, from, to)
}

func clock(ev model.Event, loc *time.Location) string {
	if ev.AllDay {
		return "all day"
	}
	return ev.Start.In(loc).Format("15:04") + "-" + ev.End.In(loc).Format("15:04")
}
