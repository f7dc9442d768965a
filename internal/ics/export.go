package ics

import (
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"plancal/internal/model"
)

// Export renders events as a PUBLISH calendar. The output depends only on
// events, so an unchanged collection serializes to the same bytes.
func Export(w io.Writer, events []model.Event) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//plancal//calendar export//EN")

	for _, ev := range events {
		ve := cal.AddEvent(ev.ID)
		ve.SetDtStampTime(dtStamp(ev))
		if ev.AllDay {
			ve.SetAllDayStartAt(ev.Start)
			ve.SetAllDayEndAt(ev.End)
		} else {
			ve.SetStartAt(ev.Start)
			ve.SetEndAt(ev.End)
		}
		ve.SetSummary(ev.Title)
		if ev.Description != "" {
			ve.SetDescription(ev.Description)
		}
		if ev.Location != "" {
			ve.SetLocation(ev.Location)
		}
		if s := statusTo(ev.Status); s != "" {
			ve.SetProperty(ical.ComponentPropertyStatus, s)
		}
		if p := priorityTo(ev.Priority); p > 0 {
			ve.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(p))
		}
		if len(ev.Labels) > 0 {
			ve.SetProperty(ical.ComponentPropertyCategories, strings.Join(ev.Labels, ","))
		}
		if ev.Color != "" {
			ve.SetProperty(ical.ComponentPropertyColor, ev.Color)
		}
		if ev.Organizer.Email != "" {
			ve.SetOrganizer("mailto:"+ev.Organizer.Email, ical.WithCN(ev.Organizer.Name))
		}
		for _, a := range ev.Attendees {
			if a.Email == "" {
				continue
			}
			params := []ical.PropertyParameter{ical.WithCN(a.Name)}
			if a.Response != "" {
				params = append(params, ical.ParticipationStatus(strings.ToUpper(a.Response)))
			}
			ve.AddAttendee("mailto:"+a.Email, params...)
		}
		if !ev.CreatedAt.IsZero() {
			ve.SetCreatedTime(ev.CreatedAt.UTC())
		}
		if !ev.UpdatedAt.IsZero() {
			ve.SetModifiedAt(ev.UpdatedAt.UTC())
		}
	}

	_, err := io.WriteString(w, cal.Serialize())
	return err
}

// dtStamp is the event's last revision: UpdatedAt, then CreatedAt, then
// Start.
func dtStamp(ev model.Event) time.Time {
	switch {
	case !ev.UpdatedAt.IsZero():
		return ev.UpdatedAt.UTC()
	case !ev.CreatedAt.IsZero():
		return ev.CreatedAt.UTC()
	}
	return ev.Start.UTC()
}

func statusTo(s model.Status) string {
	switch s {
	case model.StatusConfirmed:
		return "CONFIRMED"
	case model.StatusTentative:
		return "TENTATIVE"
	case model.StatusCancelled:
		return "CANCELLED"
	}
	return ""
}

func priorityTo(p model.Priority) int {
	switch p {
	case model.PriorityCritical:
		return 1
	case model.PriorityHigh:
		return 3
	case model.PriorityNormal:
		return 5
	case model.PriorityLow:
		return 9
	}
	return 0
}
