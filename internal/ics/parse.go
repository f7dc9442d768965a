package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "plancal/internal/log"
	"plancal/internal/model"
)

// Parse decodes one feed body into events. Recurring VEVENTs yield their
// first instance only; overridden instances keep their own entry.
func Parse(feed Feed, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feed.ID, err)
	}

	events := make([]model.Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, err := toEvent(feed, ve)
		if err != nil {
			appLog.Warn("ics vevent skipped", "feed", feed.ID, "err", err)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics feed parsed", "feed", feed.ID, "events", len(events))
	return events, nil
}

func toEvent(feed Feed, ve *ical.VEvent) (model.Event, error) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return model.Event{}, errors.New("missing UID")
	}

	ev := model.Event{
		ID:          uid,
		CalendarID:  feed.ID,
		Title:       unescapeText(propValue(ve, ical.ComponentPropertySummary)),
		Description: unescapeText(propValue(ve, ical.ComponentPropertyDescription)),
		Location:    unescapeText(propValue(ve, ical.ComponentPropertyLocation)),
		Status:      statusFrom(propValue(ve, ical.ComponentPropertyStatus)),
		Priority:    priorityFrom(propValue(ve, ical.ComponentPropertyPriority)),
		Color:       propValue(ve, ical.ComponentPropertyColor),
	}
	if rid := propValue(ve, ical.ComponentProperty("RECURRENCE-ID")); rid != "" {
		ev.ID = uid + "#" + rid
	}

	if err := setTimes(&ev, ve); err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", uid, err)
	}

	if p := ve.GetProperty(ical.ComponentPropertyOrganizer); p != nil {
		ev.Organizer = personFrom(p)
		ev.Owner = ev.Organizer
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyAttendee) {
		ev.Attendees = append(ev.Attendees, model.Attendee{
			Person:   personFrom(p),
			Response: strings.ToLower(param(p, "PARTSTAT")),
		})
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(unescapeText(c)); c != "" {
				ev.Labels = append(ev.Labels, c)
			}
		}
	}

	meta := map[string]string{}
	if v := propValue(ve, ical.ComponentPropertyRrule); v != "" {
		meta["rrule"] = v
	}
	if v := propValue(ve, ical.ComponentPropertyUrl); v != "" {
		meta["url"] = v
	}
	if len(meta) > 0 {
		ev.Metadata = meta
	}

	if t, err := parseICSTime(propValue(ve, ical.ComponentPropertyCreated)); err == nil {
		ev.CreatedAt = t
	}
	if t, err := parseICSTime(propValue(ve, ical.ComponentPropertyLastModified)); err == nil {
		ev.UpdatedAt = t
	}
	return ev, nil
}

// setTimes fills Start/End/AllDay. All-day events span whole local days with
// an exclusive end; a missing DTEND means one day (all-day) or one hour.
func setTimes(ev *model.Event, ve *ical.VEvent) error {
	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return errors.New("missing DTSTART")
	}

	allDay := !strings.Contains(dtStart.Value, "T") || strings.EqualFold(param(dtStart, "VALUE"), "DATE")
	if allDay {
		start, err := parseICSTime(dtStart.Value)
		if err != nil {
			return err
		}
		end := start.AddDate(0, 0, 1)
		if t, err := parseICSTime(propValue(ve, ical.ComponentPropertyDtEnd)); err == nil && t.After(start) {
			end = t
		}
		ev.Start, ev.End, ev.AllDay = start, end, true
		return nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return err
	}
	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start.Add(time.Hour)
	}
	ev.Start, ev.End = start.Local(), end.Local()
	return nil
}

func propValue(ve *ical.VEvent, name ical.ComponentProperty) string {
	if p := ve.GetProperty(name); p != nil {
		return strings.TrimSpace(p.Value)
	}
	return ""
}

func param(p *ical.IANAProperty, key string) string {
	if vs := p.ICalParameters[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func personFrom(p *ical.IANAProperty) model.Person {
	email := p.Value
	if len(email) >= 7 && strings.EqualFold(email[:7], "mailto:") {
		email = email[7:]
	}
	return model.Person{Name: param(p, "CN"), Email: email}
}

func statusFrom(v string) model.Status {
	switch strings.ToUpper(v) {
	case "TENTATIVE":
		return model.StatusTentative
	case "CANCELLED":
		return model.StatusCancelled
	case "CONFIRMED":
		return model.StatusConfirmed
	}
	return ""
}

// priorityFrom maps RFC 5545 PRIORITY (1 highest, 9 lowest, 0 undefined).
func priorityFrom(v string) model.Priority {
	n, err := strconv.Atoi(v)
	switch {
	case err != nil || n <= 0:
		return ""
	case n <= 2:
		return model.PriorityCritical
	case n <= 4:
		return model.PriorityHigh
	case n == 5:
		return model.PriorityNormal
	}
	return model.PriorityLow
}

var textUnescaper = strings.NewReplacer(`\\`, `\`, `\,`, `,`, `\;`, `;`, `\n`, "\n", `\N`, "\n")

func unescapeText(s string) string { return textUnescaper.Replace(s) }

// parseICSTime handles the three basic forms: UTC date-time, floating
// date-time (host zone) and date.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, time.Local)
	}
	return time.ParseInLocation("20060102", v, time.Local)
}
