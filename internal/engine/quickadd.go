package engine

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultQuickAddTitle is used when nothing is left of the line after the
// date, time and calendar parts are removed.
const DefaultQuickAddTitle = "Untitled event"

var (
	calendarHintPattern = regexp.MustCompile(`(?:^|\s)#(\S+)`)
	dayKeywordPattern   = regexp.MustCompile(`(?i)\b(today|tomorrow)\b`)
	timeRangePattern    = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\s*-\s*(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
)

// QuickAddDraft is the event shape recovered from a quick-add line.
type QuickAddDraft struct {
	Title string    `json:"title"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	// CalendarID is empty when the line carried no #calendar hint.
	CalendarID string `json:"calendarId,omitempty"`
}

// ParseQuickAdd turns a line such as "Team sync tomorrow 2pm-3pm #eng" into a
// draft. "today" and "tomorrow" are relative to fallback's day, which is also
// the date used when neither keyword appears. Without a time range the draft
// spans 09:00-10:00. ok is false for a blank line.
func ParseQuickAdd(line string, fallback time.Time) (draft QuickAddDraft, ok bool) {
	rest := strings.TrimSpace(line)
	if rest == "" {
		return QuickAddDraft{}, false
	}

	if m := calendarHintPattern.FindStringSubmatchIndex(rest); m != nil {
		draft.CalendarID = "calendar." + strings.ToLower(rest[m[2]:m[3]])
		rest = rest[:m[0]] + " " + rest[m[1]:]
	}

	base := StartOfDay(fallback)
	if m := dayKeywordPattern.FindStringSubmatchIndex(rest); m != nil {
		if strings.EqualFold(rest[m[2]:m[3]], "tomorrow") {
			base = base.AddDate(0, 0, 1)
		}
		rest = rest[:m[0]] + " " + rest[m[1]:]
	}

	draft.Start = atClock(base, 9, 0)
	draft.End = atClock(base, 10, 0)
	if m := timeRangePattern.FindStringSubmatchIndex(rest); m != nil {
		sh, sm, smer, okStart := clockFromMatch(rest, m[2:4], m[4:6], m[6:8])
		eh, em, emer, okEnd := clockFromMatch(rest, m[8:10], m[10:12], m[12:14])
		if okStart && okEnd {
			// "2-3pm": the start borrows the end's meridiem unless that
			// would put it at or after the end, as in "11-1pm".
			if smer == "" && emer != "" && sh >= 1 && sh <= 12 {
				smer = emer
				if to24(sh, smer)*60+sm >= to24(eh, emer)*60+em {
					smer = otherMeridiem(emer)
				}
			}
			draft.Start = atClock(base, to24(sh, smer), sm)
			draft.End = atClock(base, to24(eh, emer), em)
			if !draft.End.After(draft.Start) {
				draft.End = draft.Start.Add(60 * time.Minute)
			}
			rest = rest[:m[0]] + " " + rest[m[1]:]
		}
	}

	draft.Title = strings.Join(strings.Fields(rest), " ")
	if draft.Title == "" {
		draft.Title = DefaultQuickAddTitle
	}
	return draft, true
}

// clockFromMatch reads the hour, minute and meridiem submatch index pairs.
// meridiem is "am", "pm" or empty.
func clockFromMatch(s string, hourIdx, minIdx, merIdx []int) (hour, minute int, meridiem string, ok bool) {
	hour, err := strconv.Atoi(s[hourIdx[0]:hourIdx[1]])
	if err != nil || hour > 23 {
		return 0, 0, "", false
	}
	if minIdx[0] >= 0 {
		minute, err = strconv.Atoi(s[minIdx[0]:minIdx[1]])
		if err != nil || minute > 59 {
			return 0, 0, "", false
		}
	}
	if merIdx[0] >= 0 {
		meridiem = strings.ToLower(s[merIdx[0]:merIdx[1]])
	}
	return hour, minute, meridiem, true
}

// to24 converts a clock hour with an optional meridiem to 0-23.
func to24(hour int, meridiem string) int {
	if meridiem == "" {
		return hour
	}
	hour %= 12
	if meridiem == "pm" {
		hour += 12
	}
	return hour
}

func otherMeridiem(m string) string {
	if m == "pm" {
		return "am"
	}
	return "pm"
}

func atClock(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}
