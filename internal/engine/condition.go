package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"

	"plancal/internal/model"
)

type Operator string

const (
	OpEquals    Operator = "equals"
	OpNotEquals Operator = "not-equals"
	OpIncludes  Operator = "includes"
	OpExcludes  Operator = "excludes"
	OpExists    Operator = "exists"
	OpNotExists Operator = "not-exists"
	OpInRange   Operator = "in-range"
)

// Symbolic values accepted by the timeRange field.
const (
	TimeUpcoming = "upcoming"
	TimePast     = "past"
	TimeNext7d   = "next7d"
)

// TimeWindow is an explicit range for the timeRange field. A zero bound is
// open.
type TimeWindow struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// FilterValue is either a plain string or a TimeWindow. On the wire it is a
// JSON string or a {"from","to"} object.
type FilterValue struct {
	Text   string
	Window *TimeWindow
}

// StringValue builds a FilterValue holding s.
func StringValue(s string) FilterValue { return FilterValue{Text: s} }

// WindowValue builds a FilterValue holding an explicit window.
func WindowValue(from, to time.Time) FilterValue {
	return FilterValue{Window: &TimeWindow{From: from, To: to}}
}

func (v FilterValue) MarshalJSON() ([]byte, error) {
	if v.Window != nil {
		return json.Marshal(v.Window)
	}
	return json.Marshal(v.Text)
}

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*v = FilterValue{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FilterValue{Text: s}
		return nil
	case data[0] == '{':
		var w TimeWindow
		if err := json.Unmarshal(data, &w); err != nil {
			return fmt.Errorf("filter value window: %w", err)
		}
		*v = FilterValue{Window: &w}
		return nil
	default:
		// Numbers and booleans are kept in their literal form.
		*v = FilterValue{Text: string(data)}
		return nil
	}
}

// FilterCondition is a single predicate over one event attribute.
type FilterCondition struct {
	Field    string      `json:"field"`
	Operator Operator    `json:"operator"`
	Value    FilterValue `json:"value"`
}

// EvaluateCondition reports whether ev satisfies cond at instant now.
//
// Conditions that cannot be evaluated (unknown field, unknown operator for a
// field, unknown symbolic time value) pass.
func EvaluateCondition(ev model.Event, cond FilterCondition, now time.Time) bool {
	switch strings.ToLower(cond.Field) {
	case "calendar":
		return compareScalar(ev.CalendarID, cond)
	case "owner":
		return compareOwner(ev, cond)
	case "team":
		return compareScalar(ev.Team, cond)
	case "project":
		return compareScalar(ev.ProjectID, cond)
	case "status":
		return compareScalar(string(ev.Status), cond)
	case "type":
		return compareScalar(string(ev.Type), cond)
	case "priority":
		return compareScalar(string(ev.Priority), cond)
	case "label":
		return compareSet(ev.Labels, cond)
	case "linkeditemtype":
		types := make([]string, 0, len(ev.LinkedItems))
		for _, li := range ev.LinkedItems {
			types = append(types, li.Type)
		}
		return compareSet(types, cond)
	case "hasattachments":
		return comparePresence(len(ev.Attachments) > 0 || ev.Flag("hasAttachments"), cond)
	case "hasreminders":
		return comparePresence(len(ev.Reminders) > 0 || ev.Flag("hasReminders"), cond)
	case "timerange":
		return compareTime(ev.Start, cond, now)
	default:
		return true
	}
}

func compareScalar(attr string, cond FilterCondition) bool {
	a := strings.ToLower(strings.TrimSpace(attr))
	want := strings.ToLower(strings.TrimSpace(cond.Value.Text))
	switch cond.Operator {
	case OpEquals:
		return a == want
	case OpNotEquals:
		return a != want
	case OpIncludes:
		return strings.Contains(a, want)
	case OpExcludes:
		return !strings.Contains(a, want)
	case OpExists:
		return a != ""
	case OpNotExists:
		return a == ""
	default:
		return true
	}
}

// compareOwner widens the owner comparison to organizer and attendee names
// for every operator except exists/not-exists, which look at the owner only.
// Every name operator ends in a fuzzy match, so equals "al" selects "Alice".
func compareOwner(ev model.Event, cond FilterCondition) bool {
	switch cond.Operator {
	case OpExists, OpNotExists:
		return compareScalar(ev.Owner.Name, cond)
	case OpEquals, OpIncludes, OpNotEquals, OpExcludes:
	default:
		return true
	}

	want := strings.ToLower(strings.TrimSpace(cond.Value.Text))
	names := make([]string, 0, 2+len(ev.Attendees))
	for _, n := range []string{ev.Owner.Name, ev.Organizer.Name} {
		if n != "" {
			names = append(names, strings.ToLower(n))
		}
	}
	for _, a := range ev.Attendees {
		if a.Name != "" {
			names = append(names, strings.ToLower(a.Name))
		}
	}

	matched := ownerMatches(want, names, cond.Operator == OpEquals || cond.Operator == OpNotEquals)
	if cond.Operator == OpNotEquals || cond.Operator == OpExcludes {
		return !matched
	}
	return matched
}

func ownerMatches(want string, names []string, exact bool) bool {
	if want == "" || len(names) == 0 {
		return false
	}
	for _, n := range names {
		if exact && n == want {
			return true
		}
		if !exact && strings.Contains(n, want) {
			return true
		}
	}
	return len(fuzzy.Find(want, names)) > 0
}

func compareSet(values []string, cond FilterCondition) bool {
	switch cond.Operator {
	case OpExists:
		return len(values) > 0
	case OpNotExists:
		return len(values) == 0
	}

	want := strings.ToLower(strings.TrimSpace(cond.Value.Text))
	has := false
	for _, v := range values {
		if strings.ToLower(strings.TrimSpace(v)) == want {
			has = true
			break
		}
	}

	switch cond.Operator {
	case OpIncludes, OpEquals:
		return has
	case OpExcludes, OpNotEquals:
		return !has
	default:
		return true
	}
}

func comparePresence(present bool, cond FilterCondition) bool {
	if cond.Operator == OpNotExists {
		return !present
	}
	return present
}

func compareTime(start time.Time, cond FilterCondition, now time.Time) bool {
	if cond.Operator != OpInRange {
		return true
	}
	if w := cond.Value.Window; w != nil {
		if !w.From.IsZero() && start.Before(w.From) {
			return false
		}
		if !w.To.IsZero() && start.After(w.To) {
			return false
		}
		return true
	}

	switch strings.ToLower(strings.TrimSpace(cond.Value.Text)) {
	case TimeUpcoming:
		return !start.Before(now)
	case TimePast:
		return start.Before(now)
	case TimeNext7d:
		return !start.Before(now) && !start.After(now.Add(7*24*time.Hour))
	default:
		return true
	}
}
