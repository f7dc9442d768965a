package model

import (
	"maps"
	"slices"
	"time"
)

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusTentative Status = "tentative"
	StatusCancelled Status = "cancelled"
	StatusMilestone Status = "milestone"
	StatusBusy      Status = "busy"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

type EventType string

const (
	TypeMeeting      EventType = "meeting"
	TypeMilestone    EventType = "milestone"
	TypeRelease      EventType = "release"
	TypeFocus        EventType = "focus"
	TypeAvailability EventType = "availability"
	TypeTask         EventType = "task"
	TypeOther        EventType = "other"
)

// Person identifies an owner, organizer or attendee.
type Person struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type Attendee struct {
	Person
	Response string `json:"response,omitempty"`
}

// LinkedItem points at a board item (task, epic, doc) related to the event.
type LinkedItem struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label,omitempty"`
}

type Reminder struct {
	// OffsetMinutes is how long before Start the reminder fires; never negative.
	OffsetMinutes int    `json:"offsetMinutes"`
	Method        string `json:"method"`
}

type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}

type Invitation struct {
	Email  string `json:"email"`
	Status string `json:"status"`
}

// Event is a single calendar entry as held by the calendar page.
//
// Events are plain values: the page owns the collection and replaces entries
// by ID on update. Start must not be after End.
type Event struct {
	ID          string `json:"id"`
	CalendarID  string `json:"calendarId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`

	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	AllDay bool      `json:"allDay,omitempty"`

	Status   Status    `json:"status,omitempty"`
	Priority Priority  `json:"priority,omitempty"`
	Type     EventType `json:"type,omitempty"`

	Owner     Person     `json:"owner,omitempty"`
	Organizer Person     `json:"organizer,omitempty"`
	Attendees []Attendee `json:"attendees,omitempty"`
	Team      string     `json:"team,omitempty"`
	ProjectID string     `json:"projectId,omitempty"`

	Labels      []string          `json:"labels,omitempty"`
	LinkedItems []LinkedItem      `json:"linkedItems,omitempty"`
	Reminders   []Reminder        `json:"reminders,omitempty"`
	Attachments []Attachment      `json:"attachments,omitempty"`
	Comments    []Comment         `json:"comments,omitempty"`
	Invitations []Invitation      `json:"invitations,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Color       string            `json:"color,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Duration returns End - Start.
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the half-open intervals [Start,End) intersect.
func (e Event) Overlaps(other Event) bool {
	return e.Start.Before(other.End) && other.Start.Before(e.End)
}

// Clone returns a copy sharing no slices or maps with e.
func (e Event) Clone() Event {
	out := e
	out.Attendees = slices.Clone(e.Attendees)
	out.Labels = slices.Clone(e.Labels)
	out.LinkedItems = slices.Clone(e.LinkedItems)
	out.Reminders = slices.Clone(e.Reminders)
	out.Attachments = slices.Clone(e.Attachments)
	out.Comments = slices.Clone(e.Comments)
	out.Invitations = slices.Clone(e.Invitations)
	if e.Metadata != nil {
		out.Metadata = maps.Clone(e.Metadata)
	}
	return out
}

// CloneEvents deep-copies a collection. A nil input yields an empty,
// non-nil slice so snapshots always encode as [].
func CloneEvents(events []Event) []Event {
	out := make([]Event, len(events))
	for i := range events {
		out[i] = events[i].Clone()
	}
	return out
}

// Flag reports whether metadata key is set to "true".
func (e Event) Flag(key string) bool {
	return e.Metadata[key] == "true"
}
