package planner

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"plancal/internal/model"
)

// ColorEncoding picks which event attribute drives the display color.
type ColorEncoding string

const (
	ColorByCalendar ColorEncoding = "calendar"
	ColorByPriority ColorEncoding = "priority"
	ColorByStatus   ColorEncoding = "status"
	ColorByType     ColorEncoding = "type"
	ColorNone       ColorEncoding = "none"
)

func ParseColorEncoding(s string) (ColorEncoding, error) {
	switch e := ColorEncoding(strings.ToLower(strings.TrimSpace(s))); e {
	case "":
		return ColorByCalendar, nil
	case ColorByCalendar, ColorByPriority, ColorByStatus, ColorByType, ColorNone:
		return e, nil
	}
	return "", fmt.Errorf("unknown color encoding %q", s)
}

var (
	priorityHues = map[model.Priority]float64{
		model.PriorityCritical: 0,
		model.PriorityHigh:     30,
		model.PriorityNormal:   210,
		model.PriorityLow:      180,
	}
	statusHues = map[model.Status]float64{
		model.StatusConfirmed: 140,
		model.StatusTentative: 50,
		model.StatusMilestone: 280,
		model.StatusBusy:      0,
	}
	typeHues = map[model.EventType]float64{
		model.TypeMeeting:      210,
		model.TypeMilestone:    280,
		model.TypeRelease:      330,
		model.TypeFocus:        140,
		model.TypeAvailability: 90,
		model.TypeTask:         30,
	}
)

const grey = "#9e9e9e"

// ColorFor returns the color ev should be drawn with under enc. An explicit
// event color always wins.
func ColorFor(ev model.Event, enc ColorEncoding) string {
	if ev.Color != "" {
		return ev.Color
	}
	switch enc {
	case ColorNone:
		return ""
	case ColorByPriority:
		h, ok := priorityHues[ev.Priority]
		return hueOr(h, ok)
	case ColorByStatus:
		h, ok := statusHues[ev.Status]
		return hueOr(h, ok)
	case ColorByType:
		h, ok := typeHues[ev.Type]
		return hueOr(h, ok)
	}
	f := fnv.New32a()
	_, _ = f.Write([]byte(ev.CalendarID))
	return colorful.Hsv(float64(f.Sum32()%360), 0.55, 0.85).Hex()
}

func hueOr(h float64, ok bool) string {
	if !ok {
		return grey
	}
	return colorful.Hsv(h, 0.65, 0.9).Hex()
}

// Colorize fills Color on every event that has none.
func Colorize(events []model.Event, enc ColorEncoding) {
	for i := range events {
		events[i].Color = ColorFor(events[i], enc)
	}
}
