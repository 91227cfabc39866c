package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// WeekdayLabels lists the seven weekday labels in Monday-first order.
var WeekdayLabels = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// RawTimeInstance is one observed occurrence produced by any extraction path.
type RawTimeInstance struct {
	Date      string `json:"date"`                 // ISO date, YYYY-MM-DD
	StartTime string `json:"start_time,omitempty"` // HH:MM
	EndTime   string `json:"end_time,omitempty"`   // HH:MM
	Note      string `json:"note,omitempty"`
	Location  string `json:"location,omitempty"`
}

// Key returns the deduplication key (date, start, end, note).
func (r RawTimeInstance) Key() string {
	return r.Date + "|" + r.StartTime + "|" + r.EndTime + "|" + r.Note
}

// DayHours holds the opening hours of one weekday, or marks it closed.
type DayHours struct {
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
	Closed bool   `json:"-"`
}

// Range renders the hours as "HH:MM-HH:MM", or "closed".
func (d DayHours) Range() string {
	if d.Closed {
		return "closed"
	}
	return d.Open + "-" + d.Close
}

// MarshalJSON renders closed days as the string "closed".
func (d DayHours) MarshalJSON() ([]byte, error) {
	if d.Closed {
		return json.Marshal("closed")
	}
	return json.Marshal(struct {
		Open  string `json:"open"`
		Close string `json:"close"`
	}{d.Open, d.Close})
}

// UnmarshalJSON accepts either "closed" or an {open, close} object.
func (d *DayHours) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "closed" {
			return fmt.Errorf("invalid day hours %q", s)
		}
		*d = DayHours{Closed: true}
		return nil
	}
	var obj struct {
		Open  string `json:"open"`
		Close string `json:"close"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*d = DayHours{Open: obj.Open, Close: obj.Close}
	return nil
}

// Exception status values
const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

// Exception is a dated deviation from the weekly pattern.
type Exception struct {
	Date   string `json:"date"`
	Status string `json:"status"` // open or closed
	Open   string `json:"open,omitempty"`
	Close  string `json:"close,omitempty"`
}

// WeeklySchedule maps weekday labels to hours. A missing label means no information for that day.
type WeeklySchedule struct {
	Days       map[string]DayHours `json:"days"`
	Exceptions []Exception         `json:"exceptions,omitempty"`
}

// NewWeeklySchedule returns an empty schedule.
func NewWeeklySchedule() *WeeklySchedule {
	return &WeeklySchedule{Days: make(map[string]DayHours)}
}

// PopulatedDays counts weekdays that have opening hours (closed days are not counted).
func (w *WeeklySchedule) PopulatedDays() int {
	if w == nil {
		return 0
	}
	n := 0
	for _, d := range w.Days {
		if !d.Closed && d.Open != "" {
			n++
		}
	}
	return n
}

// SortExceptions orders exceptions by date.
func (w *WeeklySchedule) SortExceptions() {
	sort.SliceStable(w.Exceptions, func(i, j int) bool {
		return w.Exceptions[i].Date < w.Exceptions[j].Date
	})
}

// EventInstance is one discrete occurrence of a timed event.
type EventInstance struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Location  string `json:"location,omitempty"`
	Note      string `json:"note,omitempty"`
}

// EventInstanceSet is a deduplicated list of event occurrences.
type EventInstanceSet struct {
	Instances []EventInstance `json:"instances"`
}

// Classification of an entity's dates
type Classification string

const (
	ClassificationPlace Classification = "place"
	ClassificationEvent Classification = "event"
)

// Dates holds exactly one of a weekly schedule or an event set.
type Dates struct {
	Schedule *WeeklySchedule
	Events   *EventInstanceSet
}

// Classification returns "place" for schedules, "event" for event sets, or "" when empty.
func (d *Dates) Classification() Classification {
	switch {
	case d == nil:
		return ""
	case d.Schedule != nil:
		return ClassificationPlace
	case d.Events != nil:
		return ClassificationEvent
	}
	return ""
}

// IsEmpty reports whether no schedule or events are present.
func (d *Dates) IsEmpty() bool {
	return d == nil || (d.Schedule == nil && (d.Events == nil || len(d.Events.Instances) == 0))
}

type datesJSON struct {
	Type       string              `json:"type"`
	Days       map[string]DayHours `json:"days,omitempty"`
	Exceptions []Exception         `json:"exceptions,omitempty"`
	Instances  []EventInstance     `json:"instances,omitempty"`
}

// MarshalJSON renders the populated variant with a "type" discriminator.
func (d Dates) MarshalJSON() ([]byte, error) {
	switch {
	case d.Schedule != nil:
		return json.Marshal(datesJSON{Type: "weekly_schedule", Days: d.Schedule.Days, Exceptions: d.Schedule.Exceptions})
	case d.Events != nil:
		return json.Marshal(datesJSON{Type: "event_instances", Instances: d.Events.Instances})
	}
	return []byte("null"), nil
}

// UnmarshalJSON reverses MarshalJSON.
func (d *Dates) UnmarshalJSON(data []byte) error {
	var raw datesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch raw.Type {
	case "weekly_schedule":
		d.Schedule = &WeeklySchedule{Days: raw.Days, Exceptions: raw.Exceptions}
	case "event_instances":
		d.Events = &EventInstanceSet{Instances: raw.Instances}
	default:
		return fmt.Errorf("unknown dates type %q", raw.Type)
	}
	return nil
}
