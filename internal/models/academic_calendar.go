package models

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// EventType classifies a dated period of the academic calendar.
type EventType string

const (
	EventTypeTeaching  EventType = "teaching"
	EventTypeBreak     EventType = "break"
	EventTypeExam      EventType = "exam"
	EventTypeHoliday   EventType = "holiday"
	EventTypeRetake    EventType = "retake"
	EventTypePractice  EventType = "practice"
	EventTypeLicensure EventType = "licensure"
	EventTypeOther     EventType = "other"
)

// EventTypes lists every supported event type in display order.
var EventTypes = []EventType{
	EventTypeTeaching,
	EventTypeBreak,
	EventTypeExam,
	EventTypeHoliday,
	EventTypeRetake,
	EventTypePractice,
	EventTypeLicensure,
	EventTypeOther,
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// UnmarshalJSON rejects event types outside the closed set.
func (t *EventType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	candidate := EventType(raw)
	if !candidate.Valid() {
		return fmt.Errorf("unknown event type %q", raw)
	}
	*t = candidate
	return nil
}

// SemesterID identifies one of the two halves of an academic year.
type SemesterID int

const (
	Semester1 SemesterID = 1
	Semester2 SemesterID = 2
)

// ParseSemesterID accepts "1"/"2" and "semester_1"/"semester_2".
func ParseSemesterID(raw string) (SemesterID, error) {
	switch raw {
	case "1", "semester_1", "semester1":
		return Semester1, nil
	case "2", "semester_2", "semester2":
		return Semester2, nil
	default:
		return 0, fmt.Errorf("unknown semester %q", raw)
	}
}

// String returns the record field name of the semester.
func (s SemesterID) String() string {
	if s == Semester2 {
		return "semester_2"
	}
	return "semester_1"
}

// AcademicEvent is a dated, typed span within a semester. Start and End are inclusive.
type AcademicEvent struct {
	ID                     string    `json:"id"`
	Start                  Date      `json:"start"`
	End                    Date      `json:"end"`
	Type                   EventType `json:"type"`
	Weeks                  int       `json:"weeks"`
	TeachingWeekIndexStart *int      `json:"teachingWeekIndexStart,omitempty"`
	TeachingWeekIndexEnd   *int      `json:"teachingWeekIndexEnd,omitempty"`
	CustomName             *string   `json:"customName,omitempty"`
}

// Contains reports whether d falls inside the inclusive range of the event.
func (e AcademicEvent) Contains(d Date) bool {
	return !d.Before(e.Start) && !d.After(e.End)
}

// UnmarshalJSON assigns a fresh id to events persisted without one.
func (e *AcademicEvent) UnmarshalJSON(data []byte) error {
	type alias AcademicEvent
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.ID == "" {
		decoded.ID = uuid.NewString()
	}
	*e = AcademicEvent(decoded)
	return nil
}

// Semester holds the events of one half of the academic year in insertion order.
type Semester struct {
	Events []AcademicEvent `json:"events"`
}

// AcademicCalendar is a labelled academic year made of exactly two semesters.
type AcademicCalendar struct {
	ID             string   `json:"id"`
	AcademicYear   string   `json:"academic_year"`
	Semester1      Semester `json:"semester_1"`
	Semester2      Semester `json:"semester_2"`
	UniversityName *string  `json:"university_name,omitempty"`
	CustomName     *string  `json:"custom_name,omitempty"`
}

// UnmarshalJSON accepts records stored before ids existed by generating one.
func (c *AcademicCalendar) UnmarshalJSON(data []byte) error {
	type alias AcademicCalendar
	var decoded alias
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	if decoded.ID == "" {
		decoded.ID = uuid.NewString()
	}
	*c = AcademicCalendar(decoded)
	return nil
}

// Semester returns a pointer to the requested semester so callers can edit a copy in place.
func (c *AcademicCalendar) Semester(id SemesterID) *Semester {
	if id == Semester2 {
		return &c.Semester2
	}
	return &c.Semester1
}

// Clone returns a deep copy of the calendar.
func (c *AcademicCalendar) Clone() *AcademicCalendar {
	if c == nil {
		return nil
	}
	out := *c
	out.Semester1.Events = cloneEvents(c.Semester1.Events)
	out.Semester2.Events = cloneEvents(c.Semester2.Events)
	out.UniversityName = cloneString(c.UniversityName)
	out.CustomName = cloneString(c.CustomName)
	return &out
}

// DisplayName prefers the custom name, then the university, then the academic year.
func (c *AcademicCalendar) DisplayName() string {
	if c.CustomName != nil && *c.CustomName != "" {
		return *c.CustomName
	}
	if c.UniversityName != nil && *c.UniversityName != "" {
		return fmt.Sprintf("%s %s", *c.UniversityName, c.AcademicYear)
	}
	return c.AcademicYear
}

// CalendarTemplate carries the four semester boundaries of a known institution.
type CalendarTemplate struct {
	Key            string `json:"key" yaml:"key"`
	UniversityName string `json:"university_name" yaml:"university_name"`
	AcademicYear   string `json:"academic_year" yaml:"academic_year"`
	Semester1Start string `json:"semester1_start" yaml:"semester1_start"`
	Semester1End   string `json:"semester1_end" yaml:"semester1_end"`
	Semester2Start string `json:"semester2_start" yaml:"semester2_start"`
	Semester2End   string `json:"semester2_end" yaml:"semester2_end"`
}

// Position is the resolved teaching week and semester for a date.
// A nil TeachingWeek means the date is outside any teaching period.
type Position struct {
	TeachingWeek *int       `json:"teaching_week"`
	Semester     SemesterID `json:"semester"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int { return &v }

// StringPtr returns a pointer to v.
func StringPtr(v string) *string { return &v }

func cloneEvents(in []AcademicEvent) []AcademicEvent {
	if in == nil {
		return nil
	}
	out := make([]AcademicEvent, len(in))
	for i, ev := range in {
		ev.TeachingWeekIndexStart = cloneInt(ev.TeachingWeekIndexStart)
		ev.TeachingWeekIndexEnd = cloneInt(ev.TeachingWeekIndexEnd)
		ev.CustomName = cloneString(ev.CustomName)
		out[i] = ev
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
