package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Frequency controls which teaching weeks a recurring meeting takes place in.
type Frequency string

const (
	FrequencyWeekly       Frequency = "weekly"
	FrequencyBiweeklyOdd  Frequency = "biweeklyOdd"
	FrequencyBiweeklyEven Frequency = "biweeklyEven"
)

// Valid reports whether f is a known frequency.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweeklyOdd, FrequencyBiweeklyEven:
		return true
	default:
		return false
	}
}

// UnmarshalJSON rejects unknown frequencies.
func (f *Frequency) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	candidate := Frequency(raw)
	if !candidate.Valid() {
		return fmt.Errorf("unknown frequency %q", raw)
	}
	*f = candidate
	return nil
}

// MeetingKind distinguishes the lecture slot of a subject from its seminar slot.
type MeetingKind string

const (
	MeetingKindCourse  MeetingKind = "course"
	MeetingKindSeminar MeetingKind = "seminar"
)

// RecurringMeeting is a weekly class slot. Days use 1=Sunday through 7=Saturday.
type RecurringMeeting struct {
	Days      []int     `json:"days" validate:"required,min=1,dive,min=1,max=7"`
	Frequency Frequency `json:"frequency" validate:"required,frequency"`
	StartTime TimeOfDay `json:"startTime"`
	EndTime   TimeOfDay `json:"endTime"`
}

// WeekdayNumber converts a time.Weekday to the 1=Sunday..7=Saturday numbering.
func WeekdayNumber(w time.Weekday) int {
	return int(w) + 1
}

// HasDay reports whether the meeting is held on weekday w.
func (m RecurringMeeting) HasDay(w time.Weekday) bool {
	target := WeekdayNumber(w)
	for _, d := range m.Days {
		if d == target {
			return true
		}
	}
	return false
}

// Subject is a course taken during an academic calendar with optional course and seminar slots.
type Subject struct {
	ID         string            `json:"id"`
	CalendarID string            `json:"calendar_id"`
	Name       string            `json:"name"`
	Code       *string           `json:"code,omitempty"`
	Teacher    *string           `json:"teacher,omitempty"`
	Room       *string           `json:"room,omitempty"`
	Course     *RecurringMeeting `json:"course,omitempty"`
	Seminar    *RecurringMeeting `json:"seminar,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Meetings returns the defined meeting slots of the subject keyed by kind.
func (s Subject) Meetings() map[MeetingKind]RecurringMeeting {
	out := make(map[MeetingKind]RecurringMeeting, 2)
	if s.Course != nil {
		out[MeetingKindCourse] = *s.Course
	}
	if s.Seminar != nil {
		out[MeetingKindSeminar] = *s.Seminar
	}
	return out
}

// SubjectFilter captures supported filters for listing subjects.
type SubjectFilter struct {
	CalendarID string
	Search     string
}

// ClassOccurrence is one concrete class meeting on a specific date.
type ClassOccurrence struct {
	SubjectID   string      `json:"subject_id"`
	SubjectName string      `json:"subject_name"`
	Kind        MeetingKind `json:"kind"`
	Date        Date        `json:"date"`
	StartTime   TimeOfDay   `json:"start_time"`
	EndTime     TimeOfDay   `json:"end_time"`
	Room        *string     `json:"room,omitempty"`
	Teacher     *string     `json:"teacher,omitempty"`
}

// DaySchedule is the resolved calendar position of a date and the classes held on it.
type DaySchedule struct {
	Date     Date              `json:"date"`
	Position Position          `json:"position"`
	Event    *AcademicEvent    `json:"event,omitempty"`
	Classes  []ClassOccurrence `json:"classes"`
}
