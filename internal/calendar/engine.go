// Package calendar resolves teaching weeks, semesters and class recurrences
// against an academic calendar snapshot. Every function is pure: callers pass
// the calendar on each call and nothing here performs I/O or keeps state.
package calendar

import (
	"sort"
	"time"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// WeeksBetween counts the Monday-start (ISO 8601) week boundaries crossed
// going from a to b. Dates in the same Monday..Sunday week yield 0. The result
// is negative when b is in an earlier week than a.
func WeeksBetween(a, b models.Date) int {
	return weekStart(a).DaysUntil(weekStart(b)) / 7
}

// TeachingWeeks is the inclusive number of calendar weeks touched by [start, end].
func TeachingWeeks(start, end models.Date) int {
	return WeeksBetween(start, end) + 1
}

func weekStart(d models.Date) models.Date {
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return d.AddDays(-offset)
}

// ResolveCurrentPosition returns the teaching week and semester active on d.
//
// Semester 1 teaching events are scanned before semester 2, each in insertion
// order, and the first teaching event containing d that carries a week index
// wins. Outside teaching events the week is nil and the semester falls back to
// Semester1 once its earliest event has started, Semester2 otherwise. A nil
// calendar yields a nil week in Semester1.
func ResolveCurrentPosition(cal *models.AcademicCalendar, d models.Date) models.Position {
	if cal == nil || d.IsZero() {
		return models.Position{Semester: models.Semester1}
	}
	if week, ok := teachingWeekIn(cal.Semester1, d); ok {
		return models.Position{TeachingWeek: &week, Semester: models.Semester1}
	}
	if week, ok := teachingWeekIn(cal.Semester2, d); ok {
		return models.Position{TeachingWeek: &week, Semester: models.Semester2}
	}
	return models.Position{Semester: fallbackSemester(cal, d)}
}

// ResolveCurrentPositionString parses raw as YYYY-MM-DD and resolves it.
// Unparsable input fails closed to the no-calendar answer.
func ResolveCurrentPositionString(cal *models.AcademicCalendar, raw string) models.Position {
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Position{Semester: models.Semester1}
	}
	return ResolveCurrentPosition(cal, d)
}

func teachingWeekIn(sem models.Semester, d models.Date) (int, bool) {
	for _, ev := range sem.Events {
		if ev.Type != models.EventTypeTeaching || ev.TeachingWeekIndexStart == nil {
			continue
		}
		if !ev.Contains(d) {
			continue
		}
		return *ev.TeachingWeekIndexStart + WeeksBetween(ev.Start, d), true
	}
	return 0, false
}

func fallbackSemester(cal *models.AcademicCalendar, d models.Date) models.SemesterID {
	start, ok := earliestStart(cal.Semester1)
	if ok && !d.Before(start) {
		return models.Semester1
	}
	return models.Semester2
}

func earliestStart(sem models.Semester) (models.Date, bool) {
	var earliest models.Date
	for i, ev := range sem.Events {
		if i == 0 || ev.Start.Before(earliest) {
			earliest = ev.Start
		}
	}
	return earliest, len(sem.Events) > 0
}

// EventContaining returns the first event, semester 1 before semester 2 and
// in insertion order, whose inclusive range contains d.
func EventContaining(cal *models.AcademicCalendar, d models.Date) *models.AcademicEvent {
	if cal == nil || d.IsZero() {
		return nil
	}
	for _, sem := range []models.Semester{cal.Semester1, cal.Semester2} {
		for i := range sem.Events {
			if sem.Events[i].Contains(d) {
				ev := sem.Events[i]
				return &ev
			}
		}
	}
	return nil
}

// MeetingOccursOnWeek applies the frequency rule of m to an academic week.
// A nil week never matches.
func MeetingOccursOnWeek(m models.RecurringMeeting, week *int) bool {
	if week == nil {
		return false
	}
	switch m.Frequency {
	case models.FrequencyWeekly:
		return true
	case models.FrequencyBiweeklyOdd:
		return *week%2 != 0
	case models.FrequencyBiweeklyEven:
		return *week%2 == 0
	default:
		return false
	}
}

// MeetingOccursOn reports whether m takes place on d: the weekday must be one
// of its days and the teaching week resolved for d must satisfy its frequency.
func MeetingOccursOn(cal *models.AcademicCalendar, m models.RecurringMeeting, d models.Date) bool {
	if !m.HasDay(d.Weekday()) {
		return false
	}
	return MeetingOccursOnWeek(m, ResolveCurrentPosition(cal, d).TeachingWeek)
}

// MeetingOccursAt is MeetingOccursOn with an already resolved position, for
// callers evaluating many meetings against the same date.
func MeetingOccursAt(m models.RecurringMeeting, weekday time.Weekday, pos models.Position) bool {
	return m.HasDay(weekday) && MeetingOccursOnWeek(m, pos.TeachingWeek)
}

// Span returns the earliest start and latest end over both semesters.
func Span(cal *models.AcademicCalendar) (models.Date, models.Date, bool) {
	if cal == nil {
		return models.Date{}, models.Date{}, false
	}
	var first, last models.Date
	found := false
	for _, sem := range []models.Semester{cal.Semester1, cal.Semester2} {
		for _, ev := range sem.Events {
			if !found || ev.Start.Before(first) {
				first = ev.Start
			}
			if !found || ev.End.After(last) {
				last = ev.End
			}
			found = true
		}
	}
	return first, last, found
}

// SortedEvents returns a copy of the semester's events ordered by start date.
func SortedEvents(sem models.Semester) []models.AcademicEvent {
	out := make([]models.AcademicEvent, len(sem.Events))
	copy(out, sem.Events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
