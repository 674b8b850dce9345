package calendar

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// ErrInvalidBoundaries is returned when semester boundary dates are out of order.
var ErrInvalidBoundaries = errors.New("semester boundaries out of order")

// GenerateStandardCalendar builds a two-semester calendar from a template.
// Any unparsable boundary date aborts generation without a partial result.
func GenerateStandardCalendar(t models.CalendarTemplate) (*models.AcademicCalendar, error) {
	bounds := [4]string{t.Semester1Start, t.Semester1End, t.Semester2Start, t.Semester2End}
	var dates [4]models.Date
	for i, raw := range bounds {
		d, err := models.ParseDate(raw)
		if err != nil {
			return nil, fmt.Errorf("generate calendar: %w", err)
		}
		dates[i] = d
	}
	return GenerateStandardCalendarFromDates(t.AcademicYear, t.UniversityName, dates[0], dates[1], dates[2], dates[3])
}

// GenerateStandardCalendarFromDates synthesises one teaching block per
// semester and the inter-semester break between them.
func GenerateStandardCalendarFromDates(academicYear, university string, s1Start, s1End, s2Start, s2End models.Date) (*models.AcademicCalendar, error) {
	if s1End.Before(s1Start) || s2End.Before(s2Start) || !s1End.Before(s2Start) {
		return nil, ErrInvalidBoundaries
	}

	cal := &models.AcademicCalendar{
		ID:           uuid.NewString(),
		AcademicYear: academicYear,
		Semester1:    models.Semester{Events: []models.AcademicEvent{teachingEvent(s1Start, s1End)}},
		Semester2:    models.Semester{Events: []models.AcademicEvent{teachingEvent(s2Start, s2End)}},
	}
	if university != "" {
		cal.UniversityName = models.StringPtr(university)
	}

	breakStart, breakEnd := s1End.AddDays(1), s2Start.AddDays(-1)
	if !breakEnd.Before(breakStart) {
		cal.Semester1.Events = append(cal.Semester1.Events, models.AcademicEvent{
			ID:    uuid.NewString(),
			Start: breakStart,
			End:   breakEnd,
			Type:  models.EventTypeBreak,
			Weeks: TeachingWeeks(breakStart, breakEnd),
		})
	}
	return cal, nil
}

func teachingEvent(start, end models.Date) models.AcademicEvent {
	weeks := TeachingWeeks(start, end)
	return models.AcademicEvent{
		ID:                     uuid.NewString(),
		Start:                  start,
		End:                    end,
		Type:                   models.EventTypeTeaching,
		Weeks:                  weeks,
		TeachingWeekIndexStart: models.IntPtr(1),
		TeachingWeekIndexEnd:   models.IntPtr(weeks),
	}
}

// NormalizeEvent recomputes the cached week count and, for teaching events,
// fills a missing end index from the start index.
func NormalizeEvent(ev models.AcademicEvent) models.AcademicEvent {
	ev.Weeks = TeachingWeeks(ev.Start, ev.End)
	if ev.Type != models.EventTypeTeaching {
		ev.TeachingWeekIndexStart = nil
		ev.TeachingWeekIndexEnd = nil
		return ev
	}
	if ev.TeachingWeekIndexStart != nil && ev.TeachingWeekIndexEnd == nil {
		ev.TeachingWeekIndexEnd = models.IntPtr(*ev.TeachingWeekIndexStart + ev.Weeks - 1)
	}
	return ev
}

// NextTeachingIndex returns the week index a teaching block starting at start
// continues from: one past the highest end index of earlier teaching events
// in the semester, or 1 when there are none.
func NextTeachingIndex(sem models.Semester, start models.Date) int {
	next := 1
	for _, ev := range sem.Events {
		if ev.Type != models.EventTypeTeaching || ev.TeachingWeekIndexEnd == nil || !ev.Start.Before(start) {
			continue
		}
		if *ev.TeachingWeekIndexEnd+1 > next {
			next = *ev.TeachingWeekIndexEnd + 1
		}
	}
	return next
}
