package calendar

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/models"
)

func d(raw string) models.Date { return models.MustParseDate(raw) }

func standardCalendar(t *testing.T) *models.AcademicCalendar {
	t.Helper()
	cal, err := GenerateStandardCalendar(models.CalendarTemplate{
		UniversityName: "Test University",
		AcademicYear:   "2025-2026",
		Semester1Start: "2025-09-15",
		Semester1End:   "2025-12-20",
		Semester2Start: "2026-01-11",
		Semester2End:   "2026-04-18",
	})
	require.NoError(t, err)
	return cal
}

func TestWeeksBetweenUsesMondayStart(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want int
	}{
		{"same day", "2025-09-15", "2025-09-15", 0},
		{"monday to sunday", "2025-09-15", "2025-09-21", 0},
		{"sunday to monday", "2025-09-21", "2025-09-22", 1},
		{"five weeks", "2025-09-15", "2025-10-20", 5},
		{"semester one", "2025-09-15", "2025-12-20", 13},
		{"semester two", "2026-01-11", "2026-04-18", 14},
		{"backwards", "2025-10-20", "2025-09-15", -5},
		{"centuries apart", "1700-01-04", "2025-01-06", 16958},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, WeeksBetween(d(tc.a), d(tc.b)))
		})
	}
}

func TestResolveCurrentPositionMidSemester(t *testing.T) {
	cal := standardCalendar(t)

	pos := ResolveCurrentPosition(cal, d("2025-10-20"))
	require.NotNil(t, pos.TeachingWeek)
	assert.Equal(t, 6, *pos.TeachingWeek)
	assert.Equal(t, models.Semester1, pos.Semester)

	pos = ResolveCurrentPosition(cal, d("2025-10-19"))
	require.NotNil(t, pos.TeachingWeek)
	assert.Equal(t, 5, *pos.TeachingWeek)
}

func TestResolveCurrentPositionIsIdempotent(t *testing.T) {
	cal := standardCalendar(t)
	first := ResolveCurrentPosition(cal, d("2025-11-03"))
	second := ResolveCurrentPosition(cal, d("2025-11-03"))
	assert.Equal(t, first, second)
}

func TestResolveCurrentPositionBoundariesAreInclusive(t *testing.T) {
	cal := standardCalendar(t)
	teaching := cal.Semester1.Events[0]

	atStart := ResolveCurrentPosition(cal, teaching.Start)
	require.NotNil(t, atStart.TeachingWeek)
	assert.Equal(t, *teaching.TeachingWeekIndexStart, *atStart.TeachingWeek)

	atEnd := ResolveCurrentPosition(cal, teaching.End)
	require.NotNil(t, atEnd.TeachingWeek)
	assert.LessOrEqual(t, *atEnd.TeachingWeek, *teaching.TeachingWeekIndexEnd)
	assert.Equal(t, 14, *atEnd.TeachingWeek)
}

func TestResolveCurrentPositionSecondSemester(t *testing.T) {
	cal := standardCalendar(t)

	pos := ResolveCurrentPosition(cal, d("2026-01-11"))
	require.NotNil(t, pos.TeachingWeek)
	assert.Equal(t, 1, *pos.TeachingWeek)
	assert.Equal(t, models.Semester2, pos.Semester)

	pos = ResolveCurrentPosition(cal, d("2026-01-12"))
	require.NotNil(t, pos.TeachingWeek)
	assert.Equal(t, 2, *pos.TeachingWeek)
}

func TestResolveCurrentPositionNonTeachingEventsYieldNilWeek(t *testing.T) {
	cal := standardCalendar(t)
	cal.Semester2.Events = append(cal.Semester2.Events,
		models.AcademicEvent{ID: "exam", Start: d("2026-04-20"), End: d("2026-05-10"), Type: models.EventTypeExam},
		models.AcademicEvent{ID: "holiday", Start: d("2026-05-11"), End: d("2026-05-12"), Type: models.EventTypeHoliday},
	)

	for _, day := range []string{"2025-12-25", "2026-04-25", "2026-05-11"} {
		pos := ResolveCurrentPosition(cal, d(day))
		assert.Nil(t, pos.TeachingWeek, day)
	}
}

func TestResolveCurrentPositionFallbackSemester(t *testing.T) {
	cal := standardCalendar(t)

	// Break after semester 1 has started.
	assert.Equal(t, models.Semester1, ResolveCurrentPosition(cal, d("2025-12-25")).Semester)
	// After the whole calendar has ended.
	assert.Equal(t, models.Semester1, ResolveCurrentPosition(cal, d("2026-07-01")).Semester)
	// Before semester 1 has started the fallback is semester 2.
	before := ResolveCurrentPosition(cal, d("2025-09-01"))
	assert.Nil(t, before.TeachingWeek)
	assert.Equal(t, models.Semester2, before.Semester)
}

func TestResolveCurrentPositionFallbackUsesEarliestSemesterOneEvent(t *testing.T) {
	cal := standardCalendar(t)
	// Prepend an orientation week that starts before teaching, out of order.
	cal.Semester1.Events = append(cal.Semester1.Events, models.AcademicEvent{
		ID: "orientation", Start: d("2025-09-08"), End: d("2025-09-12"), Type: models.EventTypeOther,
	})

	pos := ResolveCurrentPosition(cal, d("2025-09-10"))
	assert.Nil(t, pos.TeachingWeek)
	assert.Equal(t, models.Semester1, pos.Semester)
}

func TestResolveCurrentPositionSkipsTeachingWithoutIndex(t *testing.T) {
	cal := &models.AcademicCalendar{
		Semester1: models.Semester{Events: []models.AcademicEvent{
			{ID: "a", Start: d("2025-09-15"), End: d("2025-12-20"), Type: models.EventTypeTeaching},
			{ID: "b", Start: d("2025-09-15"), End: d("2025-12-20"), Type: models.EventTypeTeaching, TeachingWeekIndexStart: models.IntPtr(3)},
		}},
	}
	pos := ResolveCurrentPosition(cal, d("2025-09-15"))
	require.NotNil(t, pos.TeachingWeek)
	assert.Equal(t, 3, *pos.TeachingWeek)
}

func TestResolveCurrentPositionWithoutCalendar(t *testing.T) {
	pos := ResolveCurrentPosition(nil, d("2025-10-20"))
	assert.Nil(t, pos.TeachingWeek)
	assert.Equal(t, models.Semester1, pos.Semester)
}

func TestResolveCurrentPositionStringFailsClosed(t *testing.T) {
	cal := standardCalendar(t)

	pos := ResolveCurrentPositionString(cal, "2025-13-45")
	assert.Nil(t, pos.TeachingWeek)
	assert.Equal(t, models.Semester1, pos.Semester)

	pos = ResolveCurrentPositionString(cal, "2025-10-20")
	require.NotNil(t, pos.TeachingWeek)
	assert.Equal(t, 6, *pos.TeachingWeek)
}

func TestEventContainingFirstMatchWins(t *testing.T) {
	cal := &models.AcademicCalendar{
		Semester1: models.Semester{Events: []models.AcademicEvent{
			{ID: "first", Start: d("2025-10-01"), End: d("2025-10-31"), Type: models.EventTypeTeaching},
			{ID: "second", Start: d("2025-10-15"), End: d("2025-11-15"), Type: models.EventTypeExam},
		}},
		Semester2: models.Semester{Events: []models.AcademicEvent{
			{ID: "third", Start: d("2025-10-20"), End: d("2025-10-21"), Type: models.EventTypeHoliday},
		}},
	}

	ev := EventContaining(cal, d("2025-10-20"))
	require.NotNil(t, ev)
	assert.Equal(t, "first", ev.ID)

	ev = EventContaining(cal, d("2025-11-01"))
	require.NotNil(t, ev)
	assert.Equal(t, "second", ev.ID)

	assert.Nil(t, EventContaining(cal, d("2025-12-01")))
	assert.Nil(t, EventContaining(nil, d("2025-10-20")))
}

func TestEventContainingReturnsCopy(t *testing.T) {
	cal := standardCalendar(t)
	ev := EventContaining(cal, d("2025-12-25"))
	require.NotNil(t, ev)
	assert.Equal(t, models.EventTypeBreak, ev.Type)

	ev.Type = models.EventTypeOther
	assert.Equal(t, models.EventTypeBreak, cal.Semester1.Events[1].Type)
}

func TestMeetingOccursOnWeekTotality(t *testing.T) {
	for week := 1; week <= 52; week++ {
		w := week
		assert.True(t, MeetingOccursOnWeek(models.RecurringMeeting{Frequency: models.FrequencyWeekly}, &w))
		assert.Equal(t, w%2 == 1, MeetingOccursOnWeek(models.RecurringMeeting{Frequency: models.FrequencyBiweeklyOdd}, &w))
		assert.Equal(t, w%2 == 0, MeetingOccursOnWeek(models.RecurringMeeting{Frequency: models.FrequencyBiweeklyEven}, &w))
	}
}

func TestMeetingOccursOnWeekNilWeek(t *testing.T) {
	for _, f := range []models.Frequency{models.FrequencyWeekly, models.FrequencyBiweeklyOdd, models.FrequencyBiweeklyEven} {
		assert.False(t, MeetingOccursOnWeek(models.RecurringMeeting{Frequency: f}, nil), string(f))
	}
}

func TestMeetingOccursOnComposesWeekdayAndFrequency(t *testing.T) {
	cal := standardCalendar(t)
	mondayOdd := models.RecurringMeeting{Days: []int{2}, Frequency: models.FrequencyBiweeklyOdd}

	assert.False(t, MeetingOccursOn(cal, mondayOdd, d("2025-10-20")), "week 6 is even")
	assert.True(t, MeetingOccursOn(cal, mondayOdd, d("2025-10-27")), "week 7 is odd")
	assert.False(t, MeetingOccursOn(cal, mondayOdd, d("2025-10-28")), "tuesday")
	assert.False(t, MeetingOccursOn(cal, mondayOdd, d("2025-12-22")), "winter break")
	assert.False(t, MeetingOccursOn(nil, mondayOdd, d("2025-10-27")), "no calendar")
}

func TestSpanAndSortedEvents(t *testing.T) {
	cal := standardCalendar(t)
	first, last, ok := Span(cal)
	require.True(t, ok)
	assert.Equal(t, "2025-09-15", first.String())
	assert.Equal(t, "2026-04-18", last.String())

	_, _, ok = Span(&models.AcademicCalendar{})
	assert.False(t, ok)

	sem := models.Semester{Events: []models.AcademicEvent{
		{ID: "late", Start: d("2025-11-01"), End: d("2025-11-02")},
		{ID: "early", Start: d("2025-10-01"), End: d("2025-10-02")},
	}}
	sorted := SortedEvents(sem)
	assert.Equal(t, "early", sorted[0].ID)
	assert.Equal(t, "late", sem.Events[0].ID)
}
