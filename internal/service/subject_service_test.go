package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/repository"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

type scheduleFixture struct {
	calendars *CalendarService
	subjects  *SubjectService
	calendar  *models.AcademicCalendar
}

func newScheduleFixture(t *testing.T) scheduleFixture {
	t.Helper()
	backend := repository.NewMemoryDocumentBackend()
	calendars := NewCalendarService(repository.NewCalendarRepository(backend), CalendarServiceConfig{}, nil, nil)
	subjects := NewSubjectService(repository.NewSubjectRepository(backend), calendars, nil, nil, nil)

	cal, err := calendars.Generate(context.Background(), standardRequest())
	require.NoError(t, err)
	return scheduleFixture{calendars: calendars, subjects: subjects, calendar: cal}
}

func (f scheduleFixture) addSubject(t *testing.T, req SubjectRequest) *models.Subject {
	t.Helper()
	req.CalendarID = f.calendar.ID
	subject, err := f.subjects.Create(context.Background(), req)
	require.NoError(t, err)
	return subject
}

func TestSubjectServiceCreateValidates(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	_, err := f.subjects.Create(ctx, SubjectRequest{CalendarID: f.calendar.ID, Name: "Algebra", Course: &MeetingRequest{Days: []int{8}, Frequency: "weekly", StartTime: "08:00", EndTime: "10:00"}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = f.subjects.Create(ctx, SubjectRequest{CalendarID: f.calendar.ID, Name: "Algebra", Course: &MeetingRequest{Days: []int{2}, Frequency: "monthly", StartTime: "08:00", EndTime: "10:00"}})
	require.Error(t, err)

	_, err = f.subjects.Create(ctx, SubjectRequest{CalendarID: f.calendar.ID, Name: "Algebra", Course: &MeetingRequest{Days: []int{2}, Frequency: "weekly", StartTime: "10:00", EndTime: "08:00"}})
	require.Error(t, err)

	_, err = f.subjects.Create(ctx, SubjectRequest{CalendarID: "missing", Name: "Algebra"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	subject := f.addSubject(t, SubjectRequest{Name: " Algebra ", Course: &MeetingRequest{Days: []int{4, 2, 2}, Frequency: "weekly", StartTime: "08:00", EndTime: "10:00"}})
	assert.Equal(t, "Algebra", subject.Name)
	assert.Equal(t, []int{2, 4}, subject.Course.Days)
}

func TestSubjectServiceDaySchedule(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()

	f.addSubject(t, SubjectRequest{
		Name:    "Operating Systems",
		Room:    models.StringPtr("C309"),
		Course:  &MeetingRequest{Days: []int{2}, Frequency: "weekly", StartTime: "12:00", EndTime: "14:00"},
		Seminar: &MeetingRequest{Days: []int{2}, Frequency: "biweeklyOdd", StartTime: "08:00", EndTime: "10:00"},
	})
	f.addSubject(t, SubjectRequest{
		Name:    "Databases",
		Seminar: &MeetingRequest{Days: []int{2}, Frequency: "biweeklyEven", StartTime: "10:00", EndTime: "12:00"},
	})

	// 2025-10-20 is a Monday in teaching week 6.
	day, err := f.subjects.DaySchedule(ctx, f.calendar.ID, models.MustParseDate("2025-10-20"))
	require.NoError(t, err)
	require.NotNil(t, day.Position.TeachingWeek)
	assert.Equal(t, 6, *day.Position.TeachingWeek)
	require.Len(t, day.Classes, 2)
	assert.Equal(t, "Databases", day.Classes[0].SubjectName)
	assert.Equal(t, models.MeetingKindSeminar, day.Classes[0].Kind)
	assert.Equal(t, "Operating Systems", day.Classes[1].SubjectName)
	assert.Equal(t, "C309", *day.Classes[1].Room)

	// Week 7: the odd seminar replaces the even one.
	day, err = f.subjects.DaySchedule(ctx, f.calendar.ID, models.MustParseDate("2025-10-27"))
	require.NoError(t, err)
	require.Len(t, day.Classes, 2)
	assert.Equal(t, "08:00", day.Classes[0].StartTime.String())
	assert.Equal(t, "Operating Systems", day.Classes[0].SubjectName)

	// The winter break has no teaching week, so nothing is scheduled.
	day, err = f.subjects.DaySchedule(ctx, f.calendar.ID, models.MustParseDate("2025-12-22"))
	require.NoError(t, err)
	assert.Nil(t, day.Position.TeachingWeek)
	assert.Empty(t, day.Classes)
	require.NotNil(t, day.Event)
	assert.Equal(t, models.EventTypeBreak, day.Event.Type)
}

func TestSubjectServiceAgenda(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()
	networks := f.addSubject(t, SubjectRequest{
		Name:   "Networks",
		Course: &MeetingRequest{Days: []int{3, 5}, Frequency: "weekly", StartTime: "16:00", EndTime: "18:00"},
	})

	days, err := f.subjects.Agenda(ctx, f.calendar.ID, models.MustParseDate("2025-10-20"), models.MustParseDate("2025-10-26"))
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Len(t, days[1].Classes, 1) // Tuesday
	assert.Len(t, days[3].Classes, 1) // Thursday
	assert.Empty(t, days[0].Classes)

	occurrences, err := f.subjects.Occurrences(ctx, f.calendar.ID, models.MustParseDate("2025-10-20"), models.MustParseDate("2025-11-02"))
	require.NoError(t, err)
	assert.Len(t, occurrences, 4)

	f.addSubject(t, SubjectRequest{
		Name:   "Statistics",
		Course: &MeetingRequest{Days: []int{2}, Frequency: "weekly", StartTime: "08:00", EndTime: "10:00"},
	})
	occurrences, err = f.subjects.SubjectOccurrences(ctx, networks.ID, models.MustParseDate("2025-10-20"), models.MustParseDate("2025-11-02"))
	require.NoError(t, err)
	assert.Len(t, occurrences, 4)
	for _, occ := range occurrences {
		assert.Equal(t, networks.ID, occ.SubjectID)
	}
	_, err = f.subjects.SubjectOccurrences(ctx, "missing", models.MustParseDate("2025-10-20"), models.MustParseDate("2025-10-21"))
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.subjects.Agenda(ctx, f.calendar.ID, models.MustParseDate("2025-10-20"), models.MustParseDate("2025-12-31"))
	require.Error(t, err)
	_, err = f.subjects.Agenda(ctx, f.calendar.ID, models.MustParseDate("2025-10-20"), models.MustParseDate("2025-10-19"))
	require.Error(t, err)
}

func TestSubjectServiceUpdateAndDelete(t *testing.T) {
	f := newScheduleFixture(t)
	ctx := context.Background()
	subject := f.addSubject(t, SubjectRequest{Name: "Logic"})

	updated, err := f.subjects.Update(ctx, subject.ID, SubjectRequest{CalendarID: f.calendar.ID, Name: "Formal Logic", Code: models.StringPtr("MA120")})
	require.NoError(t, err)
	assert.Equal(t, subject.ID, updated.ID)
	assert.True(t, subject.CreatedAt.Equal(updated.CreatedAt))

	list, err := f.subjects.List(ctx, models.SubjectFilter{Search: "ma120"})
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.subjects.Delete(ctx, subject.ID))
	_, err = f.subjects.Get(ctx, subject.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
