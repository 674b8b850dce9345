package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/calendar"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/service"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

type calendarServiceStub struct {
	cal          *models.AcademicCalendar
	issues       []calendar.Issue
	err          error
	lastDate     models.Date
	lastSemester models.SemesterID
}

func (s *calendarServiceStub) List(ctx context.Context) ([]models.AcademicCalendar, error) {
	if s.cal == nil {
		return []models.AcademicCalendar{}, s.err
	}
	return []models.AcademicCalendar{*s.cal}, s.err
}

func (s *calendarServiceStub) Get(ctx context.Context, id string) (*models.AcademicCalendar, error) {
	return s.cal, s.err
}

func (s *calendarServiceStub) Create(ctx context.Context, req service.CalendarRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	return s.cal, s.issues, s.err
}

func (s *calendarServiceStub) Replace(ctx context.Context, id string, req service.CalendarRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	return s.cal, s.issues, s.err
}

func (s *calendarServiceStub) Delete(ctx context.Context, id string) error { return s.err }

func (s *calendarServiceStub) Generate(ctx context.Context, req service.GenerateCalendarRequest) (*models.AcademicCalendar, error) {
	return s.cal, s.err
}

func (s *calendarServiceStub) AddEvent(ctx context.Context, calendarID string, semester models.SemesterID, req service.EventRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	s.lastSemester = semester
	return s.cal, s.issues, s.err
}

func (s *calendarServiceStub) UpdateEvent(ctx context.Context, calendarID string, semester models.SemesterID, eventID string, req service.EventRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	s.lastSemester = semester
	return s.cal, s.issues, s.err
}

func (s *calendarServiceStub) DeleteEvent(ctx context.Context, calendarID string, semester models.SemesterID, eventID string) (*models.AcademicCalendar, error) {
	s.lastSemester = semester
	return s.cal, s.err
}

func (s *calendarServiceStub) Position(ctx context.Context, calendarID string, date models.Date) (models.Position, error) {
	s.lastDate = date
	return calendar.ResolveCurrentPosition(s.cal, date), s.err
}

func (s *calendarServiceStub) EventAt(ctx context.Context, calendarID string, date models.Date) (*models.AcademicEvent, error) {
	s.lastDate = date
	return calendar.EventContaining(s.cal, date), s.err
}

func (s *calendarServiceStub) ActivePosition(ctx context.Context, date models.Date) models.Position {
	s.lastDate = date
	return calendar.ResolveCurrentPosition(s.cal, date)
}

type scheduleServiceStub struct {
	from, to models.Date
}

func (s *scheduleServiceStub) DaySchedule(ctx context.Context, calendarID string, date models.Date) (*models.DaySchedule, error) {
	return &models.DaySchedule{Date: date, Classes: []models.ClassOccurrence{}}, nil
}

func (s *scheduleServiceStub) Agenda(ctx context.Context, calendarID string, from, to models.Date) ([]models.DaySchedule, error) {
	s.from, s.to = from, to
	return []models.DaySchedule{}, nil
}

func sampleCalendar(t *testing.T) *models.AcademicCalendar {
	t.Helper()
	cal, err := calendar.GenerateStandardCalendarFromDates("2025-2026", "",
		models.MustParseDate("2025-09-15"), models.MustParseDate("2025-12-20"),
		models.MustParseDate("2026-01-11"), models.MustParseDate("2026-04-18"))
	require.NoError(t, err)
	return cal
}

func performRequest(handler gin.HandlerFunc, method, target string, body []byte, params gin.Params) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = params
	handler(c)
	return w
}

type envelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestCalendarHandlerPosition(t *testing.T) {
	stub := &calendarServiceStub{cal: sampleCalendar(t)}
	h := NewCalendarHandler(stub, &scheduleServiceStub{}, time.UTC)
	params := gin.Params{{Key: "id", Value: stub.cal.ID}}

	w := performRequest(h.Position, http.MethodGet, "/calendars/x/position?date=2025-10-20", nil, params)
	require.Equal(t, http.StatusOK, w.Code)
	var pos models.Position
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &pos))
	require.NotNil(t, pos.TeachingWeek)
	assert.Equal(t, 6, *pos.TeachingWeek)
	assert.Equal(t, models.Semester1, pos.Semester)

	w = performRequest(h.Position, http.MethodGet, "/calendars/x/position?date=20-10-2025", nil, params)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, w).Error.Code)
}

func TestCalendarHandlerActivePositionDefaultsToToday(t *testing.T) {
	stub := &calendarServiceStub{}
	h := NewCalendarHandler(stub, &scheduleServiceStub{}, time.FixedZone("EET", 2*3600))
	h.clock.now = func() time.Time { return time.Date(2025, 10, 19, 23, 30, 0, 0, time.UTC) }

	w := performRequest(h.ActivePosition, http.MethodGet, "/position", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-10-20", stub.lastDate.String())

	var pos models.Position
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &pos))
	assert.Nil(t, pos.TeachingWeek)
	assert.Equal(t, models.Semester1, pos.Semester)
}

func TestCalendarHandlerCreateReportsIssues(t *testing.T) {
	stub := &calendarServiceStub{
		cal:    sampleCalendar(t),
		issues: []calendar.Issue{{Semester: models.Semester1, EventID: "e1", Message: "overlaps event e2"}},
	}
	h := NewCalendarHandler(stub, &scheduleServiceStub{}, time.UTC)

	w := performRequest(h.Create, http.MethodPost, "/calendars", []byte(`{"academic_year":"2025-2026"}`), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, decodeEnvelope(t, w).Meta, "issues")

	w = performRequest(h.Create, http.MethodPost, "/calendars", []byte(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarHandlerEventRoutesParseSemester(t *testing.T) {
	stub := &calendarServiceStub{cal: sampleCalendar(t)}
	h := NewCalendarHandler(stub, &scheduleServiceStub{}, time.UTC)
	body := []byte(`{"start":"2025-11-01","end":"2025-11-02","type":"holiday"}`)

	w := performRequest(h.AddEvent, http.MethodPost, "/calendars/x/semesters/3/events", body,
		gin.Params{{Key: "id", Value: "x"}, {Key: "semester", Value: "3"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(h.AddEvent, http.MethodPost, "/calendars/x/semesters/semester_2/events", body,
		gin.Params{{Key: "id", Value: "x"}, {Key: "semester", Value: "semester_2"}})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, models.Semester2, stub.lastSemester)

	stub.err = appErrors.Clone(appErrors.ErrNotFound, "event not found")
	w = performRequest(h.DeleteEvent, http.MethodDelete, "/calendars/x/semesters/1/events/e", nil,
		gin.Params{{Key: "id", Value: "x"}, {Key: "semester", Value: "1"}, {Key: "eventId", Value: "e"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalendarHandlerAgendaDefaultsToAWeek(t *testing.T) {
	schedules := &scheduleServiceStub{}
	h := NewCalendarHandler(&calendarServiceStub{}, schedules, time.UTC)

	w := performRequest(h.Agenda, http.MethodGet, "/calendars/x/agenda?from=2025-10-20", nil, gin.Params{{Key: "id", Value: "x"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-10-20", schedules.from.String())
	assert.Equal(t, "2025-10-26", schedules.to.String())

	w = performRequest(h.Agenda, http.MethodGet, "/calendars/x/agenda?from=2025-10-20&to=soon", nil, gin.Params{{Key: "id", Value: "x"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalendarHandlerGenerateMapsFailures(t *testing.T) {
	stub := &calendarServiceStub{err: appErrors.Clone(appErrors.ErrCalendarGeneration, "semester boundaries out of order")}
	h := NewCalendarHandler(stub, &scheduleServiceStub{}, time.UTC)

	w := performRequest(h.Generate, http.MethodPost, "/calendars/generate", []byte(`{"template_key":"x"}`), nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, appErrors.ErrCalendarGeneration.Code, decodeEnvelope(t, w).Error.Code)
}
