package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/calendar"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/service"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type calendarService interface {
	List(ctx context.Context) ([]models.AcademicCalendar, error)
	Get(ctx context.Context, id string) (*models.AcademicCalendar, error)
	Create(ctx context.Context, req service.CalendarRequest) (*models.AcademicCalendar, []calendar.Issue, error)
	Replace(ctx context.Context, id string, req service.CalendarRequest) (*models.AcademicCalendar, []calendar.Issue, error)
	Delete(ctx context.Context, id string) error
	Generate(ctx context.Context, req service.GenerateCalendarRequest) (*models.AcademicCalendar, error)
	AddEvent(ctx context.Context, calendarID string, semester models.SemesterID, req service.EventRequest) (*models.AcademicCalendar, []calendar.Issue, error)
	UpdateEvent(ctx context.Context, calendarID string, semester models.SemesterID, eventID string, req service.EventRequest) (*models.AcademicCalendar, []calendar.Issue, error)
	DeleteEvent(ctx context.Context, calendarID string, semester models.SemesterID, eventID string) (*models.AcademicCalendar, error)
	Position(ctx context.Context, calendarID string, date models.Date) (models.Position, error)
	EventAt(ctx context.Context, calendarID string, date models.Date) (*models.AcademicEvent, error)
	ActivePosition(ctx context.Context, date models.Date) models.Position
}

type scheduleService interface {
	DaySchedule(ctx context.Context, calendarID string, date models.Date) (*models.DaySchedule, error)
	Agenda(ctx context.Context, calendarID string, from, to models.Date) ([]models.DaySchedule, error)
}

// CalendarHandler serves academic calendars and date resolution.
type CalendarHandler struct {
	calendars calendarService
	schedules scheduleService
	clock     dateClock
}

// NewCalendarHandler constructs a calendar handler. Missing dates resolve to today in loc.
func NewCalendarHandler(calendars calendarService, schedules scheduleService, loc *time.Location) *CalendarHandler {
	return &CalendarHandler{calendars: calendars, schedules: schedules, clock: newDateClock(loc)}
}

// List godoc
// @Summary List calendars
// @Tags Calendars
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /calendars [get]
func (h *CalendarHandler) List(c *gin.Context) {
	items, err := h.calendars.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get godoc
// @Summary Get calendar by id
// @Tags Calendars
// @Produce json
// @Param id path string true "Calendar ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /calendars/{id} [get]
func (h *CalendarHandler) Get(c *gin.Context) {
	cal, err := h.calendars.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cal)
}

// Create godoc
// @Summary Create calendar
// @Tags Calendars
// @Accept json
// @Produce json
// @Param payload body service.CalendarRequest true "Calendar payload"
// @Success 201 {object} response.Envelope
// @Router /calendars [post]
func (h *CalendarHandler) Create(c *gin.Context) {
	var req service.CalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	cal, issues, err := h.calendars.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, cal, issuesMeta(issues))
}

// Replace godoc
// @Summary Replace calendar
// @Tags Calendars
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param payload body service.CalendarRequest true "Calendar payload"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id} [put]
func (h *CalendarHandler) Replace(c *gin.Context) {
	var req service.CalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	cal, issues, err := h.calendars.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cal, issuesMeta(issues))
}

// Delete godoc
// @Summary Delete calendar
// @Tags Calendars
// @Param id path string true "Calendar ID"
// @Success 204
// @Router /calendars/{id} [delete]
func (h *CalendarHandler) Delete(c *gin.Context) {
	if err := h.calendars.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Generate godoc
// @Summary Generate a standard two-semester calendar
// @Description Builds a calendar from a template key or from four explicit semester boundaries.
// @Tags Calendars
// @Accept json
// @Produce json
// @Param payload body service.GenerateCalendarRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /calendars/generate [post]
func (h *CalendarHandler) Generate(c *gin.Context) {
	var req service.GenerateCalendarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	cal, err := h.calendars.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cal)
}

// AddEvent godoc
// @Summary Add an event to a semester
// @Tags Calendars
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param semester path string true "Semester (1 or 2)"
// @Param payload body service.EventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Router /calendars/{id}/semesters/{semester}/events [post]
func (h *CalendarHandler) AddEvent(c *gin.Context) {
	sem, err := semesterParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	cal, issues, err := h.calendars.AddEvent(c.Request.Context(), c.Param("id"), sem, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, cal, issuesMeta(issues))
}

// UpdateEvent godoc
// @Summary Update a semester event
// @Tags Calendars
// @Accept json
// @Produce json
// @Param id path string true "Calendar ID"
// @Param semester path string true "Semester (1 or 2)"
// @Param eventId path string true "Event ID"
// @Param payload body service.EventRequest true "Event payload"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id}/semesters/{semester}/events/{eventId} [put]
func (h *CalendarHandler) UpdateEvent(c *gin.Context) {
	sem, err := semesterParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	cal, issues, err := h.calendars.UpdateEvent(c.Request.Context(), c.Param("id"), sem, c.Param("eventId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cal, issuesMeta(issues))
}

// DeleteEvent godoc
// @Summary Delete a semester event
// @Tags Calendars
// @Produce json
// @Param id path string true "Calendar ID"
// @Param semester path string true "Semester (1 or 2)"
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id}/semesters/{semester}/events/{eventId} [delete]
func (h *CalendarHandler) DeleteEvent(c *gin.Context) {
	sem, err := semesterParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	cal, err := h.calendars.DeleteEvent(c.Request.Context(), c.Param("id"), sem, c.Param("eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cal)
}

// Position godoc
// @Summary Resolve teaching week and semester
// @Tags Resolution
// @Produce json
// @Param id path string true "Calendar ID"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /calendars/{id}/position [get]
func (h *CalendarHandler) Position(c *gin.Context) {
	date, err := h.clock.dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	pos, err := h.calendars.Position(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pos, map[string]interface{}{"date": date.String()})
}

// EventAt godoc
// @Summary Find the event containing a date
// @Tags Resolution
// @Produce json
// @Param id path string true "Calendar ID"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id}/event [get]
func (h *CalendarHandler) EventAt(c *gin.Context) {
	date, err := h.clock.dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	ev, err := h.calendars.EventAt(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ev, map[string]interface{}{"date": date.String()})
}

// ActivePosition godoc
// @Summary Resolve the position against the active calendar
// @Description Never fails on calendar problems; a missing or unreadable calendar answers with no teaching week in semester 1.
// @Tags Resolution
// @Produce json
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /position [get]
func (h *CalendarHandler) ActivePosition(c *gin.Context) {
	date, err := h.clock.dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	pos := h.calendars.ActivePosition(c.Request.Context(), date)
	response.JSON(c, http.StatusOK, pos, map[string]interface{}{"date": date.String()})
}

// Schedule godoc
// @Summary Classes held on a date
// @Tags Schedule
// @Produce json
// @Param id path string true "Calendar ID"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id}/schedule [get]
func (h *CalendarHandler) Schedule(c *gin.Context) {
	date, err := h.clock.dateQuery(c, "date")
	if err != nil {
		response.Error(c, err)
		return
	}
	day, err := h.schedules.DaySchedule(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, day)
}

// Agenda godoc
// @Summary Day schedules over a date range
// @Tags Schedule
// @Produce json
// @Param id path string true "Calendar ID"
// @Param from query string false "First date (YYYY-MM-DD), defaults to today"
// @Param to query string false "Last date (YYYY-MM-DD), defaults to six days after from"
// @Success 200 {object} response.Envelope
// @Router /calendars/{id}/agenda [get]
func (h *CalendarHandler) Agenda(c *gin.Context) {
	from, to, err := h.clock.rangeQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	days, err := h.schedules.Agenda(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, days, rangeMeta(from, to))
}
