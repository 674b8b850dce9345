package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type reminderPlanner interface {
	Plan(ctx context.Context, calendarID string, from time.Time, horizonDays int) ([]models.Reminder, error)
}

type activeCalendarID interface {
	ActiveCalendarID() string
}

// ReminderHandler previews the reminders the scheduler would arm.
type ReminderHandler struct {
	planner reminderPlanner
	active  activeCalendarID
	now     func() time.Time
}

// NewReminderHandler constructs a reminder handler.
func NewReminderHandler(planner reminderPlanner, active activeCalendarID) *ReminderHandler {
	return &ReminderHandler{planner: planner, active: active, now: time.Now}
}

// Preview godoc
// @Summary Preview upcoming class reminders
// @Tags Reminders
// @Produce json
// @Param calendar_id query string false "Calendar ID, defaults to the active calendar"
// @Param days query int false "Horizon in days"
// @Success 200 {object} response.Envelope
// @Router /reminders/preview [get]
func (h *ReminderHandler) Preview(c *gin.Context) {
	calendarID := strings.TrimSpace(c.Query("calendar_id"))
	if calendarID == "" && h.active != nil {
		calendarID = h.active.ActiveCalendarID()
	}
	if calendarID == "" {
		response.Error(c, appErrors.ErrNoActiveCalendar)
		return
	}
	days := 0
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "days must be a positive integer"))
			return
		}
		days = parsed
	}
	reminders, err := h.planner.Plan(c.Request.Context(), calendarID, h.now(), days)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reminders, map[string]interface{}{"calendar_id": calendarID})
}
