package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/service"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

type exportServiceStub struct {
	format string
	token  string
}

func (s *exportServiceStub) ICS(ctx context.Context, calendarID string) (*service.ExportFile, error) {
	return &service.ExportFile{Filename: "2025-2026.ics", ContentType: "text/calendar; charset=utf-8", Data: []byte("BEGIN:VCALENDAR")}, nil
}

func (s *exportServiceStub) Events(ctx context.Context, calendarID, format string) (*service.ExportFile, error) {
	s.format = format
	if format != service.FormatCSV {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	return &service.ExportFile{Filename: "2025-2026.csv", ContentType: "text/csv; charset=utf-8", Data: []byte("Semester\n")}, nil
}

func (s *exportServiceStub) FeedLink(ctx context.Context, calendarID string) (*service.FeedLink, error) {
	return &service.FeedLink{URL: "https://plan.example.com/feeds/tok", Token: "tok", ExpiresAt: time.Now().Add(time.Hour)}, nil
}

func (s *exportServiceStub) Feed(ctx context.Context, token string) (*service.ExportFile, error) {
	s.token = token
	if token != "tok.ics" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feed link is invalid or expired")
	}
	return s.ICS(ctx, "cal")
}

func TestExportHandlerDownloads(t *testing.T) {
	stub := &exportServiceStub{}
	h := NewExportHandler(stub)
	params := gin.Params{{Key: "id", Value: "cal"}}

	w := performRequest(h.ICS, http.MethodGet, "/calendars/cal/export.ics", nil, params)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="2025-2026.ics"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))

	w = performRequest(h.Events, http.MethodGet, "/calendars/cal/export", nil, params)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.FormatCSV, stub.format)

	w = performRequest(h.Events, http.MethodGet, "/calendars/cal/export?format=xlsx", nil, params)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportHandlerFeeds(t *testing.T) {
	stub := &exportServiceStub{}
	h := NewExportHandler(stub)

	w := performRequest(h.FeedLink, http.MethodPost, "/calendars/cal/feed-link", nil, gin.Params{{Key: "id", Value: "cal"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w = performRequest(h.Feed, http.MethodGet, "/feeds/tok.ics", nil, gin.Params{{Key: "token", Value: "tok.ics"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `inline; filename="2025-2026.ics"`, w.Header().Get("Content-Disposition"))

	w = performRequest(h.Feed, http.MethodGet, "/feeds/forged", nil, gin.Params{{Key: "token", Value: "forged"}})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

type plannerStub struct {
	calendarID string
	days       int
}

func (p *plannerStub) Plan(ctx context.Context, calendarID string, from time.Time, horizonDays int) ([]models.Reminder, error) {
	p.calendarID, p.days = calendarID, horizonDays
	return []models.Reminder{{Key: "s:course:2025-10-20"}}, nil
}

type fixedActive string

func (f fixedActive) ActiveCalendarID() string { return string(f) }

func TestReminderHandlerPreview(t *testing.T) {
	planner := &plannerStub{}

	w := performRequest(NewReminderHandler(planner, fixedActive("")).Preview, http.MethodGet, "/reminders/preview", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	h := NewReminderHandler(planner, fixedActive("active"))
	w = performRequest(h.Preview, http.MethodGet, "/reminders/preview?days=3", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "active", planner.calendarID)
	assert.Equal(t, 3, planner.days)

	w = performRequest(h.Preview, http.MethodGet, "/reminders/preview?calendar_id=other&days=0", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMetricsHandlerReady(t *testing.T) {
	metrics := service.NewMetricsService()
	h := NewMetricsHandler(metrics, map[string]ReadinessCheck{
		"store": func(ctx context.Context) error { return nil },
	})
	w := performRequest(h.Ready, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(metrics, map[string]ReadinessCheck{
		"store": func(ctx context.Context) error { return nil },
		"cache": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w = performRequest(h.Ready, http.MethodGet, "/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")

	w = performRequest(h.Status, http.MethodGet, "/status", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cache_hit_ratio")
}
