package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/service"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type exportService interface {
	ICS(ctx context.Context, calendarID string) (*service.ExportFile, error)
	Events(ctx context.Context, calendarID, format string) (*service.ExportFile, error)
	FeedLink(ctx context.Context, calendarID string) (*service.FeedLink, error)
	Feed(ctx context.Context, token string) (*service.ExportFile, error)
}

// ExportHandler serves calendar downloads and subscription feeds.
type ExportHandler struct {
	exports exportService
}

// NewExportHandler constructs an export handler.
func NewExportHandler(exports exportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ICS godoc
// @Summary Download the calendar as iCalendar
// @Tags Export
// @Produce text/calendar
// @Param id path string true "Calendar ID"
// @Success 200 {file} file
// @Router /calendars/{id}/export.ics [get]
func (h *ExportHandler) ICS(c *gin.Context) {
	file, err := h.exports.ICS(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file, true)
}

// Events godoc
// @Summary Download the calendar events as CSV or PDF
// @Tags Export
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Calendar ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /calendars/{id}/export [get]
func (h *ExportHandler) Events(c *gin.Context) {
	file, err := h.exports.Events(c.Request.Context(), c.Param("id"), c.DefaultQuery("format", service.FormatCSV))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file, true)
}

// FeedLink godoc
// @Summary Create a signed subscription link
// @Tags Export
// @Produce json
// @Param id path string true "Calendar ID"
// @Success 201 {object} response.Envelope
// @Router /calendars/{id}/feed-link [post]
func (h *ExportHandler) FeedLink(c *gin.Context) {
	link, err := h.exports.FeedLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// Feed godoc
// @Summary Subscribe to a calendar feed
// @Tags Export
// @Produce text/calendar
// @Param token path string true "Signed feed token"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /feeds/{token} [get]
func (h *ExportHandler) Feed(c *gin.Context) {
	file, err := h.exports.Feed(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	sendFile(c, file, false)
}

func sendFile(c *gin.Context, file *service.ExportFile, attachment bool) {
	response.File(c, file.ContentType, file.Filename, file.Data, attachment)
}
