package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/pkg/response"
)

type templateLister interface {
	List(ctx context.Context) ([]models.CalendarTemplate, error)
}

// TemplateHandler exposes the university template catalog.
type TemplateHandler struct {
	templates templateLister
}

// NewTemplateHandler constructs a template handler.
func NewTemplateHandler(templates templateLister) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

// List godoc
// @Summary List calendar templates
// @Tags Templates
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /templates [get]
func (h *TemplateHandler) List(c *gin.Context) {
	items, err := h.templates.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}
