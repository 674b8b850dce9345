package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/handler"
	"github.com/noah-isme/studyplan-api/internal/middleware"
	"github.com/noah-isme/studyplan-api/internal/service"
	"github.com/noah-isme/studyplan-api/pkg/config"
	"github.com/noah-isme/studyplan-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/studyplan-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/studyplan-api/pkg/middleware/requestid"
)

type routeHandlers struct {
	calendars *handler.CalendarHandler
	subjects  *handler.SubjectHandler
	templates *handler.TemplateHandler
	exports   *handler.ExportHandler
	reminders *handler.ReminderHandler
	metrics   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h routeHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(metrics, logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.APIPrefix+"/feeds/"))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/status", h.metrics.Status)
	api.GET("/position", h.calendars.ActivePosition)
	api.GET("/templates", h.templates.List)
	api.GET("/reminders/preview", h.reminders.Preview)
	api.GET("/feeds/:token", h.exports.Feed)

	calendars := api.Group("/calendars")
	calendars.GET("", h.calendars.List)
	calendars.POST("", h.calendars.Create)
	calendars.POST("/generate", h.calendars.Generate)
	calendars.GET("/:id", h.calendars.Get)
	calendars.PUT("/:id", h.calendars.Replace)
	calendars.DELETE("/:id", h.calendars.Delete)
	calendars.POST("/:id/semesters/:semester/events", h.calendars.AddEvent)
	calendars.PUT("/:id/semesters/:semester/events/:eventId", h.calendars.UpdateEvent)
	calendars.DELETE("/:id/semesters/:semester/events/:eventId", h.calendars.DeleteEvent)
	calendars.GET("/:id/position", h.calendars.Position)
	calendars.GET("/:id/event", h.calendars.EventAt)
	calendars.GET("/:id/schedule", h.calendars.Schedule)
	calendars.GET("/:id/agenda", h.calendars.Agenda)
	calendars.GET("/:id/export.ics", h.exports.ICS)
	calendars.GET("/:id/export", h.exports.Events)
	calendars.POST("/:id/feed-link", h.exports.FeedLink)

	subjects := api.Group("/subjects")
	subjects.GET("", h.subjects.List)
	subjects.POST("", h.subjects.Create)
	subjects.GET("/:id", h.subjects.Get)
	subjects.PUT("/:id", h.subjects.Update)
	subjects.DELETE("/:id", h.subjects.Delete)
	subjects.GET("/:id/occurrences", h.subjects.Occurrences)

	return r
}
