package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/studyplan-api/api/swagger"
	"github.com/noah-isme/studyplan-api/internal/handler"
	"github.com/noah-isme/studyplan-api/internal/repository"
	"github.com/noah-isme/studyplan-api/internal/service"
	"github.com/noah-isme/studyplan-api/pkg/cache"
	"github.com/noah-isme/studyplan-api/pkg/config"
	"github.com/noah-isme/studyplan-api/pkg/database"
	"github.com/noah-isme/studyplan-api/pkg/export"
	"github.com/noah-isme/studyplan-api/pkg/logger"
	"github.com/noah-isme/studyplan-api/pkg/storage"
)

// @title Study Plan API
// @version 1.0.0
// @description Academic calendars, teaching week resolution and class schedules
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	var redisClient *redis.Client
	if cfg.Store.Backend == config.StoreRedis || cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	backend, err := openStore(ctx, cfg, redisClient, checks)
	if err != nil {
		logr.Fatal("failed to open calendar store", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	backend = repository.NewInstrumentedBackend(backend, metrics)

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		cacheRepo := repository.NewCacheRepository(redisClient, cache.Namespace(cfg.Redis.KeyPrefix, "cache"), logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, true)
	}

	loc := cfg.Location()
	validate := service.NewValidator()
	templates := service.NewTemplateService(service.TemplateServiceConfig{
		File:         cfg.Templates.File,
		RemoteURL:    cfg.Templates.RemoteURL,
		FetchTimeout: cfg.Templates.FetchTimeout,
	}, logr)
	subjectRepo := repository.NewSubjectRepository(backend)
	calendars := service.NewCalendarService(repository.NewCalendarRepository(backend), service.CalendarServiceConfig{
		Subjects:         subjectRepo,
		Templates:        templates,
		Cache:            cacheSvc,
		Metrics:          metrics,
		ActiveCalendarID: cfg.Store.ActiveCalendarID,
	}, validate, logr)
	subjects := service.NewSubjectService(subjectRepo, calendars, metrics, validate, logr)
	reminders := service.NewReminderService(calendars, subjects, service.NewLogNotifier(logr), metrics, service.ReminderConfig{
		LeadTime:    cfg.Reminders.LeadTime,
		HorizonDays: cfg.Reminders.HorizonDays,
		Cron:        cfg.Reminders.Cron,
		Location:    loc,
		Workers:     cfg.Reminders.Workers,
		Retries:     cfg.Reminders.Retries,
	}, logr)

	var signer service.FeedSigner
	if cfg.Feeds.SigningSecret != "" {
		signer = storage.NewSignedURLSigner(cfg.Feeds.SigningSecret, cfg.Feeds.LinkTTL).AcceptPrevious(cfg.Feeds.PreviousSecrets...)
	} else {
		logr.Warn("feed signing secret not configured, subscription links disabled")
	}
	csvExporter := export.NewCSVExporter(export.WithDelimiter(cfg.Export.CSVDelimiter), export.WithByteOrderMark(cfg.Export.CSVBOM))
	exports := service.NewExportService(calendars, subjects, csvExporter, export.NewPDFExporter(), signer, logr, service.ExportConfig{
		Title:         cfg.Export.Title,
		APIPrefix:     cfg.APIPrefix,
		PublicBaseURL: cfg.Feeds.PublicBaseURL,
		Location:      loc,
	})

	router := newRouter(cfg, logr, metrics, routeHandlers{
		calendars: handler.NewCalendarHandler(calendars, subjects, loc),
		subjects:  handler.NewSubjectHandler(subjects, loc),
		templates: handler.NewTemplateHandler(templates),
		exports:   handler.NewExportHandler(exports),
		reminders: handler.NewReminderHandler(reminders, calendars),
		metrics:   handler.NewMetricsHandler(metrics, checks),
	})

	if cfg.Reminders.Enabled {
		if err := reminders.Start(ctx); err != nil {
			logr.Fatal("failed to start reminder scheduler", zap.Error(err))
		}
		defer reminders.Stop()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logr.Warn("http shutdown error", zap.Error(err))
		}
	}()

	logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "store", backend.Name())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
	logr.Info("server stopped")
}

// openStore builds the document backend named by CALENDAR_STORE and registers its readiness probe.
func openStore(ctx context.Context, cfg *config.Config, redisClient *redis.Client, checks map[string]handler.ReadinessCheck) (repository.DocumentBackend, error) {
	switch cfg.Store.Backend {
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		pg := repository.NewPostgresDocumentBackend(db)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		checks["postgres"] = db.PingContext
		return pg, nil
	case config.StoreRedis:
		return repository.NewRedisDocumentBackend(redisClient, cache.Namespace(cfg.Redis.KeyPrefix, "docs")), nil
	case config.StoreMemory:
		return repository.NewMemoryDocumentBackend(), nil
	default:
		store, err := storage.NewLocalStorage(cfg.Store.FileDir)
		if err != nil {
			return nil, err
		}
		return repository.NewFileDocumentBackend(store), nil
	}
}
