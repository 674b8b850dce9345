package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

// CacheRepository is the key/value store behind CacheService.
type CacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// CacheService is a read-through cache for calendar documents. Failures are
// logged and treated as misses; the store stays authoritative.
type CacheService struct {
	repo    CacheRepository
	metrics *MetricsService
	ttl     time.Duration
	logger  *zap.Logger
	enabled bool
}

// NewCacheService constructs a cache service. A zero ttl means ten minutes.
func NewCacheService(repo CacheRepository, metrics *MetricsService, ttl time.Duration, logger *zap.Logger, enabled bool) *CacheService {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, ttl: ttl, logger: logger, enabled: enabled}
}

// Enabled indicates whether caching is active.
func (s *CacheService) Enabled() bool {
	return s != nil && s.enabled && s.repo != nil
}

// Calendar returns the cached calendar for id, or nil on a miss.
func (s *CacheService) Calendar(ctx context.Context, id string) *models.AcademicCalendar {
	if !s.Enabled() {
		return nil
	}
	var cal models.AcademicCalendar
	start := time.Now()
	err := s.repo.Get(ctx, calendarCacheKey(id), &cal)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	switch {
	case err == nil:
		return &cal
	case !errors.Is(err, appErrors.ErrCacheMiss):
		s.logger.Warn("calendar cache read failed", zap.String("calendar_id", id), zap.Error(err))
	}
	return nil
}

// StoreCalendar caches cal under its id.
func (s *CacheService) StoreCalendar(ctx context.Context, cal *models.AcademicCalendar) {
	if !s.Enabled() || cal == nil {
		return
	}
	start := time.Now()
	err := s.repo.Set(ctx, calendarCacheKey(cal.ID), cal, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("calendar cache write failed", zap.String("calendar_id", cal.ID), zap.Error(err))
	}
}

// ForgetCalendars drops cached copies of the given calendars.
func (s *CacheService) ForgetCalendars(ctx context.Context, ids ...string) {
	if !s.Enabled() || len(ids) == 0 {
		return
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = calendarCacheKey(id)
	}
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Warn("calendar cache invalidation failed", zap.Strings("calendar_ids", ids), zap.Error(err))
	}
}

func calendarCacheKey(id string) string {
	return "calendar:" + id
}
