package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/calendar"
	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
	"github.com/noah-isme/studyplan-api/pkg/jobs"
)

// Notifier delivers a reminder once it is due.
type Notifier interface {
	Notify(ctx context.Context, reminder models.Reminder) error
}

// LogNotifier writes due reminders to the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the reminder.
func (n *LogNotifier) Notify(_ context.Context, r models.Reminder) error {
	n.logger.Info("class reminder",
		zap.String("key", r.Key),
		zap.String("subject", r.SubjectName),
		zap.String("kind", string(r.Kind)),
		zap.Time("class_start", r.ClassStart),
	)
	return nil
}

type subjectLister interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
}

type activeCalendarProvider interface {
	calendarProvider
	ActiveCalendarID() string
}

// ReminderConfig tunes reminder planning and scheduling.
type ReminderConfig struct {
	LeadTime    time.Duration
	HorizonDays int
	Cron        string
	Location    *time.Location
	Workers     int
	Retries     int
}

// ReminderService plans class reminders and, when started, arms them on a cron schedule.
type ReminderService struct {
	calendars activeCalendarProvider
	subjects  subjectLister
	notifier  Notifier
	metrics   *MetricsService
	logger    *zap.Logger
	cfg       ReminderConfig
	now       func() time.Time

	queue     *jobs.Queue[models.Reminder]
	scheduler *cron.Cron

	mu     sync.Mutex
	firing map[string]time.Time
}

// NewReminderService constructs a ReminderService.
func NewReminderService(calendars activeCalendarProvider, subjects subjectLister, notifier Notifier, metrics *MetricsService, cfg ReminderConfig, logger *zap.Logger) *ReminderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	if cfg.LeadTime < 0 {
		cfg.LeadTime = 0
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 7
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	s := &ReminderService{
		calendars: calendars,
		subjects:  subjects,
		notifier:  notifier,
		metrics:   metrics,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		firing:    make(map[string]time.Time),
	}
	s.queue = jobs.NewQueue[models.Reminder]("reminders", s.dispatch, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return s
}

// Plan lists reminders for classes on the horizonDays dates starting at from.
// Reminders whose fire time is already before from are skipped.
func (s *ReminderService) Plan(ctx context.Context, calendarID string, from time.Time, horizonDays int) ([]models.Reminder, error) {
	if horizonDays <= 0 {
		horizonDays = s.cfg.HorizonDays
	}
	if horizonDays > MaxAgendaDays {
		return nil, appErrors.Invalid("reminder horizon is limited to %d days", MaxAgendaDays)
	}
	cal, err := s.calendars.Get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.List(ctx, models.SubjectFilter{CalendarID: calendarID})
	if err != nil {
		return nil, err
	}

	start := models.DateOf(from.In(s.cfg.Location))
	var out []models.Reminder
	for i := 0; i < horizonDays; i++ {
		day := start.AddDays(i)
		pos := calendar.ResolveCurrentPosition(cal, day)
		if pos.TeachingWeek == nil {
			continue
		}
		for _, subject := range subjects {
			for kind, meeting := range subject.Meetings() {
				if !calendar.MeetingOccursAt(meeting, day.Weekday(), pos) {
					continue
				}
				classStart := meeting.StartTime.On(day, s.cfg.Location)
				fireAt := classStart.Add(-s.cfg.LeadTime)
				if fireAt.Before(from) {
					continue
				}
				out = append(out, models.Reminder{
					Key:         fmt.Sprintf("%s:%s:%s", subject.ID, kind, day),
					CalendarID:  calendarID,
					SubjectID:   subject.ID,
					SubjectName: subject.Name,
					Kind:        kind,
					ClassStart:  classStart,
					FireAt:      fireAt,
					Room:        subject.Room,
				})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].FireAt.Before(out[j].FireAt)
		}
		return out[i].Key < out[j].Key
	})
	return out, nil
}

// Start launches the worker queue and the cron schedule. It is a no-op without a cron spec.
func (s *ReminderService) Start(ctx context.Context) error {
	if s.cfg.Cron == "" {
		return nil
	}
	scheduler := cron.New(cron.WithLocation(s.cfg.Location))
	if _, err := scheduler.AddFunc(s.cfg.Cron, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("schedule reminders: %w", err)
	}
	s.queue.Start(ctx)
	scheduler.Start()
	s.scheduler = scheduler
	s.logger.Info("reminder scheduler started", zap.String("cron", s.cfg.Cron), zap.Duration("lead", s.cfg.LeadTime))
	go s.Tick(ctx)
	return nil
}

// Stop halts the schedule, disarms pending timers and drains the queue.
func (s *ReminderService) Stop() {
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
	s.queue.Stop()
}

// Tick plans reminders for the active calendar and arms the new ones.
func (s *ReminderService) Tick(ctx context.Context) {
	calendarID := s.calendars.ActiveCalendarID()
	if calendarID == "" {
		return
	}
	reminders, err := s.Plan(ctx, calendarID, s.now(), s.cfg.HorizonDays)
	if err != nil {
		s.logger.Warn("reminder planning failed", zap.String("calendar_id", calendarID), zap.Error(err))
		return
	}
	if armed := s.Arm(reminders); armed > 0 {
		s.logger.Info("reminders armed", zap.Int("count", armed))
	}
}

// Arm schedules each reminder not already armed and returns how many were added.
func (s *ReminderService) Arm(reminders []models.Reminder) int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, fireAt := range s.firing {
		if fireAt.Before(now.Add(-time.Hour)) {
			delete(s.firing, key)
		}
	}

	added := 0
	for _, r := range reminders {
		if _, ok := s.firing[r.Key]; ok {
			continue
		}
		if !s.queue.Schedule(jobs.Job[models.Reminder]{ID: r.Key, Payload: r}, r.FireAt) {
			continue
		}
		s.firing[r.Key] = r.FireAt
		added++
	}
	return added
}

// Armed reports how many reminders are tracked, including those fired within the last hour.
func (s *ReminderService) Armed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.firing)
}

func (s *ReminderService) dispatch(ctx context.Context, job jobs.Job[models.Reminder]) error {
	if err := s.notifier.Notify(ctx, job.Payload); err != nil {
		return err
	}
	s.metrics.RecordReminderDispatched()
	return nil
}
