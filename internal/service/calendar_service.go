package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/calendar"
	"github.com/noah-isme/studyplan-api/internal/models"
	"github.com/noah-isme/studyplan-api/internal/repository"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
	"github.com/noah-isme/studyplan-api/pkg/middleware/requestid"
)

type calendarRepository interface {
	List(ctx context.Context) ([]models.AcademicCalendar, int, error)
	FindByID(ctx context.Context, id string) (*models.AcademicCalendar, error)
	Create(ctx context.Context, cal *models.AcademicCalendar) error
	Update(ctx context.Context, cal *models.AcademicCalendar) error
	Delete(ctx context.Context, id string) error
}

// calendarSubjects removes the subjects attached to a deleted calendar.
type calendarSubjects interface {
	DeleteByCalendar(ctx context.Context, calendarID string) (int, error)
}

type templateFinder interface {
	Find(ctx context.Context, key string) (*models.CalendarTemplate, error)
}

// EventRequest is the payload for adding or editing an academic event.
type EventRequest struct {
	Start                  string  `json:"start" validate:"required,iso_date"`
	End                    string  `json:"end" validate:"required,iso_date"`
	Type                   string  `json:"type" validate:"required,event_type"`
	TeachingWeekIndexStart *int    `json:"teachingWeekIndexStart" validate:"omitempty,min=1"`
	TeachingWeekIndexEnd   *int    `json:"teachingWeekIndexEnd" validate:"omitempty,min=1"`
	CustomName             *string `json:"customName" validate:"omitempty,max=120"`
}

// SemesterRequest lists the events of one semester in insertion order.
type SemesterRequest struct {
	Events []EventRequest `json:"events" validate:"dive"`
}

// CalendarRequest is the payload for creating or replacing a calendar.
type CalendarRequest struct {
	AcademicYear   string          `json:"academic_year" validate:"required,max=20"`
	Semester1      SemesterRequest `json:"semester_1"`
	Semester2      SemesterRequest `json:"semester_2"`
	UniversityName *string         `json:"university_name" validate:"omitempty,max=200"`
	CustomName     *string         `json:"custom_name" validate:"omitempty,max=120"`
}

// GenerateCalendarRequest builds a standard calendar from a template key or from explicit boundaries.
type GenerateCalendarRequest struct {
	TemplateKey    string  `json:"template_key"`
	AcademicYear   string  `json:"academic_year" validate:"required_without=TemplateKey"`
	UniversityName string  `json:"university_name"`
	Semester1Start string  `json:"semester1_start" validate:"required_without=TemplateKey,omitempty,iso_date"`
	Semester1End   string  `json:"semester1_end" validate:"required_without=TemplateKey,omitempty,iso_date"`
	Semester2Start string  `json:"semester2_start" validate:"required_without=TemplateKey,omitempty,iso_date"`
	Semester2End   string  `json:"semester2_end" validate:"required_without=TemplateKey,omitempty,iso_date"`
	CustomName     *string `json:"custom_name" validate:"omitempty,max=120"`
}

// CalendarService owns academic calendar snapshots and answers position queries against them.
type CalendarService struct {
	repo             calendarRepository
	subjects         calendarSubjects
	templates        templateFinder
	cache            *CacheService
	metrics          *MetricsService
	validator        *validator.Validate
	logger           *zap.Logger
	activeCalendarID string
	edits            editLocks
}

// CalendarServiceConfig carries optional collaborators.
type CalendarServiceConfig struct {
	Subjects         calendarSubjects
	Templates        templateFinder
	Cache            *CacheService
	Metrics          *MetricsService
	ActiveCalendarID string
}

// NewCalendarService constructs a CalendarService.
func NewCalendarService(repo calendarRepository, cfg CalendarServiceConfig, validate *validator.Validate, logger *zap.Logger) *CalendarService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{
		repo:             repo,
		subjects:         cfg.Subjects,
		templates:        cfg.Templates,
		cache:            cfg.Cache,
		metrics:          cfg.Metrics,
		validator:        ensureValidator(validate),
		logger:           logger,
		activeCalendarID: strings.TrimSpace(cfg.ActiveCalendarID),
	}
}

// ActiveCalendarID returns the configured calendar used by id-less queries.
func (s *CalendarService) ActiveCalendarID() string {
	return s.activeCalendarID
}

// List returns all stored calendars. Corrupt records are skipped and logged.
func (s *CalendarService) List(ctx context.Context) ([]models.AcademicCalendar, error) {
	items, skipped, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calendars")
	}
	if skipped > 0 {
		s.logger.Warn("skipped corrupt calendar records", zap.Int("count", skipped))
	}
	return items, nil
}

// Get returns a calendar by id, consulting the cache first.
func (s *CalendarService) Get(ctx context.Context, id string) (*models.AcademicCalendar, error) {
	if cached := s.cache.Calendar(ctx, id); cached != nil {
		return cached, nil
	}
	cal, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "calendar")
	}
	s.cache.StoreCalendar(ctx, cal)
	return cal, nil
}

// Create validates and stores a new calendar. Structural issues do not block
// the write and are returned for display.
func (s *CalendarService) Create(ctx context.Context, req CalendarRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	cal, err := s.buildCalendar(req)
	if err != nil {
		return nil, nil, err
	}
	if err := s.repo.Create(ctx, cal); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create calendar")
	}
	s.logger.Info("calendar created", zap.String("calendar_id", cal.ID), zap.String("academic_year", cal.AcademicYear))
	return cal, calendar.Validate(cal), nil
}

// Replace overwrites every field of an existing calendar.
func (s *CalendarService) Replace(ctx context.Context, id string, req CalendarRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	defer s.edits.lock(id)()
	if _, err := s.repo.FindByID(ctx, id); err != nil && !errors.Is(err, repository.ErrCorruptRecord) {
		return nil, nil, mapStoreError(err, "calendar")
	}
	cal, err := s.buildCalendar(req)
	if err != nil {
		return nil, nil, err
	}
	cal.ID = id
	if err := s.store(ctx, cal); err != nil {
		return nil, nil, err
	}
	return cal, calendar.Validate(cal), nil
}

// Delete removes a calendar together with its subjects.
func (s *CalendarService) Delete(ctx context.Context, id string) error {
	defer s.edits.lock(id)()
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, "calendar")
	}
	s.cache.ForgetCalendars(ctx, id)

	removed := 0
	if s.subjects != nil {
		n, err := s.subjects.DeleteByCalendar(ctx, id)
		if err != nil {
			s.logger.Error("failed to remove subjects of deleted calendar", zap.String("calendar_id", id), zap.Error(err))
		}
		removed = n
	}
	s.logger.Info("calendar deleted", zap.String("calendar_id", id), zap.Int("subjects_removed", removed))
	return nil
}

// Generate builds a standard two-semester calendar and stores it.
func (s *CalendarService) Generate(ctx context.Context, req GenerateCalendarRequest) (*models.AcademicCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	tmpl := models.CalendarTemplate{
		AcademicYear:   strings.TrimSpace(req.AcademicYear),
		UniversityName: strings.TrimSpace(req.UniversityName),
		Semester1Start: req.Semester1Start,
		Semester1End:   req.Semester1End,
		Semester2Start: req.Semester2Start,
		Semester2End:   req.Semester2End,
	}
	if key := strings.TrimSpace(req.TemplateKey); key != "" {
		if s.templates == nil {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "template catalog unavailable")
		}
		found, err := s.templates.Find(ctx, key)
		if err != nil {
			return nil, err
		}
		tmpl = *found
	}

	cal, err := calendar.GenerateStandardCalendar(tmpl)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCalendarGeneration.Code, appErrors.ErrCalendarGeneration.Status, appErrors.ErrCalendarGeneration.Message)
	}
	cal.CustomName = normalizeOptional(req.CustomName)
	if err := s.repo.Create(ctx, cal); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store generated calendar")
	}
	s.logger.Info("calendar generated",
		zap.String("calendar_id", cal.ID),
		zap.String("academic_year", cal.AcademicYear),
		zap.String("template", req.TemplateKey),
	)
	return cal, nil
}

// AddEvent appends an event to a semester and stores the new snapshot.
func (s *CalendarService) AddEvent(ctx context.Context, calendarID string, semester models.SemesterID, req EventRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	ev, err := s.buildEvent(req)
	if err != nil {
		return nil, nil, err
	}
	ev.ID = uuid.NewString()
	return s.mutate(ctx, calendarID, func(cal *models.AcademicCalendar) error {
		sem := cal.Semester(semester)
		sem.Events = append(sem.Events, withTeachingIndex(*sem, ev))
		return nil
	})
}

// UpdateEvent replaces an event in place, keeping its id and position.
func (s *CalendarService) UpdateEvent(ctx context.Context, calendarID string, semester models.SemesterID, eventID string, req EventRequest) (*models.AcademicCalendar, []calendar.Issue, error) {
	ev, err := s.buildEvent(req)
	if err != nil {
		return nil, nil, err
	}
	ev.ID = eventID
	return s.mutate(ctx, calendarID, func(cal *models.AcademicCalendar) error {
		sem := cal.Semester(semester)
		for i := range sem.Events {
			if sem.Events[i].ID == eventID {
				others := models.Semester{Events: append(append([]models.AcademicEvent{}, sem.Events[:i]...), sem.Events[i+1:]...)}
				sem.Events[i] = withTeachingIndex(others, ev)
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	})
}

// DeleteEvent removes an event from a semester.
func (s *CalendarService) DeleteEvent(ctx context.Context, calendarID string, semester models.SemesterID, eventID string) (*models.AcademicCalendar, error) {
	cal, _, err := s.mutate(ctx, calendarID, func(cal *models.AcademicCalendar) error {
		sem := cal.Semester(semester)
		for i := range sem.Events {
			if sem.Events[i].ID == eventID {
				sem.Events = append(sem.Events[:i], sem.Events[i+1:]...)
				return nil
			}
		}
		return appErrors.Clone(appErrors.ErrNotFound, "event not found")
	})
	return cal, err
}

// Position resolves the teaching week and semester of date in a stored calendar.
func (s *CalendarService) Position(ctx context.Context, calendarID string, date models.Date) (models.Position, error) {
	cal, err := s.Get(ctx, calendarID)
	if err != nil {
		return models.Position{}, err
	}
	return s.resolve(cal, date), nil
}

// EventAt returns the first event containing date, or nil.
func (s *CalendarService) EventAt(ctx context.Context, calendarID string, date models.Date) (*models.AcademicEvent, error) {
	cal, err := s.Get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	return calendar.EventContaining(cal, date), nil
}

// ActiveCalendar loads the configured active calendar.
func (s *CalendarService) ActiveCalendar(ctx context.Context) (*models.AcademicCalendar, error) {
	if s.activeCalendarID == "" {
		return nil, appErrors.ErrNoActiveCalendar
	}
	return s.Get(ctx, s.activeCalendarID)
}

// ActivePosition resolves date against the active calendar. A missing or
// unreadable calendar degrades to the no-calendar answer.
func (s *CalendarService) ActivePosition(ctx context.Context, date models.Date) models.Position {
	cal, err := s.ActiveCalendar(ctx)
	if err != nil {
		if !errors.Is(err, appErrors.ErrNoActiveCalendar) {
			s.logger.Warn("active calendar unavailable, resolving without calendar",
				zap.String("calendar_id", s.activeCalendarID),
				zap.String("request_id", requestid.FromContext(ctx)),
				zap.Error(err))
		}
		cal = nil
	}
	return s.resolve(cal, date)
}

func (s *CalendarService) resolve(cal *models.AcademicCalendar, date models.Date) models.Position {
	pos := calendar.ResolveCurrentPosition(cal, date)
	switch {
	case cal == nil:
		s.metrics.RecordResolution(ResolutionNoCalendar)
	case pos.TeachingWeek == nil:
		s.metrics.RecordResolution(ResolutionOffWeek)
	default:
		s.metrics.RecordResolution(ResolutionTeaching)
	}
	return pos
}

// mutate applies edit to a fresh copy of the stored calendar and persists the result.
// Edits of the same calendar are serialised so no snapshot overwrites another.
func (s *CalendarService) mutate(ctx context.Context, calendarID string, edit func(*models.AcademicCalendar) error) (*models.AcademicCalendar, []calendar.Issue, error) {
	defer s.edits.lock(calendarID)()
	current, err := s.repo.FindByID(ctx, calendarID)
	if err != nil {
		return nil, nil, mapStoreError(err, "calendar")
	}
	next := current.Clone()
	if err := edit(next); err != nil {
		return nil, nil, err
	}
	if err := s.store(ctx, next); err != nil {
		return nil, nil, err
	}
	return next, calendar.Validate(next), nil
}

func (s *CalendarService) store(ctx context.Context, cal *models.AcademicCalendar) error {
	if err := s.repo.Update(ctx, cal); err != nil {
		return mapStoreError(err, "calendar")
	}
	s.cache.ForgetCalendars(ctx, cal.ID)
	return nil
}

func (s *CalendarService) buildCalendar(req CalendarRequest) (*models.AcademicCalendar, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid calendar payload")
	}
	cal := &models.AcademicCalendar{
		AcademicYear:   strings.TrimSpace(req.AcademicYear),
		UniversityName: normalizeOptional(req.UniversityName),
		CustomName:     normalizeOptional(req.CustomName),
	}
	for id, semReq := range map[models.SemesterID]SemesterRequest{models.Semester1: req.Semester1, models.Semester2: req.Semester2} {
		sem := models.Semester{Events: make([]models.AcademicEvent, 0, len(semReq.Events))}
		for _, evReq := range semReq.Events {
			ev, err := s.buildEvent(evReq)
			if err != nil {
				return nil, err
			}
			ev.ID = uuid.NewString()
			sem.Events = append(sem.Events, withTeachingIndex(sem, ev))
		}
		*cal.Semester(id) = sem
	}
	return cal, nil
}

func (s *CalendarService) buildEvent(req EventRequest) (models.AcademicEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.AcademicEvent{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	start, _ := models.ParseDate(req.Start)
	end, _ := models.ParseDate(req.End)
	if end.Before(start) {
		return models.AcademicEvent{}, appErrors.Clone(appErrors.ErrValidation, "event end is before start")
	}
	ev := models.AcademicEvent{
		Start:                  start,
		End:                    end,
		Type:                   models.EventType(req.Type),
		TeachingWeekIndexStart: req.TeachingWeekIndexStart,
		TeachingWeekIndexEnd:   req.TeachingWeekIndexEnd,
		CustomName:             normalizeOptional(req.CustomName),
	}
	return calendar.NormalizeEvent(ev), nil
}

// withTeachingIndex numbers a teaching event that arrived without a week
// index so it continues from the earlier teaching blocks of its semester.
func withTeachingIndex(sem models.Semester, ev models.AcademicEvent) models.AcademicEvent {
	if ev.Type != models.EventTypeTeaching || ev.TeachingWeekIndexStart != nil {
		return ev
	}
	ev.TeachingWeekIndexStart = models.IntPtr(calendar.NextTeachingIndex(sem, ev.Start))
	return calendar.NormalizeEvent(ev)
}

func mapStoreError(err error, entity string) error {
	switch {
	case errors.Is(err, repository.ErrRecordNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrCorruptRecord):
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, entity+" record is unreadable")
	default:
		var appErr *appErrors.Error
		if errors.As(err, &appErr) {
			return appErr
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to access "+entity)
	}
}

func normalizeOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// editLocks hands out one mutex per calendar id. Entries are dropped once no
// caller holds or waits on them. The zero value is ready to use.
type editLocks struct {
	mu    sync.Mutex
	locks map[string]*editLock
}

type editLock struct {
	sync.Mutex
	refs int
}

// lock blocks until id is free and returns the matching unlock.
func (l *editLocks) lock(id string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*editLock)
	}
	lk, ok := l.locks[id]
	if !ok {
		lk = &editLock{}
		l.locks[id] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.Lock()
	return func() {
		lk.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
