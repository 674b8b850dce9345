package service

import (
	"context"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/calendar"
	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

// MaxAgendaDays bounds the range served by Agenda.
const MaxAgendaDays = 62

type subjectRepository interface {
	List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
	Update(ctx context.Context, subject *models.Subject) error
	Delete(ctx context.Context, id string) error
}

type calendarProvider interface {
	Get(ctx context.Context, id string) (*models.AcademicCalendar, error)
}

// MeetingRequest describes a recurring class slot.
type MeetingRequest struct {
	Days      []int  `json:"days" validate:"required,min=1,dive,min=1,max=7"`
	Frequency string `json:"frequency" validate:"required,frequency"`
	StartTime string `json:"startTime" validate:"required,clock"`
	EndTime   string `json:"endTime" validate:"required,clock"`
}

// SubjectRequest is the payload for creating or updating subjects.
type SubjectRequest struct {
	CalendarID string          `json:"calendar_id" validate:"required"`
	Name       string          `json:"name" validate:"required,max=200"`
	Code       *string         `json:"code" validate:"omitempty,max=50"`
	Teacher    *string         `json:"teacher" validate:"omitempty,max=200"`
	Room       *string         `json:"room" validate:"omitempty,max=100"`
	Course     *MeetingRequest `json:"course"`
	Seminar    *MeetingRequest `json:"seminar"`
}

// SubjectService manages subjects and expands their meetings into concrete class days.
type SubjectService struct {
	repo      subjectRepository
	calendars calendarProvider
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, calendars calendarProvider, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, calendars: calendars, metrics: metrics, validator: ensureValidator(validate), logger: logger}
}

// List returns subjects matching the filter.
func (s *SubjectService) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	items, skipped, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subjects")
	}
	if skipped > 0 {
		s.logger.Warn("skipped corrupt subject records", zap.Int("count", skipped))
	}
	return items, nil
}

// Get returns a subject by id.
func (s *SubjectService) Get(ctx context.Context, id string) (*models.Subject, error) {
	subject, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "subject")
	}
	return subject, nil
}

// Create registers a subject for an existing calendar.
func (s *SubjectService) Create(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	subject, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, subject); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create subject")
	}
	return subject, nil
}

// Update replaces the editable fields of a subject.
func (s *SubjectService) Update(ctx context.Context, id string, req SubjectRequest) (*models.Subject, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "subject")
	}
	subject, err := s.build(ctx, req)
	if err != nil {
		return nil, err
	}
	subject.ID = existing.ID
	subject.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, subject); err != nil {
		return nil, mapStoreError(err, "subject")
	}
	return subject, nil
}

// Delete removes a subject.
func (s *SubjectService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, "subject")
	}
	return nil
}

// DaySchedule resolves the calendar position of date once and lists every
// course and seminar meeting held that day, ordered by start time.
func (s *SubjectService) DaySchedule(ctx context.Context, calendarID string, date models.Date) (*models.DaySchedule, error) {
	cal, subjects, err := s.load(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	day := s.scheduleFor(cal, subjects, date)
	return &day, nil
}

// Agenda returns day schedules for every date in the inclusive range [from, to].
func (s *SubjectService) Agenda(ctx context.Context, calendarID string, from, to models.Date) ([]models.DaySchedule, error) {
	if to.Before(from) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "agenda end is before start")
	}
	if from.DaysUntil(to)+1 > MaxAgendaDays {
		return nil, appErrors.Invalid("agenda range is limited to %d days", MaxAgendaDays)
	}
	cal, subjects, err := s.load(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	days := make([]models.DaySchedule, 0, from.DaysUntil(to)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, s.scheduleFor(cal, subjects, d))
	}
	return days, nil
}

// Occurrences lists class meetings between from and to, inclusive, without day grouping.
func (s *SubjectService) Occurrences(ctx context.Context, calendarID string, from, to models.Date) ([]models.ClassOccurrence, error) {
	days, err := s.Agenda(ctx, calendarID, from, to)
	if err != nil {
		return nil, err
	}
	var out []models.ClassOccurrence
	for _, day := range days {
		out = append(out, day.Classes...)
	}
	return out, nil
}

// SubjectOccurrences lists the meetings of one subject between from and to, inclusive.
func (s *SubjectService) SubjectOccurrences(ctx context.Context, subjectID string, from, to models.Date) ([]models.ClassOccurrence, error) {
	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	all, err := s.Occurrences(ctx, subject.CalendarID, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]models.ClassOccurrence, 0, len(all))
	for _, occ := range all {
		if occ.SubjectID == subject.ID {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (s *SubjectService) load(ctx context.Context, calendarID string) (*models.AcademicCalendar, []models.Subject, error) {
	cal, err := s.calendars.Get(ctx, calendarID)
	if err != nil {
		return nil, nil, err
	}
	subjects, err := s.List(ctx, models.SubjectFilter{CalendarID: calendarID})
	if err != nil {
		return nil, nil, err
	}
	return cal, subjects, nil
}

func (s *SubjectService) scheduleFor(cal *models.AcademicCalendar, subjects []models.Subject, date models.Date) models.DaySchedule {
	pos := calendar.ResolveCurrentPosition(cal, date)
	if pos.TeachingWeek != nil {
		s.metrics.RecordResolution(ResolutionTeaching)
	} else {
		s.metrics.RecordResolution(ResolutionOffWeek)
	}
	day := models.DaySchedule{
		Date:     date,
		Position: pos,
		Event:    calendar.EventContaining(cal, date),
		Classes:  []models.ClassOccurrence{},
	}
	for _, subject := range subjects {
		for _, kind := range []models.MeetingKind{models.MeetingKindCourse, models.MeetingKindSeminar} {
			meeting, ok := subject.Meetings()[kind]
			if !ok || !calendar.MeetingOccursAt(meeting, date.Weekday(), pos) {
				continue
			}
			day.Classes = append(day.Classes, models.ClassOccurrence{
				SubjectID:   subject.ID,
				SubjectName: subject.Name,
				Kind:        kind,
				Date:        date,
				StartTime:   meeting.StartTime,
				EndTime:     meeting.EndTime,
				Room:        subject.Room,
				Teacher:     subject.Teacher,
			})
		}
	}
	sort.SliceStable(day.Classes, func(i, j int) bool {
		return day.Classes[i].StartTime.Minutes() < day.Classes[j].StartTime.Minutes()
	})
	return day
}

func (s *SubjectService) build(ctx context.Context, req SubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	if _, err := s.calendars.Get(ctx, req.CalendarID); err != nil {
		return nil, err
	}
	subject := &models.Subject{
		CalendarID: strings.TrimSpace(req.CalendarID),
		Name:       strings.TrimSpace(req.Name),
		Code:       normalizeOptional(req.Code),
		Teacher:    normalizeOptional(req.Teacher),
		Room:       normalizeOptional(req.Room),
	}
	var err error
	if subject.Course, err = buildMeeting(req.Course); err != nil {
		return nil, err
	}
	if subject.Seminar, err = buildMeeting(req.Seminar); err != nil {
		return nil, err
	}
	return subject, nil
}

func buildMeeting(req *MeetingRequest) (*models.RecurringMeeting, error) {
	if req == nil {
		return nil, nil
	}
	start, _ := models.ParseTimeOfDay(req.StartTime)
	end, _ := models.ParseTimeOfDay(req.EndTime)
	if end.Minutes() <= start.Minutes() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "meeting must end after it starts")
	}
	days := make([]int, 0, len(req.Days))
	seen := make(map[int]struct{}, len(req.Days))
	for _, d := range req.Days {
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		days = append(days, d)
	}
	sort.Ints(days)
	return &models.RecurringMeeting{
		Days:      days,
		Frequency: models.Frequency(req.Frequency),
		StartTime: start,
		EndTime:   end,
	}, nil
}
