package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/noah-isme/studyplan-api/internal/calendar"
	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
	"github.com/noah-isme/studyplan-api/pkg/export"
)

// Export formats.
const (
	FormatICS = "ics"
	FormatCSV = "csv"
	FormatPDF = "pdf"
)

var icsWeekdays = map[int]string{1: "SU", 2: "MO", 3: "TU", 4: "WE", 5: "TH", 6: "FR", 7: "SA"}

type tableRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
}

// FeedSigner issues and verifies subscription tokens.
type FeedSigner interface {
	Generate(calendarID, format string) (string, time.Time, error)
	Parse(token string) (string, string, time.Time, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	Title         string
	APIPrefix     string
	PublicBaseURL string
	Location      *time.Location
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// FeedLink is a signed subscription URL for a calendar's ICS feed.
type FeedLink struct {
	URL       string    `json:"url"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportService renders calendars as iCalendar feeds and event tables.
type ExportService struct {
	calendars calendarProvider
	subjects  subjectLister
	csv       tableRenderer
	pdf       tableRenderer
	signer    FeedSigner
	logger    *zap.Logger
	cfg       ExportConfig
	now       func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(calendars calendarProvider, subjects subjectLister, csv, pdf tableRenderer, signer FeedSigner, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Title == "" {
		cfg.Title = "Academic calendar"
	}
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return &ExportService{
		calendars: calendars,
		subjects:  subjects,
		csv:       csv,
		pdf:       pdf,
		signer:    signer,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ICS renders the calendar as an iCalendar document: one all-day VEVENT per
// academic event and one timed VEVENT per concrete class meeting.
func (s *ExportService) ICS(ctx context.Context, calendarID string) (*ExportFile, error) {
	cal, err := s.calendars.Get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	subjects, err := s.subjects.List(ctx, models.SubjectFilter{CalendarID: calendarID})
	if err != nil {
		return nil, err
	}

	doc := ics.NewCalendar()
	doc.SetMethod(ics.MethodPublish)
	doc.SetProductId("-//studyplan-api//academic calendar//EN")
	doc.SetXWRCalName(cal.DisplayName())
	doc.SetXWRTimezone(s.cfg.Location.String())
	stamp := s.now().UTC()

	for _, semID := range []models.SemesterID{models.Semester1, models.Semester2} {
		for _, ev := range cal.Semester(semID).Events {
			vevent := doc.AddEvent(ev.ID + "@studyplan")
			vevent.SetDtStampTime(stamp)
			vevent.SetAllDayStartAt(ev.Start.Time())
			vevent.SetAllDayEndAt(ev.End.AddDays(1).Time())
			vevent.SetSummary(eventLabel(ev))
			vevent.SetProperty(ics.ComponentPropertyCategories, string(ev.Type))
			vevent.SetDescription(fmt.Sprintf("%s, %d weeks", semID, ev.Weeks))
		}
	}

	count := 0
	for _, subject := range subjects {
		for _, kind := range []models.MeetingKind{models.MeetingKindCourse, models.MeetingKindSeminar} {
			meeting, ok := subject.Meetings()[kind]
			if !ok {
				continue
			}
			dates, err := s.meetingDates(cal, meeting)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to expand class meetings")
			}
			for _, d := range dates {
				vevent := doc.AddEvent(fmt.Sprintf("%s-%s-%s@studyplan", subject.ID, kind, d))
				vevent.SetDtStampTime(stamp)
				vevent.SetStartAt(meeting.StartTime.On(d, s.cfg.Location))
				vevent.SetEndAt(meeting.EndTime.On(d, s.cfg.Location))
				vevent.SetSummary(fmt.Sprintf("%s (%s)", subject.Name, kind))
				if subject.Room != nil {
					vevent.SetLocation(*subject.Room)
				}
				if subject.Teacher != nil {
					vevent.SetDescription(*subject.Teacher)
				}
				count++
			}
		}
	}

	s.logger.Debug("ics rendered", zap.String("calendar_id", calendarID), zap.Int("class_events", count))
	return &ExportFile{
		Filename:    exportFilename(cal, FormatICS),
		ContentType: "text/calendar; charset=utf-8",
		Data:        []byte(doc.Serialize()),
	}, nil
}

// meetingDates enumerates the weekly candidates of m across the calendar span
// and keeps the ones whose teaching week satisfies its frequency.
func (s *ExportService) meetingDates(cal *models.AcademicCalendar, m models.RecurringMeeting) ([]models.Date, error) {
	first, last, ok := calendar.Span(cal)
	if !ok || len(m.Days) == 0 {
		return nil, nil
	}
	days := make([]string, 0, len(m.Days))
	for _, d := range m.Days {
		if code, ok := icsWeekdays[d]; ok {
			days = append(days, code)
		}
	}
	if len(days) == 0 {
		return nil, nil
	}
	rule, err := rrule.StrToRRule("FREQ=WEEKLY;BYDAY=" + strings.Join(days, ","))
	if err != nil {
		return nil, err
	}
	rule.DTStart(first.Time())

	var set rrule.Set
	set.RRule(rule)

	var out []models.Date
	for _, t := range set.Between(first.Time(), last.Time(), true) {
		d := models.DateOf(t)
		if calendar.MeetingOccursAt(m, d.Weekday(), calendar.ResolveCurrentPosition(cal, d)) {
			out = append(out, d)
		}
	}
	return out, nil
}

// Events renders the academic events of a calendar as CSV or PDF.
func (s *ExportService) Events(ctx context.Context, calendarID, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	var renderer tableRenderer
	switch format {
	case FormatCSV, "":
		format, renderer = FormatCSV, s.csv
	case FormatPDF:
		renderer = s.pdf
	default:
		return nil, appErrors.Invalid("unsupported export format %q", format)
	}
	if renderer == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "export format unavailable")
	}

	cal, err := s.calendars.Get(ctx, calendarID)
	if err != nil {
		return nil, err
	}
	data, err := renderer.Render(s.eventDataset(cal))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{Filename: exportFilename(cal, format), ContentType: renderer.ContentType(), Data: data}, nil
}

func (s *ExportService) eventDataset(cal *models.AcademicCalendar) export.Dataset {
	dataset := export.Dataset{
		Title:    s.cfg.Title,
		Subtitle: cal.DisplayName(),
		Headers:  []string{"Semester", "Type", "Name", "Start", "End", "Weeks", "Teaching weeks"},
	}
	for _, semID := range []models.SemesterID{models.Semester1, models.Semester2} {
		for _, ev := range calendar.SortedEvents(*cal.Semester(semID)) {
			teaching := ""
			if ev.TeachingWeekIndexStart != nil && ev.TeachingWeekIndexEnd != nil {
				teaching = fmt.Sprintf("%d-%d", *ev.TeachingWeekIndexStart, *ev.TeachingWeekIndexEnd)
			}
			dataset.Rows = append(dataset.Rows, map[string]string{
				"Semester":       semID.String(),
				"Type":           string(ev.Type),
				"Name":           eventLabel(ev),
				"Start":          ev.Start.String(),
				"End":            ev.End.String(),
				"Weeks":          fmt.Sprintf("%d", ev.Weeks),
				"Teaching weeks": teaching,
			})
		}
	}
	return dataset
}

// FeedLink signs a subscription URL for the calendar's ICS feed.
func (s *ExportService) FeedLink(ctx context.Context, calendarID string) (*FeedLink, error) {
	if s.signer == nil {
		return nil, appErrors.ErrFeedsDisabled
	}
	if _, err := s.calendars.Get(ctx, calendarID); err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(calendarID, FormatICS)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign feed link")
	}
	return &FeedLink{
		URL:       s.cfg.PublicBaseURL + s.cfg.APIPrefix + "/feeds/" + token,
		Token:     token,
		ExpiresAt: expiresAt.UTC(),
	}, nil
}

// Feed validates a signed token and renders the feed it grants.
func (s *ExportService) Feed(ctx context.Context, token string) (*ExportFile, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "calendar feeds are disabled")
	}
	calendarID, format, _, err := s.signer.Parse(strings.TrimSuffix(token, ".ics"))
	if err != nil || format != FormatICS {
		s.logger.Debug("rejected feed token", zap.Error(err))
		return nil, appErrors.Clone(appErrors.ErrNotFound, "feed link is invalid or expired")
	}
	return s.ICS(ctx, calendarID)
}

func eventLabel(ev models.AcademicEvent) string {
	if ev.CustomName != nil && *ev.CustomName != "" {
		return *ev.CustomName
	}
	if ev.Type == "" {
		return "Event"
	}
	label := strings.ToUpper(string(ev.Type[:1])) + string(ev.Type[1:])
	if ev.Type == models.EventTypeTeaching && ev.TeachingWeekIndexStart != nil && ev.TeachingWeekIndexEnd != nil {
		label = fmt.Sprintf("%s (weeks %d-%d)", label, *ev.TeachingWeekIndexStart, *ev.TeachingWeekIndexEnd)
	}
	return label
}

func exportFilename(cal *models.AcademicCalendar, format string) string {
	base := slugify(cal.DisplayName())
	if base == "" {
		base = "calendar"
	}
	return base + "." + format
}
