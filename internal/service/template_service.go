package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/studyplan-api/internal/models"
	appErrors "github.com/noah-isme/studyplan-api/pkg/errors"
)

var builtinTemplates = []models.CalendarTemplate{
	{
		UniversityName: "Universitatea Babeș-Bolyai",
		AcademicYear:   "2025-2026",
		Semester1Start: "2025-09-29",
		Semester1End:   "2026-01-18",
		Semester2Start: "2026-02-23",
		Semester2End:   "2026-06-07",
	},
	{
		UniversityName: "Universitatea Politehnica din București",
		AcademicYear:   "2025-2026",
		Semester1Start: "2025-09-29",
		Semester1End:   "2026-01-16",
		Semester2Start: "2026-02-16",
		Semester2End:   "2026-06-05",
	},
}

type templateFile struct {
	Templates []models.CalendarTemplate `yaml:"templates"`
}

// TemplateServiceConfig tunes where templates come from.
type TemplateServiceConfig struct {
	File         string
	RemoteURL    string
	FetchTimeout time.Duration
	RemoteTTL    time.Duration
	RetryAfter   time.Duration
	HTTPClient   *http.Client
}

// TemplateService merges built-in templates, a local YAML catalog and an optional remote JSON catalog.
// Later sources override earlier ones with the same key.
type TemplateService struct {
	cfg    TemplateServiceConfig
	client *http.Client
	logger *zap.Logger

	mu        sync.Mutex
	remote    []models.CalendarTemplate
	fetchedAt time.Time
	failedAt  time.Time
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(cfg TemplateServiceConfig, logger *zap.Logger) *TemplateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 5 * time.Second
	}
	if cfg.RemoteTTL <= 0 {
		cfg.RemoteTTL = time.Hour
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = time.Minute
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.FetchTimeout}
	}
	cfg.RemoteURL = strings.TrimSpace(cfg.RemoteURL)
	return &TemplateService{cfg: cfg, client: client, logger: logger}
}

// List returns every known template ordered by university then academic year.
func (s *TemplateService) List(ctx context.Context) ([]models.CalendarTemplate, error) {
	merged := make(map[string]models.CalendarTemplate)
	add := func(items []models.CalendarTemplate) {
		for _, t := range items {
			t = withKey(t)
			merged[t.Key] = t
		}
	}

	add(builtinTemplates)

	local, err := s.loadFile()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read template catalog")
	}
	add(local)
	add(s.remoteTemplates(ctx))

	out := make([]models.CalendarTemplate, 0, len(merged))
	for _, t := range merged {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UniversityName != out[j].UniversityName {
			return out[i].UniversityName < out[j].UniversityName
		}
		return out[i].AcademicYear > out[j].AcademicYear
	})
	return out, nil
}

// Find returns the template with the given key.
func (s *TemplateService) Find(ctx context.Context, key string) (*models.CalendarTemplate, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	key = strings.ToLower(strings.TrimSpace(key))
	for i := range items {
		if items[i].Key == key {
			return &items[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "template not found")
}

func (s *TemplateService) loadFile() ([]models.CalendarTemplate, error) {
	if s.cfg.File == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.cfg.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.cfg.File, err)
	}
	return file.Templates, nil
}

// remoteTemplates serves the last good remote catalog, refreshing it once the TTL passes.
// Fetch failures are logged and never fail the listing; after one, the remote
// catalog is not asked again until RetryAfter has passed.
func (s *TemplateService) remoteTemplates(ctx context.Context) []models.CalendarTemplate {
	if s.cfg.RemoteURL == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.cfg.RemoteTTL {
		return s.remote
	}
	if !s.failedAt.IsZero() && time.Since(s.failedAt) < s.cfg.RetryAfter {
		return s.remote
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
	defer cancel()
	items, err := s.fetchRemote(fetchCtx)
	if err != nil {
		s.failedAt = time.Now()
		s.logger.Warn("remote template catalog unavailable",
			zap.String("url", s.cfg.RemoteURL),
			zap.Duration("retry_after", s.cfg.RetryAfter),
			zap.Error(err))
		return s.remote
	}
	s.remote = items
	s.fetchedAt = time.Now()
	s.failedAt = time.Time{}
	s.logger.Info("remote template catalog refreshed", zap.Int("count", len(items)))
	return s.remote
}

func (s *TemplateService) fetchRemote(ctx context.Context) ([]models.CalendarTemplate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.RemoteURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("template catalog unexpected status: %d", resp.StatusCode)
	}

	var body struct {
		Templates []models.CalendarTemplate `json:"templates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode template catalog: %w", err)
	}
	return body.Templates, nil
}

func withKey(t models.CalendarTemplate) models.CalendarTemplate {
	if strings.TrimSpace(t.Key) == "" {
		t.Key = TemplateKey(t.UniversityName, t.AcademicYear)
	} else {
		t.Key = strings.ToLower(strings.TrimSpace(t.Key))
	}
	return t
}

// TemplateKey derives the catalog key: slug(university) + "-" + academic year.
func TemplateKey(university, academicYear string) string {
	slug := slugify(university)
	year := strings.TrimSpace(academicYear)
	if slug == "" {
		return year
	}
	return slug + "-" + year
}

func slugify(value string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), value)
	if err != nil {
		folded = value
	}
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}
