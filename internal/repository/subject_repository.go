package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// SubjectRepository persists subjects as JSON documents.
type SubjectRepository struct {
	docs documentRepository[models.Subject]
}

// NewSubjectRepository constructs a subject repository.
func NewSubjectRepository(backend DocumentBackend) *SubjectRepository {
	return &SubjectRepository{docs: documentRepository[models.Subject]{backend: backend, collection: CollectionSubjects}}
}

// List returns subjects matching the filter ordered by name, plus the number of corrupt records skipped.
func (r *SubjectRepository) List(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, int, error) {
	items, skipped, err := r.docs.list(ctx)
	if err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.Subject, 0, len(items))
	for _, item := range items {
		if filter.CalendarID != "" && item.CalendarID != filter.CalendarID {
			continue
		}
		if search != "" && !matchesSubject(item, search) {
			continue
		}
		out = append(out, item)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !strings.EqualFold(out[i].Name, out[j].Name) {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return out[i].ID < out[j].ID
	})
	return out, skipped, nil
}

func matchesSubject(s models.Subject, search string) bool {
	if strings.Contains(strings.ToLower(s.Name), search) {
		return true
	}
	return s.Code != nil && strings.Contains(strings.ToLower(*s.Code), search)
}

// FindByID returns a subject by id.
func (r *SubjectRepository) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	return r.docs.get(ctx, id)
}

// Create stores a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		subject.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	subject.CreatedAt = now
	subject.UpdatedAt = now
	return r.docs.put(ctx, subject.ID, subject)
}

// Update overwrites an existing subject.
func (r *SubjectRepository) Update(ctx context.Context, subject *models.Subject) error {
	if subject.ID == "" {
		return fmt.Errorf("update subject: missing id")
	}
	if _, err := r.docs.backend.Get(ctx, r.docs.collection, subject.ID); err != nil {
		return err
	}
	subject.UpdatedAt = time.Now().UTC()
	return r.docs.put(ctx, subject.ID, subject)
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id string) error {
	return r.docs.delete(ctx, id)
}

// DeleteByCalendar removes every subject attached to calendarID and reports how many went.
func (r *SubjectRepository) DeleteByCalendar(ctx context.Context, calendarID string) (int, error) {
	items, _, err := r.List(ctx, models.SubjectFilter{CalendarID: calendarID})
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, item := range items {
		if err := r.docs.delete(ctx, item.ID); err != nil {
			if errors.Is(err, ErrRecordNotFound) {
				continue
			}
			return removed, fmt.Errorf("delete subject %s: %w", item.ID, err)
		}
		removed++
	}
	return removed, nil
}
