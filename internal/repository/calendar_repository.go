package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/noah-isme/studyplan-api/internal/models"
)

// CalendarRepository persists academic calendars as JSON documents.
type CalendarRepository struct {
	docs documentRepository[models.AcademicCalendar]
}

// NewCalendarRepository constructs a calendar repository.
func NewCalendarRepository(backend DocumentBackend) *CalendarRepository {
	return &CalendarRepository{docs: documentRepository[models.AcademicCalendar]{backend: backend, collection: CollectionCalendars}}
}

// FindByID returns a calendar by id.
func (r *CalendarRepository) FindByID(ctx context.Context, id string) (*models.AcademicCalendar, error) {
	return r.docs.get(ctx, id)
}

// List returns all decodable calendars ordered by academic year and the
// number of corrupt records that were skipped.
func (r *CalendarRepository) List(ctx context.Context) ([]models.AcademicCalendar, int, error) {
	items, skipped, err := r.docs.list(ctx)
	if err != nil {
		return nil, 0, err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].AcademicYear != items[j].AcademicYear {
			return items[i].AcademicYear > items[j].AcademicYear
		}
		return items[i].ID < items[j].ID
	})
	return items, skipped, nil
}

// Create assigns an id when missing and stores the calendar.
func (r *CalendarRepository) Create(ctx context.Context, cal *models.AcademicCalendar) error {
	if cal.ID == "" {
		cal.ID = uuid.NewString()
	}
	return r.docs.put(ctx, cal.ID, cal)
}

// Update overwrites an existing calendar.
func (r *CalendarRepository) Update(ctx context.Context, cal *models.AcademicCalendar) error {
	if cal.ID == "" {
		return fmt.Errorf("update calendar: missing id")
	}
	if _, err := r.docs.backend.Get(ctx, r.docs.collection, cal.ID); err != nil {
		return err
	}
	return r.docs.put(ctx, cal.ID, cal)
}

// Delete removes a calendar.
func (r *CalendarRepository) Delete(ctx context.Context, id string) error {
	return r.docs.delete(ctx, id)
}
