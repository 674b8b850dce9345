package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/internal/models"
)

func TestCalendarRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewCalendarRepository(NewMemoryDocumentBackend())

	cal := &models.AcademicCalendar{AcademicYear: "2025-2026"}
	cal.Semester1.Events = []models.AcademicEvent{{
		ID:                     "ev-1",
		Start:                  models.MustParseDate("2025-09-15"),
		End:                    models.MustParseDate("2025-12-20"),
		Type:                   models.EventTypeTeaching,
		Weeks:                  14,
		TeachingWeekIndexStart: models.IntPtr(1),
		TeachingWeekIndexEnd:   models.IntPtr(14),
	}}
	require.NoError(t, repo.Create(ctx, cal))
	require.NotEmpty(t, cal.ID)

	stored, err := repo.FindByID(ctx, cal.ID)
	require.NoError(t, err)
	assert.Equal(t, cal.Semester1.Events, stored.Semester1.Events)

	stored.CustomName = models.StringPtr("Autumn plan")
	require.NoError(t, repo.Update(ctx, stored))

	missing := &models.AcademicCalendar{ID: "nope"}
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrRecordNotFound)

	require.NoError(t, repo.Create(ctx, &models.AcademicCalendar{ID: "older", AcademicYear: "2024-2025"}))
	list, skipped, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, list, 2)
	assert.Equal(t, "2025-2026", list[0].AcademicYear)
	assert.Equal(t, "Autumn plan", *list[0].CustomName)

	require.NoError(t, repo.Delete(ctx, cal.ID))
	_, err = repo.FindByID(ctx, cal.ID)
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestCalendarRepositoryCorruptRecords(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryDocumentBackend()
	repo := NewCalendarRepository(backend)

	require.NoError(t, backend.Put(ctx, CollectionCalendars, "broken", []byte(`{"semester_1":`)))
	require.NoError(t, backend.Put(ctx, CollectionCalendars, "bad-type", []byte(`{"id":"bad-type","semester_1":{"events":[{"type":"party"}]}}`)))
	require.NoError(t, repo.Create(ctx, &models.AcademicCalendar{ID: "ok", AcademicYear: "2025-2026"}))

	_, err := repo.FindByID(ctx, "broken")
	assert.ErrorIs(t, err, ErrCorruptRecord)

	list, skipped, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].ID)
}

func TestCalendarRepositoryAssignsIDToLegacyRecords(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryDocumentBackend()
	require.NoError(t, backend.Put(ctx, CollectionCalendars, "legacy", []byte(`{"academic_year":"2023-2024","semester_1":{"events":[]},"semester_2":{"events":[]}}`)))

	cal, err := NewCalendarRepository(backend).FindByID(ctx, "legacy")
	require.NoError(t, err)
	assert.NotEmpty(t, cal.ID)
	assert.Equal(t, "2023-2024", cal.AcademicYear)
}
