package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/studyplan-api/pkg/storage"
)

func backendsUnderTest(t *testing.T) map[string]DocumentBackend {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return map[string]DocumentBackend{
		"memory": NewMemoryDocumentBackend(),
		"file":   NewFileDocumentBackend(store),
		"redis":  NewRedisDocumentBackend(newFakeRedis(), "studyplan"),
	}
}

func TestDocumentBackendsRoundTrip(t *testing.T) {
	for name, backend := range backendsUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := backend.Get(ctx, "calendars", "cal-1")
			assert.ErrorIs(t, err, ErrRecordNotFound)

			require.NoError(t, backend.Put(ctx, "calendars", "cal-2", []byte(`{"id":"cal-2"}`)))
			require.NoError(t, backend.Put(ctx, "calendars", "cal-1", []byte(`{"id":"cal-1"}`)))
			require.NoError(t, backend.Put(ctx, "calendars", "cal-1", []byte(`{"id":"cal-1","v":2}`)))

			payload, err := backend.Get(ctx, "calendars", "cal-1")
			require.NoError(t, err)
			assert.JSONEq(t, `{"id":"cal-1","v":2}`, string(payload))

			list, err := backend.List(ctx, "calendars")
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.JSONEq(t, `{"id":"cal-1","v":2}`, string(list[0]))

			empty, err := backend.List(ctx, "subjects")
			require.NoError(t, err)
			assert.Empty(t, empty)

			require.NoError(t, backend.Delete(ctx, "calendars", "cal-1"))
			assert.ErrorIs(t, backend.Delete(ctx, "calendars", "cal-1"), ErrRecordNotFound)
		})
	}
}

func TestFileDocumentBackendRejectsPathIDs(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	backend := NewFileDocumentBackend(store)

	assert.Error(t, backend.Put(context.Background(), "calendars", "../escape", []byte(`{}`)))
	_, err = backend.Get(context.Background(), "calendars", "../escape")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

type recordingObserver struct {
	ops  []string
	errs []error
}

func (o *recordingObserver) ObserveStoreOp(backend, op string, _ time.Duration, err error) {
	o.ops = append(o.ops, backend+":"+op)
	o.errs = append(o.errs, err)
}

func TestInstrumentedBackendReportsOperations(t *testing.T) {
	observer := &recordingObserver{}
	backend := NewInstrumentedBackend(NewMemoryDocumentBackend(), observer)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, "calendars", "a", []byte(`{}`)))
	_, err := backend.Get(ctx, "calendars", "missing")
	require.True(t, errors.Is(err, ErrRecordNotFound))
	_, err = backend.List(ctx, "calendars")
	require.NoError(t, err)

	assert.Equal(t, []string{"memory:put", "memory:get", "memory:list"}, observer.ops)
	assert.Equal(t, []error{nil, nil, nil}, observer.errs)
}
