package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Collections stored by the document backends.
const (
	CollectionCalendars = "calendars"
	CollectionSubjects  = "subjects"
)

var (
	// ErrRecordNotFound is returned when no record exists for the id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrCorruptRecord is returned when a stored payload cannot be decoded.
	ErrCorruptRecord = errors.New("corrupt record")
)

// DocumentBackend stores serialized JSON records keyed by collection and id.
// Postgres, Redis, local files and process memory all implement it, so the
// calendar and subject repositories stay identical whichever is configured.
type DocumentBackend interface {
	Name() string
	Get(ctx context.Context, collection, id string) ([]byte, error)
	Put(ctx context.Context, collection, id string, payload []byte) error
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string) ([][]byte, error)
}

// StoreObserver receives timing for every backend operation.
type StoreObserver interface {
	ObserveStoreOp(backend, op string, duration time.Duration, err error)
}

// InstrumentedBackend reports backend latencies to an observer.
type InstrumentedBackend struct {
	next     DocumentBackend
	observer StoreObserver
}

// NewInstrumentedBackend wraps next; a nil observer returns next unchanged.
func NewInstrumentedBackend(next DocumentBackend, observer StoreObserver) DocumentBackend {
	if observer == nil {
		return next
	}
	return &InstrumentedBackend{next: next, observer: observer}
}

func (b *InstrumentedBackend) Name() string { return b.next.Name() }

func (b *InstrumentedBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	start := time.Now()
	payload, err := b.next.Get(ctx, collection, id)
	b.observer.ObserveStoreOp(b.next.Name(), "get", time.Since(start), ignoreNotFound(err))
	return payload, err
}

func (b *InstrumentedBackend) Put(ctx context.Context, collection, id string, payload []byte) error {
	start := time.Now()
	err := b.next.Put(ctx, collection, id, payload)
	b.observer.ObserveStoreOp(b.next.Name(), "put", time.Since(start), err)
	return err
}

func (b *InstrumentedBackend) Delete(ctx context.Context, collection, id string) error {
	start := time.Now()
	err := b.next.Delete(ctx, collection, id)
	b.observer.ObserveStoreOp(b.next.Name(), "delete", time.Since(start), ignoreNotFound(err))
	return err
}

func (b *InstrumentedBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	start := time.Now()
	payloads, err := b.next.List(ctx, collection)
	b.observer.ObserveStoreOp(b.next.Name(), "list", time.Since(start), err)
	return payloads, err
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrRecordNotFound) {
		return nil
	}
	return err
}

// documentRepository is the typed JSON codec shared by the domain repositories.
type documentRepository[T any] struct {
	backend    DocumentBackend
	collection string
}

func (r documentRepository[T]) get(ctx context.Context, id string) (*T, error) {
	payload, err := r.backend.Get(ctx, r.collection, id)
	if err != nil {
		return nil, err
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w: %v", r.collection, id, ErrCorruptRecord, err)
	}
	return &out, nil
}

func (r documentRepository[T]) put(ctx context.Context, id string, value *T) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", r.collection, id, err)
	}
	if err := r.backend.Put(ctx, r.collection, id, payload); err != nil {
		return fmt.Errorf("store %s/%s: %w", r.collection, id, err)
	}
	return nil
}

// list decodes every record, skipping and counting corrupt ones.
func (r documentRepository[T]) list(ctx context.Context) ([]T, int, error) {
	payloads, err := r.backend.List(ctx, r.collection)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", r.collection, err)
	}
	out := make([]T, 0, len(payloads))
	skipped := 0
	for _, payload := range payloads {
		var item T
		if err := json.Unmarshal(payload, &item); err != nil {
			skipped++
			continue
		}
		out = append(out, item)
	}
	return out, skipped, nil
}

func (r documentRepository[T]) delete(ctx context.Context, id string) error {
	return r.backend.Delete(ctx, r.collection, id)
}
