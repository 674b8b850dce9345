package repository

import (
	"context"
	"sort"
	"sync"
)

// MemoryDocumentBackend keeps records in process memory. Used by tests and ephemeral deployments.
type MemoryDocumentBackend struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// NewMemoryDocumentBackend constructs an empty backend.
func NewMemoryDocumentBackend() *MemoryDocumentBackend {
	return &MemoryDocumentBackend{data: make(map[string]map[string][]byte)}
}

func (b *MemoryDocumentBackend) Name() string { return "memory" }

func (b *MemoryDocumentBackend) Get(_ context.Context, collection, id string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	payload, ok := b.data[collection][id]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), payload...), nil
}

func (b *MemoryDocumentBackend) Put(_ context.Context, collection, id string, payload []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	records, ok := b.data[collection]
	if !ok {
		records = make(map[string][]byte)
		b.data[collection] = records
	}
	records[id] = append([]byte(nil), payload...)
	return nil
}

func (b *MemoryDocumentBackend) Delete(_ context.Context, collection, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.data[collection][id]; !ok {
		return ErrRecordNotFound
	}
	delete(b.data[collection], id)
	return nil
}

func (b *MemoryDocumentBackend) List(_ context.Context, collection string) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	records := b.data[collection]
	ids := make([]string, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, append([]byte(nil), records[id]...))
	}
	return out, nil
}
