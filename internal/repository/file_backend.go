package repository

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/noah-isme/studyplan-api/pkg/storage"
)

const documentSuffix = ".json"

// FileDocumentBackend writes one JSON file per record under <dir>/<collection>/<id>.json.
type FileDocumentBackend struct {
	store *storage.LocalStorage
	mu    sync.RWMutex
}

// NewFileDocumentBackend constructs the backend on top of local storage.
func NewFileDocumentBackend(store *storage.LocalStorage) *FileDocumentBackend {
	return &FileDocumentBackend{store: store}
}

func (b *FileDocumentBackend) Name() string { return "file" }

func documentPath(collection, id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." || strings.HasPrefix(id, ".") {
		return "", fmt.Errorf("invalid record id %q", id)
	}
	return path.Join(collection, id+documentSuffix), nil
}

// Get reads one payload.
func (b *FileDocumentBackend) Get(_ context.Context, collection, id string) ([]byte, error) {
	name, err := documentPath(collection, id)
	if err != nil {
		return nil, ErrRecordNotFound
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, err := b.store.Read(name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return data, nil
}

// Put atomically replaces the file for the record.
func (b *FileDocumentBackend) Put(_ context.Context, collection, id string, payload []byte) error {
	name, err := documentPath(collection, id)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	_, err = b.store.Save(name, payload)
	return err
}

// Delete removes the file for the record.
func (b *FileDocumentBackend) Delete(_ context.Context, collection, id string) error {
	name, err := documentPath(collection, id)
	if err != nil {
		return ErrRecordNotFound
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := b.store.Read(name); err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return ErrRecordNotFound
		}
		return err
	}
	return b.store.Delete(name)
}

// List reads every record file of the collection ordered by file name.
func (b *FileDocumentBackend) List(_ context.Context, collection string) ([][]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	names, err := b.store.List(collection, documentSuffix)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, 0, len(names))
	for _, name := range names {
		data, err := b.store.Read(path.Join(collection, name))
		if err != nil {
			if errors.Is(err, storage.ErrNotExist) {
				continue
			}
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}
