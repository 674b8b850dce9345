package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisDocumentBackend keeps each collection in a Redis hash keyed by record id.
type RedisDocumentBackend struct {
	client redis.Cmdable
	prefix string
}

// NewRedisDocumentBackend constructs the backend. Keys take the form <prefix>:<collection>.
func NewRedisDocumentBackend(client redis.Cmdable, prefix string) *RedisDocumentBackend {
	if prefix == "" {
		prefix = "studyplan"
	}
	return &RedisDocumentBackend{client: client, prefix: prefix}
}

func (b *RedisDocumentBackend) Name() string { return "redis" }

func (b *RedisDocumentBackend) key(collection string) string {
	return b.prefix + ":" + collection
}

// Get fetches one payload.
func (b *RedisDocumentBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	raw, err := b.client.HGet(ctx, b.key(collection), id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("redis hget %s: %w", collection, err)
	}
	return raw, nil
}

// Put stores a payload.
func (b *RedisDocumentBackend) Put(ctx context.Context, collection, id string, payload []byte) error {
	if err := b.client.HSet(ctx, b.key(collection), id, payload).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", collection, err)
	}
	return nil
}

// Delete removes a payload.
func (b *RedisDocumentBackend) Delete(ctx context.Context, collection, id string) error {
	removed, err := b.client.HDel(ctx, b.key(collection), id).Result()
	if err != nil {
		return fmt.Errorf("redis hdel %s: %w", collection, err)
	}
	if removed == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List returns every payload in the collection ordered by id.
func (b *RedisDocumentBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	entries, err := b.client.HGetAll(ctx, b.key(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", collection, err)
	}
	ids := make([]string, 0, len(entries))
	for id := range entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([][]byte, 0, len(ids))
	for _, id := range ids {
		out = append(out, []byte(entries[id]))
	}
	return out, nil
}
