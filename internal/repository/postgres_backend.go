package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
)

const documentsSchema = `CREATE TABLE IF NOT EXISTS documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	payload JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (collection, id)
)`

// PostgresDocumentBackend stores records as JSONB rows in the documents table.
type PostgresDocumentBackend struct {
	db *sqlx.DB
}

// NewPostgresDocumentBackend constructs the backend.
func NewPostgresDocumentBackend(db *sqlx.DB) *PostgresDocumentBackend {
	return &PostgresDocumentBackend{db: db}
}

func (b *PostgresDocumentBackend) Name() string { return "postgres" }

// EnsureSchema creates the documents table when missing.
func (b *PostgresDocumentBackend) EnsureSchema(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, documentsSchema); err != nil {
		return fmt.Errorf("ensure documents schema: %w", err)
	}
	return nil
}

// Get fetches one payload.
func (b *PostgresDocumentBackend) Get(ctx context.Context, collection, id string) ([]byte, error) {
	const query = `SELECT payload FROM documents WHERE collection = $1 AND id = $2`
	var payload types.JSONText
	if err := b.db.GetContext(ctx, &payload, query, collection, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return []byte(payload), nil
}

// Put upserts a payload.
func (b *PostgresDocumentBackend) Put(ctx context.Context, collection, id string, payload []byte) error {
	const query = `INSERT INTO documents (collection, id, payload, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)
ON CONFLICT (collection, id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`
	if _, err := b.db.ExecContext(ctx, query, collection, id, types.JSONText(payload), time.Now().UTC()); err != nil {
		return fmt.Errorf("put document: %w", err)
	}
	return nil
}

// Delete removes a payload.
func (b *PostgresDocumentBackend) Delete(ctx context.Context, collection, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document rows: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// List returns every payload in the collection in creation order.
func (b *PostgresDocumentBackend) List(ctx context.Context, collection string) ([][]byte, error) {
	const query = `SELECT payload FROM documents WHERE collection = $1 ORDER BY created_at ASC, id ASC`
	var rows []types.JSONText
	if err := b.db.SelectContext(ctx, &rows, query, collection); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	out := make([][]byte, len(rows))
	for i, row := range rows {
		out[i] = []byte(row)
	}
	return out, nil
}
