package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDocumentsMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestPostgresDocumentBackendGet(t *testing.T) {
	db, mock, cleanup := newDocumentsMock(t)
	defer cleanup()
	backend := NewPostgresDocumentBackend(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("calendars", "cal-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow([]byte(`{"id":"cal-1"}`)))

	payload, err := backend.Get(context.Background(), "calendars", "cal-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"cal-1"}`, string(payload))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("calendars", "missing").
		WillReturnError(sql.ErrNoRows)

	_, err = backend.Get(context.Background(), "calendars", "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentBackendPutUpserts(t *testing.T) {
	db, mock, cleanup := newDocumentsMock(t)
	defer cleanup()
	backend := NewPostgresDocumentBackend(db)

	mock.ExpectExec("INSERT INTO documents").
		WithArgs("subjects", "sub-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, backend.Put(context.Background(), "subjects", "sub-1", []byte(`{"id":"sub-1"}`)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentBackendDelete(t *testing.T) {
	db, mock, cleanup := newDocumentsMock(t)
	defer cleanup()
	backend := NewPostgresDocumentBackend(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("calendars", "cal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE collection = $1 AND id = $2")).
		WithArgs("calendars", "cal-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, backend.Delete(context.Background(), "calendars", "cal-1"))
	assert.ErrorIs(t, backend.Delete(context.Background(), "calendars", "cal-2"), ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentBackendList(t *testing.T) {
	db, mock, cleanup := newDocumentsMock(t)
	defer cleanup()
	backend := NewPostgresDocumentBackend(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM documents WHERE collection = $1 ORDER BY created_at ASC, id ASC")).
		WithArgs("calendars").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).
			AddRow([]byte(`{"id":"a"}`)).
			AddRow([]byte(`{"id":"b"}`)))

	payloads, err := backend.List(context.Background(), "calendars")
	require.NoError(t, err)
	require.Len(t, payloads, 2)
	assert.JSONEq(t, `{"id":"b"}`, string(payloads[1]))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDocumentBackendEnsureSchema(t *testing.T) {
	db, mock, cleanup := newDocumentsMock(t)
	defer cleanup()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, NewPostgresDocumentBackend(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
