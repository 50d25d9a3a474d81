// internal/common/storage/postgres_test.go
package storage

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockPostgres(t *testing.T) (*PostgresBackend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	backend, err := NewPostgresWithDB(db, "client_storage")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return backend, mock
}

func TestPostgresBackend_Get(t *testing.T) {
	backend, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM client_storage WHERE key = $1`)).
		WithArgs("stock-filters").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(`{"data":{},"timestamp":1}`))

	got, err := backend.Get(ctx, "stock-filters")
	require.NoError(t, err)
	assert.Equal(t, `{"data":{},"timestamp":1}`, string(got))

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM client_storage WHERE key = $1`)).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err = backend.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_SetDelete(t *testing.T) {
	backend, mock := newMockPostgres(t)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO client_storage (key, value, updated_at) VALUES ($1, $2, NOW()) ON CONFLICT (key) DO UPDATE`)).
		WithArgs("cols", `["brand"]`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, backend.Set(ctx, "cols", []byte(`["brand"]`)))

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM client_storage WHERE key = $1`)).
		WithArgs("cols").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, backend.Delete(ctx, "cols"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresBackend_EnsureSchema(t *testing.T) {
	backend, mock := newMockPostgres(t)

	mock.ExpectExec(regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS client_storage`)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, backend.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresWithDB_RejectsBadTableName(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = NewPostgresWithDB(db, "client_storage; DROP TABLE users")
	assert.Error(t, err)
}
