package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Rebind(t *testing.T) {
	q := "UPDATE properties SET name = ?, contact = ? WHERE id = ? AND owner_id = ?"

	assert.Equal(t, q, DialectSQLite.Rebind(q))
	assert.Equal(t,
		"UPDATE properties SET name = $1, contact = $2 WHERE id = $3 AND owner_id = $4",
		DialectPostgres.Rebind(q))
	assert.Equal(t, "SELECT 1", DialectPostgres.Rebind("SELECT 1"))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("pgx")
	require.NoError(t, err)
	assert.Equal(t, DialectPostgres, d)

	_, err = ParseDialect("mysql")
	assert.Error(t, err)
}

func TestSqliteDSN(t *testing.T) {
	assert.Equal(t, ":memory:?_foreign_keys=1", sqliteDSN(":memory:"))
	assert.Equal(t, "file:x.db?cache=shared&_foreign_keys=1", sqliteDSN("file:x.db?cache=shared"))
	assert.Equal(t, "x.db?_fk=1", sqliteDSN("x.db?_fk=1"))
}

func TestUniqueViolation_Postgres(t *testing.T) {
	err := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_lower_idx"})

	name, ok := UniqueViolation(err)
	require.True(t, ok)
	assert.Equal(t, "users_username_lower_idx", name)

	_, ok = UniqueViolation(&pgconn.PgError{Code: "23503"})
	assert.False(t, ok)
	_, ok = UniqueViolation(errors.New("boom"))
	assert.False(t, ok)
}

func TestUniqueViolation_SQLite(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	n, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	insert := `INSERT INTO users (id, username, password_hash, role) VALUES (?, ?, 'h', 'owner')`
	_, err = db.ExecContext(ctx, insert, "u1", "Alice")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "u2", "alice")
	require.Error(t, err)

	name, ok := UniqueViolation(err)
	require.True(t, ok)
	assert.Contains(t, name, "users_username_lower_idx")
}

func TestMigrate_Idempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Connect(ctx, DialectSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = Migrate(ctx, db)
	require.NoError(t, err)
	n, err := Migrate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, n)

	// the additive column exists
	_, err = db.ExecContext(ctx, `SELECT neighborhood FROM properties`)
	assert.NoError(t, err)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM properties WHERE owner_id = ?")).
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, "DELETE FROM properties WHERE owner_id = ?", "u1")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM properties WHERE owner_id = ?")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectRollback()

	boom := errors.New("boom")
	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM properties WHERE owner_id = ?", "u1"); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	require.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			panic("kaput")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no connection"))

	called := false
	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}
