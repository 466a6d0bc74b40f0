package dbx

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/magneto-ui.net/internal/adapter/logging"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	raw, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = raw.Close() })
	return sqlx.NewDb(raw, "postgres"), mock
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	db, mock := newMock(t)
	tr := NewTransactor(db, logging.NewZapLoggerWithLevel("error"))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM tests").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		_, err := Conn(ctx, db).ExecContext(ctx, "DELETE FROM tests")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	db, mock := newMock(t)
	tr := NewTransactor(db, logging.NewZapLoggerWithLevel("error"))
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tr.WithinTx(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTx_NestedCallJoinsOuterTx(t *testing.T) {
	db, mock := newMock(t)
	tr := NewTransactor(db, logging.NewZapLoggerWithLevel("error"))

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tr.WithinTx(context.Background(), func(outer context.Context) error {
		return tr.WithinTx(outer, func(inner context.Context) error {
			assert.Same(t, Conn(outer, db), Conn(inner, db))
			return nil
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_WithoutTxReturnsDB(t *testing.T) {
	db, _ := newMock(t)
	assert.Same(t, db, Conn(context.Background(), db))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
			panic("kaput")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_BeginError(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx *sqlx.Tx) error {
		return nil
	})
	assert.Error(t, err)
}

func TestUUIDArray(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	v, err := UUIDArray([]uuid.UUID{a, b}).(driver.Valuer).Value()
	require.NoError(t, err)
	assert.Equal(t, `{"00000000-0000-0000-0000-000000000001","00000000-0000-0000-0000-000000000002"}`, v)
}
