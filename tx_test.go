package quarry

import (
	"context"
	stdsql "database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/dialect/sql"
)

func TestTxCommit(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM employees").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := c.Tx(ctx)
	require.NoError(t, err)
	_, err = c.Exec(NewTxContext(ctx, tx), sql.Delete(sql.Table("employees")))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	assert.ErrorIs(t, tx.Commit(), stdsql.ErrTxDone)
	assert.ErrorIs(t, tx.Rollback(), stdsql.ErrTxDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxCloseIdempotent(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err := c.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Close())
	require.NoError(t, tx.Close())
	require.NoError(t, mock.ExpectationsWereMet())

	// Close after Commit releases nothing twice.
	mock.ExpectBegin()
	mock.ExpectCommit()
	tx, err = c.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTxNestedStartFails(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectRollback()
	tx, err := c.Tx(ctx)
	require.NoError(t, err)
	defer tx.Close()

	txCtx := NewTxContext(ctx, tx)
	_, err = c.Tx(txCtx)
	assert.ErrorIs(t, err, ErrTxStarted)
	_, err = c.BeginTx(txCtx, &sql.TxOptions{ReadOnly: true})
	assert.ErrorIs(t, err, ErrTxStarted)
}

func TestWithTxCommitsOnNil(t *testing.T) {
	c, mock := newTestClient(t, "postgres")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM employees").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := c.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		_, err := c.Exec(ctx, sql.Delete(sql.Table("employees")))
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollsBackOnError(t *testing.T) {
	c, mock := newTestClient(t, "postgres")

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := c.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxRollbackFailure(t *testing.T) {
	c, mock := newTestClient(t, "postgres")

	rollbackErr := errors.New("connection lost")
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(rollbackErr)

	boom := errors.New("boom")
	err := c.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		return boom
	})
	var re *RollbackError
	require.ErrorAs(t, err, &re)
	assert.ErrorIs(t, re.Err, rollbackErr)
	assert.ErrorIs(t, re.Orig, boom)
}

func TestWithTxJoinsEnclosing(t *testing.T) {
	c, mock := newTestClient(t, "postgres")

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM employees").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var outer *Tx
	err := c.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		outer = tx
		return c.WithTx(ctx, func(ctx context.Context, inner *Tx) error {
			assert.Same(t, outer, inner)
			_, err := c.Exec(ctx, sql.Delete(sql.Table("employees")))
			return err
		})
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTxPanicRollsBack(t *testing.T) {
	c, mock := newTestClient(t, "postgres")

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.PanicsWithValue(t, "boom", func() {
		_ = c.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
			panic("boom")
		})
	})
	require.NoError(t, mock.ExpectationsWereMet())
}
