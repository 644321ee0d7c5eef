package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openScanDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(2)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE locks (id INTEGER PRIMARY KEY, scan_count INTEGER NOT NULL DEFAULT 0)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO locks (id) VALUES (1)`)
	require.NoError(t, err)
	return db
}

func scanCount(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT scan_count FROM locks WHERE id = 1`).Scan(&n))
	return n
}

func bump(ctx context.Context, tx DBTX) error {
	_, err := tx.ExecContext(ctx, `UPDATE locks SET scan_count = scan_count + 1 WHERE id = 1`)
	return err
}

func TestWithTx_Commit(t *testing.T) {
	db := openScanDB(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, WithTx(context.Background(), db, nil, bump))
	}
	assert.Equal(t, 3, scanCount(t, db))
}

func TestWithTx_ReadThenWriteSeesOwnWrites(t *testing.T) {
	db := openScanDB(t)

	var before, after int
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if err := tx.QueryRowContext(ctx, `SELECT scan_count FROM locks WHERE id = 1`).Scan(&before); err != nil {
			return err
		}
		if err := bump(ctx, tx); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx, `SELECT scan_count FROM locks WHERE id = 1`).Scan(&after)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, before)
	assert.Equal(t, 1, after)
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db := openScanDB(t)
	errNotify := errors.New("notify failed")

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		require.NoError(t, bump(ctx, tx))
		return errNotify
	})
	require.ErrorIs(t, err, errNotify)
	assert.Equal(t, 0, scanCount(t, db))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := openScanDB(t)

	assert.PanicsWithValue(t, "tracker broke", func() {
		_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
			require.NoError(t, bump(ctx, tx))
			panic("tracker broke")
		})
	})
	assert.Equal(t, 0, scanCount(t, db))
}

func TestWithTx_BeginFails(t *testing.T) {
	db := openScanDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	require.Error(t, err)
	assert.False(t, called)
}
