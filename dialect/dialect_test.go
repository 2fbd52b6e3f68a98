package dialect

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordDriver struct {
	execs   []string
	queries []string
	txs     int
}

func (d *recordDriver) Exec(_ context.Context, query string, _, _ any) error {
	d.execs = append(d.execs, query)
	return nil
}

func (d *recordDriver) Query(_ context.Context, query string, _, _ any) error {
	d.queries = append(d.queries, query)
	return nil
}

func (d *recordDriver) Tx(context.Context) (Tx, error) {
	d.txs++
	return NopTx(d), nil
}

func (d *recordDriver) Close() error    { return nil }
func (d *recordDriver) Dialect() string { return Postgres }

func debugLogger(level slog.Level) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	h := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: level})
	return SlogLogger(slog.New(h)), &buf
}

func TestDebugDriverLogs(t *testing.T) {
	log, buf := debugLogger(slog.LevelDebug)
	under := &recordDriver{}
	drv := Debug(under, log)
	ctx := context.Background()

	require.NoError(t, drv.Exec(ctx, "UPDATE users SET x = 1", []any{}, nil))
	require.NoError(t, drv.Query(ctx, "SELECT 1", []any{}, nil))
	tx, err := drv.Tx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Exec(ctx, "INSERT INTO users DEFAULT VALUES", []any{}, nil))
	require.NoError(t, tx.Commit())

	assert.Equal(t, []string{"UPDATE users SET x = 1", "INSERT INTO users DEFAULT VALUES"}, under.execs)
	assert.Equal(t, []string{"SELECT 1"}, under.queries)
	assert.Equal(t, 1, under.txs)

	out := buf.String()
	assert.Contains(t, out, "driver.Exec")
	assert.Contains(t, out, `query="UPDATE users SET x = 1"`)
	assert.Contains(t, out, "driver.Query")
	assert.Contains(t, out, "driver.Tx started")
	assert.Contains(t, out, "tx.Exec")
	assert.Contains(t, out, "tx.Commit")
}

func TestDebugDriverLevelGate(t *testing.T) {
	log, buf := debugLogger(slog.LevelInfo)
	under := &recordDriver{}
	drv := Debug(under, log)

	require.NoError(t, drv.Exec(context.Background(), "UPDATE users SET x = 1", []any{}, nil))
	assert.Equal(t, []string{"UPDATE users SET x = 1"}, under.execs)
	assert.NotContains(t, buf.String(), "driver.Exec")
}

func TestDebugTxRollback(t *testing.T) {
	log, buf := debugLogger(slog.LevelDebug)
	drv := Debug(&recordDriver{}, log)

	tx, err := drv.Tx(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())
	assert.Contains(t, buf.String(), "tx.Rollback")
}

func TestNopTx(t *testing.T) {
	under := &recordDriver{}
	tx := NopTx(under)
	require.NoError(t, tx.Exec(context.Background(), "UPDATE users SET x = 1", []any{}, nil))
	assert.Equal(t, []string{"UPDATE users SET x = 1"}, under.execs)
	require.NoError(t, tx.Commit())
	require.NoError(t, tx.Rollback())
}
