package duckdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"HMDARiskPump/internal/models"
)

func openMemory(t *testing.T) *Client {
	t.Helper()
	c, err := Open(context.Background(), "", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestQueryPreviewAndTotal(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()

	rs, err := c.Query(ctx, "SELECT i AS n, 'x' || i::VARCHAR AS label FROM range(120) t(i)", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "label"}, rs.Columns)
	assert.Equal(t, 120, rs.Total)
	assert.Len(t, rs.Rows, 50)
	assert.Equal(t, "x0", rs.Rows[0][1])
}

func TestExecCountAndQueryInt(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()

	require.NoError(t, c.Exec(ctx, "CREATE TABLE t (a INTEGER, b VARCHAR)"))
	n, err := c.ExecCount(ctx, "INSERT INTO t VALUES (1, 'a'), (2, NULL), (3, 'c')")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	cnt, err := c.QueryInt(ctx, "SELECT COUNT(*) FROM t")
	require.NoError(t, err)
	assert.EqualValues(t, 3, cnt)

	cols, err := c.Columns(ctx, "t")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, cols)
}

func TestStream(t *testing.T) {
	c := openMemory(t)
	ctx := context.Background()
	require.NoError(t, c.Exec(ctx, "CREATE TABLE t AS SELECT * FROM (VALUES ('1', 'a'), ('2', NULL)) v(a, b)"))

	var got []models.Row
	err := c.Stream(ctx, "SELECT a, b FROM t ORDER BY a", func(r models.Row) error {
		got = append(got, r)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", *got[0][1])
	assert.Nil(t, got[1][1])

	stop := errors.New("stop")
	err = c.Stream(ctx, "SELECT a FROM t", func(models.Row) error { return stop })
	assert.ErrorIs(t, err, stop)
}

func TestSessionStateSurvives(t *testing.T) {
	// временное представление должно быть видно следующему запросу
	c := openMemory(t)
	ctx := context.Background()
	require.NoError(t, c.Exec(ctx, "CREATE TEMP VIEW v AS SELECT 42 AS answer"))
	n, err := c.QueryInt(ctx, "SELECT answer FROM v")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hmda.duckdb")
	c, err := Open(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Exec(context.Background(), "CREATE TABLE t (a INT)"))
	require.NoError(t, c.Close())
	assert.FileExists(t, path)
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, `"loan ""apps"""`, QuoteIdent(`loan "apps"`))
	assert.Equal(t, `'D:/it''s/data.csv'`, QuoteLiteral("D:/it's/data.csv"))
	assert.Equal(t, `"hmda"."loan_applications"`, Qualified("hmda", "loan_applications"))
}
