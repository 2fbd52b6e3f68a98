package quarry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/dialect"
	"github.com/quarrydb/quarry/dialect/sql"
)

func TestClientDialectResolution(t *testing.T) {
	c, _ := newTestClient(t, "postgres")
	assert.Equal(t, dialect.Postgres, c.Dialect())
	assert.True(t, c.Features().SupportsReturning)

	c, _ = newTestClient(t, "mysql")
	assert.Equal(t, dialect.MySQL, c.Dialect())
	assert.True(t, c.Features().AlwaysQuote)

	// Unknown driver names fall back to the ANSI feature set.
	c, _ = newTestClient(t, "exotic")
	assert.Equal(t, "ansi", c.Features().Name)
}

func TestClientStatsDisabled(t *testing.T) {
	c, _ := newTestClient(t, "postgres")
	_, ok := c.Stats()
	assert.False(t, ok)
}

func TestFormatUsesCache(t *testing.T) {
	c, _ := newTestClient(t, "postgres")
	tree := sql.Select(sql.Column("id")).
		FromTable(sql.Table("users")).
		WherePred(sql.EQ(sql.Column("id"), sql.Arg(1)))

	query, args, err := c.Format(tree)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE id = $1", query)
	assert.Equal(t, []any{1}, args)
	assert.Equal(t, 1, c.stmts.len())

	again, _, err := c.Format(tree)
	require.NoError(t, err)
	assert.Equal(t, query, again)
	assert.Equal(t, 1, c.stmts.len())

	// A structurally equal but distinct tree is a distinct cache entry.
	other := sql.Select(sql.Column("id")).
		FromTable(sql.Table("users")).
		WherePred(sql.EQ(sql.Column("id"), sql.Arg(1)))
	_, _, err = c.Format(other)
	require.NoError(t, err)
	assert.Equal(t, 2, c.stmts.len())
}

func TestFormatCacheDisabled(t *testing.T) {
	c, _ := newTestClient(t, "postgres", WithStatementCache(0))
	tree := sql.Select(sql.Column("id")).FromTable(sql.Table("users"))
	query, _, err := c.Format(tree)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users", query)
	assert.Equal(t, 0, c.stmts.len())
}
