package quarry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/migrate"
	"github.com/quarrydb/quarry/schema"
)

// sqliteClient opens an in-memory database pinned to a single connection so
// every statement sees the same memory file.
func sqliteClient(t *testing.T) *quarry.Client {
	t.Helper()
	c, err := quarry.Open("sqlite", ":memory:")
	require.NoError(t, err)
	c.Driver().(*sql.Driver).DB().SetMaxOpenConns(1)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSQLiteRoundTrip(t *testing.T) {
	c := sqliteClient(t)
	ctx := context.Background()

	departments := schema.New("departments")
	schema.Int64(departments, "id").PrimaryKey().Auto()
	depName := schema.String(departments, "name")
	employees := schema.New("employees")
	schema.Int64(employees, "id").PrimaryKey().Auto()
	empName := schema.String(employees, "name")
	empAge := schema.Int64(employees, "age")
	empDep := schema.Int64(employees, "department_id").Nullable().References(departments)

	require.NoError(t, migrate.CreateAll(ctx, c, migrate.Options{
		Tables: []*schema.Table{departments, employees},
		Indexes: []migrate.Index{
			{Table: departments, Columns: []schema.AnyColumn{depName}, Unique: true},
		},
	}))

	research, err := c.Insert(departments).Set(depName.Set("Research")).ExecKey(ctx)
	require.NoError(t, err)
	assert.Positive(t, research)

	require.NoError(t, c.Insert(employees).
		Set(empName.Set("ada"), empAge.Set(int64(36)), empDep.Set(research)).
		Exec(ctx))
	require.NoError(t, c.Insert(employees).
		Set(empName.Set("grace"), empAge.Set(int64(41)), empDep.Set(research)).
		Exec(ctx))
	require.NoError(t, c.Insert(employees).
		Set(empName.Set("linus"), empAge.Set(int64(28))).
		Exec(ctx))

	// Duplicate department names violate the unique index.
	err = c.Insert(departments).Set(depName.Set("Research")).Exec(ctx)
	require.Error(t, err)
	assert.True(t, quarry.IsConstraintError(err))

	ents, err := c.From(employees).WithRefs().Order(empName.Asc()).All(ctx)
	require.NoError(t, err)
	require.Len(t, ents, 3)
	assert.Equal(t, "ada", quarry.MustGet(ents[0], empName))
	dep := ents[0].Ref("department")
	require.NotNil(t, dep)
	assert.Equal(t, "Research", quarry.MustGet(dep, depName))
	assert.Same(t, dep, ents[1].Ref("department"))
	assert.Nil(t, ents[2].Ref("department"))

	n, err := c.From(employees).Filter(empDep.NotNull()).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	total, err := quarry.SumOf(ctx, c.From(employees), empAge)
	require.NoError(t, err)
	assert.Equal(t, int64(36+41+28), total)

	// Write a change back and read it again through a fresh query.
	require.NoError(t, quarry.Set(ents[0], empName, "ada lovelace"))
	require.NoError(t, ents[0].FlushChanges(ctx))
	assert.False(t, ents[0].Changed())

	got, err := c.From(employees).Filter(empName.EQ("ada lovelace")).Only(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(36), quarry.MustGet(got, empAge))
}

func TestSQLiteTransactions(t *testing.T) {
	c := sqliteClient(t)
	ctx := context.Background()

	tags := schema.New("tags")
	schema.Int64(tags, "id").PrimaryKey().Auto()
	tagName := schema.String(tags, "name")
	require.NoError(t, migrate.Create(ctx, c, tags))

	// A returned error rolls the whole transaction back.
	wantErr := assert.AnError
	err := c.WithTx(ctx, func(ctx context.Context, _ *quarry.Tx) error {
		if err := c.Insert(tags).Set(tagName.Set("doomed")).Exec(ctx); err != nil {
			return err
		}
		return wantErr
	})
	require.ErrorIs(t, err, wantErr)
	n, err := c.From(tags).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, c.WithTx(ctx, func(ctx context.Context, _ *quarry.Tx) error {
		return c.Insert(tags).Set(tagName.Set("kept")).Exec(ctx)
	}))
	n, err = c.From(tags).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
