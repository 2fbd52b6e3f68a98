package sql

import (
	"errors"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatSelect(t *testing.T) {
	base := Select(C("u", "id"), C("u", "name")).
		FromTable(Table("users").As("u")).
		WherePred(EQ(C("u", "status"), Arg("active")))

	query, args, err := Format(base, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT u.id, u.name FROM users AS u WHERE u.status = $1", query)
	assert.Equal(t, []any{"active"}, args)

	query, args, err = Format(base, MySQL(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT `u`.`id`, `u`.`name` FROM `users` AS `u` WHERE `u`.`status` = ?", query)
	assert.Equal(t, []any{"active"}, args)
}

func TestFormatArgOrder(t *testing.T) {
	// Placeholder numbering must follow text order exactly, including
	// through subqueries.
	sub := Select(C("p", "user_id")).
		FromTable(Table("posts").As("p")).
		WherePred(GT(C("p", "score"), Arg(10)))
	tree := Select(C("u", "id")).
		FromTable(Table("users").As("u")).
		WherePred(And(
			GTE(C("u", "age"), Arg(18)),
			InSelect(C("u", "id"), sub),
			NEQ(C("u", "status"), Arg("banned")),
		))
	query, args, err := Format(tree, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{18, 10, "banned"}, args)
	i1, i2, i3 := strings.Index(query, "$1"), strings.Index(query, "$2"), strings.Index(query, "$3")
	require.True(t, i1 >= 0 && i2 >= 0 && i3 >= 0)
	assert.Less(t, i1, i2)
	assert.Less(t, i2, i3)
}

func TestFormatLogicalGrouping(t *testing.T) {
	a := EQ(Column("a"), Arg(1))
	b := EQ(Column("b"), Arg(2))
	c := EQ(Column("c"), Arg(3))
	query, _, err := Format(And(a, Or(b, c)), Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "a = $1 AND (b = $2 OR c = $3)", query)

	query, _, err = Format(Or(And(a, b), c), Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "(a = $1 AND b = $2) OR c = $3", query)
}

func TestFormatEmptyIn(t *testing.T) {
	query, args, err := Format(In(Column("id")), SQLite(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "id IN (NULL)", query)
	assert.Empty(t, args)
}

func TestFormatKeywordQuoting(t *testing.T) {
	tree := Select(Column("order"), Column("qty")).FromTable(Table("lines"))
	query, _, err := Format(tree, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, `SELECT "order", qty FROM lines`, query)
}

func TestFormatPagination(t *testing.T) {
	base := Select(Column("id")).FromTable(Table("users"))
	for _, tt := range []struct {
		name string
		f    Features
		tree *SelectExpr
		want string
	}{
		{"sqlite limit offset", SQLite(), base.WithLimit(10).WithOffset(5), "SELECT id FROM users LIMIT 10 OFFSET 5"},
		{"sqlite offset only", SQLite(), base.WithOffset(5), "SELECT id FROM users LIMIT -1 OFFSET 5"},
		{"postgres limit", Postgres(), base.WithLimit(3), "SELECT id FROM users LIMIT 3"},
		{"mysql offset only", MySQL(), base.WithOffset(5), "SELECT `id` FROM `users` LIMIT 18446744073709551615 OFFSET 5"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			query, _, err := Format(tt.tree, tt.f, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, query)
		})
	}
}

func TestFormatPaginationUnsupported(t *testing.T) {
	tree := Select(Column("id")).FromTable(Table("users")).WithLimit(1)
	_, _, err := Format(tree, Base(), Options{})
	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, "ansi", ue.Dialect)
	assert.Contains(t, err.Error(), "LIMIT/OFFSET")
}

func TestFormatLock(t *testing.T) {
	tree := Select(Column("id")).FromTable(Table("jobs")).
		WithLock(LockOptions{Strength: LockUpdate, SkipLocked: true})
	query, _, err := Format(tree, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM jobs FOR UPDATE SKIP LOCKED", query)

	_, _, err = Format(tree, SQLite(), Options{})
	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, err.Error(), "row-level locking")
}

func TestFormatLongIdent(t *testing.T) {
	long := strings.Repeat("a", 64)
	tree := Select(Column(long)).FromTable(Table("users"))
	_, _, err := Format(tree, Postgres(), Options{})
	var le *LongIdentError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, long, le.Ident)
	assert.Equal(t, 63, le.Limit)

	// MySQL allows one more character.
	_, _, err = Format(tree, MySQL(), Options{})
	require.NoError(t, err)
}

func TestFormatOrderResolve(t *testing.T) {
	f := Base()
	f.RequireOrderInSelect = true
	tree := Select(Column("id")).FromTable(Table("users")).
		OrderByExprs(Asc(Column("name")))
	_, _, err := Format(tree, f, Options{})
	var oe *OrderResolveError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "name", oe.Column)

	// Aliased select-list entries resolve.
	tree = Select(As(Lower(Column("name")), "lowered")).FromTable(Table("users")).
		OrderByExprs(Asc(Column("lowered")))
	_, _, err = Format(tree, f, Options{})
	require.NoError(t, err)
}

func TestFormatInsert(t *testing.T) {
	ins := Insert(Table("users")).Set(
		Assign("email", Arg("ada@example.com")),
		Assign("name", Arg("Ada")),
	)
	query, args, err := Format(ins, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (email, name) VALUES ($1, $2)", query)
	assert.Equal(t, []any{"ada@example.com", "Ada"}, args)

	query, _, err = Format(ins.WithReturning(Column("id")), Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (email, name) VALUES ($1, $2) RETURNING id", query)

	_, _, err = Format(ins.WithReturning(Column("id")), MySQL(), Options{})
	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, err.Error(), "RETURNING")
}

func TestFormatInsertDefaults(t *testing.T) {
	ins := Insert(Table("logs")).DefaultValues()
	query, _, err := Format(ins, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO logs DEFAULT VALUES", query)

	query, _, err = Format(ins, MySQL(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `logs` () VALUES ()", query)
}

func TestFormatInsertRowMismatch(t *testing.T) {
	ins := Insert(Table("users")).
		Set(Assign("email", Arg("a@b.c"))).
		Row(Arg("x"), Arg("y"))
	_, _, err := Format(ins, Postgres(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 values for 1 columns")
}

func TestFormatUpsert(t *testing.T) {
	ins := Insert(Table("users")).
		Set(Assign("email", Arg("a@b.c"))).
		OnConflict(&ConflictExpr{
			Columns: []string{"email"},
			Action:  DoUpdate,
			Updates: []Assignment{Assign("visits", Add(Column("visits"), Arg(1)))},
		})
	query, args, err := Format(ins, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (email) VALUES ($1) ON CONFLICT (email) DO UPDATE SET visits = visits + $2", query)
	assert.Equal(t, []any{"a@b.c", 1}, args)

	nothing := Insert(Table("users")).
		Set(Assign("email", Arg("a@b.c"))).
		OnConflict(&ConflictExpr{Action: DoNothing})
	query, _, err = Format(nothing, MySQL(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO `users` (`email`) VALUES (?) ON DUPLICATE KEY UPDATE `email` = `email`", query)

	_, _, err = Format(nothing, Base(), Options{})
	var ue *UnsupportedError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, err.Error(), "insert-or-update")
}

func TestFormatUpdateDelete(t *testing.T) {
	upd := Update(Table("users")).
		Set(Assign("name", Arg("Ada"))).
		WherePred(EQ(Column("id"), Arg(7)))
	query, args, err := Format(upd, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = $1 WHERE id = $2", query)
	assert.Equal(t, []any{"Ada", 7}, args)

	_, _, err = Format(Update(Table("users")), Postgres(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no assignments")

	del := Delete(Table("users")).WherePred(EQ(Column("id"), Arg(7)))
	query, args, err = Format(del, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM users WHERE id = $1", query)
	assert.Equal(t, []any{7}, args)
}

func TestFormatErrArg(t *testing.T) {
	bindErr := errors.New("cannot bind value")
	tree := Select(Column("id")).FromTable(Table("users")).
		WherePred(EQ(Column("id"), ErrArg(bindErr)))
	_, _, err := Format(tree, Postgres(), Options{})
	require.ErrorIs(t, err, bindErr)
}

func TestFormatCast(t *testing.T) {
	query, args, err := Format(Cast(Arg("42"), "bigint"), Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "CAST($1 AS bigint)", query)
	assert.Equal(t, []any{"42"}, args)
}

func TestFormatDeterministic(t *testing.T) {
	tree := Select(C("u", "id")).
		FromTable(Table("users").As("u")).
		WherePred(In(C("u", "id"), Args(1, 2, 3)...))
	first, args1 := MustFormat(tree, Postgres(), Options{})
	second, args2 := MustFormat(tree, Postgres(), Options{})
	assert.Equal(t, first, second)
	assert.Equal(t, args1, args2)
}

func reportQuery() *SelectExpr {
	return Select(C("u", "id"), As(Count(C("p", "id")), "post_count")).
		FromTable(LeftJoinOn(
			Table("users").As("u"),
			Table("posts").As("p"),
			EQ(C("u", "id"), C("p", "user_id")),
		)).
		WherePred(GTE(C("u", "age"), Arg(18))).
		GroupByExprs(C("u", "id")).
		HavingPred(GT(Count(C("p", "id")), Arg(2))).
		OrderByExprs(Desc(Column("post_count"))).
		WithLimit(10).
		WithOffset(20)
}

func TestFormatGolden(t *testing.T) {
	g := goldie.New(t)
	opts := Options{Beautify: true, IndentSize: 2}

	query, _, err := Format(reportQuery(), Postgres(), opts)
	require.NoError(t, err)
	g.Assert(t, "report_postgres", []byte(query))

	query, _, err = Format(reportQuery(), MySQL(), opts)
	require.NoError(t, err)
	g.Assert(t, "report_mysql", []byte(query))

	upsert := Insert(Table("users")).
		Set(Assign("email", Arg("ada@example.com")), Assign("name", Arg("Ada"))).
		OnConflict(&ConflictExpr{
			Columns: []string{"email"},
			Action:  DoUpdate,
			Updates: []Assignment{Assign("name", Arg("Ada"))},
		}).
		WithReturning(Column("id"))
	query, _, err = Format(upsert, SQLite(), opts)
	require.NoError(t, err)
	g.Assert(t, "upsert_sqlite", []byte(query))
}
