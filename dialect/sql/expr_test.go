package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModifiersCopy(t *testing.T) {
	base := Select(Column("id")).FromTable(Table("users"))
	limited := base.WithLimit(10)
	filtered := base.WherePred(EQ(Column("id"), Arg(1)))

	assert.Nil(t, base.Limit)
	assert.Nil(t, base.Where)
	require.NotNil(t, limited.Limit)
	assert.Equal(t, 10, *limited.Limit)
	assert.Nil(t, limited.Where)
	assert.NotNil(t, filtered.Where)
	assert.Nil(t, filtered.Limit)
}

func TestWherePredConjoins(t *testing.T) {
	s := Select(Column("id")).
		FromTable(Table("users")).
		WherePred(EQ(Column("a"), Arg(1))).
		WherePred(EQ(Column("b"), Arg(2)))
	query, args, err := Format(s, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM users WHERE a = $1 AND b = $2", query)
	assert.Equal(t, []any{1, 2}, args)
}

func TestAndOrDegenerate(t *testing.T) {
	p := EQ(Column("a"), Arg(1))
	assert.Nil(t, And())
	assert.Same(t, Expr(p), And(p))
	assert.Nil(t, Or())
	assert.Same(t, Expr(p), Or(p))
}

func TestTableC(t *testing.T) {
	u := Table("users").As("u")
	assert.Equal(t, &ColumnExpr{Qualifier: "u", Name: "id"}, u.C("id"))
	plain := Table("users")
	assert.Equal(t, &ColumnExpr{Qualifier: "users", Name: "id"}, plain.C("id"))
}

func TestMetaSurvivesModifiers(t *testing.T) {
	s := Select(Column("id")).WithMeta("hint", "index_scan")
	modified := s.WithLimit(5).WherePred(EQ(Column("id"), Arg(1)))
	assert.Equal(t, "index_scan", modified.Metadata()["hint"])
	// Setting a key on a copy never leaks back.
	s2 := s.WithMeta("hint", "seq_scan")
	assert.Equal(t, "index_scan", s.Metadata()["hint"])
	assert.Equal(t, "seq_scan", s2.Metadata()["hint"])
}

func TestWalk(t *testing.T) {
	tree := Select(Column("id")).
		FromTable(Table("users")).
		WherePred(And(EQ(Column("a"), Arg(1)), EQ(Column("b"), Arg(2))))

	var kinds []Kind
	Walk(tree, func(e Expr) bool {
		kinds = append(kinds, e.Kind())
		return true
	})
	assert.Equal(t, KindSelect, kinds[0])
	count := map[Kind]int{}
	for _, k := range kinds {
		count[k]++
	}
	assert.Equal(t, 3, count[KindColumn])
	assert.Equal(t, 2, count[KindArg])
	assert.Equal(t, 1, count[KindTable])

	// Returning false skips the node's children.
	var visited int
	Walk(tree, func(e Expr) bool {
		visited++
		return e.Kind() != KindBinary
	})
	assert.Equal(t, 4, visited) // select, table, column, top binary

	Walk(nil, func(Expr) bool {
		t.Fatal("callback invoked for nil tree")
		return true
	})
}

func TestRewrite(t *testing.T) {
	from := Table("users")
	keep := EQ(Column("a"), Arg(1))
	tree := Select(Column("id")).
		FromTable(from).
		WherePred(And(keep, EQ(Column("b"), Arg(2))))

	out := Rewrite(tree, func(e Expr) Expr {
		if a, ok := e.(*ArgExpr); ok && a.V == 2 {
			return Arg(20)
		}
		return e
	})
	rewritten, ok := out.(*SelectExpr)
	require.True(t, ok)
	assert.NotSame(t, tree, rewritten)

	// The input tree is untouched.
	_, args, err := Format(tree, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 2}, args)
	_, args, err = Format(rewritten, Postgres(), Options{})
	require.NoError(t, err)
	assert.Equal(t, []any{1, 20}, args)

	// Untouched subtrees are shared, not copied.
	assert.Same(t, Expr(from), rewritten.From)
	and := rewritten.Where.(*BinaryExpr)
	assert.Same(t, Expr(keep), and.X)
}

func TestRewriteIdentity(t *testing.T) {
	tree := Select(Column("id")).
		FromTable(Table("users")).
		WherePred(EQ(Column("a"), Arg(1)))
	out := Rewrite(tree, func(e Expr) Expr { return e })
	assert.Same(t, Expr(tree), out)
}

func TestRewritePreservesMeta(t *testing.T) {
	col := Column("id").WithMeta("origin", "pk")
	tree := Select(col).FromTable(Table("users")).WherePred(EQ(Column("a"), Arg(1)))
	out := Rewrite(tree, func(e Expr) Expr {
		if a, ok := e.(*ArgExpr); ok {
			return Arg(a.V.(int) * 2)
		}
		return e
	}).(*SelectExpr)
	assert.Equal(t, "pk", out.Columns[0].Metadata()["origin"])
}

func TestInsertSetSharedBase(t *testing.T) {
	base := Insert(Table("users")).Set(
		Assign("a", Arg(1)),
		Assign("b", Arg(2)),
		Assign("c", Arg(3)),
	)

	// Two derivations of one base must not see each other's values.
	first := base.Set(Assign("d", Arg(4)))
	second := base.Set(Assign("e", Arg(5)))

	require.Len(t, base.Values[0], 3)
	require.Len(t, first.Values[0], 4)
	require.Len(t, second.Values[0], 4)
	assert.Equal(t, 4, first.Values[0][3].(*ArgExpr).V)
	assert.Equal(t, 5, second.Values[0][3].(*ArgExpr).V)
	assert.Equal(t, []string{"a", "b", "c", "d"}, first.Columns)
	assert.Equal(t, []string{"a", "b", "c", "e"}, second.Columns)
}
