// Package sql provides the statement tree, the dialect-aware formatter, and
// the database/sql driver binding.
//
// # Statement Trees
//
// Statements are immutable expression trees built from constructors and
// copy-on-write modifiers. A modifier never changes its receiver; it
// returns a new tree sharing every untouched subtree, so a partially built
// query can be held and extended in several directions:
//
//	base := sql.Select(sql.C("u", "id"), sql.C("u", "name")).
//	    FromTable(sql.Table("users").As("u"))
//	active := base.WherePred(sql.EQ(sql.C("u", "status"), sql.Arg("active")))
//	recent := base.OrderByExprs(sql.Desc(sql.C("u", "created_at"))).WithLimit(10)
//
// Walk and Rewrite traverse and transform trees; Rewrite preserves node
// metadata and shares subtrees the rewrite did not touch.
//
// # Formatting
//
// Format renders a tree for a dialect feature set and returns the SQL text
// together with its bind arguments, in placeholder order:
//
//	query, args, err := sql.Format(active, sql.Postgres(), sql.Options{})
//	// SELECT "u"."id", "u"."name" FROM "users" AS "u" WHERE "u"."status" = $1
//
// Rendering is pure: the same tree, feature set and options always yield
// the same SQL and arguments. Dialect differences (placeholders, quoting,
// pagination, locking, upsert, identifier limits) are carried by the
// Features struct, not by the tree.
//
// # Execution
//
// Driver wraps database/sql behind the dialect.Driver interface. Rows read
// through ReadAll become a disconnected Rowset that can be replayed and
// accessed out of order after the connection is back in the pool.
package sql
