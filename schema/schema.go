// Package schema holds the table and column metadata the entity layer is
// built on: typed columns with value converters, property bindings onto
// entity fields, and reference bindings onto other tables that drive
// automatic join expansion.
//
// Table definitions are plain values, typically declared at package level.
// Code generators may produce them, but the contract is only this metadata
// shape, never the generation mechanism.
package schema

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/sqltype"
)

// Table describes a database table: its name, optional alias and schema
// qualifier, and its ordered, typed columns.
type Table struct {
	name    string
	schema  string
	alias   string
	columns []AnyColumn
}

// TableOption configures a table at construction time.
type TableOption func(*Table)

// WithSchema qualifies the table with a database schema (catalog) name.
func WithSchema(s string) TableOption {
	return func(t *Table) { t.schema = s }
}

// WithAlias sets a default alias for the table in rendered SQL.
func WithAlias(a string) TableOption {
	return func(t *Table) { t.alias = a }
}

// New returns a new table definition.
func New(name string, opts ...TableOption) *Table {
	t := &Table{name: name}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Schema returns the schema qualifier, or empty.
func (t *Table) Schema() string { return t.schema }

// Alias returns the default alias, or empty.
func (t *Table) Alias() string { return t.alias }

// Columns returns the table's columns in declaration order.
func (t *Table) Columns() []AnyColumn { return t.columns }

// Column returns the column with the given name, or nil.
func (t *Table) Column(name string) AnyColumn {
	for _, c := range t.columns {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

// PrimaryKey returns the primary-key columns in declaration order.
func (t *Table) PrimaryKey() []AnyColumn {
	var pk []AnyColumn
	for _, c := range t.columns {
		if c.IsPrimary() {
			pk = append(pk, c)
		}
	}
	return pk
}

// Ref returns the table-reference expression for query building.
func (t *Table) Ref() *sql.TableExpr {
	ref := sql.Table(t.name)
	if t.schema != "" {
		ref = ref.InSchema(t.schema)
	}
	if t.alias != "" {
		ref = ref.As(t.alias)
	}
	return ref
}

// qualifier is the name columns are qualified with in single-table queries.
func (t *Table) qualifier() string {
	if t.alias != "" {
		return t.alias
	}
	return t.name
}

func (t *Table) register(c AnyColumn) {
	if t.Column(c.Name()) != nil {
		panic(fmt.Sprintf("schema: table %q already has a column %q", t.name, c.Name()))
	}
	t.columns = append(t.columns, c)
}

// AnyColumn is the erased view of a typed column, used by the planner, the
// entity materializer and DDL generation.
type AnyColumn interface {
	Name() string
	Table() *Table
	Type() sqltype.Type
	IsPrimary() bool
	AutoIncrement() bool
	IsNullable() bool
	// BindPath is the entity property path the column populates. For
	// reference columns it names the nested entity property.
	BindPath() []string
	// Ref is the table the column references, or nil. A non-nil Ref makes
	// the column a join requirement for entity materialization.
	Ref() *Table
	DefaultExpr() sql.Expr
	// Expr returns the column reference qualified by its table.
	Expr() *sql.ColumnExpr
	// ExprIn returns the column reference qualified by the given alias.
	ExprIn(alias string) *sql.ColumnExpr
}

// Column is a typed table column. The element type threads through every
// predicate and assignment, so assigning or comparing a value of the wrong
// type is rejected by the compiler, before any SQL exists.
type Column[T any] struct {
	table    *Table
	name     string
	typ      sqltype.ValueType[T]
	pk       bool
	autoinc  bool
	nullable bool
	def      sql.Expr
	binds    []string
	ref      *Table
}

// Col declares a column of element type T on the table. The property
// binding defaults to the lower-camel form of the column name.
func Col[T any](t *Table, name string, typ sqltype.ValueType[T]) *Column[T] {
	c := &Column[T]{table: t, name: name, typ: typ, binds: []string{PropertyName(name)}}
	t.register(c)
	return c
}

// Bool declares a boolean column.
func Bool(t *Table, name string) *Column[bool] { return Col(t, name, sqltype.Bool()) }

// Int declares an integer column.
func Int(t *Table, name string) *Column[int] { return Col(t, name, sqltype.Int()) }

// Int64 declares a bigint column.
func Int64(t *Table, name string) *Column[int64] { return Col(t, name, sqltype.Int64()) }

// Float64 declares a double-precision column.
func Float64(t *Table, name string) *Column[float64] { return Col(t, name, sqltype.Float64()) }

// String declares a text column.
func String(t *Table, name string) *Column[string] { return Col(t, name, sqltype.String()) }

// Bytes declares a binary column.
func Bytes(t *Table, name string) *Column[[]byte] { return Col(t, name, sqltype.Bytes()) }

// Time declares a timestamp column.
func Time(t *Table, name string) *Column[time.Time] { return Col(t, name, sqltype.Time()) }

// UUID declares a UUID column.
func UUID(t *Table, name string) *Column[uuid.UUID] { return Col(t, name, sqltype.UUID()) }

// Name returns the column name.
func (c *Column[T]) Name() string { return c.name }

// Table returns the owning table.
func (c *Column[T]) Table() *Table { return c.table }

// Type returns the erased value converter.
func (c *Column[T]) Type() sqltype.Type { return c.typ.Erase() }

// ValueType returns the typed value converter.
func (c *Column[T]) ValueType() sqltype.ValueType[T] { return c.typ }

// IsPrimary reports whether the column is part of the primary key.
func (c *Column[T]) IsPrimary() bool { return c.pk }

// AutoIncrement reports whether the column is a generated key.
func (c *Column[T]) AutoIncrement() bool { return c.autoinc }

// IsNullable reports whether the column accepts NULL.
func (c *Column[T]) IsNullable() bool { return c.nullable }

// BindPath returns the entity property path the column populates.
func (c *Column[T]) BindPath() []string { return c.binds }

// Ref returns the referenced table, or nil.
func (c *Column[T]) Ref() *Table { return c.ref }

// DefaultExpr returns the default-value expression, or nil.
func (c *Column[T]) DefaultExpr() sql.Expr { return c.def }

// PrimaryKey marks the column as (part of) the primary key.
func (c *Column[T]) PrimaryKey() *Column[T] {
	c.pk = true
	return c
}

// Auto marks the column as a database-generated key.
func (c *Column[T]) Auto() *Column[T] {
	c.autoinc = true
	return c
}

// Nullable marks the column as accepting NULL. Pair it with a
// sqltype.Nullable converter so scans produce nil instead of failing.
func (c *Column[T]) Nullable() *Column[T] {
	c.nullable = true
	return c
}

// Default sets a typed default value rendered into DDL and used for
// inserts that omit the column.
func (c *Column[T]) Default(v T) *Column[T] {
	c.def = c.arg(v)
	return c
}

// DefaultRaw sets a verbatim SQL default such as CURRENT_TIMESTAMP.
func (c *Column[T]) DefaultRaw(fragment string) *Column[T] {
	c.def = sql.Raw(fragment)
	return c
}

// BindTo overrides the entity property path the column populates. A path
// of more than one element traverses nested entity properties.
func (c *Column[T]) BindTo(path ...string) *Column[T] {
	if len(path) == 0 {
		panic(fmt.Sprintf("schema: empty bind path on column %q", c.name))
	}
	c.binds = path
	return c
}

// References declares the column a foreign key onto the given table, which
// must have a single-column primary key. The bound property becomes a
// nested entity populated by automatic join expansion. When the property
// binding is still the derived default and the column name carries an _id
// suffix, the binding drops the suffix: "department_id" binds to
// "department".
func (c *Column[T]) References(other *Table) *Column[T] {
	c.ref = other
	if trimmed, ok := strings.CutSuffix(c.name, "_id"); ok && len(c.binds) == 1 && c.binds[0] == PropertyName(c.name) {
		c.binds = []string{PropertyName(trimmed)}
	}
	return c
}

// Expr returns the column reference qualified by its table.
func (c *Column[T]) Expr() *sql.ColumnExpr {
	return sql.C(c.table.qualifier(), c.name)
}

// ExprIn returns the column reference qualified by the given alias.
func (c *Column[T]) ExprIn(alias string) *sql.ColumnExpr {
	return sql.C(alias, c.name)
}

// arg binds a typed value into an argument expression. Binding failures
// surface when the enclosing tree is formatted.
func (c *Column[T]) arg(v T) sql.Expr {
	bound, err := c.typ.Bind(v)
	if err != nil {
		return sql.ErrArg(fmt.Errorf("schema: bind %s.%s: %w", c.table.name, c.name, err))
	}
	return sql.Arg(bound)
}

// EQ returns the predicate column = v.
func (c *Column[T]) EQ(v T) sql.Expr { return sql.EQ(c.Expr(), c.arg(v)) }

// NEQ returns the predicate column <> v.
func (c *Column[T]) NEQ(v T) sql.Expr { return sql.NEQ(c.Expr(), c.arg(v)) }

// GT returns the predicate column > v.
func (c *Column[T]) GT(v T) sql.Expr { return sql.GT(c.Expr(), c.arg(v)) }

// GTE returns the predicate column >= v.
func (c *Column[T]) GTE(v T) sql.Expr { return sql.GTE(c.Expr(), c.arg(v)) }

// LT returns the predicate column < v.
func (c *Column[T]) LT(v T) sql.Expr { return sql.LT(c.Expr(), c.arg(v)) }

// LTE returns the predicate column <= v.
func (c *Column[T]) LTE(v T) sql.Expr { return sql.LTE(c.Expr(), c.arg(v)) }

// In returns the predicate column IN (vs...).
func (c *Column[T]) In(vs ...T) sql.Expr {
	args := make([]sql.Expr, len(vs))
	for i, v := range vs {
		args[i] = c.arg(v)
	}
	return sql.In(c.Expr(), args...)
}

// NotIn returns the predicate column NOT IN (vs...).
func (c *Column[T]) NotIn(vs ...T) sql.Expr {
	args := make([]sql.Expr, len(vs))
	for i, v := range vs {
		args[i] = c.arg(v)
	}
	return sql.NotIn(c.Expr(), args...)
}

// IsNull returns the predicate column IS NULL.
func (c *Column[T]) IsNull() sql.Expr { return sql.IsNull(c.Expr()) }

// NotNull returns the predicate column IS NOT NULL.
func (c *Column[T]) NotNull() sql.Expr { return sql.NotNull(c.Expr()) }

// Like returns the predicate column LIKE pattern.
func (c *Column[T]) Like(pattern string) sql.Expr {
	return sql.Like(c.Expr(), sql.Arg(pattern))
}

// EQCol returns the predicate column = other, comparing two columns of the
// same element type.
func (c *Column[T]) EQCol(other *Column[T]) sql.Expr {
	return sql.EQ(c.Expr(), other.Expr())
}

// Asc returns an ascending order term on the column.
func (c *Column[T]) Asc() *sql.OrderExpr { return sql.Asc(c.Expr()) }

// Desc returns a descending order term on the column.
func (c *Column[T]) Desc() *sql.OrderExpr { return sql.Desc(c.Expr()) }

// Set returns the assignment column = v for inserts and updates. The value
// type is pinned to the column's element type: assigning a string
// expression to an integer column does not compile.
func (c *Column[T]) Set(v T) sql.Assignment {
	bound, err := c.typ.Bind(v)
	if err != nil {
		return sql.Assign(c.name, sql.ErrArg(fmt.Errorf("schema: bind %s.%s: %w", c.table.name, c.name, err)))
	}
	return sql.Assign(c.name, sql.Arg(bound))
}

// SetExpr returns the assignment column = expr for computed updates such
// as counter increments. It bypasses element typing; prefer Set.
func (c *Column[T]) SetExpr(e sql.Expr) sql.Assignment {
	return sql.Assign(c.name, e)
}

// SetOpt returns the assignment for a tri-state value. An unset value
// reports false so the caller skips the column and the database default
// applies; an explicit NULL binds a NULL argument.
func SetOpt[T any](c *Column[T], o sqltype.Optional[T]) (sql.Assignment, bool) {
	if !o.IsSet() {
		return sql.Assignment{}, false
	}
	if o.IsNull() {
		return sql.Assign(c.name, sql.Arg(nil)), true
	}
	v, _ := o.Get()
	return c.Set(v), true
}

// AddExpr returns the expression column + v, for increment-style updates.
func (c *Column[T]) AddExpr(v T) sql.Expr {
	return sql.Add(c.Expr(), c.arg(v))
}
