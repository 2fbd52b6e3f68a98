package sql

// The expression tree is a closed set of immutable node types implementing
// Expr. Construction helpers below build trees; modifier methods never
// mutate in place, they return structural copies with one field replaced.
// This keeps concurrent query construction over a shared base tree safe.

// Kind discriminates the node types of the expression tree.
type Kind uint8

// Expression node kinds.
const (
	KindInvalid Kind = iota
	KindColumn
	KindArg
	KindRaw
	KindList
	KindUnary
	KindBinary
	KindFunc
	KindTable
	KindJoin
	KindOrder
	KindAlias
	KindSelect
	KindInsert
	KindUpdate
	KindDelete
	KindConflict
	KindCreateTable
	KindAlterTable
	KindCreateIndex
)

// Expr is an immutable node in the expression tree.
type Expr interface {
	// Kind returns the node discriminant.
	Kind() Kind
	// Leaf reports whether the node has no child expressions. Traversals
	// use it to short-circuit.
	Leaf() bool
	// Metadata returns the extension bag attached to the node, or nil.
	// Unknown keys are preserved across tree rewrites so dialect-specific
	// annotations survive generic visitors.
	Metadata() Meta
}

// Meta is an open key/value extension bag attached to expression nodes.
type Meta map[string]any

func (m Meta) clone() Meta {
	if m == nil {
		return nil
	}
	c := make(Meta, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// with returns a copy of the bag with one key set.
func (m Meta) with(key string, value any) Meta {
	c := m.clone()
	if c == nil {
		c = make(Meta, 1)
	}
	c[key] = value
	return c
}

// ColumnExpr is a reference to a table column, optionally qualified by a
// table name or alias.
type ColumnExpr struct {
	Qualifier string // table name or alias; empty for unqualified.
	Name      string
	meta      Meta
}

// Column returns an unqualified column reference.
func Column(name string) *ColumnExpr { return &ColumnExpr{Name: name} }

// C returns a column reference qualified by the given table or alias.
func C(qualifier, name string) *ColumnExpr {
	return &ColumnExpr{Qualifier: qualifier, Name: name}
}

func (*ColumnExpr) Kind() Kind       { return KindColumn }
func (*ColumnExpr) Leaf() bool       { return true }
func (c *ColumnExpr) Metadata() Meta { return c.meta }

// WithMeta returns a copy of the column with the metadata key set.
func (c *ColumnExpr) WithMeta(key string, value any) *ColumnExpr {
	cc := *c
	cc.meta = c.meta.with(key, value)
	return &cc
}

// ArgExpr is a positional argument. Its value is collected by the formatter
// in the exact order its placeholder is written into the SQL text.
type ArgExpr struct {
	V    any
	Err  error // deferred binding error, surfaced at format time.
	meta Meta
}

// Arg returns an argument expression holding the given value.
func Arg(v any) *ArgExpr { return &ArgExpr{V: v} }

// Args returns a list of argument expressions for the given values.
func Args(vs ...any) []Expr {
	exprs := make([]Expr, len(vs))
	for i, v := range vs {
		exprs[i] = Arg(v)
	}
	return exprs
}

// ErrArg returns an argument carrying a deferred error. Formatting a tree
// that contains it fails with that error. It lets typed binding failures
// travel through fluent construction without an error return at every step.
func ErrArg(err error) *ArgExpr { return &ArgExpr{Err: err} }

func (*ArgExpr) Kind() Kind       { return KindArg }
func (*ArgExpr) Leaf() bool       { return true }
func (a *ArgExpr) Metadata() Meta { return a.meta }

// RawExpr is a verbatim SQL fragment. It is rendered as-is, with no quoting
// and no argument collection.
type RawExpr struct {
	Fragment string
	meta     Meta
}

// Raw returns a verbatim SQL fragment expression.
func Raw(fragment string) *RawExpr { return &RawExpr{Fragment: fragment} }

func (*RawExpr) Kind() Kind       { return KindRaw }
func (*RawExpr) Leaf() bool       { return true }
func (r *RawExpr) Metadata() Meta { return r.meta }

// ListExpr is a parenthesized, comma-separated list of expressions, as used
// by IN predicates and VALUES tuples.
type ListExpr struct {
	Items []Expr
	meta  Meta
}

// List returns a list expression over the given items.
func List(items ...Expr) *ListExpr { return &ListExpr{Items: items} }

func (*ListExpr) Kind() Kind       { return KindList }
func (*ListExpr) Leaf() bool       { return false }
func (l *ListExpr) Metadata() Meta { return l.meta }

// UnaryOp enumerates unary operators.
type UnaryOp uint8

// Unary operators.
const (
	OpNot UnaryOp = iota + 1
	OpNeg
	OpExists
	OpNotExists
	OpIsNull  // postfix
	OpNotNull // postfix
)

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "NOT"
	case OpNeg:
		return "-"
	case OpExists:
		return "EXISTS"
	case OpNotExists:
		return "NOT EXISTS"
	case OpIsNull:
		return "IS NULL"
	case OpNotNull:
		return "IS NOT NULL"
	}
	return "<invalid>"
}

// postfix reports whether the operator renders after its operand.
func (op UnaryOp) postfix() bool { return op == OpIsNull || op == OpNotNull }

// UnaryExpr applies a unary operator to an operand.
type UnaryExpr struct {
	Op   UnaryOp
	X    Expr
	meta Meta
}

// Not negates the given predicate.
func Not(x Expr) *UnaryExpr { return &UnaryExpr{Op: OpNot, X: x} }

// Exists returns an EXISTS predicate over a subquery.
func Exists(x Expr) *UnaryExpr { return &UnaryExpr{Op: OpExists, X: x} }

// NotExists returns a NOT EXISTS predicate over a subquery.
func NotExists(x Expr) *UnaryExpr { return &UnaryExpr{Op: OpNotExists, X: x} }

// IsNull returns an IS NULL predicate on the given expression.
func IsNull(x Expr) *UnaryExpr { return &UnaryExpr{Op: OpIsNull, X: x} }

// NotNull returns an IS NOT NULL predicate on the given expression.
func NotNull(x Expr) *UnaryExpr { return &UnaryExpr{Op: OpNotNull, X: x} }

func (*UnaryExpr) Kind() Kind       { return KindUnary }
func (*UnaryExpr) Leaf() bool       { return false }
func (u *UnaryExpr) Metadata() Meta { return u.meta }

// Op enumerates binary and n-ary operators.
type Op uint8

// Binary operators.
const (
	OpEQ Op = iota + 1
	OpNEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpAnd
	OpOr
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpLike
	OpNotLike
	OpIn
	OpNotIn
)

func (op Op) String() string {
	switch op {
	case OpEQ:
		return "="
	case OpNEQ:
		return "<>"
	case OpGT:
		return ">"
	case OpGTE:
		return ">="
	case OpLT:
		return "<"
	case OpLTE:
		return "<="
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpMod:
		return "%"
	case OpLike:
		return "LIKE"
	case OpNotLike:
		return "NOT LIKE"
	case OpIn:
		return "IN"
	case OpNotIn:
		return "NOT IN"
	}
	return "<invalid>"
}

// BinaryExpr applies a binary operator to two operands.
type BinaryExpr struct {
	Op   Op
	X, Y Expr
	meta Meta
}

func binary(op Op, x, y Expr) *BinaryExpr { return &BinaryExpr{Op: op, X: x, Y: y} }

// EQ returns an equality predicate x = y.
func EQ(x, y Expr) *BinaryExpr { return binary(OpEQ, x, y) }

// NEQ returns an inequality predicate x <> y.
func NEQ(x, y Expr) *BinaryExpr { return binary(OpNEQ, x, y) }

// GT returns the predicate x > y.
func GT(x, y Expr) *BinaryExpr { return binary(OpGT, x, y) }

// GTE returns the predicate x >= y.
func GTE(x, y Expr) *BinaryExpr { return binary(OpGTE, x, y) }

// LT returns the predicate x < y.
func LT(x, y Expr) *BinaryExpr { return binary(OpLT, x, y) }

// LTE returns the predicate x <= y.
func LTE(x, y Expr) *BinaryExpr { return binary(OpLTE, x, y) }

// Like returns the predicate x LIKE y.
func Like(x, y Expr) *BinaryExpr { return binary(OpLike, x, y) }

// Add returns the arithmetic expression x + y.
func Add(x, y Expr) *BinaryExpr { return binary(OpAdd, x, y) }

// Sub returns the arithmetic expression x - y.
func Sub(x, y Expr) *BinaryExpr { return binary(OpSub, x, y) }

// Mul returns the arithmetic expression x * y.
func Mul(x, y Expr) *BinaryExpr { return binary(OpMul, x, y) }

// Div returns the arithmetic expression x / y.
func Div(x, y Expr) *BinaryExpr { return binary(OpDiv, x, y) }

// Mod returns the arithmetic expression x % y.
func Mod(x, y Expr) *BinaryExpr { return binary(OpMod, x, y) }

// In returns the predicate x IN (vs...).
func In(x Expr, vs ...Expr) *BinaryExpr { return binary(OpIn, x, List(vs...)) }

// NotIn returns the predicate x NOT IN (vs...).
func NotIn(x Expr, vs ...Expr) *BinaryExpr { return binary(OpNotIn, x, List(vs...)) }

// InSelect returns the predicate x IN (SELECT ...).
func InSelect(x Expr, sub *SelectExpr) *BinaryExpr { return binary(OpIn, x, sub) }

// And conjoins the given predicates. A single predicate is returned as-is.
func And(ps ...Expr) Expr { return nary(OpAnd, ps) }

// Or disjoins the given predicates. A single predicate is returned as-is.
func Or(ps ...Expr) Expr { return nary(OpOr, ps) }

func nary(op Op, ps []Expr) Expr {
	switch len(ps) {
	case 0:
		return nil
	case 1:
		return ps[0]
	}
	x := ps[0]
	for _, y := range ps[1:] {
		x = binary(op, x, y)
	}
	return x
}

func (*BinaryExpr) Kind() Kind       { return KindBinary }
func (*BinaryExpr) Leaf() bool       { return false }
func (b *BinaryExpr) Metadata() Meta { return b.meta }

// FuncExpr is a function call such as COUNT, SUM or LOWER.
type FuncExpr struct {
	Name     string
	Distinct bool // e.g. COUNT(DISTINCT c)
	Args     []Expr
	meta     Meta
}

// Func returns a function call expression.
func Func(name string, args ...Expr) *FuncExpr { return &FuncExpr{Name: name, Args: args} }

// Count returns a COUNT(x) aggregate.
func Count(x Expr) *FuncExpr { return Func("COUNT", x) }

// CountDistinct returns a COUNT(DISTINCT x) aggregate.
func CountDistinct(x Expr) *FuncExpr {
	return &FuncExpr{Name: "COUNT", Distinct: true, Args: []Expr{x}}
}

// Sum returns a SUM(x) aggregate.
func Sum(x Expr) *FuncExpr { return Func("SUM", x) }

// Avg returns an AVG(x) aggregate.
func Avg(x Expr) *FuncExpr { return Func("AVG", x) }

// Min returns a MIN(x) aggregate.
func Min(x Expr) *FuncExpr { return Func("MIN", x) }

// Max returns a MAX(x) aggregate.
func Max(x Expr) *FuncExpr { return Func("MAX", x) }

// Lower returns a LOWER(x) expression.
func Lower(x Expr) *FuncExpr { return Func("LOWER", x) }

// Upper returns an UPPER(x) expression.
func Upper(x Expr) *FuncExpr { return Func("UPPER", x) }

// Coalesce returns a COALESCE(xs...) expression.
func Coalesce(xs ...Expr) *FuncExpr { return Func("COALESCE", xs...) }

func (*FuncExpr) Kind() Kind       { return KindFunc }
func (*FuncExpr) Leaf() bool       { return false }
func (f *FuncExpr) Metadata() Meta { return f.meta }

// TableExpr is a reference to a table, optionally schema-qualified and
// aliased.
type TableExpr struct {
	Name   string
	Schema string
	Alias  string
	meta   Meta
}

// Table returns a table reference.
func Table(name string) *TableExpr { return &TableExpr{Name: name} }

// As returns a copy of the table reference with the given alias.
func (t *TableExpr) As(alias string) *TableExpr {
	tt := *t
	tt.Alias = alias
	return &tt
}

// InSchema returns a copy of the table reference qualified by a schema.
func (t *TableExpr) InSchema(schema string) *TableExpr {
	tt := *t
	tt.Schema = schema
	return &tt
}

// C returns a column reference qualified by this table's alias, or its name
// when no alias is set.
func (t *TableExpr) C(name string) *ColumnExpr {
	q := t.Alias
	if q == "" {
		q = t.Name
	}
	return C(q, name)
}

func (*TableExpr) Kind() Kind       { return KindTable }
func (*TableExpr) Leaf() bool       { return true }
func (t *TableExpr) Metadata() Meta { return t.meta }

// JoinKind enumerates join types.
type JoinKind uint8

// Join kinds.
const (
	InnerJoin JoinKind = iota
	LeftJoin
	RightJoin
	FullJoin
	CrossJoin
)

func (k JoinKind) String() string {
	switch k {
	case InnerJoin:
		return "JOIN"
	case LeftJoin:
		return "LEFT JOIN"
	case RightJoin:
		return "RIGHT JOIN"
	case FullJoin:
		return "FULL JOIN"
	case CrossJoin:
		return "CROSS JOIN"
	}
	return "<invalid>"
}

// JoinExpr is a join between two table expressions. Left-deep chains are
// built by joining a JoinExpr with another table.
type JoinExpr struct {
	JoinKind JoinKind
	Left     Expr // TableExpr, JoinExpr or SelectExpr.
	Right    Expr
	On       Expr // nil for CROSS JOIN.
	meta     Meta
}

// Join returns an inner join of left and right on the given predicate.
func Join(left, right, on Expr) *JoinExpr {
	return &JoinExpr{JoinKind: InnerJoin, Left: left, Right: right, On: on}
}

// LeftJoinOn returns a left join of left and right on the given predicate.
func LeftJoinOn(left, right, on Expr) *JoinExpr {
	return &JoinExpr{JoinKind: LeftJoin, Left: left, Right: right, On: on}
}

func (*JoinExpr) Kind() Kind       { return KindJoin }
func (*JoinExpr) Leaf() bool       { return false }
func (j *JoinExpr) Metadata() Meta { return j.meta }

// OrderExpr is a single ORDER BY term.
type OrderExpr struct {
	X    Expr
	Desc bool
	meta Meta
}

// Asc returns an ascending order term.
func Asc(x Expr) *OrderExpr { return &OrderExpr{X: x} }

// Desc returns a descending order term.
func Desc(x Expr) *OrderExpr { return &OrderExpr{X: x, Desc: true} }

func (*OrderExpr) Kind() Kind       { return KindOrder }
func (*OrderExpr) Leaf() bool       { return false }
func (o *OrderExpr) Metadata() Meta { return o.meta }

// AliasExpr declares a select-list column with an alias.
type AliasExpr struct {
	X    Expr
	As   string
	meta Meta
}

// As returns the expression aliased with the given name.
func As(x Expr, alias string) *AliasExpr { return &AliasExpr{X: x, As: alias} }

func (*AliasExpr) Kind() Kind       { return KindAlias }
func (*AliasExpr) Leaf() bool       { return false }
func (a *AliasExpr) Metadata() Meta { return a.meta }

// LockStrength enumerates row-locking strengths for SELECT statements.
type LockStrength uint8

// Lock strengths.
const (
	LockNone LockStrength = iota
	LockShare
	LockUpdate
)

// LockOptions configures native row-level locking on a select expression.
// The database decides blocking semantics; the tree only carries the flag.
type LockOptions struct {
	Strength   LockStrength
	NoWait     bool
	SkipLocked bool
}

// SetOp enumerates set operations chaining select expressions.
type SetOp uint8

// Set operations.
const (
	SetUnion SetOp = iota
	SetUnionAll
	SetExcept
	SetIntersect
)

func (op SetOp) String() string {
	switch op {
	case SetUnion:
		return "UNION"
	case SetUnionAll:
		return "UNION ALL"
	case SetExcept:
		return "EXCEPT"
	case SetIntersect:
		return "INTERSECT"
	}
	return "<invalid>"
}

// setPart is one member of a select's set-operation chain.
type setPart struct {
	op SetOp
	x  *SelectExpr
}

// SelectExpr is a SELECT statement tree.
type SelectExpr struct {
	From     Expr // TableExpr, JoinExpr or SelectExpr (derived table).
	Columns  []Expr
	Where    Expr
	GroupBy  []Expr
	Having   Expr
	OrderBy  []*OrderExpr
	Offset   *int
	Limit    *int
	Distinct bool
	Lock     LockOptions
	Unions   []setPart // exported via Union/UnionAll modifiers only.
	meta     Meta
}

// Select returns a new SELECT tree over the given columns.
func Select(columns ...Expr) *SelectExpr {
	return &SelectExpr{Columns: columns}
}

// SelectFrom returns SELECT * over the given source.
func SelectFrom(from Expr) *SelectExpr {
	return &SelectExpr{From: from}
}

func (*SelectExpr) Kind() Kind       { return KindSelect }
func (*SelectExpr) Leaf() bool       { return false }
func (s *SelectExpr) Metadata() Meta { return s.meta }

// clone returns a shallow structural copy. Slices are copied so appends on
// the clone never alias the receiver's backing arrays.
func (s *SelectExpr) clone() *SelectExpr {
	c := *s
	c.Columns = append([]Expr(nil), s.Columns...)
	c.GroupBy = append([]Expr(nil), s.GroupBy...)
	c.OrderBy = append([]*OrderExpr(nil), s.OrderBy...)
	c.Unions = append([]setPart(nil), s.Unions...)
	c.meta = s.meta.clone()
	return &c
}

// WithMeta returns a copy of the select with the metadata key set.
func (s *SelectExpr) WithMeta(key string, value any) *SelectExpr {
	c := s.clone()
	c.meta = c.meta.with(key, value)
	return c
}

// FromTable returns a copy selecting from the given source.
func (s *SelectExpr) FromTable(from Expr) *SelectExpr {
	c := s.clone()
	c.From = from
	return c
}

// SetColumns returns a copy with the select list replaced.
func (s *SelectExpr) SetColumns(columns ...Expr) *SelectExpr {
	c := s.clone()
	c.Columns = columns
	return c
}

// AppendColumns returns a copy with columns appended to the select list.
func (s *SelectExpr) AppendColumns(columns ...Expr) *SelectExpr {
	c := s.clone()
	c.Columns = append(c.Columns, columns...)
	return c
}

// WherePred returns a copy with the predicate AND-ed onto the where clause.
func (s *SelectExpr) WherePred(p Expr) *SelectExpr {
	c := s.clone()
	if c.Where != nil {
		c.Where = And(c.Where, p)
	} else {
		c.Where = p
	}
	return c
}

// GroupByExprs returns a copy with group-by terms appended.
func (s *SelectExpr) GroupByExprs(gs ...Expr) *SelectExpr {
	c := s.clone()
	c.GroupBy = append(c.GroupBy, gs...)
	return c
}

// HavingPred returns a copy with the predicate AND-ed onto the having clause.
func (s *SelectExpr) HavingPred(p Expr) *SelectExpr {
	c := s.clone()
	if c.Having != nil {
		c.Having = And(c.Having, p)
	} else {
		c.Having = p
	}
	return c
}

// OrderByExprs returns a copy with order terms appended.
func (s *SelectExpr) OrderByExprs(os ...*OrderExpr) *SelectExpr {
	c := s.clone()
	c.OrderBy = append(c.OrderBy, os...)
	return c
}

// WithOffset returns a copy with the row offset set.
func (s *SelectExpr) WithOffset(n int) *SelectExpr {
	c := s.clone()
	c.Offset = &n
	return c
}

// WithLimit returns a copy with the row limit set.
func (s *SelectExpr) WithLimit(n int) *SelectExpr {
	c := s.clone()
	c.Limit = &n
	return c
}

// WithDistinct returns a copy with the DISTINCT flag set.
func (s *SelectExpr) WithDistinct() *SelectExpr {
	c := s.clone()
	c.Distinct = true
	return c
}

// WithLock returns a copy with native row locking requested.
func (s *SelectExpr) WithLock(opts LockOptions) *SelectExpr {
	c := s.clone()
	c.Lock = opts
	return c
}

// Union returns a copy with a UNION chained select.
func (s *SelectExpr) Union(other *SelectExpr) *SelectExpr {
	c := s.clone()
	c.Unions = append(c.Unions, setPart{op: SetUnion, x: other})
	return c
}

// UnionAll returns a copy with a UNION ALL chained select.
func (s *SelectExpr) UnionAll(other *SelectExpr) *SelectExpr {
	c := s.clone()
	c.Unions = append(c.Unions, setPart{op: SetUnionAll, x: other})
	return c
}

// Assignment pairs a column with the expression assigned to it in INSERT and
// UPDATE statements. Typed construction lives in the schema package, where
// the host type system rejects assigning a mismatched value to a column.
type Assignment struct {
	Column string
	Value  Expr
}

// Assign returns an assignment of the expression to the named column.
func Assign(column string, value Expr) Assignment {
	return Assignment{Column: column, Value: value}
}

// ConflictAction enumerates upsert behaviors.
type ConflictAction uint8

// Conflict actions.
const (
	DoNothing ConflictAction = iota
	DoUpdate
)

// ConflictExpr describes the insert-or-update clause of an insert.
type ConflictExpr struct {
	Columns []string // conflict target columns (ignored by MySQL).
	Action  ConflictAction
	Updates []Assignment
	meta    Meta
}

func (*ConflictExpr) Kind() Kind       { return KindConflict }
func (*ConflictExpr) Leaf() bool       { return false }
func (c *ConflictExpr) Metadata() Meta { return c.meta }

// InsertExpr is an INSERT statement tree.
type InsertExpr struct {
	Table     *TableExpr
	Columns   []string
	Values    [][]Expr // one row per element; empty with Defaults for DEFAULT VALUES.
	Defaults  bool
	Returning []Expr
	Conflict  *ConflictExpr
	meta      Meta
}

// Insert returns a new INSERT tree for the given table.
func Insert(table *TableExpr) *InsertExpr { return &InsertExpr{Table: table} }

func (*InsertExpr) Kind() Kind       { return KindInsert }
func (*InsertExpr) Leaf() bool       { return false }
func (i *InsertExpr) Metadata() Meta { return i.meta }

func (i *InsertExpr) clone() *InsertExpr {
	c := *i
	c.Columns = append([]string(nil), i.Columns...)
	c.Values = append([][]Expr(nil), i.Values...)
	c.Returning = append([]Expr(nil), i.Returning...)
	c.meta = i.meta.clone()
	return &c
}

// Set returns a copy with the assignments applied as a single inserted row.
// Repeated calls extend the same row.
func (i *InsertExpr) Set(as ...Assignment) *InsertExpr {
	c := i.clone()
	var row []Expr
	if len(c.Values) > 0 {
		// Copy the row: its backing array is shared with the receiver.
		row = append([]Expr(nil), c.Values[len(c.Values)-1]...)
		c.Values = c.Values[:len(c.Values)-1]
	}
	for _, a := range as {
		c.Columns = append(c.Columns, a.Column)
		row = append(row, a.Value)
	}
	c.Values = append(c.Values, row)
	return c
}

// Row returns a copy with an additional VALUES row appended. The values must
// match the declared column list in length and order.
func (i *InsertExpr) Row(values ...Expr) *InsertExpr {
	c := i.clone()
	c.Values = append(c.Values, values)
	return c
}

// WithReturning returns a copy with a RETURNING clause.
func (i *InsertExpr) WithReturning(cols ...Expr) *InsertExpr {
	c := i.clone()
	c.Returning = cols
	return c
}

// OnConflict returns a copy with an insert-or-update clause.
func (i *InsertExpr) OnConflict(conflict *ConflictExpr) *InsertExpr {
	c := i.clone()
	c.Conflict = conflict
	return c
}

// DefaultValues returns a copy inserting a row of all-default values.
func (i *InsertExpr) DefaultValues() *InsertExpr {
	c := i.clone()
	c.Defaults = true
	return c
}

// UpdateExpr is an UPDATE statement tree.
type UpdateExpr struct {
	Table       *TableExpr
	Assignments []Assignment
	Where       Expr
	meta        Meta
}

// Update returns a new UPDATE tree for the given table.
func Update(table *TableExpr) *UpdateExpr { return &UpdateExpr{Table: table} }

func (*UpdateExpr) Kind() Kind       { return KindUpdate }
func (*UpdateExpr) Leaf() bool       { return false }
func (u *UpdateExpr) Metadata() Meta { return u.meta }

func (u *UpdateExpr) clone() *UpdateExpr {
	c := *u
	c.Assignments = append([]Assignment(nil), u.Assignments...)
	c.meta = u.meta.clone()
	return &c
}

// Set returns a copy with the assignments appended.
func (u *UpdateExpr) Set(as ...Assignment) *UpdateExpr {
	c := u.clone()
	c.Assignments = append(c.Assignments, as...)
	return c
}

// WherePred returns a copy with the predicate AND-ed onto the where clause.
func (u *UpdateExpr) WherePred(p Expr) *UpdateExpr {
	c := u.clone()
	if c.Where != nil {
		c.Where = And(c.Where, p)
	} else {
		c.Where = p
	}
	return c
}

// DeleteExpr is a DELETE statement tree.
type DeleteExpr struct {
	Table *TableExpr
	Where Expr
	meta  Meta
}

// Delete returns a new DELETE tree for the given table.
func Delete(table *TableExpr) *DeleteExpr { return &DeleteExpr{Table: table} }

func (*DeleteExpr) Kind() Kind       { return KindDelete }
func (*DeleteExpr) Leaf() bool       { return false }
func (d *DeleteExpr) Metadata() Meta { return d.meta }

// WherePred returns a copy with the predicate AND-ed onto the where clause.
func (d *DeleteExpr) WherePred(p Expr) *DeleteExpr {
	c := *d
	c.meta = d.meta.clone()
	if c.Where != nil {
		c.Where = And(c.Where, p)
	} else {
		c.Where = p
	}
	return &c
}
