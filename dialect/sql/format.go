package sql

import (
	"fmt"
	"strings"
)

// Options controls the textual shape of formatted SQL. Formatting is a pure
// function of (tree, features, options): the same inputs always produce
// byte-identical output, so golden tests can diff the text directly.
type Options struct {
	// Beautify breaks major clauses onto their own lines.
	Beautify bool
	// IndentSize is the number of spaces per nesting level when beautifying.
	IndentSize int
}

// Format renders the expression tree into SQL text and its positional
// argument list. Arguments are appended in the exact order their
// placeholders are written, so text order and argument order always match.
func Format(e Expr, f Features, opts Options) (string, []any, error) {
	w := &Writer{f: f, opts: opts}
	w.Expr(e)
	if w.err != nil {
		return "", nil, w.err
	}
	return w.b.String(), w.args, nil
}

// MustFormat is Format for statically-known trees; it panics on error.
func MustFormat(e Expr, f Features, opts Options) (string, []any) {
	s, args, err := Format(e, f, opts)
	if err != nil {
		panic(err)
	}
	return s, args
}

// Writer accumulates SQL text and positional arguments during a format
// pass. Dialect hooks receive it to render their clauses through the same
// quoting and argument-ordering machinery.
type Writer struct {
	b     strings.Builder
	args  []any
	f     Features
	opts  Options
	depth int
	err   error
}

// WriteString appends verbatim text.
func (w *Writer) WriteString(s string) {
	if w.err != nil {
		return
	}
	w.b.WriteString(s)
}

// Ident writes an identifier, validating its length against the dialect
// limit and quoting it per the dialect policy.
func (w *Writer) Ident(name string) {
	if w.err != nil {
		return
	}
	if w.f.MaxIdentLen > 0 && len(name) > w.f.MaxIdentLen {
		w.fail(&LongIdentError{Ident: name, Limit: w.f.MaxIdentLen, Dialect: w.f.Name})
		return
	}
	if name == "*" {
		w.b.WriteString(name)
		return
	}
	if w.f.AlwaysQuote || needsQuote(name) {
		w.b.WriteByte(w.f.QuoteOpen)
		w.b.WriteString(name)
		w.b.WriteByte(w.f.QuoteClose)
	} else {
		w.b.WriteString(name)
	}
}

// Arg writes the next argument placeholder and appends the value to the
// argument list at the same moment, keeping the 1:1 order invariant.
func (w *Writer) Arg(v any) {
	if w.err != nil {
		return
	}
	w.args = append(w.args, v)
	w.b.WriteString(w.f.Placeholder(len(w.args)))
}

// fail records the first error; rendering short-circuits afterwards.
func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// sep writes a clause separator: a newline plus indentation when
// beautifying, a single space otherwise.
func (w *Writer) sep() {
	if w.err != nil {
		return
	}
	if !w.opts.Beautify {
		w.b.WriteByte(' ')
		return
	}
	w.b.WriteByte('\n')
	for i := 0; i < w.depth*w.opts.IndentSize; i++ {
		w.b.WriteByte(' ')
	}
}

// Expr renders any expression node.
func (w *Writer) Expr(e Expr) {
	if w.err != nil {
		return
	}
	switch e := e.(type) {
	case *ColumnExpr:
		if e.Qualifier != "" {
			w.Ident(e.Qualifier)
			w.WriteString(".")
		}
		w.Ident(e.Name)
	case *ArgExpr:
		if e.Err != nil {
			w.fail(e.Err)
			return
		}
		w.Arg(e.V)
	case *RawExpr:
		w.WriteString(e.Fragment)
	case *ListExpr:
		w.WriteString("(")
		if len(e.Items) == 0 {
			// An empty IN list matches nothing; NULL keeps the statement
			// valid while preserving that semantics.
			w.WriteString("NULL")
		}
		for i, item := range e.Items {
			if i > 0 {
				w.WriteString(", ")
			}
			w.Expr(item)
		}
		w.WriteString(")")
	case *UnaryExpr:
		w.unary(e)
	case *BinaryExpr:
		w.binary(e)
	case *FuncExpr:
		w.fn(e)
	case *TableExpr:
		w.table(e)
	case *JoinExpr:
		w.join(e)
	case *OrderExpr:
		w.Expr(e.X)
		if e.Desc {
			w.WriteString(" DESC")
		}
	case *AliasExpr:
		w.operand(e.X)
		w.WriteString(" AS ")
		w.Ident(e.As)
	case *SelectExpr:
		w.selectExpr(e)
	case *InsertExpr:
		w.insert(e)
	case *UpdateExpr:
		w.update(e)
	case *DeleteExpr:
		w.delete(e)
	case *CreateTableExpr:
		w.createTable(e)
	case *AlterTableExpr:
		w.alterTable(e)
	case *CreateIndexExpr:
		w.createIndex(e)
	case nil:
		w.fail(fmt.Errorf("sql: cannot format a nil expression"))
	default:
		w.fail(fmt.Errorf("sql: cannot format expression of kind %d (%T)", e.Kind(), e))
	}
}

// operand renders e, parenthesizing subqueries and nested logical trees.
func (w *Writer) operand(e Expr) {
	switch e := e.(type) {
	case *SelectExpr:
		w.WriteString("(")
		w.depth++
		w.Expr(e)
		w.depth--
		w.WriteString(")")
	default:
		w.Expr(e)
	}
}

func (w *Writer) unary(e *UnaryExpr) {
	if e.Op.postfix() {
		w.operand(e.X)
		w.WriteString(" ")
		w.WriteString(e.Op.String())
		return
	}
	w.WriteString(e.Op.String())
	switch e.Op {
	case OpNeg:
		// no space between sign and operand.
	default:
		w.WriteString(" ")
	}
	switch e.X.(type) {
	case *BinaryExpr:
		w.WriteString("(")
		w.Expr(e.X)
		w.WriteString(")")
	default:
		w.operand(e.X)
	}
}

// logical reports whether the operator is AND or OR.
func logical(op Op) bool { return op == OpAnd || op == OpOr }

func (w *Writer) binary(e *BinaryExpr) {
	w.binaryOperand(e.X, e.Op)
	w.WriteString(" ")
	w.WriteString(e.Op.String())
	w.WriteString(" ")
	w.binaryOperand(e.Y, e.Op)
}

// binaryOperand parenthesizes a child of a logical operator when the child
// is a different logical operator, preserving the tree's grouping in text.
func (w *Writer) binaryOperand(x Expr, parent Op) {
	if b, ok := x.(*BinaryExpr); ok && logical(parent) && logical(b.Op) && b.Op != parent {
		w.WriteString("(")
		w.Expr(x)
		w.WriteString(")")
		return
	}
	w.operand(x)
}

func (w *Writer) fn(e *FuncExpr) {
	// CAST renders with AS between value and the verbatim type name.
	if e.Name == "CAST" && len(e.Args) == 2 {
		w.WriteString("CAST(")
		w.Expr(e.Args[0])
		w.WriteString(" AS ")
		w.Expr(e.Args[1])
		w.WriteString(")")
		return
	}
	w.WriteString(e.Name)
	w.WriteString("(")
	if e.Distinct {
		w.WriteString("DISTINCT ")
	}
	for i, a := range e.Args {
		if i > 0 {
			w.WriteString(", ")
		}
		w.operand(a)
	}
	w.WriteString(")")
}

// Cast returns a CAST(x AS typeName) expression. The type name is written
// verbatim, as supplied by the value type registered for the column.
func Cast(x Expr, typeName string) *FuncExpr {
	return Func("CAST", x, Raw(typeName))
}

func (w *Writer) table(e *TableExpr) {
	if e.Schema != "" {
		w.Ident(e.Schema)
		w.WriteString(".")
	}
	w.Ident(e.Name)
	if e.Alias != "" {
		w.WriteString(" AS ")
		w.Ident(e.Alias)
	}
}

func (w *Writer) join(e *JoinExpr) {
	w.fromOperand(e.Left)
	w.sep()
	w.WriteString(e.JoinKind.String())
	w.WriteString(" ")
	w.fromOperand(e.Right)
	if e.On != nil {
		w.WriteString(" ON ")
		w.Expr(e.On)
	}
}

// fromOperand renders a FROM-position expression, parenthesizing derived
// tables.
func (w *Writer) fromOperand(e Expr) {
	if s, ok := e.(*SelectExpr); ok {
		w.WriteString("(")
		w.depth++
		w.Expr(s)
		w.depth--
		w.WriteString(")")
		return
	}
	w.Expr(e)
}

func (w *Writer) selectExpr(e *SelectExpr) {
	w.WriteString("SELECT ")
	if e.Distinct {
		w.WriteString("DISTINCT ")
	}
	if len(e.Columns) == 0 {
		w.WriteString("*")
	}
	for i, c := range e.Columns {
		if i > 0 {
			w.WriteString(", ")
		}
		w.Expr(c)
	}
	if e.From != nil {
		w.sep()
		w.WriteString("FROM ")
		w.fromOperand(e.From)
	}
	if e.Where != nil {
		w.sep()
		w.WriteString("WHERE ")
		w.Expr(e.Where)
	}
	if len(e.GroupBy) > 0 {
		w.sep()
		w.WriteString("GROUP BY ")
		for i, g := range e.GroupBy {
			if i > 0 {
				w.WriteString(", ")
			}
			w.Expr(g)
		}
	}
	if e.Having != nil {
		w.sep()
		w.WriteString("HAVING ")
		w.Expr(e.Having)
	}
	for _, u := range e.Unions {
		w.sep()
		w.WriteString(u.op.String())
		w.sep()
		w.Expr(u.x)
	}
	if len(e.OrderBy) > 0 {
		w.sep()
		w.WriteString("ORDER BY ")
		for i, o := range e.OrderBy {
			if i > 0 {
				w.WriteString(", ")
			}
			w.orderTerm(e, o)
		}
	}
	if e.Limit != nil || e.Offset != nil {
		if w.f.RenderLimitOffset == nil {
			w.fail(&UnsupportedError{Feature: "LIMIT/OFFSET pagination", Dialect: w.f.Name})
			return
		}
		if err := w.f.RenderLimitOffset(w, e.Limit, e.Offset); err != nil {
			w.fail(err)
			return
		}
	}
	if e.Lock.Strength != LockNone {
		if w.f.RenderLock == nil {
			w.fail(&UnsupportedError{Feature: "row-level locking", Dialect: w.f.Name})
			return
		}
		if err := w.f.RenderLock(w, e.Lock); err != nil {
			w.fail(err)
		}
	}
}

// orderTerm renders one ORDER BY term, resolving unqualified columns
// against the select list aliases. Dialects whose pagination strategy
// depends on select-list resolution reject unresolved columns.
func (w *Writer) orderTerm(s *SelectExpr, o *OrderExpr) {
	if c, ok := o.X.(*ColumnExpr); ok && c.Qualifier == "" {
		found := len(s.Columns) == 0 // SELECT * resolves everything.
		for _, sc := range s.Columns {
			switch sc := sc.(type) {
			case *AliasExpr:
				found = found || sc.As == c.Name
			case *ColumnExpr:
				found = found || sc.Name == c.Name
			}
		}
		if !found && w.f.RequireOrderInSelect {
			w.fail(&OrderResolveError{Column: c.Name, Dialect: w.f.Name})
			return
		}
	}
	w.Expr(o)
}

func (w *Writer) insert(e *InsertExpr) {
	w.WriteString("INSERT INTO ")
	w.table(e.Table)
	switch {
	case e.Defaults && len(e.Columns) == 0:
		w.WriteString(" ")
		w.WriteString(w.f.DefaultValues)
	default:
		w.WriteString(" (")
		for i, c := range e.Columns {
			if i > 0 {
				w.WriteString(", ")
			}
			w.Ident(c)
		}
		w.WriteString(")")
		w.sep()
		w.WriteString("VALUES ")
		for i, row := range e.Values {
			if i > 0 {
				w.WriteString(", ")
			}
			if len(row) != len(e.Columns) {
				w.fail(fmt.Errorf("sql: insert row %d has %d values for %d columns", i, len(row), len(e.Columns)))
				return
			}
			w.WriteString("(")
			for j, v := range row {
				if j > 0 {
					w.WriteString(", ")
				}
				w.Expr(v)
			}
			w.WriteString(")")
		}
	}
	if e.Conflict != nil {
		if w.f.RenderConflict == nil {
			w.fail(&UnsupportedError{Feature: "insert-or-update", Dialect: w.f.Name})
			return
		}
		if err := w.f.RenderConflict(w, e.Columns, e.Conflict); err != nil {
			w.fail(err)
			return
		}
	}
	if len(e.Returning) > 0 {
		if !w.f.SupportsReturning {
			w.fail(&UnsupportedError{Feature: "RETURNING", Dialect: w.f.Name})
			return
		}
		w.sep()
		w.WriteString("RETURNING ")
		for i, c := range e.Returning {
			if i > 0 {
				w.WriteString(", ")
			}
			w.Expr(c)
		}
	}
}

func (w *Writer) update(e *UpdateExpr) {
	w.WriteString("UPDATE ")
	w.table(e.Table)
	w.sep()
	w.WriteString("SET ")
	if len(e.Assignments) == 0 {
		w.fail(fmt.Errorf("sql: update of %q has no assignments", e.Table.Name))
		return
	}
	for i, a := range e.Assignments {
		if i > 0 {
			w.WriteString(", ")
		}
		w.Ident(a.Column)
		w.WriteString(" = ")
		w.Expr(a.Value)
	}
	if e.Where != nil {
		w.sep()
		w.WriteString("WHERE ")
		w.Expr(e.Where)
	}
}

func (w *Writer) delete(e *DeleteExpr) {
	w.WriteString("DELETE FROM ")
	w.table(e.Table)
	if e.Where != nil {
		w.sep()
		w.WriteString("WHERE ")
		w.Expr(e.Where)
	}
}
