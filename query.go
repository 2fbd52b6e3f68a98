package quarry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/schema"
)

// Query is a lazy query over a table. Modifiers return a derived query and
// leave the receiver untouched, so partial queries can be held and extended
// in several directions. Nothing executes until a terminal is called.
type Query struct {
	client   *Client
	table    *schema.Table
	expand   bool
	preds    []sql.Expr
	columns  []sql.Expr
	orders   []*sql.OrderExpr
	groups   []sql.Expr
	having   sql.Expr
	offset   *int
	limit    *int
	distinct bool
	lock     *sql.LockOptions
	unions   []unionPart
}

type unionPart struct {
	q   *Query
	all bool
}

// From starts a query over the given table.
func (c *Client) From(t *schema.Table) *Query {
	return &Query{client: c, table: t}
}

// clone returns a shallow copy. Slice fields are append-only, so sharing
// the backing arrays between derived queries is safe as long as each append
// goes through a fresh copy.
func (q *Query) clone() *Query {
	c := *q
	c.preds = q.preds[:len(q.preds):len(q.preds)]
	c.columns = q.columns[:len(q.columns):len(q.columns)]
	c.orders = q.orders[:len(q.orders):len(q.orders)]
	c.groups = q.groups[:len(q.groups):len(q.groups)]
	c.unions = q.unions[:len(q.unions):len(q.unions)]
	return &c
}

// WithRefs expands reference columns into left joins, so entities come back
// with their nested entities populated. Without it, reference columns hold
// only the raw foreign-key value.
func (q *Query) WithRefs() *Query {
	c := q.clone()
	c.expand = true
	return c
}

// Filter adds predicates, combined with AND.
func (q *Query) Filter(preds ...sql.Expr) *Query {
	c := q.clone()
	c.preds = append(c.preds, preds...)
	return c
}

// Select appends columns to the select list, replacing the plan's default
// list. A query with a custom select list yields rowsets rather than
// entities; use Rows to execute it.
func (q *Query) Select(columns ...sql.Expr) *Query {
	c := q.clone()
	c.columns = append(c.columns, columns...)
	return c
}

// Order appends order terms.
func (q *Query) Order(orders ...*sql.OrderExpr) *Query {
	c := q.clone()
	c.orders = append(c.orders, orders...)
	return c
}

// Offset sets the number of rows to skip.
func (q *Query) Offset(n int) *Query {
	c := q.clone()
	c.offset = &n
	return c
}

// Limit bounds the number of rows returned.
func (q *Query) Limit(n int) *Query {
	c := q.clone()
	c.limit = &n
	return c
}

// GroupBy adds grouping terms.
func (q *Query) GroupBy(groups ...sql.Expr) *Query {
	c := q.clone()
	c.groups = append(c.groups, groups...)
	return c
}

// Having sets the group filter.
func (q *Query) Having(p sql.Expr) *Query {
	c := q.clone()
	c.having = p
	return c
}

// Distinct deduplicates result rows.
func (q *Query) Distinct() *Query {
	c := q.clone()
	c.distinct = true
	return c
}

// ForUpdate locks the selected rows for update. Rendering fails on dialects
// without row locking.
func (q *Query) ForUpdate(opts ...func(*sql.LockOptions)) *Query {
	c := q.clone()
	lock := sql.LockOptions{Strength: sql.LockUpdate}
	for _, opt := range opts {
		opt(&lock)
	}
	c.lock = &lock
	return c
}

// ForShare locks the selected rows in shared mode.
func (q *Query) ForShare(opts ...func(*sql.LockOptions)) *Query {
	c := q.clone()
	lock := sql.LockOptions{Strength: sql.LockShare}
	for _, opt := range opts {
		opt(&lock)
	}
	c.lock = &lock
	return c
}

// Union appends a UNION (distinct) branch. Both sides keep their own
// filters; order and pagination of the receiver apply to the combined rows.
func (q *Query) Union(other *Query) *Query {
	c := q.clone()
	c.unions = append(c.unions, unionPart{q: other})
	return c
}

// UnionAll appends a UNION ALL branch.
func (q *Query) UnionAll(other *Query) *Query {
	c := q.clone()
	c.unions = append(c.unions, unionPart{q: other, all: true})
	return c
}

// plan computes the join plan backing the query's default select list.
func (q *Query) plan() (*schema.JoinPlan, error) {
	return schema.Plan(q.table, q.expand)
}

// retarget points root-table column qualifiers at the plan's root alias.
// Clause expressions are written against the table itself; once expansion
// aliases the root table the original qualifier no longer resolves.
func (q *Query) retarget(plan *schema.JoinPlan, e sql.Expr) sql.Expr {
	if e == nil {
		return nil
	}
	return sql.Rewrite(e, func(x sql.Expr) sql.Expr {
		c, ok := x.(*sql.ColumnExpr)
		if !ok || c.Qualifier == "" || c.Qualifier == plan.RootAlias {
			return x
		}
		if c.Qualifier != q.table.Name() && c.Qualifier != q.table.Alias() {
			return x
		}
		cc := *c
		cc.Qualifier = plan.RootAlias
		return &cc
	})
}

// build assembles the statement tree. The select list defaults to the join
// plan's columns; pagination, grouping and locking attach in clause order.
func (q *Query) build(plan *schema.JoinPlan) (*sql.SelectExpr, error) {
	var sel *sql.SelectExpr
	if len(q.columns) > 0 {
		columns := make([]sql.Expr, len(q.columns))
		for i, c := range q.columns {
			columns[i] = q.retarget(plan, c)
		}
		sel = sql.Select(columns...).FromTable(plan.From)
	} else {
		sel = sql.Select(plan.SelectColumns()...).FromTable(plan.From)
	}
	if len(q.preds) > 0 {
		preds := make([]sql.Expr, len(q.preds))
		for i, p := range q.preds {
			preds[i] = q.retarget(plan, p)
		}
		sel = sel.WherePred(sql.And(preds...))
	}
	if len(q.groups) > 0 {
		groups := make([]sql.Expr, len(q.groups))
		for i, g := range q.groups {
			groups[i] = q.retarget(plan, g)
		}
		sel = sel.GroupByExprs(groups...)
	}
	if q.having != nil {
		sel = sel.HavingPred(q.retarget(plan, q.having))
	}
	if q.distinct {
		sel = sel.WithDistinct()
	}
	for _, u := range q.unions {
		up, err := u.q.plan()
		if err != nil {
			return nil, err
		}
		branch, err := u.q.build(up)
		if err != nil {
			return nil, err
		}
		if u.all {
			sel = sel.UnionAll(branch)
		} else {
			sel = sel.Union(branch)
		}
	}
	if len(q.orders) > 0 {
		orders := make([]*sql.OrderExpr, len(q.orders))
		for i, o := range q.orders {
			orders[i] = q.retarget(plan, o).(*sql.OrderExpr)
		}
		sel = sel.OrderByExprs(orders...)
	}
	if q.offset != nil {
		sel = sel.WithOffset(*q.offset)
	}
	if q.limit != nil {
		sel = sel.WithLimit(*q.limit)
	}
	if q.lock != nil {
		sel = sel.WithLock(*q.lock)
	}
	return sel, nil
}

// Rows executes the query and returns the raw rowset. This is the terminal
// for queries with a custom select list.
func (q *Query) Rows(ctx context.Context) (*sql.Rowset, error) {
	plan, err := q.plan()
	if err != nil {
		return nil, err
	}
	sel, err := q.build(plan)
	if err != nil {
		return nil, err
	}
	return q.client.Query(ctx, sel)
}

// All executes the query and materializes every row into an entity.
func (q *Query) All(ctx context.Context) ([]*Entity, error) {
	plan, err := q.plan()
	if err != nil {
		return nil, err
	}
	sel, err := q.build(plan)
	if err != nil {
		return nil, err
	}
	rs, err := q.client.Query(ctx, sel)
	if err != nil {
		return nil, NewQueryError(q.table.Name(), "select", err)
	}
	return materialize(q.client, plan, rs)
}

// First returns the first matching entity, or a NotFoundError carrying the
// rendered statement when there is none.
func (q *Query) First(ctx context.Context) (*Entity, error) {
	ents, err := q.Limit(1).All(ctx)
	if err != nil {
		return nil, err
	}
	if len(ents) == 0 {
		return nil, NewNotFoundErrorSQL(q.table.Name(), q.renderForError())
	}
	return ents[0], nil
}

// Only returns the single matching entity. Zero matches fail with a
// NotFoundError, more than one with a NotSingularError; both carry the
// rendered statement.
func (q *Query) Only(ctx context.Context) (*Entity, error) {
	ents, err := q.Limit(2).All(ctx)
	if err != nil {
		return nil, err
	}
	switch len(ents) {
	case 0:
		return nil, NewNotFoundErrorSQL(q.table.Name(), q.renderForError())
	case 1:
		return ents[0], nil
	default:
		return nil, NewNotSingularErrorSQL(q.table.Name(), len(ents), q.renderForError())
	}
}

// Exists reports whether any row matches.
func (q *Query) Exists(ctx context.Context) (bool, error) {
	rs, err := q.Select(sql.Raw("1")).Limit(1).Rows(ctx)
	if err != nil {
		return false, NewQueryError(q.table.Name(), "exist", err)
	}
	return rs.Len() > 0, nil
}

// Count returns the number of matching rows, ignoring order and pagination.
// A grouped query is counted by executing it and counting result rows.
func (q *Query) Count(ctx context.Context) (int, error) {
	stripped := q.clone()
	stripped.orders = nil
	stripped.offset = nil
	stripped.limit = nil
	if len(q.groups) > 0 || len(q.unions) > 0 {
		rs, err := stripped.Rows(ctx)
		if err != nil {
			return 0, NewQueryError(q.table.Name(), "count", err)
		}
		return rs.Len(), nil
	}
	stripped.columns = []sql.Expr{sql.Count(sql.Raw("*"))}
	rs, err := stripped.Rows(ctx)
	if err != nil {
		return 0, NewQueryError(q.table.Name(), "count", err)
	}
	if rs.Len() != 1 {
		return 0, NewQueryError(q.table.Name(), "count", &AggregateValueError{Count: rs.Len(), SQL: stripped.renderForError()})
	}
	row, err := rs.At(0)
	if err != nil {
		return 0, err
	}
	return toInt(row[0])
}

// Page is one window of a paged query.
type Page struct {
	Items []*Entity
	// Total is the number of rows matching the query before pagination.
	Total int
}

// Page executes the query with the given window and pairs the items with
// the total count of the unpaginated query, for page-navigation UIs.
func (q *Query) Page(ctx context.Context, offset, limit int) (*Page, error) {
	total, err := q.Count(ctx)
	if err != nil {
		return nil, err
	}
	items, err := q.Offset(offset).Limit(limit).All(ctx)
	if err != nil {
		return nil, err
	}
	return &Page{Items: items, Total: total}, nil
}

// renderForError formats the statement for inclusion in an error message.
// Rendering failures yield an empty string rather than masking the error
// being built.
func (q *Query) renderForError() string {
	plan, err := q.plan()
	if err != nil {
		return ""
	}
	sel, err := q.build(plan)
	if err != nil {
		return ""
	}
	query, _, err := q.client.Format(sel)
	if err != nil {
		return ""
	}
	return query
}

// toInt normalizes the driver's representation of an integer column.
func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int64:
		return int(n), nil
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case float64:
		return int(n), nil
	case []byte:
		return strconv.Atoi(string(n))
	case string:
		return strconv.Atoi(n)
	default:
		return 0, fmt.Errorf("quarry: cannot read %T as an integer count", v)
	}
}
