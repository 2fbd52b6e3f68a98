package schema

import (
	"fmt"
	"strings"

	"github.com/quarrydb/quarry/dialect/sql"
)

// CycleError is returned when automatic join expansion meets a reference
// chain that returns to a table already on the current path. The chain
// names the full path, first table repeated at the end.
type CycleError struct {
	Chain []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("schema: reference cycle detected during join expansion: %s", strings.Join(e.Chain, " -> "))
}

// PlannedColumn is one select-list entry of a join plan.
type PlannedColumn struct {
	// Column is the source column metadata.
	Column AnyColumn
	// TableAlias qualifies the column in the rendered SQL.
	TableAlias string
	// Alias is the unique result-column alias.
	Alias string
	// Path is the entity property path to the entity instance this column
	// populates: empty for the root entity, ["department"] for columns of
	// the entity nested under the department property, and so on.
	Path []string
}

// JoinPlan is the result of automatic join expansion: the FROM clause
// (a left-join chain when references are expanded) and the aliased select
// list covering every bound property, root and nested.
type JoinPlan struct {
	Table *Table
	From  sql.Expr
	// RootAlias qualifies the root table's columns in the rendered SQL. It
	// differs from the table's own qualifier when expansion aliases the
	// root table.
	RootAlias string
	Columns   []PlannedColumn
}

// SelectColumns returns the plan's select list as aliased expressions, in
// plan order.
func (p *JoinPlan) SelectColumns() []sql.Expr {
	cols := make([]sql.Expr, len(p.Columns))
	for i, pc := range p.Columns {
		expr := sql.C(pc.TableAlias, pc.Column.Name())
		if pc.Alias != pc.Column.Name() {
			cols[i] = sql.As(expr, pc.Alias)
		} else {
			cols[i] = expr
		}
	}
	return cols
}

// Plan computes the join plan for the table. With expandRefs set, the plan
// walks the transitive closure of reference bindings, building a left-join
// chain with a unique alias per joined table; without it, the plan covers
// only the table's own columns.
//
// The reference graph along any single path must be acyclic. A chain that
// revisits a table on the current path fails with *CycleError before any
// SQL is built. Two paths reaching the same table (a diamond) are legal
// and produce two independently-aliased joins.
func Plan(t *Table, expandRefs bool) (*JoinPlan, error) {
	if !expandRefs {
		plan := &JoinPlan{Table: t, From: t.Ref(), RootAlias: t.qualifier()}
		for _, c := range t.columns {
			plan.Columns = append(plan.Columns, PlannedColumn{
				Column:     c,
				TableAlias: t.qualifier(),
				Alias:      c.Name(),
			})
		}
		return plan, nil
	}
	p := &planner{visiting: map[*Table]bool{t: true}}
	alias := p.nextAlias()
	from := sql.Expr(sql.Table(t.name).As(alias))
	plan := &JoinPlan{Table: t, RootAlias: alias}
	if err := p.expand(t, alias, nil, []string{t.name}, &from, plan); err != nil {
		return nil, err
	}
	plan.From = from
	return plan, nil
}

type planner struct {
	n        int
	visiting map[*Table]bool // tables on the current reference path.
}

func (p *planner) nextAlias() string {
	a := fmt.Sprintf("t%d", p.n)
	p.n++
	return a
}

func (p *planner) expand(t *Table, alias string, path, chain []string, from *sql.Expr, plan *JoinPlan) error {
	for _, c := range t.columns {
		plan.Columns = append(plan.Columns, PlannedColumn{
			Column:     c,
			TableAlias: alias,
			Alias:      alias + "_" + c.Name(),
			Path:       path,
		})
		ref := c.Ref()
		if ref == nil {
			continue
		}
		if p.visiting[ref] {
			return &CycleError{Chain: append(append([]string(nil), chain...), ref.name)}
		}
		refPK := ref.PrimaryKey()
		if len(refPK) != 1 {
			return fmt.Errorf("schema: cannot expand reference %s.%s: table %q needs exactly one primary-key column, has %d",
				t.name, c.Name(), ref.name, len(refPK))
		}
		refAlias := p.nextAlias()
		on := sql.EQ(sql.C(alias, c.Name()), sql.C(refAlias, refPK[0].Name()))
		*from = sql.LeftJoinOn(*from, sql.Table(ref.name).As(refAlias), on)
		binds := c.BindPath()
		childPath := append(append([]string(nil), path...), binds[len(binds)-1])
		p.visiting[ref] = true
		err := p.expand(ref, refAlias, childPath, append(append([]string(nil), chain...), ref.name), from, plan)
		delete(p.visiting, ref)
		if err != nil {
			return err
		}
	}
	return nil
}
