package quarry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/schema"
	"github.com/quarrydb/quarry/sqltype"
)

// Entity is a change-tracked row bound to a table definition. Column values
// are held decoded to their element types; writes go through Set and are
// recorded in a per-instance change-set until FlushChanges writes them back.
//
// Entities reached through reference columns are shared: two entities whose
// rows point at the same referenced row hold the same *Entity, so a change
// made through one is visible through the other. An Entity is not safe for
// concurrent use.
type Entity struct {
	table     *schema.Table
	client    *Client
	values    map[string]any     // column name -> decoded value
	refs      map[string]*Entity // property name -> nested entity
	changes   map[string]any     // column name -> bound value pending write
	discarded bool
}

// NewEntity returns a blank entity bound to the table. It is the starting
// point for manual construction; entities loaded from the database come out
// of query terminals instead.
func NewEntity(c *Client, t *schema.Table) *Entity {
	return &Entity{
		table:  t,
		client: c,
		values: make(map[string]any),
	}
}

// Table returns the table definition the entity is bound to.
func (e *Entity) Table() *schema.Table {
	return e.table
}

// Value returns the decoded value of the named column and whether the
// column has been populated. Nested entities are reached through Ref, not
// Value.
func (e *Entity) Value(column string) (any, bool) {
	v, ok := e.values[column]
	return v, ok
}

// Ref returns the nested entity under the given property name, or nil when
// the property is absent or was not loaded.
func (e *Entity) Ref(property string) *Entity {
	return e.refs[property]
}

// Changed reports whether the entity has unwritten changes.
func (e *Entity) Changed() bool {
	return len(e.changes) > 0
}

// ChangedColumns returns the names of columns with pending changes.
func (e *Entity) ChangedColumns() []string {
	cols := make([]string, 0, len(e.changes))
	for name := range e.changes {
		cols = append(cols, name)
	}
	return cols
}

// Discard marks the in-memory state stale and drops pending changes from
// consideration: a discarded entity never writes back, and flushing another
// entity that shares it fails if it still had changes.
func (e *Entity) Discard() {
	e.discarded = true
}

// IsDiscarded reports whether Discard was called.
func (e *Entity) IsDiscarded() bool {
	return e.discarded
}

// Get reads a typed column value from the entity. The column must belong to
// the entity's table; use Ref to traverse into nested entities first. A
// populated NULL yields the zero value.
func Get[T any](e *Entity, c *schema.Column[T]) (T, error) {
	var zero T
	if c.Table() != e.table {
		return zero, fmt.Errorf("quarry: column %s.%s does not belong to %s", c.Table().Name(), c.Name(), e.table.Name())
	}
	v, ok := e.values[c.Name()]
	if !ok {
		return zero, fmt.Errorf("quarry: column %q was not selected into this %s", c.Name(), e.table.Name())
	}
	if v == nil {
		return zero, nil
	}
	tv, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("quarry: column %q holds %T, not %T", c.Name(), v, zero)
	}
	return tv, nil
}

// MustGet is Get that panics on error.
func MustGet[T any](e *Entity, c *schema.Column[T]) T {
	v, err := Get(e, c)
	if err != nil {
		panic(err)
	}
	return v
}

// Set writes a typed column value and records it in the change-set. The
// value is bound through the column's converter immediately, so a binding
// failure surfaces here rather than at flush time.
func Set[T any](e *Entity, c *schema.Column[T], v T) error {
	if c.Table() != e.table {
		return fmt.Errorf("quarry: column %s.%s does not belong to %s", c.Table().Name(), c.Name(), e.table.Name())
	}
	bound, err := c.ValueType().Bind(v)
	if err != nil {
		return NewValidationError(c.Name(), err)
	}
	e.values[c.Name()] = v
	if e.changes == nil {
		e.changes = make(map[string]any)
	}
	e.changes[c.Name()] = bound
	return nil
}

// SetOpt applies a tri-state value to the entity. Unset is a no-op, an
// explicit NULL records a NULL write, and a present value behaves like Set.
func SetOpt[T any](e *Entity, c *schema.Column[T], o sqltype.Optional[T]) error {
	if !o.IsSet() {
		return nil
	}
	if o.IsNull() {
		if c.Table() != e.table {
			return fmt.Errorf("quarry: column %s.%s does not belong to %s", c.Table().Name(), c.Name(), e.table.Name())
		}
		e.values[c.Name()] = nil
		if e.changes == nil {
			e.changes = make(map[string]any)
		}
		e.changes[c.Name()] = nil
		return nil
	}
	v, _ := o.Get()
	return Set(e, c, v)
}

// SetValue is the erased form of Set, for callers holding column metadata
// rather than a typed column.
func (e *Entity) SetValue(c schema.AnyColumn, v any) error {
	if c.Table() != e.table {
		return fmt.Errorf("quarry: column %s.%s does not belong to %s", c.Table().Name(), c.Name(), e.table.Name())
	}
	bound, err := c.Type().BindValue(v)
	if err != nil {
		return NewValidationError(c.Name(), err)
	}
	e.values[c.Name()] = v
	if e.changes == nil {
		e.changes = make(map[string]any)
	}
	e.changes[c.Name()] = bound
	return nil
}

// FlushChanges writes pending changes back as a minimal UPDATE of the
// changed non-key columns, keyed on the primary key, then clears the
// change-set. Nested entities with pending changes are flushed first. An
// entity with no changes is a no-op. Flushing fails with
// *DiscardedChangesError when this entity, or a nested entity it shares,
// was discarded while still carrying changes.
func (e *Entity) FlushChanges(ctx context.Context) error {
	return e.flush(ctx, make(map[*Entity]bool))
}

func (e *Entity) flush(ctx context.Context, seen map[*Entity]bool) error {
	if seen[e] {
		return nil
	}
	seen[e] = true
	for prop, ref := range e.refs {
		if err := ref.flush(ctx, seen); err != nil {
			var dce *DiscardedChangesError
			if errors.As(err, &dce) && dce.Column == "" {
				return &DiscardedChangesError{Label: dce.Label, Column: prop}
			}
			return err
		}
	}
	if len(e.changes) == 0 {
		return nil
	}
	if e.discarded {
		return &DiscardedChangesError{Label: e.table.Name()}
	}
	if e.client == nil {
		return fmt.Errorf("quarry: entity %s is not bound to a client", e.table.Name())
	}
	pk := e.table.PrimaryKey()
	if len(pk) == 0 {
		return fmt.Errorf("quarry: table %q has no primary key to flush against", e.table.Name())
	}
	var (
		assignments []sql.Assignment
		preds       []sql.Expr
	)
	// Assignments follow the table's column order so the same logical
	// flush always renders the same statement.
	for _, col := range e.table.Columns() {
		bound, ok := e.changes[col.Name()]
		if !ok || col.IsPrimary() {
			continue
		}
		assignments = append(assignments, sql.Assign(col.Name(), sql.Arg(bound)))
	}
	if len(assignments) == 0 {
		e.changes = nil
		return nil
	}
	for _, c := range pk {
		v, ok := e.values[c.Name()]
		if !ok {
			return fmt.Errorf("quarry: entity %s has no value for key column %q", e.table.Name(), c.Name())
		}
		bound, err := c.Type().BindValue(v)
		if err != nil {
			return NewValidationError(c.Name(), err)
		}
		preds = append(preds, sql.EQ(sql.Column(c.Name()), sql.Arg(bound)))
	}
	stmt := sql.Update(e.table.Ref()).Set(assignments...).WherePred(sql.And(preds...))
	if _, err := e.client.Exec(ctx, stmt); err != nil {
		return NewMutationError(e.table.Name(), "update", err)
	}
	e.changes = nil
	return nil
}

// entityKey identifies one materialized row instance during a single
// query's materialization: same table, same primary key, same pointer.
type entityKey struct {
	table *schema.Table
	pk    string
}

// planGroup is the per-path slice of a join plan's select list.
type planGroup struct {
	pathKey   string
	parentKey string
	prop      string // property name under the parent, empty for the root
	table     *schema.Table
	cols      []int // indices into plan.Columns
}

// groupPlan splits the plan's select list by entity path. Parent groups
// always precede their children in plan order.
func groupPlan(plan *schema.JoinPlan) []*planGroup {
	var (
		groups []*planGroup
		byKey  = make(map[string]*planGroup)
	)
	for i, pc := range plan.Columns {
		key := strings.Join(pc.Path, "\x00")
		g, ok := byKey[key]
		if !ok {
			g = &planGroup{pathKey: key, table: pc.Column.Table()}
			if n := len(pc.Path); n > 0 {
				g.prop = pc.Path[n-1]
				g.parentKey = strings.Join(pc.Path[:n-1], "\x00")
			}
			byKey[key] = g
			groups = append(groups, g)
		}
		g.cols = append(g.cols, i)
	}
	return groups
}

// materialize decodes a rowset into entities per the join plan. Rows that
// reach the same referenced row produce one shared *Entity, cached by
// table and primary key for the duration of the call.
func materialize(c *Client, plan *schema.JoinPlan, rs *sql.Rowset) ([]*Entity, error) {
	groups := groupPlan(plan)
	cache := make(map[entityKey]*Entity)
	appended := make(map[*Entity]bool)
	var out []*Entity
	for i := 0; i < rs.Len(); i++ {
		row, err := rs.At(i)
		if err != nil {
			return nil, err
		}
		if len(row) != len(plan.Columns) {
			return nil, fmt.Errorf("quarry: row has %d columns, plan has %d", len(row), len(plan.Columns))
		}
		byPath := make(map[string]*Entity, len(groups))
		for _, g := range groups {
			ent, err := materializeGroup(c, g, plan, row, cache)
			if err != nil {
				return nil, err
			}
			if ent == nil {
				continue
			}
			byPath[g.pathKey] = ent
			if g.pathKey == "" {
				if !appended[ent] {
					appended[ent] = true
					out = append(out, ent)
				}
				continue
			}
			if parent := byPath[g.parentKey]; parent != nil {
				if parent.refs == nil {
					parent.refs = make(map[string]*Entity)
				}
				parent.refs[g.prop] = ent
			}
		}
	}
	return out, nil
}

// materializeGroup builds or reuses the entity instance for one path group
// of one row. It returns nil for an absent outer-joined row, detected by a
// NULL primary key.
func materializeGroup(c *Client, g *planGroup, plan *schema.JoinPlan, row []any, cache map[entityKey]*Entity) (*Entity, error) {
	var (
		pkParts []string
		sawPK   bool
		nullPK  bool
	)
	for _, i := range g.cols {
		col := plan.Columns[i].Column
		if !col.IsPrimary() {
			continue
		}
		sawPK = true
		if row[i] == nil {
			nullPK = true
			continue
		}
		v, err := col.Type().ScanValue(row[i])
		if err != nil {
			return nil, fmt.Errorf("quarry: scanning %s.%s: %w", g.table.Name(), col.Name(), err)
		}
		pkParts = append(pkParts, fmt.Sprint(v))
	}
	if nullPK && g.pathKey != "" {
		return nil, nil
	}
	var key entityKey
	if sawPK && !nullPK {
		key = entityKey{table: g.table, pk: strings.Join(pkParts, "\x00")}
		if ent, ok := cache[key]; ok {
			return ent, nil
		}
	}
	ent := &Entity{
		table:  g.table,
		client: c,
		values: make(map[string]any, len(g.cols)),
	}
	for _, i := range g.cols {
		col := plan.Columns[i].Column
		v, err := col.Type().ScanValue(row[i])
		if err != nil {
			return nil, fmt.Errorf("quarry: scanning %s.%s: %w", g.table.Name(), col.Name(), err)
		}
		ent.values[col.Name()] = v
	}
	if sawPK && !nullPK {
		cache[key] = ent
	}
	return ent, nil
}
