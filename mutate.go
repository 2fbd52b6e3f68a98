package quarry

import (
	"context"

	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/schema"
)

// InsertBuilder builds and executes an INSERT against a table.
type InsertBuilder struct {
	client   *Client
	table    *schema.Table
	assigns  []sql.Assignment
	conflict *sql.ConflictExpr
	defaults bool
}

// Insert starts an insert into the given table.
func (c *Client) Insert(t *schema.Table) *InsertBuilder {
	return &InsertBuilder{client: c, table: t}
}

// Set appends column assignments. Typed assignments come from
// schema.Column.Set, so a value of the wrong element type does not compile.
func (b *InsertBuilder) Set(as ...sql.Assignment) *InsertBuilder {
	b.assigns = append(b.assigns, as...)
	return b
}

// OnConflict attaches an insert-or-update clause. Rendering fails on
// dialects without upsert support.
func (b *InsertBuilder) OnConflict(c *sql.ConflictExpr) *InsertBuilder {
	b.conflict = c
	return b
}

// Defaults inserts a row of column defaults, with no explicit values.
func (b *InsertBuilder) Defaults() *InsertBuilder {
	b.defaults = true
	return b
}

func (b *InsertBuilder) build() *sql.InsertExpr {
	ins := sql.Insert(b.table.Ref())
	if b.defaults {
		ins = ins.DefaultValues()
	} else {
		ins = ins.Set(b.assigns...)
	}
	if b.conflict != nil {
		ins = ins.OnConflict(b.conflict)
	}
	return ins
}

// Exec executes the insert.
func (b *InsertBuilder) Exec(ctx context.Context) error {
	if _, err := b.client.Exec(ctx, b.build()); err != nil {
		return NewMutationError(b.table.Name(), "insert", err)
	}
	return nil
}

// ExecKey executes the insert and returns the generated key. On dialects
// with RETURNING the key comes back with the insert itself; otherwise it is
// read from the driver's last-insert-id. A missing or unreadable key fails
// with *GeneratedKeyError.
func (b *InsertBuilder) ExecKey(ctx context.Context) (int64, error) {
	auto := autoColumn(b.table)
	if auto == nil {
		return 0, &GeneratedKeyError{Table: b.table.Name()}
	}
	if b.client.features.SupportsReturning {
		ins := b.build().WithReturning(sql.Column(auto.Name()))
		rs, err := b.client.Query(ctx, ins)
		if err != nil {
			return 0, NewMutationError(b.table.Name(), "insert", err)
		}
		if rs.Len() != 1 {
			return 0, &GeneratedKeyError{Table: b.table.Name()}
		}
		row, err := rs.At(0)
		if err != nil {
			return 0, err
		}
		id, err := toInt(row[0])
		if err != nil {
			return 0, &GeneratedKeyError{Table: b.table.Name(), Err: err}
		}
		return int64(id), nil
	}
	res, err := b.client.Exec(ctx, b.build())
	if err != nil {
		return 0, NewMutationError(b.table.Name(), "insert", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &GeneratedKeyError{Table: b.table.Name(), Err: err}
	}
	return id, nil
}

// autoColumn returns the table's generated-key column, or nil.
func autoColumn(t *schema.Table) schema.AnyColumn {
	for _, c := range t.Columns() {
		if c.AutoIncrement() {
			return c
		}
	}
	return nil
}

// UpdateBuilder builds and executes an UPDATE against a table.
type UpdateBuilder struct {
	client  *Client
	table   *schema.Table
	assigns []sql.Assignment
	preds   []sql.Expr
}

// Update starts an update of the given table.
func (c *Client) Update(t *schema.Table) *UpdateBuilder {
	return &UpdateBuilder{client: c, table: t}
}

// Set appends column assignments.
func (b *UpdateBuilder) Set(as ...sql.Assignment) *UpdateBuilder {
	b.assigns = append(b.assigns, as...)
	return b
}

// Filter adds predicates, combined with AND. An update with no predicates
// touches every row.
func (b *UpdateBuilder) Filter(preds ...sql.Expr) *UpdateBuilder {
	b.preds = append(b.preds, preds...)
	return b
}

// Exec executes the update and returns the number of affected rows.
func (b *UpdateBuilder) Exec(ctx context.Context) (int64, error) {
	upd := sql.Update(b.table.Ref()).Set(b.assigns...)
	if len(b.preds) > 0 {
		upd = upd.WherePred(sql.And(b.preds...))
	}
	res, err := b.client.Exec(ctx, upd)
	if err != nil {
		return 0, NewMutationError(b.table.Name(), "update", err)
	}
	return res.RowsAffected()
}

// DeleteBuilder builds and executes a DELETE against a table.
type DeleteBuilder struct {
	client *Client
	table  *schema.Table
	preds  []sql.Expr
}

// Delete starts a delete from the given table.
func (c *Client) Delete(t *schema.Table) *DeleteBuilder {
	return &DeleteBuilder{client: c, table: t}
}

// Filter adds predicates, combined with AND. A delete with no predicates
// removes every row.
func (b *DeleteBuilder) Filter(preds ...sql.Expr) *DeleteBuilder {
	b.preds = append(b.preds, preds...)
	return b
}

// Exec executes the delete and returns the number of affected rows.
func (b *DeleteBuilder) Exec(ctx context.Context) (int64, error) {
	del := sql.Delete(b.table.Ref())
	if len(b.preds) > 0 {
		del = del.WherePred(sql.And(b.preds...))
	}
	res, err := b.client.Exec(ctx, del)
	if err != nil {
		return 0, NewMutationError(b.table.Name(), "delete", err)
	}
	return res.RowsAffected()
}
