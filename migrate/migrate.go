// Package migrate turns table definitions into DDL and executes it. It
// creates what is missing and nothing more: there is no diffing against an
// existing database, and no destructive change is ever emitted.
package migrate

import (
	"context"
	"fmt"

	"github.com/quarrydb/quarry"
	"github.com/quarrydb/quarry/dialect"
	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/schema"
)

// typeOverrides maps wire type names onto vendor spellings where the
// shared name is not accepted.
var typeOverrides = map[string]map[string]string{
	dialect.MySQL: {
		"double precision": "double",
		"timestamp":        "datetime",
		"uuid":             "char(36)",
	},
	dialect.SQLite: {
		// AUTOINCREMENT is only honored on columns typed exactly INTEGER.
		"bigint": "integer",
		"uuid":   "text",
	},
}

// columnType resolves the rendered type name for a column under a dialect.
func columnType(c schema.AnyColumn, dialectName string) string {
	name := c.Type().Name()
	if over, ok := typeOverrides[dialectName]; ok {
		if t, ok := over[name]; ok {
			return t
		}
	}
	return name
}

// TableExpr builds the CREATE TABLE tree for a table definition. A
// single-column primary key renders inline; a composite key becomes a
// table-level constraint. Reference columns produce foreign keys.
func TableExpr(t *schema.Table, dialectName string) *sql.CreateTableExpr {
	pk := t.PrimaryKey()
	ct := sql.CreateTable(t.Name()).IfNotExist()
	if s := t.Schema(); s != "" {
		ct.Schema = s
	}
	for _, c := range t.Columns() {
		def := sql.ColumnDef{
			Name:          c.Name(),
			Type:          columnType(c, dialectName),
			NotNull:       !c.IsNullable() && !c.IsPrimary(),
			PrimaryKey:    c.IsPrimary() && len(pk) == 1,
			AutoIncrement: c.AutoIncrement(),
			Default:       c.DefaultExpr(),
		}
		ct = ct.AddColumn(def)
	}
	if len(pk) > 1 {
		names := make([]string, len(pk))
		for i, c := range pk {
			names[i] = c.Name()
		}
		ct = ct.WithPrimaryKey(names...)
	}
	for _, c := range t.Columns() {
		ref := c.Ref()
		if ref == nil {
			continue
		}
		refPK := ref.PrimaryKey()
		if len(refPK) != 1 {
			continue
		}
		ct = ct.AddForeignKey(sql.ForeignKeyDef{
			Column:    c.Name(),
			RefTable:  ref.Name(),
			RefColumn: refPK[0].Name(),
		})
	}
	return ct
}

// Index declares a secondary index to create alongside the tables.
type Index struct {
	Name    string
	Table   *schema.Table
	Columns []schema.AnyColumn
	Unique  bool
}

// IndexExpr builds the CREATE INDEX tree for the index. The name defaults
// to table_col1_col2_idx.
func IndexExpr(ix Index) (*sql.CreateIndexExpr, error) {
	if ix.Table == nil || len(ix.Columns) == 0 {
		return nil, fmt.Errorf("migrate: index needs a table and at least one column")
	}
	names := make([]string, len(ix.Columns))
	for i, c := range ix.Columns {
		if c.Table() != ix.Table {
			return nil, fmt.Errorf("migrate: index column %s.%s does not belong to %s", c.Table().Name(), c.Name(), ix.Table.Name())
		}
		names[i] = c.Name()
	}
	name := ix.Name
	if name == "" {
		name = ix.Table.Name()
		for _, n := range names {
			name += "_" + n
		}
		name += "_idx"
	}
	e := sql.CreateIndex(name, ix.Table.Name(), names...)
	e.IfNotExists = true
	if ix.Unique {
		e = e.UniqueIndex()
	}
	return e, nil
}

// Options collects the schema objects a migration creates.
type Options struct {
	Tables  []*schema.Table
	Indexes []Index
}

// Create executes the DDL for the given tables inside one transaction, in
// the order given. Tables must appear after the tables they reference.
func Create(ctx context.Context, c *quarry.Client, tables ...*schema.Table) error {
	return CreateAll(ctx, c, Options{Tables: tables})
}

// CreateAll executes the DDL for every table and index in the options
// inside one transaction. SQLite applies DDL outside transactions per
// statement; the transaction still serializes the batch.
func CreateAll(ctx context.Context, c *quarry.Client, opts Options) error {
	return c.WithTx(ctx, func(ctx context.Context, _ *quarry.Tx) error {
		for _, t := range opts.Tables {
			if _, err := c.Exec(ctx, TableExpr(t, c.Dialect())); err != nil {
				return fmt.Errorf("migrate: creating table %q: %w", t.Name(), err)
			}
		}
		for _, ix := range opts.Indexes {
			e, err := IndexExpr(ix)
			if err != nil {
				return err
			}
			if _, err := c.Exec(ctx, e); err != nil {
				return fmt.Errorf("migrate: creating index %q: %w", e.Name, err)
			}
		}
		return nil
	})
}
