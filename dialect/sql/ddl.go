package sql

import "fmt"

// ColumnDef describes one column of a CREATE TABLE or ALTER TABLE
// statement. Type is the verbatim SQL type name supplied by the value-type
// registered for the column.
type ColumnDef struct {
	Name          string
	Type          string
	NotNull       bool
	PrimaryKey    bool // single-column inline primary key.
	AutoIncrement bool
	Default       Expr
}

// ForeignKeyDef describes a table-level foreign key constraint.
type ForeignKeyDef struct {
	Column    string
	RefTable  string
	RefColumn string
}

// CreateTableExpr is a CREATE TABLE statement tree.
type CreateTableExpr struct {
	Name        string
	Schema      string
	IfNotExists bool
	Columns     []ColumnDef
	PrimaryKey  []string // composite key; empty when a column is inline-PK.
	ForeignKeys []ForeignKeyDef
	meta        Meta
}

// CreateTable returns a new CREATE TABLE tree.
func CreateTable(name string) *CreateTableExpr { return &CreateTableExpr{Name: name} }

func (*CreateTableExpr) Kind() Kind       { return KindCreateTable }
func (*CreateTableExpr) Leaf() bool       { return false }
func (c *CreateTableExpr) Metadata() Meta { return c.meta }

func (c *CreateTableExpr) clone() *CreateTableExpr {
	cc := *c
	cc.Columns = append([]ColumnDef(nil), c.Columns...)
	cc.PrimaryKey = append([]string(nil), c.PrimaryKey...)
	cc.ForeignKeys = append([]ForeignKeyDef(nil), c.ForeignKeys...)
	cc.meta = c.meta.clone()
	return &cc
}

// IfNotExist returns a copy with the IF NOT EXISTS guard set.
func (c *CreateTableExpr) IfNotExist() *CreateTableExpr {
	cc := c.clone()
	cc.IfNotExists = true
	return cc
}

// AddColumn returns a copy with the column definition appended.
func (c *CreateTableExpr) AddColumn(d ColumnDef) *CreateTableExpr {
	cc := c.clone()
	cc.Columns = append(cc.Columns, d)
	return cc
}

// WithPrimaryKey returns a copy with a composite table-level primary key.
func (c *CreateTableExpr) WithPrimaryKey(columns ...string) *CreateTableExpr {
	cc := c.clone()
	cc.PrimaryKey = columns
	return cc
}

// AddForeignKey returns a copy with the foreign key constraint appended.
func (c *CreateTableExpr) AddForeignKey(fk ForeignKeyDef) *CreateTableExpr {
	cc := c.clone()
	cc.ForeignKeys = append(cc.ForeignKeys, fk)
	return cc
}

// AlterTableExpr is an ALTER TABLE statement tree adding columns.
type AlterTableExpr struct {
	Name       string
	AddColumns []ColumnDef
	meta       Meta
}

// AlterTable returns a new ALTER TABLE tree.
func AlterTable(name string) *AlterTableExpr { return &AlterTableExpr{Name: name} }

func (*AlterTableExpr) Kind() Kind       { return KindAlterTable }
func (*AlterTableExpr) Leaf() bool       { return false }
func (a *AlterTableExpr) Metadata() Meta { return a.meta }

// AddColumn returns a copy with the column definition appended.
func (a *AlterTableExpr) AddColumn(d ColumnDef) *AlterTableExpr {
	c := *a
	c.AddColumns = append(append([]ColumnDef(nil), a.AddColumns...), d)
	c.meta = a.meta.clone()
	return &c
}

// CreateIndexExpr is a CREATE INDEX statement tree.
type CreateIndexExpr struct {
	Name        string
	Table       string
	Columns     []string
	Unique      bool
	IfNotExists bool
	meta        Meta
}

// CreateIndex returns a new CREATE INDEX tree.
func CreateIndex(name, table string, columns ...string) *CreateIndexExpr {
	return &CreateIndexExpr{Name: name, Table: table, Columns: columns}
}

func (*CreateIndexExpr) Kind() Kind       { return KindCreateIndex }
func (*CreateIndexExpr) Leaf() bool       { return true }
func (c *CreateIndexExpr) Metadata() Meta { return c.meta }

// UniqueIndex returns a copy with the UNIQUE flag set.
func (c *CreateIndexExpr) UniqueIndex() *CreateIndexExpr {
	cc := *c
	cc.Unique = true
	cc.meta = c.meta.clone()
	return &cc
}

func (w *Writer) columnDef(d ColumnDef) {
	w.Ident(d.Name)
	w.WriteString(" ")
	w.WriteString(d.Type)
	if d.PrimaryKey {
		w.WriteString(" PRIMARY KEY")
	}
	if d.AutoIncrement {
		if w.f.AutoIncrement == "" {
			w.fail(&UnsupportedError{Feature: "auto-increment columns", Dialect: w.f.Name})
			return
		}
		w.WriteString(" ")
		w.WriteString(w.f.AutoIncrement)
	}
	if d.NotNull {
		w.WriteString(" NOT NULL")
	}
	if d.Default != nil {
		w.WriteString(" DEFAULT ")
		w.Expr(d.Default)
	}
}

func (w *Writer) createTable(e *CreateTableExpr) {
	if len(e.Columns) == 0 {
		w.fail(fmt.Errorf("sql: create table %q has no columns", e.Name))
		return
	}
	w.WriteString("CREATE TABLE ")
	if e.IfNotExists {
		w.WriteString("IF NOT EXISTS ")
	}
	if e.Schema != "" {
		w.Ident(e.Schema)
		w.WriteString(".")
	}
	w.Ident(e.Name)
	w.WriteString(" (")
	w.depth++
	for i, d := range e.Columns {
		if i > 0 {
			w.WriteString(",")
		}
		w.sep()
		w.columnDef(d)
	}
	if len(e.PrimaryKey) > 0 {
		w.WriteString(",")
		w.sep()
		w.WriteString("PRIMARY KEY (")
		for i, c := range e.PrimaryKey {
			if i > 0 {
				w.WriteString(", ")
			}
			w.Ident(c)
		}
		w.WriteString(")")
	}
	for _, fk := range e.ForeignKeys {
		w.WriteString(",")
		w.sep()
		w.WriteString("FOREIGN KEY (")
		w.Ident(fk.Column)
		w.WriteString(") REFERENCES ")
		w.Ident(fk.RefTable)
		w.WriteString(" (")
		w.Ident(fk.RefColumn)
		w.WriteString(")")
	}
	w.depth--
	w.sep()
	w.WriteString(")")
}

func (w *Writer) alterTable(e *AlterTableExpr) {
	if len(e.AddColumns) == 0 {
		w.fail(fmt.Errorf("sql: alter table %q adds no columns", e.Name))
		return
	}
	w.WriteString("ALTER TABLE ")
	w.Ident(e.Name)
	for i, d := range e.AddColumns {
		if i > 0 {
			w.WriteString(",")
		}
		w.WriteString(" ADD COLUMN ")
		w.columnDef(d)
	}
}

func (w *Writer) createIndex(e *CreateIndexExpr) {
	w.WriteString("CREATE ")
	if e.Unique {
		w.WriteString("UNIQUE ")
	}
	w.WriteString("INDEX ")
	if e.IfNotExists {
		w.WriteString("IF NOT EXISTS ")
	}
	w.Ident(e.Name)
	w.WriteString(" ON ")
	w.Ident(e.Table)
	w.WriteString(" (")
	for i, c := range e.Columns {
		if i > 0 {
			w.WriteString(", ")
		}
		w.Ident(c)
	}
	w.WriteString(")")
}
