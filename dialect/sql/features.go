package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/quarrydb/quarry/dialect"
)

// UnsupportedError is returned when a tree requires a clause the target
// dialect cannot render. The base dialect intentionally rejects pagination:
// there is no safe generic syntax for it.
type UnsupportedError struct {
	Feature string
	Dialect string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("sql: %s is not supported by the %s dialect", e.Feature, e.Dialect)
}

// LongIdentError is returned before rendering when an identifier exceeds the
// dialect's length limit.
type LongIdentError struct {
	Ident   string
	Limit   int
	Dialect string
}

func (e *LongIdentError) Error() string {
	return fmt.Sprintf("sql: identifier %q is %d characters long, exceeding the %s limit of %d", e.Ident, len(e.Ident), e.Dialect, e.Limit)
}

// OrderResolveError is returned when an order-by column must be resolvable
// against the enclosing select list and is not.
type OrderResolveError struct {
	Column  string
	Dialect string
}

func (e *OrderResolveError) Error() string {
	return fmt.Sprintf("sql: order-by column %q does not appear in the select list, which the %s dialect requires", e.Column, e.Dialect)
}

// Features is the capability contract a dialect supplies to the formatter.
// The handful of dialect-variable behaviors are function hooks; everything
// else is rendered by the shared visitor. A zero hook falls back to the base
// (ANSI) behavior, which for pagination and upsert means a descriptive
// rejection.
type Features struct {
	// Name is the dialect name reported in errors.
	Name string

	// AlwaysQuote forces quoting of every identifier. When false,
	// identifiers are quoted only when they collide with a SQL keyword or
	// contain characters that require it.
	AlwaysQuote bool

	// QuoteOpen and QuoteClose delimit quoted identifiers.
	QuoteOpen, QuoteClose byte

	// Placeholder renders the n-th (1-based) argument placeholder.
	Placeholder func(n int) string

	// MaxIdentLen is the dialect identifier length limit. Zero means
	// unlimited. Violations fail before any SQL is rendered.
	MaxIdentLen int

	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning bool

	// RequireOrderInSelect demands that order-by columns resolve against
	// the select list. Window-function pagination strategies need this.
	RequireOrderInSelect bool

	// DefaultValues is the clause inserting an all-defaults row.
	DefaultValues string

	// AutoIncrement is the DDL clause marking a generated key column.
	AutoIncrement string

	// RenderLimitOffset renders the pagination clause, starting with a
	// leading separator. Nil means pagination is unsupported.
	RenderLimitOffset func(w *Writer, limit, offset *int) error

	// RenderLock renders the row-locking suffix. Nil means locking is
	// unsupported.
	RenderLock func(w *Writer, lock LockOptions) error

	// RenderConflict renders the insert-or-update clause. Nil means upsert
	// is unsupported.
	RenderConflict func(w *Writer, insertColumns []string, c *ConflictExpr) error
}

// keywords is the identifier set that triggers quoting under the
// quote-on-collision policy. Uppercased lookups only.
var keywords = map[string]struct{}{
	"ALL": {}, "AND": {}, "AS": {}, "ASC": {}, "BETWEEN": {}, "BY": {},
	"CASE": {}, "CHECK": {}, "COLUMN": {}, "CONSTRAINT": {}, "CREATE": {},
	"CROSS": {}, "CURRENT": {}, "DEFAULT": {}, "DELETE": {}, "DESC": {},
	"DISTINCT": {}, "DROP": {}, "ELSE": {}, "END": {}, "EXCEPT": {},
	"EXISTS": {}, "FALSE": {}, "FOR": {}, "FOREIGN": {}, "FROM": {},
	"FULL": {}, "GROUP": {}, "HAVING": {}, "IN": {}, "INDEX": {},
	"INNER": {}, "INSERT": {}, "INTERSECT": {}, "INTO": {}, "IS": {},
	"JOIN": {}, "KEY": {}, "LEFT": {}, "LIKE": {}, "LIMIT": {}, "NOT": {},
	"NULL": {}, "OFFSET": {}, "ON": {}, "OR": {}, "ORDER": {}, "OUTER": {},
	"PRIMARY": {}, "REFERENCES": {}, "RIGHT": {}, "SELECT": {}, "SET": {},
	"TABLE": {}, "THEN": {}, "TO": {}, "TRUE": {}, "UNION": {}, "UNIQUE": {},
	"UPDATE": {}, "USER": {}, "USING": {}, "VALUES": {}, "WHEN": {},
	"WHERE": {}, "WITH": {},
}

// needsQuote reports whether the identifier collides with a keyword or
// contains characters outside the plain-identifier alphabet.
func needsQuote(name string) bool {
	if _, ok := keywords[strings.ToUpper(name)]; ok {
		return true
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9' && i > 0, c == '_':
		default:
			return true
		}
	}
	return name == ""
}

func questionPlaceholder(int) string { return "?" }

func dollarPlaceholder(n int) string { return "$" + strconv.Itoa(n) }

// renderLimitOffset is the LIMIT/OFFSET form shared by Postgres and SQLite.
func renderLimitOffset(w *Writer, limit, offset *int) error {
	if limit != nil {
		w.sep()
		w.WriteString("LIMIT ")
		w.WriteString(strconv.Itoa(*limit))
	}
	if offset != nil {
		if limit == nil {
			// SQLite (and older MySQL) cannot express OFFSET alone.
			w.sep()
			w.WriteString("LIMIT -1")
		}
		w.sep()
		w.WriteString("OFFSET ")
		w.WriteString(strconv.Itoa(*offset))
	}
	return nil
}

// renderLimitOffsetMySQL differs only in the no-limit sentinel: MySQL
// requires an explicit huge limit when paging by offset alone.
func renderLimitOffsetMySQL(w *Writer, limit, offset *int) error {
	if limit == nil && offset != nil {
		w.sep()
		w.WriteString("LIMIT 18446744073709551615")
	} else if limit != nil {
		w.sep()
		w.WriteString("LIMIT ")
		w.WriteString(strconv.Itoa(*limit))
	}
	if offset != nil {
		w.sep()
		w.WriteString("OFFSET ")
		w.WriteString(strconv.Itoa(*offset))
	}
	return nil
}

// renderLock renders the standard FOR UPDATE / FOR SHARE suffix.
func renderLock(w *Writer, lock LockOptions) error {
	switch lock.Strength {
	case LockUpdate:
		w.sep()
		w.WriteString("FOR UPDATE")
	case LockShare:
		w.sep()
		w.WriteString("FOR SHARE")
	default:
		return nil
	}
	switch {
	case lock.NoWait:
		w.WriteString(" NOWAIT")
	case lock.SkipLocked:
		w.WriteString(" SKIP LOCKED")
	}
	return nil
}

// renderOnConflict renders the ON CONFLICT clause shared by Postgres and
// SQLite.
func renderOnConflict(w *Writer, _ []string, c *ConflictExpr) error {
	w.sep()
	w.WriteString("ON CONFLICT")
	if len(c.Columns) > 0 {
		w.WriteString(" (")
		for i, col := range c.Columns {
			if i > 0 {
				w.WriteString(", ")
			}
			w.Ident(col)
		}
		w.WriteString(")")
	}
	switch c.Action {
	case DoNothing:
		w.WriteString(" DO NOTHING")
	case DoUpdate:
		w.WriteString(" DO UPDATE SET ")
		for i, a := range c.Updates {
			if i > 0 {
				w.WriteString(", ")
			}
			w.Ident(a.Column)
			w.WriteString(" = ")
			w.Expr(a.Value)
		}
	}
	return nil
}

// renderOnDuplicate renders the MySQL ON DUPLICATE KEY UPDATE clause. The
// conflict target columns are ignored: MySQL keys on any unique constraint.
func renderOnDuplicate(w *Writer, insertColumns []string, c *ConflictExpr) error {
	w.sep()
	w.WriteString("ON DUPLICATE KEY UPDATE ")
	updates := c.Updates
	if c.Action == DoNothing {
		// MySQL has no DO NOTHING; the conventional no-op is reassigning
		// the first inserted column to itself.
		if len(insertColumns) == 0 {
			return &UnsupportedError{Feature: "ON DUPLICATE KEY DO NOTHING without columns", Dialect: dialect.MySQL}
		}
		col := insertColumns[0]
		updates = []Assignment{{Column: col, Value: Column(col)}}
	}
	for i, a := range updates {
		if i > 0 {
			w.WriteString(", ")
		}
		w.Ident(a.Column)
		w.WriteString(" = ")
		w.Expr(a.Value)
	}
	return nil
}

// Base returns the ANSI-ish feature set: standard quoting, ?-placeholders,
// no pagination, no upsert.
func Base() Features {
	return Features{
		Name:          "ansi",
		QuoteOpen:     '"',
		QuoteClose:    '"',
		Placeholder:   questionPlaceholder,
		DefaultValues: "DEFAULT VALUES",
		RenderLock:    renderLock,
	}
}

// Postgres returns the PostgreSQL feature set.
func Postgres() Features {
	return Features{
		Name:              dialect.Postgres,
		QuoteOpen:         '"',
		QuoteClose:        '"',
		Placeholder:       dollarPlaceholder,
		MaxIdentLen:       63,
		SupportsReturning: true,
		DefaultValues:     "DEFAULT VALUES",
		AutoIncrement:     "GENERATED BY DEFAULT AS IDENTITY",
		RenderLimitOffset: renderLimitOffset,
		RenderLock:        renderLock,
		RenderConflict:    renderOnConflict,
	}
}

// MySQL returns the MySQL feature set.
func MySQL() Features {
	return Features{
		Name:              dialect.MySQL,
		AlwaysQuote:       true,
		QuoteOpen:         '`',
		QuoteClose:        '`',
		Placeholder:       questionPlaceholder,
		MaxIdentLen:       64,
		DefaultValues:     "() VALUES ()",
		AutoIncrement:     "AUTO_INCREMENT",
		RenderLimitOffset: renderLimitOffsetMySQL,
		RenderLock:        renderLock,
		RenderConflict:    renderOnDuplicate,
	}
}

// SQLite returns the SQLite feature set. SQLite has no row-level locking;
// requesting it is a validation error rather than silently dropped syntax.
func SQLite() Features {
	return Features{
		Name:              dialect.SQLite,
		QuoteOpen:         '"',
		QuoteClose:        '"',
		Placeholder:       questionPlaceholder,
		SupportsReturning: true,
		DefaultValues:     "DEFAULT VALUES",
		AutoIncrement:     "AUTOINCREMENT",
		RenderLimitOffset: renderLimitOffset,
		RenderConflict:    renderOnConflict,
	}
}

// FeaturesFor returns the feature set registered for the given dialect
// name, falling back to the base ANSI set.
func FeaturesFor(name string) Features {
	switch name {
	case dialect.Postgres:
		return Postgres()
	case dialect.MySQL:
		return MySQL()
	case dialect.SQLite:
		return SQLite()
	default:
		return Base()
	}
}
