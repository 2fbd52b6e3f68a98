package sql

import "fmt"

// Rowset is an eagerly-materialized, disconnected result set. All rows are
// read into memory at execution time so the statement and its connection
// can be released immediately; the rowset itself can then be replayed,
// iterated multiple times, or accessed out of order. This trades memory for
// connection-hold time and enables multi-pass materialization such as join
// flattening without re-querying.
//
// A Rowset is not safe for concurrent use: the cursor is shared state.
type Rowset struct {
	columns []string
	byName  map[string]int
	rows    [][]any
	cursor  int // index of the next row; starts at 0.
}

// ReadAll drains the given rows into a Rowset and closes them. The driver
// connection is released before ReadAll returns, even on error.
func ReadAll(rows *Rows) (*Rowset, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	rs := &Rowset{
		columns: columns,
		byName:  make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		// First column wins on duplicate names, matching database/sql scan
		// order for joins that repeat a column name.
		if _, ok := rs.byName[c]; !ok {
			rs.byName[c] = i
		}
	}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		rs.rows = append(rs.rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// Columns returns the result column names in select-list order.
func (rs *Rowset) Columns() []string { return rs.columns }

// Len returns the number of buffered rows.
func (rs *Rowset) Len() int { return len(rs.rows) }

// Next advances the cursor and reports whether a row is available.
// After Next returns true, Value and Get read from that row.
func (rs *Rowset) Next() bool {
	if rs.cursor >= len(rs.rows) {
		return false
	}
	rs.cursor++
	return true
}

// Reset rewinds the cursor so the rowset can be replayed from the start.
func (rs *Rowset) Reset() { rs.cursor = 0 }

// Seek positions the cursor so the next call to Next yields row i.
func (rs *Rowset) Seek(i int) error {
	if i < 0 || i > len(rs.rows) {
		return fmt.Errorf("sql: rowset seek index %d out of range [0, %d]", i, len(rs.rows))
	}
	rs.cursor = i
	return nil
}

// Value returns the value at column index i of the current row.
func (rs *Rowset) Value(i int) (any, error) {
	row, err := rs.current()
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(row) {
		return nil, fmt.Errorf("sql: rowset column index %d out of range [0, %d)", i, len(row))
	}
	return row[i], nil
}

// Get returns the value of the named column of the current row.
func (rs *Rowset) Get(column string) (any, error) {
	i, ok := rs.byName[column]
	if !ok {
		return nil, fmt.Errorf("sql: rowset has no column %q", column)
	}
	return rs.Value(i)
}

// Row returns the full current row. The returned slice is shared with the
// rowset and must not be modified.
func (rs *Rowset) Row() ([]any, error) {
	return rs.current()
}

// At returns row i without moving the cursor.
func (rs *Rowset) At(i int) ([]any, error) {
	if i < 0 || i >= len(rs.rows) {
		return nil, fmt.Errorf("sql: rowset row index %d out of range [0, %d)", i, len(rs.rows))
	}
	return rs.rows[i], nil
}

func (rs *Rowset) current() ([]any, error) {
	if rs.cursor == 0 {
		return nil, fmt.Errorf("sql: rowset cursor is before the first row; call Next first")
	}
	if rs.cursor > len(rs.rows) {
		return nil, fmt.Errorf("sql: rowset cursor is past the last row")
	}
	return rs.rows[rs.cursor-1], nil
}
