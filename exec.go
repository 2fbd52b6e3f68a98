package quarry

import (
	"context"

	"github.com/quarrydb/quarry/dialect/sql"
)

// Format renders a statement tree for the client's dialect. Repeated calls
// with the same tree hit the statement cache.
func (c *Client) Format(e sql.Expr) (string, []any, error) {
	if r, ok := c.stmts.get(e); ok {
		return r.query, r.args, nil
	}
	query, args, err := sql.Format(e, c.features, c.format)
	if err != nil {
		return "", nil, err
	}
	c.stmts.put(e, rendered{query: query, args: args})
	return query, args, nil
}

// Exec renders and executes a statement that returns no rows, such as an
// INSERT, UPDATE, DELETE or DDL tree. Constraint violations are translated
// to ConstraintError; other driver errors propagate unmodified.
func (c *Client) Exec(ctx context.Context, e sql.Expr) (sql.Result, error) {
	query, args, err := c.Format(e)
	if err != nil {
		return nil, err
	}
	var res sql.Result
	if err := c.querier(ctx).Exec(ctx, query, args, &res); err != nil {
		return nil, c.wrapDriverErr(err)
	}
	return res, nil
}

// Query renders and executes a statement that returns rows, draining them
// into a disconnected Rowset. The connection is released before Query
// returns.
func (c *Client) Query(ctx context.Context, e sql.Expr) (*sql.Rowset, error) {
	query, args, err := c.Format(e)
	if err != nil {
		return nil, err
	}
	var rows sql.Rows
	if err := c.querier(ctx).Query(ctx, query, args, &rows); err != nil {
		return nil, c.wrapDriverErr(err)
	}
	return sql.ReadAll(&rows)
}

// wrapDriverErr translates the driver errors the core gives meaning to.
// Everything else passes through untouched so callers can still match on
// driver-specific error types.
func (c *Client) wrapDriverErr(err error) error {
	if name, ok := sql.ConstraintViolation(err); ok {
		return NewConstraintError(name, err)
	}
	return err
}
