package quarry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/schema"
)

// Numeric constrains the element types the numeric aggregates accept.
type Numeric interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64
}

// scalar executes the query with its select list replaced by a single
// aggregate expression, ignoring order and pagination. Exactly one result
// row is required; anything else fails with *AggregateValueError carrying
// the rendered statement.
func (q *Query) scalar(ctx context.Context, agg sql.Expr) (any, error) {
	stripped := q.clone()
	stripped.orders = nil
	stripped.offset = nil
	stripped.limit = nil
	stripped.columns = []sql.Expr{agg}
	rs, err := stripped.Rows(ctx)
	if err != nil {
		return nil, err
	}
	if rs.Len() != 1 {
		return nil, &AggregateValueError{Count: rs.Len(), SQL: stripped.renderForError()}
	}
	row, err := rs.At(0)
	if err != nil {
		return nil, err
	}
	return row[0], nil
}

// SumOf returns the sum of the column over the matching rows. An aggregate
// over no rows is NULL and yields the zero value.
func SumOf[T Numeric](ctx context.Context, q *Query, c *schema.Column[T]) (T, error) {
	return scanAggregate(q, c, func() (any, error) {
		return q.scalar(ctx, sql.Sum(c.Expr()))
	})
}

// AvgOf returns the average of the column over the matching rows, as a
// float64 regardless of the column's element type.
func AvgOf[T Numeric](ctx context.Context, q *Query, c *schema.Column[T]) (float64, error) {
	v, err := q.scalar(ctx, sql.Avg(c.Expr()))
	if err != nil || v == nil {
		return 0, err
	}
	return toFloat(v)
}

// MinOf returns the smallest value of the column over the matching rows.
func MinOf[T any](ctx context.Context, q *Query, c *schema.Column[T]) (T, error) {
	return scanAggregate(q, c, func() (any, error) {
		return q.scalar(ctx, sql.Min(c.Expr()))
	})
}

// MaxOf returns the largest value of the column over the matching rows.
func MaxOf[T any](ctx context.Context, q *Query, c *schema.Column[T]) (T, error) {
	return scanAggregate(q, c, func() (any, error) {
		return q.scalar(ctx, sql.Max(c.Expr()))
	})
}

// scanAggregate decodes a scalar result through the column's converter.
func scanAggregate[T any](q *Query, c *schema.Column[T], run func() (any, error)) (T, error) {
	var zero T
	raw, err := run()
	if err != nil {
		return zero, err
	}
	if raw == nil {
		return zero, nil
	}
	v, err := c.ValueType().Scan(raw)
	if err != nil {
		return zero, fmt.Errorf("quarry: reading aggregate over %s.%s: %w", q.table.Name(), c.Name(), err)
	}
	return v, nil
}

// toFloat normalizes the driver's representation of a numeric column.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case []byte:
		return strconv.ParseFloat(string(n), 64)
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("quarry: cannot read %T as a float", v)
	}
}
