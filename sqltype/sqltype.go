// Package sqltype defines the bidirectional converters between semantic Go
// values and their database wire representation. A converter binds a value
// into a statement argument and scans a result column back; its wire type
// name is used verbatim for SQL casts and DDL rendering.
//
// The set of types is open: external code registers custom converters by
// composing Transform over an existing type or by implementing a bind/scan
// pair from scratch. Nothing else in the core assumes a closed set.
package sqltype

import (
	"fmt"
	"strconv"
	"time"
)

// Type is the erased form of a value converter, used where the element type
// is not statically known (registries, DDL rendering, row scanning).
type Type interface {
	// Name returns the wire type name, written verbatim into casts and
	// column definitions.
	Name() string
	// BindValue converts a Go value into a driver-facing argument.
	BindValue(v any) (any, error)
	// ScanValue converts a driver-provided column value into a Go value.
	// A nil source is returned as a nil value, never an error: NULL is
	// always representable at this layer.
	ScanValue(src any) (any, error)
}

// ValueType is a typed value converter for column element type T.
type ValueType[T any] struct {
	name string
	bind func(T) (any, error)
	scan func(any) (T, error)
}

// New builds a ValueType from a wire type name and a bind/scan pair.
func New[T any](name string, bind func(T) (any, error), scan func(any) (T, error)) ValueType[T] {
	return ValueType[T]{name: name, bind: bind, scan: scan}
}

// Name returns the wire type name.
func (t ValueType[T]) Name() string { return t.name }

// Bind converts the value into a driver-facing argument.
func (t ValueType[T]) Bind(v T) (any, error) { return t.bind(v) }

// Scan converts a driver-provided value into T. A nil source fails: use
// Nullable for columns that may hold NULL.
func (t ValueType[T]) Scan(src any) (T, error) { return t.scan(src) }

// Erase returns the untyped form of the converter.
func (t ValueType[T]) Erase() Type { return erased[T]{t} }

type erased[T any] struct {
	t ValueType[T]
}

func (e erased[T]) Name() string { return e.t.name }

func (e erased[T]) BindValue(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	tv, ok := v.(T)
	if !ok {
		return nil, fmt.Errorf("sqltype: cannot bind %T as %s", v, e.t.name)
	}
	return e.t.bind(tv)
}

func (e erased[T]) ScanValue(src any) (any, error) {
	if src == nil {
		return nil, nil
	}
	return e.t.scan(src)
}

// Transform derives a converter for a domain type B by composing over an
// existing converter for A. The wire-level logic is reused unchanged; only
// the wrap/unwrap pair is new. An empty name inherits the base type's name.
func Transform[B, A any](base ValueType[A], name string, unwrap func(B) (A, error), wrap func(A) (B, error)) ValueType[B] {
	if name == "" {
		name = base.name
	}
	return ValueType[B]{
		name: name,
		bind: func(v B) (any, error) {
			a, err := unwrap(v)
			if err != nil {
				return nil, err
			}
			return base.bind(a)
		},
		scan: func(src any) (B, error) {
			a, err := base.scan(src)
			if err != nil {
				var zero B
				return zero, err
			}
			return wrap(a)
		},
	}
}

// Nullable lifts a converter to a pointer element type. A nil pointer binds
// to SQL NULL, and a NULL column scans to a nil pointer.
func Nullable[T any](base ValueType[T]) ValueType[*T] {
	return ValueType[*T]{
		name: base.name,
		bind: func(v *T) (any, error) {
			if v == nil {
				return nil, nil
			}
			return base.bind(*v)
		},
		scan: func(src any) (*T, error) {
			if src == nil {
				return nil, nil
			}
			v, err := base.scan(src)
			if err != nil {
				return nil, err
			}
			return &v, nil
		},
	}
}

// Bool returns the converter for boolean columns.
func Bool() ValueType[bool] {
	return New("boolean",
		func(v bool) (any, error) { return v, nil },
		func(src any) (bool, error) {
			switch s := src.(type) {
			case bool:
				return s, nil
			case int64:
				return s != 0, nil
			case []byte:
				return parseBool(string(s))
			case string:
				return parseBool(s)
			case nil:
				return false, errNull("boolean")
			}
			return false, scanErr[bool](src, "boolean")
		})
}

// Int returns the converter for integer columns.
func Int() ValueType[int] {
	base := Int64()
	return New("integer",
		func(v int) (any, error) { return int64(v), nil },
		func(src any) (int, error) {
			v, err := base.scan(src)
			return int(v), err
		})
}

// Int64 returns the converter for bigint columns.
func Int64() ValueType[int64] {
	return New("bigint",
		func(v int64) (any, error) { return v, nil },
		func(src any) (int64, error) {
			switch s := src.(type) {
			case int64:
				return s, nil
			case int:
				return int64(s), nil
			case []byte:
				return strconv.ParseInt(string(s), 10, 64)
			case string:
				return strconv.ParseInt(s, 10, 64)
			case nil:
				return 0, errNull("bigint")
			}
			return 0, scanErr[int64](src, "bigint")
		})
}

// Float64 returns the converter for double-precision columns.
func Float64() ValueType[float64] {
	return New("double precision",
		func(v float64) (any, error) { return v, nil },
		func(src any) (float64, error) {
			switch s := src.(type) {
			case float64:
				return s, nil
			case int64:
				return float64(s), nil
			case []byte:
				return strconv.ParseFloat(string(s), 64)
			case string:
				return strconv.ParseFloat(s, 64)
			case nil:
				return 0, errNull("double precision")
			}
			return 0, scanErr[float64](src, "double precision")
		})
}

// String returns the converter for text columns.
func String() ValueType[string] {
	return New("text",
		func(v string) (any, error) { return v, nil },
		func(src any) (string, error) {
			switch s := src.(type) {
			case string:
				return s, nil
			case []byte:
				return string(s), nil
			case nil:
				return "", errNull("text")
			}
			return fmt.Sprint(src), nil
		})
}

// Bytes returns the converter for binary columns.
func Bytes() ValueType[[]byte] {
	return New("blob",
		func(v []byte) (any, error) { return v, nil },
		func(src any) ([]byte, error) {
			switch s := src.(type) {
			case []byte:
				return s, nil
			case string:
				return []byte(s), nil
			case nil:
				return nil, errNull("blob")
			}
			return nil, scanErr[[]byte](src, "blob")
		})
}

// timeLayouts are the textual forms drivers hand back for timestamp
// columns when they do not parse them natively (SQLite in particular).
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time returns the converter for timestamp columns.
func Time() ValueType[time.Time] {
	return New("timestamp",
		func(v time.Time) (any, error) { return v, nil },
		func(src any) (time.Time, error) {
			switch s := src.(type) {
			case time.Time:
				return s, nil
			case []byte:
				return parseTime(string(s))
			case string:
				return parseTime(s)
			case nil:
				return time.Time{}, errNull("timestamp")
			}
			return time.Time{}, scanErr[time.Time](src, "timestamp")
		})
}

// Decimal returns the converter for exact-numeric columns, carried as
// strings to avoid float rounding.
func Decimal(precision, scale int) ValueType[string] {
	return New(fmt.Sprintf("decimal(%d,%d)", precision, scale),
		func(v string) (any, error) { return v, nil },
		func(src any) (string, error) {
			switch s := src.(type) {
			case string:
				return s, nil
			case []byte:
				return string(s), nil
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64), nil
			case int64:
				return strconv.FormatInt(s, 10), nil
			case nil:
				return "", errNull("decimal")
			}
			return "", scanErr[string](src, "decimal")
		})
}

func parseBool(s string) (bool, error) {
	switch s {
	case "t", "T", "true", "TRUE", "1":
		return true, nil
	case "f", "F", "false", "FALSE", "0":
		return false, nil
	}
	return strconv.ParseBool(s)
}

func parseTime(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

func errNull(name string) error {
	return fmt.Errorf("sqltype: unexpected NULL for non-nullable %s column", name)
}

func scanErr[T any](src any, name string) error {
	var zero T
	return fmt.Errorf("sqltype: cannot scan %T into %T (%s)", src, zero, name)
}
