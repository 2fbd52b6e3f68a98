package sqltype

// Optional is a tri-state value: unset, explicit NULL, or a value. It
// distinguishes "caller said nothing" from "caller asked for NULL", which
// matters for insert defaults and partial updates.
type Optional[T any] struct {
	set  bool
	null bool
	v    T
}

// Unset returns the absent state.
func Unset[T any]() Optional[T] { return Optional[T]{} }

// Null returns the explicit-NULL state.
func Null[T any]() Optional[T] { return Optional[T]{set: true, null: true} }

// Value returns the present state holding v.
func Value[T any](v T) Optional[T] { return Optional[T]{set: true, v: v} }

// IsSet reports whether the value was provided at all (including NULL).
func (o Optional[T]) IsSet() bool { return o.set }

// IsNull reports whether the value was explicitly set to NULL.
func (o Optional[T]) IsNull() bool { return o.set && o.null }

// Get returns the held value and whether a non-NULL value is present.
func (o Optional[T]) Get() (T, bool) {
	if !o.set || o.null {
		var zero T
		return zero, false
	}
	return o.v, true
}
