package quarry

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("quarry: entity not found")

	// ErrNotSingular is returned when a query that expects exactly one result
	// returns multiple results.
	ErrNotSingular = errors.New("quarry: entity not singular")

	// ErrTxStarted is returned when attempting to start a new transaction
	// within an existing transaction.
	ErrTxStarted = errors.New("quarry: cannot start a transaction within a transaction")
)

// NotFoundError represents an error when an entity is not found.
type NotFoundError struct {
	label string
	sql   string // Optional: the rendered statement that produced no rows
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.sql != "" {
		return fmt.Sprintf("quarry: %s not found: %s", e.label, e.sql)
	}
	return fmt.Sprintf("quarry: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// SQL returns the rendered statement, if available.
func (e *NotFoundError) SQL() string {
	return e.sql
}

// NewNotFoundError returns a new NotFoundError for the given entity type.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorSQL returns a new NotFoundError carrying the statement
// that produced no rows.
func NewNotFoundErrorSQL(label, sql string) *NotFoundError {
	return &NotFoundError{label: label, sql: sql}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// NotSingularError represents an error when a query expects a singular result
// but receives multiple results.
type NotSingularError struct {
	label string
	count int    // Number of results returned (-1 if unknown)
	sql   string // Optional: the rendered statement
}

// Error returns the error string.
func (e *NotSingularError) Error() string {
	var sb strings.Builder
	if e.count >= 0 {
		fmt.Fprintf(&sb, "quarry: %s not singular (got %d results, expected 1)", e.label, e.count)
	} else {
		fmt.Fprintf(&sb, "quarry: %s not singular", e.label)
	}
	if e.sql != "" {
		sb.WriteString(": ")
		sb.WriteString(e.sql)
	}
	return sb.String()
}

// Is reports whether the target error matches NotSingularError.
// This allows errors.Is(notSingularErr, ErrNotSingular) to return true.
func (e *NotSingularError) Is(err error) bool {
	return err == ErrNotSingular
}

// Label returns the entity label.
func (e *NotSingularError) Label() string {
	return e.label
}

// Count returns the number of results, or -1 if unknown.
func (e *NotSingularError) Count() int {
	return e.count
}

// SQL returns the rendered statement, if available.
func (e *NotSingularError) SQL() string {
	return e.sql
}

// NewNotSingularError returns a new NotSingularError for the given entity type.
func NewNotSingularError(label string) *NotSingularError {
	return &NotSingularError{label: label, count: -1}
}

// NewNotSingularErrorSQL returns a new NotSingularError with the result count
// and the statement that produced it.
func NewNotSingularErrorSQL(label string, count int, sql string) *NotSingularError {
	return &NotSingularError{label: label, count: count, sql: sql}
}

// IsNotSingular returns true if the error is a NotSingularError.
func IsNotSingular(err error) bool {
	if err == nil {
		return false
	}
	var e *NotSingularError
	return errors.As(err, &e) || errors.Is(err, ErrNotSingular)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	name string // Constraint name reported by the driver, if any
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	if e.name != "" {
		return fmt.Sprintf("quarry: constraint %q failed: %v", e.name, e.wrap)
	}
	return fmt.Sprintf("quarry: constraint failed: %v", e.wrap)
}

// Unwrap returns the underlying driver error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// Name returns the violated constraint name, if the driver reported one.
func (e ConstraintError) Name() string {
	return e.name
}

// NewConstraintError returns a new ConstraintError wrapping the driver error.
func NewConstraintError(name string, wrap error) error {
	return ConstraintError{name: name, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// ValidationError represents a validation error for column values.
type ValidationError struct {
	Name string // Column or entity name
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("quarry: validator failed for column %q: %s", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given column.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// RollbackError wraps an error that occurred during a transaction rollback.
// The original error that triggered the rollback is joined in Orig.
type RollbackError struct {
	Err  error // Rollback failure
	Orig error // Original error that triggered rollback
}

// Error returns the error string.
func (e *RollbackError) Error() string {
	if e.Orig != nil {
		return fmt.Sprintf("quarry: rollback failed: %v (original error: %v)", e.Err, e.Orig)
	}
	return fmt.Sprintf("quarry: rollback failed: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *RollbackError) Unwrap() error {
	return e.Err
}

// DiscardedChangesError is returned when flushing an entity whose pending
// changes reference another entity that was discarded after being modified.
type DiscardedChangesError struct {
	Label  string // Entity type with the discarded changes
	Column string // Column through which the discarded entity was reached
}

// Error returns the error string.
func (e *DiscardedChangesError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("quarry: %s via %q has discarded changes", e.Label, e.Column)
	}
	return fmt.Sprintf("quarry: %s has discarded changes", e.Label)
}

// IsDiscardedChanges returns true if the error is a DiscardedChangesError.
func IsDiscardedChanges(err error) bool {
	if err == nil {
		return false
	}
	var e *DiscardedChangesError
	return errors.As(err, &e)
}

// GeneratedKeyError is returned when a generated key could not be retrieved
// after an insert.
type GeneratedKeyError struct {
	Table string
	Err   error
}

// Error returns the error string.
func (e *GeneratedKeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("quarry: retrieving generated key for %q: %v", e.Table, e.Err)
	}
	return fmt.Sprintf("quarry: no generated key returned for %q", e.Table)
}

// Unwrap returns the underlying error.
func (e *GeneratedKeyError) Unwrap() error {
	return e.Err
}

// AggregateValueError is returned when a scalar aggregate query yields zero
// rows or more than one row. It carries the rendered statement so the caller
// can see what was executed.
type AggregateValueError struct {
	Count int    // Number of result rows
	SQL   string // Rendered statement
}

// Error returns the error string.
func (e *AggregateValueError) Error() string {
	return fmt.Sprintf("quarry: aggregate expected 1 row, got %d: %s", e.Count, e.SQL)
}

// QueryError wraps a query error with additional context.
type QueryError struct {
	Entity string // Entity type being queried
	Op     string // Operation (e.g., "select", "count", "exist")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *QueryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("quarry: querying %s (%s): %v", e.Entity, e.Op, e.Err)
	}
	return fmt.Sprintf("quarry: querying %s: %v", e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// NewQueryError returns a new QueryError.
func NewQueryError(entity, op string, err error) *QueryError {
	return &QueryError{Entity: entity, Op: op, Err: err}
}

// IsQueryError returns true if the error is a QueryError.
func IsQueryError(err error) bool {
	if err == nil {
		return false
	}
	var e *QueryError
	return errors.As(err, &e)
}

// MutationError wraps a mutation error with additional context.
type MutationError struct {
	Entity string // Entity type being mutated
	Op     string // Operation (e.g., "insert", "update", "delete")
	Err    error  // Underlying error
}

// Error returns the error string.
func (e *MutationError) Error() string {
	return fmt.Sprintf("quarry: %s %s: %v", e.Op, e.Entity, e.Err)
}

// Unwrap returns the underlying error.
func (e *MutationError) Unwrap() error {
	return e.Err
}

// NewMutationError returns a new MutationError.
func NewMutationError(entity, op string, err error) *MutationError {
	return &MutationError{Entity: entity, Op: op, Err: err}
}

// IsMutationError returns true if the error is a MutationError.
func IsMutationError(err error) bool {
	if err == nil {
		return false
	}
	var e *MutationError
	return errors.As(err, &e)
}
