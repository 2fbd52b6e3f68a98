package quarry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("users")
	assert.True(t, IsNotFound(err))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "quarry: users not found", err.Error())

	withSQL := NewNotFoundErrorSQL("users", "SELECT id FROM users")
	assert.Equal(t, "quarry: users not found: SELECT id FROM users", withSQL.Error())
	assert.Equal(t, "SELECT id FROM users", withSQL.SQL())

	wrapped := fmt.Errorf("loading profile: %w", err)
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsNotFound(nil))
	assert.False(t, IsNotFound(errors.New("other")))
}

func TestNotSingularError(t *testing.T) {
	err := NewNotSingularErrorSQL("users", 3, "SELECT id FROM users")
	assert.True(t, IsNotSingular(err))
	assert.True(t, errors.Is(err, ErrNotSingular))
	assert.Equal(t, 3, err.Count())
	assert.Equal(t, "quarry: users not singular (got 3 results, expected 1): SELECT id FROM users", err.Error())

	bare := NewNotSingularError("users")
	assert.Equal(t, -1, bare.Count())
	assert.Equal(t, "quarry: users not singular", bare.Error())
	assert.False(t, IsNotSingular(nil))
}

func TestConstraintError(t *testing.T) {
	cause := errors.New("duplicate key value")
	err := NewConstraintError("users_email_key", cause)
	assert.True(t, IsConstraintError(err))
	assert.True(t, errors.Is(err, cause))

	var ce ConstraintError
	assert.True(t, errors.As(err, &ce))
	assert.Equal(t, "users_email_key", ce.Name())
	assert.False(t, IsConstraintError(cause))
}

func TestValidationError(t *testing.T) {
	cause := errors.New("too long")
	err := NewValidationError("name", cause)
	assert.True(t, IsValidationError(err))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), `column "name"`)
	assert.False(t, IsValidationError(cause))
}

func TestQueryMutationErrors(t *testing.T) {
	cause := errors.New("driver gone")
	qe := NewQueryError("users", "count", cause)
	assert.True(t, IsQueryError(qe))
	assert.True(t, errors.Is(qe, cause))
	assert.Equal(t, "quarry: querying users (count): driver gone", qe.Error())

	me := NewMutationError("users", "insert", cause)
	assert.True(t, IsMutationError(me))
	assert.True(t, errors.Is(me, cause))
	assert.Equal(t, "quarry: insert users: driver gone", me.Error())
	assert.False(t, IsQueryError(me))
	assert.False(t, IsMutationError(qe))
}

func TestDiscardedChangesError(t *testing.T) {
	err := &DiscardedChangesError{Label: "departments", Column: "department"}
	assert.True(t, IsDiscardedChanges(err))
	assert.Equal(t, `quarry: departments via "department" has discarded changes`, err.Error())
	assert.Equal(t, "quarry: departments has discarded changes", (&DiscardedChangesError{Label: "departments"}).Error())
}

func TestRollbackError(t *testing.T) {
	rb := errors.New("rollback failed")
	orig := errors.New("original")
	err := &RollbackError{Err: rb, Orig: orig}
	assert.True(t, errors.Is(err, rb))
	assert.Contains(t, err.Error(), "original")
}
