package quarry

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/schema"
)

func TestInsertExec(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	org := newOrg()

	mock.ExpectExec("INSERT INTO employees (name, age) VALUES ($1, $2)").
		WithArgs("ada", int64(36)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := c.Insert(org.employees).
		Set(org.empName.Set("ada"), org.empAge.Set(36)).
		Exec(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertExecKeyReturning(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	org := newOrg()

	mock.ExpectQuery("INSERT INTO employees (name) VALUES ($1) RETURNING id").
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	id, err := c.Insert(org.employees).
		Set(org.empName.Set("ada")).
		ExecKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertExecKeyLastInsertID(t *testing.T) {
	c, mock := newTestClient(t, "mysql")
	org := newOrg()

	mock.ExpectExec("INSERT INTO `employees` (`name`) VALUES (?)").
		WithArgs("ada").
		WillReturnResult(sqlmock.NewResult(9, 1))

	id, err := c.Insert(org.employees).
		Set(org.empName.Set("ada")).
		ExecKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertExecKeyNoAutoColumn(t *testing.T) {
	c, _ := newTestClient(t, "postgres")
	tags := schema.New("tags")
	schema.String(tags, "name").PrimaryKey()

	_, err := c.Insert(tags).ExecKey(context.Background())
	var gke *GeneratedKeyError
	require.ErrorAs(t, err, &gke)
	assert.Equal(t, "tags", gke.Table)
}

func TestInsertUpsert(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	org := newOrg()

	mock.ExpectExec("INSERT INTO employees (name) VALUES ($1)"+
		" ON CONFLICT (name) DO UPDATE SET age = $2").
		WithArgs("ada", int64(36)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := c.Insert(org.employees).
		Set(org.empName.Set("ada")).
		OnConflict(&sql.ConflictExpr{
			Columns: []string{"name"},
			Action:  sql.DoUpdate,
			Updates: []sql.Assignment{org.empAge.Set(36)},
		}).
		Exec(context.Background())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertConstraintTranslation(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	org := newOrg()

	mock.ExpectExec("INSERT INTO employees (name) VALUES ($1)").
		WithArgs("ada").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "employees_name_key"})

	err := c.Insert(org.employees).
		Set(org.empName.Set("ada")).
		Exec(context.Background())
	require.True(t, IsMutationError(err))
	require.True(t, IsConstraintError(err))
	var ce ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "employees_name_key", ce.Name())
	// The driver error stays reachable through the wrap chain.
	var pqe *pq.Error
	require.ErrorAs(t, err, &pqe)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBuilder(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	org := newOrg()

	mock.ExpectExec("UPDATE employees SET age = $1 WHERE employees.name = $2").
		WithArgs(int64(37), "ada").
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := c.Update(org.employees).
		Set(org.empAge.Set(37)).
		Filter(org.empName.EQ("ada")).
		Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBuilder(t *testing.T) {
	c, mock := newTestClient(t, "postgres")
	org := newOrg()

	mock.ExpectExec("DELETE FROM employees WHERE employees.age > $1").
		WithArgs(int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := c.Delete(org.employees).
		Filter(org.empAge.GT(99)).
		Exec(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
