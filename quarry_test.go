package quarry

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/dialect/sql"
	"github.com/quarrydb/quarry/schema"
)

// orgSchema is the employees -> departments fixture shared by the query,
// entity and mutation tests.
type orgSchema struct {
	employees   *schema.Table
	departments *schema.Table

	empID   *schema.Column[int64]
	empName *schema.Column[string]
	empAge  *schema.Column[int64]
	empDep  *schema.Column[int64]

	depID   *schema.Column[int64]
	depName *schema.Column[string]
}

func newOrg() *orgSchema {
	s := &orgSchema{}
	s.departments = schema.New("departments")
	s.depID = schema.Int64(s.departments, "id").PrimaryKey().Auto()
	s.depName = schema.String(s.departments, "name")

	s.employees = schema.New("employees")
	s.empID = schema.Int64(s.employees, "id").PrimaryKey().Auto()
	s.empName = schema.String(s.employees, "name")
	s.empAge = schema.Int64(s.employees, "age")
	s.empDep = schema.Int64(s.employees, "department_id").References(s.departments)
	return s
}

// newTestClient returns a client over a sqlmock connection rendering for
// the given dialect. The mock matches statements by exact text.
func newTestClient(t *testing.T, dialect string, opts ...Option) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewClient(sql.OpenDB(dialect, db), opts...), mock
}
