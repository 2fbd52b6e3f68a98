package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrydb/quarry/dialect/sql"
)

// org builds the employees -> departments -> companies reference chain.
func org() (employees, departments, companies *Table) {
	companies = New("companies")
	Int64(companies, "id").PrimaryKey().Auto()
	String(companies, "name")

	departments = New("departments")
	Int64(departments, "id").PrimaryKey().Auto()
	String(departments, "name")
	Int64(departments, "company_id").References(companies)

	employees = New("employees")
	Int64(employees, "id").PrimaryKey().Auto()
	String(employees, "name")
	Int64(employees, "department_id").References(departments)
	return employees, departments, companies
}

func TestPlanFlat(t *testing.T) {
	employees, _, _ := org()
	plan, err := Plan(employees, false)
	require.NoError(t, err)

	query, _, err := sql.Format(sql.SelectFrom(plan.From).SetColumns(plan.SelectColumns()...), sql.Postgres(), sql.Options{})
	require.NoError(t, err)
	assert.Equal(t, "SELECT employees.id, employees.name, employees.department_id FROM employees", query)
	assert.Equal(t, "employees", plan.RootAlias)
	for _, pc := range plan.Columns {
		assert.Empty(t, pc.Path)
		assert.Equal(t, pc.Column.Name(), pc.Alias)
	}
}

func TestPlanExpanded(t *testing.T) {
	employees, _, _ := org()
	plan, err := Plan(employees, true)
	require.NoError(t, err)

	query, _, err := sql.Format(sql.SelectFrom(plan.From).SetColumns(plan.SelectColumns()...), sql.Postgres(), sql.Options{})
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT t0.id AS t0_id, t0.name AS t0_name, t0.department_id AS t0_department_id, "+
			"t1.id AS t1_id, t1.name AS t1_name, t1.company_id AS t1_company_id, "+
			"t2.id AS t2_id, t2.name AS t2_name "+
			"FROM employees AS t0 "+
			"LEFT JOIN departments AS t1 ON t0.department_id = t1.id "+
			"LEFT JOIN companies AS t2 ON t1.company_id = t2.id",
		query)
	assert.Equal(t, "t0", plan.RootAlias)

	byAlias := map[string][]string{}
	for _, pc := range plan.Columns {
		byAlias[pc.TableAlias] = pc.Path
	}
	assert.Empty(t, byAlias["t0"])
	assert.Equal(t, []string{"department"}, byAlias["t1"])
	assert.Equal(t, []string{"department", "company"}, byAlias["t2"])
}

func TestPlanDiamond(t *testing.T) {
	addresses := New("addresses")
	Int64(addresses, "id").PrimaryKey().Auto()

	orders := New("orders")
	Int64(orders, "id").PrimaryKey().Auto()
	Int64(orders, "billing_id").BindTo("billing").References(addresses)
	Int64(orders, "shipping_id").BindTo("shipping").References(addresses)

	plan, err := Plan(orders, true)
	require.NoError(t, err)

	// Both paths get their own alias; the shared table is joined twice.
	aliases := map[string]bool{}
	for _, pc := range plan.Columns {
		if pc.Column.Table() == addresses {
			aliases[pc.TableAlias] = true
		}
	}
	assert.Len(t, aliases, 2)
}

func TestPlanCycle(t *testing.T) {
	a := New("alpha")
	Int64(a, "id").PrimaryKey()
	b := New("beta")
	Int64(b, "id").PrimaryKey()
	Int64(b, "alpha_id").References(a)
	Int64(a, "beta_id").References(b)

	_, err := Plan(a, true)
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"alpha", "beta", "alpha"}, ce.Chain)
}

func TestPlanSelfReferenceCycle(t *testing.T) {
	nodes := New("nodes")
	Int64(nodes, "id").PrimaryKey()
	Int64(nodes, "parent_id").References(nodes)

	_, err := Plan(nodes, true)
	var ce *CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, []string{"nodes", "nodes"}, ce.Chain)
}

func TestPlanRefNeedsSinglePK(t *testing.T) {
	pairs := New("pairs")
	Int64(pairs, "left_id").PrimaryKey()
	Int64(pairs, "right_id").PrimaryKey()

	links := New("links")
	Int64(links, "id").PrimaryKey()
	Int64(links, "pair_id").References(pairs)

	_, err := Plan(links, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exactly one primary-key column")
}
