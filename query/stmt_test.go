package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenstore/lumen/value"
)

func TestSelectBuilder(t *testing.T) {
	stmt := Select("users", "id", "name").
		Filter(Gte("users", "age", value.BigInt(21))).
		OrderBy("users", "name", Asc).
		OrderBy("users", "age", Desc).
		WithLimit(10)

	assert.Equal(t, []string{"users"}, stmt.Tables)
	assert.Equal(t, []string{"id", "name"}, stmt.FieldNames)
	assert.Len(t, stmt.Filters, 1)
	assert.Equal(t, []string{"name", "age"}, stmt.OrderFieldNames())
	assert.Equal(t, []Direction{Asc, Desc}, stmt.OrderDirections())
	assert.Equal(t, 10, stmt.Limit)
}

func TestSelectJoin(t *testing.T) {
	stmt := Select("users", "name").Join("orders", "total")

	assert.Equal(t, []string{"users", "orders"}, stmt.Tables)
	assert.Equal(t, []string{"name", "total"}, stmt.FieldNames)
}

func TestInsertBuilder(t *testing.T) {
	stmt := InsertInto("users").
		Set("id", value.BigInt(1)).
		Set("name", value.Text("ann"))

	assert.Equal(t, "users", stmt.Table)
	assert.Equal(t, []value.Named{
		{Column: "id", Value: value.BigInt(1)},
		{Column: "name", Value: value.Text("ann")},
	}, stmt.Values)
}

func TestUpdateBuilder(t *testing.T) {
	stmt := Update("users").
		SetValue("name", value.Text("bob")).
		Set("bio", Cat(Ref("bio"), Lit(value.Text("...")))).
		Filter(Eq("users", "id", value.BigInt(1)))

	assert.Equal(t, "users", stmt.Table)
	assert.Len(t, stmt.Changed, 2)
	assert.Equal(t, "name", stmt.Changed[0].Column)
	assert.True(t, ExprEqual(stmt.Changed[0].Expr, Lit(value.Text("bob"))))
	assert.Len(t, stmt.Filters, 1)
}

func TestDeleteBuilder(t *testing.T) {
	stmt := Delete("users").Filter(Lt("users", "age", value.BigInt(18)))

	assert.Equal(t, "users", stmt.Table)
	assert.Len(t, stmt.Filters, 1)
	assert.Equal(t, OpLt, stmt.Filters[0].Op)
}
