package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/value"
)

func TestCompileSelect(t *testing.T) {
	tests := []struct {
		name         string
		stmt         *query.SelectStmt
		orderColumns bool
		expectedSQL  string
		expectedArgs []any
	}{
		{
			"plain",
			query.Select("users", "id", "name"),
			false,
			`SELECT "id", "name" FROM "users"`,
			nil,
		},
		{
			"filtered and ordered",
			query.Select("users", "id", "name").
				Filter(query.Gte("users", "age", value.BigInt(21))).
				Filter(query.Ne("users", "name", value.Text("root"))).
				OrderBy("users", "name", query.Asc),
			false,
			`SELECT "id", "name" FROM "users" WHERE "users"."age" >= ? AND "users"."name" != ? ORDER BY "users"."name" ASC`,
			[]any{int64(21), "root"},
		},
		{
			"in filter",
			query.Select("users", "id").
				Filter(query.In("users", "name", value.Text("ann"), value.Text("bob"))),
			false,
			`SELECT "id" FROM "users" WHERE "users"."name" IN (?, ?)`,
			[]any{"ann", "bob"},
		},
		{
			"limit",
			query.Select("users", "id").WithLimit(5),
			false,
			`SELECT "id" FROM "users" LIMIT 5`,
			nil,
		},
		{
			"join",
			query.Select("users", "name").Join("orders", "total"),
			false,
			`SELECT "name", "total" FROM "users", "orders"`,
			nil,
		},
		{
			"order column outside selection is appended",
			query.Select("users", "id", "name").
				OrderBy("users", "age", query.Desc),
			true,
			`SELECT "id", "name", "age" FROM "users" ORDER BY "users"."age" DESC`,
			nil,
		},
		{
			"selected order column is not duplicated",
			query.Select("users", "id", "name").
				OrderBy("users", "name", query.Asc),
			true,
			`SELECT "id", "name" FROM "users" ORDER BY "users"."name" ASC`,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sqlText, args := CompileSelect(tt.stmt, tt.orderColumns)
			assert.Equal(t, tt.expectedSQL, sqlText)
			assert.Equal(t, tt.expectedArgs, args)
		})
	}
}

func TestCompileInsert(t *testing.T) {
	stmt := query.InsertInto("users").
		Set("id", value.BigInt(1)).
		Set("name", value.Text("ann")).
		Set("active", value.Bool(true))

	sqlText, args := CompileInsert(stmt)
	assert.Equal(t, `INSERT INTO "users" ("id", "name", "active") VALUES (?, ?, ?)`, sqlText)
	assert.Equal(t, []any{int64(1), "ann", true}, args)
}

func TestCompileUpdate(t *testing.T) {
	t.Run("literals", func(t *testing.T) {
		stmt := query.Update("users").
			SetValue("name", value.Text("bob")).
			Filter(query.Eq("users", "id", value.BigInt(1)))

		sqlText, args := CompileUpdate(stmt)
		assert.Equal(t, `UPDATE "users" SET "name" = ? WHERE "users"."id" = ?`, sqlText)
		assert.Equal(t, []any{"bob", int64(1)}, args)
	})

	t.Run("field ref and concat compile to expressions", func(t *testing.T) {
		stmt := query.Update("users").
			Set("bio", query.Cat(query.Ref("bio"), query.Lit(value.Text("...")))).
			Set("alias", query.Ref("name"))

		sqlText, args := CompileUpdate(stmt)
		assert.Equal(t, `UPDATE "users" SET "bio" = ("bio" || ?), "alias" = "name"`, sqlText)
		assert.Equal(t, []any{"..."}, args)
	})
}

func TestCompileDelete(t *testing.T) {
	stmt := query.Delete("users").Filter(query.Lt("users", "age", value.BigInt(18)))

	sqlText, args := CompileDelete(stmt)
	assert.Equal(t, `DELETE FROM "users" WHERE "users"."age" < ?`, sqlText)
	assert.Equal(t, []any{int64(18)}, args)
}

func TestQuoteIdentEscapesQuotes(t *testing.T) {
	assert.Equal(t, `"wei""rd"`, quoteIdent(`wei"rd`))
}

func TestValueArg(t *testing.T) {
	assert.Equal(t, int64(7), valueArg(value.Int(7)))
	assert.Equal(t, float64(1.5), valueArg(value.Float(1.5)))
	assert.Equal(t, "x", valueArg(value.Text("x")))
	assert.Equal(t, []byte{1}, valueArg(value.Blob{1}))
	assert.Equal(t, true, valueArg(value.Bool(true)))
	assert.Nil(t, valueArg(value.Null{}))
}
