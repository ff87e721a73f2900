package sqlite

import (
	"fmt"
	"strings"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/value"
)

// Statement compilation renders parameterized SQL with ? placeholders; the
// value arguments travel separately. Identifiers are always quoted.

// CompileSelect renders a select statement. When includeOrderColumns is set,
// ORDER BY columns missing from the selected field list are appended as
// trailing result columns so order keys can be extracted from the same rows.
func CompileSelect(stmt *query.SelectStmt, includeOrderColumns bool) (string, []any) {
	var b strings.Builder
	var args []any

	b.WriteString("SELECT ")
	for i, name := range stmt.FieldNames {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(name))
	}
	if includeOrderColumns {
		for _, ord := range stmt.Orders {
			if !contains(stmt.FieldNames, ord.Field) {
				b.WriteString(", ")
				b.WriteString(quoteIdent(ord.Field))
			}
		}
	}

	b.WriteString(" FROM ")
	for i, table := range stmt.Tables {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(table))
	}

	args = appendWhere(&b, stmt.Filters, args)

	if len(stmt.Orders) > 0 {
		b.WriteString(" ORDER BY ")
		for i, ord := range stmt.Orders {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s.%s %s", quoteIdent(ord.Table), quoteIdent(ord.Field), ord.Direction)
		}
	}

	if stmt.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", stmt.Limit)
	}

	return b.String(), args
}

// CompileInsert renders an insert statement.
func CompileInsert(stmt *query.InsertStmt) (string, []any) {
	var b strings.Builder
	args := make([]any, 0, len(stmt.Values))

	fmt.Fprintf(&b, "INSERT INTO %s (", quoteIdent(stmt.Table))
	for i, nv := range stmt.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(nv.Column))
	}
	b.WriteString(") VALUES (")
	for i, nv := range stmt.Values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('?')
		args = append(args, valueArg(nv.Value))
	}
	b.WriteByte(')')

	return b.String(), args
}

// CompileUpdate renders an update statement. Literal assignments become
// placeholders; field references and concatenations compile to SQL
// expressions so the database evaluates them against each affected row.
func CompileUpdate(stmt *query.UpdateStmt) (string, []any) {
	var b strings.Builder
	var args []any

	fmt.Fprintf(&b, "UPDATE %s SET ", quoteIdent(stmt.Table))
	for i, ch := range stmt.Changed {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(ch.Column))
		b.WriteString(" = ")
		args = appendExpr(&b, ch.Expr, args)
	}

	args = appendWhere(&b, stmt.Filters, args)
	return b.String(), args
}

// CompileDelete renders a delete statement.
func CompileDelete(stmt *query.DeleteStmt) (string, []any) {
	var b strings.Builder
	var args []any

	fmt.Fprintf(&b, "DELETE FROM %s", quoteIdent(stmt.Table))
	args = appendWhere(&b, stmt.Filters, args)
	return b.String(), args
}

func appendWhere(b *strings.Builder, filters []query.FieldFilter, args []any) []any {
	for i, f := range filters {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		args = appendFilter(b, f, args)
	}
	return args
}

func appendFilter(b *strings.Builder, f query.FieldFilter, args []any) []any {
	fmt.Fprintf(b, "%s.%s", quoteIdent(f.Left.Table), quoteIdent(f.Left.Field))

	if f.Op == query.OpIn {
		b.WriteString(" IN (")
		for i, member := range f.Set {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('?')
			args = append(args, valueArg(member))
		}
		b.WriteByte(')')
		return args
	}

	fmt.Fprintf(b, " %s ?", f.Op)
	return append(args, valueArg(f.Right))
}

func appendExpr(b *strings.Builder, e query.FieldExpr, args []any) []any {
	switch ee := e.(type) {
	case query.Literal:
		b.WriteByte('?')
		return append(args, valueArg(ee.Value))
	case query.FieldRef:
		b.WriteString(quoteIdent(ee.Column))
		return args
	case query.Concat:
		b.WriteByte('(')
		args = appendExpr(b, ee.Left, args)
		b.WriteString(" || ")
		args = appendExpr(b, ee.Right, args)
		b.WriteByte(')')
		return args
	default:
		// Sealed union; nothing else can reach here.
		b.WriteString("NULL")
		return args
	}
}

// valueArg converts an engine value to a driver argument.
func valueArg(v value.Value) any {
	switch vv := v.(type) {
	case value.Int:
		return int64(vv)
	case value.BigInt:
		return int64(vv)
	case value.Float:
		return float64(vv)
	case value.Double:
		return float64(vv)
	case value.Text:
		return string(vv)
	case value.Blob:
		return []byte(vv)
	case value.Bool:
		return bool(vv)
	default:
		return nil
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
