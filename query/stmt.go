package query

import (
	"github.com/lumenstore/lumen/value"
)

// SelectStmt is a resolved read query: the shape the subscription engine
// fingerprints and the sqlite adapter compiles.
type SelectStmt struct {
	Tables     []string
	FieldNames []string
	Filters    []FieldFilter
	Orders     []OrderBy

	// Limit caps the row count at fetch time; zero means no cap. The cap is
	// not re-enforced during incremental merging.
	Limit int
}

// Select starts a read query over table, selecting the named columns.
func Select(table string, fields ...string) *SelectStmt {
	return &SelectStmt{
		Tables:     []string{table},
		FieldNames: fields,
	}
}

// Join adds another table and its selected columns to the query.
func (s *SelectStmt) Join(table string, fields ...string) *SelectStmt {
	s.Tables = append(s.Tables, table)
	s.FieldNames = append(s.FieldNames, fields...)
	return s
}

// Filter appends a predicate.
func (s *SelectStmt) Filter(f FieldFilter) *SelectStmt {
	s.Filters = append(s.Filters, f)
	return s
}

// OrderBy appends an ORDER BY clause.
func (s *SelectStmt) OrderBy(table, field string, d Direction) *SelectStmt {
	s.Orders = append(s.Orders, OrderBy{Table: table, Field: field, Direction: d})
	return s
}

// WithLimit caps the number of fetched rows.
func (s *SelectStmt) WithLimit(n int) *SelectStmt {
	s.Limit = n
	return s
}

// OrderFieldNames returns the ORDER BY column names in clause order.
func (s *SelectStmt) OrderFieldNames() []string {
	names := make([]string, len(s.Orders))
	for i, o := range s.Orders {
		names[i] = o.Field
	}
	return names
}

// OrderDirections returns the ORDER BY directions in clause order.
func (s *SelectStmt) OrderDirections() []Direction {
	dirs := make([]Direction, len(s.Orders))
	for i, o := range s.Orders {
		dirs[i] = o.Direction
	}
	return dirs
}

// InsertStmt is a resolved INSERT of one complete row.
type InsertStmt struct {
	Table  string
	Values []value.Named
}

// InsertInto starts an insert statement.
func InsertInto(table string) *InsertStmt {
	return &InsertStmt{Table: table}
}

// Set assigns a column value. Columns are kept in assignment order.
func (s *InsertStmt) Set(column string, v value.Value) *InsertStmt {
	s.Values = append(s.Values, value.Named{Column: column, Value: v})
	return s
}

// UpdateStmt is a resolved UPDATE: only the assigned columns appear, each as
// an expression, plus the predicate identifying the affected rows.
type UpdateStmt struct {
	Table   string
	Changed []NamedExpr
	Filters []FieldFilter
}

// Update starts an update statement.
func Update(table string) *UpdateStmt {
	return &UpdateStmt{Table: table}
}

// Set assigns an expression to a column.
func (s *UpdateStmt) Set(column string, e FieldExpr) *UpdateStmt {
	s.Changed = append(s.Changed, NamedExpr{Column: column, Expr: e})
	return s
}

// SetValue assigns a literal value to a column.
func (s *UpdateStmt) SetValue(column string, v value.Value) *UpdateStmt {
	return s.Set(column, Lit(v))
}

// Filter appends a target-row predicate.
func (s *UpdateStmt) Filter(f FieldFilter) *UpdateStmt {
	s.Filters = append(s.Filters, f)
	return s
}

// DeleteStmt is a resolved DELETE.
type DeleteStmt struct {
	Table   string
	Filters []FieldFilter
}

// Delete starts a delete statement.
func Delete(table string) *DeleteStmt {
	return &DeleteStmt{Table: table}
}

// Filter appends a target-row predicate.
func (s *DeleteStmt) Filter(f FieldFilter) *DeleteStmt {
	s.Filters = append(s.Filters, f)
	return s
}
