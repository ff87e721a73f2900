package subscription

import (
	"slices"

	"github.com/lumenstore/lumen/query"
)

// Descriptor is the structural fingerprint of a running query: the tables it
// reads, the columns it selects (in selection order), its predicates, and its
// ORDER BY columns and directions.
//
// Descriptors compare by value. UI bindings use that to detect when a
// consumer's query shape changed and a resubscription is needed.
type Descriptor struct {
	Tables          []string
	FieldNames      []string
	Filters         []query.FieldFilter
	OrderFieldNames []string
	OrderDirections []query.Direction
}

// DescriptorForSelect extracts the descriptor of a resolved select statement.
func DescriptorForSelect(stmt *query.SelectStmt) Descriptor {
	return Descriptor{
		Tables:          slices.Clone(stmt.Tables),
		FieldNames:      slices.Clone(stmt.FieldNames),
		Filters:         slices.Clone(stmt.Filters),
		OrderFieldNames: stmt.OrderFieldNames(),
		OrderDirections: stmt.OrderDirections(),
	}
}

// Equal reports whether two descriptors describe the same query shape.
func (d Descriptor) Equal(other Descriptor) bool {
	return slices.Equal(d.Tables, other.Tables) &&
		slices.Equal(d.FieldNames, other.FieldNames) &&
		slices.EqualFunc(d.Filters, other.Filters, query.FieldFilter.Equal) &&
		slices.Equal(d.OrderFieldNames, other.OrderFieldNames) &&
		slices.Equal(d.OrderDirections, other.OrderDirections)
}

// readsTable reports whether the descriptor depends on the named table.
func (d Descriptor) readsTable(table string) bool {
	return slices.Contains(d.Tables, table)
}

// selectsField reports whether the named column is in the selected field set.
func (d Descriptor) selectsField(column string) bool {
	return slices.Contains(d.FieldNames, column)
}

// filtersOnField reports whether any descriptor filter constrains the column.
func (d Descriptor) filtersOnField(column string) bool {
	return slices.ContainsFunc(d.Filters, func(f query.FieldFilter) bool {
		return f.Left.Field == column
	})
}

// ordersByField reports whether the column appears in the ORDER BY clause.
func (d Descriptor) ordersByField(column string) bool {
	return slices.Contains(d.OrderFieldNames, column)
}
