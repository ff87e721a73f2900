// Package query models resolved statements: the tables, selected columns,
// predicates, order clauses, and update expressions that describe a query or
// a write. The subscription engine consumes these shapes; the sqlite adapter
// compiles them to SQL.
//
// Builders here are fluent and runtime-checked. Whether every referenced
// column actually belongs to a declared table is validated against a schema
// at execution time (see the schema package), not by the type system.
package query

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lumenstore/lumen/value"
)

// TableFieldPair names one (table, column) pair.
type TableFieldPair struct {
	Table string
	Field string
}

func (p TableFieldPair) String() string {
	return p.Table + "." + p.Field
}

// FilterOp is the comparison operator of a FieldFilter.
type FilterOp int

const (
	OpEq FilterOp = iota
	OpNe
	OpGt
	OpLt
	OpGte
	OpLte
	OpIn
)

// String returns the SQL spelling of the operator.
func (op FilterOp) String() string {
	switch op {
	case OpEq:
		return "="
	case OpNe:
		return "!="
	case OpGt:
		return ">"
	case OpLt:
		return "<"
	case OpGte:
		return ">="
	case OpLte:
		return "<="
	case OpIn:
		return "IN"
	default:
		return fmt.Sprintf("FilterOp(%d)", int(op))
	}
}

// FieldFilter is a predicate over one (table, column) pair. For OpIn the
// right-hand side is Set; for every other operator it is Right.
//
// Filters describe both what a query selects and which rows a write targeted,
// so the relevance engine can compare the two.
type FieldFilter struct {
	Op    FilterOp
	Left  TableFieldPair
	Right value.Value
	Set   []value.Value
}

// Eq builds an equality filter.
func Eq(table, field string, v value.Value) FieldFilter {
	return FieldFilter{Op: OpEq, Left: TableFieldPair{table, field}, Right: v}
}

// Ne builds an inequality filter.
func Ne(table, field string, v value.Value) FieldFilter {
	return FieldFilter{Op: OpNe, Left: TableFieldPair{table, field}, Right: v}
}

// Gt builds a greater-than filter.
func Gt(table, field string, v value.Value) FieldFilter {
	return FieldFilter{Op: OpGt, Left: TableFieldPair{table, field}, Right: v}
}

// Lt builds a less-than filter.
func Lt(table, field string, v value.Value) FieldFilter {
	return FieldFilter{Op: OpLt, Left: TableFieldPair{table, field}, Right: v}
}

// Gte builds a greater-or-equal filter.
func Gte(table, field string, v value.Value) FieldFilter {
	return FieldFilter{Op: OpGte, Left: TableFieldPair{table, field}, Right: v}
}

// Lte builds a less-or-equal filter.
func Lte(table, field string, v value.Value) FieldFilter {
	return FieldFilter{Op: OpLte, Left: TableFieldPair{table, field}, Right: v}
}

// In builds a set-membership filter.
func In(table, field string, vs ...value.Value) FieldFilter {
	return FieldFilter{Op: OpIn, Left: TableFieldPair{table, field}, Set: vs}
}

// SatisfiedBy reports whether a concrete value passes this filter. OpIn tests
// membership with kind-strict equality; the ordered operators use the total
// order from the value package.
func (f FieldFilter) SatisfiedBy(v value.Value) bool {
	if f.Op == OpIn {
		return slices.ContainsFunc(f.Set, func(member value.Value) bool {
			return value.Equal(v, member)
		})
	}
	switch f.Op {
	case OpEq:
		return value.Equal(v, f.Right)
	case OpNe:
		return !value.Equal(v, f.Right)
	case OpGt:
		return comparableKinds(v, f.Right) && value.Compare(v, f.Right) > 0
	case OpLt:
		return comparableKinds(v, f.Right) && value.Compare(v, f.Right) < 0
	case OpGte:
		return comparableKinds(v, f.Right) && value.Compare(v, f.Right) >= 0
	case OpLte:
		return comparableKinds(v, f.Right) && value.Compare(v, f.Right) <= 0
	default:
		return false
	}
}

// comparableKinds reports whether two values order naturally (same kind or
// same numeric family). Ordered filters never match across unrelated kinds,
// mirroring SQL comparison semantics rather than the index total order.
func comparableKinds(a, b value.Value) bool {
	ka, kb := value.KindOf(a), value.KindOf(b)
	if ka == kb {
		return ka != value.KindNull
	}
	intFamily := func(k value.Kind) bool { return k == value.KindInt || k == value.KindBigInt }
	floatFamily := func(k value.Kind) bool { return k == value.KindFloat || k == value.KindDouble }
	return (intFamily(ka) && intFamily(kb)) || (floatFamily(ka) && floatFamily(kb))
}

// Equal reports structural equality, used by descriptor comparison.
func (f FieldFilter) Equal(other FieldFilter) bool {
	if f.Op != other.Op || f.Left != other.Left {
		return false
	}
	if f.Op == OpIn {
		return slices.EqualFunc(f.Set, other.Set, value.Equal)
	}
	return value.Equal(f.Right, other.Right)
}

func (f FieldFilter) String() string {
	if f.Op == OpIn {
		members := make([]string, len(f.Set))
		for i, m := range f.Set {
			members[i] = value.String(m)
		}
		return fmt.Sprintf("%s IN (%s)", f.Left, strings.Join(members, ", "))
	}
	return fmt.Sprintf("%s %s %s", f.Left, f.Op, value.String(f.Right))
}
