package subscription

import (
	"slices"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/value"
)

// Relevant reports whether a mutation event could affect a subscription's
// result. It must never return false for an event that could change the
// result; soundness beats precision here.
func Relevant(ev *Event, d Descriptor) bool {
	if !d.readsTable(ev.Table) {
		return false
	}

	switch ev.Kind {
	case EventInsert:
		return insertMatchesFilters(ev.Values, d.Filters)

	case EventUpdate:
		// Rewriting a filtered column can move rows into the result set, so
		// the pre-image disjointness argument below does not apply: the
		// target filters describe rows before the write, the subscription
		// filters rows after it.
		touchesFiltered := slices.ContainsFunc(ev.Changed, func(c query.NamedExpr) bool {
			return d.filtersOnField(c.Column)
		})
		if touchesFiltered {
			return true
		}

		touchesSelected := slices.ContainsFunc(ev.Changed, func(c query.NamedExpr) bool {
			return d.selectsField(c.Column)
		})
		touchesOrdered := slices.ContainsFunc(ev.Changed, func(c query.NamedExpr) bool {
			return d.ordersByField(c.Column)
		})
		if !touchesSelected && !touchesOrdered {
			return false
		}

		// Filtered columns are untouched here, so rows keep their result
		// membership and disjoint target filters cannot reach a cached row.
		return !filtersProvablyDisjoint(d.Filters, ev.Filters)

	case EventDelete:
		return !filtersProvablyDisjoint(d.Filters, ev.Filters)

	default:
		// Unknown kind: assume it could matter.
		return true
	}
}

// insertMatchesFilters checks whether an inserted row satisfies every
// subscription filter. A filter whose column is absent from the insert
// payload is treated as unknown, which conservatively counts as a match.
func insertMatchesFilters(values []value.Named, filters []query.FieldFilter) bool {
	for _, f := range filters {
		v, found := lookupValue(values, f.Left.Field)
		if !found {
			return true
		}
		if !f.SatisfiedBy(v) {
			return false
		}
	}
	return true
}

// filtersProvablyDisjoint reports whether no row can satisfy both filter
// sets. It only recognizes known-contradictory shapes on the same
// (table, column) pair; anything it does not recognize, including every In
// filter, counts as "might overlap". It must never claim disjointness
// incorrectly.
func filtersProvablyDisjoint(subFilters, mutationFilters []query.FieldFilter) bool {
	for _, sf := range subFilters {
		for _, mf := range mutationFilters {
			if sf.Left != mf.Left {
				continue
			}
			if pairProvablyDisjoint(sf, mf) {
				return true
			}
		}
	}
	return false
}

// pairProvablyDisjoint checks two filters on the same column for a known
// contradiction.
func pairProvablyDisjoint(a, b query.FieldFilter) bool {
	if a.Op == query.OpIn || b.Op == query.OpIn {
		return false
	}

	switch {
	// Eq(x) vs Eq(y): disjoint when x != y.
	case a.Op == query.OpEq && b.Op == query.OpEq:
		return !value.Equal(a.Right, b.Right)

	// Eq(x) vs Ne(x): always disjoint.
	case (a.Op == query.OpEq && b.Op == query.OpNe) || (a.Op == query.OpNe && b.Op == query.OpEq):
		return value.Equal(a.Right, b.Right)

	// Eq(x) vs Gt(y): disjoint when x <= y.
	case (a.Op == query.OpEq && b.Op == query.OpGt) || (a.Op == query.OpGt && b.Op == query.OpEq):
		eqVal, gtVal := a.Right, b.Right
		if a.Op == query.OpGt {
			eqVal, gtVal = b.Right, a.Right
		}
		return orderedCompare(eqVal, gtVal, func(c int) bool { return c <= 0 })

	// Eq(x) vs Lt(y): disjoint when x >= y.
	case (a.Op == query.OpEq && b.Op == query.OpLt) || (a.Op == query.OpLt && b.Op == query.OpEq):
		eqVal, ltVal := a.Right, b.Right
		if a.Op == query.OpLt {
			eqVal, ltVal = b.Right, a.Right
		}
		return orderedCompare(eqVal, ltVal, func(c int) bool { return c >= 0 })

	// Gt(x) vs Lt(y): disjoint when x >= y.
	case (a.Op == query.OpGt && b.Op == query.OpLt) || (a.Op == query.OpLt && b.Op == query.OpGt):
		gtVal, ltVal := a.Right, b.Right
		if a.Op == query.OpLt {
			gtVal, ltVal = b.Right, a.Right
		}
		return orderedCompare(gtVal, ltVal, func(c int) bool { return c >= 0 })

	default:
		// Gte/Lte combinations and everything else: not recognized, so not
		// provably disjoint.
		return false
	}
}

// orderedCompare applies pred to the natural comparison of two values, but
// only when the two values order naturally (same kind or same numeric
// family). Cross-kind pairs are never provably disjoint.
func orderedCompare(a, b value.Value, pred func(int) bool) bool {
	if !naturallyOrdered(a, b) {
		return false
	}
	return pred(value.Compare(a, b))
}

func naturallyOrdered(a, b value.Value) bool {
	ka, kb := value.KindOf(a), value.KindOf(b)
	if ka == value.KindNull || kb == value.KindNull {
		return false
	}
	if ka == kb {
		return true
	}
	intFamily := func(k value.Kind) bool { return k == value.KindInt || k == value.KindBigInt }
	floatFamily := func(k value.Kind) bool { return k == value.KindFloat || k == value.KindDouble }
	return (intFamily(ka) && intFamily(kb)) || (floatFamily(ka) && floatFamily(kb))
}

// lookupValue finds a column's value in a named-value slice.
func lookupValue(values []value.Named, column string) (value.Value, bool) {
	for _, nv := range values {
		if nv.Column == column {
			return nv.Value, true
		}
	}
	return nil, false
}
