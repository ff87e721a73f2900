package subscription

import (
	"slices"

	"github.com/lumenstore/lumen/query"
	"github.com/lumenstore/lumen/value"
)

// The merge engine applies mutation events to cached outputs without
// re-querying. Conversion failures are swallowed here: a row that cannot be
// rebuilt keeps its last known value. Conversion is strict only at the
// initial fetch, where the error has a caller to return to.

// MergeCollection applies a mutation event to a multi-row output in place
// and reports whether the output changed. Change detection compares against
// a pre-merge clone, so events that turn out not to touch the result (the
// relevance test is conservative) report false and wake nobody.
func MergeCollection[T Row, P RowPtr[T]](coll Collection[T], d Descriptor, ev *Event) bool {
	before := coll.Clone()
	switch ev.Kind {
	case EventInsert:
		mergeInsert[T, P](coll, d, ev.Values)
	case EventUpdate:
		mergeUpdate[T, P](coll, d, ev.Changed, ev.Filters)
	case EventDelete:
		mergeDelete(coll, d, ev.Filters)
	}
	return !coll.Equal(before)
}

// MergeOne applies a mutation event to a single-row output and reports
// whether the row changed. Deletes are a no-op: a single-row output has no
// empty state to shrink into.
func MergeOne[T Row, P RowPtr[T]](row *T, d Descriptor, ev *Event) bool {
	switch ev.Kind {
	case EventInsert:
		newRow, ok := RowFromInsert[T, P](d, ev.Values)
		if ok && !RowsEqual(*row, newRow) {
			*row = newRow
			return true
		}
		return false
	case EventUpdate:
		return MergeUpdateSingleRow[T, P](row, d, ev.Changed, ev.Filters)
	default:
		return false
	}
}

// RowFromInsert reconstructs a result row from an insert payload, ordering
// the inserted columns by the descriptor's field names. Columns the insert
// did not provide become Null. Returns false when the row type rejects the
// values.
func RowFromInsert[T Row, P RowPtr[T]](d Descriptor, insertedValues []value.Named) (T, bool) {
	ordered := orderedByFieldNames(d.FieldNames, insertedValues)
	row, err := FromValues[T, P](ordered)
	if err != nil {
		var zero T
		return zero, false
	}
	return row, true
}

// MergeUpdateSingleRow applies an update's changed expressions to a row if
// it matches the mutation's filters. Reports whether the row was modified.
func MergeUpdateSingleRow[T Row, P RowPtr[T]](row *T, d Descriptor, changed []query.NamedExpr, mutationFilters []query.FieldFilter) bool {
	rowValues := ToFields(*row, d.FieldNames)
	if !RowMatchesFilters(rowValues, mutationFilters) {
		return false
	}
	updated := applyChanges(d.FieldNames, rowValues, changed)
	newRow, err := FromValues[T, P](updated)
	if err != nil {
		return false
	}
	if RowsEqual(*row, newRow) {
		return false
	}
	*row = newRow
	return true
}

// OrderKeyFromValues extracts a sort key from named values using the
// descriptor's ORDER BY columns and directions. Missing columns become Null
// components.
func OrderKeyFromValues(orderFieldNames []string, directions []query.Direction, values []value.Named) value.OrderKey {
	components := make([]value.Value, len(orderFieldNames))
	for i, name := range orderFieldNames {
		v, found := lookupValue(values, name)
		if !found {
			v = value.Null{}
		}
		components[i] = v
	}
	descending := make([]bool, len(directions))
	for i, dir := range directions {
		descending[i] = dir == query.Desc
	}
	return value.NewOrderKey(components, descending)
}

// RowMatchesFilters reports whether a row's named values satisfy every
// mutation filter. A filter on a column the row does not carry is treated as
// satisfied; dropping the row on unknown data would desynchronize the cache.
func RowMatchesFilters(rowValues []value.Named, filters []query.FieldFilter) bool {
	for _, f := range filters {
		v, found := lookupValue(rowValues, f.Left.Field)
		if !found {
			continue
		}
		if !f.SatisfiedBy(v) {
			return false
		}
	}
	return true
}

func mergeInsert[T Row, P RowPtr[T]](coll Collection[T], d Descriptor, insertedValues []value.Named) {
	row, ok := RowFromInsert[T, P](d, insertedValues)
	if !ok {
		return
	}
	key := OrderKeyFromValues(d.OrderFieldNames, d.OrderDirections, insertedValues)
	coll.Push(row, key)
}

func mergeUpdate[T Row, P RowPtr[T]](coll Collection[T], d Descriptor, changed []query.NamedExpr, mutationFilters []query.FieldFilter) {
	orderChanged := slices.ContainsFunc(d.OrderFieldNames, func(name string) bool {
		return slices.ContainsFunc(changed, func(c query.NamedExpr) bool {
			return c.Column == name
		})
	})

	coll.Rewrite(func(row T) (T, *value.OrderKey) {
		rowValues := ToFields(row, d.FieldNames)
		if !RowMatchesFilters(rowValues, mutationFilters) {
			return row, nil
		}

		updated := applyChanges(d.FieldNames, rowValues, changed)

		var newKey *value.OrderKey
		if orderChanged {
			// The key may order by columns outside the selected field set, so
			// collect both the updated selection and every assigned column.
			allValues := make([]value.Named, 0, len(d.FieldNames)+len(changed))
			for i, name := range d.FieldNames {
				allValues = append(allValues, value.Named{Column: name, Value: updated[i]})
			}
			for _, c := range changed {
				allValues = append(allValues, value.Named{Column: c.Column, Value: c.Expr.Resolve(rowValues)})
			}
			k := OrderKeyFromValues(d.OrderFieldNames, d.OrderDirections, allValues)
			newKey = &k
		}

		newRow, err := FromValues[T, P](updated)
		if err != nil {
			return row, nil
		}
		return newRow, newKey
	})
}

func mergeDelete[T Row](coll Collection[T], d Descriptor, mutationFilters []query.FieldFilter) {
	coll.Retain(func(row T) bool {
		return !RowMatchesFilters(ToFields(row, d.FieldNames), mutationFilters)
	})
}

// applyChanges produces the row's post-update value stream: assigned columns
// are resolved against the pre-update row, everything else carries over.
func applyChanges(fieldNames []string, rowValues []value.Named, changed []query.NamedExpr) []value.Value {
	updated := make([]value.Value, len(fieldNames))
	for i, name := range fieldNames {
		if j := slices.IndexFunc(changed, func(c query.NamedExpr) bool { return c.Column == name }); j >= 0 {
			updated[i] = changed[j].Expr.Resolve(rowValues)
			continue
		}
		v, found := lookupValue(rowValues, name)
		if !found {
			v = value.Null{}
		}
		updated[i] = v
	}
	return updated
}

// orderedByFieldNames projects named values onto the field-name order,
// filling gaps with Null.
func orderedByFieldNames(fieldNames []string, values []value.Named) []value.Value {
	out := make([]value.Value, len(fieldNames))
	for i, name := range fieldNames {
		v, found := lookupValue(values, name)
		if !found {
			v = value.Null{}
		}
		out[i] = v
	}
	return out
}
