package subscription

import (
	"slices"

	"github.com/lumenstore/lumen/ordmap"
	"github.com/lumenstore/lumen/value"
)

// Collection is a cached multi-row result the merge engine maintains in
// place. Implementations keep rows in order-key order.
//
// Rewrite visits every row; fn returns the replacement row and, when the
// row's sort position changed, its new order key (nil means the position is
// unchanged). Implementations defer relocation until the scan completes, so
// fn observes each original row exactly once.
type Collection[T Row] interface {
	Len() int

	// Push inserts a row at its sorted position.
	Push(row T, key value.OrderKey)

	// Rewrite replaces rows in place, relocating the ones whose order key
	// changed after the full scan.
	Rewrite(fn func(row T) (T, *value.OrderKey))

	// Retain drops every row for which keep returns false.
	Retain(keep func(row T) bool)

	// Values returns the rows in iteration order.
	Values() []T

	// Clone returns an independent copy for change detection.
	Clone() Collection[T]

	// Equal reports whether both collections hold equal rows in the same
	// order. Used to decide whether a merge changed anything.
	Equal(other Collection[T]) bool
}

// KeyedRow combines the row contract with a unique key, the requirement for
// map-backed collections.
type KeyedRow[K comparable] interface {
	Row
	Keyed[K]
}

// Rows is a slice-backed Collection for row types without a unique key.
// Inserting never deduplicates; two pushes of the same row yield two entries.
type Rows[T Row] struct {
	entries []rowEntry[T]
}

type rowEntry[T Row] struct {
	row T
	key value.OrderKey
}

// NewRows creates an empty slice-backed collection.
func NewRows[T Row]() *Rows[T] {
	return &Rows[T]{}
}

func (r *Rows[T]) Len() int {
	return len(r.entries)
}

func (r *Rows[T]) Push(row T, key value.OrderKey) {
	r.entries = slices.Insert(r.entries, r.upperBound(key), rowEntry[T]{row: row, key: key})
}

func (r *Rows[T]) Rewrite(fn func(row T) (T, *value.OrderKey)) {
	moved := make(map[int]value.OrderKey)
	for i := range r.entries {
		row, newKey := fn(r.entries[i].row)
		r.entries[i].row = row
		if newKey != nil {
			moved[i] = *newKey
		}
	}
	if len(moved) == 0 {
		return
	}
	// Pull every moved entry out before reinserting any. Replaying moves one
	// at a time by recorded index is wrong: a reinsert can land at or before
	// a still-pending index and change which entry that index names.
	pulled := make([]rowEntry[T], 0, len(moved))
	kept := r.entries[:0]
	for i, e := range r.entries {
		if key, ok := moved[i]; ok {
			e.key = key
			pulled = append(pulled, e)
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	for _, e := range pulled {
		r.entries = slices.Insert(r.entries, r.upperBound(e.key), e)
	}
}

func (r *Rows[T]) Retain(keep func(row T) bool) {
	r.entries = slices.DeleteFunc(r.entries, func(e rowEntry[T]) bool {
		return !keep(e.row)
	})
}

func (r *Rows[T]) Values() []T {
	out := make([]T, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.row
	}
	return out
}

func (r *Rows[T]) Clone() Collection[T] {
	out := &Rows[T]{entries: make([]rowEntry[T], len(r.entries))}
	for i, e := range r.entries {
		out.entries[i] = rowEntry[T]{row: e.row, key: e.key.Clone()}
	}
	return out
}

func (r *Rows[T]) Equal(other Collection[T]) bool {
	o, ok := other.(*Rows[T])
	if !ok || len(r.entries) != len(o.entries) {
		return false
	}
	for i, e := range r.entries {
		oe := o.entries[i]
		if !e.key.Equal(oe.key) || !RowsEqual(e.row, oe.row) {
			return false
		}
	}
	return true
}

// upperBound returns the insertion index after any run of equal keys, so
// ties keep arrival order.
func (r *Rows[T]) upperBound(key value.OrderKey) int {
	i, _ := slices.BinarySearchFunc(r.entries, key, func(e rowEntry[T], target value.OrderKey) int {
		if c := e.key.Compare(target); c != 0 {
			return c
		}
		return -1
	})
	return i
}

// Ordered is a Collection backed by the dual-index ordered map. Pushing a
// row whose key is already present replaces the old row, which makes merges
// idempotent for keyed types.
type Ordered[K comparable, T KeyedRow[K]] struct {
	m *ordmap.Map[K, T]
}

// NewOrdered creates an empty map-backed collection.
func NewOrdered[K comparable, T KeyedRow[K]]() *Ordered[K, T] {
	return &Ordered[K, T]{m: ordmap.New[K, T]()}
}

func (o *Ordered[K, T]) Len() int {
	return o.m.Len()
}

func (o *Ordered[K, T]) Push(row T, key value.OrderKey) {
	o.m.Insert(row.Key(), row, key)
}

func (o *Ordered[K, T]) Rewrite(fn func(row T) (T, *value.OrderKey)) {
	type relocation struct {
		key      K
		orderKey value.OrderKey
	}
	var moves []relocation
	o.m.Each(func(k K, row T) {
		newRow, newKey := fn(row)
		*o.m.GetMut(k) = newRow
		if newKey != nil {
			moves = append(moves, relocation{key: k, orderKey: *newKey})
		}
	})
	for _, mv := range moves {
		o.m.UpdateOrderForKey(mv.key, mv.orderKey)
	}
}

func (o *Ordered[K, T]) Retain(keep func(row T) bool) {
	o.m.Retain(keep)
}

func (o *Ordered[K, T]) Values() []T {
	return o.m.Values()
}

func (o *Ordered[K, T]) Clone() Collection[T] {
	return &Ordered[K, T]{m: o.m.Clone()}
}

func (o *Ordered[K, T]) Equal(other Collection[T]) bool {
	oo, ok := other.(*Ordered[K, T])
	if !ok {
		return false
	}
	return o.m.EqualFunc(oo.m, RowsEqual[T])
}
