// Package ordmap provides a dual-index map: O(1) lookup by key plus
// iteration in order-key order. It backs multi-row, sorted subscription
// outputs.
//
// Each entry is stored once; the lookup index and the order index both point
// at the same entry allocation, so the order key is shared between them
// (the at-most-two-owners relationship, expressed through one pointer). The
// order index is a sorted slice maintained with binary search: merge
// operations visit every row anyway, so a tree buys nothing here.
package ordmap

import (
	"slices"

	"github.com/lumenstore/lumen/value"
)

type entry[K comparable, V any] struct {
	key      K
	orderKey value.OrderKey
	val      V
}

// Map is the dual-index structure. The zero value is not usable; call New.
//
// Entries with equal order keys are kept in insertion order (stable).
type Map[K comparable, V any] struct {
	lookup map[K]*entry[K, V]
	order  []*entry[K, V]
}

// New creates an empty map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{lookup: make(map[K]*entry[K, V])}
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int {
	return len(m.lookup)
}

// Insert adds an entry. Any prior entry for the same key is removed first so
// the order index never holds a stale position.
func (m *Map[K, V]) Insert(key K, val V, orderKey value.OrderKey) {
	if _, exists := m.lookup[key]; exists {
		m.Remove(key)
	}
	e := &entry[K, V]{key: key, orderKey: orderKey, val: val}
	m.lookup[key] = e
	m.order = slices.Insert(m.order, m.upperBound(orderKey), e)
}

// Get returns the value for key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	if e, ok := m.lookup[key]; ok {
		return e.val, true
	}
	var zero V
	return zero, false
}

// GetMut returns a pointer to the stored value for in-place mutation, or nil
// if the key is absent. Mutating through it must not change the entry's key
// or its ordering; use Insert or UpdateOrderForKey for those.
func (m *Map[K, V]) GetMut(key K) *V {
	if e, ok := m.lookup[key]; ok {
		return &e.val
	}
	return nil
}

// OrderKeyFor returns the order key stored for key.
func (m *Map[K, V]) OrderKeyFor(key K) (value.OrderKey, bool) {
	if e, ok := m.lookup[key]; ok {
		return e.orderKey, true
	}
	return value.OrderKey{}, false
}

// Remove deletes the entry for key and returns its value.
func (m *Map[K, V]) Remove(key K) (V, bool) {
	e, ok := m.lookup[key]
	if !ok {
		var zero V
		return zero, false
	}
	delete(m.lookup, key)
	m.order = slices.Delete(m.order, m.indexOf(e), m.indexOf(e)+1)
	return e.val, true
}

// UpdateOrderForKey atomically relocates an entry to its new sort position.
// Returns false if the key is absent.
func (m *Map[K, V]) UpdateOrderForKey(key K, newOrderKey value.OrderKey) bool {
	e, ok := m.lookup[key]
	if !ok {
		return false
	}
	i := m.indexOf(e)
	m.order = slices.Delete(m.order, i, i+1)
	e.orderKey = newOrderKey
	m.order = slices.Insert(m.order, m.upperBound(newOrderKey), e)
	return true
}

// Values returns the values in order-key order.
func (m *Map[K, V]) Values() []V {
	out := make([]V, len(m.order))
	for i, e := range m.order {
		out[i] = e.val
	}
	return out
}

// Keys returns the keys in order-key order.
func (m *Map[K, V]) Keys() []K {
	out := make([]K, len(m.order))
	for i, e := range m.order {
		out[i] = e.key
	}
	return out
}

// Each visits every entry in unspecified order. Full-scan visitation is fine
// for merge operations, which must touch every row regardless of order. The
// callback must not mutate the map.
func (m *Map[K, V]) Each(fn func(key K, val V)) {
	for k, e := range m.lookup {
		fn(k, e.val)
	}
}

// Retain keeps only entries for which keep returns true.
func (m *Map[K, V]) Retain(keep func(val V) bool) {
	var drop []K
	for k, e := range m.lookup {
		if !keep(e.val) {
			drop = append(drop, k)
		}
	}
	for _, k := range drop {
		m.Remove(k)
	}
}

// Clone returns a deep copy of the index structure. Values are copied
// shallowly; order keys are cloned.
func (m *Map[K, V]) Clone() *Map[K, V] {
	out := New[K, V]()
	out.order = make([]*entry[K, V], len(m.order))
	for i, e := range m.order {
		ce := &entry[K, V]{key: e.key, orderKey: e.orderKey.Clone(), val: e.val}
		out.order[i] = ce
		out.lookup[ce.key] = ce
	}
	return out
}

// EqualFunc reports whether two maps hold the same entries in the same
// iteration order, comparing values with eq. Both the value set and the
// exact order must match.
func (m *Map[K, V]) EqualFunc(other *Map[K, V], eq func(a, b V) bool) bool {
	if len(m.order) != len(other.order) {
		return false
	}
	for i, e := range m.order {
		oe := other.order[i]
		if e.key != oe.key || !e.orderKey.Equal(oe.orderKey) || !eq(e.val, oe.val) {
			return false
		}
	}
	return true
}

// upperBound returns the insertion index after any run of equal order keys,
// keeping ties stable.
func (m *Map[K, V]) upperBound(orderKey value.OrderKey) int {
	i, _ := slices.BinarySearchFunc(m.order, orderKey, func(e *entry[K, V], target value.OrderKey) int {
		if c := e.orderKey.Compare(target); c != 0 {
			return c
		}
		// Treat equal keys as "less" so the search lands after the run.
		return -1
	})
	return i
}

// indexOf locates an entry in the order slice: binary search to the start of
// its order-key run, then a short scan for pointer identity.
func (m *Map[K, V]) indexOf(e *entry[K, V]) int {
	i, _ := slices.BinarySearchFunc(m.order, e.orderKey, func(cand *entry[K, V], target value.OrderKey) int {
		if c := cand.orderKey.Compare(target); c != 0 {
			return c
		}
		// Land at the first entry of the run.
		return 1
	})
	for ; i < len(m.order); i++ {
		if m.order[i] == e {
			return i
		}
	}
	// Unreachable while lookup and order stay consistent.
	panic("ordmap: entry missing from order index")
}
