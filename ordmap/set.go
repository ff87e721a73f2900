package ordmap

import (
	"github.com/lumenstore/lumen/value"
)

// Set is a Map with no per-entry value: member keys iterated in order-key
// order. Re-inserting a member relocates it, exactly like Map.Insert.
type Set[K comparable] struct {
	m *Map[K, struct{}]
}

// NewSet creates an empty set.
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{m: New[K, struct{}]()}
}

// Len returns the number of members.
func (s *Set[K]) Len() int {
	return s.m.Len()
}

// Insert adds a member at its sorted position, removing any prior entry for
// the same key first.
func (s *Set[K]) Insert(key K, orderKey value.OrderKey) {
	s.m.Insert(key, struct{}{}, orderKey)
}

// Contains reports membership.
func (s *Set[K]) Contains(key K) bool {
	_, ok := s.m.Get(key)
	return ok
}

// Remove deletes a member, reporting whether it was present.
func (s *Set[K]) Remove(key K) bool {
	_, ok := s.m.Remove(key)
	return ok
}

// UpdateOrderForKey relocates a member to its new sort position. Returns
// false if the key is absent.
func (s *Set[K]) UpdateOrderForKey(key K, newOrderKey value.OrderKey) bool {
	return s.m.UpdateOrderForKey(key, newOrderKey)
}

// Keys returns the members in order-key order.
func (s *Set[K]) Keys() []K {
	return s.m.Keys()
}

// Clone returns an independent copy.
func (s *Set[K]) Clone() *Set[K] {
	return &Set[K]{m: s.m.Clone()}
}

// Equal reports whether both sets hold the same members in the same
// iteration order.
func (s *Set[K]) Equal(other *Set[K]) bool {
	return s.m.EqualFunc(other.m, func(a, b struct{}) bool { return true })
}
