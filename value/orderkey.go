package value

import (
	"strings"
)

// OrderKey is a composite, direction-aware sort key: one component per ORDER
// BY column, with a parallel descending flag per component. It keeps a cached
// collection sorted without re-querying.
//
// Equality and ordering are deliberately asymmetric. Equal (and the
// descriptor fingerprint) consider component values only, while Compare
// consults the direction flags. Within a single collection every key carries
// the same direction vector, which comes from the query rather than the row, so
// value-only equality is safe for dedup there, and keys from differently
// ordered queries are never mixed in one index.
type OrderKey struct {
	components []Value
	descending []bool
}

// NewOrderKey builds a key from components and their per-component descending
// flags. The two slices are expected to have the same length; a short
// descending slice reads as ascending for the remaining components.
func NewOrderKey(components []Value, descending []bool) OrderKey {
	return OrderKey{components: components, descending: descending}
}

// Len returns the number of components.
func (k OrderKey) Len() int {
	return len(k.components)
}

// Component returns the i-th component value.
func (k OrderKey) Component(i int) Value {
	return k.components[i]
}

// Compare orders two keys lexicographically. The first differing component
// decides, negated when that component is flagged descending. If all shared
// components are equal the shorter key sorts first.
func (k OrderKey) Compare(other OrderKey) int {
	n := min(len(k.components), len(other.components))
	for i := 0; i < n; i++ {
		c := Compare(k.components[i], other.components[i])
		if c == 0 {
			continue
		}
		if i < len(k.descending) && k.descending[i] {
			c = -c
		}
		return c
	}
	return compareInt64(int64(len(k.components)), int64(len(other.components)))
}

// Equal reports component-value equality, ignoring direction flags. See the
// type comment for why.
func (k OrderKey) Equal(other OrderKey) bool {
	if len(k.components) != len(other.components) {
		return false
	}
	for i, c := range k.components {
		if !Equal(c, other.components[i]) {
			return false
		}
	}
	return true
}

// Clone returns a key sharing no mutable state with the original.
func (k OrderKey) Clone() OrderKey {
	components := make([]Value, len(k.components))
	for i, c := range k.components {
		components[i] = Clone(c)
	}
	descending := make([]bool, len(k.descending))
	copy(descending, k.descending)
	return OrderKey{components: components, descending: descending}
}

// String renders the key for debug output, marking descending components.
func (k OrderKey) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, c := range k.components {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(String(c))
		if i < len(k.descending) && k.descending[i] {
			b.WriteString(" desc")
		}
	}
	b.WriteByte(')')
	return b.String()
}
