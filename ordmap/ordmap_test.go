package ordmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenstore/lumen/value"
)

func key(n int64) value.OrderKey {
	return value.NewOrderKey([]value.Value{value.BigInt(n)}, []bool{false})
}

func TestInsertKeepsOrder(t *testing.T) {
	m := New[string, string]()
	m.Insert("c", "charlie", key(3))
	m.Insert("a", "alpha", key(1))
	m.Insert("b", "bravo", key(2))

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, m.Values())
	assert.Equal(t, []string{"a", "b", "c"}, m.Keys())
}

func TestInsertReplacesExistingKey(t *testing.T) {
	m := New[string, string]()
	m.Insert("a", "old", key(1))
	m.Insert("b", "other", key(2))
	m.Insert("a", "new", key(3))

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []string{"other", "new"}, m.Values(), "replaced entry moves to its new position")

	v, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, "new", v)
}

func TestEqualOrderKeysKeepInsertionOrder(t *testing.T) {
	m := New[string, string]()
	m.Insert("x", "first", key(5))
	m.Insert("y", "second", key(5))
	m.Insert("z", "third", key(5))

	assert.Equal(t, []string{"first", "second", "third"}, m.Values())
}

func TestRemove(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1, key(1))
	m.Insert("b", 2, key(2))

	v, ok := m.Remove("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, m.Len())
	assert.Equal(t, []int{2}, m.Values())

	_, ok = m.Remove("missing")
	assert.False(t, ok)
}

func TestRemoveAmongEqualKeys(t *testing.T) {
	m := New[string, string]()
	m.Insert("x", "first", key(5))
	m.Insert("y", "second", key(5))
	m.Insert("z", "third", key(5))

	_, ok := m.Remove("y")
	require.True(t, ok)
	assert.Equal(t, []string{"first", "third"}, m.Values())
}

func TestUpdateOrderForKey(t *testing.T) {
	m := New[string, string]()
	m.Insert("a", "alpha", key(1))
	m.Insert("b", "bravo", key(2))
	m.Insert("c", "charlie", key(3))

	require.True(t, m.UpdateOrderForKey("a", key(10)))
	assert.Equal(t, []string{"bravo", "charlie", "alpha"}, m.Values())

	ok, found := m.OrderKeyFor("a")
	require.True(t, found)
	assert.True(t, ok.Equal(key(10)))

	assert.False(t, m.UpdateOrderForKey("missing", key(0)))
}

func TestGetMut(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1, key(1))

	p := m.GetMut("a")
	require.NotNil(t, p)
	*p = 42

	v, _ := m.Get("a")
	assert.Equal(t, 42, v)
	assert.Nil(t, m.GetMut("missing"))
}

func TestRetain(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1, key(1))
	m.Insert("b", 2, key(2))
	m.Insert("c", 3, key(3))

	m.Retain(func(v int) bool { return v%2 == 1 })

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []int{1, 3}, m.Values())
}

func TestCloneIndependence(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1, key(1))
	m.Insert("b", 2, key(2))

	c := m.Clone()
	c.Insert("c", 3, key(0))
	c.Remove("a")

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, []int{1, 2}, m.Values())
	assert.Equal(t, []int{3, 2}, c.Values())
}

func TestEqualFunc(t *testing.T) {
	eq := func(a, b int) bool { return a == b }

	a := New[string, int]()
	a.Insert("x", 1, key(1))
	a.Insert("y", 2, key(2))

	b := a.Clone()
	assert.True(t, a.EqualFunc(b, eq))

	*b.GetMut("y") = 99
	assert.False(t, a.EqualFunc(b, eq))

	c := New[string, int]()
	c.Insert("y", 2, key(1))
	c.Insert("x", 1, key(2))
	assert.False(t, a.EqualFunc(c, eq), "same values in different order are not equal")

	d := New[string, int]()
	d.Insert("x", 1, key(1))
	assert.False(t, a.EqualFunc(d, eq))
}

func TestEachVisitsEverything(t *testing.T) {
	m := New[string, int]()
	m.Insert("a", 1, key(1))
	m.Insert("b", 2, key(2))

	seen := map[string]int{}
	m.Each(func(k string, v int) { seen[k] = v })
	assert.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}
