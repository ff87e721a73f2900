package subscription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenstore/lumen/value"
)

func TestRowsPushSortedStable(t *testing.T) {
	coll := NewRows[userRow]()
	coll.Push(userRow{ID: 2, Name: "bob", Age: 30}, ageKey(30))
	coll.Push(userRow{ID: 1, Name: "ann", Age: 20}, ageKey(20))
	coll.Push(userRow{ID: 3, Name: "cal", Age: 30}, ageKey(30))

	// Equal keys keep arrival order: bob before cal.
	assert.Equal(t, []userRow{
		{ID: 1, Name: "ann", Age: 20},
		{ID: 2, Name: "bob", Age: 30},
		{ID: 3, Name: "cal", Age: 30},
	}, coll.Values())
}

func TestRowsDoesNotDeduplicate(t *testing.T) {
	coll := NewRows[userRow]()
	row := userRow{ID: 1, Name: "ann", Age: 20}
	coll.Push(row, ageKey(20))
	coll.Push(row, ageKey(20))

	assert.Equal(t, 2, coll.Len())
}

func TestRowsRewriteRelocation(t *testing.T) {
	coll := seededRows(
		userRow{ID: 1, Name: "ann", Age: 10},
		userRow{ID: 2, Name: "bob", Age: 20},
		userRow{ID: 3, Name: "cal", Age: 30},
	)

	// Move ann to the back and cal to the front in one scan.
	coll.Rewrite(func(row userRow) (userRow, *value.OrderKey) {
		switch row.ID {
		case 1:
			row.Age = 40
			k := ageKey(40)
			return row, &k
		case 3:
			row.Age = 5
			k := ageKey(5)
			return row, &k
		default:
			return row, nil
		}
	})

	assert.Equal(t, []userRow{
		{ID: 3, Name: "cal", Age: 5},
		{ID: 2, Name: "bob", Age: 20},
		{ID: 1, Name: "ann", Age: 40},
	}, coll.Values())
}

func TestRowsRewriteVisitsEachRowOnce(t *testing.T) {
	coll := seededRows(
		userRow{ID: 1, Name: "ann", Age: 10},
		userRow{ID: 2, Name: "bob", Age: 20},
	)

	visits := map[int64]int{}
	coll.Rewrite(func(row userRow) (userRow, *value.OrderKey) {
		visits[row.ID]++
		// Relocating every row must not cause re-visits.
		k := ageKey(100 - row.Age)
		return row, &k
	})

	assert.Equal(t, map[int64]int{1: 1, 2: 1}, visits)
	assert.Equal(t, []userRow{
		{ID: 2, Name: "bob", Age: 20},
		{ID: 1, Name: "ann", Age: 10},
	}, coll.Values())
}

func TestRowsRetain(t *testing.T) {
	coll := seededRows(
		userRow{ID: 1, Name: "ann", Age: 10},
		userRow{ID: 2, Name: "bob", Age: 20},
		userRow{ID: 3, Name: "cal", Age: 30},
	)

	coll.Retain(func(row userRow) bool { return row.Age >= 20 })

	assert.Equal(t, []userRow{
		{ID: 2, Name: "bob", Age: 20},
		{ID: 3, Name: "cal", Age: 30},
	}, coll.Values())
}

func TestRowsCloneAndEqual(t *testing.T) {
	coll := seededRows(userRow{ID: 1, Name: "ann", Age: 10})

	clone := coll.Clone()
	assert.True(t, coll.Equal(clone))

	clone.Push(userRow{ID: 2, Name: "bob", Age: 20}, ageKey(20))
	assert.False(t, coll.Equal(clone))
	assert.Equal(t, 1, coll.Len(), "clone mutations do not leak back")
}

func TestRowsEqualDetectsOrderDifference(t *testing.T) {
	a := NewRows[userRow]()
	a.Push(userRow{ID: 1, Name: "ann", Age: 10}, ageKey(1))
	a.Push(userRow{ID: 2, Name: "bob", Age: 20}, ageKey(2))

	b := NewRows[userRow]()
	b.Push(userRow{ID: 2, Name: "bob", Age: 20}, ageKey(1))
	b.Push(userRow{ID: 1, Name: "ann", Age: 10}, ageKey(2))

	assert.False(t, a.Equal(b))
}

func TestOrderedPushReplacesByKey(t *testing.T) {
	coll := NewOrdered[int64, userRow]()
	coll.Push(userRow{ID: 1, Name: "ann", Age: 20}, ageKey(20))
	coll.Push(userRow{ID: 1, Name: "anne", Age: 25}, ageKey(25))

	require.Equal(t, 1, coll.Len())
	assert.Equal(t, "anne", coll.Values()[0].Name)
}

func TestOrderedRewriteRelocation(t *testing.T) {
	coll := NewOrdered[int64, userRow]()
	coll.Push(userRow{ID: 1, Name: "ann", Age: 10}, ageKey(10))
	coll.Push(userRow{ID: 2, Name: "bob", Age: 20}, ageKey(20))

	coll.Rewrite(func(row userRow) (userRow, *value.OrderKey) {
		if row.ID == 1 {
			row.Age = 30
			k := ageKey(30)
			return row, &k
		}
		return row, nil
	})

	assert.Equal(t, []userRow{
		{ID: 2, Name: "bob", Age: 20},
		{ID: 1, Name: "ann", Age: 30},
	}, coll.Values())
}

func TestOrderedCloneAndEqual(t *testing.T) {
	coll := NewOrdered[int64, userRow]()
	coll.Push(userRow{ID: 1, Name: "ann", Age: 10}, ageKey(10))

	clone := coll.Clone()
	assert.True(t, coll.Equal(clone))

	clone.Push(userRow{ID: 2, Name: "bob", Age: 20}, ageKey(20))
	assert.False(t, coll.Equal(clone))
	assert.Equal(t, 1, coll.Len())
}

func TestCollectionEqualDifferentImplementations(t *testing.T) {
	rows := NewRows[userRow]()
	ordered := NewOrdered[int64, userRow]()
	assert.False(t, rows.Equal(ordered))
	assert.False(t, ordered.Equal(rows))
}
