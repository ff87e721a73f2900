package subscription

import (
	"github.com/lumenstore/lumen/value"
)

// Row is implemented by result-row types that can be decomposed into an
// ordered value stream. Together with ScanValues (see RowPtr) it forms the
// to-fields/from-fields pair the merge engine rebuilds rows through.
//
// The values appended must correspond, in order, to the field names the row
// was selected with. Round trip law: scanning the appended values back must
// reproduce the row.
type Row interface {
	// AppendValues appends the row's field values, in field order, to dst.
	AppendValues(dst []value.Value) []value.Value
}

// RowPtr constrains a pointer to a row type that can be rebuilt from an
// ordered value stream. ScanValues reports a value.ConversionError when the
// stream has the wrong arity or a value of the wrong kind.
type RowPtr[T any] interface {
	*T
	ScanValues(values []value.Value) error
}

// Keyed is implemented by row types with a unique key, required by ordered
// collections for O(1) lookup and deduplication.
type Keyed[K comparable] interface {
	Key() K
}

// RowValues decomposes a row into its ordered value slice.
func RowValues[T Row](row T) []value.Value {
	return row.AppendValues(nil)
}

// ToFields decomposes a row into named (column, value) pairs using the
// descriptor's field names. Extra values beyond the named fields are dropped;
// missing trailing values are not padded.
func ToFields[T Row](row T, fieldNames []string) []value.Named {
	values := RowValues(row)
	n := min(len(values), len(fieldNames))
	out := make([]value.Named, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, value.Named{Column: fieldNames[i], Value: values[i]})
	}
	return out
}

// FromValues rebuilds a row from an ordered value stream.
func FromValues[T any, P RowPtr[T]](values []value.Value) (T, error) {
	var row T
	if err := P(&row).ScanValues(values); err != nil {
		var zero T
		return zero, err
	}
	return row, nil
}

// RowsEqual compares two rows by their decomposed values.
func RowsEqual[T Row](a, b T) bool {
	av := RowValues(a)
	bv := RowValues(b)
	if len(av) != len(bv) {
		return false
	}
	for i := range av {
		if !value.Equal(av[i], bv[i]) {
			return false
		}
	}
	return true
}
