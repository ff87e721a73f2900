// Package value defines the typed scalar model shared by statements, mutation
// events, and cached subscription results.
//
// Value is a closed, tagged union: only the eight types defined here implement
// it. The model is deliberately small, mirroring what a SQLite column can
// hold, and totally ordered so composite sort keys can live in an ordered
// index (see OrderKey).
package value

import (
	"bytes"
	"fmt"
	"math"
	"strings"
)

// Value is a sealed interface over the supported scalar types.
// Only Int, BigInt, Float, Double, Text, Blob, Bool, and Null implement it.
type Value interface {
	value() // sealed
}

// Int is a 32-bit signed integer column value.
type Int int32

func (Int) value() {}

// BigInt is a 64-bit signed integer column value.
type BigInt int64

func (BigInt) value() {}

// Float is a 32-bit floating point column value.
type Float float32

func (Float) value() {}

// Double is a 64-bit floating point column value.
type Double float64

func (Double) value() {}

// Text is a string column value.
type Text string

func (Text) value() {}

// Blob is a raw byte column value.
type Blob []byte

func (Blob) value() {}

// Bool is a boolean column value.
type Bool bool

func (Bool) value() {}

// Null is the SQL NULL value. Using an explicit type keeps the union sealed.
type Null struct{}

func (Null) value() {}

// Named pairs a column name with its value. Mutation events and the merge
// engine traffic in slices of Named rather than maps so column order is
// preserved and iteration stays deterministic.
type Named struct {
	Column string
	Value  Value
}

// Kind identifies the concrete type behind a Value. The declaration order is
// the cross-kind comparison rank: Null < Bool < Int < BigInt < Float < Double
// < Text < Blob.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindBigInt
	KindFloat
	KindDouble
	KindText
	KindBlob
)

// String returns the kind name used in conversion error messages.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt:
		return "Int"
	case KindBigInt:
		return "BigInt"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	case KindText:
		return "Text"
	case KindBlob:
		return "Blob"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// KindOf returns the Kind of v. A nil Value is treated as Null.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Int:
		return KindInt
	case BigInt:
		return KindBigInt
	case Float:
		return KindFloat
	case Double:
		return KindDouble
	case Text:
		return KindText
	case Blob:
		return KindBlob
	case Bool:
		return KindBool
	case Null, nil:
		return KindNull
	default:
		panic(fmt.Sprintf("value: unknown Value type %T", v))
	}
}

// Compare totally orders two values.
//
// Same-kind values compare naturally (floats via a NaN-total-order bit trick,
// so NaN sorts above +Inf instead of poisoning the order). Int/BigInt and
// Float/Double pairs compare after widening. Every other cross-kind pair falls
// back to the fixed kind rank. The result is a total order, which OrderKey
// relies on for its sorted index.
func Compare(a, b Value) int {
	ka, kb := KindOf(a), KindOf(b)

	switch {
	case integerKind(ka) && integerKind(kb):
		return compareInt64(asInt64(a), asInt64(b))
	case floatKind(ka) && floatKind(kb):
		return compareDoubleTotal(asFloat64(a), asFloat64(b))
	case ka != kb:
		return compareInt64(int64(ka), int64(kb))
	}

	switch av := a.(type) {
	case Text:
		return strings.Compare(string(av), string(b.(Text)))
	case Blob:
		return bytes.Compare(av, b.(Blob))
	case Bool:
		bv := b.(Bool)
		if av == bv {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case Null:
		return 0
	default:
		panic(fmt.Sprintf("value: unhandled same-kind comparison for %T", a))
	}
}

// Equal reports kind-strict equality: Int(1) and BigInt(1) are not equal even
// though Compare orders them together. Float NaN is not equal to itself,
// matching IEEE semantics. This is the equality used by filter evaluation.
func Equal(a, b Value) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch av := a.(type) {
	case Int:
		return av == b.(Int)
	case BigInt:
		return av == b.(BigInt)
	case Float:
		return av == b.(Float)
	case Double:
		return av == b.(Double)
	case Text:
		return av == b.(Text)
	case Blob:
		return bytes.Equal(av, b.(Blob))
	case Bool:
		return av == b.(Bool)
	case Null, nil:
		return true
	default:
		panic(fmt.Sprintf("value: unknown Value type %T", a))
	}
}

// Clone returns a copy of v that shares no mutable state with the original.
// Only Blob carries mutable backing storage; every other kind is returned
// as-is.
func Clone(v Value) Value {
	if b, ok := v.(Blob); ok {
		return Blob(bytes.Clone(b))
	}
	return v
}

// String renders the value the way it would appear in a SQL literal-ish debug
// dump. Blob renders as a byte count rather than raw bytes.
func String(v Value) string {
	switch av := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int32(av))
	case BigInt:
		return fmt.Sprintf("%d", int64(av))
	case Float:
		return fmt.Sprintf("%g", float32(av))
	case Double:
		return fmt.Sprintf("%g", float64(av))
	case Text:
		return string(av)
	case Blob:
		return fmt.Sprintf("blob(%d bytes)", len(av))
	case Bool:
		return fmt.Sprintf("%t", bool(av))
	case Null, nil:
		return "null"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// FromGo converts a plain Go value (as produced by YAML or JSON decoding)
// into a Value. Integers map to BigInt, floats to Double, nil to Null.
func FromGo(v any) (Value, error) {
	switch av := v.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(av), nil
	case int:
		return BigInt(av), nil
	case int32:
		return Int(av), nil
	case int64:
		return BigInt(av), nil
	case float32:
		return Float(av), nil
	case float64:
		return Double(av), nil
	case string:
		return Text(av), nil
	case []byte:
		return Blob(bytes.Clone(av)), nil
	case Value:
		return av, nil
	default:
		return nil, fmt.Errorf("value: cannot convert %T to a column value", v)
	}
}

func integerKind(k Kind) bool { return k == KindInt || k == KindBigInt }
func floatKind(k Kind) bool   { return k == KindFloat || k == KindDouble }

func asInt64(v Value) int64 {
	switch av := v.(type) {
	case Int:
		return int64(av)
	case BigInt:
		return int64(av)
	default:
		panic(fmt.Sprintf("value: %T is not an integer", v))
	}
}

func asFloat64(v Value) float64 {
	switch av := v.(type) {
	case Float:
		return float64(av)
	case Double:
		return float64(av)
	default:
		panic(fmt.Sprintf("value: %T is not a float", v))
	}
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// compareDoubleTotal implements IEEE 754 totalOrder: -NaN < -Inf < ... <
// +Inf < +NaN. Flipping the sign-extended bits turns the comparison into a
// plain integer compare.
func compareDoubleTotal(a, b float64) int {
	ab := int64(math.Float64bits(a))
	bb := int64(math.Float64bits(b))
	ab ^= int64(uint64(ab>>63) >> 1)
	bb ^= int64(uint64(bb>>63) >> 1)
	return compareInt64(ab, bb)
}
