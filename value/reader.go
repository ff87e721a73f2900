package value

// Reader decodes an ordered value stream into typed Go values. Row types use
// it in their ScanValues implementations: one getter call per field, in field
// order, then Finish to assert the stream was fully consumed.
//
// Getters follow the same widening rules as Compare: Int32 accepts a BigInt
// (truncating), Int64 accepts an Int, Float32/Float64 accept either float
// width, Bool accepts nonzero integers. Null passed to a non-nullable getter
// is an UNEXPECTED_NULL error; use the Nullable variants for optional fields.
type Reader struct {
	values []Value
	pos    int
	err    error
}

// NewReader wraps values for sequential decoding.
func NewReader(values []Value) *Reader {
	return &Reader{values: values}
}

// Err returns the first error encountered by any getter.
func (r *Reader) Err() error {
	return r.err
}

// Finish returns the first getter error, or a WRONG_NUMBER_OF_VALUES error if
// values remain unconsumed.
func (r *Reader) Finish() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.values) {
		return ErrWrongNumberOfValues(r.pos, len(r.values))
	}
	return nil
}

func (r *Reader) next() (Value, bool) {
	if r.err != nil {
		return nil, false
	}
	if r.pos >= len(r.values) {
		r.err = ErrWrongNumberOfValues(r.pos+1, len(r.values))
		return nil, false
	}
	v := r.values[r.pos]
	r.pos++
	if v == nil {
		v = Null{}
	}
	return v, true
}

func (r *Reader) fail(expected Kind, got Value) {
	if _, isNull := got.(Null); isNull {
		r.err = ErrUnexpectedNull()
		return
	}
	r.err = ErrTypeMismatch(expected, KindOf(got))
}

// Int32 consumes the next value as an Int, widening from BigInt.
func (r *Reader) Int32() int32 {
	v, ok := r.next()
	if !ok {
		return 0
	}
	switch av := v.(type) {
	case Int:
		return int32(av)
	case BigInt:
		return int32(av)
	default:
		r.fail(KindInt, v)
		return 0
	}
}

// Int64 consumes the next value as a BigInt, widening from Int.
func (r *Reader) Int64() int64 {
	v, ok := r.next()
	if !ok {
		return 0
	}
	switch av := v.(type) {
	case BigInt:
		return int64(av)
	case Int:
		return int64(av)
	default:
		r.fail(KindBigInt, v)
		return 0
	}
}

// Float32 consumes the next value as a Float, narrowing from Double.
func (r *Reader) Float32() float32 {
	v, ok := r.next()
	if !ok {
		return 0
	}
	switch av := v.(type) {
	case Float:
		return float32(av)
	case Double:
		return float32(av)
	default:
		r.fail(KindFloat, v)
		return 0
	}
}

// Float64 consumes the next value as a Double, widening from Float.
func (r *Reader) Float64() float64 {
	v, ok := r.next()
	if !ok {
		return 0
	}
	switch av := v.(type) {
	case Double:
		return float64(av)
	case Float:
		return float64(av)
	default:
		r.fail(KindDouble, v)
		return 0
	}
}

// Bool consumes the next value as a Bool; nonzero integers read as true.
func (r *Reader) Bool() bool {
	v, ok := r.next()
	if !ok {
		return false
	}
	switch av := v.(type) {
	case Bool:
		return bool(av)
	case Int:
		return av != 0
	case BigInt:
		return av != 0
	default:
		r.fail(KindBool, v)
		return false
	}
}

// Text consumes the next value as Text.
func (r *Reader) Text() string {
	v, ok := r.next()
	if !ok {
		return ""
	}
	if av, isText := v.(Text); isText {
		return string(av)
	}
	r.fail(KindText, v)
	return ""
}

// Blob consumes the next value as a Blob. The returned slice is a copy.
func (r *Reader) Blob() []byte {
	v, ok := r.next()
	if !ok {
		return nil
	}
	if av, isBlob := v.(Blob); isBlob {
		return []byte(Clone(av).(Blob))
	}
	r.fail(KindBlob, v)
	return nil
}

// NullableInt64 consumes the next value, mapping Null to nil.
func (r *Reader) NullableInt64() *int64 {
	if r.peekNull() {
		return nil
	}
	v := r.Int64()
	if r.err != nil {
		return nil
	}
	return &v
}

// NullableText consumes the next value, mapping Null to nil.
func (r *Reader) NullableText() *string {
	if r.peekNull() {
		return nil
	}
	v := r.Text()
	if r.err != nil {
		return nil
	}
	return &v
}

// NullableFloat64 consumes the next value, mapping Null to nil.
func (r *Reader) NullableFloat64() *float64 {
	if r.peekNull() {
		return nil
	}
	v := r.Float64()
	if r.err != nil {
		return nil
	}
	return &v
}

// NullableBool consumes the next value, mapping Null to nil.
func (r *Reader) NullableBool() *bool {
	if r.peekNull() {
		return nil
	}
	v := r.Bool()
	if r.err != nil {
		return nil
	}
	return &v
}

// peekNull consumes a leading Null and reports whether it did.
func (r *Reader) peekNull() bool {
	if r.err != nil || r.pos >= len(r.values) {
		return false
	}
	v := r.values[r.pos]
	if v == nil {
		r.pos++
		return true
	}
	if _, isNull := v.(Null); isNull {
		r.pos++
		return true
	}
	return false
}
