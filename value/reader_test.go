package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderSequentialDecode(t *testing.T) {
	r := NewReader([]Value{BigInt(42), Text("alice"), Bool(true), Double(1.5)})

	assert.Equal(t, int64(42), r.Int64())
	assert.Equal(t, "alice", r.Text())
	assert.True(t, r.Bool())
	assert.Equal(t, 1.5, r.Float64())
	require.NoError(t, r.Finish())
}

func TestReaderWidening(t *testing.T) {
	t.Run("int64 accepts Int", func(t *testing.T) {
		r := NewReader([]Value{Int(7)})
		assert.Equal(t, int64(7), r.Int64())
		require.NoError(t, r.Finish())
	})

	t.Run("int32 accepts BigInt", func(t *testing.T) {
		r := NewReader([]Value{BigInt(7)})
		assert.Equal(t, int32(7), r.Int32())
		require.NoError(t, r.Finish())
	})

	t.Run("float64 accepts Float", func(t *testing.T) {
		r := NewReader([]Value{Float(1.5)})
		assert.Equal(t, 1.5, r.Float64())
		require.NoError(t, r.Finish())
	})

	t.Run("bool accepts nonzero integer", func(t *testing.T) {
		r := NewReader([]Value{BigInt(1), BigInt(0)})
		assert.True(t, r.Bool())
		assert.False(t, r.Bool())
		require.NoError(t, r.Finish())
	})
}

func TestReaderTypeMismatch(t *testing.T) {
	r := NewReader([]Value{Text("not a number")})
	r.Int64()

	ce, ok := AsConversionError(r.Err())
	require.True(t, ok)
	assert.Equal(t, ErrCodeTypeMismatch, ce.Code)
	assert.Equal(t, "BigInt", ce.Expected)
	assert.Equal(t, "Text", ce.Got)
}

func TestReaderUnexpectedNull(t *testing.T) {
	r := NewReader([]Value{Null{}})
	r.Text()

	ce, ok := AsConversionError(r.Err())
	require.True(t, ok)
	assert.Equal(t, ErrCodeUnexpectedNull, ce.Code)
}

func TestReaderArity(t *testing.T) {
	t.Run("too few values", func(t *testing.T) {
		r := NewReader([]Value{BigInt(1)})
		r.Int64()
		r.Int64()
		ce, ok := AsConversionError(r.Err())
		require.True(t, ok)
		assert.Equal(t, ErrCodeWrongNumberOfValues, ce.Code)
	})

	t.Run("unconsumed values", func(t *testing.T) {
		r := NewReader([]Value{BigInt(1), BigInt(2)})
		r.Int64()
		ce, ok := AsConversionError(r.Finish())
		require.True(t, ok)
		assert.Equal(t, ErrCodeWrongNumberOfValues, ce.Code)
		assert.Equal(t, 1, ce.ExpectedCount)
		assert.Equal(t, 2, ce.GotCount)
	})
}

func TestReaderNullable(t *testing.T) {
	r := NewReader([]Value{Null{}, Text("present"), Null{}, BigInt(9)})

	assert.Nil(t, r.NullableText())
	s := r.NullableText()
	require.NotNil(t, s)
	assert.Equal(t, "present", *s)

	assert.Nil(t, r.NullableInt64())
	n := r.NullableInt64()
	require.NotNil(t, n)
	assert.Equal(t, int64(9), *n)

	require.NoError(t, r.Finish())
}

func TestReaderErrorSticks(t *testing.T) {
	r := NewReader([]Value{Text("oops"), BigInt(5)})
	r.Int64()
	require.Error(t, r.Err())

	// Subsequent getters return zero values without consuming.
	assert.Equal(t, int64(0), r.Int64())
	require.Error(t, r.Finish())
}

func TestReaderBlobCopy(t *testing.T) {
	original := Blob{1, 2, 3}
	r := NewReader([]Value{original})
	b := r.Blob()
	require.NoError(t, r.Finish())

	b[0] = 99
	assert.Equal(t, byte(1), original[0])
}
